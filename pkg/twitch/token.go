// Package twitch is a small Helix client covering the endpoints the archiver
// needs: app tokens, users, videos and clips.
package twitch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const defaultAuthURL = "https://id.twitch.tv/oauth2/token"

// ErrInvalidCredentials means the token endpoint rejected the client id/secret
// or answered with something that is not a token.
var ErrInvalidCredentials = errors.New("twitch: invalid client credentials")

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// AppToken exchanges a client id and secret for an app access token using the
// client-credentials grant.
func AppToken(ctx context.Context, authURL, clientID, secret string) (string, error) {
	if strings.TrimSpace(clientID) == "" || strings.TrimSpace(secret) == "" {
		return "", fmt.Errorf("%w: client id and secret are required", ErrInvalidCredentials)
	}
	authURL = strings.TrimSpace(authURL)
	if authURL == "" {
		authURL = defaultAuthURL
	}

	u, err := url.Parse(authURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("client_id", clientID)
	q.Set("client_secret", secret)
	q.Set("grant_type", "client_credentials")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return "", err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("twitch: token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return "", &StatusError{URL: authURL, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return "", fmt.Errorf("%w: status %d: %s", ErrInvalidCredentials, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("%w: could not parse token response: %v", ErrInvalidCredentials, err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: no access token in response", ErrInvalidCredentials)
	}
	return tok.AccessToken, nil
}
