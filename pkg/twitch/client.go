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
	"time"

	"thirdcoast.systems/archiver/internal/model"
)

const (
	defaultBaseURL = "https://api.twitch.tv/helix"

	// PageSize is the largest "first" value Helix accepts.
	PageSize = 100
)

var (
	ErrChannelNotFound     = errors.New("twitch: channel not found")
	ErrInconsistentChannel = errors.New("twitch: lookup returned more than one channel")
)

// StatusError is returned for a non-2xx Helix response or a 5xx from the
// token endpoint.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("twitch: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

type Client struct {
	baseURL  string
	clientID string
	token    string
	http     *http.Client
}

func NewClient(baseURL, clientID, token string) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	return &Client{
		baseURL:  baseURL,
		clientID: clientID,
		token:    token,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type User struct {
	ID          string `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

type response[T any] struct {
	Data       []T `json:"data"`
	Pagination struct {
		Cursor string `json:"cursor"`
	} `json:"pagination"`
}

// Videos looks up archives and highlights by id. Callers are responsible for
// keeping len(ids) within PageSize.
func (c *Client) Videos(ctx context.Context, ids []string) ([]model.Video, error) {
	var out response[model.Video]
	if err := c.get(ctx, "/videos", url.Values{"id": ids}, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Clips looks up clips by id. Callers are responsible for keeping len(ids)
// within PageSize.
func (c *Client) Clips(ctx context.Context, ids []string) ([]model.Clip, error) {
	var out response[model.Clip]
	if err := c.get(ctx, "/clips", url.Values{"id": ids}, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// VideosPage lists one page of a channel's videos of the given type
// ("archive" or "highlight").
func (c *Client) VideosPage(ctx context.Context, userID, videoType, cursor string) ([]model.Video, string, error) {
	q := url.Values{}
	q.Set("user_id", userID)
	q.Set("type", videoType)
	q.Set("first", fmt.Sprint(PageSize))
	if cursor != "" {
		q.Set("after", cursor)
	}

	var out response[model.Video]
	if err := c.get(ctx, "/videos", q, &out); err != nil {
		return nil, "", err
	}
	return out.Data, out.Pagination.Cursor, nil
}

// ClipsPage lists one page of a broadcaster's clips created in [start, end).
func (c *Client) ClipsPage(ctx context.Context, broadcasterID string, start, end time.Time, cursor string) ([]model.Clip, string, error) {
	q := url.Values{}
	q.Set("broadcaster_id", broadcasterID)
	q.Set("first", fmt.Sprint(PageSize))
	q.Set("started_at", start.UTC().Format(time.RFC3339))
	q.Set("ended_at", end.UTC().Format(time.RFC3339))
	if cursor != "" {
		q.Set("after", cursor)
	}

	var out response[model.Clip]
	if err := c.get(ctx, "/clips", q, &out); err != nil {
		return nil, "", err
	}
	return out.Data, out.Pagination.Cursor, nil
}

// User looks up exactly one user by "id" or "login".
func (c *Client) User(ctx context.Context, key, value string) (User, error) {
	var out response[User]
	if err := c.get(ctx, "/users", url.Values{key: {value}}, &out); err != nil {
		return User{}, err
	}
	switch len(out.Data) {
	case 0:
		return User{}, fmt.Errorf("%w: %s=%s", ErrChannelNotFound, key, value)
	case 1:
		return out.Data[0], nil
	default:
		return User{}, fmt.Errorf("%w: %s=%s matched %d users", ErrInconsistentChannel, key, value, len(out.Data))
	}
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
		return &StatusError{URL: u.String(), StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("twitch: decode %s: %w", path, err)
	}
	return nil
}
