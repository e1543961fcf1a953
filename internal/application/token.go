package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"thirdcoast.systems/archiver/pkg/twitch"
)

var (
	tokenBackoffBase  = 1 * time.Second
	tokenBackoffScale = 1.618
)

// FetchTokenWithRetry exchanges the client credentials for an app token.
// Rejected credentials fail immediately; transport errors are retried with
// exponential backoff.
func FetchTokenWithRetry(ctx context.Context, authURL, clientID, secret string, retries int, log *slog.Logger) (string, error) {
	if retries < 1 {
		retries = 1
	}
	var lastErr error
	for i := 0; i < retries; i++ {
		token, err := twitch.AppToken(ctx, authURL, clientID, secret)
		if err == nil {
			return token, nil
		}
		if errors.Is(err, twitch.ErrInvalidCredentials) {
			return "", err
		}
		lastErr = err
		if i == retries-1 {
			break
		}

		backoff := time.Duration(float64(tokenBackoffBase) * math.Pow(tokenBackoffScale, float64(i)))
		log.Warn("token request failed, retrying", "attempt", i+1, "backoff", backoff, "error", err)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}
	return "", fmt.Errorf("failed to get a twitch token after %d attempts: %w", retries, lastErr)
}
