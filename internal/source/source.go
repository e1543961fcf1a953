// Package source turns user input into metadata records for one platform kind,
// either from a list of video identifiers or from a whole channel.
package source

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"thirdcoast.systems/archiver/internal/model"
	"thirdcoast.systems/archiver/internal/platform"
	"thirdcoast.systems/archiver/pkg/twitch"
)

// ErrEmpty is returned when resolution succeeded but left nothing to archive.
var ErrEmpty = errors.New("no archivable items found")

// Source resolves input into records.
type Source interface {
	// Direct resolves a comma separated list of ids or links.
	Direct(ctx context.Context, input string) ([]model.Record, error)
	// Channel resolves every item of a channel.
	Channel(ctx context.Context, input string) ([]model.Record, error)
}

// TwitchAPI is the subset of the Helix client the Twitch sources use.
type TwitchAPI interface {
	Videos(ctx context.Context, ids []string) ([]model.Video, error)
	Clips(ctx context.Context, ids []string) ([]model.Clip, error)
	VideosPage(ctx context.Context, userID, videoType, cursor string) ([]model.Video, string, error)
	ClipsPage(ctx context.Context, broadcasterID string, start, end time.Time, cursor string) ([]model.Clip, string, error)
	User(ctx context.Context, key, value string) (twitch.User, error)
}

// YouTubeAPI is the subset of the Data API client the YouTube source uses.
type YouTubeAPI interface {
	Videos(ctx context.Context, ids []string) ([]model.YouTubeVideo, error)
	Channel(ctx context.Context, token string) (model.Channel, error)
	PlaylistPage(ctx context.Context, playlistID, pageToken string) ([]string, string, error)
}

// ClipWindow bounds the clip channel walk.
type ClipWindow struct {
	Range    time.Duration
	Interval time.Duration
}

func nonEmpty(records []model.Record) ([]model.Record, error) {
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	return records, nil
}

func orDefault(log *slog.Logger) *slog.Logger {
	if log == nil {
		return slog.Default()
	}
	return log
}

// New picks the source implementation for k.
func New(k platform.Kind, tw TwitchAPI, yt YouTubeAPI, window ClipWindow, log *slog.Logger) Source {
	log = orDefault(log).With("platform", k.String())
	switch k {
	case platform.YouTube:
		return &YouTube{api: yt, log: log}
	case platform.Clip:
		return &Clips{api: tw, window: window, now: time.Now, log: log}
	default:
		return &Videos{api: tw, kind: k, log: log}
	}
}
