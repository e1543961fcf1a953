package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"thirdcoast.systems/archiver/internal/model"
	"thirdcoast.systems/archiver/internal/platform"
	"thirdcoast.systems/archiver/internal/resolve"
	"thirdcoast.systems/archiver/internal/videoid"
	"thirdcoast.systems/archiver/pkg/twitch"
	"thirdcoast.systems/archiver/pkg/utils/format"
)

// Videos resolves Twitch archives or highlights.
type Videos struct {
	api  TwitchAPI
	kind platform.Kind
	log  *slog.Logger
}

func (s *Videos) Direct(ctx context.Context, input string) ([]model.Record, error) {
	ids := videoid.Extract(input, videoid.ForKind(s.kind), s.log)
	if len(ids) == 0 {
		return nil, videoid.ErrNoMatches
	}

	videos, err := resolve.Batched(ctx, ids, s.kind.BatchSize(), s.api.Videos, s.log)
	if err != nil {
		return nil, err
	}
	return nonEmpty(model.Records(videos))
}

// Channel lists every video of the kind on a channel. Videos still being
// processed are left out since their media is not available yet.
func (s *Videos) Channel(ctx context.Context, input string) ([]model.Record, error) {
	user, err := lookupUser(ctx, s.api, input, s.log)
	if err != nil {
		return nil, err
	}

	videos, err := resolve.Paginate(ctx, func(ctx context.Context, cursor string) ([]model.Video, string, error) {
		return s.api.VideosPage(ctx, user.ID, s.kind.VideoType(), cursor)
	}, s.log)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.log.Warn("video listing ended early", "channel", user.Login, "kind", s.kind.String(), "error", err)
	}

	s.log.Info("listed channel", "channel", user.Login, "videos", len(videos))
	return nonEmpty(model.Records(dropProcessing(videos, s.log)))
}

// Clips resolves Twitch clips. Channel listings are walked in time windows
// because Helix only returns a bounded number of clips per query.
type Clips struct {
	api    TwitchAPI
	window ClipWindow
	now    func() time.Time
	log    *slog.Logger
}

func (s *Clips) Direct(ctx context.Context, input string) ([]model.Record, error) {
	ids := videoid.Extract(input, videoid.ForKind(platform.Clip), s.log)
	if len(ids) == 0 {
		return nil, videoid.ErrNoMatches
	}

	clips, err := resolve.Batched(ctx, ids, platform.Clip.BatchSize(), s.api.Clips, s.log)
	if err != nil {
		return nil, err
	}
	return nonEmpty(model.Records(clips))
}

func (s *Clips) Channel(ctx context.Context, input string) ([]model.Record, error) {
	user, err := lookupUser(ctx, s.api, input, s.log)
	if err != nil {
		return nil, err
	}

	var clips []model.Clip
	for w := range resolve.Windows(s.now(), s.window.Range, s.window.Interval) {
		page, err := resolve.Paginate(ctx, func(ctx context.Context, cursor string) ([]model.Clip, string, error) {
			return s.api.ClipsPage(ctx, user.ID, w.Start, w.End, cursor)
		}, s.log)
		clips = append(clips, page...)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.log.Warn("clip window ended early", "start", w.Start, "end", w.End, "error", err)
		}
	}

	var length float64
	for _, c := range clips {
		length += c.Duration
	}
	s.log.Info("listed channel", "channel", user.Login, "clips", len(clips), "length", format.Duration(length))
	return nonEmpty(model.Records(clips))
}

// lookupUser resolves a channel token. Numeric tokens are tried as a user id
// first since logins may also be all digits.
func lookupUser(ctx context.Context, api TwitchAPI, input string, log *slog.Logger) (twitch.User, error) {
	token, ok := videoid.ChannelForKind(platform.Vod).Match(input)
	if !ok {
		return twitch.User{}, videoid.ErrNoMatches
	}

	if videoid.IsNumeric(token) {
		user, err := api.User(ctx, "id", token)
		if err == nil {
			return user, nil
		}
		log.Debug("id lookup failed, trying login", "token", token, "error", err)
	}

	user, err := api.User(ctx, "login", token)
	if err != nil {
		if errors.Is(err, twitch.ErrChannelNotFound) || errors.Is(err, twitch.ErrInconsistentChannel) {
			return twitch.User{}, err
		}
		return twitch.User{}, fmt.Errorf("looking up channel %q: %w", token, err)
	}
	return user, nil
}

func dropProcessing(videos []model.Video, log *slog.Logger) []model.Video {
	out := videos[:0:0]
	for _, v := range videos {
		if v.ThumbnailURL == model.ProcessingThumbnail {
			log.Warn("skipping video that is still processing", "id", v.ID, "title", v.Title)
			continue
		}
		out = append(out, v)
	}
	return out
}
