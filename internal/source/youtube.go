package source

import (
	"context"
	"log/slog"

	"thirdcoast.systems/archiver/internal/model"
	"thirdcoast.systems/archiver/internal/platform"
	"thirdcoast.systems/archiver/internal/resolve"
	"thirdcoast.systems/archiver/internal/videoid"
)

// YouTube resolves YouTube uploads. Playlist listings only carry ids, so
// channel resolution lists ids first and then batch-resolves them.
type YouTube struct {
	api YouTubeAPI
	log *slog.Logger
}

func (s *YouTube) Direct(ctx context.Context, input string) ([]model.Record, error) {
	ids := videoid.Extract(input, videoid.ForKind(platform.YouTube), s.log)
	if len(ids) == 0 {
		return nil, videoid.ErrNoMatches
	}
	return s.resolve(ctx, ids)
}

func (s *YouTube) Channel(ctx context.Context, input string) ([]model.Record, error) {
	token, ok := videoid.ChannelForKind(platform.YouTube).Match(input)
	if !ok {
		return nil, videoid.ErrNoMatches
	}

	ch, err := s.api.Channel(ctx, token)
	if err != nil {
		return nil, err
	}

	ids, err := resolve.Paginate(ctx, func(ctx context.Context, cursor string) ([]string, string, error) {
		return s.api.PlaylistPage(ctx, ch.UploadsPlaylist, cursor)
	}, s.log)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.log.Warn("upload listing ended early", "channel", ch.String(), "error", err)
	}
	s.log.Info("listed channel", "channel", ch.String(), "videos", len(ids))

	return s.resolve(ctx, ids)
}

func (s *YouTube) resolve(ctx context.Context, ids []string) ([]model.Record, error) {
	videos, err := resolve.Batched(ctx, ids, platform.YouTube.BatchSize(), s.api.Videos, s.log)
	if err != nil {
		return nil, err
	}

	final := videos[:0:0]
	for _, v := range videos {
		if !v.IsFinal() {
			s.log.Warn("skipping video that is not finished", "id", v.ID, "state", v.LiveBroadcastContent)
			continue
		}
		final = append(final, v)
	}
	return nonEmpty(model.Records(final))
}
