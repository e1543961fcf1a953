// Package youtube wraps the YouTube Data API v3 calls the archiver uses.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"thirdcoast.systems/archiver/internal/model"
	"thirdcoast.systems/archiver/pkg/utils/language"
)

// PageSize is the largest maxResults the Data API accepts, which is also the
// id limit of videos.list.
const PageSize = 50

var ErrChannelNotFound = errors.New("youtube: channel not found")

type Client struct {
	svc *yt.Service
}

// NewClient builds a client authenticated with an API key. Extra options are
// appended after the key, which lets tests point the service at a fake
// endpoint.
func NewClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("youtube: new service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// Videos fetches full metadata for up to PageSize ids.
func (c *Client) Videos(ctx context.Context, ids []string) ([]model.YouTubeVideo, error) {
	resp, err := c.svc.Videos.
		List([]string{"snippet", "contentDetails", "statistics"}).
		Id(strings.Join(ids, ",")).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}

	out := make([]model.YouTubeVideo, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Snippet == nil {
			continue
		}
		v := model.YouTubeVideo{
			ID:                   item.Id,
			Title:                item.Snippet.Title,
			Description:          item.Snippet.Description,
			ChannelID:            item.Snippet.ChannelId,
			ChannelTitle:         item.Snippet.ChannelTitle,
			PublishedAt:          item.Snippet.PublishedAt,
			ThumbnailURL:         bestThumbnail(item.Snippet.Thumbnails),
			Language:             language.Pick(language.English, item.Snippet.DefaultAudioLanguage, item.Snippet.DefaultLanguage).String(),
			LiveBroadcastContent: item.Snippet.LiveBroadcastContent,
		}
		if item.ContentDetails != nil {
			v.Duration = item.ContentDetails.Duration
		}
		if item.Statistics != nil {
			v.ViewCount = item.Statistics.ViewCount
		}
		out = append(out, v)
	}
	return out, nil
}

// Channel resolves a channel id, falling back to a legacy username lookup.
func (c *Client) Channel(ctx context.Context, token string) (model.Channel, error) {
	resp, err := c.svc.Channels.
		List([]string{"snippet", "contentDetails"}).
		Id(token).
		Context(ctx).
		Do()
	if err != nil {
		return model.Channel{}, err
	}
	if len(resp.Items) == 0 {
		resp, err = c.svc.Channels.
			List([]string{"snippet", "contentDetails"}).
			ForUsername(token).
			Context(ctx).
			Do()
		if err != nil {
			return model.Channel{}, err
		}
	}
	if len(resp.Items) == 0 {
		return model.Channel{}, fmt.Errorf("%w: %s", ErrChannelNotFound, token)
	}

	ch := resp.Items[0]
	out := model.Channel{ID: ch.Id, Username: token}
	if ch.Snippet != nil && ch.Snippet.Title != "" {
		out.Username = ch.Snippet.Title
	}
	if ch.ContentDetails != nil && ch.ContentDetails.RelatedPlaylists != nil {
		out.UploadsPlaylist = ch.ContentDetails.RelatedPlaylists.Uploads
	}
	if out.UploadsPlaylist == "" {
		return model.Channel{}, fmt.Errorf("%w: %s has no uploads playlist", ErrChannelNotFound, token)
	}
	return out, nil
}

// PlaylistPage lists one page of video ids from a playlist.
func (c *Client) PlaylistPage(ctx context.Context, playlistID, pageToken string) ([]string, string, error) {
	call := c.svc.PlaylistItems.
		List([]string{"contentDetails"}).
		PlaylistId(playlistID).
		MaxResults(PageSize)
	if pageToken != "" {
		call.PageToken(pageToken)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, "", err
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ContentDetails == nil || item.ContentDetails.VideoId == "" {
			continue
		}
		ids = append(ids, item.ContentDetails.VideoId)
	}
	return ids, resp.NextPageToken, nil
}

func bestThumbnail(t *yt.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*yt.Thumbnail{t.Maxres, t.Standard, t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}
