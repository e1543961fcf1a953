// Package model holds the metadata shapes returned by the platform APIs and the
// platform-agnostic Record the pipeline works on.
package model

import "fmt"

// ProcessingThumbnail is the placeholder Twitch serves for VODs that are still
// being processed. Such videos are not archivable yet.
const ProcessingThumbnail = "https://vod-secure.twitch.tv/_404/404_processing_%{width}x%{height}.png"

// Record is the view the pipeline needs over any platform item.
type Record struct {
	ID           string
	Title        string
	ThumbnailURL string
	ChannelName  string

	// Payload is serialized verbatim into <id>.json.
	Payload any
}

func (r Record) String() string {
	return fmt.Sprintf("[%s] (%s) %s", r.ID, r.ChannelName, r.Title)
}

// Video is a Helix video (archive or highlight). YouTube videos are
// normalized into this shape before being saved.
type Video struct {
	ID            string         `json:"id"`
	StreamID      *string        `json:"stream_id"`
	UserID        string         `json:"user_id"`
	UserLogin     string         `json:"user_login"`
	UserName      string         `json:"user_name"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	CreatedAt     string         `json:"created_at"`
	PublishedAt   string         `json:"published_at"`
	URL           string         `json:"url"`
	ThumbnailURL  string         `json:"thumbnail_url"`
	Viewable      string         `json:"viewable"`
	ViewCount     uint64         `json:"view_count"`
	Language      string         `json:"language"`
	Type          string         `json:"type"`
	Duration      string         `json:"duration"`
	MutedSegments []MutedSegment `json:"muted_segments"`
}

type MutedSegment struct {
	Duration uint64 `json:"duration"`
	Offset   uint64 `json:"offset"`
}

func (v Video) Record() Record {
	return Record{
		ID:           v.ID,
		Title:        v.Title,
		ThumbnailURL: v.ThumbnailURL,
		ChannelName:  v.UserName,
		Payload:      v,
	}
}

// Clip is a Helix clip.
type Clip struct {
	ID              string  `json:"id"`
	URL             string  `json:"url"`
	EmbedURL        string  `json:"embed_url"`
	BroadcasterID   string  `json:"broadcaster_id"`
	BroadcasterName string  `json:"broadcaster_name"`
	CreatorID       string  `json:"creator_id"`
	CreatorName     string  `json:"creator_name"`
	VideoID         string  `json:"video_id"`
	GameID          string  `json:"game_id"`
	Language        string  `json:"language"`
	Title           string  `json:"title"`
	ViewCount       uint64  `json:"view_count"`
	CreatedAt       string  `json:"created_at"`
	ThumbnailURL    string  `json:"thumbnail_url"`
	Duration        float64 `json:"duration"`
	VodOffset       *uint64 `json:"vod_offset"`
}

func (c Clip) Record() Record {
	return Record{
		ID:           c.ID,
		Title:        c.Title,
		ThumbnailURL: c.ThumbnailURL,
		ChannelName:  c.BroadcasterName,
		Payload:      c,
	}
}

// YouTubeVideo is the subset of a YouTube Data API video resource the
// archiver keeps.
type YouTubeVideo struct {
	ID                   string
	Title                string
	Description          string
	ChannelID            string
	ChannelTitle         string
	PublishedAt          string
	ThumbnailURL         string
	Duration             string
	ViewCount            uint64
	Language             string
	LiveBroadcastContent string
}

// IsFinal reports whether the video is finished, i.e. neither live nor an
// upcoming premiere.
func (y YouTubeVideo) IsFinal() bool {
	return y.LiveBroadcastContent != "live" && y.LiveBroadcastContent != "upcoming"
}

// Video converts the resource into the archive shape shared with Twitch.
func (y YouTubeVideo) Video() Video {
	id := y.ID
	return Video{
		ID:           y.ID,
		StreamID:     &id,
		UserID:       y.ChannelID,
		UserLogin:    y.ChannelID,
		UserName:     y.ChannelTitle,
		Title:        y.Title,
		Description:  y.Description,
		CreatedAt:    y.PublishedAt,
		PublishedAt:  y.PublishedAt,
		URL:          "https://www.youtube.com/watch?v=" + y.ID,
		ThumbnailURL: y.ThumbnailURL,
		Viewable:     "true",
		ViewCount:    y.ViewCount,
		Language:     y.Language,
		Type:         "youtube",
		Duration:     y.Duration,
	}
}

func (y YouTubeVideo) Record() Record {
	return Record{
		ID:           y.ID,
		Title:        y.Title,
		ThumbnailURL: y.ThumbnailURL,
		ChannelName:  y.ChannelTitle,
		Payload:      y.Video(),
	}
}

// Channel is a resolved channel handle. UploadsPlaylist is only set for
// YouTube channels.
type Channel struct {
	Username        string
	ID              string
	UploadsPlaylist string
}

func (c Channel) String() string {
	if c.Username == "" {
		return c.ID
	}
	return c.Username + " (" + c.ID + ")"
}

// Records maps platform items to records.
func Records[T interface{ Record() Record }](items []T) []Record {
	out := make([]Record, 0, len(items))
	for _, it := range items {
		out = append(out, it.Record())
	}
	return out
}
