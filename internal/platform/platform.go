// Package platform enumerates the content kinds the archiver understands.
package platform

import "fmt"

// Kind is a closed set of archivable content types. It is chosen once at
// startup and selects the matcher, source and pipeline stages for the run.
type Kind int

const (
	Vod Kind = iota
	Highlight
	Clip
	YouTube
)

var names = map[Kind]string{
	Vod:       "vod",
	Highlight: "highlight",
	Clip:      "clip",
	YouTube:   "youtube",
}

func (k Kind) String() string {
	if n, ok := names[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsTwitch reports whether the kind is served by the Twitch Helix API.
func (k Kind) IsTwitch() bool {
	return k == Vod || k == Highlight || k == Clip
}

// VideoType is the Helix "type" filter used when listing a channel's videos.
func (k Kind) VideoType() string {
	switch k {
	case Vod:
		return "archive"
	case Highlight:
		return "highlight"
	default:
		return ""
	}
}

// ChatExt is the extension (without leading dot) of the downloaded chat log.
func (k Kind) ChatExt() string {
	return "chat.json"
}

// VideoURL returns the public page for a video id, which is what the media
// downloader is pointed at.
func (k Kind) VideoURL(id string) string {
	switch k {
	case Clip:
		return "https://clips.twitch.tv/" + id
	case YouTube:
		return "https://www.youtube.com/watch?v=" + id
	default:
		return "https://www.twitch.tv/videos/" + id
	}
}

// BatchSize is the maximum number of ids one metadata request may carry.
func (k Kind) BatchSize() int {
	if k == YouTube {
		return 50
	}
	return 100
}
