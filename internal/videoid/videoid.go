// Package videoid turns copy-pasted user input (bare ids, share links, clip
// links, channel URLs) into canonical platform identifiers.
package videoid

import (
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"thirdcoast.systems/archiver/internal/platform"
)

// ErrNoMatches is returned when no token of the input matched any pattern.
var ErrNoMatches = errors.New("no valid ids found in input")

// Matcher is an ordered list of patterns. The first capture group of the first
// pattern that matches wins.
type Matcher []*regexp.Regexp

var (
	twitchVideo = Matcher{
		regexp.MustCompile(`^([0-9]+)$`),
		regexp.MustCompile(`^(?:https://)?(?:www\.)?twitch\.tv/videos/([0-9]+)(?:\?.*)?$`),
	}

	twitchClip = Matcher{
		regexp.MustCompile(`^([A-Za-z0-9_-]+)$`),
		regexp.MustCompile(`^(?:https://)?(?:clips\.|www\.)?twitch\.tv/([A-Za-z0-9_-]+)(?:\?.*)?$`),
		regexp.MustCompile(`^(?:https://)?(?:www\.|m\.)?twitch\.tv/(?:[^/]+)/clip/([A-Za-z0-9_-]+)(?:\?.*)?$`),
	}

	youtubeVideo = Matcher{
		regexp.MustCompile(`^([0-9A-Za-z_-]{11})$`),
		regexp.MustCompile(`^(?:https?://)?(?:www\.|m\.)?(?:youtu\.be/|youtube\.com(?:/embed/|/v/|/watch))(?:(?:&|\?)[^&]+)*(?:(?:&|\?)v=)?([0-9A-Za-z_-]{11})(?:(?:&|\?)[^&]+)*(?:#.*)?$`),
		regexp.MustCompile(`^(?:https?://)?(?:www\.|m\.)?youtube\.com/(?:shorts|live)/([0-9A-Za-z_-]{11})(?:\?.*)?$`),
	}

	twitchChannel = Matcher{
		regexp.MustCompile(`^(?:https?://)?(?:www\.|m\.)?(?:twitch\.tv/)?([^?/\& *+]+)`),
	}

	youtubeChannel = Matcher{
		regexp.MustCompile(`^([^?/\& *+]+)$`),
		regexp.MustCompile(`^(?:https?://)?(?:www\.|m\.)?youtube\.com/(?:channel/|c/|user/|)([^?/\& *+]+)`),
	}

	numeric = regexp.MustCompile(`^[0-9]+$`)
)

// ForKind returns the video id patterns for a platform kind.
func ForKind(k platform.Kind) Matcher {
	switch k {
	case platform.Clip:
		return twitchClip
	case platform.YouTube:
		return youtubeVideo
	default:
		return twitchVideo
	}
}

// ChannelForKind returns the channel token patterns for a platform kind.
func ChannelForKind(k platform.Kind) Matcher {
	if k == platform.YouTube {
		return youtubeChannel
	}
	return twitchChannel
}

// Match returns the canonical id captured from token.
func (m Matcher) Match(token string) (string, bool) {
	for _, re := range m {
		sub := re.FindStringSubmatch(token)
		if len(sub) > 1 && sub[1] != "" {
			return sub[1], true
		}
	}
	return "", false
}

// Split breaks a comma separated input into trimmed tokens.
func Split(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// Extract matches every token of input and returns the ids in input order.
// Tokens that match nothing are logged and dropped.
func Extract(input string, m Matcher, log *slog.Logger) []string {
	if log == nil {
		log = slog.Default()
	}
	var ids []string
	for _, token := range Split(input) {
		id, ok := m.Match(token)
		if !ok {
			log.Debug("could not match input", "token", token)
			continue
		}
		log.Debug("captured id", "token", token, "id", id)
		ids = append(ids, id)
	}
	return ids
}

// IsNumeric reports whether s consists only of ASCII digits. Twitch user ids are
// numeric but so are some logins, hence the id-then-login lookup.
func IsNumeric(s string) bool {
	return numeric.MatchString(s)
}
