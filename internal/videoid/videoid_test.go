package videoid

import (
	"testing"

	"github.com/stretchr/testify/require"
	"thirdcoast.systems/archiver/internal/platform"
)

func TestSplit_TrimsTokens(t *testing.T) {
	require.Equal(t, []string{"a", "b", "", "c"}, Split(" a ,b,, c "))
}

func TestForKind_TwitchVideo(t *testing.T) {
	m := ForKind(platform.Vod)

	for in, want := range map[string]string{
		"123456789":                                     "123456789",
		"https://www.twitch.tv/videos/123456789":        "123456789",
		"twitch.tv/videos/123456789?t=1h2m3s":           "123456789",
		"https://www.twitch.tv/videos/42?filter=archives": "42",
	} {
		id, ok := m.Match(in)
		require.True(t, ok, in)
		require.Equal(t, want, id, in)
	}

	for _, in := range []string{"abc", "https://www.twitch.tv/dallas", "http://www.twitch.tv/videos/1", ""} {
		_, ok := m.Match(in)
		require.False(t, ok, in)
	}
}

func TestForKind_Clip(t *testing.T) {
	m := ForKind(platform.Clip)

	for in, want := range map[string]string{
		"AwkwardHelplessSalamanderSwiftRage":                              "AwkwardHelplessSalamanderSwiftRage",
		"https://clips.twitch.tv/AwkwardHelplessSalamanderSwiftRage":      "AwkwardHelplessSalamanderSwiftRage",
		"https://www.twitch.tv/dallas/clip/Funny-Clip-abc123?filter=clips": "Funny-Clip-abc123",
		"twitch.tv/dallas/clip/Funny-Clip-abc123":                         "Funny-Clip-abc123",
	} {
		id, ok := m.Match(in)
		require.True(t, ok, in)
		require.Equal(t, want, id, in)
	}

	_, ok := m.Match("https://example.com/clip/abc")
	require.False(t, ok)
}

func TestForKind_YouTube(t *testing.T) {
	m := ForKind(platform.YouTube)

	for _, in := range []string{
		"ggLajT7aMMk",
		"https://www.youtube.com/watch?v=ggLajT7aMMk",
		"https://www.youtube.com/watch?v=ggLajT7aMMk&t=123s",
		"youtube.com/watch?feature=share&v=ggLajT7aMMk",
		"https://youtu.be/ggLajT7aMMk",
		"https://www.youtube.com/embed/ggLajT7aMMk",
		"https://youtube.com/shorts/ggLajT7aMMk?feature=share",
		"https://www.youtube.com/live/ggLajT7aMMk",
	} {
		id, ok := m.Match(in)
		require.True(t, ok, in)
		require.Equal(t, "ggLajT7aMMk", id, in)
	}

	for _, in := range []string{"short", "https://vimeo.com/123456", "ggLajT7aMMkX"} {
		_, ok := m.Match(in)
		require.False(t, ok, in)
	}
}

func TestExtract_DropsUnmatchedTokens(t *testing.T) {
	ids := Extract("123, https://www.twitch.tv/videos/456 ,nope,https://vimeo.com/1", ForKind(platform.Highlight), nil)
	require.Equal(t, []string{"123", "456"}, ids)
}

func TestExtract_AllUnmatched(t *testing.T) {
	ids := Extract("nope, also-nope", ForKind(platform.Vod), nil)
	require.Empty(t, ids)
}

func TestChannelForKind(t *testing.T) {
	tw := ChannelForKind(platform.Clip)
	for in, want := range map[string]string{
		"dallas":                        "dallas",
		"https://www.twitch.tv/dallas":  "dallas",
		"twitch.tv/dallas/videos":       "dallas",
		"https://m.twitch.tv/dallas?x=": "dallas",
		"12826":                         "12826",
	} {
		got, ok := tw.Match(in)
		require.True(t, ok, in)
		require.Equal(t, want, got, in)
	}

	yt := ChannelForKind(platform.YouTube)
	for in, want := range map[string]string{
		"UCuAXFkgsw1L7xaCfnd5JJOw":                                  "UCuAXFkgsw1L7xaCfnd5JJOw",
		"https://www.youtube.com/channel/UCuAXFkgsw1L7xaCfnd5JJOw":  "UCuAXFkgsw1L7xaCfnd5JJOw",
		"https://www.youtube.com/user/RickAstleyVEVO":               "RickAstleyVEVO",
		"youtube.com/c/RickAstley/videos":                           "RickAstley",
	} {
		got, ok := yt.Match(in)
		require.True(t, ok, in)
		require.Equal(t, want, got, in)
	}
}

func TestIsNumeric(t *testing.T) {
	require.True(t, IsNumeric("12826"))
	require.False(t, IsNumeric("dallas"))
	require.False(t, IsNumeric(""))
}
