package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"thirdcoast.systems/archiver/internal/model"
	"thirdcoast.systems/archiver/internal/platform"
	"thirdcoast.systems/archiver/pkg/external"
)

type fakeRunner struct {
	dir   string
	calls []string
	fail  map[string]error
}

func (f *fakeRunner) touch(name string) {
	_ = os.WriteFile(filepath.Join(f.dir, name), []byte("x"), 0o644)
}

func (f *fakeRunner) DownloadVideo(_ context.Context, id, url string, opts external.VideoOptions) error {
	call := fmt.Sprintf("video %s %s -o %s hls=%v", id, url, opts.Output, opts.HLS)
	if opts.MergeFormat != "" {
		call += " merge=" + opts.MergeFormat
	}
	f.calls = append(f.calls, call)
	if err := f.fail["video"]; err != nil {
		return err
	}
	f.touch(opts.Output)
	return nil
}

func (f *fakeRunner) DownloadTwitchChat(_ context.Context, id, output string) error {
	f.calls = append(f.calls, "twitch-chat "+id+" "+output)
	if err := f.fail["chat"]; err != nil {
		return err
	}
	f.touch(output)
	return nil
}

func (f *fakeRunner) DownloadYouTubeChat(_ context.Context, id, url, output string) error {
	f.calls = append(f.calls, "youtube-chat "+url+" "+output)
	f.touch(output)
	return nil
}

func (f *fakeRunner) Compress(_ context.Context, id, path string) error {
	f.calls = append(f.calls, "compress "+path)
	f.touch(path + ".br")
	return nil
}

type fakeReporter struct {
	lines []string
}

func (r *fakeReporter) Good(label, format string, args ...any) {
	r.lines = append(r.lines, "good ["+label+"] "+fmt.Sprintf(format, args...))
}

func (r *fakeReporter) Warn(label, format string, args ...any) {
	r.lines = append(r.lines, "warn ["+label+"] "+fmt.Sprintf(format, args...))
}

func (r *fakeReporter) Error(label, format string, args ...any) {
	r.lines = append(r.lines, "error ["+label+"] "+fmt.Sprintf(format, args...))
}

func (r *fakeReporter) Info(format string, args ...any) {
	r.lines = append(r.lines, "info "+fmt.Sprintf(format, args...))
}

func thumbServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		require.Equal(t, "/thumb-1920x1080.jpg", r.URL.Path)
		_, _ = w.Write([]byte("JPEG"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func vodRecord(thumbBase string) model.Record {
	v := model.Video{ID: "123", Title: "Big Stream: Part 2", UserName: "Dallas", ThumbnailURL: thumbBase + "/thumb-%{width}x%{height}.jpg"}
	return v.Record()
}

func newTestPipeline(t *testing.T, k platform.Kind, opts Options) (*Pipeline, *fakeRunner, *fakeReporter) {
	t.Helper()
	if opts.Dir == "" {
		opts.Dir = t.TempDir()
	}
	runner := &fakeRunner{dir: opts.Dir, fail: map[string]error{}}
	rep := &fakeReporter{}
	p, err := New(k, opts, runner, rep, nil)
	require.NoError(t, err)
	return p, runner, rep
}

func outcomes(results []Result) []Outcome {
	out := make([]Outcome, len(results))
	for i, r := range results {
		out[i] = r.Outcome
	}
	return out
}

func TestProcess_VodAllStagesSucceed(t *testing.T) {
	var hits atomic.Int32
	srv := thumbServer(t, &hits)
	p, runner, rep := newTestPipeline(t, platform.Vod, Options{Threads: 4})

	results, err := p.Process(context.Background(), vodRecord(srv.URL))
	require.NoError(t, err)
	require.Equal(t, []Outcome{Success, Success, Success, Success, Success}, outcomes(results))

	require.Equal(t, []string{
		"twitch-chat 123 123.chat.json",
		"compress 123.chat.json",
		"video 123 https://www.twitch.tv/videos/123 -o Big Stream： Part 2-v123.mp4 hls=true",
	}, runner.calls)

	b, err := os.ReadFile(filepath.Join(p.opts.Dir, "123.json"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(b), "{\n  \"id\": \"123\","))
	require.True(t, strings.HasSuffix(string(b), "}\n"))

	jpg, err := os.ReadFile(filepath.Join(p.opts.Dir, "123.jpg"))
	require.NoError(t, err)
	require.Equal(t, "JPEG", string(jpg))

	require.Contains(t, rep.lines, "good [json] Downloaded 123.json")
	require.Contains(t, rep.lines, "good [chat] Processed 123.chat.json.br")
	require.Equal(t, "info Finished downloading Big Stream: Part 2", rep.lines[len(rep.lines)-1])
}

func TestProcess_EverythingPresentIsIdempotent(t *testing.T) {
	var hits atomic.Int32
	srv := thumbServer(t, &hits)
	p, runner, rep := newTestPipeline(t, platform.Vod, Options{})
	rec := vodRecord(srv.URL)

	for _, name := range []string{"123.json", "123.jpg", "123.chat.json", "123.chat.json.br", p.VideoFile(rec)} {
		require.NoError(t, os.WriteFile(filepath.Join(p.opts.Dir, name), []byte("keep"), 0o644))
	}

	results, err := p.Process(context.Background(), rec)
	require.NoError(t, err)
	require.Equal(t, []Outcome{AlreadyExists, AlreadyExists, AlreadyExists, AlreadyExists, AlreadyExists}, outcomes(results))
	require.Empty(t, runner.calls)
	require.Zero(t, hits.Load())
	require.Contains(t, rep.lines, "warn [json] Already exists: 123.json")

	b, err := os.ReadFile(filepath.Join(p.opts.Dir, "123.json"))
	require.NoError(t, err)
	require.Equal(t, "keep", string(b))
}

func TestProcess_ClipStages(t *testing.T) {
	var hits atomic.Int32
	srv := thumbServer(t, &hits)
	p, runner, _ := newTestPipeline(t, platform.Clip, Options{})

	clip := model.Clip{ID: "Funny-Clip", Title: "lol", ThumbnailURL: srv.URL + "/thumb-%{width}x%{height}.jpg"}
	results, err := p.Process(context.Background(), clip.Record())
	require.NoError(t, err)
	require.Equal(t, []Outcome{Success, Success, Expected, Expected, Success}, outcomes(results))
	require.Equal(t, []string{"video Funny-Clip https://clips.twitch.tv/Funny-Clip -o Funny-Clip.%(ext)s hls=false"}, runner.calls)
	require.Equal(t, "Funny-Clip.mp4", results[4].File)
}

func TestProcess_YouTubeChatAndSkipVideo(t *testing.T) {
	var hits atomic.Int32
	srv := thumbServer(t, &hits)
	p, runner, _ := newTestPipeline(t, platform.YouTube, Options{SkipVideo: true})

	v := model.YouTubeVideo{ID: "ggLajT7aMMk", Title: "Song", ThumbnailURL: srv.URL + "/thumb-1920x1080.jpg"}
	results, err := p.Process(context.Background(), v.Record())
	require.NoError(t, err)
	require.Equal(t, []Outcome{Success, Success, Success, Expected, Expected}, outcomes(results))
	require.Equal(t, []string{"youtube-chat https://www.youtube.com/watch?v=ggLajT7aMMk ggLajT7aMMk.chat.json"}, runner.calls)
}

func TestProcess_YouTubeVideoMergesToMP4(t *testing.T) {
	var hits atomic.Int32
	srv := thumbServer(t, &hits)
	p, runner, _ := newTestPipeline(t, platform.YouTube, Options{})

	v := model.YouTubeVideo{ID: "ggLajT7aMMk", Title: "Song", ThumbnailURL: srv.URL + "/thumb-1920x1080.jpg"}
	results, err := p.Process(context.Background(), v.Record())
	require.NoError(t, err)
	require.Equal(t, Success, results[4].Outcome)
	require.Contains(t, runner.calls, "video ggLajT7aMMk https://www.youtube.com/watch?v=ggLajT7aMMk -o Song-vggLajT7aMMk.mp4 hls=false merge=mp4")
	require.FileExists(t, filepath.Join(p.opts.Dir, "Song-vggLajT7aMMk.mp4"))
}

func TestProcess_MetadataFailureAborts(t *testing.T) {
	p, runner, rep := newTestPipeline(t, platform.Vod, Options{})
	rec := model.Record{ID: "1", Title: "bad", Payload: make(chan int)}

	results, err := p.Process(context.Background(), rec)
	require.Error(t, err)
	require.Len(t, results, 1)
	require.Equal(t, Failure, results[0].Outcome)
	require.Empty(t, runner.calls)
	require.Contains(t, rep.lines, "error [json] Failed to download 1.json")
}

func TestProcess_StageFailuresDoNotStopSiblings(t *testing.T) {
	var hits atomic.Int32
	srv := thumbServer(t, &hits)
	p, runner, rep := newTestPipeline(t, platform.Highlight, Options{})
	runner.fail["chat"] = &external.MissingProgramError{Program: external.TwitchDownloaderCLI}

	results, err := p.Process(context.Background(), vodRecord(srv.URL))
	require.NoError(t, err)
	require.Equal(t, []Outcome{Success, Success, Failure, Failure, Success}, outcomes(results))
	require.ErrorIs(t, results[3].Err, ErrNoChatFound)
	require.Contains(t, rep.lines, "error [chat] Missing external program: TwitchDownloaderCLI: https://github.com/lay295/TwitchDownloader")
}

func TestProcess_HooksRunForArtifactsOnDisk(t *testing.T) {
	var hits atomic.Int32
	srv := thumbServer(t, &hits)
	p, _, rep := newTestPipeline(t, platform.Vod, Options{
		SkipVideo: true,
		Hooks: map[string]string{
			StageJSON:  "upload {id}.json {title}",
			StageVideo: "never {video}",
			StageChat:  "false",
		},
	})

	var ran []string
	p.hooks.runFn = func(_ context.Context, dir, command string) error {
		require.Equal(t, p.opts.Dir, dir)
		ran = append(ran, command)
		if command == "false" {
			return errors.New("exit status 1")
		}
		return nil
	}

	_, err := p.Process(context.Background(), vodRecord(srv.URL))
	require.NoError(t, err)
	require.Equal(t, []string{"upload 123.json 'Big Stream: Part 2'", "false"}, ran)
	require.Contains(t, rep.lines, "error [hook] Hook for chat failed: exit status 1")

	// A rerun finds every artifact in place and hands them to the hooks again.
	ran = nil
	results, err := p.Process(context.Background(), vodRecord(srv.URL))
	require.NoError(t, err)
	require.Equal(t, AlreadyExists, results[0].Outcome)
	require.Equal(t, []string{"upload 123.json 'Big Stream: Part 2'", "false"}, ran)
}

func TestRun_Summary(t *testing.T) {
	var hits atomic.Int32
	srv := thumbServer(t, &hits)
	p, _, _ := newTestPipeline(t, platform.Vod, Options{SkipVideo: true})

	recs := []model.Record{
		vodRecord(srv.URL),
		{ID: "bad", Payload: make(chan int)},
	}
	sum, err := p.Run(context.Background(), recs)
	require.NoError(t, err)
	require.Equal(t, 2, sum.Records)
	require.Equal(t, 1, sum.Aborted)
	require.Equal(t, 4, sum.Outcomes[Success])
	require.Equal(t, 1+1, sum.Outcomes[Failure]+sum.Outcomes[Expected])
}

func TestRun_StopsOnCancel(t *testing.T) {
	p, runner, _ := newTestPipeline(t, platform.Vod, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := p.Run(ctx, []model.Record{{ID: "1"}})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, sum.Records)
	require.Empty(t, runner.calls)
}

func TestClassify(t *testing.T) {
	require.Equal(t, Success, Classify(nil))
	require.Equal(t, AlreadyExists, Classify(fmt.Errorf("wrapped: %w", ErrAlreadyExists)))
	require.Equal(t, Expected, Classify(ErrExpected))
	require.Equal(t, Failure, Classify(ErrNoChatFound))
	require.Equal(t, Failure, Classify(&external.ExecError{Cmd: "yt-dlp"}))
}

func TestThumbnailURL(t *testing.T) {
	require.Equal(t,
		"https://static-cdn.jtvnw.net/cf_vods/x/thumb0-1920x1080.jpg",
		ThumbnailURL("https://static-cdn.jtvnw.net/cf_vods/x/thumb0-%{width}x%{height}.jpg"))
}
