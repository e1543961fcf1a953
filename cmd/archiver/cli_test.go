package main

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"thirdcoast.systems/archiver/internal/application"
	"thirdcoast.systems/archiver/internal/config"
	"thirdcoast.systems/archiver/internal/pipeline"
	"thirdcoast.systems/archiver/internal/platform"
	"thirdcoast.systems/archiver/internal/report"
	"thirdcoast.systems/archiver/internal/videoid"
)

type recorder struct {
	opts      application.Options
	verbosity int
	err       error
	calls     int
}

func (r *recorder) run(_ context.Context, opts application.Options, rep *report.Reporter) (pipeline.Summary, error) {
	r.calls++
	r.opts = opts
	r.verbosity = rep.Verbosity()
	return pipeline.Summary{Records: 1}, r.err
}

func runCLI(t *testing.T, rec *recorder, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := execute(context.Background(), args, &out, &errOut, rec.run)
	return code, out.String(), errOut.String()
}

func TestCLI_ParsesOptions(t *testing.T) {
	rec := &recorder{}
	code, _, _ := runCLI(t, rec, "--clips", "-c", "dallas", "-N", "4", "-vvv", "-s", "-r", "2d", "-i", "30m", "-l", "-K", "-o", "/tmp/out")
	require.Equal(t, exitOK, code)
	require.Equal(t, application.Options{
		Kind:      platform.Clip,
		Input:     "dallas",
		Channel:   true,
		Threads:   4,
		Logging:   true,
		SkipVideo: true,
		OutputDir: "/tmp/out",
		Range:     48 * time.Hour,
		Interval:  30 * time.Minute,
	}, rec.opts)
	require.Equal(t, 2, rec.verbosity)
}

func TestCLI_Defaults(t *testing.T) {
	rec := &recorder{}
	code, _, _ := runCLI(t, rec, "--vods", "111", "https://www.twitch.tv/videos/222")
	require.Equal(t, exitOK, code)
	require.Equal(t, platform.Vod, rec.opts.Kind)
	require.Equal(t, "111,https://www.twitch.tv/videos/222", rec.opts.Input)
	require.False(t, rec.opts.Channel)
	require.Equal(t, 1, rec.opts.Threads)
	require.Equal(t, 7*24*time.Hour, rec.opts.Range)
	require.Equal(t, time.Hour, rec.opts.Interval)
	require.Zero(t, rec.verbosity)
}

func TestCLI_UsageErrors(t *testing.T) {
	for _, args := range [][]string{
		{"111"},
		{"--vods", "--youtube", "111"},
		{"--vods"},
		{"--vods", "-c", "dallas", "111"},
		{"--vods", "--threads", "many", "111"},
	} {
		t.Run(fmt.Sprint(args), func(t *testing.T) {
			rec := &recorder{}
			code, _, stderr := runCLI(t, rec, args...)
			require.Equal(t, exitUsage, code)
			require.Zero(t, rec.calls)
			require.Contains(t, stderr, "error:")
			require.Contains(t, stderr, "USAGE:")
		})
	}
}

func TestCLI_NoMatches(t *testing.T) {
	rec := &recorder{err: videoid.ErrNoMatches}
	code, _, stderr := runCLI(t, rec, "--youtube", "nope")
	require.Equal(t, exitUsage, code)
	require.Contains(t, stderr, "No valid ids found in 'nope'")
	require.Contains(t, stderr, "archiver --help")
}

func TestCLI_ConfigMissing(t *testing.T) {
	rec := &recorder{err: fmt.Errorf("%w: wrote a default to /x/config.toml", config.ErrConfigMissing)}
	code, _, stderr := runCLI(t, rec, "--vods", "1")
	require.Equal(t, exitFailure, code)
	require.Contains(t, stderr, "/x/config.toml")
	require.Contains(t, stderr, "Fill in your credentials")
	require.NotContains(t, stderr, "USAGE:")
}

func TestCLI_Completion(t *testing.T) {
	rec := &recorder{}
	code, stdout, _ := runCLI(t, rec, "completion", "bash")
	require.Equal(t, exitOK, code)
	require.Zero(t, rec.calls)
	require.Contains(t, stdout, "archiver")

	code, _, _ = runCLI(t, rec, "completion", "tcsh")
	require.Equal(t, exitUsage, code)
}
