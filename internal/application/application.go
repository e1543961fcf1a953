// Package application wires configuration, credentials, the resolver and the
// download pipeline into a single run.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"google.golang.org/api/option"

	"thirdcoast.systems/archiver/internal/config"
	"thirdcoast.systems/archiver/internal/model"
	"thirdcoast.systems/archiver/internal/pipeline"
	"thirdcoast.systems/archiver/internal/platform"
	"thirdcoast.systems/archiver/internal/report"
	"thirdcoast.systems/archiver/internal/source"
	"thirdcoast.systems/archiver/internal/videoid"
	"thirdcoast.systems/archiver/pkg/external"
	"thirdcoast.systems/archiver/pkg/twitch"
	"thirdcoast.systems/archiver/pkg/utils/format"
	"thirdcoast.systems/archiver/pkg/youtube"
)

const tokenRetries = 3

var validate = validator.New(validator.WithRequiredStructEnabled())

// Options is everything the command line decides.
type Options struct {
	Kind    platform.Kind
	Input   string
	Channel bool

	Threads   int `validate:"min=1"`
	Logging   bool
	SkipVideo bool
	OutputDir string

	// Clip channel walk.
	Range    time.Duration
	Interval time.Duration

	ConfigPath string

	// Endpoint overrides, empty for the public APIs.
	TwitchAPIURL   string
	TwitchAuthURL  string
	YouTubeOptions []option.ClientOption

	// Runner replaces the external programs. Probing is skipped when set.
	Runner pipeline.Runner
}

// Run executes one archiver invocation and returns the pipeline summary.
func Run(ctx context.Context, opts Options, rep *report.Reporter) (pipeline.Summary, error) {
	log := rep.Logger()

	if opts.Threads == 0 {
		opts.Threads = 1
	}
	if err := validate.StructPartial(opts, "Threads"); err != nil {
		return pipeline.Summary{}, fmt.Errorf("invalid options: %w", err)
	}

	cfg, err := loadConfig(opts, log)
	if err != nil {
		return pipeline.Summary{}, err
	}
	dir := cfg.OutputDir
	if opts.OutputDir != "" {
		dir = opts.OutputDir
	}

	runner := opts.Runner
	if runner == nil {
		runner = newRunner(ctx, opts, cfg, dir, rep)
	}

	src, err := newSource(ctx, opts, cfg, log)
	if err != nil {
		return pipeline.Summary{}, err
	}

	records, err := resolve(ctx, src, opts)
	if err != nil {
		return pipeline.Summary{}, err
	}
	rep.Info("Found %s %s", humanize.Comma(int64(len(records))), plural(opts.Kind, len(records)))

	p, err := pipeline.New(opts.Kind, pipeline.Options{
		Dir:       dir,
		Threads:   opts.Threads,
		SkipVideo: opts.SkipVideo,
		Hooks:     cfg.Hooks.ByStage(),
	}, runner, rep, log)
	if err != nil {
		return pipeline.Summary{}, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}

	sum, err := p.Run(ctx, records)
	log.Info("run finished",
		"records", sum.Records,
		"aborted", sum.Aborted,
		"success", sum.Outcomes[pipeline.Success],
		"already_exists", sum.Outcomes[pipeline.AlreadyExists],
		"failed", sum.Outcomes[pipeline.Failure],
		"elapsed", format.JobDuration(sum.Elapsed),
	)
	return sum, err
}

func loadConfig(opts Options, log *slog.Logger) (*config.Config, error) {
	path := opts.ConfigPath
	if path == "" {
		var err error
		if path, err = config.Path(); err != nil {
			return nil, err
		}
	}
	cfg, err := config.LoadConfig(path, log)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(opts.Kind); err != nil {
		return nil, err
	}
	return cfg, nil
}

// requiredPrograms lists what the platform's stages invoke.
func requiredPrograms(k platform.Kind, builtinBrotli bool) []external.Program {
	switch k {
	case platform.YouTube:
		return []external.Program{external.ChatDownloader, external.YtDlp}
	case platform.Clip:
		return []external.Program{external.YtDlp}
	default:
		ps := []external.Program{external.TwitchDownloaderCLI, external.YtDlp}
		if !builtinBrotli {
			ps = append(ps, external.Brotli)
		}
		return ps
	}
}

func newRunner(ctx context.Context, opts Options, cfg *config.Config, dir string, rep *report.Reporter) *external.Runner {
	log := rep.Logger()
	r := external.New(dir)
	r.Logging = opts.Logging
	r.BuiltinBrotli = cfg.BuiltinBrotli
	r.Logger = log
	if rep.Verbosity() >= report.TraceLevel {
		r.LogCallback = func(stream, line string) {
			log.Debug("external output", "stream", stream, "line", line)
		}
	}

	for _, p := range r.Probe(requiredPrograms(opts.Kind, cfg.BuiltinBrotli)...) {
		rep.Error("", "Missing external program: %s", p)
	}
	if rep.Verbosity() >= report.DebugLevel && !r.Missing(external.YtDlp) {
		if v, err := r.Version(ctx, external.YtDlp); err == nil {
			log.Debug("yt-dlp found", "version", v)
		}
	}
	return r
}

func newSource(ctx context.Context, opts Options, cfg *config.Config, log *slog.Logger) (source.Source, error) {
	window := source.ClipWindow{Range: opts.Range, Interval: opts.Interval}

	if opts.Kind == platform.YouTube {
		yt, err := youtube.NewClient(ctx, cfg.YouTubeKey, opts.YouTubeOptions...)
		if err != nil {
			return nil, err
		}
		return source.New(opts.Kind, nil, yt, window, log), nil
	}

	token, err := FetchTokenWithRetry(ctx, opts.TwitchAuthURL, cfg.TwitchClientID, cfg.TwitchSecret, tokenRetries, log)
	if err != nil {
		return nil, err
	}
	tw := twitch.NewClient(opts.TwitchAPIURL, cfg.TwitchClientID, token)
	return source.New(opts.Kind, tw, nil, window, log), nil
}

func resolve(ctx context.Context, src source.Source, opts Options) ([]model.Record, error) {
	input := strings.TrimSpace(opts.Input)
	if opts.Channel {
		return src.Channel(ctx, input)
	}
	return src.Direct(ctx, input)
}

func plural(k platform.Kind, n int) string {
	noun := map[platform.Kind]string{
		platform.Vod:       "VOD",
		platform.Highlight: "highlight",
		platform.Clip:      "clip",
		platform.YouTube:   "video",
	}[k]
	if n == 1 {
		return noun
	}
	return noun + "s"
}

// IsUsageError reports whether err stems from input the user should fix on
// the command line rather than a runtime failure.
func IsUsageError(err error) bool {
	return errors.Is(err, videoid.ErrNoMatches)
}
