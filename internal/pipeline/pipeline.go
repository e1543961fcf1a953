// Package pipeline drives each resolved record through the archive stages:
// metadata, thumbnail, chat, chat compression and video.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"thirdcoast.systems/archiver/internal/model"
	"thirdcoast.systems/archiver/internal/platform"
	"thirdcoast.systems/archiver/pkg/external"
	"thirdcoast.systems/archiver/pkg/utils/format"
)

// titleWidth bounds titles echoed to the console.
const titleWidth = 80

var (
	// ErrAlreadyExists means the artifact is on disk and was left untouched.
	ErrAlreadyExists = errors.New("already exists")
	// ErrExpected marks a stage that is intentionally a no-op for this
	// platform or run.
	ErrExpected = errors.New("stage not applicable")
	// ErrNoChatFound means there is no chat file to process.
	ErrNoChatFound = errors.New("no chat found")
)

type Outcome int

const (
	Success Outcome = iota
	AlreadyExists
	Expected
	Failure
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case AlreadyExists:
		return "already_exists"
	case Expected:
		return "expected"
	default:
		return "failure"
	}
}

// Classify maps a stage error to its outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, ErrAlreadyExists):
		return AlreadyExists
	case errors.Is(err, ErrExpected):
		return Expected
	default:
		return Failure
	}
}

// Runner is the external program surface the stages need.
type Runner interface {
	DownloadVideo(ctx context.Context, id, url string, opts external.VideoOptions) error
	DownloadTwitchChat(ctx context.Context, id, output string) error
	DownloadYouTubeChat(ctx context.Context, id, url, output string) error
	Compress(ctx context.Context, id, path string) error
}

// Reporter receives the user-facing outcome messages.
type Reporter interface {
	Good(label, format string, args ...any)
	Warn(label, format string, args ...any)
	Error(label, format string, args ...any)
	Info(format string, args ...any)
}

type Options struct {
	// Dir receives every artifact. Empty means the current directory.
	Dir       string
	Threads   int
	SkipVideo bool
	// Hooks maps stage names to shell command templates.
	Hooks map[string]string
}

type Pipeline struct {
	kind   platform.Kind
	opts   Options
	stages []Stage
	hooks  *hooks

	runner Runner
	rep    Reporter
	log    *slog.Logger
	http   *http.Client
}

// Result is the outcome of one stage for one record.
type Result struct {
	Stage   string
	File    string
	Outcome Outcome
	Err     error
}

// Summary tallies outcomes over a whole run.
type Summary struct {
	Records  int
	Aborted  int
	Outcomes map[Outcome]int
	Elapsed  time.Duration
}

func New(kind platform.Kind, opts Options, runner Runner, rep Reporter, log *slog.Logger) (*Pipeline, error) {
	if log == nil {
		log = slog.Default()
	}
	h, err := compileHooks(opts.Hooks, opts.Dir, log)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		kind:   kind,
		opts:   opts,
		hooks:  h,
		runner: runner,
		rep:    rep,
		log:    log,
		http:   &http.Client{Timeout: 60 * time.Second},
	}
	p.stages = p.stagesFor(kind)
	return p, nil
}

// Run processes records one after another. A cancelled context stops the run
// before the next record.
func (p *Pipeline) Run(ctx context.Context, records []model.Record) (Summary, error) {
	start := time.Now()
	sum := Summary{Outcomes: make(map[Outcome]int)}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			sum.Elapsed = time.Since(start)
			return sum, err
		}

		results, err := p.Process(ctx, rec)
		sum.Records++
		for _, r := range results {
			sum.Outcomes[r.Outcome]++
		}
		if err != nil {
			sum.Aborted++
			p.log.Error("record aborted", "id", rec.ID, "error", err)
		}
	}

	sum.Elapsed = time.Since(start)
	return sum, nil
}

// Process runs every stage for one record. Stage failures are reported and do
// not stop later stages, except a failure to save metadata which aborts the
// record.
func (p *Pipeline) Process(ctx context.Context, rec model.Record) ([]Result, error) {
	log := p.log.With("id", rec.ID)
	log.Debug("processing record", "record", rec.String())

	results := make([]Result, 0, len(p.stages))
	for _, st := range p.stages {
		file := st.File(rec)
		err := st.Run(ctx, rec)
		res := Result{Stage: st.Name, File: file, Outcome: Classify(err), Err: err}
		results = append(results, res)
		p.report(st, res, log)

		if res.Outcome == Success || res.Outcome == AlreadyExists {
			p.hooks.run(ctx, st.Name, p.hookVars(rec, st.Name), p.rep)
		}
		if st.Name == StageJSON && res.Outcome == Failure {
			return results, fmt.Errorf("save metadata for %s: %w", rec.ID, err)
		}
	}

	p.rep.Info("Finished downloading %s", format.Truncate(rec.Title, titleWidth))
	return results, nil
}

func (p *Pipeline) report(st Stage, res Result, log *slog.Logger) {
	switch res.Outcome {
	case Success:
		p.rep.Good(st.Label, "%sed %s", st.Verb, res.File)
	case AlreadyExists:
		p.rep.Warn(st.Label, "Already exists: %s", res.File)
	case Expected:
		log.Debug("stage skipped", "stage", st.Name, "reason", res.Err)
	default:
		p.rep.Error(st.Label, "Failed to %s %s", strings.ToLower(st.Verb), res.File)
		var missing *external.MissingProgramError
		if errors.As(res.Err, &missing) {
			p.rep.Error(st.Label, "Missing external program: %s", missing.Program)
		}
		log.Error("stage failed", "stage", st.Name, "file", res.File, "error", res.Err)
	}
}
