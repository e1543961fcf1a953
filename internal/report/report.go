// Package report prints the user-facing console output. Every message has a
// severity tier and is shown only when the run's verbosity reaches it.
package report

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/muesli/termenv"
)

// Verbosity thresholds. Verbosity is the number of -v flags minus the number
// of -s flags.
const (
	ErrorLevel = -1
	GoodLevel  = 0
	WarnLevel  = 1
	DebugLevel = 2
	TraceLevel = 3
)

type Reporter struct {
	verbosity int
	runID     string

	mu     sync.Mutex
	out    *termenv.Output
	errOut *termenv.Output
	log    *slog.Logger
}

type Option func(*Reporter)

// WithProfile forces a color profile; termenv.Ascii disables color.
func WithProfile(p termenv.Profile) Option {
	return func(r *Reporter) {
		r.out = termenv.NewOutput(r.out.Writer(), termenv.WithProfile(p))
		r.errOut = termenv.NewOutput(r.errOut.Writer(), termenv.WithProfile(p))
	}
}

func New(verbosity int, stdout, stderr io.Writer, opts ...Option) *Reporter {
	r := &Reporter{
		verbosity: verbosity,
		runID:     uuid.NewString(),
		out:       termenv.NewOutput(stdout, termenv.WithColorCache(true)),
		errOut:    termenv.NewOutput(stderr, termenv.WithColorCache(true)),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.log = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level:     SlogLevel(verbosity),
		AddSource: verbosity >= TraceLevel,
	})).With("run_id", r.runID)
	return r
}

// SlogLevel maps a verbosity to the minimum structured log level. Two -s
// flags silence even errors.
func SlogLevel(verbosity int) slog.Level {
	switch {
	case verbosity >= DebugLevel:
		return slog.LevelDebug
	case verbosity == WarnLevel:
		return slog.LevelInfo
	case verbosity == GoodLevel:
		return slog.LevelWarn
	case verbosity == ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelError + 4
	}
}

func (r *Reporter) Verbosity() int { return r.verbosity }

// Logger is the structured logger for diagnostics, tagged with the run id.
func (r *Reporter) Logger() *slog.Logger { return r.log }

func (r *Reporter) colorize(o *termenv.Output, label, msg string, c termenv.Color) string {
	body := o.String(msg).Foreground(c).Bold().String()
	if label == "" {
		return body
	}
	open := o.String("[").Foreground(c).Bold().String()
	shut := o.String("]").Foreground(c).Bold().String()
	return open + label + shut + " " + body
}

func (r *Reporter) message(threshold int, label, msg string, c termenv.Color) {
	if r.verbosity < threshold {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, r.colorize(r.out, label, msg, c))
}

// Good reports a success. Shown unless silenced.
func (r *Reporter) Good(label, format string, args ...any) {
	r.message(GoodLevel, label, fmt.Sprintf(format, args...), termenv.ANSIBrightGreen)
}

// Warn reports a benign anomaly such as an artifact that already exists.
func (r *Reporter) Warn(label, format string, args ...any) {
	r.message(WarnLevel, label, fmt.Sprintf(format, args...), termenv.ANSIBrightYellow)
}

// Error reports a failure. Hidden only by two -s flags.
func (r *Reporter) Error(label, format string, args ...any) {
	r.message(ErrorLevel, label, fmt.Sprintf(format, args...), termenv.ANSIBrightRed)
}

// Info is shown from one -v upward.
func (r *Reporter) Info(format string, args ...any) {
	r.message(WarnLevel, "", fmt.Sprintf(format, args...), termenv.ANSIBrightGreen)
}

// Fatal prints an error to stderr regardless of verbosity.
func (r *Reporter) Fatal(msg string, extra ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prefix := r.errOut.String("error:").Foreground(termenv.ANSIBrightRed).Bold().String()
	fmt.Fprintf(r.errOut, "%s %s\n", prefix, msg)
	for _, line := range extra {
		fmt.Fprintln(r.errOut, line)
	}
}

// HelpError is Fatal followed by a usage hint.
func (r *Reporter) HelpError(msg, usage string) {
	r.Fatal(msg)
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.errOut, "\nUSAGE:\n    %s\n", usage)
	fmt.Fprintf(r.errOut, "\nFor more information try %s\n", r.errOut.String("archiver --help").Foreground(termenv.ANSIGreen).String())
}
