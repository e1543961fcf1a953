package external

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// streamWriter buffers output and hands every complete line to callback.
type streamWriter struct {
	stream   string
	callback func(stream string, line string)
	buffer   *bytes.Buffer
	pending  []byte
}

func (w *streamWriter) Write(p []byte) (n int, err error) {
	if w.buffer != nil {
		w.buffer.Write(p)
	}
	w.pending = append(w.pending, p...)

	// Progress bars redraw with \r, so both \r and \n end a line.
	for {
		idx := bytes.IndexAny(w.pending, "\r\n")
		if idx < 0 {
			break
		}

		line := string(w.pending[:idx])
		consume := 1
		if w.pending[idx] == '\r' && idx+1 < len(w.pending) && w.pending[idx+1] == '\n' {
			consume = 2
		}
		w.pending = w.pending[idx+consume:]

		if w.callback != nil {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				w.callback(w.stream, trimmed)
			}
		}
	}

	return len(p), nil
}

type ExecError struct {
	Cmd      string
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
	Cause    error
}

func (e *ExecError) Error() string {
	cmdline := strings.TrimSpace(e.Cmd + " " + strings.Join(e.Args, " "))
	if e.ExitCode != 0 {
		return fmt.Sprintf("external: command failed (exit %d): %s", e.ExitCode, cmdline)
	}
	return fmt.Sprintf("external: command failed: %s", cmdline)
}

func (e *ExecError) Unwrap() error { return e.Cause }

func wrapExecError(cmd string, args []string, stdout []byte, stderr []byte, cause error) error {
	exitCode := 0
	var ee *exec.ExitError
	if errors.As(cause, &ee) {
		exitCode = ee.ExitCode()
	}

	return &ExecError{
		Cmd:      cmd,
		Args:     args,
		ExitCode: exitCode,
		Stdout:   strings.TrimSpace(string(stdout)),
		Stderr:   strings.TrimSpace(string(stderr)),
		Cause:    cause,
	}
}

type Runner struct {
	// Dir is the working directory of every command and where log files go.
	// Empty means the current directory.
	Dir string

	// Logging appends each command's stdout and stderr to <name>.log and
	// <name>.err.log in Dir.
	Logging bool

	// BuiltinBrotli compresses chat in-process instead of running brotli.
	BuiltinBrotli bool

	// LogCallback is called for each line of stdout/stderr output.
	LogCallback func(stream string, line string)

	Logger *slog.Logger

	missing  map[Program]bool
	lookPath func(string) (string, error)
	execFn   func(ctx context.Context, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

func New(dir string) *Runner {
	return &Runner{Dir: dir, Logger: slog.Default()}
}

func (r *Runner) log() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r *Runner) path(name string) string {
	if r.Dir == "" {
		return name
	}
	return filepath.Join(r.Dir, name)
}

// run invokes p unless it is known to be missing. logName is the stem of the
// log files, e.g. "<id>.video".
func (r *Runner) run(ctx context.Context, p Program, logName string, args ...string) error {
	if r.Missing(p) {
		return &MissingProgramError{Program: p}
	}

	var logOut, logErr io.Writer
	if r.Logging {
		out, err := os.OpenFile(r.path(logName+".log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("external: open log: %w", err)
		}
		defer out.Close()
		errLog, err := os.OpenFile(r.path(logName+".err.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("external: open log: %w", err)
		}
		defer errLog.Close()
		logOut, logErr = out, errLog
	}

	stdout, stderr, err := r.exec(ctx, logOut, logErr, p.Command(), args...)
	if err != nil {
		return wrapExecError(p.Command(), args, stdout, stderr, err)
	}
	return nil
}

func (r *Runner) exec(ctx context.Context, logOut, logErr io.Writer, name string, args ...string) (stdout []byte, stderr []byte, err error) {
	if r.execFn != nil {
		stdout, stderr, err = r.execFn(ctx, name, args...)
		if logOut != nil {
			_, _ = logOut.Write(stdout)
		}
		if logErr != nil {
			_, _ = logErr.Write(stderr)
		}
		return stdout, stderr, err
	}

	r.log().Debug("external: executing command", "cmd", name, "args", args)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir

	var outBuf, errBuf bytes.Buffer
	outW := io.Writer(&outBuf)
	errW := io.Writer(&errBuf)
	if r.LogCallback != nil {
		outW = &streamWriter{stream: "stdout", callback: r.LogCallback, buffer: &outBuf}
		errW = &streamWriter{stream: "stderr", callback: r.LogCallback, buffer: &errBuf}
	}
	if logOut != nil {
		outW = io.MultiWriter(outW, logOut)
	}
	if logErr != nil {
		errW = io.MultiWriter(errW, logErr)
	}
	cmd.Stdout = outW
	cmd.Stderr = errW

	err = cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

// Version returns the first line of `<program> --version`.
func (r *Runner) Version(ctx context.Context, p Program) (string, error) {
	if r.Missing(p) {
		return "", &MissingProgramError{Program: p}
	}
	args := []string{"--version"}
	stdout, stderr, err := r.exec(ctx, nil, nil, p.Command(), args...)
	if err != nil {
		return "", wrapExecError(p.Command(), args, stdout, stderr, err)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(stdout)), "\n")
	return strings.TrimSpace(line), nil
}
