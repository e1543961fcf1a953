package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/alessio/shellescape"
	"github.com/valyala/fasttemplate"

	"thirdcoast.systems/archiver/internal/model"
)

// hooks holds the compiled per-stage command templates. Placeholders are
// written {name}: {id}, {stage}, {chat_ext}, {video} and {title}. {video} and
// {title} are shell-quoted.
type hooks struct {
	dir       string
	templates map[string]*fasttemplate.Template
	log       *slog.Logger

	runFn func(ctx context.Context, dir, command string) error
}

func compileHooks(src map[string]string, dir string, log *slog.Logger) (*hooks, error) {
	h := &hooks{dir: dir, templates: make(map[string]*fasttemplate.Template), log: log}
	for stage, tmpl := range src {
		if tmpl == "" {
			continue
		}
		t, err := fasttemplate.NewTemplate(tmpl, "{", "}")
		if err != nil {
			return nil, fmt.Errorf("hook for %s: %w", stage, err)
		}
		h.templates[stage] = t
	}
	return h, nil
}

func (p *Pipeline) hookVars(rec model.Record, stage string) map[string]any {
	return map[string]any{
		"id":       rec.ID,
		"stage":    stage,
		"chat_ext": p.kind.ChatExt(),
		"video":    shellescape.Quote(p.VideoFile(rec)),
		"title":    shellescape.Quote(rec.Title),
	}
}

// run executes the hook for stage, if any. Failures are reported, never
// returned.
func (h *hooks) run(ctx context.Context, stage string, vars map[string]any, rep Reporter) {
	t, ok := h.templates[stage]
	if !ok {
		return
	}
	command := t.ExecuteString(vars)
	h.log.Debug("running hook", "stage", stage, "command", command)

	runFn := h.runFn
	if runFn == nil {
		runFn = runShell
	}
	if err := runFn(ctx, h.dir, command); err != nil {
		rep.Error("hook", "Hook for %s failed: %v", stage, err)
		h.log.Warn("hook failed", "stage", stage, "command", command, "error", err)
	}
}

func runShell(ctx context.Context, dir, command string) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
