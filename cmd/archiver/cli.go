package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"thirdcoast.systems/archiver/internal/application"
	"thirdcoast.systems/archiver/internal/config"
	"thirdcoast.systems/archiver/internal/pipeline"
	"thirdcoast.systems/archiver/internal/platform"
	"thirdcoast.systems/archiver/internal/report"
	"thirdcoast.systems/archiver/pkg/utils/format"
)

const usage = "archiver <--vods|--highlights|--clips|--youtube> <VIDEOS...|--channel <CHANNEL>>"

const (
	exitOK = iota
	exitFailure
	exitUsage
)

type runFunc func(context.Context, application.Options, *report.Reporter) (pipeline.Summary, error)

type flags struct {
	vods, highlights, clips, youtube bool

	channel   string
	threads   int
	verbose   int
	silent    int
	span      string
	interval  string
	logging   bool
	skipVideo bool
	output    string
}

func (f *flags) kind() platform.Kind {
	switch {
	case f.highlights:
		return platform.Highlight
	case f.clips:
		return platform.Clip
	case f.youtube:
		return platform.YouTube
	default:
		return platform.Vod
	}
}

// usageError marks failures that should be followed by the usage hint.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func newRootCmd(ctx context.Context, stdout, stderr io.Writer, run runFunc) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "archiver [flags] [VIDEOS...]",
		Short:         "Archive Twitch VODs, highlights, clips and YouTube videos",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			switch {
			case f.channel == "" && len(args) == 0:
				return usageError{errors.New("either VIDEOS or --channel is required")}
			case f.channel != "" && len(args) > 0:
				return usageError{errors.New("VIDEOS cannot be used with --channel")}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			rep := report.New(f.verbose-f.silent, stdout, stderr)

			input := f.channel
			if input == "" {
				input = strings.Join(args, ",")
			}
			opts := application.Options{
				Kind:      f.kind(),
				Input:     input,
				Channel:   f.channel != "",
				Threads:   f.threads,
				Logging:   f.logging,
				SkipVideo: f.skipVideo,
				OutputDir: f.output,
				Range:     format.ParseSpan(f.span),
				Interval:  format.ParseSpan(f.interval),
			}

			sum, err := run(ctx, opts, rep)
			if err != nil {
				if application.IsUsageError(err) {
					return usageError{fmt.Errorf("No valid ids found in '%s'", input)}
				}
				return err
			}
			rep.Info("Archived %d of %d in %s", sum.Records-sum.Aborted, sum.Records, format.JobDuration(sum.Elapsed))
			return nil
		},
	}

	fl := cmd.Flags()
	fl.BoolVar(&f.vods, "vods", false, "archive Twitch VODs")
	fl.BoolVar(&f.highlights, "highlights", false, "archive Twitch highlights")
	fl.BoolVar(&f.clips, "clips", false, "archive Twitch clips")
	fl.BoolVar(&f.youtube, "youtube", false, "archive YouTube videos")
	fl.StringVarP(&f.channel, "channel", "c", "", "archive everything from a channel")
	fl.IntVarP(&f.threads, "threads", "N", 1, "fragments to download concurrently")
	fl.CountVarP(&f.verbose, "verbose", "v", "print more, repeat for debug output")
	fl.CountVarP(&f.silent, "silent", "s", "print less, repeat to hide errors")
	fl.StringVarP(&f.span, "range", "r", "1week", "how far back to look for clips")
	fl.StringVarP(&f.interval, "interval", "i", "1hour", "width of each clip search window")
	fl.BoolVarP(&f.logging, "logging", "l", false, "write external program output to <id>.<stage>.log")
	fl.BoolVarP(&f.skipVideo, "skip-video", "K", false, "skip the video download")
	fl.StringVarP(&f.output, "output", "o", "", "directory to write into (overrides output_dir)")

	cmd.MarkFlagsMutuallyExclusive("vods", "highlights", "clips", "youtube")
	cmd.MarkFlagsOneRequired("vods", "highlights", "clips", "youtube")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.AddCommand(newCompletionCmd())
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Generate a shell completion script",
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, out := cmd.Root(), cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			default:
				return root.GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer, run runFunc) int {
	cmd := newRootCmd(ctx, stdout, stderr, run)
	cmd.SetArgs(args)

	err := cmd.Execute()
	if err == nil {
		return exitOK
	}

	rep := report.New(0, stdout, stderr)
	var ue usageError
	switch {
	case errors.As(err, &ue), isCobraUsage(err):
		rep.HelpError(err.Error(), usage)
		return exitUsage
	case errors.Is(err, config.ErrConfigMissing):
		rep.Fatal(err.Error(), "Fill in your credentials and run archiver again.")
	case errors.Is(err, context.Canceled):
		rep.Fatal("interrupted")
	default:
		rep.Fatal(err.Error())
	}
	return exitFailure
}

// isCobraUsage matches the argument and flag-group errors cobra returns
// without a typed error.
func isCobraUsage(err error) bool {
	msg := err.Error()
	for _, s := range []string{
		"if any flags in the group",
		"at least one of the flags in the group",
		"invalid argument",
		"accepts ",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
