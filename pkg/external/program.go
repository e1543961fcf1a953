// Package external runs the third-party programs that do the heavy lifting:
// yt-dlp for video, TwitchDownloaderCLI and chat_downloader for chat, and
// brotli for chat compression.
package external

import (
	"fmt"
	"os/exec"
)

type Program int

const (
	YtDlp Program = iota
	TwitchDownloaderCLI
	ChatDownloader
	Brotli
)

var programs = map[Program]struct{ command, homepage string }{
	YtDlp:               {"yt-dlp", "https://github.com/yt-dlp/yt-dlp"},
	TwitchDownloaderCLI: {"TwitchDownloaderCLI", "https://github.com/lay295/TwitchDownloader"},
	ChatDownloader:      {"chat_downloader", "https://github.com/xenova/chat-downloader"},
	Brotli:              {"brotli", "https://github.com/google/brotli"},
}

// Command is the executable name looked up on PATH.
func (p Program) Command() string { return programs[p].command }

func (p Program) Homepage() string { return programs[p].homepage }

func (p Program) String() string {
	return fmt.Sprintf("%s: %s", p.Command(), p.Homepage())
}

// MissingProgramError is returned instead of invoking a program that was not
// found during probing.
type MissingProgramError struct {
	Program Program
}

func (e *MissingProgramError) Error() string {
	return "missing external program: " + e.Program.String()
}

// Probe looks every program up on PATH and remembers the ones that are
// missing. It returns the missing programs in the order given.
func (r *Runner) Probe(ps ...Program) []Program {
	lookPath := r.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if r.missing == nil {
		r.missing = make(map[Program]bool)
	}

	var missing []Program
	for _, p := range ps {
		if _, err := lookPath(p.Command()); err != nil {
			r.missing[p] = true
			missing = append(missing, p)
			continue
		}
		delete(r.missing, p)
	}
	return missing
}

// Missing reports whether p was found missing by Probe.
func (r *Runner) Missing(p Program) bool {
	return r.missing[p]
}
