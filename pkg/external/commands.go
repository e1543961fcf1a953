package external

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// VideoOptions controls a yt-dlp download.
type VideoOptions struct {
	// Output is the -o template, relative to the runner's Dir.
	Output string
	// Threads is forwarded as -N.
	Threads int
	// HLS selects ffmpeg as the m3u8 downloader, which Twitch VODs need.
	HLS bool
	// MergeFormat is passed as --merge-output-format so separately fetched
	// audio and video streams end up in the container Output names.
	MergeFormat string
}

// DownloadVideo runs yt-dlp for url. id names the log files.
func (r *Runner) DownloadVideo(ctx context.Context, id, url string, opts VideoOptions) error {
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("external: url is required")
	}

	threads := opts.Threads
	if threads < 1 {
		threads = 1
	}
	args := []string{"-N", strconv.Itoa(threads), "--no-colors"}
	if opts.HLS {
		args = append(args, "--downloader", "m3u8:ffmpeg")
	}
	if opts.MergeFormat != "" {
		args = append(args, "--merge-output-format", opts.MergeFormat)
	}
	if opts.Output != "" {
		args = append(args, "-o", opts.Output)
	}
	args = append(args, url)

	return r.run(ctx, YtDlp, id+".video", args...)
}

// DownloadTwitchChat writes the chat replay of a VOD or highlight as JSON.
func (r *Runner) DownloadTwitchChat(ctx context.Context, id, output string) error {
	return r.run(ctx, TwitchDownloaderCLI, id+".chat", "chatdownload", "-u", id, "-o", output)
}

// DownloadYouTubeChat writes the chat replay of a YouTube stream as JSON.
func (r *Runner) DownloadYouTubeChat(ctx context.Context, id, url, output string) error {
	return r.run(ctx, ChatDownloader, id+".chat", url, "--output", output)
}
