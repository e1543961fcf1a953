package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"thirdcoast.systems/archiver/internal/model"
	"thirdcoast.systems/archiver/internal/platform"
	"thirdcoast.systems/archiver/pkg/external"
	"thirdcoast.systems/archiver/pkg/utils/filename"
)

const (
	StageJSON        = "json"
	StageThumbnail   = "thumbnail"
	StageChat        = "chat"
	StageProcessChat = "process_chat"
	StageVideo       = "video"
)

// Stage is one step of the pipeline. Run returns nil on success or an error
// that Classify maps to an outcome.
type Stage struct {
	Name  string
	Label string
	Verb  string
	File  func(model.Record) string
	Run   func(context.Context, model.Record) error
}

func (p *Pipeline) stagesFor(k platform.Kind) []Stage {
	chat := p.twitchChat
	processChat := p.compressChat
	switch k {
	case platform.Clip:
		chat, processChat = expected, expected
	case platform.YouTube:
		chat, processChat = p.youtubeChat, expected
	}

	return []Stage{
		{Name: StageJSON, Label: "json", Verb: "Download", File: p.jsonFile, Run: p.saveJSON},
		{Name: StageThumbnail, Label: "thumbnail", Verb: "Download", File: p.thumbnailFile, Run: p.downloadThumbnail},
		{Name: StageChat, Label: "chat", Verb: "Download", File: p.chatFile, Run: chat},
		{Name: StageProcessChat, Label: "chat", Verb: "Process", File: p.compressedChatFile, Run: processChat},
		{Name: StageVideo, Label: "video", Verb: "Download", File: p.VideoFile, Run: p.downloadVideo},
	}
}

func expected(context.Context, model.Record) error { return ErrExpected }

func (p *Pipeline) path(name string) string {
	if p.opts.Dir == "" {
		return name
	}
	return filepath.Join(p.opts.Dir, name)
}

func (p *Pipeline) exists(name string) bool {
	_, err := os.Stat(p.path(name))
	return err == nil
}

// writeNew creates name and fails with ErrAlreadyExists instead of
// overwriting.
func (p *Pipeline) writeNew(name string, data []byte) error {
	f, err := os.OpenFile(p.path(name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return ErrAlreadyExists
	}
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(p.path(name))
		return err
	}
	return f.Close()
}

func (p *Pipeline) jsonFile(rec model.Record) string { return rec.ID + ".json" }

func (p *Pipeline) saveJSON(_ context.Context, rec model.Record) error {
	name := p.jsonFile(rec)
	if p.exists(name) {
		return ErrAlreadyExists
	}
	b, err := json.MarshalIndent(rec.Payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	return p.writeNew(name, append(b, '\n'))
}

func (p *Pipeline) thumbnailFile(rec model.Record) string { return rec.ID + ".jpg" }

// ThumbnailURL fills Twitch's size placeholders with 1920x1080.
func ThumbnailURL(raw string) string {
	return strings.NewReplacer("%{width}", "1920", "%{height}", "1080").Replace(raw)
}

func (p *Pipeline) downloadThumbnail(ctx context.Context, rec model.Record) error {
	name := p.thumbnailFile(rec)
	if p.exists(name) {
		return ErrAlreadyExists
	}
	if rec.ThumbnailURL == "" {
		return errors.New("record has no thumbnail url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ThumbnailURL(rec.ThumbnailURL), nil)
	if err != nil {
		return err
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("thumbnail: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	p.log.Debug("fetched thumbnail", "id", rec.ID, "size", humanize.Bytes(uint64(len(body))))
	return p.writeNew(name, body)
}

func (p *Pipeline) chatFile(rec model.Record) string {
	return rec.ID + "." + p.kind.ChatExt()
}

func (p *Pipeline) compressedChatFile(rec model.Record) string {
	return p.chatFile(rec) + ".br"
}

func (p *Pipeline) twitchChat(ctx context.Context, rec model.Record) error {
	name := p.chatFile(rec)
	if p.exists(name) {
		return ErrAlreadyExists
	}
	return p.runner.DownloadTwitchChat(ctx, rec.ID, name)
}

func (p *Pipeline) youtubeChat(ctx context.Context, rec model.Record) error {
	name := p.chatFile(rec)
	if p.exists(name) {
		return ErrAlreadyExists
	}
	return p.runner.DownloadYouTubeChat(ctx, rec.ID, p.kind.VideoURL(rec.ID), name)
}

func (p *Pipeline) compressChat(ctx context.Context, rec model.Record) error {
	if p.exists(p.compressedChatFile(rec)) {
		return ErrAlreadyExists
	}
	src := p.chatFile(rec)
	if !p.exists(src) {
		return fmt.Errorf("%w: %s", ErrNoChatFound, src)
	}
	return p.runner.Compress(ctx, rec.ID, src)
}

// VideoFile is the final video filename for rec.
func (p *Pipeline) VideoFile(rec model.Record) string {
	if p.kind == platform.Clip {
		return rec.ID + ".mp4"
	}
	return filename.Sanitize(rec.Title, false) + "-v" + rec.ID + ".mp4"
}

func (p *Pipeline) downloadVideo(ctx context.Context, rec model.Record) error {
	name := p.VideoFile(rec)
	if p.exists(name) {
		return ErrAlreadyExists
	}
	if p.opts.SkipVideo {
		return ErrExpected
	}

	output := name
	if p.kind == platform.Clip {
		output = rec.ID + ".%(ext)s"
	}
	opts := external.VideoOptions{
		Output:  output,
		Threads: p.opts.Threads,
		HLS:     p.kind == platform.Vod || p.kind == platform.Highlight,
	}
	if p.kind == platform.YouTube {
		opts.MergeFormat = "mp4"
	}
	return p.runner.DownloadVideo(ctx, rec.ID, p.kind.VideoURL(rec.ID), opts)
}
