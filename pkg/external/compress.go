package external

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/andybalholm/brotli"
)

// Compress writes path+".br" at maximum quality. With BuiltinBrotli set the
// brotli binary is not needed.
func (r *Runner) Compress(ctx context.Context, id, path string) error {
	if r.BuiltinBrotli {
		return r.compressBuiltin(ctx, path)
	}
	return r.run(ctx, Brotli, id+".process_chat", "-q", "11", path)
}

func (r *Runner) compressBuiltin(ctx context.Context, path string) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := os.Open(r.path(path))
	if err != nil {
		return err
	}
	defer src.Close()

	dstPath := r.path(path + ".br")
	dst, err := os.OpenFile(dstPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := dst.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(dstPath)
		}
	}()

	bw := brotli.NewWriterLevel(dst, brotli.BestCompression)
	if _, err := io.Copy(bw, src); err != nil {
		return fmt.Errorf("external: brotli %s: %w", path, err)
	}
	if err := bw.Close(); err != nil {
		return fmt.Errorf("external: brotli %s: %w", path, err)
	}
	r.log().Debug("compressed chat in-process", "path", path)
	return nil
}
