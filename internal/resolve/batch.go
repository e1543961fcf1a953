// Package resolve implements the request loops shared by every platform:
// chunked id lookups, cursor pagination and the time-windowed clip walk.
package resolve

import (
	"context"
	"log/slog"
)

// BatchFunc fetches metadata for one batch of ids.
type BatchFunc[T any] func(ctx context.Context, ids []string) ([]T, error)

// Batched drains ids into batches of at most max and calls fetch once per
// batch. A failing batch is logged and skipped; its items are simply absent
// from the result. An empty id list issues no request.
func Batched[T any](ctx context.Context, ids []string, max int, fetch BatchFunc[T], log *slog.Logger) ([]T, error) {
	if max <= 0 {
		max = 1
	}
	if log == nil {
		log = slog.Default()
	}

	pending := append([]string(nil), ids...)
	var out []T
	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		n := min(len(pending), max)
		batch := pending[:n]
		pending = pending[n:]

		log.Debug("fetching batch", "size", len(batch), "remaining", len(pending))
		items, err := fetch(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			log.Error("skipping batch", "size", len(batch), "first_id", batch[0], "error", err)
			continue
		}
		out = append(out, items...)
	}
	return out, nil
}
