package resolve

import (
	"context"
	"log/slog"
)

// PageFunc fetches the page that starts at cursor. An empty cursor requests the
// first page; an empty next cursor means there are no more pages.
type PageFunc[T any] func(ctx context.Context, cursor string) (items []T, next string, err error)

// Paginate follows cursors until the API stops returning one, or returns the
// cursor it was just given. Items are accumulated in page order. A page error
// ends the walk and is returned together with everything collected so far.
func Paginate[T any](ctx context.Context, fetch PageFunc[T], log *slog.Logger) ([]T, error) {
	if log == nil {
		log = slog.Default()
	}

	var out []T
	cursor := ""
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		items, next, err := fetch(ctx, cursor)
		if err != nil {
			return out, err
		}
		out = append(out, items...)
		log.Debug("fetched page", "page", page, "items", len(items), "total", len(out))

		if next == "" {
			return out, nil
		}
		if next == cursor {
			log.Warn("pagination cursor did not advance, stopping", "cursor", cursor, "page", page)
			return out, nil
		}
		cursor = next
	}
}
