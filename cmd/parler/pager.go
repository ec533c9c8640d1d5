package main

import (
	"context"
	"fmt"
	"strconv"

	"parler/pkg/checkpoint"
	"parler/pkg/logger"
	"parler/pkg/parler"
	"parler/pkg/ui"
)

type pageOptions struct {
	limit  int
	cursor string
	pages  int
	resume bool
}

// pager walks a listing page by page, printing each payload and keeping
// the cursor in the checkpoint store when one is available.
type pager struct {
	store *checkpoint.Store
	term  *ui.Terminal
}

func (p *pager) run(ctx context.Context, endpoint, key string, opts pageOptions, fetch func(context.Context, parler.Page) (map[string]interface{}, error)) error {
	if opts.pages < 0 {
		return fmt.Errorf("--pages cannot be negative")
	}
	log := logger.GetLogger().WithFields(map[string]interface{}{
		"endpoint": endpoint,
		"key":      key,
	})

	page := parler.Page{Limit: opts.limit, Cursor: opts.cursor}
	if opts.resume && page.Cursor == "" {
		if p.store == nil {
			p.term.Warning("No checkpoint store available, starting from the first page")
		} else {
			entry, ok, err := p.store.Load(endpoint, key)
			if err != nil {
				return err
			}
			if ok {
				page.Cursor = entry.Cursor
				p.term.Info("Resuming after page", strconv.Itoa(entry.Pages))
			}
		}
	}

	for n := 1; ; n++ {
		payload, err := fetch(ctx, page)
		if err != nil {
			return err
		}
		if err := p.term.JSON(payload); err != nil {
			return err
		}

		cursor, more := parler.NextCursor(payload)
		if err := p.saveCursor(endpoint, key, cursor, more); err != nil {
			log.WithError(err).Warn("Failed to update checkpoint")
		}

		if !more {
			log.DebugWithFields("Listing exhausted", map[string]interface{}{"pages": n})
			return nil
		}
		if opts.pages > 0 && n >= opts.pages {
			return nil
		}
		page.Cursor = cursor
	}
}

func (p *pager) saveCursor(endpoint, key, cursor string, more bool) error {
	if p.store == nil {
		return nil
	}
	if !more {
		return p.store.Delete(endpoint, key)
	}
	return p.store.Save(endpoint, key, cursor)
}
