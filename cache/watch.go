package cache

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/goccy/go-json"
)

// Watch calls fn each time key is rewritten, until ctx is done. The store
// directory is watched rather than the file itself because Set replaces the
// file by rename, which would orphan a watch on the old inode.
func (s *Store) Watch(ctx context.Context, key string, fn func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cache: create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(s.dir); err != nil {
		return fmt.Errorf("cache: watch %s: %w", s.dir, err)
	}

	target := filepath.Clean(s.Path(key))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				fn()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("cache: watcher error", "error", err)
		}
	}
}

// Follow decodes key into T each time it is rewritten and delivers the
// result on the returned channel, starting with the value present at call
// time. Unchanged rewrites are skipped. The channel holds only the newest
// value; a slow reader misses intermediate ones. It is closed when ctx is
// done or the watch fails.
func Follow[T any](ctx context.Context, s *Store, key string) <-chan *T {
	ch := make(chan *T, 1)
	var last []byte

	load := func() {
		raw, _, err := s.Get(key, 0)
		if err != nil {
			s.logger.Warn("cache: follow read failed", "key", key, "error", err)
			return
		}
		if raw == nil || bytes.Equal(raw, last) {
			return
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			s.logger.Warn("cache: follow decode failed", "key", key, "error", err)
			return
		}
		last = raw

		select {
		case <-ch:
		default:
		}
		ch <- &v
	}

	go func() {
		defer close(ch)
		load()
		if err := s.Watch(ctx, key, load); err != nil {
			s.logger.Warn("cache: follow stopped", "key", key, "error", err)
		}
	}()
	return ch
}
