package ormap

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/syssam/ormap/config"
)

// Watch rebuilds the configuration whenever a descriptor file of the
// settings changes and publishes it to the holder. A failed rebuild is
// logged and the current configuration stays in place. Watch blocks until
// the context is done.
func Watch(ctx context.Context, h *Holder, s *config.Settings, opts ...Option) error {
	o, err := settingsOptions(s, opts)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("ormap: create file watcher: %w", err)
	}
	defer watcher.Close()

	files := make(map[string]bool, len(s.Descriptors))
	dirs := make(map[string]bool)
	for _, d := range s.Descriptors {
		abs, err := filepath.Abs(d)
		if err != nil {
			return fmt.Errorf("ormap: resolve descriptor path: %w", err)
		}
		files[abs] = true
		// Editors often replace files, so the directories are watched.
		if dir := filepath.Dir(abs); !dirs[dir] {
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("ormap: watch directory %s: %w", dir, err)
			}
			dirs[dir] = true
		}
	}
	log := o.log.Named("watch")
	log.Debug("watching descriptors", zap.Strings("files", s.Descriptors))

	var (
		timer   *time.Timer
		settled <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || !files[name] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			log.Debug("descriptor changed", zap.String("file", name), zap.Stringer("op", event.Op))
			if timer == nil {
				timer = time.NewTimer(o.debounce)
			} else {
				timer.Reset(o.debounce)
			}
			settled = timer.C
		case <-settled:
			settled = nil
			c, err := open(s, o)
			if err != nil {
				log.Error("rebuild failed, keeping the current configuration", zap.Error(err))
				continue
			}
			prev, err := h.Swap(c)
			if err != nil {
				log.Error("rebuilt configuration rejected", zap.Error(err))
				continue
			}
			fields := []zap.Field{zap.Stringer("configuration", c.ID())}
			if prev != nil {
				fields = append(fields, zap.Stringer("previous", prev.ID()))
			}
			log.Info("configuration reloaded", fields...)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("file watcher error", zap.Error(err))
		}
	}
}
