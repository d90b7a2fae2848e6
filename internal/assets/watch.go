package assets

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 200 * time.Millisecond

// Watch reloads the cache when files in the asset dir change, until ctx is
// cancelled. Bursts of events collapse into one reload.
func (c *Cache) Watch(ctx context.Context) error {
	if c.opts.Dir == "" {
		<-ctx.Done()
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(c.opts.Dir); err != nil {
		return err
	}
	c.logger.Info("assets: watcher started", slog.String("dir", c.opts.Dir))

	var timer *time.Timer
	var timerCh <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(reloadDebounce)
			timerCh = timer.C
		} else {
			timer.Reset(reloadDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			c.logger.Info("assets: watcher stopped")
			return nil

		case <-timerCh:
			if _, err := c.Reload(); err != nil {
				c.logger.Warn("assets: reload failed", slog.Any("error", err))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				schedule()
			}

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			c.logger.Error("assets: watcher error", slog.String("error", werr.Error()))
		}
	}
}
