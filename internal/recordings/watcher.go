package recordings

import (
	"context"

	"github.com/fsnotify/fsnotify"
)

// Watch keeps the catalog index in sync with the recordings directory
// until the context is cancelled. A missing directory is not an error;
// watching simply does not start.
func (c *Catalog) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(c.dir); err != nil {
		c.logger.Debug("recordings directory not watchable", "dir", c.dir, "error", err)
		return nil
	}
	c.logger.Info("watching recordings directory", "dir", c.dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			switch {
			case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
				c.syncFile(event.Name)
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				c.forgetFile(event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn("recordings watcher error", "error", err)
		}
	}
}
