package config

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const debounceReloadDelay = 2 * time.Second

// WatchStatusConfig watches filename for writes and invokes onReload with
// the freshly re-validated StatusConfig after each debounced change. Rapid
// successive writes collapse into a single reload. Only Write and Create
// events on filename trigger a reload; a save that replaces the file
// through a rename is not followed. The watch runs until ctx is cancelled.
func WatchStatusConfig(ctx context.Context, filename string, onReload func(StatusConfig)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "could not create config file watcher")
	}

	if err := watcher.Add(filename); err != nil {
		_ = watcher.Close()
		return errors.Wrap(err, "could not watch config file")
	}

	go func() {
		defer watcher.Close()
		logrus.WithField("file", filename).Info("Watching status config file for changes")

		debounceChan := make(<-chan time.Time)
		var debounceTimer *time.Timer

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) {
					if debounceTimer == nil {
						debounceTimer = time.NewTimer(debounceReloadDelay)
					} else {
						debounceTimer.Reset(debounceReloadDelay)
					}
					debounceChan = debounceTimer.C
				}

			case <-debounceChan:
				cfg, err := LoadStatusConfig(filename)
				if err != nil {
					logrus.WithError(err).Error("Failed to reload status config file")
					continue
				}
				onReload(cfg)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logrus.WithError(err).Warn("Status config watcher error")

			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}
