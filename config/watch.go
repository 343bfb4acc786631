package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/itish2003/voicerag/logger"
)

// Watch reloads the config file at path whenever it is written or replaced
// and hands the result to onChange. The parent directory is watched so that
// editors which save through a rename are seen too. The watcher stops when
// ctx is cancelled.
func Watch(ctx context.Context, path string, onChange func(Config, error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	log := logger.For("CONFIG")
	go func() {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					log.Debug("config file changed", "path", abs, "op", event.Op.String())
					cfg, err := Load(abs)
					if err == nil {
						err = cfg.Validate()
					}
					onChange(cfg, err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("config watcher error", "error", err)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
