package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/poorehouse/twotruths/internal/logging"
)

const reloadDebounce = 200 * time.Millisecond

// Watch reloads path whenever it changes and hands the parsed result to
// onChange. A parse failure keeps the previous config in effect. Watch
// blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors and orchestrators tend
	// to replace the file, which drops a direct watch.
	dir := filepath.Dir(abs)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			debounce.Reset(reloadDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warnf("config watcher: %v", err)
		case <-debounce.C:
			cfg, err := Load(abs)
			if err != nil {
				logging.Warnf("config reload skipped: %v", err)
				continue
			}
			logging.Infof("config reloaded from %s", abs)
			onChange(cfg)
		}
	}
}
