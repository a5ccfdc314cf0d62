package patch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// settle is how long Watch waits after the last change before reloading.
// Editors often write a file in several steps.
const settle = 100 * time.Millisecond

// Watch reloads the patch at path whenever it changes and passes it to
// apply. It watches the parent directory so that editors that replace the
// file are still seen. Watch blocks until ctx is done.
//
// Parse and apply errors are logged and the previous settings stay in
// effect.
func Watch(ctx context.Context, path string, apply func(*Patch) error, log zerolog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	target := filepath.Clean(path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return err
	}
	log.Debug().Str("path", target).Msg("watching patch")

	var (
		timer  *time.Timer
		reload <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(settle)
			} else {
				timer.Reset(settle)
			}
			reload = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("patch watcher")
		case <-reload:
			reload = nil
			p, err := Load(target)
			if err != nil {
				log.Warn().Err(err).Msg("patch not reloaded")
				continue
			}
			if err := apply(p); err != nil {
				log.Warn().Err(err).Msg("patch not applied")
				continue
			}
			log.Info().Str("path", target).Str("name", p.Name).Msg("patch reloaded")
		}
	}
}
