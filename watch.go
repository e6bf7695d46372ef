package pagesmith

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/eringen/pagesmith/sitedata"
)

// DefaultWatchDebounce is the quiet period watch mode waits for before it
// reloads.
const DefaultWatchDebounce = 200 * time.Millisecond

// installWatch reloads the site whenever files under the default directory
// or the templates root change, or when the override routes or data
// documents change. The override directory is usually the project root, so
// it is watched without recursion.
func (a *App) installWatch(debounce time.Duration) (io.Closer, error) {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	logger := a.Logger.Named("watch")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	recursive := []string{a.Config.DefaultDir}
	if !within(a.Config.TemplatesDir, a.Config.DefaultDir) {
		recursive = append(recursive, a.Config.TemplatesDir)
	}
	for _, dir := range recursive {
		if err := addWatchRecursive(watcher, dir); err != nil {
			_ = watcher.Close()
			return nil, err
		}
	}
	overrideDir := filepath.Clean(a.Config.OverrideDir)
	if overrideDir != filepath.Clean(a.Config.DefaultDir) {
		if err := watcher.Add(overrideDir); err != nil {
			_ = watcher.Close()
			return nil, err
		}
	}

	stopCh := make(chan struct{})
	doneCh := make(chan struct{})
	triggerCh := make(chan struct{}, 1)

	go func() {
		defer close(doneCh)
		var (
			timer  *time.Timer
			timerC <-chan time.Time
		)
		resetTimer := func() {
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
				return
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
			timerC = timer.C
		}
		runReload := func() {
			if err := a.Site.Reload(); err != nil {
				logger.Error("reload failed", zap.Error(err))
				return
			}
			logger.Info("reload ok", zap.Int("routes", len(a.Site.Routes())))
		}

		for {
			select {
			case <-stopCh:
				if timer != nil {
					timer.Stop()
				}
				return
			case <-timerC:
				timerC = nil
				runReload()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("watcher error", zap.Error(err))
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				inOverride := filepath.Dir(evt.Name) == overrideDir
				if evt.Op&fsnotify.Create != 0 && !inOverride {
					if fi, statErr := os.Stat(evt.Name); statErr == nil && fi.IsDir() {
						if addErr := addWatchRecursive(watcher, evt.Name); addErr != nil {
							logger.Warn("add watch failed", zap.String("path", evt.Name), zap.Error(addErr))
						}
					}
				}
				if shouldTriggerReload(evt, inOverride) {
					select {
					case triggerCh <- struct{}{}:
					default:
					}
				}
			case <-triggerCh:
				resetTimer()
			}
		}
	}()

	logger.Info("watching for changes", zap.Strings("dirs", append(recursive, overrideDir)), zap.Duration("debounce", debounce))
	return closerFunc(func() error {
		close(stopCh)
		_ = watcher.Close()
		<-doneCh
		return nil
	}), nil
}

// shouldTriggerReload filters watcher events. In the override directory only
// the site documents count; elsewhere any visible file does.
func shouldTriggerReload(evt fsnotify.Event, inOverride bool) bool {
	if strings.TrimSpace(evt.Name) == "" {
		return false
	}
	if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(evt.Name)
	if inOverride {
		return base == sitedata.RoutesFile || base == sitedata.DataFile
	}
	return !strings.HasPrefix(base, ".") && !strings.HasSuffix(base, "~")
}

func addWatchRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return watcher.Add(path)
	})
}

// within reports whether path is dir or lies below it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
