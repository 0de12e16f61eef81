package sdfsandbox

import (
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// SceneWatcher flags a scene document for reload when it changes on disk.
// It never touches a Scene; the frame loop calls Pending and reloads.
type SceneWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	pending atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup
	logger  Logger
}

// WatchScene watches the directory holding path, since editors often replace
// files rather than write them in place.
func WatchScene(path string, logger Logger) (*SceneWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}
	sw := &SceneWatcher{
		path:    abs,
		watcher: w,
		done:    make(chan struct{}),
		logger:  orNop(logger),
	}
	sw.wg.Add(1)
	go sw.run()
	return sw, nil
}

func (sw *SceneWatcher) Path() string { return sw.path }

func (sw *SceneWatcher) run() {
	defer sw.wg.Done()
	for {
		select {
		case <-sw.done:
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != sw.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				sw.pending.Store(true)
			}
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			sw.logger.Warnf("scene watcher: %v", err)
		}
	}
}

// Pending reports and clears a pending change.
func (sw *SceneWatcher) Pending() bool {
	return sw.pending.Swap(false)
}

// Trigger marks the scene for reload without a file event.
func (sw *SceneWatcher) Trigger() {
	sw.pending.Store(true)
}

func (sw *SceneWatcher) Close() error {
	close(sw.done)
	err := sw.watcher.Close()
	sw.wg.Wait()
	return err
}
