package schema

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the active domain when its schema file changes on disk.
// It watches the provider directory rather than the file itself so that
// editors replacing the file by rename are still picked up.
type Watcher struct {
	ws       *Workspace
	provider *FileProvider
	watcher  *fsnotify.Watcher

	mu             sync.Mutex
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
	onReload       func(domain string, err error)

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWatcher watches provider's directory on behalf of ws.
func NewWatcher(ws *Workspace, provider *FileProvider) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := fw.Add(provider.Dir()); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "failed to watch schema dir %s", provider.Dir())
	}

	return &Watcher{
		ws:             ws,
		provider:       provider,
		watcher:        fw,
		debouncePeriod: 250 * time.Millisecond,
		done:           make(chan struct{}),
	}, nil
}

// SetDebounce changes the quiet period before a reload fires.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debouncePeriod = d
}

// OnReload registers fn to be called after every reload attempt.
func (w *Watcher) OnReload(fn func(domain string, err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = fn
}

// Start begins the watch loop.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.watchLoop()
}

// Stop ends the watch loop and releases the fsnotify handle.
func (w *Watcher) Stop() error {
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()

	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.mu.Unlock()
	return err
}

func (w *Watcher) watchLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !w.isActiveFile(event.Name) {
				continue
			}
			log.Debug("Schema file changed", "file", event.Name, "op", event.Op.String())
			w.scheduleReload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("Schema watcher error: %v", err)
		}
	}
}

func (w *Watcher) isActiveFile(name string) bool {
	domain := w.ws.Domain()
	if domain == "" {
		return false
	}
	return filepath.Clean(name) == filepath.Clean(w.provider.Path(domain))
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debouncePeriod, w.reload)
}

func (w *Watcher) reload() {
	select {
	case <-w.done:
		return
	default:
	}

	domain := w.ws.Domain()
	err := w.ws.Reload(context.Background())
	if err != nil {
		log.Errorf("Schema reload for '%s' failed: %v", domain, err)
	} else {
		log.Infof("Reloaded schema for domain '%s'", domain)
	}

	w.mu.Lock()
	fn := w.onReload
	w.mu.Unlock()
	if fn != nil {
		fn(domain, err)
	}
}
