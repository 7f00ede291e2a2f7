// monitor.go
package file

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileMonitor reports writes to one file. It watches the parent directory
// so editors that replace the file on save are still seen.
type FileMonitor struct {
	target   string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	lastMod  time.Time
	mu       sync.Mutex
}

// NewFileMonitor starts watching the directory holding path.
func NewFileMonitor(path string, debounce time.Duration) (*FileMonitor, error) {
	target, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return nil, err
	}

	return &FileMonitor{
		target:   target,
		watcher:  watcher,
		debounce: debounce,
	}, nil
}

// Watch calls handler once per burst of write/create events on the target,
// after the file has been quiet for the debounce period. It blocks until ctx
// is done or the watcher fails. handler runs on the watch goroutine, so a
// burst arriving during a run is delivered after it.
func (m *FileMonitor) Watch(ctx context.Context, handler func(string)) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
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
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if !m.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(m.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(m.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			handler(m.target)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

func (m *FileMonitor) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil || name != m.target {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastMod = time.Now()
	return true
}

// LastEvent returns when the last relevant event was seen.
func (m *FileMonitor) LastEvent() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastMod
}

// Close stops the underlying watcher.
func (m *FileMonitor) Close() error {
	return m.watcher.Close()
}
