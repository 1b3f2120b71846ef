package definition

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// Change reports one reloaded definition file. Definition is nil when the file was removed.
type Change struct {
	Path       string
	Definition Definition
}

// Watcher reloads definition files into a Library as they change on disk.
type Watcher struct {
	watcher  *fsnotify.Watcher
	library  Library
	logger   *slog.Logger
	debounce time.Duration
	Events   chan Change
	Errors   chan error
	closeCh  chan struct{}
	done     chan struct{}
	once     sync.Once
}

// WatcherBuilderOption is a functional option for configuring a Watcher during construction.
type WatcherBuilderOption func(*Watcher)

// WithLogger sets the logger reloads and failures are reported to.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - WatcherBuilderOption: functional option to set the logger
func WithLogger(logger *slog.Logger) WatcherBuilderOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithDebounce sets how long a file must stay quiet before it is reloaded.
//
// Parameters:
//   - d: the debounce window
//
// Returns:
//   - WatcherBuilderOption: functional option to set the debounce window
func WithDebounce(d time.Duration) WatcherBuilderOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// NewWatcher watches dirs and reloads changed .yaml and .yml files into library.
//
// Parameters:
//   - library: the library to reload into
//   - dirs: the directories to watch
//   - options: functional options to configure the watcher
//
// Returns:
//   - *Watcher: the running watcher
//   - error: when a directory cannot be watched
func NewWatcher(library Library, dirs []string, options ...WatcherBuilderOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}

	w := &Watcher{
		watcher:  fw,
		library:  library,
		logger:   logging.NewNop(),
		debounce: 100 * time.Millisecond,
		Events:   make(chan Change, 16),
		Errors:   make(chan error, 1),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, option := range options {
		option(w)
	}
	go w.run()
	return w, nil
}

// Close stops watching. Events and Errors are closed once the watcher has stopped.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) run() {
	// Each file reloads once its events have been quiet for the debounce window.
	pending := make(map[string]*time.Timer)
	ready := make(chan string)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
		close(w.Events)
		close(w.Errors)
		close(w.done)
	}()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !isDefinitionFile(event.Name) {
				continue
			}
			if t, ok := pending[event.Name]; ok {
				t.Stop()
			}
			path := event.Name
			pending[path] = time.AfterFunc(w.debounce, func() {
				select {
				case ready <- path:
				case <-w.closeCh:
				}
			})
		case path := <-ready:
			delete(pending, path)
			w.reload(path)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.send(nil, err)
		case <-w.closeCh:
			return
		}
	}
}

func (w *Watcher) reload(path string) {
	def, err := w.library.Reload(path)
	if err != nil {
		w.logger.Warn("definition reload failed", "path", path, "error", err)
		w.send(nil, err)
		return
	}
	if def == nil {
		w.logger.Debug("definition removed", "path", path)
	} else {
		w.logger.Debug("definition reloaded", "path", path, "animation", def.Name())
	}
	w.send(&Change{Path: path, Definition: def}, nil)
}

func (w *Watcher) send(change *Change, err error) {
	if change != nil {
		select {
		case w.Events <- *change:
		case <-w.closeCh:
		}
		return
	}
	select {
	case w.Errors <- err:
	case <-w.closeCh:
	}
}
