package definition

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-anim/common"
)

type library struct {
	mu      *sync.RWMutex
	defs    map[string]Definition
	sources map[string]string
}

// Library is a scoped set of definitions looked up by case-insensitive name.
// It is safe for concurrent use, so a watcher may reload files while coordinators read.
type Library interface {
	// Put adds a definition, replacing any with the same name.
	//
	// Parameters:
	//   - def: the definition
	Put(def Definition)

	// Get returns the definition with the given name.
	//
	// Parameters:
	//   - name: the animation name
	//
	// Returns:
	//   - Definition: the definition
	//   - error: ErrUnknownAnimation if absent
	Get(name string) (Definition, error)

	// Remove drops a definition.
	//
	// Parameters:
	//   - name: the animation name
	//
	// Returns:
	//   - bool: true if it was present
	Remove(name string) bool

	// Names returns every definition name, sorted.
	Names() []string

	// Len returns the number of definitions.
	Len() int

	// LoadDir loads every definition file in dir.
	//
	// Parameters:
	//   - dir: the directory
	//
	// Returns:
	//   - error: the first load failure
	LoadDir(dir string) error

	// Reload re-reads one definition file. A file that no longer exists removes the
	// definition it last provided.
	//
	// Parameters:
	//   - path: the file that changed
	//
	// Returns:
	//   - Definition: the reloaded definition, nil when it was removed
	//   - error: the load failure; the previous definition stays in place
	Reload(path string) (Definition, error)
}

var _ Library = &library{}

// NewLibrary creates a library holding defs.
//
// Parameters:
//   - defs: the initial definitions
//
// Returns:
//   - Library: the newly created library
func NewLibrary(defs ...Definition) Library {
	l := &library{
		mu:      &sync.RWMutex{},
		defs:    make(map[string]Definition),
		sources: make(map[string]string),
	}
	for _, def := range defs {
		l.Put(def)
	}
	return l
}

func (l *library) Put(def Definition) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.put(def)
}

func (l *library) put(def Definition) {
	l.defs[common.NameKey(def.Name())] = def
	if src := def.Source(); src != "" {
		l.sources[filepath.Clean(src)] = common.NameKey(def.Name())
	}
}

func (l *library) Get(name string) (Definition, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	def, ok := l.defs[common.NameKey(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAnimation, name)
	}
	return def, nil
}

func (l *library) Remove(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := common.NameKey(name)
	if _, ok := l.defs[key]; !ok {
		return false
	}
	delete(l.defs, key)
	for src, n := range l.sources {
		if n == key {
			delete(l.sources, src)
		}
	}
	return true
}

func (l *library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.defs))
	for _, def := range l.defs {
		names = append(names, def.Name())
	}
	slices.Sort(names)
	return names
}

func (l *library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.defs)
}

func (l *library) LoadDir(dir string) error {
	defs, err := LoadDir(dir)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, def := range defs {
		l.put(def)
	}
	return nil
}

func (l *library) Reload(path string) (Definition, error) {
	path = filepath.Clean(path)
	def, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		l.mu.Lock()
		defer l.mu.Unlock()
		if name, ok := l.sources[path]; ok {
			delete(l.defs, name)
			delete(l.sources, path)
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if old, ok := l.sources[path]; ok && old != common.NameKey(def.Name()) {
		delete(l.defs, old)
	}
	l.put(def)
	return def, nil
}

