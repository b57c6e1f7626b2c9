package safas

import (
	"os"
	"path/filepath"

	"github.com/emirpasic/gods/sets/linkedhashset"
)

// SourceProvider resolves an import path named in `(import "path")` to a
// canonical id (used for caching and cycle detection) and its source text.
// The default is FileSourceProvider; hosts embedding SAFAS may substitute
// one that reads from a virtual filesystem or network source.
type SourceProvider interface {
	Resolve(path string) (id string, src []byte, err error)
}

// FileSourceProvider resolves import paths against the local filesystem,
// searching Roots in order and canonicalizing on the absolute path.
type FileSourceProvider struct {
	Roots []string
}

// Resolve implements SourceProvider.
func (p *FileSourceProvider) Resolve(path string) (string, []byte, error) {
	roots := p.Roots
	if len(roots) == 0 {
		roots = []string{"."}
	}
	var lastErr error
	for _, root := range roots {
		full := filepath.Join(root, path)
		src, err := os.ReadFile(full)
		if err != nil {
			lastErr = err
			continue
		}
		abs, err := filepath.Abs(full)
		if err != nil {
			abs = full
		}
		return abs, src, nil
	}
	return "", nil, lastErr
}

// ParseFunc turns SAFAS source text into a sequence of top-level forms.
// Loader depends on this as an injected function, rather than importing
// parser/reader directly, since reader.ParseAll constructs *Value trees and so
// must import package safas: assigning Parse after construction (done by
// cmd/safas at startup) avoids an import cycle between the two packages.
type ParseFunc func(file string, src []byte) ([]*Value, *Value)

// Loader implements the module system's same-run caching of
// already-loaded modules by canonical path, and cycle detection for imports
// that (directly or transitively) import themselves.
type Loader struct {
	Provider SourceProvider
	Parse    ParseFunc

	cache   map[string]*Env
	loading map[string]bool
	stack   []string
}

// NewLoader returns a Loader backed by the local filesystem. Parse must be
// assigned before the first `(import ...)` is evaluated.
func NewLoader() *Loader {
	return &Loader{
		Provider: &FileSourceProvider{},
		cache:    make(map[string]*Env),
		loading:  make(map[string]bool),
	}
}

// Load resolves, parses, and evaluates the module at path, returning its
// environment (from which the importer's `import` special form copies
// exported bindings). A module already loaded in this run is returned from
// cache without being re-evaluated; a module currently being loaded higher
// up the call stack is a CondCycleInImport error.
func (l *Loader) Load(rt *Runtime, path string) (*Env, *Value) {
	id, src, err := l.Provider.Resolve(path)
	if err != nil {
		return nil, Errorf(CondIOError, "cannot resolve import %q: %v", path, err)
	}
	if env, ok := l.cache[id]; ok {
		return env, nil
	}
	if l.loading[id] {
		return nil, Errorf(CondCycleInImport, "import cycle detected loading %q", path)
	}
	if l.Parse == nil {
		return nil, Errorf(CondIOError, "no source parser configured for import %q", path)
	}

	l.loading[id] = true
	l.stack = append(l.stack, id)
	defer func() {
		l.stack = l.stack[:len(l.stack)-1]
		delete(l.loading, id)
	}()

	forms, perr := l.Parse(id, src)
	if perr != nil {
		return nil, perr
	}

	modEnv := newModuleEnv(rt)
	for _, form := range forms {
		if _, evalErr := Eval(modEnv, form); evalErr != nil {
			return nil, evalErr
		}
	}
	l.cache[id] = modEnv
	return modEnv, nil
}

// newModuleEnv returns a fresh top-level frame for a loaded module: it
// shares the run's Runtime (cursor, resolver, loader) but starts with its
// own lexical scope seeded with the standard library, isolated from
// whatever local bindings the importer happens to have in scope.
func newModuleEnv(rt *Runtime) *Env {
	env := &Env{
		Scope:   make(map[string]*Value),
		Runtime: rt,
		Exports: linkedhashset.New(),
	}
	InstallStandardLibrary(env)
	return env
}
