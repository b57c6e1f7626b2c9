package safas

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/emirpasic/gods/sets/linkedhashset"
	"github.com/google/uuid"
)

// Runtime holds state shared by every Env in a single assembly run: the
// output cursor, the label resolver, the module loader cache, and the
// stack-depth bookkeeping used for error traces. Exactly one Runtime backs
// one call to Assemble.
type Runtime struct {
	Cursor   *Cursor
	Resolver *Resolver
	Loader   *Loader
	Stack    *CallStack
	// RunID uniquely identifies this assembly run. It is set once by
	// NewRootEnv; diagnostics and deferred holes do not carry it.
	RunID string
	// Labels records every name bound by `label` (or its `(. name)`
	// shorthand) in declaration order, independent of which lexical frame
	// it landed in, so a progress report or diagnostic can list labels
	// deterministically instead of in map-iteration order.
	Labels    *linkedhashmap.Map
	gensymNum int
}

// GenSym returns a fresh, run-unique symbol name of the form prefix-N.
func (rt *Runtime) GenSym(prefix string) string {
	rt.gensymNum++
	return prefixSeq(prefix, rt.gensymNum)
}

func prefixSeq(prefix string, n int) string {
	const digits = "0123456789"
	buf := []byte(prefix)
	buf = append(buf, '-')
	if n == 0 {
		return string(append(buf, '0'))
	}
	var rev []byte
	for n > 0 {
		rev = append(rev, digits[n%10])
		n /= 10
	}
	for i := len(rev) - 1; i >= 0; i-- {
		buf = append(buf, rev[i])
	}
	return string(buf)
}

// Env is a lexically scoped environment: a frame of name-to-Value bindings
// with a parent chain. Lookup walks the chain; `def` only ever installs a
// binding in the innermost frame.
type Env struct {
	Scope   map[string]*Value
	Parent  *Env
	Runtime *Runtime
	// Exports names bound in this frame that a module makes visible to
	// importers, in the order `export` was called.
	Exports *linkedhashset.Set
}

// NewRootEnv returns a fresh top-level environment backed by a new Runtime.
func NewRootEnv() *Env {
	rt := &Runtime{
		Cursor: NewCursor(),
		Stack:  &CallStack{},
		RunID:  uuid.NewString(),
		Labels: linkedhashmap.New(),
	}
	rt.Resolver = NewResolver()
	rt.Loader = NewLoader()
	env := &Env{
		Scope:   make(map[string]*Value),
		Runtime: rt,
		Exports: linkedhashset.New(),
	}
	InstallStandardLibrary(env)
	return env
}

// NewChildEnv returns a new frame whose parent is env, sharing env's
// Runtime. Used for `let` bodies, function calls, and the self-binding
// frame of a named `fun`.
func NewChildEnv(parent *Env) *Env {
	return &Env{
		Scope:   make(map[string]*Value),
		Parent:  parent,
		Runtime: parent.Runtime,
		Exports: linkedhashset.New(),
	}
}

// Get looks up name by walking the frame chain outward. It returns
// (value, true) on success or (nil, false) if unbound anywhere in the
// chain.
func (env *Env) Get(name string) (*Value, bool) {
	for e := env; e != nil; e = e.Parent {
		if v, ok := e.Scope[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Def installs name in the innermost frame. Redefining an existing name in
// the same frame is an error.
func (env *Env) Def(name string, v *Value) *Value {
	if _, exists := env.Scope[name]; exists {
		return Errorf(CondRedefinition, "name already defined in this scope: %s", name)
	}
	env.Scope[name] = v
	return v
}

// Update overwrites an existing binding for name in the innermost frame
// that defines it. It is not exposed as a language primitive, and the
// resolver does not call it: label bindings are made once, by `label`.
func (env *Env) Update(name string, v *Value) bool {
	for e := env; e != nil; e = e.Parent {
		if _, ok := e.Scope[name]; ok {
			e.Scope[name] = v
			return true
		}
	}
	return false
}

// Export marks name, which must already be bound somewhere in env's frame
// chain, as part of the current module's export set.
func (env *Env) Export(name string) *Value {
	if _, ok := env.Get(name); !ok {
		return Errorf(CondUnknownName, "cannot export undefined name: %s", name)
	}
	env.Exports.Add(name)
	return Nil()
}

// ExportedNames returns the exported names in the order they were
// exported.
func (env *Env) ExportedNames() []string {
	names := make([]string, 0, env.Exports.Size())
	for _, v := range env.Exports.Values() {
		names = append(names, v.(string))
	}
	return names
}

// Import copies the exported bindings of module into env's innermost
// frame, as done by `(import "path")`.
func (env *Env) Import(module *Env) {
	for _, name := range module.ExportedNames() {
		v, _ := module.Get(name)
		env.Scope[name] = v
	}
}
