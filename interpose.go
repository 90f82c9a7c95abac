// Package interpose is the runtime engine for shared-library call
// interposition. For each intercepted symbol it keeps an ordered chain of
// hooks and a lazily resolved pointer to the true implementation, the next
// definition of the symbol in the process's load order. Entry-point glue
// with the original's exact ABI (see the hookgen package) forwards calls
// into Dispatch; hooks then observe, transform, or short-circuit the call
// before the terminal link reaches the original.
//
// The engine is deliberately unguarded against a hook re-invoking its own
// symbol: use CallOrig or Bypass inside hook code that needs the real
// behavior.
package interpose

import (
	"sync"

	"github.com/sliverarmory/interpose/dlnext"
)

var (
	tableMu sync.Mutex
	table   = map[string]*Registry{}
)

// Symbol returns the registry for an intercepted symbol, creating it on
// first use. Options apply only at creation; later calls with options for
// the same name return the existing registry unchanged. Entry-point glue
// calls Symbol from package-level var initializers so the registry exists
// before the replacement symbol is ever reachable.
func Symbol(name string, opts ...Option) *Registry {
	tableMu.Lock()
	defer tableMu.Unlock()

	if registry, ok := table[name]; ok {
		return registry
	}
	registry := newRegistry(name, opts...)
	table[name] = registry
	return registry
}

// AddHook appends a hook to the chain for symbol, creating the registry if
// registration runs before the entry-point glue's own initializer.
func AddHook(symbol string, hook Hook) {
	Symbol(symbol).AddHook(hook)
}

// CallOrig invokes the resolved original for symbol directly, skipping every
// registered hook.
func CallOrig(symbol string, args ...uintptr) uintptr {
	return Symbol(symbol).CallOrig(args...)
}

// nextResolver is the default Resolver: the next definition of the symbol in
// load order, invoked through a raw word-argument trampoline.
func nextResolver(symbol string) (RawFunc, error) {
	addr, err := dlnext.Lookup(symbol)
	if err != nil {
		return nil, err
	}
	return func(args ...uintptr) uintptr {
		return dlnext.Call(addr, args...)
	}, nil
}
