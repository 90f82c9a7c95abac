package interpose

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Hook is one interceptor in a symbol's chain. It receives the call's
// arguments as native machine words together with a cursor into the rest of
// the chain. A hook may pass (possibly transformed) arguments to chain.Next,
// return its own result without continuing, or call the registry's CallOrig
// to skip the remaining hooks deliberately.
//
// A hook that re-invokes the symbol it intercepts must route around its own
// chain with CallOrig or Bypass; the engine does not guard against that
// recursion.
type Hook func(args []uintptr, chain *Chain) uintptr

// RawFunc invokes a resolved native function with word-sized arguments.
type RawFunc func(args ...uintptr) uintptr

// Resolver locates the original implementation of an intercepted symbol.
type Resolver func(symbol string) (RawFunc, error)

// Registry holds the ordered hook chain and the resolved original for one
// intercepted symbol. Registries live for the process lifetime; create them
// with Symbol before the matching entry point becomes reachable.
type Registry struct {
	symbol  string
	arity   int
	resolve Resolver

	mu    sync.Mutex
	hooks atomic.Pointer[[]Hook]

	resolveOnce sync.Once
	orig        RawFunc
}

// Option configures a Registry at creation time.
type Option func(*Registry)

// WithArity declares the number of word arguments the symbol takes. Dispatch
// and CallOrig reject calls with a different argument count.
func WithArity(n int) Option {
	return func(registry *Registry) {
		registry.arity = n
	}
}

// WithResolver replaces the default next-in-load-order resolver for this
// symbol. Used by tests and by environments with their own delivery scheme.
func WithResolver(resolver Resolver) Option {
	return func(registry *Registry) {
		registry.resolve = resolver
	}
}

func newRegistry(symbol string, opts ...Option) *Registry {
	registry := &Registry{
		symbol:  symbol,
		arity:   -1,
		resolve: nextResolver,
	}
	for _, opt := range opts {
		opt(registry)
	}
	return registry
}

// SymbolName returns the exported name this registry intercepts.
func (registry *Registry) SymbolName() string {
	return registry.symbol
}

// AddHook appends a hook to the chain. Hooks run in registration order, the
// first added being the outermost. Safe to call concurrently with other
// AddHook calls and with in-flight dispatches; the new hook is visible to
// every dispatch that starts after AddHook returns, and never to the
// snapshot of one already running.
func (registry *Registry) AddHook(hook Hook) {
	if hook == nil {
		panic(fmt.Sprintf("interpose: nil hook for symbol %q", registry.symbol))
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	var current []Hook
	if p := registry.hooks.Load(); p != nil {
		current = *p
	}
	next := make([]Hook, len(current), len(current)+1)
	copy(next, current)
	next = append(next, hook)
	registry.hooks.Store(&next)

	logger().Debug("hook registered",
		zap.String("symbol", registry.symbol),
		zap.Int("chain_len", len(next)))
}

// HookCount reports the number of registered hooks.
func (registry *Registry) HookCount() int {
	if p := registry.hooks.Load(); p != nil {
		return len(*p)
	}
	return 0
}

// CallOrig invokes the resolved original implementation directly, bypassing
// every registered hook.
func (registry *Registry) CallOrig(args ...uintptr) uintptr {
	registry.checkArity(len(args))
	return registry.original()(args...)
}

// Dispatch drives the hook chain for one interception. Entry-point glue
// forwards every call of the intercepted symbol here.
func (registry *Registry) Dispatch(args ...uintptr) uintptr {
	registry.checkArity(len(args))

	if !hooksEnabled.Load() || bypassed() {
		return registry.original()(args...)
	}

	chain := &Chain{registry: registry}
	if p := registry.hooks.Load(); p != nil {
		chain.hooks = *p
	}
	return chain.Next(args...)
}

// original resolves the true implementation on first use. Exactly one
// resolution runs; concurrent callers wait for it and observe the same
// function. An unresolvable symbol is fatal: calling through an invalid
// pointer is worse than dying loudly.
func (registry *Registry) original() RawFunc {
	registry.resolveOnce.Do(func() {
		fn, err := registry.resolve(registry.symbol)
		if err != nil {
			logger().Fatal("cannot resolve original symbol",
				zap.String("symbol", registry.symbol),
				zap.Error(err))
		}
		registry.orig = fn
		logger().Debug("original resolved", zap.String("symbol", registry.symbol))
	})
	return registry.orig
}

func (registry *Registry) checkArity(got int) {
	if registry.arity >= 0 && got != registry.arity {
		panic(fmt.Sprintf("interpose: symbol %q called with %d args, declared arity %d",
			registry.symbol, got, registry.arity))
	}
}

// Chain is the per-dispatch cursor over an immutable snapshot of the hook
// list. Hooks added while a dispatch is in flight join the next dispatch,
// never the current one.
type Chain struct {
	registry *Registry
	hooks    []Hook
	index    int
}

// Next advances to the next hook in the snapshot, or to the original once
// the snapshot is exhausted. Arguments pass through as given, so a hook may
// transform them before continuing.
func (chain *Chain) Next(args ...uintptr) uintptr {
	if chain.index < len(chain.hooks) {
		hook := chain.hooks[chain.index]
		chain.index++
		return hook(args, chain)
	}
	return chain.registry.CallOrig(args...)
}

// CallOrig jumps straight to the original, skipping whatever remains of the
// chain.
func (chain *Chain) CallOrig(args ...uintptr) uintptr {
	return chain.registry.CallOrig(args...)
}
