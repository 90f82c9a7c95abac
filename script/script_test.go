package script_test

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sliverarmory/interpose"
	"github.com/sliverarmory/interpose/script"
)

func newScriptRegistry(name string, origArg *atomic.Uintptr) *interpose.Registry {
	return interpose.Symbol(name,
		interpose.WithArity(1),
		interpose.WithResolver(func(string) (interpose.RawFunc, error) {
			return func(args ...uintptr) uintptr {
				if origArg != nil {
					origArg.Store(args[0])
				}
				return args[0] * 2
			}, nil
		}))
}

func TestScriptHookTransformsArguments(t *testing.T) {
	hook, err := script.Hook(`return chain.next(args[1] + 1)`)
	require.NoError(t, err)

	var origArg atomic.Uintptr
	registry := newScriptRegistry("script.transform", &origArg)
	registry.AddHook(hook)

	assert.Equal(t, uintptr(22), registry.Dispatch(10))
	assert.Equal(t, uintptr(11), origArg.Load())
}

func TestScriptHookShortCircuits(t *testing.T) {
	hook, err := script.Hook(`return 42`)
	require.NoError(t, err)

	var origArg atomic.Uintptr
	registry := newScriptRegistry("script.short", &origArg)
	registry.AddHook(hook)

	assert.Equal(t, uintptr(42), registry.Dispatch(10))
	assert.Zero(t, origArg.Load(), "original must not run")
}

func TestScriptHookCallsOrigDirectly(t *testing.T) {
	hook, err := script.Hook(`return chain.orig(args[1])`)
	require.NoError(t, err)

	var laterCalls atomic.Int64
	registry := newScriptRegistry("script.orig", nil)
	registry.AddHook(hook)
	registry.AddHook(func(args []uintptr, chain *interpose.Chain) uintptr {
		laterCalls.Add(1)
		return chain.Next(args...)
	})

	assert.Equal(t, uintptr(20), registry.Dispatch(10))
	assert.Zero(t, laterCalls.Load(), "chain.orig skips the rest of the chain")
}

func TestScriptHookNilResultIsZero(t *testing.T) {
	hook, err := script.Hook(`local _ = args[1]`)
	require.NoError(t, err)

	registry := newScriptRegistry("script.nilresult", nil)
	registry.AddHook(hook)

	assert.Zero(t, registry.Dispatch(10))
}

func TestScriptHookErrorPropagatesAsPanic(t *testing.T) {
	hook, err := script.Hook(`error("scripted failure")`)
	require.NoError(t, err)

	registry := newScriptRegistry("script.failure", nil)
	registry.AddHook(hook)

	assert.Panics(t, func() { registry.Dispatch(10) })
}

func TestScriptHookRejectsInvalidSource(t *testing.T) {
	_, err := script.Hook(`return return`)
	require.Error(t, err)
}

func TestScriptHookRejectsNonNumericResult(t *testing.T) {
	hook, err := script.Hook(`return "not a number"`)
	require.NoError(t, err)

	registry := newScriptRegistry("script.badresult", nil)
	registry.AddHook(hook)

	assert.Panics(t, func() { registry.Dispatch(10) })
}
