// Package script builds interpose hooks from Lua chunks, so interception
// logic can be written and swapped without recompiling the preload library.
//
// A chunk runs once per dispatch with two globals:
//
//	args        array of the call's argument words
//	chain       chain.next(...) continues the chain with the given words;
//	            chain.orig(...) jumps straight to the original
//
// The chunk's return value (an integer, nil counts as 0) becomes the hook's
// result. Argument words travel through Lua numbers, which carry 53 bits of
// integer precision; plenty for user-space pointers and counts on current
// platforms.
package script

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/sliverarmory/interpose"
)

// Hook compiles source into an interpose.Hook. The chunk is compiled once;
// each dispatch runs it in a fresh Lua state, so hooks share no Lua state
// across calls or goroutines. A Lua runtime error propagates to the
// intercepted caller as a panic, matching the engine's failure contract.
func Hook(source string) (interpose.Hook, error) {
	chunk, err := parse.Parse(strings.NewReader(source), "hook")
	if err != nil {
		return nil, fmt.Errorf("parse hook script: %w", err)
	}
	proto, err := lua.Compile(chunk, "hook")
	if err != nil {
		return nil, fmt.Errorf("compile hook script: %w", err)
	}

	return func(args []uintptr, chain *interpose.Chain) uintptr {
		state := lua.NewState()
		defer state.Close()

		argsTable := state.NewTable()
		for _, arg := range args {
			argsTable.Append(lua.LNumber(arg))
		}
		state.SetGlobal("args", argsTable)

		chainTable := state.NewTable()
		state.SetField(chainTable, "next", state.NewFunction(func(L *lua.LState) int {
			return pushResult(L, chain.Next(popWords(L)...))
		}))
		state.SetField(chainTable, "orig", state.NewFunction(func(L *lua.LState) int {
			return pushResult(L, chain.CallOrig(popWords(L)...))
		}))
		state.SetGlobal("chain", chainTable)

		state.Push(state.NewFunctionFromProto(proto))
		if err := state.PCall(0, 1, nil); err != nil {
			panic(fmt.Errorf("script hook failed: %w", err))
		}

		result := state.Get(-1)
		if result == lua.LNil {
			return 0
		}
		number, ok := result.(lua.LNumber)
		if !ok {
			panic(fmt.Errorf("script hook returned %s, want integer", result.Type()))
		}
		return uintptr(number)
	}, nil
}

func popWords(L *lua.LState) []uintptr {
	top := L.GetTop()
	words := make([]uintptr, top)
	for i := 1; i <= top; i++ {
		words[i-1] = uintptr(L.CheckNumber(i))
	}
	return words
}

func pushResult(L *lua.LState, word uintptr) int {
	L.Push(lua.LNumber(word))
	return 1
}
