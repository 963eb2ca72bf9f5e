package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hzqd/m2p/internal/config"
	lua "github.com/yuin/gopher-lua"
)

const (
	sandboxTimeoutViolation     = "sandbox timeout"
	sandboxInstructionViolation = "sandbox instruction limit"
	sandboxMemoryViolation      = "sandbox memory limit"
)

// filter is a Lua predicate. Every element runs in a fresh sandboxed state.
type filter struct {
	code string
	cfg  config.Sandbox
}

func newFilter(code string, cfg config.Sandbox) (*filter, error) {
	if instructionLimitWouldTrip(code, cfg.InstructionLimit) {
		return nil, fmt.Errorf("filter: %s", sandboxInstructionViolation)
	}
	return &filter{code: code, cfg: cfg}, nil
}

func newSandboxLuaState(cfg config.Sandbox) *lua.LState {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:     true,
		RegistrySize:     256,
		RegistryMaxSize:  registryMaxFromMemory(cfg.MemoryLimitBytes),
		RegistryGrowStep: 0,
	})
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	// The base library can load chunks from files.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

func registryMaxFromMemory(memoryLimitBytes int) int {
	if memoryLimitBytes <= 0 {
		return 256
	}
	// Lower registry ceiling when the memory limit is low.
	n := memoryLimitBytes / 64
	if n < 128 {
		n = 128
	}
	if n > 4096 {
		n = 4096
	}
	return n
}

// instructionLimitWouldTrip estimates the cost of code statically; gopher-lua
// has no instruction hook. Unbounded loop constructs are charged heavily.
func instructionLimitWouldTrip(code string, instructionLimit int) bool {
	if instructionLimit <= 0 {
		return false
	}
	cost := len(code) * 10
	lower := strings.ToLower(code)
	if strings.Contains(lower, "while ") || strings.Contains(lower, "repeat") {
		cost += 1000000
	}
	return cost > instructionLimit
}

func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "deadline") || strings.Contains(lower, "context canceled")
}

// keep runs the chunk with globals item and index (1-based) and reports
// whether its result is truthy.
func (f *filter) keep(item any, index int) (bool, error) {
	L := newSandboxLuaState(f.cfg)
	defer L.Close()

	if f.cfg.TimeoutMs > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(f.cfg.TimeoutMs)*time.Millisecond)
		defer cancel()
		L.SetContext(ctx)
	}
	L.SetGlobal("item", toLValue(L, item))
	L.SetGlobal("index", lua.LNumber(index))

	fn, err := L.LoadString(f.code)
	if err != nil {
		return false, fmt.Errorf("filter: %v", err)
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		if isTimeoutError(err) {
			return false, fmt.Errorf("filter: %s", sandboxTimeoutViolation)
		}
		if strings.Contains(strings.ToLower(err.Error()), "registry overflow") {
			return false, fmt.Errorf("filter: %s", sandboxMemoryViolation)
		}
		return false, fmt.Errorf("filter: element %d: %v", index, err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	return lua.LVAsBool(ret), nil
}

func toLValue(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case string:
		return lua.LString(x)
	case bool:
		return lua.LBool(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return lua.LString(x.String())
		}
		return lua.LNumber(f)
	case float64:
		return lua.LNumber(x)
	case int:
		return lua.LNumber(float64(x))
	case map[string]any:
		tbl := L.NewTable()
		for k, v2 := range x {
			tbl.RawSetString(k, toLValue(L, v2))
		}
		return tbl
	case []any:
		tbl := L.NewTable()
		for i, v2 := range x {
			tbl.RawSetInt(i+1, toLValue(L, v2))
		}
		return tbl
	default:
		return lua.LNil
	}
}
