package scripting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/boraty14/Becs/internal/world"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine runs spawn/despawn decisions written in Lua. Scripts define a global
// tick() and optionally is_tickable(); both run on the frame loop goroutine.
//
// Lua API (indices are 1-based, as usual in Lua):
//
//	spawn(prefab) -> id
//	despawn(prefab, index)
//	despawn_many(prefab, {index, ...})
//	count(prefab) -> n
//	clear(prefab)
//	frame() -> n
//	log(msg)
type Engine struct {
	vm    *lua.LState
	world *world.World
	frame func() uint64
	log   *zap.Logger
}

// NewEngine creates a Lua VM bound to w and loads every .lua file in
// scriptsDir in name order. A missing directory loads nothing.
func NewEngine(scriptsDir string, w *world.World, frame func() uint64, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, world: w, frame: frame, log: log}
	e.registerAPI()

	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// LoadString runs a chunk of Lua source, e.g. to define tick() inline.
func (e *Engine) LoadString(src string) error {
	return e.vm.DoString(src)
}

func (e *Engine) registerAPI() {
	api := map[string]lua.LGFunction{
		"spawn":        e.luaSpawn,
		"despawn":      e.luaDespawn,
		"despawn_many": e.luaDespawnMany,
		"count":        e.luaCount,
		"clear":        e.luaClear,
		"frame":        e.luaFrame,
		"log":          e.luaLog,
	}
	for name, fn := range api {
		e.vm.SetGlobal(name, e.vm.NewFunction(fn))
	}
}

func (e *Engine) luaSpawn(L *lua.LState) int {
	obj, err := e.world.Spawn(L.CheckString(1))
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	L.Push(lua.LNumber(obj.ID))
	return 1
}

// toIndex converts a 1-based Lua index to a 0-based one. Only whole numbers
// are accepted.
func toIndex(v lua.LValue) (int, bool) {
	n, ok := v.(lua.LNumber)
	if !ok || math.Trunc(float64(n)) != float64(n) {
		return 0, false
	}
	return int(n) - 1, true
}

func (e *Engine) luaDespawn(L *lua.LState) int {
	name := L.CheckString(1)
	idx, ok := toIndex(L.Get(2))
	if !ok {
		L.ArgError(2, "integer index expected, got "+L.Get(2).String())
		return 0
	}
	if err := e.world.Despawn(name, idx); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

func (e *Engine) luaDespawnMany(L *lua.LState) int {
	name := L.CheckString(1)
	tbl := L.CheckTable(2)
	indices := make([]int, 0, tbl.Len())
	var bad lua.LValue
	tbl.ForEach(func(_, v lua.LValue) {
		idx, ok := toIndex(v)
		if !ok {
			if bad == nil {
				bad = v
			}
			return
		}
		indices = append(indices, idx)
	})
	if bad != nil {
		L.ArgError(2, "integer indices expected, got "+bad.String())
		return 0
	}
	if err := e.world.DespawnIndices(name, indices); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

func (e *Engine) luaCount(L *lua.LState) int {
	L.Push(lua.LNumber(e.world.Count(L.CheckString(1))))
	return 1
}

func (e *Engine) luaClear(L *lua.LState) int {
	if err := e.world.Clear(L.CheckString(1)); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

func (e *Engine) luaFrame(L *lua.LState) int {
	L.Push(lua.LNumber(e.frame()))
	return 1
}

func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info(L.CheckString(1), zap.String("source", "lua"))
	return 0
}

// IsTickable calls is_tickable(); a script without one is always tickable.
// Script errors close the gate for this frame.
func (e *Engine) IsTickable() bool {
	fn := e.vm.GetGlobal("is_tickable")
	if fn == lua.LNil {
		return true
	}
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}); err != nil {
		e.log.Error("lua is_tickable failed", zap.Error(err))
		return false
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	return lua.LVAsBool(ret)
}

// TickEngine calls tick().
func (e *Engine) TickEngine() {
	fn := e.vm.GetGlobal("tick")
	if fn == lua.LNil {
		return
	}
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}); err != nil {
		e.log.Error("lua tick failed", zap.Uint64("frame", e.frame()), zap.Error(err))
	}
}

// Dispose closes the Lua VM.
func (e *Engine) Dispose() {
	e.vm.Close()
}
