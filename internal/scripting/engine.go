// Package scripting wraps a single gopher-lua VM exposing the one
// scripted extension point spec.md §4.7 calls out: a per-template Lua
// chunk invoked at the patrol/idle tail of the NPC driver cascade, for
// one-off boss scripts that don't fit the built-in priority cascade.
// Grounded on internal/scripting/engine.go in the teacher (same
// single-VM, load-scripts-from-directory-at-startup shape), trimmed from
// its ~30 general-purpose combat/leveling/enchant calculators — none of
// which spec.md calls a scripted extension point — down to the one hook
// the driver cascade actually calls.
package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM. Single-goroutine access only: it
// is called from the tick loop's driver phase, never concurrently.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads every .lua file directly
// under scriptsDir. Each script is expected to define one global
// function named after its file (minus extension) taking the hook
// table described by HookRequest and returning the hook table described
// by HookResponse.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	e := &Engine{vm: vm, log: log}

	entries, err := os.ReadDir(scriptsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return e, nil
		}
		vm.Close()
		return nil, fmt.Errorf("read scripts dir %s: %w", scriptsDir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(scriptsDir, entry.Name())
		if err := vm.DoFile(path); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		log.Debug("loaded lua script", zap.String("file", path))
	}
	return e, nil
}

// HookRequest is the read-only view of an NPC passed into a boss script
// at the cascade's patrol/idle tail (spec.md §4.7).
type HookRequest struct {
	NpcID    int32
	SelfX    int32
	SelfY    int32
	HomeX    int32
	HomeY    int32
	HPRatio  int32 // 0..1000
	ManaRatio int32 // 0..1000
}

// HookAction names what the boss script asked the cascade to do next.
// Anything the script doesn't recognize (or a script that errors) falls
// through to the cascade's built-in patrol behavior.
type HookAction string

const (
	ActionNone      HookAction = ""
	ActionMoveTo    HookAction = "move_to"
	ActionCastSkill HookAction = "cast_skill"
)

// HookResponse is what a boss script returns.
type HookResponse struct {
	Action  HookAction
	X, Y    int32
	SkillNr int32
}

// HasHook reports whether a global function named fn is defined,
// letting the driver cascade skip invoking templates with no script.
func (e *Engine) HasHook(fn string) bool {
	return e.vm.GetGlobal(fn) != lua.LNil
}

// RunHook calls the named global function with req's fields as a Lua
// table and decodes its return table into a HookResponse. Any Lua error
// is logged and treated as ActionNone (spec.md §7: a scripting failure
// must never stall the tick loop).
func (e *Engine) RunHook(fn string, req HookRequest) HookResponse {
	arg := e.vm.NewTable()
	arg.RawSetString("npc_id", lua.LNumber(req.NpcID))
	arg.RawSetString("self_x", lua.LNumber(req.SelfX))
	arg.RawSetString("self_y", lua.LNumber(req.SelfY))
	arg.RawSetString("home_x", lua.LNumber(req.HomeX))
	arg.RawSetString("home_y", lua.LNumber(req.HomeY))
	arg.RawSetString("hp_ratio", lua.LNumber(req.HPRatio))
	arg.RawSetString("mana_ratio", lua.LNumber(req.ManaRatio))

	if err := e.vm.CallByParam(lua.P{
		Fn:      e.vm.GetGlobal(fn),
		NRet:    1,
		Protect: true,
	}, arg); err != nil {
		e.log.Warn("boss script hook failed", zap.String("fn", fn), zap.Error(err))
		return HookResponse{Action: ActionNone}
	}
	defer e.vm.Pop(1)

	ret, ok := e.vm.Get(-1).(*lua.LTable)
	if !ok {
		return HookResponse{Action: ActionNone}
	}
	return HookResponse{
		Action:  HookAction(lStr(ret, "action")),
		X:       int32(lInt(ret, "x")),
		Y:       int32(lInt(ret, "y")),
		SkillNr: int32(lInt(ret, "skill_nr")),
	}
}

func lInt(t *lua.LTable, key string) int {
	v := t.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return int(n)
	}
	return 0
}

func lStr(t *lua.LTable, key string) string {
	v := t.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

func (e *Engine) Close() {
	e.vm.Close()
}
