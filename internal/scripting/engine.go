// Package scripting bridges NPC AI decisions to Lua. Go detects targets
// and executes intents; the scripts decide what an idle or aggroed NPC
// wants to do next.
package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM. Single-goroutine access only (the
// AI ticker task).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log.Named("scripting")}

	for _, sub := range []string{"core", "ai"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
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

// AIContext holds pre-packed data for an NPC AI decision.
type AIContext struct {
	NpcID      int
	TemplateID int
	X, Y       int
	HP, MaxHP  int
	Level      int
	Aggro      bool
	Script     string // template ai_script name, "" = default

	// Nearest visible player (0 = none)
	TargetID   int
	TargetX    int
	TargetY    int
	TargetDist int

	SpawnX, SpawnY int
	SpawnDist      int
}

// Intent is the single action the script wants the NPC to take.
type Intent struct {
	Kind     string // "wait", "say", "move", "attack"
	Text     string // say
	X, Y     int    // move destination
	TargetID int    // attack
}

// NpcIntent calls Lua npc_intent(ctx) and returns what the NPC wants to
// do, or nil when the script yields nothing.
func (e *Engine) NpcIntent(ctx AIContext) *Intent {
	fn := e.vm.GetGlobal("npc_intent")
	if fn == lua.LNil {
		return nil
	}

	t := e.vm.NewTable()
	t.RawSetString("npc_id", lua.LNumber(ctx.NpcID))
	t.RawSetString("template_id", lua.LNumber(ctx.TemplateID))
	t.RawSetString("x", lua.LNumber(ctx.X))
	t.RawSetString("y", lua.LNumber(ctx.Y))
	t.RawSetString("hp", lua.LNumber(ctx.HP))
	t.RawSetString("max_hp", lua.LNumber(ctx.MaxHP))
	t.RawSetString("level", lua.LNumber(ctx.Level))
	if ctx.Aggro {
		t.RawSetString("aggro", lua.LTrue)
	} else {
		t.RawSetString("aggro", lua.LFalse)
	}
	t.RawSetString("script", lua.LString(ctx.Script))

	t.RawSetString("target_id", lua.LNumber(ctx.TargetID))
	t.RawSetString("target_x", lua.LNumber(ctx.TargetX))
	t.RawSetString("target_y", lua.LNumber(ctx.TargetY))
	t.RawSetString("target_dist", lua.LNumber(ctx.TargetDist))

	t.RawSetString("spawn_x", lua.LNumber(ctx.SpawnX))
	t.RawSetString("spawn_y", lua.LNumber(ctx.SpawnY))
	t.RawSetString("spawn_dist", lua.LNumber(ctx.SpawnDist))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua npc_intent error", zap.Error(err), zap.Int("npc_id", ctx.NpcID))
		return nil
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	if result == lua.LNil {
		return nil
	}
	rt, ok := result.(*lua.LTable)
	if !ok {
		e.log.Error("lua npc_intent returned non-table", zap.Int("npc_id", ctx.NpcID))
		return nil
	}

	return &Intent{
		Kind:     lStr(rt, "kind"),
		Text:     lStr(rt, "text"),
		X:        lInt(rt, "x"),
		Y:        lInt(rt, "y"),
		TargetID: lInt(rt, "target_id"),
	}
}

// lInt reads an integer field from a Lua table.
func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
