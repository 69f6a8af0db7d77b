package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
		t.Fatalf("write script: %v", err)
	}
}

func TestNewEngineMissingDirIsNotAnError(t *testing.T) {
	e, err := NewEngine(filepath.Join(t.TempDir(), "nonexistent"), zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer e.Close()
	if e.HasHook("anything") {
		t.Fatalf("expected no hooks loaded")
	}
}

func TestRunHookDecodesReturnTable(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "boss_worm.lua", `
function boss_worm(req)
  if req.hp_ratio < 300 then
    return { action = "move_to", x = req.home_x, y = req.home_y }
  end
  return { action = "" }
end
`)
	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer e.Close()

	if !e.HasHook("boss_worm") {
		t.Fatalf("expected boss_worm hook to be loaded")
	}

	resp := e.RunHook("boss_worm", HookRequest{NpcID: 1, HomeX: 10, HomeY: 20, HPRatio: 100})
	if resp.Action != ActionMoveTo || resp.X != 10 || resp.Y != 20 {
		t.Fatalf("unexpected response: %+v", resp)
	}

	resp2 := e.RunHook("boss_worm", HookRequest{NpcID: 1, HPRatio: 900})
	if resp2.Action != ActionNone {
		t.Fatalf("expected no action at high hp, got %+v", resp2)
	}
}

func TestRunHookOnScriptErrorReturnsActionNone(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "broken.lua", `
function broken(req)
  error("boom")
end
`)
	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer e.Close()

	resp := e.RunHook("broken", HookRequest{NpcID: 1})
	if resp.Action != ActionNone {
		t.Fatalf("expected ActionNone on script error, got %+v", resp)
	}
}
