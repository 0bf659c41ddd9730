package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Screen.Width != 1280 || cfg.Screen.Height != 720 {
		t.Errorf("画面サイズ = %dx%d", cfg.Screen.Width, cfg.Screen.Height)
	}
	if cfg.Battle.ATBMax != 100 {
		t.Errorf("ATBMax = %v, want 100", cfg.Battle.ATBMax)
	}
	if cfg.Game.VillageScript != "village_elder" {
		t.Errorf("VillageScript = %s", cfg.Game.VillageScript)
	}
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	src := `
screen:
  width: 640
battle:
  fleeChance: 0.25
game:
  starterGold: 500
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	// 指定した値は上書きされる。
	if cfg.Screen.Width != 640 {
		t.Errorf("Width = %d, want 640", cfg.Screen.Width)
	}
	if cfg.Battle.FleeChance != 0.25 {
		t.Errorf("FleeChance = %v, want 0.25", cfg.Battle.FleeChance)
	}
	if cfg.Game.StarterGold != 500 {
		t.Errorf("StarterGold = %d, want 500", cfg.Game.StarterGold)
	}
	// 触れていない値はデフォルトのまま。
	if cfg.Screen.Height != 720 {
		t.Errorf("Height = %d, want 720", cfg.Screen.Height)
	}
	if cfg.Battle.ATBMax != 100 {
		t.Errorf("ATBMax = %v, want 100", cfg.Battle.ATBMax)
	}
}

func TestLoadConfigInvalidYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("screen: [broken"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("不正なYAMLでエラーになりません")
	}
}
