package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 8787 || cfg.DBPath != "inkwell.db" || cfg.SnapshotDir != "snapshots" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "json" {
		t.Errorf("log defaults = %s/%s", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("INKWELL_PORT", "9900")
	t.Setenv("INKWELL_DB", "/tmp/other.db")
	t.Setenv("INKWELL_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 9900 || cfg.DBPath != "/tmp/other.db" || cfg.LogLevel != "debug" {
		t.Errorf("env not applied: %+v", cfg)
	}
}

func TestStyleConfigDefaults(t *testing.T) {
	cfg := &Config{}
	style, err := cfg.StyleConfig()
	if err != nil {
		t.Fatalf("StyleConfig failed: %v", err)
	}
	if len(style.WeakAdverbs) == 0 || style.MaxParagraphLen == 0 {
		t.Errorf("defaults missing: %+v", style)
	}
}

func TestStyleConfigOverlay(t *testing.T) {
	rules := filepath.Join(t.TempDir(), "style.yaml")
	content := "banned_words:\n  - utilize\n  - leverage\nmax_paragraph_len: 400\n"
	if err := os.WriteFile(rules, []byte(content), 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	cfg := &Config{StyleRules: rules}
	style, err := cfg.StyleConfig()
	if err != nil {
		t.Fatalf("StyleConfig failed: %v", err)
	}
	if len(style.BannedWords) != 2 || style.BannedWords[0] != "utilize" {
		t.Errorf("banned words = %v", style.BannedWords)
	}
	if style.MaxParagraphLen != 400 {
		t.Errorf("max paragraph len = %d, want 400", style.MaxParagraphLen)
	}
	// Fields absent from the file keep their defaults.
	if len(style.WeakAdverbs) == 0 || len(style.Cliches) == 0 {
		t.Errorf("overlay clobbered unset defaults: %+v", style)
	}
}

func TestStyleConfigMissingFile(t *testing.T) {
	cfg := &Config{StyleRules: filepath.Join(t.TempDir(), "absent.yaml")}
	if _, err := cfg.StyleConfig(); err == nil {
		t.Error("missing rule file should surface an error")
	}
}
