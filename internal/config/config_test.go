package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := defaults()
	if cfg.Theme != ThemeSystem {
		t.Errorf("Theme = %q, want %q", cfg.Theme, ThemeSystem)
	}
	if cfg.AutoRefreshIntervalMs != DefaultAutoRefreshIntervalMs {
		t.Errorf("AutoRefreshIntervalMs = %d, want %d", cfg.AutoRefreshIntervalMs, DefaultAutoRefreshIntervalMs)
	}
	if cfg.DiffView != DiffViewFit {
		t.Errorf("DiffView = %q, want %q", cfg.DiffView, DiffViewFit)
	}
}

func TestApplyDefaultsFillsZeroValues(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	if cfg.Theme != ThemeSystem || cfg.AutoRefreshIntervalMs != DefaultAutoRefreshIntervalMs || cfg.DiffView != DiffViewFit {
		t.Errorf("applyDefaults left zero values: %+v", cfg)
	}
}

func TestApplyDefaultsPreservesNonZeroValues(t *testing.T) {
	cfg := &Config{Theme: ThemeDark, AutoRefreshIntervalMs: 2000, DiffView: DiffViewPan}
	applyDefaults(cfg)
	if cfg.Theme != ThemeDark || cfg.AutoRefreshIntervalMs != 2000 || cfg.DiffView != DiffViewPan {
		t.Errorf("applyDefaults overwrote explicit values: %+v", cfg)
	}
}

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Theme != ThemeSystem {
		t.Errorf("want defaults for a missing config file, got %+v", cfg)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{
		Theme: ThemeDark, ShowWhitespace: true, ShowEOLMarkers: true,
		AutoRefreshIntervalMs: 1500, ReduceMotion: true, DiffView: DiffViewPan,
		ReviewProviderMapping: []ProviderMapping{{Host: "github.com", Provider: ProviderGitHub}},
	}

	if err := SaveTo(dir, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	loaded, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.Theme != cfg.Theme || loaded.ShowWhitespace != cfg.ShowWhitespace ||
		loaded.ShowEOLMarkers != cfg.ShowEOLMarkers || loaded.AutoRefreshIntervalMs != cfg.AutoRefreshIntervalMs ||
		loaded.ReduceMotion != cfg.ReduceMotion || loaded.DiffView != cfg.DiffView {
		t.Errorf("round-tripped scalar fields = %+v, want %+v", loaded, cfg)
	}
	if len(loaded.ReviewProviderMapping) != 1 || loaded.ReviewProviderMapping[0] != cfg.ReviewProviderMapping[0] {
		t.Errorf("ReviewProviderMapping = %+v, want %+v", loaded.ReviewProviderMapping, cfg.ReviewProviderMapping)
	}
}

func TestLoadMigratesLegacyLastProjectPath(t *testing.T) {
	dir := t.TempDir()
	legacyConfig := "theme = \"dark\"\nlast_project_path = \"/home/alice/project\"\n"
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(legacyConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Theme != ThemeDark {
		t.Errorf("Theme = %q, want dark", cfg.Theme)
	}

	state, err := LoadStateFrom(dir)
	if err != nil {
		t.Fatalf("LoadStateFrom: %v", err)
	}
	if state.LastProjectPath != "/home/alice/project" {
		t.Errorf("migrated LastProjectPath = %q, want /home/alice/project", state.LastProjectPath)
	}

	rewritten, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(rewritten), "last_project_path") {
		t.Error("rewritten config.toml should no longer contain the legacy last_project_path key")
	}
}

func TestActiveBookmarkHintReadWriteRoundTrip(t *testing.T) {
	repoRoot := t.TempDir()
	if err := os.MkdirAll(filepath.Join(repoRoot, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}

	hint, err := ReadActiveBookmarkHint(repoRoot)
	if err != nil {
		t.Fatalf("ReadActiveBookmarkHint on missing file: %v", err)
	}
	if hint != "" {
		t.Errorf("want empty hint before any write, got %q", hint)
	}

	if err := WriteActiveBookmarkHint(repoRoot, "feature/foo"); err != nil {
		t.Fatalf("WriteActiveBookmarkHint: %v", err)
	}
	hint, err = ReadActiveBookmarkHint(repoRoot)
	if err != nil {
		t.Fatalf("ReadActiveBookmarkHint: %v", err)
	}
	if hint != "feature/foo" {
		t.Errorf("hint = %q, want %q", hint, "feature/foo")
	}
}

func TestCommentsDBPathLivesUnderConfigDir(t *testing.T) {
	got := CommentsDBPath()
	want := filepath.Join(DefaultConfigDir(), "comments.db")
	if got != want {
		t.Errorf("CommentsDBPath() = %q, want %q", got, want)
	}
}
