// Package config resolves and persists sidediff's on-disk state: a
// TOML config file, a TOML app-state file, and a repository-scoped
// active-bookmark hint file. Both TOML files live in a GOOS-switched,
// XDG-aware config directory; both are written via an atomic
// temp-file-then-rename so a crash mid-write never corrupts them.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
)

// Theme is the closed set of color themes.
type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

// DiffViewMode is the closed set of diff-panel layout modes.
type DiffViewMode string

const (
	DiffViewFit DiffViewMode = "Fit"
	DiffViewPan DiffViewMode = "Pan"
)

// ReviewProvider is the closed set of hosted-review backends a host
// name can be mapped to (used only to format external review-provider
// links; this module performs no network calls itself).
type ReviewProvider string

const (
	ProviderGitHub ReviewProvider = "GitHub"
	ProviderGitLab ReviewProvider = "GitLab"
)

// ProviderMapping associates a Git remote host with the review
// provider it speaks.
type ProviderMapping struct {
	Host     string         `toml:"host"`
	Provider ReviewProvider `toml:"provider"`
}

// Config is the persisted, user-editable configuration.
type Config struct {
	Theme                 Theme             `toml:"theme"`
	ShowWhitespace        bool              `toml:"show_whitespace"`
	ShowEOLMarkers        bool              `toml:"show_eol_markers"`
	AutoRefreshIntervalMs int               `toml:"auto_refresh_interval_ms"`
	ReduceMotion          bool              `toml:"reduce_motion"`
	ReviewProviderMapping []ProviderMapping `toml:"review_provider_mappings"`
	DiffView              DiffViewMode      `toml:"diff_view"`
}

// rawConfig additionally captures the legacy last_project_path key so
// Load can detect and migrate it without the field ever appearing on
// the public Config type.
type rawConfig struct {
	Config
	LegacyLastProjectPath string `toml:"last_project_path"`
}

// AppState is the persisted, non-user-facing application state.
type AppState struct {
	LastProjectPath string `toml:"last_project_path,omitempty"`
}

const (
	DefaultAutoRefreshIntervalMs = 900
	appDirName                   = "sidediff"
	configFileName               = "config.toml"
	stateFileName                = "state.toml"
	activeBookmarkHintFileName   = "hunk-active-bookmark"
)

// DefaultConfigDir returns the platform-appropriate config directory:
// darwin and the XDG-less default both resolve to ~/.config/sidediff;
// windows prefers %APPDATA%/sidediff; any platform falls back to
// ~/.config/sidediff if its preferred source is unset.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", appDirName)
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, ".config", appDirName)
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appDirName)
		}
		return filepath.Join(home, ".config", appDirName)
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appDirName)
		}
		return filepath.Join(home, ".config", appDirName)
	}
}

func defaults() *Config {
	return &Config{
		Theme:                 ThemeSystem,
		AutoRefreshIntervalMs: DefaultAutoRefreshIntervalMs,
		DiffView:              DiffViewFit,
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Theme == "" {
		cfg.Theme = ThemeSystem
	}
	if cfg.AutoRefreshIntervalMs == 0 {
		cfg.AutoRefreshIntervalMs = DefaultAutoRefreshIntervalMs
	}
	if cfg.DiffView == "" {
		cfg.DiffView = DiffViewFit
	}
}

// Load reads config.toml from DefaultConfigDir, migrating out the
// legacy last_project_path key into the app-state file if present.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigDir())
}

// LoadFrom is Load against an explicit directory, for tests.
func LoadFrom(dir string) (*Config, error) {
	path := filepath.Join(dir, configFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg := raw.Config
	applyDefaults(&cfg)

	if raw.LegacyLastProjectPath != "" {
		if err := migrateLegacyLastProjectPath(dir, raw.LegacyLastProjectPath); err != nil {
			return nil, err
		}
		if err := SaveTo(dir, &cfg); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func migrateLegacyLastProjectPath(dir, legacyPath string) error {
	state, err := LoadStateFrom(dir)
	if err != nil {
		return err
	}
	if state.LastProjectPath == "" {
		state.LastProjectPath = legacyPath
	}
	return SaveStateTo(dir, state)
}

// Save writes cfg to config.toml in DefaultConfigDir.
func Save(cfg *Config) error { return SaveTo(DefaultConfigDir(), cfg) }

// SaveTo is Save against an explicit directory, for tests.
func SaveTo(dir string, cfg *Config) error {
	return atomicWriteTOML(dir, configFileName, cfg)
}

// LoadState reads state.toml from DefaultConfigDir.
func LoadState() (*AppState, error) { return LoadStateFrom(DefaultConfigDir()) }

// LoadStateFrom is LoadState against an explicit directory, for tests.
func LoadStateFrom(dir string) (*AppState, error) {
	path := filepath.Join(dir, stateFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &AppState{}, nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}
	var state AppState
	if _, err := toml.Decode(string(data), &state); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	return &state, nil
}

// SaveState writes state to state.toml in DefaultConfigDir.
func SaveState(state *AppState) error { return SaveStateTo(DefaultConfigDir(), state) }

// SaveStateTo is SaveState against an explicit directory, for tests.
func SaveStateTo(dir string, state *AppState) error {
	return atomicWriteTOML(dir, stateFileName, state)
}

func atomicWriteTOML(dir, name string, v any) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	path := filepath.Join(dir, name)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// ReadActiveBookmarkHint reads the one-line, trimmed active-bookmark
// hint at <repoRoot>/.git/hunk-active-bookmark. A missing file is not
// an error: it returns "" (the hint is a convenience, not required
// state).
func ReadActiveBookmarkHint(repoRoot string) (string, error) {
	data, err := os.ReadFile(activeBookmarkHintPath(repoRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read active-bookmark hint: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// WriteActiveBookmarkHint overwrites the hint file with name,
// last-writer-wins, with no cross-process locking: concurrent writers
// may race, and the last write to land is the one later reads observe.
func WriteActiveBookmarkHint(repoRoot, name string) error {
	path := activeBookmarkHintPath(repoRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create .git directory: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(name+"\n"), 0o644); err != nil {
		return fmt.Errorf("write active-bookmark hint: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename active-bookmark hint: %w", err)
	}
	return nil
}

func activeBookmarkHintPath(repoRoot string) string {
	return filepath.Join(repoRoot, ".git", activeBookmarkHintFileName)
}

// CommentsDBPath returns the path to the single, all-repositories
// comment database.
func CommentsDBPath() string {
	return filepath.Join(DefaultConfigDir(), "comments.db")
}
