package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

type SystemConfig struct {
	DataDirectory string `toml:"data_directory"`
}

type TimelineConfig struct {
	PageSize         int    `toml:"page_size"`
	PreloadThreshold int    `toml:"preload_threshold"`
	NearBottomRows   int    `toml:"near_bottom_rows"`
	ViewMode         string `toml:"view_mode"`
}

type ReplayConfig struct {
	IntervalMs int `toml:"interval_ms"`
}

type UserConfig struct {
	Timeline TimelineConfig `toml:"timeline"`
	Replay   ReplayConfig   `toml:"replay"`
}

// Timeline view modes.
const (
	ViewModeGrouped = "grouped"
	ViewModeRaw     = "raw"
)

type Config struct {
	DataDirectory    string
	PageSize         int
	PreloadThreshold int
	NearBottomRows   int
	ViewMode         string
	ReplayInterval   time.Duration
	Keybindings      *KeyBindingsConfig
}

var Debug = false
var DebugLog *log.Logger

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

func (c *Config) applyEnvOverrides() {
	if dataDir := os.Getenv("ATUI_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
}

func CheckDebug() bool {
	debug := os.Getenv("ATUI_DEBUG")
	return debug == "true" || debug == "1"
}

func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	// Create debug log with secure permissions (0600 - may contain transcript fragments)
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (ATUI_DEBUG=%s) ===", os.Getenv("ATUI_DEBUG"))
	DebugLog.Printf("Log path: %s", logPath)
}

func Load() (*Config, error) {
	cfg := &Config{
		DataDirectory:    "~/.local/share/atui",
		PageSize:         50,
		PreloadThreshold: 8,
		NearBottomRows:   6,
		ViewMode:         ViewModeGrouped,
		ReplayInterval:   80 * time.Millisecond,
	}

	settingsPath := GetSettingsFilePath()
	settingsExist := FileExists(settingsPath)

	if settingsExist {
		systemCfg, err := LoadSystemConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load system config: %w", err)
		}
		cfg.DataDirectory = systemCfg.DataDirectory

		dataDir := cfg.DataDir()
		userCfg, err := LoadUserConfig(dataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
		cfg.applyUserConfig(userCfg)
	} else if os.Getenv("ATUI_DATA_DIR") != "" {
		cfg.applyEnvOverrides()

		dataDir := cfg.DataDir()
		userCfg, err := LoadUserConfig(dataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
		cfg.applyUserConfig(userCfg)
	} else {
		systemCfg, err := LoadSystemConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load system config: %w", err)
		}
		cfg.DataDirectory = systemCfg.DataDirectory

		dataDir := cfg.DataDir()
		userCfg, err := LoadUserConfig(dataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
		cfg.applyUserConfig(userCfg)
	}

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// Ensure data directory has correct permissions (fix if needed)
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	keybindings, err := LoadKeybindings(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load keybindings: %w", err)
	}
	if valid, msg := keybindings.Validate(); !valid {
		if DebugLog != nil {
			DebugLog.Printf("Invalid keybindings, using defaults: %s", msg)
		}
		keybindings = DefaultKeybindings()
	}
	cfg.Keybindings = keybindings

	return cfg, nil
}

// applyUserConfig folds config.toml values over the defaults. Zero values
// mean the key was absent, so each field is applied only when set, and
// numeric tunables are clamped to usable ranges.
func (c *Config) applyUserConfig(userCfg *UserConfig) {
	if userCfg.Timeline.PageSize > 0 {
		c.PageSize = userCfg.Timeline.PageSize
	}
	if c.PageSize < 10 {
		c.PageSize = 10
	}
	if userCfg.Timeline.PreloadThreshold > 0 {
		c.PreloadThreshold = userCfg.Timeline.PreloadThreshold
	}
	if userCfg.Timeline.NearBottomRows > 0 {
		c.NearBottomRows = userCfg.Timeline.NearBottomRows
	}
	switch userCfg.Timeline.ViewMode {
	case ViewModeGrouped, ViewModeRaw:
		c.ViewMode = userCfg.Timeline.ViewMode
	}
	if userCfg.Replay.IntervalMs >= 10 {
		c.ReplayInterval = time.Duration(userCfg.Replay.IntervalMs) * time.Millisecond
	}
}
