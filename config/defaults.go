package config

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: "~/.local/share/atui",
	}
}

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		Timeline: TimelineConfig{
			PageSize:         50,
			PreloadThreshold: 8,
			NearBottomRows:   6,
			ViewMode:         ViewModeGrouped,
		},
		Replay: ReplayConfig{
			IntervalMs: 80,
		},
	}
}

func GenerateSystemConfigTemplate() string {
	return `# ATUI System Configuration
# Location: ~/.config/atui/settings.toml
# This file uses TOML format: https://toml.io

# Directory where conversations and user config are stored
data_directory = "~/.local/share/atui"
`
}

func GenerateUserConfigTemplate() string {
	return `# ATUI User Configuration
# Location: <data_directory>/config.toml
# This file uses TOML format: https://toml.io

[timeline]
# Events fetched per page when scrolling back through history
page_size = 50

# Load the next page when the first visible row is within this many
# rows of the top
preload_threshold = 8

# Treat the view as pinned to the tail when within this many rows of
# the bottom
near_bottom_rows = 6

# Initial view mode: "grouped" or "raw"
view_mode = "grouped"

[replay]
# Delay between events when replaying an imported transcript
interval_ms = 80
`
}
