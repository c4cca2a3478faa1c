package ui

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"atui/config"
)

type dataDirectoryCheckedMsg struct {
	normalizedPath string
	configLoaded   bool
	userCfg        *config.UserConfig
	err            error
}

type settingsSaveMsg struct {
	success bool
	err     error
}

type dataDirectoryNotFoundMsg struct {
	path string
}

// buildSettingsFields snapshots the current config into editable fields
func buildSettingsFields(cfg *config.Config) []SettingField {
	defaults := config.DefaultUserConfig()
	return []SettingField{
		{
			Label:        "Data Directory",
			Value:        cfg.DataDirectory,
			DefaultValue: config.GetDefaultDataDir(),
			Type:         SettingTypeDataDir,
		},
		{
			Label:        "Page Size",
			Value:        strconv.Itoa(cfg.PageSize),
			DefaultValue: strconv.Itoa(defaults.Timeline.PageSize),
			Type:         SettingTypePageSize,
		},
		{
			Label:        "Preload Threshold",
			Value:        strconv.Itoa(cfg.PreloadThreshold),
			DefaultValue: strconv.Itoa(defaults.Timeline.PreloadThreshold),
			Type:         SettingTypePreloadThreshold,
		},
		{
			Label:        "Near-Bottom Rows",
			Value:        strconv.Itoa(cfg.NearBottomRows),
			DefaultValue: strconv.Itoa(defaults.Timeline.NearBottomRows),
			Type:         SettingTypeNearBottomRows,
		},
		{
			Label:        "View Mode",
			Value:        cfg.ViewMode,
			DefaultValue: defaults.Timeline.ViewMode,
			Type:         SettingTypeViewMode,
		},
		{
			Label:        "Replay Interval",
			Value:        strconv.Itoa(int(cfg.ReplayInterval / time.Millisecond)),
			DefaultValue: strconv.Itoa(defaults.Replay.IntervalMs),
			Type:         SettingTypeReplayInterval,
		},
	}
}

// validateSettingValue checks a committed field value. The data
// directory is validated separately on save because a missing
// directory can still be created.
func validateSettingValue(fieldType SettingFieldType, value string) error {
	switch fieldType {
	case SettingTypePageSize:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("must be a number")
		}
		if n < 10 || n > 500 {
			return fmt.Errorf("must be between 10 and 500")
		}
	case SettingTypePreloadThreshold:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("must be a number")
		}
		if n < 0 || n > 50 {
			return fmt.Errorf("must be between 0 and 50")
		}
	case SettingTypeNearBottomRows:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("must be a number")
		}
		if n < 0 || n > 50 {
			return fmt.Errorf("must be between 0 and 50")
		}
	case SettingTypeViewMode:
		if value != config.ViewModeGrouped && value != config.ViewModeRaw {
			return fmt.Errorf("must be %q or %q", config.ViewModeGrouped, config.ViewModeRaw)
		}
	case SettingTypeReplayInterval:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("must be a number")
		}
		if n < 10 || n > 5000 {
			return fmt.Errorf("must be between 10 and 5000 ms")
		}
	}
	return nil
}

func (a AppView) handleSettingsInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dataDirectoryNotFoundMsg:
		// Data directory doesn't exist - show confirmation modal
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Settings] Showing new data dir confirmation for: %s", msg.path)
		}
		a.settingsDataDirNotFound = true
		a.settingsNewDataDirPath = msg.path
		return a, nil

	case dataDirectoryCheckedMsg:
		if msg.err != nil {
			a.settingsFields[0].Validation = FieldValidationError
			a.settingsFields[0].ErrorMsg = msg.err.Error()
			a.settingsLoadedInfo = ""
			return a, nil
		}

		a.settingsFields[0].Value = msg.normalizedPath
		a.settingsFields[0].Validation = FieldValidationNone

		if msg.configLoaded && msg.userCfg != nil {
			// Refresh the remaining fields from the new directory's config
			a.settingsFields[1].Value = strconv.Itoa(msg.userCfg.Timeline.PageSize)
			a.settingsFields[2].Value = strconv.Itoa(msg.userCfg.Timeline.PreloadThreshold)
			a.settingsFields[3].Value = strconv.Itoa(msg.userCfg.Timeline.NearBottomRows)
			a.settingsFields[4].Value = msg.userCfg.Timeline.ViewMode
			a.settingsFields[5].Value = strconv.Itoa(msg.userCfg.Replay.IntervalMs)
			a.settingsLoadedInfo = "ℹ Loaded config from data directory"
			a.settingsHasChanges = true
		} else {
			a.settingsLoadedInfo = ""
		}

		return a, nil

	case settingsSaveMsg:
		if !msg.success {
			// Show error inline in settings modal
			a.settingsSaveError = msg.err.Error()
			return a, nil
		}

		oldDataDir := a.dataModel.Config.DataDir()

		// Reload config to pick up the saved values
		cfg, err := config.Load()
		if err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Settings Save] ERROR reloading config: %v", err)
			}
			a.showAcknowledgeModal = true
			a.acknowledgeModalTitle = "⚠️  Settings Save Error"
			a.acknowledgeModalMsg = fmt.Sprintf("Settings were saved to disk but failed to reload:\n\n%v\n\nPlease restart ATUI to ensure changes take effect.", err)
			a.acknowledgeModalType = ModalTypeError
			return a, nil
		}

		a.dataModel.Config = cfg

		// A data directory switch needs a fresh storage layer. Restart
		// and let startup reopen stores against the new directory.
		if cfg.DataDir() != oldDataDir {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Settings Save] Data dir changed %s -> %s, restarting", oldDataDir, cfg.DataDir())
			}
			a.RestartAfterQuit = true
			a.dataModel.Quitting = true
			return a, tea.Quit
		}

		// Apply the new view mode to the loaded timeline
		if a.dataModel.ViewMode != cfg.ViewMode {
			a.dataModel.ViewMode = cfg.ViewMode
			a.dataModel.Regroup()
			a.updateViewportContent()
		}

		a.settingsHasChanges = false
		a.showSettings = false
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Settings Save] Saved successfully")
		}
		return a, nil

	case dataExportedMsg:
		if msg.Cancelled {
			// Export was cancelled - check if partial file exists
			a.exportingDataDir = false
			a.dataExportCancelCtx = nil
			a.dataExportCancelFunc = nil

			if config.FileExists(a.dataExportTargetPath) {
				// Start cleanup phase
				a.dataExportCleaningUp = true
				return a, tea.Batch(
					a.dataExportSpinner.Tick,
					a.dataModel.CleanupPartialDataExportCmd(a.dataExportTargetPath),
				)
			}
			a.dataExportMode = false
			a.dataExportTargetPath = ""
			return a, nil
		}

		if msg.Err != nil {
			a.exportingDataDir = false
			a.dataExportCancelCtx = nil
			a.dataExportCancelFunc = nil
			a.dataExportMode = false
			a.dataExportTargetPath = ""
			a.showAcknowledgeModal = true
			a.acknowledgeModalTitle = "⚠️  Data Export Failed"
			a.acknowledgeModalMsg = msg.Err.Error()
			a.acknowledgeModalType = ModalTypeError
			return a, nil
		}

		// Success - show success modal
		a.exportingDataDir = false
		a.dataExportCancelCtx = nil
		a.dataExportCancelFunc = nil
		a.dataExportSuccess = msg.Path
		a.dataExportTargetPath = ""
		return a, nil

	case dataExportCleanupDoneMsg:
		// Cleanup finished - return to settings
		a.dataExportCleaningUp = false
		a.dataExportMode = false
		a.dataExportTargetPath = ""
		return a, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if a.dataExportMode {
			return a.handleDataExportMode(keyMsg)
		}
		if a.settingsEditMode {
			return a.handleSettingsEditMode(keyMsg)
		}
		return a.handleSettingsNavigationMode(keyMsg)
	}

	return a, nil
}

func (a AppView) handleSettingsNavigationMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle new data directory confirmation modal (y/n)
	if a.settingsDataDirNotFound {
		switch msg.String() {
		case "y", "Y":
			// User confirmed - create the directory via restart
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Settings] User confirmed new data dir creation: %s", a.settingsNewDataDirPath)
			}

			a.settingsDataDirNotFound = false
			a.showSettings = false

			systemCfg := &config.SystemConfig{
				DataDirectory: a.settingsNewDataDirPath,
			}
			if err := config.SaveSystemConfig(systemCfg); err != nil {
				a.showAcknowledgeModal = true
				a.acknowledgeModalTitle = "⚠️  Error"
				a.acknowledgeModalMsg = fmt.Sprintf("Failed to save config:\n\n%v", err)
				a.acknowledgeModalType = ModalTypeError
				return a, nil
			}

			a.RestartAfterQuit = true
			a.dataModel.Quitting = true
			return a, tea.Quit

		case "n", "N", "esc":
			// User cancelled - return to Settings
			a.settingsDataDirNotFound = false
			return a, nil
		}
		return a, nil
	}

	// If showing unsaved changes confirmation, y discards and closes
	if a.settingsConfirmExit {
		switch msg.String() {
		case "y", "Y":
			a.settingsConfirmExit = false
			a.settingsHasChanges = false
			a.showSettings = false
			return a, nil
		case "n", "N", "esc":
			a.settingsConfirmExit = false
			return a, nil
		}
		return a, nil
	}

	// If showing save error, Enter/Esc clears it
	if a.settingsSaveError != "" {
		if msg.String() == "enter" || msg.String() == "esc" {
			a.settingsSaveError = ""
			return a, nil
		}
		return a, nil
	}

	switch msg.String() {
	case "q":
		a.showSettings = false
		return a, nil

	case "esc":
		if a.settingsHasChanges {
			a.settingsConfirmExit = true
			return a, nil
		}
		a.showSettings = false
		return a, nil

	case "j", "down":
		if a.selectedSettingIdx < len(a.settingsFields)-1 {
			a.selectedSettingIdx++
		}
		return a, nil

	case "k", "up":
		if a.selectedSettingIdx > 0 {
			a.selectedSettingIdx--
		}
		return a, nil

	case "enter":
		// View mode toggles in place rather than opening an editor
		if a.settingsFields[a.selectedSettingIdx].Type == SettingTypeViewMode {
			currentValue := a.settingsFields[a.selectedSettingIdx].Value
			switch currentValue {
			case config.ViewModeGrouped:
				a.settingsFields[a.selectedSettingIdx].Value = config.ViewModeRaw
			case config.ViewModeRaw:
				a.settingsFields[a.selectedSettingIdx].Value = config.ViewModeGrouped
			}
			a.settingsHasChanges = true
			return a, nil
		}

		// Enter edit mode for other fields
		a.settingsEditMode = true
		a.settingsEditInput.SetValue(a.settingsFields[a.selectedSettingIdx].Value)
		a.settingsEditInput.Focus()
		return a, textinput.Blink

	case "r":
		// Reset to default
		a.settingsFields[a.selectedSettingIdx].Value = a.settingsFields[a.selectedSettingIdx].DefaultValue
		a.settingsFields[a.selectedSettingIdx].Validation = FieldValidationNone
		a.settingsFields[a.selectedSettingIdx].ErrorMsg = ""
		a.settingsHasChanges = true
		return a, nil

	case "x":
		// Open data export modal
		a.dataExportMode = true

		// Lazy init textinput
		if a.dataExportInput.Width == 0 {
			a.dataExportInput = textinput.New()
			a.dataExportInput.Width = 70
			a.dataExportInput.CharLimit = 500
		}

		// Generate default filename
		now := time.Now()
		defaultFilename := fmt.Sprintf("~/Downloads/atui-data-%s.tar.gz",
			now.Format("010206-1504")) // MMDDYY-HHMM

		a.dataExportInput.SetValue(defaultFilename)
		a.dataExportInput.Focus()
		return a, textinput.Blink

	case "alt+enter":
		// Save settings
		return a, a.saveSettingsCmd()
	}

	return a, nil
}

func (a AppView) handleDataExportMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	kb := a.dataModel.Config.Keybindings

	// Handle success acknowledgment
	if a.dataExportSuccess != "" {
		if msg.String() == "enter" || msg.String() == "esc" {
			a.dataExportSuccess = ""
			a.dataExportMode = false
			return a, nil
		}
		return a, nil
	}

	// Esc during export cancels; cleanup runs when the cmd acknowledges
	if a.exportingDataDir {
		if msg.String() == "esc" && !a.dataExportCleaningUp {
			if a.dataExportCancelFunc != nil {
				a.dataExportCancelFunc()
			}
			return a, nil
		}
		return a, nil
	}

	switch msg.String() {
	case "esc":
		a.dataExportMode = false
		a.dataExportInput.Blur()
		return a, nil

	case "enter":
		exportPath := strings.TrimSpace(a.dataExportInput.Value())
		if exportPath == "" {
			return a, nil
		}

		dataDir := a.dataModel.Config.DataDir()

		a.dataExportTargetPath = config.ExpandPath(exportPath)

		// Create cancellation context
		ctx, cancel := context.WithCancel(context.Background())
		a.dataExportCancelCtx = ctx
		a.dataExportCancelFunc = cancel

		// Initialize spinner
		a.dataExportSpinner = spinner.New()
		a.dataExportSpinner.Spinner = spinner.Dot
		a.dataExportSpinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))

		// Set exporting state
		a.exportingDataDir = true
		a.dataExportInput.Blur()

		// Start export
		return a, tea.Batch(
			a.exportDataDirCmd(ctx, dataDir, a.dataExportTargetPath),
			a.dataExportSpinner.Tick,
		)

	case kb.GetActionKey("clear_input"):
		a.dataExportInput.SetValue("")
		return a, nil
	}

	a.dataExportInput, cmd = a.dataExportInput.Update(msg)
	return a, cmd
}

func (a AppView) handleSettingsEditMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	kb := a.dataModel.Config.Keybindings

	switch msg.String() {
	case "esc":
		// Cancel edit
		a.settingsEditMode = false
		a.settingsEditInput.Blur()
		return a, nil

	case "enter":
		// Save edited value
		newValue := strings.TrimSpace(a.settingsEditInput.Value())
		field := &a.settingsFields[a.selectedSettingIdx]
		if newValue != field.Value {
			if err := validateSettingValue(field.Type, newValue); err != nil {
				field.Validation = FieldValidationError
				field.ErrorMsg = err.Error()
			} else {
				field.Validation = FieldValidationNone
				field.ErrorMsg = ""
			}
			field.Value = newValue
			a.settingsHasChanges = true

			if field.Type == SettingTypeDataDir {
				a.settingsEditMode = false
				a.settingsEditInput.Blur()
				return a, a.handleDataDirectoryChangeCmd(newValue)
			}
		}

		a.settingsEditMode = false
		a.settingsEditInput.Blur()
		return a, nil

	case kb.GetActionKey("clear_input"):
		// Clear input
		a.settingsEditInput.SetValue("")
		return a, nil
	}

	a.settingsEditInput, cmd = a.settingsEditInput.Update(msg)
	return a, cmd
}

// handleDataDirectoryChangeCmd checks a prospective data directory and
// loads its config if one exists. Must not create files there; the
// directory is only adopted on save.
func (a AppView) handleDataDirectoryChangeCmd(newPath string) tea.Cmd {
	return func() tea.Msg {
		normalized := config.ExpandPath(newPath)

		configPath := filepath.Join(normalized, "config.toml")
		userCfg, err := config.LoadUserConfigFromPath(configPath)
		if err != nil {
			return dataDirectoryCheckedMsg{
				normalizedPath: normalized,
				err:            fmt.Errorf("failed to load config: %w", err),
			}
		}

		if userCfg != nil {
			return dataDirectoryCheckedMsg{
				normalizedPath: normalized,
				configLoaded:   true,
				userCfg:        userCfg,
			}
		}

		// No existing config
		return dataDirectoryCheckedMsg{
			normalizedPath: normalized,
		}
	}
}

func (a AppView) saveSettingsCmd() tea.Cmd {
	return func() tea.Msg {
		// Re-validate every field before touching disk
		for _, field := range a.settingsFields {
			if err := validateSettingValue(field.Type, field.Value); err != nil {
				return settingsSaveMsg{
					success: false,
					err:     fmt.Errorf("%s: %v", field.Label, err),
				}
			}
		}

		dataDir := config.ExpandPath(a.settingsFields[0].Value)

		// Check if data directory exists
		if !config.FileExists(dataDir) {
			// Directory doesn't exist - prompt user to create it
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Settings] Data directory doesn't exist: %s", dataDir)
			}
			return dataDirectoryNotFoundMsg{path: dataDir}
		}

		// Save system config
		systemCfg := &config.SystemConfig{
			DataDirectory: a.settingsFields[0].Value,
		}
		if err := config.SaveSystemConfig(systemCfg); err != nil {
			return settingsSaveMsg{success: false, err: fmt.Errorf("Failed to save system config: %w", err)}
		}

		// Load existing config so unrelated sections survive the save
		existingCfg, err := config.LoadUserConfig(dataDir)
		if err != nil {
			return settingsSaveMsg{success: false, err: fmt.Errorf("Failed to load existing config: %w", err)}
		}

		pageSize, _ := strconv.Atoi(a.settingsFields[1].Value)
		preload, _ := strconv.Atoi(a.settingsFields[2].Value)
		nearBottom, _ := strconv.Atoi(a.settingsFields[3].Value)
		intervalMs, _ := strconv.Atoi(a.settingsFields[5].Value)

		existingCfg.Timeline.PageSize = pageSize
		existingCfg.Timeline.PreloadThreshold = preload
		existingCfg.Timeline.NearBottomRows = nearBottom
		existingCfg.Timeline.ViewMode = a.settingsFields[4].Value
		existingCfg.Replay.IntervalMs = intervalMs

		if err := config.SaveUserConfig(existingCfg, dataDir); err != nil {
			return settingsSaveMsg{success: false, err: fmt.Errorf("Failed to save user config: %w", err)}
		}

		return settingsSaveMsg{success: true}
	}
}

func renderDataExportModal(a AppView, exportInput textinput.Model, exporting bool, cleaningUp bool, exportSpinner spinner.Model, successPath string, width, height int) string {
	// Check for success state first
	if successPath != "" {
		return renderExportSuccess(successPath, "Data Export", width, height)
	}

	modalWidth := width - 10
	if modalWidth > 80 {
		modalWidth = 80
	}

	borderStyle := lipgloss.NewStyle().
		Foreground(dimColor).
		Width(modalWidth)

	topBorder := borderStyle.Render("┌" + strings.Repeat("─", modalWidth-2) + "┐")
	middleBorder := borderStyle.Render("├" + strings.Repeat("─", modalWidth-2) + "┤")
	bottomBorder := borderStyle.Render("└" + strings.Repeat("─", modalWidth-2) + "┘")
	emptyLine := "│" + strings.Repeat(" ", modalWidth-2) + "│"

	var content strings.Builder
	content.WriteString(topBorder + "\n")

	if cleaningUp {
		// State 3: Cleaning up
		content.WriteString(emptyLine + "\n")

		cleanupLine := fmt.Sprintf("%s Cleaning up...", exportSpinner.View())
		styledCleanup := lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Bold(true).
			Align(lipgloss.Center).
			Width(modalWidth - 2).
			Render(cleanupLine)

		content.WriteString("│" + styledCleanup + "│\n")
		content.WriteString(emptyLine + "\n")

	} else if exporting {
		// State 2: Exporting with spinner
		content.WriteString(emptyLine + "\n")

		exportLine := fmt.Sprintf("%s Exporting data directory...", exportSpinner.View())
		styledExport := lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Bold(true).
			Align(lipgloss.Center).
			Width(modalWidth - 2).
			Render(exportLine)

		content.WriteString("│" + styledExport + "│\n")
		content.WriteString(emptyLine + "\n")
		content.WriteString(middleBorder + "\n")

		cancelHint := lipgloss.NewStyle().
			Foreground(dimColor).
			Align(lipgloss.Center).
			Width(modalWidth - 2).
			Render("Press Esc to cancel")

		content.WriteString("│" + cancelHint + "│\n")

	} else {
		// State 1: Input mode
		title := lipgloss.NewStyle().
			Bold(true).
			Align(lipgloss.Center).
			Width(modalWidth - 2).
			Render("Export Data Directory")

		content.WriteString("│" + title + "│\n")
		content.WriteString(middleBorder + "\n")
		content.WriteString(emptyLine + "\n")

		prompt := lipgloss.NewStyle().
			Width(modalWidth - 6).
			Render("Export to:")

		inputLine := lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true).
			Width(modalWidth - 6).
			Render(exportInput.View())

		content.WriteString("│  " + prompt + "  │\n")
		content.WriteString("│  " + inputLine + "  │\n")
		content.WriteString(emptyLine + "\n")
		content.WriteString(middleBorder + "\n")

		footer := lipgloss.NewStyle().
			Foreground(dimColor).
			Align(lipgloss.Center).
			Width(modalWidth - 2).
			Render(fmt.Sprintf("Esc Cancel  Enter Export  %s Clear", a.formatKeyDisplay("primary", "U")))

		content.WriteString("│" + footer + "│\n")
	}

	content.WriteString(bottomBorder)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		content.String(),
	)
}

func renderSettings(a AppView, fields []SettingField, selectedIdx int, editMode bool, editInput textinput.Model, hasChanges bool, confirmExit bool, loadedInfo string, saveError string, dataExportMode bool, dataExportInput textinput.Model, exportingDataDir bool, dataExportCleaningUp bool, dataExportSpinner spinner.Model, dataExportSuccess string, dataDirNotFound bool, newDataDirPath string, width, height int) string {
	// Check for new data directory confirmation modal first
	if dataDirNotFound {
		return renderDataDirNotFoundModal(newDataDirPath, width, height)
	}

	// Check for data export modal
	if dataExportMode {
		return renderDataExportModal(a, dataExportInput, exportingDataDir, dataExportCleaningUp, dataExportSpinner, dataExportSuccess, width, height)
	}

	if confirmExit {
		return RenderUnsavedChangesModal(width, height)
	}

	if saveError != "" {
		return renderSettingsSaveError(saveError, width, height)
	}

	if width < 20 || height < 10 {
		return "Terminal too small"
	}

	modalWidth := width - 10
	if modalWidth > 80 {
		modalWidth = 80
	}
	if modalWidth < 40 {
		modalWidth = 40
	}

	// Title section (centered, no borders - following modal_helpers.go pattern)
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(accentColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render(fmt.Sprintf("Settings (%s)", a.formatKeyDisplay("secondary", "S")))

	// Separator (simple horizontal line - following modal_helpers.go pattern)
	separator := lipgloss.NewStyle().
		Foreground(dimColor).
		Render(strings.Repeat("─", modalWidth))

	// Settings list
	var settingsLines []string
	for i, field := range fields {
		var line string

		if editMode && i == selectedIdx {
			// Show edit input
			label := field.Label
			labelPadding := strings.Repeat(" ", 20-len(label))
			inputBox := lipgloss.NewStyle().
				Foreground(accentColor).
				Bold(true).
				Width(modalWidth - 24).
				Render(editInput.View())
			line = fmt.Sprintf("  %s%s%s", label, labelPadding, inputBox)
		} else {
			// Show value
			indicator := "  "
			if i == selectedIdx {
				indicator = "▶ "
			}

			// Format value with validation indicator
			value := field.Value
			if field.Type == SettingTypeReplayInterval {
				value = value + " ms"
			}
			validationIndicator := ""
			switch field.Validation {
			case FieldValidationPending:
				validationIndicator = "  ⏳"
			case FieldValidationSuccess:
				validationIndicator = "  ✓"
			case FieldValidationError:
				validationIndicator = "  ✗"
			}

			// Calculate spacing
			label := fmt.Sprintf("%s%s", indicator, field.Label)
			maxLabelWidth := 20
			if len(label) < maxLabelWidth {
				label = label + strings.Repeat(" ", maxLabelWidth-len(label))
			}

			valueWithIndicator := value + validationIndicator
			maxValueWidth := modalWidth - maxLabelWidth - 4
			if len(valueWithIndicator) > maxValueWidth {
				valueWithIndicator = valueWithIndicator[:maxValueWidth-3] + "..."
			}

			line = label + valueWithIndicator

			// Style the line
			lineStyle := lipgloss.NewStyle()
			if i == selectedIdx {
				lineStyle = lineStyle.Foreground(successColor).Bold(true)
			}

			line = lineStyle.Render(line)
		}

		paddedLine := lipgloss.NewStyle().
			Width(modalWidth).
			Render(line)
		settingsLines = append(settingsLines, paddedLine)

		// Show validation error under the field
		if field.Validation == FieldValidationError && field.ErrorMsg != "" && !(editMode && i == selectedIdx) {
			errLine := lipgloss.NewStyle().
				Width(modalWidth).
				Foreground(dangerColor).
				Render("      " + field.ErrorMsg)
			settingsLines = append(settingsLines, errLine)
		}
	}

	// Footer
	var footerText string
	if editMode {
		footerText = FormatFooter("Enter", "Save", a.formatKeyDisplay("primary", "U"), "Clear", "Esc", "Cancel")
	} else if hasChanges {
		footerText = FormatFooter("Alt+Enter", "Save", "x", "Export Data", "r", "Reset", "Esc", "Cancel")
	} else {
		footerText = FormatFooter("j/k", "Navigate", "Enter", "Edit", "x", "Export Data", "r", "Reset", "Esc", "Close")
	}
	footer := lipgloss.NewStyle().
		Foreground(dimColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render(footerText)

	// Info line
	var infoLine string
	if loadedInfo != "" {
		infoLine = lipgloss.NewStyle().
			Width(modalWidth).
			Foreground(accentColor).
			Render("  "+loadedInfo) + "\n"
	}

	// Combine all parts (Title/Separator/Content/Separator/Footer pattern)
	var content strings.Builder
	content.WriteString(title + "\n")
	content.WriteString(separator + "\n")
	content.WriteString(strings.Repeat(" ", modalWidth) + "\n") // Top padding
	for _, line := range settingsLines {
		content.WriteString(line + "\n")
	}
	content.WriteString(strings.Repeat(" ", modalWidth) + "\n") // Bottom padding
	if infoLine != "" {
		content.WriteString(infoLine)
	}
	content.WriteString(separator + "\n")
	content.WriteString(footer)

	// Center the modal
	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		content.String(),
	)
}

func renderSettingsSaveError(errorMsg string, width, height int) string {
	return RenderAcknowledgeModal(
		"Error Saving Settings",
		errorMsg,
		ModalTypeError,
		width,
		height,
	)
}

func renderDataDirNotFoundModal(path string, width, height int) string {
	modalWidth := 60
	if width < modalWidth+10 {
		modalWidth = width - 10
	}

	// Build message lines
	var messageLines []string
	messageLines = append(messageLines, strings.Repeat(" ", modalWidth)) // Empty line

	messageStyle := lipgloss.NewStyle().
		Width(modalWidth).
		Align(lipgloss.Center)

	messageLines = append(messageLines, messageStyle.Render("The directory does not exist:"))
	messageLines = append(messageLines, strings.Repeat(" ", modalWidth))
	messageLines = append(messageLines, messageStyle.Render(path))
	messageLines = append(messageLines, strings.Repeat(" ", modalWidth))
	messageLines = append(messageLines, messageStyle.Render("Would you like to create a new data directory here?"))
	messageLines = append(messageLines, strings.Repeat(" ", modalWidth))
	messageLines = append(messageLines, messageStyle.Render("(ATUI will restart with the new directory)"))

	// Use RenderThreeSectionModal for consistent pattern
	footer := FormatFooter("y", "Yes, create new data directory", "n", "No, return to Settings")
	return RenderThreeSectionModal(
		"⚠️  Data Directory Not Found",
		messageLines,
		footer,
		ModalTypeWarning,
		modalWidth,
		width,
		height,
	)
}

func (a AppView) exportDataDirCmd(ctx context.Context, dataDir, exportPath string) tea.Cmd {
	return func() tea.Msg {
		// Cancellation point 1: Before starting
		select {
		case <-ctx.Done():
			return dataExportedMsg{Cancelled: true}
		default:
		}

		// Check if data directory exists
		if _, err := os.Stat(dataDir); os.IsNotExist(err) {
			return dataExportedMsg{Err: fmt.Errorf("data directory does not exist: %s", dataDir)}
		}

		// Create parent directory for export (0700 - user-only access)
		exportDir := filepath.Dir(exportPath)
		if err := os.MkdirAll(exportDir, 0700); err != nil {
			return dataExportedMsg{Err: fmt.Errorf("failed to create export directory: %w", err)}
		}

		// Cancellation point 2: Before creating tar file
		select {
		case <-ctx.Done():
			return dataExportedMsg{Cancelled: true}
		default:
		}

		// Create tar.gz file (0600 - exports contain full conversation history)
		outFile, err := os.OpenFile(exportPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
		if err != nil {
			return dataExportedMsg{Err: fmt.Errorf("failed to create tar file: %w", err)}
		}
		defer outFile.Close()

		// Create gzip writer
		gzWriter := gzip.NewWriter(outFile)
		defer gzWriter.Close()

		// Create tar writer
		tarWriter := tar.NewWriter(gzWriter)
		defer tarWriter.Close()

		// Walk the data directory and add files to tar
		err = filepath.Walk(dataDir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Check for cancellation during walk
			select {
			case <-ctx.Done():
				return fmt.Errorf("cancelled")
			default:
			}

			// Create tar header
			header, err := tar.FileInfoHeader(info, "")
			if err != nil {
				return err
			}

			// Update header name to be relative to data dir with "atui/" prefix
			relPath, err := filepath.Rel(dataDir, path)
			if err != nil {
				return err
			}
			header.Name = filepath.Join("atui", relPath)

			// Write header
			if err := tarWriter.WriteHeader(header); err != nil {
				return err
			}

			// If it's a file, write its content
			if !info.IsDir() {
				file, err := os.Open(path)
				if err != nil {
					return err
				}
				defer file.Close()

				if _, err := io.Copy(tarWriter, file); err != nil {
					return err
				}
			}

			return nil
		})

		if err != nil {
			if err.Error() == "cancelled" {
				return dataExportedMsg{Cancelled: true}
			}
			return dataExportedMsg{Err: fmt.Errorf("failed to create archive: %w", err)}
		}

		return dataExportedMsg{Path: exportPath}
	}
}
