package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"atui/config"
	appmodel "atui/model"
	"atui/scroll"
	"atui/storage"
	"atui/timeline"
)

// handleKeyPress routes key input: global shortcuts first, then the
// open modal (in View rendering order), then replay control, then the
// main view.
func (a AppView) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	kb := a.dataModel.Config.Keybindings
	if kb == nil {
		kb = config.DefaultKeybindings()
	}

	// PRIORITY 0: Always-global quit
	if msg.String() == kb.GetActionKey("quit") {
		a.dataModel.Quitting = true
		return a, tea.Quit
	}

	// PRIORITY 1: Modal toggle shortcuts (close current modal, open new one)
	switch msg.String() {
	case kb.GetActionKey("help"):
		wasOpen := a.showHelp
		a.closeAllModals()
		a.showHelp = !wasOpen
		return a, nil

	case kb.GetActionKey("conversation_picker"):
		wasOpen := a.showConversationPicker
		a.closeAllModals()
		a.showConversationPicker = !wasOpen
		a.conversationExportSuccess = ""
		if a.showConversationPicker {
			return a, a.dataModel.FetchConversationList()
		}
		return a, nil

	case kb.GetActionKey("import_transcript"):
		// An import already in flight keeps its modal
		if a.importPicker.Processing || a.importPicker.CleaningUp {
			return a, nil
		}
		a.closeAllModals()
		a.importPicker.Activate()
		return a, a.importPicker.Picker.Init()

	case kb.GetActionKey("search_events"):
		if a.dataModel.CurrentConversation == nil {
			return a, nil
		}
		wasOpen := a.showEventSearch
		a.closeAllModals()
		a.showEventSearch = !wasOpen
		if a.showEventSearch {
			a.eventSearchInput.SetValue("")
			a.eventSearchInput.Focus()
			a.eventSearchResults = []storage.EventMatch{}
			a.selectedSearchIdx = 0
			a.eventSearchScrollIdx = 0
			return a, textinput.Blink
		}
		return a, nil

	case kb.GetActionKey("toggle_view"):
		a.closeAllModals()
		return a.toggleViewMode()

	case kb.GetActionKey("replay"):
		if a.dataModel.Replay != nil || a.dataModel.CurrentConversation == nil {
			return a, nil
		}
		a.closeAllModals()
		return a, a.dataModel.LoadReplay(a.dataModel.CurrentConversation.ID)

	case kb.GetActionKey("export_conversation"):
		if a.dataModel.CurrentConversation == nil || a.exportingConversation {
			return a, nil
		}
		a.closeAllModals()
		a.showConversationPicker = true
		a.conversationExportMode = true
		if a.conversationExportInput.Width == 0 {
			a.conversationExportInput = textinput.New()
			a.conversationExportInput.Width = 70
			a.conversationExportInput.CharLimit = 500
		}
		a.conversationExportInput.SetValue(storage.GenerateExportPath(a.dataModel.CurrentConversation.Title))
		a.conversationExportInput.Focus()
		// The list fetch also pins the picker selection to the current
		// conversation, which is the export target on enter
		return a, tea.Batch(a.dataModel.FetchConversationList(), textinput.Blink)

	case kb.GetActionKey("settings"):
		wasOpen := a.showSettings
		a.closeAllModals()
		a.showSettings = !wasOpen
		if a.showSettings {
			a.settingsFields = buildSettingsFields(a.dataModel.Config)
			a.selectedSettingIdx = 0
			a.settingsHasChanges = false
			a.settingsLoadedInfo = ""
			a.settingsSaveError = ""
			a.settingsDataDirNotFound = false
			a.settingsNewDataDirPath = ""
			a.dataExportSuccess = ""
		}
		return a, nil

	case kb.GetActionKey("about"):
		wasOpen := a.showAbout
		a.closeAllModals()
		a.showAbout = !wasOpen
		return a, nil
	}

	// PRIORITY 2: Modal-specific key handling (order matches View rendering)
	// Info modal closes on any key
	if a.showInfoModal {
		a.showInfoModal = false
		a.infoModalTitle = ""
		a.infoModalMsg = ""
		return a, nil
	}

	if a.showAcknowledgeModal {
		if msg.String() == "enter" || msg.String() == "esc" {
			a.showAcknowledgeModal = false
		}
		return a, nil
	}

	if a.showHelp {
		if msg.String() == "esc" {
			a.showHelp = false
		}
		return a, nil
	}

	if a.showSettings {
		return a.handleSettingsInput(msg)
	}

	if a.showConversationPicker {
		return a.handleConversationPickerUpdate(msg)
	}

	if a.importPicker.Active {
		return a.handleImportPickerMode(msg)
	}

	if a.showEventSearch {
		return a.handleEventSearchUpdate(msg)
	}

	if a.showAbout {
		if msg.String() == "esc" || msg.String() == kb.GetActionKey("close_about") {
			a.showAbout = false
		}
		return a, nil
	}

	// PRIORITY 3: Replay control (esc stops, space pauses)
	if a.dataModel.Replay != nil {
		switch msg.String() {
		case "esc":
			a.dataModel.CancelReplay()
			a.scrollState = scroll.OnStreamingChanged(a.scrollState, false)
			a.newBelow = false
			a.updateViewportContent()
			a.timeline.GotoBottom()
			return a, nil

		case " ":
			paused := a.dataModel.ToggleReplayPause()
			if !paused && a.dataModel.Replay != nil {
				// A paused tick loop is dead; resuming re-arms it
				return a, appmodel.TickReplay(a.replayInterval(), a.dataModel.Replay.Generation)
			}
			return a, nil
		}
	}

	// PRIORITY 4: Main view
	return a.handleMainViewKeys(msg, kb)
}

// handleMainViewKeys covers scrolling and clipboard actions when no
// modal is open.
func (a AppView) handleMainViewKeys(msg tea.KeyMsg, kb *config.KeyBindingsConfig) (tea.Model, tea.Cmd) {
	moved := false

	switch msg.String() {
	case kb.GetActionKey("yank_group"):
		for i := len(a.dataModel.Groups) - 1; i >= 0; i-- {
			if a.dataModel.Groups[i].Kind == timeline.GroupAssistant {
				_ = clipboard.WriteAll(yankGroupText(a.dataModel.Groups[i]))
				break
			}
		}
		return a, nil

	case kb.GetActionKey("yank_conversation"):
		var allText strings.Builder
		for _, g := range a.dataModel.Groups {
			role := "Assistant"
			if g.Kind == timeline.GroupUser {
				role = "You"
			}
			allText.WriteString(fmt.Sprintf("[%s] %s:\n%s\n\n", g.Timestamp.Format("15:04"), role, yankGroupText(g)))
		}
		_ = clipboard.WriteAll(allText.String())
		return a, nil

	case kb.GetActionKey("scroll_down"), kb.GetActionKey("scroll_down_arrow"):
		a.timeline.ScrollDown(1)
		moved = true
	case kb.GetActionKey("scroll_up"), kb.GetActionKey("scroll_up_arrow"):
		a.timeline.ScrollUp(1)
		moved = true
	case kb.GetActionKey("half_page_down"):
		a.timeline.HalfPageDown()
		moved = true
	case kb.GetActionKey("half_page_up"):
		a.timeline.HalfPageUp()
		moved = true
	case kb.GetActionKey("page_down"):
		a.timeline.PageDown()
		moved = true
	case kb.GetActionKey("page_up"):
		a.timeline.PageUp()
		moved = true
	case kb.GetActionKey("scroll_to_top"):
		a.timeline.GotoTop()
		moved = true
	case kb.GetActionKey("scroll_to_bottom"):
		a.timeline.GotoBottom()
		a.newBelow = false
		moved = true
	}

	if !moved {
		return a, nil
	}

	if a.timeline.AtBottom() {
		a.newBelow = false
	}

	s, eff := scroll.OnScroll(a.scrollConfig(), a.scrollState, a.snapshot(), time.Now())
	a.scrollState = s
	cmds := a.applyScrollEffects(eff)
	return a, tea.Batch(cmds...)
}

// toggleViewMode flips grouped/raw rendering. Item indices change
// meaning across modes, so pagination anchors are reset.
func (a AppView) toggleViewMode() (tea.Model, tea.Cmd) {
	a.dataModel.ToggleViewMode()
	a.updateViewportContent()

	streaming := a.scrollState.Streaming
	s, eff := scroll.OnConversationChanged(a.scrollState, a.scrollState.ConversationID, a.timeline.Count())
	a.scrollState = scroll.OnStreamingChanged(s, streaming)
	a.newBelow = false
	cmds := a.applyScrollEffects(eff)
	return a, tea.Batch(cmds...)
}

// yankGroupText flattens one group for the clipboard: tool call lines
// followed by the message content.
func yankGroupText(g timeline.Group) string {
	var b strings.Builder
	for _, tc := range g.ToolCalls {
		b.WriteString(fmt.Sprintf("[%s] %s\n", tc.Status, tc.Name))
	}
	b.WriteString(g.Content)
	return strings.TrimRight(b.String(), "\n")
}

func (a AppView) handleConversationRenameMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	kb := a.dataModel.Config.Keybindings
	if kb == nil {
		kb = config.DefaultKeybindings()
	}

	switch msg.String() {
	case "esc":
		a.conversationRenameMode = false
		a.conversationRenameInput.Blur()
		return a, nil

	case "enter":
		newTitle := strings.TrimSpace(a.conversationRenameInput.Value())
		if newTitle == "" {
			return a, nil
		}

		list := a.getConversationList()
		if a.selectedConversationIdx < 0 || a.selectedConversationIdx >= len(list) {
			return a, nil
		}
		conversationID := list[a.selectedConversationIdx].ID
		a.conversationRenameMode = false
		a.conversationRenameInput.Blur()

		// Update current conversation title if it's the one being renamed
		if a.dataModel.CurrentConversation != nil && a.dataModel.CurrentConversation.ID == conversationID {
			a.dataModel.CurrentConversation.Title = newTitle
		}

		return a, a.dataModel.RenameConversationCmd(conversationID, newTitle)

	case kb.GetActionKey("clear_input"):
		a.conversationRenameInput.SetValue("")
		return a, nil
	}

	a.conversationRenameInput, cmd = a.conversationRenameInput.Update(msg)
	return a, cmd
}

func (a AppView) handleConversationExportMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	kb := a.dataModel.Config.Keybindings
	if kb == nil {
		kb = config.DefaultKeybindings()
	}

	// Success banner acknowledges on enter or esc
	if a.conversationExportSuccess != "" {
		if msg.String() == "enter" || msg.String() == "esc" {
			a.conversationExportSuccess = ""
			a.conversationExportMode = false
		}
		return a, nil
	}

	// If processing or cleaning up, only handle escape
	if a.exportingConversation || a.exportCleaningUp {
		if msg.String() == "esc" && a.exportingConversation && !a.exportCleaningUp {
			if a.exportCancelFunc != nil {
				a.exportCancelFunc()
			}
		}
		return a, nil
	}

	switch msg.String() {
	case "esc":
		a.conversationExportMode = false
		a.conversationExportInput.Blur()
		return a, nil

	case "enter":
		exportPath := strings.TrimSpace(a.conversationExportInput.Value())
		if exportPath == "" {
			return a, nil
		}

		list := a.getConversationList()
		if a.selectedConversationIdx < 0 || a.selectedConversationIdx >= len(list) {
			return a, nil
		}
		conversationID := list[a.selectedConversationIdx].ID

		// Expand path immediately to track it
		a.exportTargetPath = config.ExpandPath(exportPath)

		ctx, cancel := context.WithCancel(context.Background())
		a.exportCancelCtx = ctx
		a.exportCancelFunc = cancel

		a.exportSpinner = spinner.New()
		a.exportSpinner.Spinner = spinner.Dot
		a.exportSpinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))

		a.exportingConversation = true
		a.conversationExportInput.Blur()

		return a, tea.Batch(
			a.dataModel.ExportConversationCmd(ctx, conversationID, a.exportTargetPath),
			a.exportSpinner.Tick,
		)

	case kb.GetActionKey("clear_input"):
		a.conversationExportInput.SetValue("")
		return a, nil
	}

	a.conversationExportInput, cmd = a.conversationExportInput.Update(msg)
	return a, cmd
}

func (a AppView) handleImportPickerMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	// Handle success acknowledgment
	if a.importPicker.Success != nil {
		if msg.String() == "enter" || msg.String() == "esc" {
			a.importPicker.Reset()
		}
		return a, nil
	}

	// If processing, only handle escape
	if a.importPicker.Processing || a.importPicker.CleaningUp {
		if msg.String() == "esc" {
			if a.importCancelFunc != nil {
				a.importCancelFunc()
			}
		}
		return a, nil
	}

	if msg.String() == "esc" {
		a.importPicker.Reset()
		return a, nil
	}

	// Update picker with the KeyMsg FIRST
	a.importPicker.Picker, cmd = a.importPicker.Picker.Update(msg)

	// Check if Path was set and it's a FILE (not directory)
	if a.importPicker.Picker.Path != "" {
		if info, err := os.Stat(a.importPicker.Picker.Path); err == nil && !info.IsDir() {
			path := a.importPicker.Picker.Path

			if config.DebugLog != nil {
				config.DebugLog.Printf("FILE SELECTED: %s", path)
			}

			ctx, cancel := context.WithCancel(context.Background())
			a.importCancelCtx = ctx
			a.importCancelFunc = cancel

			a.importPicker.Processing = true

			return a, tea.Batch(
				a.dataModel.ImportTranscriptCmd(ctx, path),
				a.importPicker.Spinner.Tick,
			)
		}
		// If it's a directory, clear Path so we don't trigger again
		a.importPicker.Picker.Path = ""
	}

	return a, cmd
}
