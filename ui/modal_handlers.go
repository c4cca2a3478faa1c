package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"atui/config"
	"atui/storage"
)

func (a AppView) handleConversationPickerUpdate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	kb := a.dataModel.Config.Keybindings
	if kb == nil {
		kb = config.DefaultKeybindings()
	}

	// Handle delete confirmation
	if a.confirmDeleteConversation != nil {
		switch msg.String() {
		case "y":
			conversationID := a.confirmDeleteConversation.ID
			isDeletingCurrent := a.dataModel.CurrentConversation != nil && a.dataModel.CurrentConversation.ID == conversationID

			// Block deletion while the conversation is replaying
			if isDeletingCurrent && a.dataModel.Replay != nil {
				a.confirmDeleteConversation = nil
				a.showAcknowledgeModal = true
				a.acknowledgeModalTitle = "Cannot Delete Conversation"
				a.acknowledgeModalMsg = "Conversation is replaying.\nStop the replay before deleting."
				a.acknowledgeModalType = ModalTypeWarning
				return a, nil
			}

			a.confirmDeleteConversation = nil
			return a, a.dataModel.DeleteConversationCmd(conversationID)

		case "n", "esc":
			a.confirmDeleteConversation = nil
			return a, nil
		}
		return a, nil
	}

	if a.conversationRenameMode {
		return a.handleConversationRenameMode(msg)
	}

	if a.importPicker.Active {
		return a.handleImportPickerMode(msg)
	}

	if a.conversationExportMode {
		return a.handleConversationExportMode(msg)
	}

	if a.conversationFilterMode {
		switch msg.String() {
		case "esc":
			a.conversationFilterMode = false
			a.conversationFilterInput.Blur()
			a.conversationFilterInput.SetValue("")
			a.filteredConversationList = []storage.Conversation{}
			a.selectedConversationIdx = 0
			return a, nil

		case "enter":
			list := a.getConversationList()
			if a.selectedConversationIdx >= 0 && a.selectedConversationIdx < len(list) {
				selected := list[a.selectedConversationIdx]
				a.conversationFilterMode = false
				return a, a.dataModel.LoadConversation(selected.ID)
			}
			return a, nil

		case kb.GetActionKey("picker_down_filtered"), kb.GetActionKey("picker_down_arrow_filtered"), "down":
			list := a.getConversationList()
			if a.selectedConversationIdx < len(list)-1 {
				a.selectedConversationIdx++
			}
			return a, nil

		case kb.GetActionKey("picker_up_filtered"), kb.GetActionKey("picker_up_arrow_filtered"), "up":
			if a.selectedConversationIdx > 0 {
				a.selectedConversationIdx--
			}
			return a, nil
		}

		var cmd tea.Cmd
		a.conversationFilterInput, cmd = a.conversationFilterInput.Update(msg)
		a.filteredConversationList = filterConversations(a.conversationList, a.conversationFilterInput.Value())

		list := a.getConversationList()
		if a.selectedConversationIdx >= len(list) && len(list) > 0 {
			a.selectedConversationIdx = len(list) - 1
		}

		return a, cmd
	}

	switch msg.String() {
	case "/":
		a.conversationFilterMode = true
		a.conversationFilterInput.Focus()
		a.conversationFilterInput.SetValue("")
		a.filteredConversationList = a.conversationList
		return a, textinput.Blink

	case "esc", kb.GetActionKey("close_picker"):
		a.showConversationPicker = false
		return a, nil

	case kb.GetActionKey("picker_down"), kb.GetActionKey("picker_down_arrow"):
		list := a.getConversationList()
		if a.selectedConversationIdx < len(list)-1 {
			a.selectedConversationIdx++
		}
		return a, nil

	case kb.GetActionKey("picker_up"), kb.GetActionKey("picker_up_arrow"):
		if a.selectedConversationIdx > 0 {
			a.selectedConversationIdx--
		}
		return a, nil

	case "enter":
		list := a.getConversationList()
		if a.selectedConversationIdx >= 0 && a.selectedConversationIdx < len(list) {
			selected := list[a.selectedConversationIdx]
			return a, a.dataModel.LoadConversation(selected.ID)
		}
		return a, nil

	case kb.GetActionKey("picker_new"):
		return a, a.dataModel.CreateConversation("")

	case kb.GetActionKey("picker_import"):
		a.importPicker.Activate()
		return a, a.importPicker.Picker.Init()

	case kb.GetActionKey("picker_rename"):
		list := a.getConversationList()
		if a.selectedConversationIdx >= 0 && a.selectedConversationIdx < len(list) {
			if a.conversationRenameInput.Width == 0 {
				a.conversationRenameInput.Width = 50
			}
			a.conversationRenameMode = true
			a.conversationRenameInput.SetValue(list[a.selectedConversationIdx].Title)
			a.conversationRenameInput.Focus()
			return a, textinput.Blink
		}
		return a, nil

	case kb.GetActionKey("picker_export"):
		list := a.getConversationList()
		if a.selectedConversationIdx >= 0 && a.selectedConversationIdx < len(list) {
			if a.conversationExportInput.Width == 0 {
				a.conversationExportInput = textinput.New()
				a.conversationExportInput.Width = 70
				a.conversationExportInput.CharLimit = 500
			}
			defaultPath := storage.GenerateExportPath(list[a.selectedConversationIdx].Title)
			a.conversationExportMode = true
			a.conversationExportInput.SetValue(defaultPath)
			a.conversationExportInput.Focus()
			return a, textinput.Blink
		}
		return a, nil

	case kb.GetActionKey("picker_delete"):
		list := a.getConversationList()
		if a.selectedConversationIdx >= 0 && a.selectedConversationIdx < len(list) {
			conv := list[a.selectedConversationIdx]
			a.confirmDeleteConversation = &conv
		}
		return a, nil
	}
	return a, nil
}

// filterConversations fuzzy-matches conversation titles against a
// query. An empty query returns the full list.
func filterConversations(conversations []storage.Conversation, query string) []storage.Conversation {
	if query == "" {
		return conversations
	}

	targets := make([]string, len(conversations))
	for i, c := range conversations {
		targets[i] = c.Title
	}

	matches := fuzzy.Find(query, targets)
	filtered := make([]storage.Conversation, len(matches))
	for i, match := range matches {
		filtered[i] = conversations[match.Index]
	}
	return filtered
}

func (a AppView) handleEventSearchUpdate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.showEventSearch = false
		a.eventSearchInput.Blur()
		return a, nil

	case "up", "alt+k":
		if a.selectedSearchIdx > 0 {
			a.selectedSearchIdx--
			if a.selectedSearchIdx < a.eventSearchScrollIdx {
				a.eventSearchScrollIdx = a.selectedSearchIdx
			}
		}
		return a, nil

	case "down", "alt+j":
		if a.selectedSearchIdx < len(a.eventSearchResults)-1 {
			a.selectedSearchIdx++
			if a.selectedSearchIdx >= a.eventSearchScrollIdx+a.searchPageSize() {
				a.eventSearchScrollIdx = a.selectedSearchIdx - a.searchPageSize() + 1
			}
		}
		return a, nil

	case "enter":
		if a.selectedSearchIdx >= 0 && a.selectedSearchIdx < len(a.eventSearchResults) {
			match := a.eventSearchResults[a.selectedSearchIdx]
			a.showEventSearch = false
			a.eventSearchInput.Blur()

			// Jump directly when the event is in the loaded window;
			// otherwise load the full history and jump on arrival
			if a.itemIndexOfSeq(match.Seq) >= 0 {
				return a, a.jumpToSeq(match.Seq)
			}
			if a.dataModel.CurrentConversation != nil {
				a.pendingJumpSeq = match.Seq
				return a, a.dataModel.LoadConversationAll(a.dataModel.CurrentConversation.ID)
			}
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.eventSearchInput, cmd = a.eventSearchInput.Update(msg)

	query := a.eventSearchInput.Value()
	if query == "" {
		a.eventSearchResults = []storage.EventMatch{}
		a.selectedSearchIdx = 0
		a.eventSearchScrollIdx = 0
		return a, cmd
	}
	if a.dataModel.CurrentConversation != nil {
		return a, tea.Batch(cmd, a.dataModel.SearchEventsCmd(a.dataModel.CurrentConversation.ID, query))
	}
	return a, cmd
}

// searchPageSize mirrors the result window sizing in renderEventSearch
// so navigation keeps the selection visible.
func (a AppView) searchPageSize() int {
	availableLines := a.height - 16
	if availableLines < 3 {
		availableLines = 3
	}
	pageSize := availableLines / 6
	if pageSize < 1 {
		pageSize = 1
	}
	return pageSize
}
