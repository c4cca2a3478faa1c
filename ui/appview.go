package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"atui/config"
	appmodel "atui/model"
	"atui/scroll"
	"atui/storage"
)

type AppView struct {
	// Reference to core data model
	dataModel *appmodel.Model

	// Main timeline list (windowed render over measured items)
	timeline TimelinePane

	// Window state
	width  int
	height int
	ready  bool

	showHelp  bool
	showAbout bool

	// Scroll/pagination controller state. Owned here, advanced through
	// the pure transition functions in the scroll package.
	scrollState scroll.State
	newBelow    bool

	// History loading indicator
	loadingSpinner spinner.Model
	historyCancel  context.CancelFunc

	// Conversation picker UI
	showConversationPicker    bool
	conversationList          []storage.Conversation
	conversationCounts        map[string]int
	selectedConversationIdx   int
	conversationRenameMode    bool
	conversationRenameInput   textinput.Model
	conversationFilterMode    bool
	conversationFilterInput   textinput.Model
	filteredConversationList  []storage.Conversation
	conversationExportMode    bool
	conversationExportInput   textinput.Model
	conversationExportSuccess string // Contains export path if successful, empty otherwise

	// Import transcript state
	importPicker     FilePickerState
	importCancelCtx  context.Context
	importCancelFunc context.CancelFunc

	// Export state
	exportingConversation bool
	exportSpinner         spinner.Model
	exportCancelCtx       context.Context
	exportCancelFunc      context.CancelFunc
	exportTargetPath      string
	exportCleaningUp      bool

	// Settings modal
	showSettings            bool
	settingsFields          []SettingField
	selectedSettingIdx      int
	settingsEditMode        bool
	settingsEditInput       textinput.Model
	settingsHasChanges      bool
	settingsConfirmExit     bool
	settingsLoadedInfo      string
	settingsSaveError       string
	settingsDataDirNotFound bool   // Show confirmation for creating new data directory
	settingsNewDataDirPath  string // Path of new data directory to create

	// Data export state
	dataExportMode       bool
	dataExportInput      textinput.Model
	exportingDataDir     bool
	dataExportSpinner    spinner.Model
	dataExportCancelCtx  context.Context
	dataExportCancelFunc context.CancelFunc
	dataExportTargetPath string
	dataExportCleaningUp bool
	dataExportSuccess    string // Contains export path if successful, empty otherwise

	// Delete confirmation state
	confirmDeleteConversation *storage.Conversation

	// Info modal state (for simple notifications/errors)
	showInfoModal  bool
	infoModalTitle string
	infoModalMsg   string

	// Acknowledge modal (for warnings/errors requiring only acknowledgement)
	showAcknowledgeModal  bool
	acknowledgeModalTitle string
	acknowledgeModalMsg   string
	acknowledgeModalType  ModalType

	// Event search modal
	showEventSearch      bool
	eventSearchInput     textinput.Model
	eventSearchResults   []storage.EventMatch
	selectedSearchIdx    int
	eventSearchScrollIdx int

	// Seq of a search jump target older than the loaded window; applied
	// once the full history arrives. Zero when no jump is pending.
	pendingJumpSeq int64

	// Search jump flash
	highlightedItemIdx  int
	highlightFlashCount int

	// RestartAfterQuit indicates ATUI should restart after quit completes
	// Used when the data directory changes in Settings
	RestartAfterQuit bool
}

func NewAppView(cfg *config.Config, conversations *storage.ConversationStore, events *storage.EventStore, lastConversation *storage.Conversation, version, license string) AppView {
	dataModel := appmodel.NewModel(cfg, conversations, events, lastConversation, version, license)

	importPicker := NewFilePickerState(FilePickerConfig{
		Title:          "Import Transcript",
		Mode:           FilePickerModeOpen,
		AllowedTypes:   []string{".jsonl"},
		StartDirectory: "",
		ShowHidden:     true,
		OperationType:  "Import",
	})

	conversationFilterInput := textinput.New()
	conversationFilterInput.Prompt = "Filter: "
	conversationFilterInput.CharLimit = 64

	conversationRenameInput := textinput.New()
	conversationRenameInput.CharLimit = 128

	eventSearchInput := textinput.New()
	eventSearchInput.Prompt = "Search: "
	eventSearchInput.CharLimit = 100

	settingsEditInput := textinput.New()
	settingsEditInput.CharLimit = 500

	loadingSpinner := spinner.New()
	loadingSpinner.Spinner = spinner.Dot
	loadingSpinner.Style = lipgloss.NewStyle().Foreground(accentColor)

	conversationID := ""
	if lastConversation != nil {
		conversationID = lastConversation.ID
	}

	return AppView{
		dataModel:                dataModel,
		timeline:                 NewTimelinePane(3),
		ready:                    false,
		showHelp:                 false,
		showAbout:                false,
		scrollState:              scroll.NewState(conversationID, 0),
		loadingSpinner:           loadingSpinner,
		importPicker:             importPicker,
		conversationFilterMode:   false,
		conversationFilterInput:  conversationFilterInput,
		conversationRenameInput:  conversationRenameInput,
		filteredConversationList: []storage.Conversation{},
		eventSearchInput:         eventSearchInput,
		settingsEditInput:        settingsEditInput,
		highlightedItemIdx:       -1,
	}
}

func (a AppView) Init() tea.Cmd {
	// Content renders after the first WindowSizeMsg fixes the width

	cmds := []tea.Cmd{
		a.dataModel.FetchConversationList(),
	}

	if a.dataModel.CurrentConversation != nil {
		cmds = append(cmds, a.dataModel.LoadConversation(a.dataModel.CurrentConversation.ID))
	}

	return tea.Batch(cmds...)
}

func (a AppView) View() string {
	if !a.ready {
		return "Loading ATUI..."
	}

	// Modal rendering order (top to bottom layers):
	// 1. Info / acknowledge modals (always on top)
	// 2. Help
	// 3. Settings
	// 4. Conversation picker (owns delete/import/export sub-states)
	// 5. Standalone import picker
	// 6. Event search
	// 7. About

	// Show info modal if active (highest priority)
	if a.showInfoModal {
		return RenderConfirmationModal(ConfirmationState{
			Active:  true,
			Title:   a.infoModalTitle,
			Message: a.infoModalMsg,
		}, a.width, a.height)
	}

	// Show acknowledge modal if active (warnings/errors requiring only acknowledgement)
	if a.showAcknowledgeModal {
		return RenderAcknowledgeModal(
			a.acknowledgeModalTitle,
			a.acknowledgeModalMsg,
			a.acknowledgeModalType,
			a.width,
			a.height,
		)
	}

	// Show help modal if toggled (top layer - can appear over other modals)
	if a.showHelp {
		return a.renderHelpModal(a.width, a.height)
	}

	// Show settings modal if toggled
	if a.showSettings {
		return renderSettings(a, a.settingsFields, a.selectedSettingIdx, a.settingsEditMode, a.settingsEditInput, a.settingsHasChanges, a.settingsConfirmExit, a.settingsLoadedInfo, a.settingsSaveError, a.dataExportMode, a.dataExportInput, a.exportingDataDir, a.dataExportCleaningUp, a.dataExportSpinner, a.dataExportSuccess, a.settingsDataDirNotFound, a.settingsNewDataDirPath, a.width, a.height)
	}

	// Show conversation picker if toggled
	if a.showConversationPicker {
		currentConversationID := ""
		if a.dataModel.CurrentConversation != nil {
			currentConversationID = a.dataModel.CurrentConversation.ID
		}
		return renderConversationPicker(a.conversationList, a.conversationCounts, a.selectedConversationIdx, currentConversationID, a.conversationRenameMode, a.conversationRenameInput, a.conversationExportMode, a.conversationExportInput, a.exportingConversation, a.exportCleaningUp, a.exportSpinner, a.conversationExportSuccess, a.importPicker, a.confirmDeleteConversation, a.conversationFilterMode, a.conversationFilterInput, a.filteredConversationList, a.width, a.height)
	}

	// Import opened from the main view renders without the picker
	if a.importPicker.Active {
		return RenderFilePickerModal(a.importPicker, a.width, a.height)
	}

	if a.showEventSearch {
		return renderEventSearch(a, a.eventSearchInput, a.eventSearchResults, a.selectedSearchIdx, a.eventSearchScrollIdx, a.width, a.height)
	}

	// Show about modal if toggled
	if a.showAbout {
		return renderAboutModal(a, a.width, a.height, a.dataModel.Version, a.dataModel.License)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		a.renderTitleBar(),
		"",
		a.timeline.View(),
		a.renderStatusBar(),
	)
}

// scrollConfig derives the controller tunables from live config
func (a AppView) scrollConfig() scroll.Config {
	cfg := scroll.DefaultConfig()
	if a.dataModel.Config != nil {
		cfg.PageSize = a.dataModel.Config.PageSize
		cfg.PreloadThreshold = a.dataModel.Config.PreloadThreshold
		cfg.NearBottomRows = a.dataModel.Config.NearBottomRows
	}
	return cfg
}

// snapshot captures what the controller is allowed to see of the list
func (a AppView) snapshot() scroll.Snapshot {
	first, offset := a.timeline.FirstVisible()
	return scroll.Snapshot{
		Metrics:            a.timeline.Metrics(),
		FirstVisible:       first,
		FirstVisibleOffset: offset,
		ItemCount:          a.timeline.Count(),
		HasMore:            a.dataModel.HasMoreAbove,
		OldestSeq:          a.dataModel.OldestLoadedSeq(),
	}
}

func (a AppView) getConversationList() []storage.Conversation {
	if a.conversationFilterMode && len(a.filteredConversationList) > 0 {
		return a.filteredConversationList
	}
	return a.conversationList
}

// formatKeyDisplay renders a modifier+key combination using the
// configured modifiers, e.g. ("primary", "U") -> "Alt+U".
func (a AppView) formatKeyDisplay(modifier, key string) string {
	kb := a.dataModel.Config.Keybindings
	if kb == nil {
		kb = config.DefaultKeybindings()
	}
	switch modifier {
	case "primary":
		return fmt.Sprintf("%s+%s", kb.PrimaryDisplay(), key)
	case "secondary":
		return fmt.Sprintf("%s+%s", kb.SecondaryDisplay(), key)
	}
	return key
}

func (a *AppView) closeAllModals() {
	a.showInfoModal = false
	a.showHelp = false
	a.showConversationPicker = false
	a.showEventSearch = false
	a.showSettings = false
	a.showAbout = false

	a.conversationRenameMode = false
	a.conversationExportMode = false
	a.conversationFilterMode = false
	a.confirmDeleteConversation = nil
	a.importPicker.Active = false

	a.settingsEditMode = false
	a.settingsConfirmExit = false

	a.dataExportMode = false

	if a.conversationRenameInput.Focused() {
		a.conversationRenameInput.Blur()
	}
	if a.conversationExportInput.Focused() {
		a.conversationExportInput.Blur()
	}
	if a.conversationFilterInput.Focused() {
		a.conversationFilterInput.Blur()
	}
	if a.eventSearchInput.Focused() {
		a.eventSearchInput.Blur()
	}
	if a.settingsEditInput.Focused() {
		a.settingsEditInput.Blur()
	}
	if a.dataExportInput.Focused() {
		a.dataExportInput.Blur()
	}
}

