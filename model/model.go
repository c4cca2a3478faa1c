package model

import (
	"atui/config"
	"atui/storage"
	"atui/timeline"
)

// Model holds the core application data and business logic state
type Model struct {
	// Core dependencies
	Config        *config.Config
	Conversations *storage.ConversationStore
	Events        *storage.EventStore

	// Application data
	CurrentConversation *storage.Conversation
	Timeline            []timeline.Event
	Groups              []timeline.Group
	HasMoreAbove        bool
	TotalEvents         int

	// Replay state (nil when not replaying). ReplayCounter is
	// monotonic across runs so a cancelled run's in-flight tick never
	// matches a new one.
	Replay        *ReplayState
	ReplayCounter uint64

	// Runtime state (not UI)
	Streaming bool
	ViewMode  string
	Quitting  bool

	// Application metadata
	Version string
	License string
}

// NewModel creates a new Model with the given configuration
func NewModel(cfg *config.Config, conversations *storage.ConversationStore, events *storage.EventStore, lastConversation *storage.Conversation, version, license string) *Model {
	m := &Model{
		Config:              cfg,
		Conversations:       conversations,
		Events:              events,
		CurrentConversation: lastConversation,
		Timeline:            []timeline.Event{},
		Groups:              []timeline.Group{},
		ViewMode:            cfg.ViewMode,
		Version:             version,
		License:             license,
	}

	if config.DebugLog != nil && lastConversation != nil {
		config.DebugLog.Printf("[Model] NewModel: resuming conversation '%s' (%s)",
			lastConversation.Title, lastConversation.ID)
	}

	return m
}

// Regroup rebuilds the derived group list from the loaded timeline.
// Called after every timeline mutation; grouped view renders Groups,
// raw view renders Timeline directly.
func (m *Model) Regroup() {
	m.Groups = timeline.GroupEvents(m.Timeline)
}

// OldestLoadedSeq returns the seq of the oldest loaded event, or 0
// when nothing is loaded. It is the cursor for the next history page.
func (m *Model) OldestLoadedSeq() int64 {
	if len(m.Timeline) == 0 {
		return 0
	}
	return m.Timeline[0].Seq
}

// ItemCount returns the number of rows the active view mode produces.
func (m *Model) ItemCount() int {
	if m.ViewMode == config.ViewModeRaw {
		return len(m.Timeline)
	}
	return len(m.Groups)
}

// ToggleViewMode flips between grouped and raw timeline rendering.
func (m *Model) ToggleViewMode() {
	if m.ViewMode == config.ViewModeGrouped {
		m.ViewMode = config.ViewModeRaw
	} else {
		m.ViewMode = config.ViewModeGrouped
	}
}
