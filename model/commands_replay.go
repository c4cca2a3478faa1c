package model

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"atui/config"
	"atui/timeline"
)

// ReplayState tracks an in-progress replay. The stored conversation is
// re-emitted into the visible timeline one event per tick, driving the
// same tail-append path live streaming would.
type ReplayState struct {
	ConversationID string
	Queue          []timeline.Event
	Next           int
	Paused         bool
	Generation     uint64

	// Accumulated text_delta content since the last text_start,
	// rendered with a trailing cursor while active
	TextBuffer string
	TextActive bool
}

// LoadReplay fetches every event of a conversation for replaying
func (m *Model) LoadReplay(conversationID string) tea.Cmd {
	if m.Events == nil {
		return nil
	}

	events := m.Events
	return func() tea.Msg {
		all, err := events.All(conversationID)
		return ReplayLoadedMsg{
			ConversationID: conversationID,
			Events:         all,
			Err:            err,
		}
	}
}

// BeginReplay resets the visible timeline and arms a new replay run.
// Returns the run's generation; ticks carrying any other generation
// are ignored, so a cancelled run's in-flight tick can't advance a
// new one.
func (m *Model) BeginReplay(conversationID string, events []timeline.Event) uint64 {
	m.ReplayCounter++

	m.Replay = &ReplayState{
		ConversationID: conversationID,
		Queue:          events,
		Generation:     m.ReplayCounter,
	}
	m.Timeline = []timeline.Event{}
	m.Regroup()
	m.HasMoreAbove = false
	m.TotalEvents = len(events)
	m.Streaming = true

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Replay] begin gen=%d conversation=%s events=%d",
			m.ReplayCounter, conversationID, len(events))
	}

	return m.ReplayCounter
}

// AdvanceReplay moves the next queued event into the visible timeline.
// Returns the event and whether any remain after it.
func (m *Model) AdvanceReplay() (timeline.Event, bool) {
	r := m.Replay
	if r == nil || r.Next >= len(r.Queue) {
		return timeline.Event{}, false
	}

	ev := r.Queue[r.Next]
	r.Next++

	switch ev.Type {
	case timeline.TypeTextStart:
		r.TextBuffer = ""
		r.TextActive = true
	case timeline.TypeTextDelta:
		r.TextBuffer += ev.Content
	case timeline.TypeTextEnd, timeline.TypeAssistantMessage:
		r.TextActive = false
	}

	m.Timeline = append(m.Timeline, ev)
	m.Regroup()

	return ev, r.Next < len(r.Queue)
}

// FinishReplay ends a completed run, leaving the fully replayed
// timeline in place
func (m *Model) FinishReplay() {
	if config.DebugLog != nil && m.Replay != nil {
		config.DebugLog.Printf("[Replay] finished gen=%d", m.Replay.Generation)
	}
	m.Replay = nil
	m.Streaming = false
}

// CancelReplay aborts a run and jumps straight to the complete
// timeline
func (m *Model) CancelReplay() {
	r := m.Replay
	if r == nil {
		return
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Replay] cancelled gen=%d at %d/%d", r.Generation, r.Next, len(r.Queue))
	}

	m.Timeline = append([]timeline.Event{}, r.Queue...)
	m.Regroup()
	m.Replay = nil
	m.Streaming = false
}

// ToggleReplayPause flips the paused flag. Returns the new state.
func (m *Model) ToggleReplayPause() bool {
	if m.Replay == nil {
		return false
	}
	m.Replay.Paused = !m.Replay.Paused
	return m.Replay.Paused
}

// TickReplay schedules the next replay step
func TickReplay(interval time.Duration, generation uint64) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return ReplayTickMsg{Generation: generation}
	})
}
