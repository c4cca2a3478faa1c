package ui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"atui/config"
	appmodel "atui/model"
	"atui/scroll"
	"atui/timeline"
)

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	// Update history spinner while the loading indicator is visible
	if a.scrollState.ShowIndicator() {
		a.loadingSpinner, cmd = a.loadingSpinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Update import spinner if processing or cleaning up
	if a.importPicker.Processing || a.importPicker.CleaningUp {
		a.importPicker.Spinner, cmd = a.importPicker.Spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if a.exportingConversation || a.exportCleaningUp {
		a.exportSpinner, cmd = a.exportSpinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Update data export spinner if exporting or cleaning up
	if a.exportingDataDir || a.dataExportCleaningUp {
		a.dataExportSpinner, cmd = a.dataExportSpinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Update file picker if active (needs to receive ALL message types EXCEPT KeyMsg)
	// KeyMsg is handled in handleImportPickerMode to check DidSelectFile before updating
	if a.importPicker.Active && !a.importPicker.Processing && !a.importPicker.CleaningUp {
		switch msg.(type) {
		case tea.KeyMsg:
			// Skip - handled in handleImportPickerMode
		default:
			a.importPicker.Picker, cmd = a.importPicker.Picker.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

		// Reserve space for title (1 line), separator (1 line), and status bar (1 line)
		a.timeline.SetSize(a.width, a.height-3)
		a.ready = true
		a.updateViewportContent()

		// A resize can uncover the preload threshold
		s, eff := scroll.OnScroll(a.scrollConfig(), a.scrollState, a.snapshot(), time.Now())
		a.scrollState = s
		cmds = append(cmds, a.applyScrollEffects(eff)...)

		return a, tea.Batch(cmds...)

	case tea.KeyMsg:
		return a.handleKeyPress(msg)

	case tea.MouseMsg:
		if a.modalActive() {
			return a, tea.Batch(cmds...)
		}
		switch msg.Type {
		case tea.MouseWheelUp:
			a.timeline.ScrollUp(3)
		case tea.MouseWheelDown:
			a.timeline.ScrollDown(3)
		default:
			return a, tea.Batch(cmds...)
		}
		if a.timeline.AtBottom() {
			a.newBelow = false
		}
		s, eff := scroll.OnScroll(a.scrollConfig(), a.scrollState, a.snapshot(), time.Now())
		a.scrollState = s
		cmds = append(cmds, a.applyScrollEffects(eff)...)
		return a, tea.Batch(cmds...)

	case conversationsListMsg:
		if msg.Err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[UI] Error fetching conversations: %v", msg.Err)
			}
			return a, tea.Batch(cmds...)
		}

		a.conversationList = msg.Conversations
		a.conversationCounts = msg.Counts
		if a.selectedConversationIdx >= len(msg.Conversations) {
			a.selectedConversationIdx = 0
		}

		// Select current conversation if the picker is open
		if a.showConversationPicker && a.dataModel.CurrentConversation != nil {
			for i, conv := range msg.Conversations {
				if conv.ID == a.dataModel.CurrentConversation.ID {
					a.selectedConversationIdx = i
					break
				}
			}
		}

		// Keep filter results in sync with the refreshed list
		if a.conversationFilterMode {
			a.filteredConversationList = filterConversations(msg.Conversations, a.conversationFilterInput.Value())
		}

		// A deleted or never-set current conversation falls back to the
		// most recent one
		if a.dataModel.CurrentConversation == nil && len(msg.Conversations) > 0 && !a.showConversationPicker {
			cmds = append(cmds, a.dataModel.LoadConversation(msg.Conversations[0].ID))
		}

		return a, tea.Batch(cmds...)

	case conversationLoadedMsg:
		if msg.Err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[UI] Error loading conversation: %v", msg.Err)
			}
			a.pendingJumpSeq = 0
			a.showAcknowledgeModal = true
			a.acknowledgeModalTitle = "⚠️  Load Failed"
			a.acknowledgeModalMsg = msg.Err.Error()
			a.acknowledgeModalType = ModalTypeError
			return a, tea.Batch(cmds...)
		}

		// Kill any history load still in flight for the old conversation
		if a.historyCancel != nil {
			a.historyCancel()
			a.historyCancel = nil
		}

		a.dataModel.CurrentConversation = msg.Conversation
		a.dataModel.Timeline = msg.Events
		a.dataModel.Regroup()
		a.dataModel.HasMoreAbove = msg.HasMore
		a.dataModel.TotalEvents = msg.Total
		a.dataModel.Replay = nil
		a.dataModel.Streaming = false

		a.showConversationPicker = false
		a.conversationFilterMode = false
		if a.conversationFilterInput.Focused() {
			a.conversationFilterInput.Blur()
		}

		a.updateViewportContent()

		conversationID := ""
		if msg.Conversation != nil {
			conversationID = msg.Conversation.ID
		}
		s, eff := scroll.OnConversationChanged(a.scrollState, conversationID, a.timeline.Count())
		a.scrollState = s
		a.newBelow = false
		cmds = append(cmds, a.applyScrollEffects(eff)...)

		// A full-history load carries a pending search jump
		if a.pendingJumpSeq > 0 {
			seq := a.pendingJumpSeq
			a.pendingJumpSeq = 0
			cmds = append(cmds, a.jumpToSeq(seq))
			return a, tea.Batch(cmds...)
		}

		// An under-filled viewport may still have history above
		s2, eff2 := scroll.OnScroll(a.scrollConfig(), a.scrollState, a.snapshot(), time.Now())
		a.scrollState = s2
		cmds = append(cmds, a.applyScrollEffects(eff2)...)

		return a, tea.Batch(cmds...)

	case historyPageMsg:
		if msg.Err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[UI] History page failed: %v", msg.Err)
			}
			s, _ := scroll.OnLoadCompleted(a.scrollState, scroll.Completion{
				ConversationID: msg.ConversationID,
				Generation:     msg.Generation,
			})
			a.scrollState = s
			return a, tea.Batch(cmds...)
		}

		if len(msg.Events) == 0 {
			s, ok := scroll.OnLoadCompleted(a.scrollState, scroll.Completion{
				ConversationID: msg.ConversationID,
				Generation:     msg.Generation,
			})
			a.scrollState = s
			if ok {
				a.dataModel.HasMoreAbove = msg.HasMore
			}
			return a, tea.Batch(cmds...)
		}

		// Stale pages (conversation switched or request superseded) are
		// dropped before touching the timeline
		if msg.ConversationID != a.scrollState.ConversationID ||
			msg.Generation != a.scrollState.Generation ||
			!a.scrollState.Loading() {
			return a, tea.Batch(cmds...)
		}

		a.historyCancel = nil
		a.dataModel.Timeline = append(append([]timeline.Event{}, msg.Events...), a.dataModel.Timeline...)
		a.dataModel.Regroup()
		a.dataModel.HasMoreAbove = msg.HasMore
		a.updateViewportContent()

		// The anchor moves in item units; grouping can fold the prepended
		// events into fewer items than events arrived
		added := a.timeline.Count() - a.scrollState.PreviousItemCount
		s, ok := scroll.OnLoadCompleted(a.scrollState, scroll.Completion{
			ConversationID: msg.ConversationID,
			Generation:     msg.Generation,
			Added:          added,
		})
		a.scrollState = s
		if !ok {
			return a, tea.Batch(cmds...)
		}

		anchorRow := a.timeline.OffsetOf(a.scrollState.AnchorIndex)
		s2, eff := scroll.RestoreScrollPosition(a.scrollState, anchorRow, a.timeline.Metrics())
		a.scrollState = s2
		cmds = append(cmds, a.applyScrollEffects(eff)...)

		if config.DebugLog != nil {
			config.DebugLog.Printf("[UI] History page applied: %d events, %d items, hasMore=%v",
				len(msg.Events), added, msg.HasMore)
		}

		// Keep filling until the threshold is satisfied
		s3, eff3 := scroll.OnScroll(a.scrollConfig(), a.scrollState, a.snapshot(), time.Now())
		a.scrollState = s3
		cmds = append(cmds, a.applyScrollEffects(eff3)...)

		return a, tea.Batch(cmds...)

	case indicatorDelayMsg:
		wasVisible := a.scrollState.ShowIndicator()
		a.scrollState = scroll.OnIndicatorDelay(a.scrollState, msg.Generation)
		if !wasVisible && a.scrollState.ShowIndicator() {
			cmds = append(cmds, a.loadingSpinner.Tick)
		}
		return a, tea.Batch(cmds...)

	case loadTimeoutMsg:
		a.scrollState = scroll.OnLoadTimeout(a.scrollState, msg.Generation)
		return a, tea.Batch(cmds...)

	case replayLoadedMsg:
		if msg.Err != nil {
			a.showAcknowledgeModal = true
			a.acknowledgeModalTitle = "⚠️  Replay Failed"
			a.acknowledgeModalMsg = msg.Err.Error()
			a.acknowledgeModalType = ModalTypeError
			return a, tea.Batch(cmds...)
		}
		if len(msg.Events) == 0 {
			a.showInfoModal = true
			a.infoModalTitle = "Replay"
			a.infoModalMsg = "This conversation has no events to replay."
			return a, tea.Batch(cmds...)
		}

		generation := a.dataModel.BeginReplay(msg.ConversationID, msg.Events)
		a.scrollState = scroll.OnStreamingChanged(a.scrollState, true)
		a.newBelow = false
		a.updateViewportContent()
		a.timeline.GotoTop()

		cmds = append(cmds, appmodel.TickReplay(a.replayInterval(), generation))
		return a, tea.Batch(cmds...)

	case replayTickMsg:
		r := a.dataModel.Replay
		if r == nil || msg.Generation != r.Generation {
			return a, tea.Batch(cmds...)
		}
		if r.Paused {
			// Resume re-arms the tick loop
			return a, tea.Batch(cmds...)
		}

		metricsBefore := a.timeline.Metrics()
		_, more := a.dataModel.AdvanceReplay()
		a.updateViewportContent()

		s, eff := scroll.OnTailAppend(a.scrollConfig(), a.scrollState, metricsBefore, a.timeline.Count())
		a.scrollState = s
		cmds = append(cmds, a.applyScrollEffects(eff)...)

		// Delta text grows the tail item without changing the item count
		if a.scrollState.Streaming && !a.scrollState.UserScrolledUp && !eff.NewBelow {
			a.timeline.GotoBottom()
		}

		if !more {
			a.dataModel.FinishReplay()
			a.scrollState = scroll.OnStreamingChanged(a.scrollState, false)
			a.updateViewportContent()
			return a, tea.Batch(cmds...)
		}

		cmds = append(cmds, appmodel.TickReplay(a.replayInterval(), msg.Generation))
		return a, tea.Batch(cmds...)

	case searchResultsMsg:
		if msg.Err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[UI] Event search failed: %v", msg.Err)
			}
			return a, tea.Batch(cmds...)
		}
		// Results for an outdated query are dropped
		if msg.Query != a.eventSearchInput.Value() {
			return a, tea.Batch(cmds...)
		}
		a.eventSearchResults = msg.Matches
		a.selectedSearchIdx = 0
		a.eventSearchScrollIdx = 0
		return a, tea.Batch(cmds...)

	case flashTickMsg:
		if a.highlightFlashCount > 0 && a.highlightFlashCount < 6 {
			a.highlightFlashCount++
			a.updateViewportContent()
			return a, tea.Tick(300*time.Millisecond, func(time.Time) tea.Msg {
				return flashTickMsg{}
			})
		}
		a.highlightedItemIdx = -1
		a.highlightFlashCount = 0
		a.updateViewportContent()
		return a, tea.Batch(cmds...)

	case conversationCreatedMsg:
		if msg.Err != nil {
			a.showAcknowledgeModal = true
			a.acknowledgeModalTitle = "⚠️  Create Failed"
			a.acknowledgeModalMsg = msg.Err.Error()
			a.acknowledgeModalType = ModalTypeError
			return a, tea.Batch(cmds...)
		}
		cmds = append(cmds,
			a.dataModel.FetchConversationList(),
			a.dataModel.LoadConversation(msg.Conversation.ID),
		)
		return a, tea.Batch(cmds...)

	case conversationRenamedMsg:
		// Success refreshes the list via conversationsListMsg; only
		// failures surface here
		if msg.Err != nil {
			a.showAcknowledgeModal = true
			a.acknowledgeModalTitle = "⚠️  Rename Failed"
			a.acknowledgeModalMsg = msg.Err.Error()
			a.acknowledgeModalType = ModalTypeError
		}
		return a, tea.Batch(cmds...)

	case conversationDeletedMsg:
		if msg.Err != nil {
			a.showAcknowledgeModal = true
			a.acknowledgeModalTitle = "⚠️  Delete Failed"
			a.acknowledgeModalMsg = msg.Err.Error()
			a.acknowledgeModalType = ModalTypeError
			return a, tea.Batch(cmds...)
		}

		if a.dataModel.CurrentConversation != nil && a.dataModel.CurrentConversation.ID == msg.ID {
			a.dataModel.CurrentConversation = nil
			a.dataModel.Timeline = []timeline.Event{}
			a.dataModel.Regroup()
			a.dataModel.HasMoreAbove = false
			a.dataModel.TotalEvents = 0
			a.dataModel.Replay = nil
			a.dataModel.Streaming = false
			a.updateViewportContent()

			s, eff := scroll.OnConversationChanged(a.scrollState, "", 0)
			a.scrollState = s
			a.newBelow = false
			cmds = append(cmds, a.applyScrollEffects(eff)...)
		}

		cmds = append(cmds, a.dataModel.FetchConversationList())
		return a, tea.Batch(cmds...)

	case conversationExportedMsg:
		if msg.Cancelled {
			a.exportingConversation = false
			a.exportCancelCtx = nil
			a.exportCancelFunc = nil

			if config.FileExists(a.exportTargetPath) {
				a.exportCleaningUp = true
				cmds = append(cmds,
					a.exportSpinner.Tick,
					a.dataModel.CleanupPartialFileCmd(a.exportTargetPath),
				)
				return a, tea.Batch(cmds...)
			}
			a.conversationExportMode = false
			a.exportTargetPath = ""
			return a, tea.Batch(cmds...)
		}

		if msg.Err != nil {
			a.exportingConversation = false
			a.exportCancelCtx = nil
			a.exportCancelFunc = nil
			a.conversationExportMode = false
			a.exportTargetPath = ""
			a.showAcknowledgeModal = true
			a.acknowledgeModalTitle = "⚠️  Export Failed"
			a.acknowledgeModalMsg = msg.Err.Error()
			a.acknowledgeModalType = ModalTypeError
			return a, tea.Batch(cmds...)
		}

		a.exportingConversation = false
		a.exportCancelCtx = nil
		a.exportCancelFunc = nil
		a.conversationExportSuccess = msg.Path
		a.exportTargetPath = ""
		return a, tea.Batch(cmds...)

	case exportCleanupDoneMsg:
		a.exportCleaningUp = false
		a.conversationExportMode = false
		a.exportTargetPath = ""
		return a, tea.Batch(cmds...)

	case transcriptImportedMsg:
		if msg.Cancelled {
			// The import runs in one transaction, so a cancel leaves
			// nothing behind to clean up
			a.importPicker.Processing = false
			a.importCancelCtx = nil
			a.importCancelFunc = nil
			return a, tea.Batch(cmds...)
		}

		if msg.Err != nil {
			a.importPicker.Reset()
			a.importCancelCtx = nil
			a.importCancelFunc = nil
			a.showAcknowledgeModal = true
			a.acknowledgeModalTitle = "⚠️  Import Failed"
			a.acknowledgeModalMsg = msg.Err.Error()
			a.acknowledgeModalType = ModalTypeError
			return a, tea.Batch(cmds...)
		}

		a.importPicker.Processing = false
		a.importCancelCtx = nil
		a.importCancelFunc = nil

		successMsg := fmt.Sprintf("Imported: %s\nEvents: %d", msg.Conversation.Title, msg.Imported)
		if msg.Skipped > 0 {
			successMsg += fmt.Sprintf(" (%d lines skipped)", msg.Skipped)
		}
		a.importPicker.Success = &successMsg

		cmds = append(cmds, a.dataModel.FetchConversationList())
		return a, tea.Batch(cmds...)

	case dataDirectoryCheckedMsg, dataDirectoryNotFoundMsg, settingsSaveMsg:
		return a.handleSettingsInput(msg)

	case dataExportedMsg:
		return a.handleSettingsInput(msg)

	case dataExportCleanupDoneMsg:
		return a.handleSettingsInput(msg)
	}

	return a, tea.Batch(cmds...)
}

// applyScrollEffects performs the side effects a scroll transition
// asked for and returns the commands to schedule.
func (a *AppView) applyScrollEffects(eff scroll.Effects) []tea.Cmd {
	var cmds []tea.Cmd

	if eff.Request != nil {
		if a.historyCancel != nil {
			a.historyCancel()
		}
		ctx, cancel := context.WithCancel(context.Background())
		a.historyCancel = cancel

		if config.DebugLog != nil {
			config.DebugLog.Printf("[UI] Requesting history: gen=%d beforeSeq=%d limit=%d",
				eff.Request.Generation, eff.Request.BeforeSeq, eff.Request.Limit)
		}

		cmds = append(cmds, a.dataModel.LoadOlderEvents(ctx, *eff.Request))
		if eff.RevealIndicatorAfter > 0 {
			cmds = append(cmds, appmodel.ScheduleIndicatorDelay(eff.RevealIndicatorAfter, eff.Request.Generation))
		}
		if eff.ClearLoadingAfter > 0 {
			cmds = append(cmds, appmodel.ScheduleLoadTimeout(eff.ClearLoadingAfter, eff.Request.Generation))
		}
	}

	if eff.SetScrollTop != nil {
		a.timeline.SetYOffset(*eff.SetScrollTop)
	}
	if eff.ScrollToBottom {
		a.timeline.GotoBottom()
		a.newBelow = false
	}
	if eff.NewBelow {
		a.newBelow = true
	}

	return cmds
}

// modalActive reports whether any modal owns the input right now
func (a AppView) modalActive() bool {
	return a.showInfoModal || a.showAcknowledgeModal || a.showHelp ||
		a.showSettings || a.showConversationPicker || a.importPicker.Active ||
		a.showEventSearch || a.showAbout
}

func (a AppView) replayInterval() time.Duration {
	if a.dataModel.Config != nil && a.dataModel.Config.ReplayInterval > 0 {
		return a.dataModel.Config.ReplayInterval
	}
	return 80 * time.Millisecond
}

// itemIndexOfSeq maps an event seq to the item index of the active view
// mode. Returns -1 when the event is not loaded.
func (a AppView) itemIndexOfSeq(seq int64) int {
	if a.dataModel.ViewMode == config.ViewModeRaw {
		for i, ev := range a.dataModel.Timeline {
			if ev.Seq == seq {
				return i
			}
		}
		return -1
	}
	for i, g := range a.dataModel.Groups {
		for _, ev := range g.Events {
			if ev.Seq == seq {
				return i
			}
		}
	}
	return -1
}

// jumpToSeq centers the viewport on the item holding the given event
// and starts the highlight flash.
func (a *AppView) jumpToSeq(seq int64) tea.Cmd {
	idx := a.itemIndexOfSeq(seq)
	if idx < 0 {
		return nil
	}

	a.highlightedItemIdx = idx
	a.highlightFlashCount = 1
	a.updateViewportContent()
	a.timeline.CenterOn(idx)

	return tea.Tick(300*time.Millisecond, func(time.Time) tea.Msg {
		return flashTickMsg{}
	})
}
