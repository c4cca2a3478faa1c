// Package scroll owns the pagination and anchor state of a windowed
// timeline list. All transitions are pure functions over State so the
// rules can be tested without a terminal; the UI layer applies the
// returned Effects (start a load, move the viewport, schedule timers).
package scroll

import "time"

// Phase is the load/restore lifecycle of one mounted list.
type Phase int

const (
	// Idle: no load in flight.
	Idle Phase = iota
	// PreloadTriggered: a load request was emitted; the indicator is
	// held back so fast loads never flash a spinner.
	PreloadTriggered
	// LoadingIndicatorVisible: the load outlived the indicator delay.
	LoadingIndicatorVisible
	// Restoring: items were prepended; the anchor has not been
	// reapplied yet.
	Restoring
	// StreamingFollow: live events are arriving and the viewport
	// re-anchors to the tail on every append.
	StreamingFollow
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case PreloadTriggered:
		return "preload"
	case LoadingIndicatorVisible:
		return "loading"
	case Restoring:
		return "restoring"
	case StreamingFollow:
		return "following"
	}
	return "unknown"
}

// Metrics is the viewport geometry in rows, mirroring the classic
// scrollTop/scrollHeight/clientHeight triple.
type Metrics struct {
	ScrollTop    int
	ScrollHeight int
	ClientHeight int
}

// NearBottom reports whether fewer than threshold rows of content sit
// below the viewport.
func NearBottom(m Metrics, threshold int) bool {
	return m.ScrollHeight-m.ScrollTop-m.ClientHeight < threshold
}

// MaxScrollTop returns the largest valid scroll position for m.
func MaxScrollTop(m Metrics) int {
	max := m.ScrollHeight - m.ClientHeight
	if max < 0 {
		return 0
	}
	return max
}

// Config carries the controller's tunables.
type Config struct {
	// PreloadThreshold: scrolling the first visible item under this
	// index requests older history.
	PreloadThreshold int
	// Debounce is the minimum gap between two load triggers.
	Debounce time.Duration
	// NearBottomRows is the near-bottom threshold in rows.
	NearBottomRows int
	// IndicatorDelay holds the loading indicator back after a trigger.
	IndicatorDelay time.Duration
	// LoadClearAfter force-clears the loading phase when no completion
	// arrived, so the list never wedges on a lost request.
	LoadClearAfter time.Duration
	// PageSize is how many events one load request asks for.
	PageSize int
}

func DefaultConfig() Config {
	return Config{
		PreloadThreshold: 8,
		Debounce:         300 * time.Millisecond,
		NearBottomRows:   6,
		IndicatorDelay:   300 * time.Millisecond,
		LoadClearAfter:   500 * time.Millisecond,
		PageSize:         50,
	}
}

// LoadRequest identifies one request for older history. Generation and
// ConversationID let completions from abandoned requests be rejected
// outright instead of relying on timing.
type LoadRequest struct {
	ConversationID string
	Generation     uint64
	BeforeSeq      int64
	Limit          int
}

// Completion reports the outcome of a LoadRequest back to the
// controller.
type Completion struct {
	ConversationID string
	Generation     uint64
	Added          int
}

// Snapshot is what the controller can see of the mounted list at one
// update: geometry plus history availability. FirstVisibleOffset is
// the first visible item's first row in content coordinates.
type Snapshot struct {
	Metrics            Metrics
	FirstVisible       int
	FirstVisibleOffset int
	ItemCount          int
	HasMore            bool
	OldestSeq          int64
}

// State is the whole scroll/pagination state of one conversation's
// list. It is owned by the UI model and replaced, never shared.
type State struct {
	ConversationID string
	Generation     uint64
	Phase          Phase

	PreviousItemCount int

	// Anchor captured when a load fires: the first visible item and
	// where its first row sat relative to the scroll position.
	AnchorIndex  int
	AnchorOffset int

	LastTrigger    time.Time
	UserScrolledUp bool
	Streaming      bool
}

// NewState returns the state for a freshly mounted conversation list.
func NewState(conversationID string, itemCount int) State {
	return State{
		ConversationID:    conversationID,
		Generation:        1,
		Phase:             Idle,
		PreviousItemCount: itemCount,
	}
}

// Loading reports whether a load request is outstanding.
func (s State) Loading() bool {
	return s.Phase == PreloadTriggered || s.Phase == LoadingIndicatorVisible
}

// ShowIndicator reports whether the loading row should render.
func (s State) ShowIndicator() bool {
	return s.Phase == LoadingIndicatorVisible
}

// Effects is what a transition asks the UI layer to do. Zero value
// means nothing.
type Effects struct {
	// Request, when set, asks the host to start a cancellable load.
	Request *LoadRequest
	// SetScrollTop, when set, is an absolute clamped scroll position.
	SetScrollTop *int
	// ScrollToBottom jumps to the last item.
	ScrollToBottom bool
	// NewBelow surfaces the new-content affordance instead of moving.
	NewBelow bool
	// RevealIndicatorAfter and ClearLoadingAfter schedule the timer
	// messages feeding OnIndicatorDelay and OnLoadTimeout.
	RevealIndicatorAfter time.Duration
	ClearLoadingAfter    time.Duration
}

// OnScroll runs after every viewport movement and after any resize or
// refill that changes geometry. It maintains the streaming override
// flag and decides whether to request older history.
func OnScroll(cfg Config, s State, snap Snapshot, now time.Time) (State, Effects) {
	if s.Streaming {
		s.UserScrolledUp = !NearBottom(snap.Metrics, cfg.NearBottomRows)
	}

	if s.Loading() || s.Phase == Restoring {
		return s, Effects{}
	}
	if !snap.HasMore || snap.ItemCount == 0 {
		return s, Effects{}
	}
	underThreshold := snap.FirstVisible >= 0 && snap.FirstVisible < cfg.PreloadThreshold
	unfilled := snap.Metrics.ScrollHeight <= snap.Metrics.ClientHeight
	if !underThreshold && !unfilled {
		return s, Effects{}
	}
	if !s.LastTrigger.IsZero() && now.Sub(s.LastTrigger) < cfg.Debounce {
		return s, Effects{}
	}

	// Each request mints a generation, so completions and timer
	// messages from any earlier request no longer match.
	s.Generation++
	s.AnchorIndex = snap.FirstVisible
	s.AnchorOffset = snapAnchorOffset(snap)
	s.PreviousItemCount = snap.ItemCount
	s.LastTrigger = now
	s.Phase = PreloadTriggered

	return s, Effects{
		Request: &LoadRequest{
			ConversationID: s.ConversationID,
			Generation:     s.Generation,
			BeforeSeq:      snap.OldestSeq,
			Limit:          cfg.PageSize,
		},
		RevealIndicatorAfter: cfg.IndicatorDelay,
		ClearLoadingAfter:    cfg.LoadClearAfter,
	}
}

// snapAnchorOffset is where the first visible item's first row sits
// relative to the scroll position. Zero or negative: an item scrolled
// partway off the top has a negative offset.
func snapAnchorOffset(snap Snapshot) int {
	return snap.FirstVisibleOffset - snap.Metrics.ScrollTop
}

// OnIndicatorDelay fires when the indicator delay elapses for the
// request of the given generation. The spinner only appears when that
// same request is still in flight.
func OnIndicatorDelay(s State, generation uint64) State {
	if s.Generation == generation && s.Phase == PreloadTriggered {
		s.Phase = LoadingIndicatorVisible
	}
	return s
}

// OnLoadTimeout is the last-resort unblock for the request of the
// given generation: if it neither completed nor was superseded, clear
// the loading phase. A completion straggling in afterwards fails the
// Loading check in OnLoadCompleted and changes nothing.
func OnLoadTimeout(s State, generation uint64) State {
	if s.Generation != generation || !s.Loading() {
		return s
	}
	s.Phase = s.idlePhase()
	return s
}

// OnLoadCompleted accepts or rejects a finished load. Stale
// completions, wrong conversation or wrong generation, leave the state
// untouched. An accepted completion rebases the anchor past the
// prepended items and enters Restoring until the position is reapplied.
func OnLoadCompleted(s State, comp Completion) (State, bool) {
	if comp.ConversationID != s.ConversationID || comp.Generation != s.Generation {
		return s, false
	}
	if !s.Loading() {
		return s, false
	}
	if comp.Added <= 0 {
		s.Phase = s.idlePhase()
		return s, true
	}
	s.AnchorIndex += comp.Added
	s.PreviousItemCount += comp.Added
	s.Phase = Restoring
	return s, true
}

// RestoreScrollPosition computes the scroll position that puts the
// anchored item back at its captured offset, clamped to valid bounds.
// anchorRow is the anchored item's first row after the prepend.
func RestoreScrollPosition(s State, anchorRow int, m Metrics) (State, Effects) {
	if s.Phase != Restoring {
		return s, Effects{}
	}
	top := anchorRow - s.AnchorOffset
	if top < 0 {
		top = 0
	}
	if max := MaxScrollTop(m); top > max {
		top = max
	}
	s.Phase = s.idlePhase()
	return s, Effects{SetScrollTop: &top}
}

// OnTailAppend handles item-count growth at the tail. m is the
// geometry from before the append. Auto-scroll happens while streaming
// unless the user scrolled away, or when the viewport was already near
// the bottom; otherwise the position holds and the new-content
// affordance shows.
func OnTailAppend(cfg Config, s State, m Metrics, newCount int) (State, Effects) {
	added := newCount - s.PreviousItemCount
	if added <= 0 {
		return s, Effects{}
	}
	s.PreviousItemCount = newCount

	if s.Streaming && !s.UserScrolledUp {
		return s, Effects{ScrollToBottom: true}
	}
	if NearBottom(m, cfg.NearBottomRows) {
		return s, Effects{ScrollToBottom: true}
	}
	return s, Effects{NewBelow: true}
}

// OnConversationChanged resets everything for a different conversation.
// The previous count seeds to the new count so no restore logic fires
// on the first render, and the generation advances so in-flight loads
// for the old conversation die on arrival.
func OnConversationChanged(s State, conversationID string, itemCount int) (State, Effects) {
	next := State{
		ConversationID:    conversationID,
		Generation:        s.Generation + 1,
		Phase:             Idle,
		PreviousItemCount: itemCount,
	}
	return next, Effects{ScrollToBottom: itemCount > 0}
}

// OnStreamingChanged tracks live-replay state. Stream end clears the
// scrolled-away override unconditionally.
func OnStreamingChanged(s State, streaming bool) State {
	s.Streaming = streaming
	if streaming {
		if s.Phase == Idle {
			s.Phase = StreamingFollow
		}
		return s
	}
	s.UserScrolledUp = false
	if s.Phase == StreamingFollow {
		s.Phase = Idle
	}
	return s
}

// idlePhase is what "no load in flight" means for the current
// streaming mode.
func (s State) idlePhase() Phase {
	if s.Streaming {
		return StreamingFollow
	}
	return Idle
}
