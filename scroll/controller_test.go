package scroll

import (
	"testing"
	"time"
)

var t0 = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func filledSnapshot() Snapshot {
	return Snapshot{
		Metrics:            Metrics{ScrollTop: 4, ScrollHeight: 120, ClientHeight: 30},
		FirstVisible:       2,
		FirstVisibleOffset: 4,
		ItemCount:          60,
		HasMore:            true,
		OldestSeq:          101,
	}
}

func TestNearBottom(t *testing.T) {
	tests := []struct {
		name      string
		m         Metrics
		threshold int
		want      bool
	}{
		{
			name:      "50 rows below viewport",
			m:         Metrics{ScrollTop: 550, ScrollHeight: 1000, ClientHeight: 400},
			threshold: 100,
			want:      true,
		},
		{
			name:      "200 rows below viewport",
			m:         Metrics{ScrollTop: 400, ScrollHeight: 1000, ClientHeight: 400},
			threshold: 100,
			want:      false,
		},
		{
			name:      "pinned to the bottom",
			m:         Metrics{ScrollTop: 90, ScrollHeight: 120, ClientHeight: 30},
			threshold: 6,
			want:      true,
		},
		{
			name:      "content shorter than viewport",
			m:         Metrics{ScrollTop: 0, ScrollHeight: 10, ClientHeight: 30},
			threshold: 6,
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NearBottom(tt.m, tt.threshold); got != tt.want {
				t.Errorf("NearBottom(%+v, %d): got %v, want %v", tt.m, tt.threshold, got, tt.want)
			}
		})
	}
}

func TestOnScrollTriggersPreload(t *testing.T) {
	cfg := DefaultConfig()
	s := NewState("conv-1", 60)

	s, eff := OnScroll(cfg, s, filledSnapshot(), t0)
	if eff.Request == nil {
		t.Fatal("expected a load request")
	}
	if eff.Request.ConversationID != "conv-1" {
		t.Errorf("request conversation: got %q, want %q", eff.Request.ConversationID, "conv-1")
	}
	if eff.Request.BeforeSeq != 101 {
		t.Errorf("request before seq: got %d, want 101", eff.Request.BeforeSeq)
	}
	if eff.Request.Limit != cfg.PageSize {
		t.Errorf("request limit: got %d, want %d", eff.Request.Limit, cfg.PageSize)
	}
	if eff.RevealIndicatorAfter != cfg.IndicatorDelay {
		t.Errorf("indicator delay: got %v, want %v", eff.RevealIndicatorAfter, cfg.IndicatorDelay)
	}
	if eff.ClearLoadingAfter != cfg.LoadClearAfter {
		t.Errorf("clear delay: got %v, want %v", eff.ClearLoadingAfter, cfg.LoadClearAfter)
	}
	if s.Phase != PreloadTriggered {
		t.Errorf("phase: got %v, want %v", s.Phase, PreloadTriggered)
	}
	if s.AnchorIndex != 2 {
		t.Errorf("anchor index: got %d, want 2", s.AnchorIndex)
	}
	if s.AnchorOffset != 0 {
		t.Errorf("anchor offset: got %d, want 0", s.AnchorOffset)
	}
	if s.PreviousItemCount != 60 {
		t.Errorf("previous count: got %d, want 60", s.PreviousItemCount)
	}
}

func TestOnScrollPreconditions(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name   string
		mutate func(*State, *Snapshot)
	}{
		{
			name: "already loading",
			mutate: func(s *State, _ *Snapshot) {
				s.Phase = PreloadTriggered
			},
		},
		{
			name: "restoring",
			mutate: func(s *State, _ *Snapshot) {
				s.Phase = Restoring
			},
		},
		{
			name: "no more history",
			mutate: func(_ *State, snap *Snapshot) {
				snap.HasMore = false
			},
		},
		{
			name: "empty list",
			mutate: func(_ *State, snap *Snapshot) {
				snap.ItemCount = 0
			},
		},
		{
			name: "far from the top with a filled viewport",
			mutate: func(_ *State, snap *Snapshot) {
				snap.FirstVisible = 20
				snap.Metrics.ScrollTop = 40
				snap.FirstVisibleOffset = 40
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState("conv-1", 60)
			snap := filledSnapshot()
			tt.mutate(&s, &snap)

			_, eff := OnScroll(cfg, s, snap, t0)
			if eff.Request != nil {
				t.Error("expected no load request")
			}
		})
	}
}

func TestOnScrollUnfilledViewportStillLoads(t *testing.T) {
	cfg := DefaultConfig()
	s := NewState("conv-1", 3)
	snap := Snapshot{
		Metrics:      Metrics{ScrollTop: 0, ScrollHeight: 6, ClientHeight: 30},
		FirstVisible: 20, // above the index threshold on purpose
		ItemCount:    3,
		HasMore:      true,
		OldestSeq:    55,
	}

	_, eff := OnScroll(cfg, s, snap, t0)
	if eff.Request == nil {
		t.Fatal("expected a load request while the viewport is unfilled")
	}
}

func TestOnScrollDebounce(t *testing.T) {
	cfg := DefaultConfig()
	s := NewState("conv-1", 60)

	s, eff := OnScroll(cfg, s, filledSnapshot(), t0)
	if eff.Request == nil {
		t.Fatal("first trigger should fire")
	}

	// Simulate the first load finishing immediately.
	s, _ = OnLoadCompleted(s, Completion{ConversationID: "conv-1", Generation: s.Generation, Added: 0})

	_, eff = OnScroll(cfg, s, filledSnapshot(), t0.Add(100*time.Millisecond))
	if eff.Request != nil {
		t.Error("second trigger within the debounce window should not fire")
	}

	_, eff = OnScroll(cfg, s, filledSnapshot(), t0.Add(400*time.Millisecond))
	if eff.Request == nil {
		t.Error("trigger after the debounce window should fire")
	}
}

func TestLoadCompletionAndExactRestore(t *testing.T) {
	cfg := DefaultConfig()
	// 60 items of 2 rows; viewport 30 rows; scrolled to row 5 so the
	// first visible item (index 2, rows 4-5) pokes one row above.
	s := NewState("conv-1", 60)
	snap := filledSnapshot()
	snap.Metrics.ScrollTop = 5
	snap.FirstVisible = 2
	snap.FirstVisibleOffset = 4

	s, eff := OnScroll(cfg, s, snap, t0)
	if eff.Request == nil {
		t.Fatal("expected a load request")
	}
	if s.AnchorOffset != -1 {
		t.Fatalf("anchor offset: got %d, want -1", s.AnchorOffset)
	}

	s, ok := OnLoadCompleted(s, Completion{
		ConversationID: "conv-1",
		Generation:     eff.Request.Generation,
		Added:          50,
	})
	if !ok {
		t.Fatal("completion should be accepted")
	}
	if s.Phase != Restoring {
		t.Fatalf("phase: got %v, want %v", s.Phase, Restoring)
	}
	if s.AnchorIndex != 52 {
		t.Errorf("rebased anchor index: got %d, want 52", s.AnchorIndex)
	}

	// 50 new items of 2 rows shift the anchored item to row 104.
	after := Metrics{ScrollTop: 5, ScrollHeight: 220, ClientHeight: 30}
	s, eff = RestoreScrollPosition(s, 104, after)
	if eff.SetScrollTop == nil {
		t.Fatal("expected a scroll position")
	}
	if got := *eff.SetScrollTop; got != 105 {
		t.Errorf("restored scroll top: got %d, want 105", got)
	}
	// The anchored item sits at the captured offset again.
	if got := 104 - *eff.SetScrollTop; got != s.AnchorOffset {
		t.Errorf("anchor offset after restore: got %d, want %d", got, s.AnchorOffset)
	}
	if s.Phase != Idle {
		t.Errorf("phase: got %v, want %v", s.Phase, Idle)
	}
}

func TestRestoreScrollPositionClamps(t *testing.T) {
	s := NewState("conv-1", 10)
	s.Phase = Restoring
	s.AnchorOffset = 5

	_, eff := RestoreScrollPosition(s, 2, Metrics{ScrollTop: 0, ScrollHeight: 100, ClientHeight: 30})
	if eff.SetScrollTop == nil {
		t.Fatal("expected a scroll position")
	}
	if got := *eff.SetScrollTop; got != 0 {
		t.Errorf("clamped scroll top: got %d, want 0", got)
	}

	s.Phase = Restoring
	s.AnchorOffset = -90
	_, eff = RestoreScrollPosition(s, 50, Metrics{ScrollTop: 0, ScrollHeight: 100, ClientHeight: 30})
	if got := *eff.SetScrollTop; got != 70 {
		t.Errorf("clamped scroll top: got %d, want max 70", got)
	}
}

func TestStaleCompletionsRejected(t *testing.T) {
	cfg := DefaultConfig()
	s := NewState("conv-1", 60)
	s, eff := OnScroll(cfg, s, filledSnapshot(), t0)
	if eff.Request == nil {
		t.Fatal("expected a load request")
	}

	tests := []struct {
		name string
		comp Completion
	}{
		{
			name: "wrong conversation",
			comp: Completion{ConversationID: "conv-2", Generation: s.Generation, Added: 10},
		},
		{
			name: "stale generation",
			comp: Completion{ConversationID: "conv-1", Generation: s.Generation - 1, Added: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, ok := OnLoadCompleted(s, tt.comp)
			if ok {
				t.Fatal("stale completion should be rejected")
			}
			if next != s {
				t.Error("state changed by a rejected completion")
			}
		})
	}
}

func TestLoadTimeout(t *testing.T) {
	cfg := DefaultConfig()
	s := NewState("conv-1", 60)
	s, eff := OnScroll(cfg, s, filledSnapshot(), t0)
	gen := eff.Request.Generation

	s = OnLoadTimeout(s, gen)
	if s.Loading() {
		t.Fatal("timeout should clear the loading phase")
	}

	// The straggling completion changes nothing.
	next, ok := OnLoadCompleted(s, Completion{ConversationID: "conv-1", Generation: gen, Added: 10})
	if ok {
		t.Error("completion after timeout should be rejected")
	}
	if next != s {
		t.Error("state changed by a rejected completion")
	}
}

func TestLoadTimeoutFromOlderRequestIgnored(t *testing.T) {
	cfg := DefaultConfig()
	s := NewState("conv-1", 60)
	s, eff := OnScroll(cfg, s, filledSnapshot(), t0)
	oldGen := eff.Request.Generation

	// The first load completes and a second one fires.
	s, _ = OnLoadCompleted(s, Completion{ConversationID: "conv-1", Generation: oldGen, Added: 0})
	s, eff = OnScroll(cfg, s, filledSnapshot(), t0.Add(cfg.Debounce))
	if eff.Request == nil {
		t.Fatal("second load should fire")
	}

	// The first request's timer must not clear the second request.
	s = OnLoadTimeout(s, oldGen)
	if !s.Loading() {
		t.Error("stale timer cleared an in-flight load")
	}
}

func TestIndicatorDelay(t *testing.T) {
	cfg := DefaultConfig()
	s := NewState("conv-1", 60)
	s, eff := OnScroll(cfg, s, filledSnapshot(), t0)
	gen := eff.Request.Generation

	s = OnIndicatorDelay(s, gen)
	if !s.ShowIndicator() {
		t.Fatal("indicator should reveal while the load is in flight")
	}

	// A fast load never flashes the spinner: completion first, then the
	// delayed reveal arrives and must do nothing.
	s2 := NewState("conv-1", 60)
	s2, eff = OnScroll(cfg, s2, filledSnapshot(), t0)
	gen = eff.Request.Generation
	s2, _ = OnLoadCompleted(s2, Completion{ConversationID: "conv-1", Generation: gen, Added: 0})
	s2 = OnIndicatorDelay(s2, gen)
	if s2.ShowIndicator() {
		t.Error("indicator revealed after the load already completed")
	}
}

func TestOnTailAppend(t *testing.T) {
	cfg := DefaultConfig()
	nearBottom := Metrics{ScrollTop: 90, ScrollHeight: 120, ClientHeight: 30}
	farFromBottom := Metrics{ScrollTop: 0, ScrollHeight: 120, ClientHeight: 30}

	tests := []struct {
		name       string
		streaming  bool
		scrolledUp bool
		m          Metrics
		wantBottom bool
		wantBelow  bool
	}{
		{name: "streaming follows the tail", streaming: true, m: farFromBottom, wantBottom: true},
		{name: "streaming with the user scrolled away holds", streaming: true, scrolledUp: true, m: farFromBottom, wantBelow: true},
		{name: "near bottom follows the tail", m: nearBottom, wantBottom: true},
		{name: "far from bottom holds and flags new content", m: farFromBottom, wantBelow: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState("conv-1", 60)
			s.Streaming = tt.streaming
			s.UserScrolledUp = tt.scrolledUp

			s, eff := OnTailAppend(cfg, s, tt.m, 61)
			if eff.ScrollToBottom != tt.wantBottom {
				t.Errorf("scroll to bottom: got %v, want %v", eff.ScrollToBottom, tt.wantBottom)
			}
			if eff.NewBelow != tt.wantBelow {
				t.Errorf("new below: got %v, want %v", eff.NewBelow, tt.wantBelow)
			}
			if s.PreviousItemCount != 61 {
				t.Errorf("previous count: got %d, want 61", s.PreviousItemCount)
			}
		})
	}

	t.Run("no growth does nothing", func(t *testing.T) {
		s := NewState("conv-1", 60)
		_, eff := OnTailAppend(cfg, s, nearBottom, 60)
		if eff.ScrollToBottom || eff.NewBelow {
			t.Error("expected no effects without growth")
		}
	})
}

func TestUserScrollAwayOverride(t *testing.T) {
	cfg := DefaultConfig()
	s := NewState("conv-1", 60)
	s = OnStreamingChanged(s, true)

	away := filledSnapshot()
	away.Metrics = Metrics{ScrollTop: 10, ScrollHeight: 120, ClientHeight: 30}
	away.FirstVisible = 5
	away.FirstVisibleOffset = 10
	away.HasMore = false

	s, _ = OnScroll(cfg, s, away, t0)
	if !s.UserScrolledUp {
		t.Fatal("scrolling away from the bottom while streaming should set the override")
	}

	back := away
	back.Metrics = Metrics{ScrollTop: 90, ScrollHeight: 120, ClientHeight: 30}
	s, _ = OnScroll(cfg, s, back, t0.Add(time.Second))
	if s.UserScrolledUp {
		t.Error("returning near the bottom should clear the override")
	}

	s, _ = OnScroll(cfg, s, away, t0.Add(2*time.Second))
	if !s.UserScrolledUp {
		t.Fatal("override should set again after scrolling away")
	}
	s = OnStreamingChanged(s, false)
	if s.UserScrolledUp {
		t.Error("stream end should clear the override unconditionally")
	}
}

func TestOnConversationChanged(t *testing.T) {
	cfg := DefaultConfig()
	s := NewState("conv-1", 60)
	s, eff := OnScroll(cfg, s, filledSnapshot(), t0)
	if eff.Request == nil {
		t.Fatal("expected a load request")
	}
	oldGen := s.Generation

	s, eff = OnConversationChanged(s, "conv-2", 25)
	if s.ConversationID != "conv-2" {
		t.Errorf("conversation: got %q, want %q", s.ConversationID, "conv-2")
	}
	if s.PreviousItemCount != 25 {
		t.Errorf("previous count: got %d, want 25", s.PreviousItemCount)
	}
	if s.Phase != Idle {
		t.Errorf("phase: got %v, want %v", s.Phase, Idle)
	}
	if s.Generation <= oldGen {
		t.Errorf("generation must advance: got %d, had %d", s.Generation, oldGen)
	}
	if !eff.ScrollToBottom {
		t.Error("expected a jump to the last item")
	}

	// No restore logic fires on the first render of the new list.
	next, restoreEff := RestoreScrollPosition(s, 0, Metrics{ScrollTop: 0, ScrollHeight: 50, ClientHeight: 30})
	if restoreEff.SetScrollTop != nil {
		t.Error("restore fired after a conversation switch")
	}
	if next != s {
		t.Error("state changed by a no-op restore")
	}

	// The old conversation's completion dies on arrival.
	_, ok := OnLoadCompleted(s, Completion{ConversationID: "conv-1", Generation: oldGen, Added: 10})
	if ok {
		t.Error("completion for the previous conversation was accepted")
	}

	s, eff = OnConversationChanged(s, "conv-3", 0)
	if eff.ScrollToBottom {
		t.Error("empty conversation should not jump")
	}
	if s.PreviousItemCount != 0 {
		t.Errorf("previous count: got %d, want 0", s.PreviousItemCount)
	}
}

func TestStreamingPhase(t *testing.T) {
	s := NewState("conv-1", 10)
	s = OnStreamingChanged(s, true)
	if s.Phase != StreamingFollow {
		t.Errorf("phase: got %v, want %v", s.Phase, StreamingFollow)
	}
	s = OnStreamingChanged(s, false)
	if s.Phase != Idle {
		t.Errorf("phase: got %v, want %v", s.Phase, Idle)
	}

	// A load in flight keeps its phase across streaming changes.
	s.Phase = PreloadTriggered
	s = OnStreamingChanged(s, true)
	if s.Phase != PreloadTriggered {
		t.Errorf("phase: got %v, want %v", s.Phase, PreloadTriggered)
	}
	s = OnLoadTimeout(s, s.Generation)
	if s.Phase != StreamingFollow {
		t.Errorf("phase after timeout while streaming: got %v, want %v", s.Phase, StreamingFollow)
	}
}
