package ui

import (
	"testing"

	"atui/config"
	appmodel "atui/model"
	"atui/timeline"
)

func seqModel(viewMode string) *appmodel.Model {
	events := []timeline.Event{
		{ID: "e1", Type: timeline.TypeUserMessage, Seq: 10},
		{ID: "e2", Type: timeline.TypeThought, Seq: 11},
		{ID: "e3", Type: timeline.TypeAssistantMessage, Seq: 12},
		{ID: "e4", Type: timeline.TypeUserMessage, Seq: 13},
	}
	m := &appmodel.Model{
		Config:   &config.Config{},
		Timeline: events,
		ViewMode: viewMode,
	}
	m.Regroup()
	return m
}

func TestItemIndexOfSeqRawMode(t *testing.T) {
	a := AppView{dataModel: seqModel(config.ViewModeRaw)}

	tests := []struct {
		name string
		seq  int64
		want int
	}{
		{"first event", 10, 0},
		{"middle event", 11, 1},
		{"last event", 13, 3},
		{"unloaded seq", 99, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.itemIndexOfSeq(tt.seq); got != tt.want {
				t.Errorf("seq %d: got %d, want %d", tt.seq, got, tt.want)
			}
		})
	}
}

func TestItemIndexOfSeqGroupedMode(t *testing.T) {
	a := AppView{dataModel: seqModel(config.ViewModeGrouped)}

	// Groups: [user e1] [assistant e2+e3] [user e4].
	tests := []struct {
		name string
		seq  int64
		want int
	}{
		{"first user turn", 10, 0},
		{"thought inside assistant turn", 11, 1},
		{"assistant message", 12, 1},
		{"second user turn", 13, 2},
		{"unloaded seq", 99, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.itemIndexOfSeq(tt.seq); got != tt.want {
				t.Errorf("seq %d: got %d, want %d", tt.seq, got, tt.want)
			}
		})
	}
}
