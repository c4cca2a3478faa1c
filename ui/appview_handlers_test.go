package ui

import (
	"testing"

	"atui/timeline"
)

func TestYankGroupTextPlainContent(t *testing.T) {
	g := timeline.Group{Kind: timeline.GroupAssistant, Content: "All done.\n"}
	if got := yankGroupText(g); got != "All done." {
		t.Errorf("got %q, want %q", got, "All done.")
	}
}

func TestYankGroupTextIncludesToolLines(t *testing.T) {
	g := timeline.Group{
		Kind: timeline.GroupAssistant,
		ToolCalls: []timeline.ToolCall{
			{Name: "read_file", Status: timeline.ToolSuccess},
			{Name: "run_command", Status: timeline.ToolError},
		},
		Content: "Command failed, see above.",
	}

	want := "[success] read_file\n[error] run_command\nCommand failed, see above."
	if got := yankGroupText(g); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestYankGroupTextEmptyGroup(t *testing.T) {
	if got := yankGroupText(timeline.Group{}); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
