package timeline

import (
	"reflect"
	"testing"
	"time"
)

var testBase = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

// seqEvents assigns sequence numbers and one-second-apart timestamps in
// slice order, matching how a store hands events to the adapter.
func seqEvents(evs ...Event) []Event {
	for i := range evs {
		evs[i].Seq = int64(i + 1)
		if evs[i].Timestamp.IsZero() {
			evs[i].Timestamp = testBase.Add(time.Duration(i) * time.Second)
		}
	}
	return evs
}

func userMsg(id, content string) Event {
	return Event{ID: id, Type: TypeUserMessage, Role: "user", Content: content}
}

func assistantMsg(id, content string) Event {
	return Event{ID: id, Type: TypeAssistantMessage, Role: "assistant", Content: content}
}

func thought(id, content string) Event {
	return Event{ID: id, Type: TypeThought, Content: content}
}

func act(id, tool, execID string) Event {
	return Event{ID: id, Type: TypeAct, ToolName: tool, ExecutionID: execID}
}

func observe(id, tool, execID, output string, isErr bool) Event {
	return Event{ID: id, Type: TypeObserve, ToolName: tool, ExecutionID: execID, ToolOutput: output, IsError: isErr}
}

func workPlan(id, status string, steps ...PlanStep) Event {
	return Event{ID: id, Type: TypeWorkPlan, Plan: &Plan{Steps: steps, Status: status}}
}

func TestGroupEventsEmpty(t *testing.T) {
	groups := GroupEvents(nil)
	if len(groups) != 0 {
		t.Fatalf("group count: got %d, want 0", len(groups))
	}
	groups = GroupEvents([]Event{})
	if len(groups) != 0 {
		t.Fatalf("group count: got %d, want 0", len(groups))
	}
}

func TestGroupEventsUserTurnStandsAlone(t *testing.T) {
	events := seqEvents(
		userMsg("u1", "list the files"),
		thought("t1", "I should run ls"),
	)

	groups := GroupEvents(events)
	if len(groups) != 2 {
		t.Fatalf("group count: got %d, want 2", len(groups))
	}
	if groups[0].Kind != GroupUser {
		t.Errorf("group 0 kind: got %q, want %q", groups[0].Kind, GroupUser)
	}
	if groups[0].Content != "list the files" {
		t.Errorf("group 0 content: got %q, want %q", groups[0].Content, "list the files")
	}
	if len(groups[0].Events) != 1 {
		t.Errorf("group 0 event count: got %d, want 1", len(groups[0].Events))
	}
	if groups[1].Kind != GroupAssistant {
		t.Errorf("group 1 kind: got %q, want %q", groups[1].Kind, GroupAssistant)
	}
	if !groups[1].Streaming {
		t.Error("trailing implicit group should still be streaming")
	}
}

func TestGroupEventsFullTurn(t *testing.T) {
	tests := []struct {
		name       string
		isErr      bool
		wantStatus string
	}{
		{name: "successful call", isErr: false, wantStatus: ToolSuccess},
		{name: "failed call", isErr: true, wantStatus: ToolError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := seqEvents(
				userMsg("u1", "what is in /tmp?"),
				thought("t1", "listing the directory"),
				act("a1", "bash", ""),
				observe("o1", "bash", "", "file.txt", tt.isErr),
				assistantMsg("m1", "There is one file."),
			)

			groups := GroupEvents(events)
			if len(groups) != 2 {
				t.Fatalf("group count: got %d, want 2", len(groups))
			}

			g := groups[1]
			if g.Kind != GroupAssistant {
				t.Errorf("kind: got %q, want %q", g.Kind, GroupAssistant)
			}
			if g.Content != "There is one file." {
				t.Errorf("content: got %q, want %q", g.Content, "There is one file.")
			}
			if len(g.Thoughts) != 1 || g.Thoughts[0] != "listing the directory" {
				t.Errorf("thoughts: got %v, want one entry", g.Thoughts)
			}
			if len(g.ToolCalls) != 1 {
				t.Fatalf("tool call count: got %d, want 1", len(g.ToolCalls))
			}
			tc := g.ToolCalls[0]
			if tc.Status != tt.wantStatus {
				t.Errorf("tool call status: got %q, want %q", tc.Status, tt.wantStatus)
			}
			if tt.isErr && tc.Error != "file.txt" {
				t.Errorf("tool call error: got %q, want %q", tc.Error, "file.txt")
			}
			if !tt.isErr && tc.Result != "file.txt" {
				t.Errorf("tool call result: got %q, want %q", tc.Result, "file.txt")
			}
			if g.Streaming {
				t.Error("completed group should not be streaming")
			}
			if len(g.Events) != 4 {
				t.Errorf("group event count: got %d, want 4", len(g.Events))
			}
		})
	}
}

func TestGroupEventsConcatReproducesInput(t *testing.T) {
	events := seqEvents(
		userMsg("u1", "run the report"),
		workPlan("p1", PlanPlanning, PlanStep{StepNumber: 1, Description: "gather"}),
		Event{ID: "s1", Type: TypeStepStart, StepIndex: 1, StepDescription: "gather"},
		thought("t1", "collecting inputs"),
		act("a1", "query", "ex-1"),
		observe("o1", "query", "ex-1", "42 rows", false),
		Event{ID: "s2", Type: TypeStepEnd, StepIndex: 1},
		Event{ID: "x1", Type: TypeTextDelta, Content: "partial"},
		assistantMsg("m1", "Report done."),
		userMsg("u2", "thanks"),
	)

	groups := GroupEvents(events)
	if len(groups) < 1 {
		t.Fatal("expected at least one group")
	}

	var flat []Event
	for _, g := range groups {
		flat = append(flat, g.Events...)
	}
	if !reflect.DeepEqual(flat, events) {
		t.Fatalf("concatenated group events do not reproduce input:\ngot  %d events\nwant %d events", len(flat), len(events))
	}
}

func TestGroupEventsIdempotent(t *testing.T) {
	events := seqEvents(
		userMsg("u1", "hello"),
		thought("t1", "greeting back"),
		act("a1", "clock", ""),
		observe("o1", "clock", "", "12:00", false),
		assistantMsg("m1", "Hello. It is noon."),
	)

	first := GroupEvents(events)
	second := GroupEvents(events)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("two calls over the same input produced different results")
	}
}

func TestGroupEventsDoesNotMutateInput(t *testing.T) {
	events := seqEvents(
		workPlan("p1", "bogus", PlanStep{StepNumber: 1, Description: "only step"}),
		Event{ID: "s1", Type: TypeStepStart, StepIndex: 1},
	)

	groups := GroupEvents(events)
	if len(groups) != 1 {
		t.Fatalf("group count: got %d, want 1", len(groups))
	}
	if got := groups[0].Plan.Status; got != PlanInProgress {
		t.Errorf("group plan status: got %q, want %q", got, PlanInProgress)
	}
	if got := groups[0].Plan.CurrentStep; got != 1 {
		t.Errorf("group plan current step: got %d, want 1", got)
	}

	// The input events keep their original payloads.
	if got := events[0].Plan.Status; got != "bogus" {
		t.Errorf("input plan status mutated: got %q, want %q", got, "bogus")
	}
	if got := events[0].Plan.CurrentStep; got != 0 {
		t.Errorf("input plan current step mutated: got %d, want 0", got)
	}
}

func TestGroupEventsPlanLastWriteWins(t *testing.T) {
	events := seqEvents(
		workPlan("p1", PlanPlanning, PlanStep{StepNumber: 1, Description: "draft"}),
		workPlan("p2", PlanCompleted, PlanStep{StepNumber: 1, Description: "draft"}, PlanStep{StepNumber: 2, Description: "ship"}),
	)

	groups := GroupEvents(events)
	if len(groups) != 1 {
		t.Fatalf("group count: got %d, want 1", len(groups))
	}
	plan := groups[0].Plan
	if plan == nil {
		t.Fatal("expected a plan on the group")
	}
	if plan.Status != PlanCompleted {
		t.Errorf("plan status: got %q, want %q", plan.Status, PlanCompleted)
	}
	if len(plan.Steps) != 2 {
		t.Errorf("plan step count: got %d, want 2", len(plan.Steps))
	}
}

func TestGroupEventsObserveMatching(t *testing.T) {
	tests := []struct {
		name         string
		events       []Event
		wantStatuses []string
	}{
		{
			name: "name match resolves only the most recent call",
			events: seqEvents(
				act("a1", "bash", ""),
				act("a2", "bash", ""),
				observe("o1", "bash", "", "done", false),
			),
			wantStatuses: []string{ToolRunning, ToolSuccess},
		},
		{
			name: "name mismatch with the most recent call resolves nothing",
			events: seqEvents(
				act("a1", "bash", ""),
				act("a2", "fetch", ""),
				observe("o1", "bash", "", "done", false),
			),
			wantStatuses: []string{ToolRunning, ToolRunning},
		},
		{
			name: "execution id reaches past a later call",
			events: seqEvents(
				act("a1", "bash", "ex-1"),
				act("a2", "bash", "ex-2"),
				observe("o1", "bash", "ex-1", "first done", false),
			),
			wantStatuses: []string{ToolSuccess, ToolRunning},
		},
		{
			name: "conflicting execution ids do not pair",
			events: seqEvents(
				act("a1", "bash", "ex-1"),
				observe("o1", "bash", "ex-2", "stray", false),
			),
			wantStatuses: []string{ToolRunning},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := GroupEvents(tt.events)
			if len(groups) != 1 {
				t.Fatalf("group count: got %d, want 1", len(groups))
			}
			calls := groups[0].ToolCalls
			if len(calls) != len(tt.wantStatuses) {
				t.Fatalf("tool call count: got %d, want %d", len(calls), len(tt.wantStatuses))
			}
			for i, want := range tt.wantStatuses {
				if calls[i].Status != want {
					t.Errorf("call %d status: got %q, want %q", i, calls[i].Status, want)
				}
			}
		})
	}
}

func TestGroupEventsOrphanedObserveDropped(t *testing.T) {
	groups := GroupEvents(seqEvents(observe("o1", "bash", "", "late", false)))
	if len(groups) != 0 {
		t.Fatalf("group count: got %d, want 0", len(groups))
	}

	// With a group open the raw event is kept even when nothing resolves.
	events := seqEvents(
		thought("t1", "thinking"),
		observe("o1", "bash", "", "late", false),
	)
	groups = GroupEvents(events)
	if len(groups) != 1 {
		t.Fatalf("group count: got %d, want 1", len(groups))
	}
	if len(groups[0].Events) != 2 {
		t.Errorf("group event count: got %d, want 2", len(groups[0].Events))
	}
	if len(groups[0].ToolCalls) != 0 {
		t.Errorf("tool call count: got %d, want 0", len(groups[0].ToolCalls))
	}
}

func TestGroupEventsBackToBackAssistantMessages(t *testing.T) {
	events := seqEvents(
		assistantMsg("m1", "first answer"),
		thought("t1", "afterthought"),
		assistantMsg("m2", "second answer"),
	)

	groups := GroupEvents(events)
	if len(groups) != 2 {
		t.Fatalf("group count: got %d, want 2", len(groups))
	}
	if groups[0].Content != "first answer" {
		t.Errorf("group 0 content: got %q, want %q", groups[0].Content, "first answer")
	}
	if len(groups[0].Thoughts) != 1 {
		t.Errorf("group 0 thought count: got %d, want 1", len(groups[0].Thoughts))
	}
	if groups[1].Content != "second answer" {
		t.Errorf("group 1 content: got %q, want %q", groups[1].Content, "second answer")
	}
}

func TestGroupEventsFinalizedShapeIsTotal(t *testing.T) {
	groups := GroupEvents(seqEvents(userMsg("u1", "hi")))
	if len(groups) != 1 {
		t.Fatalf("group count: got %d, want 1", len(groups))
	}
	g := groups[0]
	if g.Thoughts == nil || g.ToolCalls == nil || g.Events == nil {
		t.Error("finalized group has nil collections")
	}
	if g.Streaming {
		t.Error("finalized user group should not be streaming")
	}
	if g.ID != "group-u1" {
		t.Errorf("group id: got %q, want %q", g.ID, "group-u1")
	}
}

func TestGroupEventsDropsLeadingNonFoundingEvents(t *testing.T) {
	events := seqEvents(
		Event{ID: "s1", Type: TypeStepStart, StepIndex: 1},
		Event{ID: "x1", Type: TypeTextDelta, Content: "noise"},
		userMsg("u1", "hello"),
	)

	groups := GroupEvents(events)
	if len(groups) != 1 {
		t.Fatalf("group count: got %d, want 1", len(groups))
	}
	if groups[0].Kind != GroupUser {
		t.Errorf("kind: got %q, want %q", groups[0].Kind, GroupUser)
	}
}
