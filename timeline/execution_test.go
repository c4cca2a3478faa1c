package timeline

import (
	"testing"
	"time"
)

func TestExtractExecutionDataEmpty(t *testing.T) {
	data := ExtractExecutionData(nil)
	if data.Thoughts == nil || len(data.Thoughts) != 0 {
		t.Errorf("thoughts: got %v, want empty slice", data.Thoughts)
	}
	if data.ToolCalls == nil || len(data.ToolCalls) != 0 {
		t.Errorf("tool calls: got %v, want empty slice", data.ToolCalls)
	}
	if data.Plan != nil {
		t.Errorf("plan: got %+v, want nil", data.Plan)
	}
	if data.Streaming {
		t.Error("streaming: got true, want false")
	}
}

func TestExtractExecutionData(t *testing.T) {
	events := seqEvents(
		thought("t1", "first"),
		workPlan("p1", "weird-status", PlanStep{StepNumber: 1, Description: "a"}),
		act("a1", "bash", ""),
		observe("o1", "bash", "", "ok", false),
		thought("t2", "second"),
		workPlan("p2", PlanInProgress, PlanStep{StepNumber: 1, Description: "a"}, PlanStep{StepNumber: 2, Description: "b"}),
		act("a2", "fetch", ""),
	)

	data := ExtractExecutionData(events)

	if len(data.Thoughts) != 2 || data.Thoughts[0] != "first" || data.Thoughts[1] != "second" {
		t.Errorf("thoughts: got %v, want [first second]", data.Thoughts)
	}
	if len(data.ToolCalls) != 2 {
		t.Fatalf("tool call count: got %d, want 2", len(data.ToolCalls))
	}
	if data.ToolCalls[0].Status != ToolSuccess {
		t.Errorf("call 0 status: got %q, want %q", data.ToolCalls[0].Status, ToolSuccess)
	}
	if data.ToolCalls[0].Result != "ok" {
		t.Errorf("call 0 result: got %q, want %q", data.ToolCalls[0].Result, "ok")
	}
	if data.ToolCalls[1].Status != ToolRunning {
		t.Errorf("call 1 status: got %q, want %q", data.ToolCalls[1].Status, ToolRunning)
	}
	if data.Plan == nil {
		t.Fatal("expected the last work plan")
	}
	if len(data.Plan.Steps) != 2 {
		t.Errorf("plan step count: got %d, want 2", len(data.Plan.Steps))
	}
	if !data.Streaming {
		t.Error("streaming: got false, want true while a call is running")
	}
}

func TestExtractExecutionDataNormalizesPlanStatus(t *testing.T) {
	data := ExtractExecutionData(seqEvents(workPlan("p1", "nonsense")))
	if data.Plan == nil {
		t.Fatal("expected a plan")
	}
	if data.Plan.Status != PlanInProgress {
		t.Errorf("plan status: got %q, want %q", data.Plan.Status, PlanInProgress)
	}
}

func TestExtractExecutionDataAllResolved(t *testing.T) {
	events := seqEvents(
		act("a1", "bash", ""),
		observe("o1", "bash", "", "done", false),
	)
	data := ExtractExecutionData(events)
	if data.Streaming {
		t.Error("streaming: got true, want false when every call resolved")
	}
}

func TestFindMatchingObserve(t *testing.T) {
	tests := []struct {
		name     string
		actID    string
		events   []Event
		wantID   string
		wantShot bool
	}{
		{
			name:  "direct name match",
			actID: "a1",
			events: seqEvents(
				act("a1", "bash", ""),
				observe("o1", "bash", "", "ok", false),
			),
			wantID:   "o1",
			wantShot: true,
		},
		{
			name:  "second act is a boundary",
			actID: "a1",
			events: seqEvents(
				act("a1", "bash", ""),
				act("a2", "bash", ""),
				observe("o1", "bash", "", "ok", false),
			),
			wantShot: false,
		},
		{
			name:  "user message is a boundary",
			actID: "a1",
			events: seqEvents(
				act("a1", "bash", ""),
				userMsg("u1", "never mind"),
				observe("o1", "bash", "", "ok", false),
			),
			wantShot: false,
		},
		{
			name:  "assistant message is a boundary",
			actID: "a1",
			events: seqEvents(
				act("a1", "bash", ""),
				assistantMsg("m1", "working on it"),
				observe("o1", "bash", "", "ok", false),
			),
			wantShot: false,
		},
		{
			name:  "execution id crosses boundaries",
			actID: "a1",
			events: seqEvents(
				act("a1", "bash", "ex-1"),
				act("a2", "bash", "ex-2"),
				observe("o2", "bash", "ex-2", "other", false),
				observe("o1", "bash", "ex-1", "mine", false),
			),
			wantID:   "o1",
			wantShot: true,
		},
		{
			name:  "unrelated observes are skipped before a name match",
			actID: "a1",
			events: seqEvents(
				act("a1", "bash", ""),
				observe("o1", "fetch", "", "other tool", false),
				observe("o2", "bash", "", "mine", false),
			),
			wantID:   "o2",
			wantShot: true,
		},
		{
			name:  "act missing from the slice",
			actID: "a9",
			events: seqEvents(
				act("a1", "bash", ""),
				observe("o1", "bash", "", "ok", false),
			),
			wantShot: false,
		},
		{
			name:  "no observe at all",
			actID: "a1",
			events: seqEvents(
				act("a1", "bash", ""),
				thought("t1", "still going"),
			),
			wantShot: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var actEv Event
			for _, ev := range tt.events {
				if ev.ID == tt.actID {
					actEv = ev
				}
			}
			if actEv.ID == "" {
				actEv = act(tt.actID, "bash", "")
			}

			got, ok := FindMatchingObserve(actEv, tt.events)
			if ok != tt.wantShot {
				t.Fatalf("match: got %v, want %v", ok, tt.wantShot)
			}
			if ok && got.ID != tt.wantID {
				t.Errorf("observe id: got %q, want %q", got.ID, tt.wantID)
			}
		})
	}
}

func TestToolCallTiming(t *testing.T) {
	start := testBase
	end := testBase.Add(3 * time.Second)
	events := []Event{
		{ID: "a1", Type: TypeAct, ToolName: "bash", Timestamp: start, Seq: 1},
		{ID: "o1", Type: TypeObserve, ToolName: "bash", ToolOutput: "done", Timestamp: end, Seq: 2},
	}

	data := ExtractExecutionData(events)
	if len(data.ToolCalls) != 1 {
		t.Fatalf("tool call count: got %d, want 1", len(data.ToolCalls))
	}
	tc := data.ToolCalls[0]
	if !tc.StartedAt.Equal(start) {
		t.Errorf("started at: got %v, want %v", tc.StartedAt, start)
	}
	if !tc.EndedAt.Equal(end) {
		t.Errorf("ended at: got %v, want %v", tc.EndedAt, end)
	}
	if tc.Duration != 3*time.Second {
		t.Errorf("duration: got %v, want %v", tc.Duration, 3*time.Second)
	}
}

func TestMessageAndExecutionPredicates(t *testing.T) {
	if !IsMessageEvent(userMsg("u1", "hi")) || !IsMessageEvent(assistantMsg("m1", "hi")) {
		t.Error("message events not recognized")
	}
	if IsMessageEvent(thought("t1", "x")) {
		t.Error("thought misclassified as message")
	}
	for _, ev := range []Event{thought("t1", "x"), act("a1", "bash", ""), observe("o1", "bash", "", "", false)} {
		if !IsExecutionEvent(ev) {
			t.Errorf("%s not recognized as execution event", ev.Type)
		}
	}
	if IsExecutionEvent(userMsg("u1", "hi")) {
		t.Error("user message misclassified as execution event")
	}
	if IsExecutionEvent(Event{Type: TypeWorkPlan}) {
		t.Error("work_plan misclassified as execution event")
	}
}
