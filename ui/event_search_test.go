package ui

import (
	"testing"

	"atui/timeline"
)

func TestEventTypeLabel(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
		want      string
	}{
		{"user message", timeline.TypeUserMessage, "user"},
		{"assistant message", timeline.TypeAssistantMessage, "assistant"},
		{"thought", timeline.TypeThought, "thought"},
		{"tool call", timeline.TypeAct, "tool call"},
		{"tool result", timeline.TypeObserve, "tool result"},
		{"plan", timeline.TypeWorkPlan, "plan"},
		{"step start", timeline.TypeStepStart, "step"},
		{"step end", timeline.TypeStepEnd, "step"},
		{"clarification question", timeline.TypeClarificationAsked, "question"},
		{"decision question", timeline.TypeDecisionAsked, "question"},
		{"env var question", timeline.TypeEnvVarRequested, "question"},
		{"clarification answer", timeline.TypeClarificationAnswered, "answer"},
		{"decision answer", timeline.TypeDecisionAnswered, "answer"},
		{"env var answer", timeline.TypeEnvVarProvided, "answer"},
		{"unknown passes through", "custom_thing", "custom_thing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := eventTypeLabel(tt.eventType)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
