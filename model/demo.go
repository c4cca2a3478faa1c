package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"atui/storage"
	"atui/timeline"
)

// SeedDemo creates a sample conversation on first run so the timeline
// has something to show. Returns the created conversation.
func SeedDemo(conversations *storage.ConversationStore, events *storage.EventStore) (*storage.Conversation, error) {
	conv := &storage.Conversation{
		Title:     "Demo: investigate failing deploy",
		Source:    "demo",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := conversations.Save(conv); err != nil {
		return nil, fmt.Errorf("failed to save demo conversation: %w", err)
	}

	if err := events.AppendBatch(conv.ID, demoEvents()); err != nil {
		return nil, fmt.Errorf("failed to store demo events: %w", err)
	}

	if err := conversations.SaveCurrentID(conv.ID); err != nil {
		return nil, fmt.Errorf("failed to save current conversation ID: %w", err)
	}

	return conv, nil
}

// demoEvents builds a transcript that touches every event variant the
// grouped view knows how to fold.
func demoEvents() []timeline.Event {
	base := time.Now().Add(-10 * time.Minute)
	at := func(sec int) time.Time { return base.Add(time.Duration(sec) * time.Second) }

	ev := func(sec int, typ string) timeline.Event {
		return timeline.Event{
			ID:        uuid.New().String(),
			Type:      typ,
			Timestamp: at(sec),
		}
	}

	var out []timeline.Event
	add := func(e timeline.Event) {
		e.Seq = int64(len(out) + 1)
		out = append(out, e)
	}

	user := ev(0, timeline.TypeUserMessage)
	user.Role = "user"
	user.Content = "The staging deploy fails since this morning. Can you find out why?"
	add(user)

	plan := ev(2, timeline.TypeWorkPlan)
	plan.Plan = &timeline.Plan{
		Status: timeline.PlanInProgress,
		Steps: []timeline.PlanStep{
			{StepNumber: 1, Description: "Check the deploy pipeline logs", ExpectedOutput: "The failing stage and its error output"},
			{StepNumber: 2, Description: "Inspect the staging cluster state", ExpectedOutput: "Pod status for the app namespace"},
			{StepNumber: 3, Description: "Identify and report the root cause", ExpectedOutput: "A summary with the offending change"},
		},
	}
	add(plan)

	step1 := ev(3, timeline.TypeStepStart)
	step1.StepIndex = 1
	step1.StepDescription = "Check the deploy pipeline logs"
	add(step1)

	thought1 := ev(4, timeline.TypeThought)
	thought1.Content = "The nightly pipeline run is the first failure, so the breaking change landed yesterday. Pulling the logs for that run."
	add(thought1)

	act1 := ev(5, timeline.TypeAct)
	act1.ToolName = "run_command"
	act1.ToolInput = map[string]any{"command": "ci logs --pipeline staging-deploy --last"}
	act1.ExecutionID = "exec-demo-1"
	add(act1)

	obs1 := ev(8, timeline.TypeObserve)
	obs1.ToolName = "run_command"
	obs1.ToolOutput = "stage build: ok\nstage migrate: FAILED\nERROR: relation \"orders_v2\" does not exist"
	obs1.ExecutionID = "exec-demo-1"
	add(obs1)

	stepEnd1 := ev(9, timeline.TypeStepEnd)
	stepEnd1.StepIndex = 1
	add(stepEnd1)

	step2 := ev(10, timeline.TypeStepStart)
	step2.StepIndex = 2
	step2.StepDescription = "Inspect the staging cluster state"
	add(step2)

	act2 := ev(11, timeline.TypeAct)
	act2.ToolName = "read_file"
	act2.ToolInput = map[string]any{"path": "migrations/20250817_orders_v2.sql"}
	add(act2)

	obs2 := ev(13, timeline.TypeObserve)
	obs2.ToolName = "read_file"
	obs2.IsError = true
	obs2.ToolOutput = "open migrations/20250817_orders_v2.sql: no such file or directory"
	add(obs2)

	thought2 := ev(14, timeline.TypeThought)
	thought2.Content = "The migration file referenced by the deploy manifest was never committed. That matches the missing relation."
	add(thought2)

	clarifyQ := ev(15, timeline.TypeClarificationAsked)
	clarifyQ.Content = "Should I revert the manifest to the last green revision, or wait for the missing migration to be committed?"
	add(clarifyQ)

	clarifyA := ev(40, timeline.TypeClarificationAnswered)
	clarifyA.Content = "Revert it, we need staging back now."
	add(clarifyA)

	act3 := ev(42, timeline.TypeAct)
	act3.ToolName = "run_command"
	act3.ToolInput = map[string]any{"command": "git revert --no-edit 4f2a91c"}
	act3.ExecutionID = "exec-demo-2"
	add(act3)

	obs3 := ev(45, timeline.TypeObserve)
	obs3.ToolName = "run_command"
	obs3.ToolOutput = "[main 9c01b44] Revert \"deploy: switch orders to v2 schema\""
	obs3.ExecutionID = "exec-demo-2"
	add(obs3)

	assistant1 := ev(47, timeline.TypeAssistantMessage)
	assistant1.Role = "assistant"
	assistant1.Content = "The deploy was failing because the manifest referenced a migration that was never committed, so the migrate stage could not find the orders_v2 relation. I reverted the manifest to the last green revision; the next pipeline run should go through."
	add(assistant1)

	user2 := ev(120, timeline.TypeUserMessage)
	user2.Role = "user"
	user2.Content = "Thanks. Write up a short incident note I can paste into the channel."
	add(user2)

	textStart := ev(122, timeline.TypeTextStart)
	add(textStart)

	deltas := []string{
		"Staging deploys failed overnight after ",
		"a manifest change referenced a migration ",
		"that was never committed. The migrate stage ",
		"aborted on the missing orders_v2 relation. ",
		"Reverted the manifest; pipeline is green again.",
	}
	for i, d := range deltas {
		delta := ev(123+i, timeline.TypeTextDelta)
		delta.Content = d
		add(delta)
	}

	textEnd := ev(129, timeline.TypeTextEnd)
	add(textEnd)

	assistant2 := ev(130, timeline.TypeAssistantMessage)
	assistant2.Role = "assistant"
	assistant2.Content = "Staging deploys failed overnight after a manifest change referenced a migration that was never committed. The migrate stage aborted on the missing orders_v2 relation. Reverted the manifest; pipeline is green again."
	add(assistant2)

	return out
}
