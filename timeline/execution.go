package timeline

// ExecutionData is the flattened execution trace of an arbitrary event
// slice, used by raw-timeline rendering where no grouping applies.
type ExecutionData struct {
	Thoughts  []string
	ToolCalls []ToolCall
	Plan      *Plan
	Streaming bool
}

// ExtractExecutionData aggregates thoughts, tool calls and the latest
// work plan from events without forming groups. Each act is resolved
// through the same matcher FindMatchingObserve uses. Streaming reports
// whether any call is still running.
func ExtractExecutionData(events []Event) ExecutionData {
	data := ExecutionData{
		Thoughts:  []string{},
		ToolCalls: []ToolCall{},
	}
	for i, ev := range events {
		switch ev.Type {
		case TypeThought:
			data.Thoughts = append(data.Thoughts, ev.Content)
		case TypeAct:
			tc := ToolCall{
				Name:        ev.ToolName,
				Input:       ev.ToolInput,
				ExecutionID: ev.ExecutionID,
				Status:      ToolRunning,
				StartedAt:   ev.Timestamp,
			}
			if obs, ok := matchObserveFrom(ev, events, i+1); ok {
				closeToolCall(&tc, obs)
			}
			data.ToolCalls = append(data.ToolCalls, tc)
		case TypeWorkPlan:
			if ev.Plan != nil {
				p := *ev.Plan
				p.Status = NormalizePlanStatus(p.Status)
				data.Plan = &p
			}
		}
	}
	for _, tc := range data.ToolCalls {
		if tc.Status == ToolRunning {
			data.Streaming = true
			break
		}
	}
	return data
}

// FindMatchingObserve locates act in events by ID and scans forward for
// the observe that answers it. Execution identity is matched first when
// both sides carry one and survives intervening acts and messages; a
// name-only match is valid only until the next act or message event,
// which are hard boundaries against cross-turn pairing. Returns false
// when act is not in events or nothing matches.
func FindMatchingObserve(act Event, events []Event) (Event, bool) {
	for i, ev := range events {
		if ev.ID == act.ID {
			return matchObserveFrom(act, events, i+1)
		}
	}
	return Event{}, false
}

func matchObserveFrom(act Event, events []Event, start int) (Event, bool) {
	nameOK := true
	for i := start; i < len(events); i++ {
		ev := events[i]
		switch ev.Type {
		case TypeObserve:
			if act.ExecutionID != "" && ev.ExecutionID != "" {
				if ev.ExecutionID == act.ExecutionID {
					return ev, true
				}
				continue
			}
			if nameOK && ev.ToolName == act.ToolName {
				return ev, true
			}
		case TypeAct, TypeUserMessage, TypeAssistantMessage:
			if act.ExecutionID == "" {
				return Event{}, false
			}
			nameOK = false
		}
	}
	return Event{}, false
}

// closeToolCall resolves tc with the outcome carried by obs.
func closeToolCall(tc *ToolCall, obs Event) {
	tc.EndedAt = obs.Timestamp
	tc.Duration = obs.Timestamp.Sub(tc.StartedAt)
	if obs.IsError {
		tc.Status = ToolError
		tc.Error = obs.ToolOutput
	} else {
		tc.Status = ToolSuccess
		tc.Result = obs.ToolOutput
	}
}
