package timeline

// groupState drives the fold in GroupEvents. The zero value is noGroup.
type groupState int

const (
	// noGroup: nothing open, nothing notable behind us.
	noGroup groupState = iota
	// userJustClosed: the previous emitted group was a standalone user
	// turn. Execution events arriving now belong to the reply that is
	// still being produced, so they found an implicit assistant group.
	userJustClosed
	// assistantOpen: an assistant group is accumulating events.
	assistantOpen
)

// GroupEvents partitions an ordered event stream into renderable turn
// groups: each user_message is a standalone group, and everything the
// agent does between messages folds into the assistant group it belongs
// to. Pure: the input slice and its events are never mutated, and the
// same input always yields the same output, so callers may re-run it on
// every refresh.
//
// Execution events with no assistant_message in front of them found an
// implicit assistant group; a later assistant_message completes that
// group in place rather than founding a second one, which keeps one
// bubble per turn. Orphaned observes and step/unknown events with no
// open group are dropped.
func GroupEvents(events []Event) []Group {
	groups := make([]Group, 0, len(events))
	state := noGroup
	var open *Group
	implicit := false

	flush := func() {
		if open == nil {
			return
		}
		groups = append(groups, finalizeGroup(*open))
		open = nil
		implicit = false
	}
	foundImplicit := func(ev Event) {
		open = &Group{
			ID:        "group-" + ev.ID,
			Kind:      GroupAssistant,
			Timestamp: ev.Timestamp,
		}
		implicit = true
		state = assistantOpen
	}

	for _, ev := range events {
		switch ev.Type {
		case TypeUserMessage:
			flush()
			g := Group{
				ID:        "group-" + ev.ID,
				Kind:      GroupUser,
				Content:   ev.Content,
				Timestamp: ev.Timestamp,
				Events:    []Event{ev},
			}
			groups = append(groups, finalizeGroup(g))
			state = userJustClosed

		case TypeAssistantMessage:
			if state == assistantOpen && implicit {
				// The message the implicit group was building toward.
				open.Content = ev.Content
				open.Streaming = false
				open.Events = append(open.Events, ev)
				implicit = false
			} else {
				flush()
				open = &Group{
					ID:        "group-" + ev.ID,
					Kind:      GroupAssistant,
					Content:   ev.Content,
					Timestamp: ev.Timestamp,
					Events:    []Event{ev},
				}
				state = assistantOpen
			}

		case TypeWorkPlan:
			if state != assistantOpen {
				foundImplicit(ev)
			}
			if ev.Plan != nil {
				p := *ev.Plan
				p.Status = NormalizePlanStatus(p.Status)
				open.Plan = &p
			}
			open.Streaming = true
			open.Events = append(open.Events, ev)

		case TypeStepStart:
			if state != assistantOpen {
				continue
			}
			if open.Plan != nil {
				open.Plan.CurrentStep = ev.StepIndex
			}
			open.Streaming = true
			open.Events = append(open.Events, ev)

		case TypeThought:
			if state != assistantOpen {
				foundImplicit(ev)
			}
			open.Thoughts = append(open.Thoughts, ev.Content)
			open.Streaming = true
			open.Events = append(open.Events, ev)

		case TypeAct:
			if state != assistantOpen {
				foundImplicit(ev)
			}
			open.ToolCalls = append(open.ToolCalls, ToolCall{
				Name:        ev.ToolName,
				Input:       ev.ToolInput,
				ExecutionID: ev.ExecutionID,
				Status:      ToolRunning,
				StartedAt:   ev.Timestamp,
			})
			open.Streaming = true
			open.Events = append(open.Events, ev)

		case TypeObserve:
			if state != assistantOpen {
				continue
			}
			resolveObserve(open, ev)
			open.Events = append(open.Events, ev)

		default:
			if state != assistantOpen {
				continue
			}
			open.Events = append(open.Events, ev)
		}
	}
	flush()
	return groups
}

// resolveObserve closes at most one running tool call in g. Execution
// identity wins when both sides carry one; otherwise only the most
// recent call is eligible for a name match, since any act after a call
// is a boundary between that call and its observe.
func resolveObserve(g *Group, ev Event) {
	if ev.ExecutionID != "" {
		for i := range g.ToolCalls {
			tc := &g.ToolCalls[i]
			if tc.Status == ToolRunning && tc.ExecutionID == ev.ExecutionID {
				closeToolCall(tc, ev)
				return
			}
		}
	}
	if n := len(g.ToolCalls); n > 0 {
		tc := &g.ToolCalls[n-1]
		bothIDs := tc.ExecutionID != "" && ev.ExecutionID != ""
		if tc.Status == ToolRunning && tc.Name == ev.ToolName && !bothIDs {
			closeToolCall(tc, ev)
		}
	}
}

// finalizeGroup fills defaults for unset fields so every emitted group
// has a total shape. Fields the fold did set (Streaming in particular)
// are left alone.
func finalizeGroup(g Group) Group {
	if g.Thoughts == nil {
		g.Thoughts = []string{}
	}
	if g.ToolCalls == nil {
		g.ToolCalls = []ToolCall{}
	}
	if g.Events == nil {
		g.Events = []Event{}
	}
	return g
}
