// Package timeline defines the conversation event model and the pure
// derivations over it: turn grouping, execution aggregation, and
// act/observe pairing.
package timeline

import "time"

// Event type tags. Unknown tags are tolerated everywhere and treated as
// opaque raw events.
const (
	TypeUserMessage      = "user_message"
	TypeAssistantMessage = "assistant_message"
	TypeThought          = "thought"
	TypeAct              = "act"
	TypeObserve          = "observe"
	TypeWorkPlan         = "work_plan"
	TypeStepStart        = "step_start"
	TypeStepEnd          = "step_end"
	TypeTextStart        = "text_start"
	TypeTextDelta        = "text_delta"
	TypeTextEnd          = "text_end"

	TypeClarificationAsked    = "clarification_asked"
	TypeClarificationAnswered = "clarification_answered"
	TypeDecisionAsked         = "decision_asked"
	TypeDecisionAnswered      = "decision_answered"
	TypeEnvVarRequested       = "env_var_requested"
	TypeEnvVarProvided        = "env_var_provided"
)

// Work plan status values. Anything else normalizes to PlanInProgress.
const (
	PlanPlanning   = "planning"
	PlanInProgress = "in_progress"
	PlanCompleted  = "completed"
	PlanFailed     = "failed"
)

// Event is one immutable record in a conversation's timeline. Seq is the
// authoritative order key: it is unique and strictly increasing per
// conversation, while timestamps may tie or arrive slightly out of order
// under streaming jitter. Fields beyond the common four are populated per
// Type and zero otherwise.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Seq       int64     `json:"seq"`

	// user_message / assistant_message; Content doubles as the payload of
	// thought and text_* events and the prompt of human-input requests.
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`

	// act / observe.
	ToolName    string         `json:"tool_name,omitempty"`
	ToolInput   map[string]any `json:"tool_input,omitempty"`
	ToolOutput  string         `json:"tool_output,omitempty"`
	IsError     bool           `json:"is_error,omitempty"`
	ExecutionID string         `json:"execution_id,omitempty"`

	// work_plan.
	Plan *Plan `json:"plan,omitempty"`

	// step_start / step_end.
	StepIndex       int    `json:"step_index,omitempty"`
	StepDescription string `json:"step_description,omitempty"`
}

// Plan is the agent's declared work plan as of its most recent work_plan
// event. CurrentStep tracks the latest step_start while the plan's group is
// open.
type Plan struct {
	Steps       []PlanStep `json:"steps"`
	Status      string     `json:"status"`
	CurrentStep int        `json:"current_step,omitempty"`
}

type PlanStep struct {
	StepNumber     int    `json:"step_number"`
	Description    string `json:"description"`
	ExpectedOutput string `json:"expected_output,omitempty"`
}

// NormalizePlanStatus maps any status outside the known set to
// PlanInProgress.
func NormalizePlanStatus(status string) string {
	switch status {
	case PlanPlanning, PlanInProgress, PlanCompleted, PlanFailed:
		return status
	}
	return PlanInProgress
}

// Tool call status values.
const (
	ToolRunning = "running"
	ToolSuccess = "success"
	ToolError   = "error"
)

// ToolCall is the folded view of one act event and, once one arrives, its
// matching observe. A call whose observe never arrives stays running
// forever; that is a valid terminal state for truncated or still-executing
// history, not an error.
type ToolCall struct {
	Name        string
	Input       map[string]any
	ExecutionID string
	Status      string
	Result      string
	Error       string
	StartedAt   time.Time
	EndedAt     time.Time
	Duration    time.Duration
}

// Group kinds.
const (
	GroupUser      = "user"
	GroupAssistant = "assistant"
)

// Group is one renderable turn: a user message standing alone, or an
// assistant message together with the thoughts, tool calls and plan that
// belong to it. Groups are derived fresh on every GroupEvents call and hold
// no state between calls.
type Group struct {
	ID        string
	Kind      string
	Content   string
	Timestamp time.Time
	Thoughts  []string
	ToolCalls []ToolCall
	Plan      *Plan
	Streaming bool
	Events    []Event
}

// IsMessageEvent reports whether ev is a user or assistant message. Message
// events are hard turn boundaries for every forward or backward scan.
func IsMessageEvent(ev Event) bool {
	return ev.Type == TypeUserMessage || ev.Type == TypeAssistantMessage
}

// IsExecutionEvent reports whether ev belongs to a tool execution trace.
func IsExecutionEvent(ev Event) bool {
	switch ev.Type {
	case TypeThought, TypeAct, TypeObserve:
		return true
	}
	return false
}
