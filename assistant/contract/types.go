package contract

import "time"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

type ActionType string

const (
	ActionProposeTour      ActionType = "propose_tour"
	ActionAskClarification ActionType = "ask_clarification"
	ActionHandoffHuman     ActionType = "handoff_human"
	ActionTourConfirmed    ActionType = "tour_confirmed"
)

func (a ActionType) Valid() bool {
	switch a {
	case ActionProposeTour, ActionAskClarification, ActionHandoffHuman, ActionTourConfirmed:
		return true
	}
	return false
}

type LeadIdentity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Preferences struct {
	Bedrooms int    `json:"bedrooms,omitempty"`
	MoveIn   string `json:"move_in,omitempty"` // ISO date, YYYY-MM-DD
}

type HistoryEntry struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Inquiry is one inbound chat turn's full context. It is assembled per
// request by the endpoint and never persisted directly.
type Inquiry struct {
	Lead        LeadIdentity   `json:"lead"`
	Message     string         `json:"message"`
	CommunityID string         `json:"community_id"`
	Preferences Preferences    `json:"preferences"`
	History     []HistoryEntry `json:"conversation_history"`

	// Audit linkage for tool-call records; opaque to the model.
	ConversationID string `json:"-"`
	RequestID      string `json:"-"`
}

// ActionDecision is the classified next step plus reply text for a turn.
// Kind-specific fields are populated only when the kind matches.
type ActionDecision struct {
	ActionType   ActionType `json:"action_type"`
	ResponseText string     `json:"response_text"`

	TourTime             string `json:"tour_time,omitempty"`
	TourDate             string `json:"tour_date,omitempty"`
	UnitID               string `json:"unit_id,omitempty"`
	ConfirmationRequired *bool  `json:"confirmation_required,omitempty"`

	ClarificationNeeded string `json:"clarification_needed,omitempty"`

	// ToolsCalled maps function name to the arguments used, nil when the
	// turn issued no tool calls.
	ToolsCalled map[string]map[string]any `json:"tools_called,omitempty"`
	TokensUsed  int                       `json:"tokens_used"`
}

// Message is one entry of the model context sequence.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Tool-role entries reference the call they answer.
	ToolCallID string `json:"tool_call_id,omitempty"`
	ToolName   string `json:"name,omitempty"`

	// Assistant entries that requested tools carry the calls for replay.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// Raw is the backend's own replay handle for this entry, set by the
	// gateway that produced it. Backends that have one use it verbatim
	// instead of reconstructing from the fields above.
	Raw any `json:"-"`
}

// ToolCall is one tool invocation requested by the model.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // raw JSON object
}

// Draft is the first-phase model output: free-form text and zero or more
// tool call requests.
type Draft struct {
	Content   string
	ToolCalls []ToolCall
	Tokens    int

	// Raw replay handle, see Message.Raw.
	Raw any
}

// Decision is the second-phase, schema-constrained model output.
type Decision struct {
	ActionType           string
	ResponseText         string
	TourTime             string
	TourDate             string
	UnitID               string
	ConfirmationRequired *bool
	ClarificationNeeded  string
	Tokens               int
}

// ToolSchema declares one callable function to the model backend.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON schema for the argument object
}

// ToolOutcome is the result of dispatching one tool call. The payload is
// always non-nil and serializable; a lookup that broke carries its message
// under Err and an "error" key inside the payload.
type ToolOutcome struct {
	Name       string
	Args       map[string]any
	Payload    map[string]any
	DurationMS int64
	Err        string
}

// ToolAudit is the append-only record of one tool invocation.
type ToolAudit struct {
	FunctionName    string
	Arguments       map[string]any
	Response        map[string]any
	ExecutionTimeMS int64
	Success         bool
	ErrorMessage    string
	ConversationID  string
	RequestID       string
}

type StreamEventType string

const (
	EventContentDelta     StreamEventType = "content_delta"
	EventActionDetermined StreamEventType = "action_determined"
	EventResponseComplete StreamEventType = "response_complete"
	EventError            StreamEventType = "error"
)

// StreamEvent is one unit of progressively delivered turn output.
type StreamEvent struct {
	Type StreamEventType `json:"type"`
	Data map[string]any  `json:"data"`
}
