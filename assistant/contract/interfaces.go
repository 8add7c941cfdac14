package contract

import "context"

// ModelGateway is the two-phase protocol against the language model
// backend. Draft offers the declared tools and lets the model choose;
// Decide forces the action-decision schema. Backends that support tools
// and structured output in a single call may collapse the phases, as long
// as both methods keep their contracts.
type ModelGateway interface {
	Draft(ctx context.Context, msgs []Message, tools []ToolSchema) (Draft, error)
	Decide(ctx context.Context, msgs []Message) (Decision, error)
}

// ToolGateway dispatches a single tool call. Execute never fails past its
// boundary: lookup errors come back inside the ToolOutcome.
type ToolGateway interface {
	Schemas() []ToolSchema
	Execute(ctx context.Context, call ToolCall, meta AuditMeta) ToolOutcome
}

// AuditMeta links tool invocations back to their conversation turn.
type AuditMeta struct {
	ConversationID string
	RequestID      string
}

// AuditSink persists append-only tool invocation records.
type AuditSink interface {
	RecordToolCall(ctx context.Context, rec ToolAudit) error
}
