// Package tool dispatches model-requested lookups against the domain
// store. Every operation runs behind a uniform wrapper that times the
// call, persists an audit record, and converts any failure into a
// degraded in-band payload; the caller never sees a raised error.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/brookfield-ai/leasing-assistant/assistant/contract"
)

type Handler func(ctx context.Context, args map[string]any) (map[string]any, error)

type Registry struct {
	handlers map[string]Handler
	schemas  []contractx.ToolSchema
	audit    contractx.AuditSink
}

var _ contractx.ToolGateway = (*Registry)(nil)

// NewRegistry builds the name-to-handler table and validates it against
// the declared schemas, so an unknown function cannot slip in between the
// two at startup.
func NewRegistry(lookups *Lookups, audit contractx.AuditSink) (*Registry, error) {
	if lookups == nil {
		return nil, fmt.Errorf("%w: lookups are required", contractx.ErrValidation)
	}

	handlers := map[string]Handler{
		ToolCheckAvailability: lookups.checkAvailability,
		ToolCheckPetPolicy:    lookups.checkPetPolicy,
		ToolGetPricing:        lookups.getPricing,
		ToolFindTourSlots:     lookups.findTourSlots,
	}

	schemas := Schemas()
	if len(handlers) != len(schemas) {
		return nil, fmt.Errorf("%w: %d handlers for %d declared tools", contractx.ErrValidation, len(handlers), len(schemas))
	}
	for _, s := range schemas {
		if _, ok := handlers[s.Name]; !ok {
			return nil, fmt.Errorf("%w: declared tool %s has no handler", contractx.ErrValidation, s.Name)
		}
	}

	return &Registry{
		handlers: handlers,
		schemas:  schemas,
		audit:    audit,
	}, nil
}

func (r *Registry) Schemas() []contractx.ToolSchema {
	return r.schemas
}

// Execute runs one tool call. Whatever happens, the outcome carries a
// serializable payload the model can read: degraded with an "error" key
// when the lookup broke, a found=false sentinel when the data is simply
// absent, the real result otherwise.
func (r *Registry) Execute(ctx context.Context, call contractx.ToolCall, meta contractx.AuditMeta) contractx.ToolOutcome {
	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			args = map[string]any{}
			return r.finish(ctx, call.Name, args, nil, 0, fmt.Errorf("invalid tool arguments: %v", err), meta)
		}
	}

	handler, ok := r.handlers[call.Name]
	if !ok {
		// The model was only offered declared tools; a stray name is a
		// backend fault, reported in-band like any other failure.
		return r.finish(ctx, call.Name, args, nil, 0, fmt.Errorf("unknown function: %s", call.Name), meta)
	}

	start := time.Now()
	payload, err := handler(ctx, args)
	elapsed := time.Since(start).Milliseconds()
	return r.finish(ctx, call.Name, args, payload, elapsed, err, meta)
}

func (r *Registry) finish(
	ctx context.Context,
	name string,
	args map[string]any,
	payload map[string]any,
	elapsedMS int64,
	err error,
	meta contractx.AuditMeta,
) contractx.ToolOutcome {
	outcome := contractx.ToolOutcome{
		Name:       name,
		Args:       args,
		Payload:    payload,
		DurationMS: elapsedMS,
	}
	if err != nil {
		outcome.Err = err.Error()
		outcome.Payload = degradedPayload(name, err.Error())
	}
	if outcome.Payload == nil {
		outcome.Payload = map[string]any{}
	}

	rec := contractx.ToolAudit{
		FunctionName:    name,
		Arguments:       args,
		Response:        outcome.Payload,
		ExecutionTimeMS: elapsedMS,
		Success:         err == nil,
		ConversationID:  meta.ConversationID,
		RequestID:       meta.RequestID,
	}
	if err != nil {
		rec.ErrorMessage = err.Error()
	}
	if r.audit != nil {
		// An audit write that fails must never mask the tool result.
		if auditErr := r.audit.RecordToolCall(ctx, rec); auditErr != nil {
			log.Warn().Err(auditErr).Str("tool", name).Msg("tool audit persist failed")
		}
	}

	log.Debug().
		Str("tool", name).
		Int64("elapsed_ms", elapsedMS).
		Bool("success", err == nil).
		Msg("tool executed")

	return outcome
}

// degradedPayload keeps the shape the model expects per tool: list tools
// come back empty, scalar tools come back as a degraded summary. Both are
// distinguishable from the found=false sentinel by the "error" key.
func degradedPayload(name, message string) map[string]any {
	switch name {
	case ToolCheckAvailability:
		return map[string]any{
			"error":       message,
			"units":       []map[string]any{},
			"total_count": 0,
		}
	case ToolFindTourSlots:
		return map[string]any{
			"error":       message,
			"slots":       []map[string]any{},
			"total_count": 0,
		}
	case ToolCheckPetPolicy, ToolGetPricing:
		return map[string]any{
			"error": message,
			"found": false,
		}
	default:
		return map[string]any{"error": message}
	}
}
