package store

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	contractx "github.com/brookfield-ai/leasing-assistant/assistant/contract"
)

type ToolCallRepo struct {
	db *bun.DB
}

var _ contractx.AuditSink = (*ToolCallRepo)(nil)

// RecordToolCall appends one audit row. Records are never updated.
func (r *ToolCallRepo) RecordToolCall(ctx context.Context, rec contractx.ToolAudit) error {
	row := &ToolCallRecord{
		ID:              NewID(),
		FunctionName:    rec.FunctionName,
		Arguments:       rec.Arguments,
		Response:        rec.Response,
		ExecutionTimeMS: rec.ExecutionTimeMS,
		Success:         rec.Success,
		ErrorMessage:    rec.ErrorMessage,
		ConversationID:  rec.ConversationID,
		RequestID:       rec.RequestID,
		CreatedAt:       time.Now().UTC(),
	}
	_, err := r.db.NewInsert().Model(row).Exec(ctx)
	return err
}

func (r *ToolCallRepo) ByRequestID(ctx context.Context, requestID string) ([]ToolCallRecord, error) {
	var rows []ToolCallRecord
	err := r.db.NewSelect().Model(&rows).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ToolCallRepo) ByConversationID(ctx context.Context, conversationID string) ([]ToolCallRecord, error) {
	var rows []ToolCallRecord
	err := r.db.NewSelect().Model(&rows).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ToolCallRepo) FailedCalls(ctx context.Context) ([]ToolCallRecord, error) {
	var rows []ToolCallRecord
	err := r.db.NewSelect().Model(&rows).
		Where("success = FALSE").
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
