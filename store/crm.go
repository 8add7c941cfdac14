package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

type LeadRepo struct {
	db *bun.DB
}

func (r *LeadRepo) ByID(ctx context.Context, id string) (*Lead, error) {
	lead := new(Lead)
	err := r.db.NewSelect().Model(lead).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return lead, nil
}

// CreateOrGetByEmail reuses an existing lead with the same email and
// refreshes its stated preferences, otherwise inserts a new row.
func (r *LeadRepo) CreateOrGetByEmail(ctx context.Context, lead *Lead) (*Lead, error) {
	email := strings.ToLower(strings.TrimSpace(lead.Email))

	existing := new(Lead)
	err := r.db.NewSelect().Model(existing).Where("lower(email) = ?", email).Scan(ctx)
	if err == nil {
		existing.PreferredBedrooms = lead.PreferredBedrooms
		existing.PreferredMoveIn = lead.PreferredMoveIn
		if _, err := r.db.NewUpdate().Model(existing).
			Column("preferred_bedrooms", "preferred_move_in").
			WherePK().
			Exec(ctx); err != nil {
			return nil, err
		}
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if lead.ID == "" {
		lead.ID = NewID()
	}
	lead.CreatedAt = time.Now().UTC()
	if _, err := r.db.NewInsert().Model(lead).Exec(ctx); err != nil {
		return nil, err
	}
	return lead, nil
}

type ConversationRepo struct {
	db *bun.DB
}

func (r *ConversationRepo) ByID(ctx context.Context, id string) (*Conversation, error) {
	conversation := new(Conversation)
	err := r.db.NewSelect().Model(conversation).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return conversation, nil
}

func (r *ConversationRepo) Create(ctx context.Context, conversation *Conversation) (*Conversation, error) {
	if conversation.ID == "" {
		conversation.ID = NewID()
	}
	conversation.CreatedAt = time.Now().UTC()
	if _, err := r.db.NewInsert().Model(conversation).Exec(ctx); err != nil {
		return nil, err
	}
	return conversation, nil
}

type MessageRepo struct {
	db *bun.DB
}

// ByConversationID returns the turn history oldest-first.
func (r *MessageRepo) ByConversationID(ctx context.Context, conversationID string) ([]Message, error) {
	var messages []Message
	err := r.db.NewSelect().Model(&messages).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *MessageRepo) Create(ctx context.Context, message *Message) (*Message, error) {
	if message.ID == "" {
		message.ID = NewID()
	}
	message.CreatedAt = time.Now().UTC()
	if _, err := r.db.NewInsert().Model(message).Exec(ctx); err != nil {
		return nil, err
	}
	return message, nil
}

// UpdateReply attaches the finished turn's reply and its metadata to the
// stored user message.
func (r *MessageRepo) UpdateReply(ctx context.Context, message *Message) error {
	_, err := r.db.NewUpdate().Model(message).
		Column("reply_text", "action", "proposed_time", "tools_called", "llm_tokens_used", "llm_latency_ms").
		WherePK().
		Exec(ctx)
	return err
}
