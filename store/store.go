// Package store is the domain persistence layer: leasing inventory,
// leads, conversations, and tool-call audit records, backed by Postgres
// through bun.
package store

import (
	"database/sql"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type Config struct {
	DSN          string        `envconfig:"DSN" split_words:"true" required:"true"`
	MaxOpenConns int           `envconfig:"MAX_OPEN_CONNS" split_words:"true" default:"10"`
	ConnLifetime time.Duration `envconfig:"CONN_LIFETIME" split_words:"true" default:"30m"`
}

// Store bundles the per-entity repositories over one bun handle.
type Store struct {
	db *bun.DB

	Communities   *CommunityRepo
	Units         *UnitRepo
	PetPolicies   *PetPolicyRepo
	Pricing       *UnitPricingRepo
	TourSlots     *TourSlotRepo
	Leads         *LeadRepo
	Conversations *ConversationRepo
	Messages      *MessageRepo
	ToolCalls     *ToolCallRepo
}

func Open(cfg Config) (*Store, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(strings.TrimSpace(cfg.DSN))))
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetConnMaxLifetime(cfg.ConnLifetime)

	db := bun.NewDB(sqldb, pgdialect.New())
	return NewWithDB(db), nil
}

// NewWithDB wraps an existing bun handle; used by Open and by tests.
func NewWithDB(db *bun.DB) *Store {
	return &Store{
		db:            db,
		Communities:   &CommunityRepo{db: db},
		Units:         &UnitRepo{db: db},
		PetPolicies:   &PetPolicyRepo{db: db},
		Pricing:       &UnitPricingRepo{db: db},
		TourSlots:     &TourSlotRepo{db: db},
		Leads:         &LeadRepo{db: db},
		Conversations: &ConversationRepo{db: db},
		Messages:      &MessageRepo{db: db},
		ToolCalls:     &ToolCallRepo{db: db},
	}
}

func (s *Store) DB() *bun.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

// NewID mints a short, URL-safe row id. The original schema minted nanoids
// server-side; minting client-side keeps inserts returning-free.
func NewID() string {
	return shortuuid.New()
}
