package store

import (
	"time"

	"github.com/uptrace/bun"
)

type Community struct {
	bun.BaseModel `bun:"table:communities"`

	ID        string    `bun:"id,pk"`
	Name      string    `bun:"name,notnull"`
	Address   string    `bun:"address,notnull"`
	Phone     string    `bun:"phone,nullzero"`
	Email     string    `bun:"email,nullzero"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type Unit struct {
	bun.BaseModel `bun:"table:units"`

	ID            string     `bun:"id,pk"`
	CommunityID   string     `bun:"community_id,notnull"`
	UnitNumber    string     `bun:"unit_number,notnull"`
	Bedrooms      int        `bun:"bedrooms,notnull"`
	Bathrooms     float64    `bun:"bathrooms,notnull"`
	SquareFeet    int        `bun:"square_feet,nullzero"`
	Description   string     `bun:"description,nullzero"`
	BaseRent      int        `bun:"base_rent,notnull"`
	IsAvailable   bool       `bun:"is_available,notnull,default:true"`
	AvailableDate *time.Time `bun:"available_date,nullzero"`
	CreatedAt     time.Time  `bun:"created_at,notnull,default:current_timestamp"`
}

type PetPolicy struct {
	bun.BaseModel `bun:"table:pet_policies"`

	ID          string    `bun:"id,pk"`
	CommunityID string    `bun:"community_id,notnull"`
	PetType     string    `bun:"pet_type,notnull"`
	Allowed     bool      `bun:"allowed,notnull,default:true"`
	Deposit     int       `bun:"deposit,nullzero"`
	MonthlyFee  int       `bun:"monthly_fee,nullzero"`
	WeightLimit int       `bun:"weight_limit,nullzero"`
	MaxCount    int       `bun:"max_count,nullzero"`
	Notes       string    `bun:"notes,nullzero"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type UnitPricing struct {
	bun.BaseModel `bun:"table:unit_pricing"`

	ID              string     `bun:"id,pk"`
	UnitID          string     `bun:"unit_id,notnull"`
	MoveInDate      time.Time  `bun:"move_in_date,notnull"`
	Rent            int        `bun:"rent,notnull"`
	SpecialOffer    string     `bun:"special_offer,nullzero"`
	SpecialDiscount int        `bun:"special_discount,nullzero"`
	EffectiveDate   time.Time  `bun:"effective_date,notnull,default:current_timestamp"`
	ExpiresDate     *time.Time `bun:"expires_date,nullzero"`
	CreatedAt       time.Time  `bun:"created_at,notnull,default:current_timestamp"`
}

type TourSlot struct {
	bun.BaseModel `bun:"table:tour_slots"`

	ID              string    `bun:"id,pk"`
	CommunityID     string    `bun:"community_id,notnull"`
	StartTime       time.Time `bun:"start_time,notnull"`
	EndTime         time.Time `bun:"end_time,notnull"`
	IsAvailable     bool      `bun:"is_available,notnull,default:true"`
	MaxCapacity     int       `bun:"max_capacity,notnull,default:1"`
	CurrentBookings int       `bun:"current_bookings,notnull,default:0"`
	CreatedAt       time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// AvailableSpots is the remaining tour capacity, never negative.
func (t *TourSlot) AvailableSpots() int {
	spots := t.MaxCapacity - t.CurrentBookings
	if spots < 0 {
		return 0
	}
	return spots
}

type Lead struct {
	bun.BaseModel `bun:"table:leads"`

	ID                 string     `bun:"id,pk"`
	Name               string     `bun:"name,notnull"`
	Email              string     `bun:"email,notnull"`
	Phone              string     `bun:"phone,nullzero"`
	PreferredBedrooms  int        `bun:"preferred_bedrooms,nullzero"`
	PreferredMoveIn    *time.Time `bun:"preferred_move_in,nullzero"`
	CreatedAt          time.Time  `bun:"created_at,notnull,default:current_timestamp"`
}

type Conversation struct {
	bun.BaseModel `bun:"table:conversations"`

	ID          string    `bun:"id,pk"`
	LeadID      string    `bun:"lead_id,notnull"`
	CommunityID string    `bun:"community_id,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type Message struct {
	bun.BaseModel `bun:"table:messages"`

	ID             string         `bun:"id,pk"`
	ConversationID string         `bun:"conversation_id,notnull"`
	MessageText    string         `bun:"message_text,notnull"`
	ReplyText      string         `bun:"reply_text,nullzero"`
	Action         string         `bun:"action,nullzero"`
	ProposedTime   *time.Time     `bun:"proposed_time,nullzero"`
	ToolsCalled    map[string]any `bun:"tools_called,type:jsonb,nullzero"`
	LLMTokensUsed  int            `bun:"llm_tokens_used,nullzero"`
	LLMLatencyMS   int64          `bun:"llm_latency_ms,nullzero"`
	RequestID      string         `bun:"request_id,notnull"`
	CreatedAt      time.Time      `bun:"created_at,notnull,default:current_timestamp"`
}

// ToolCallRecord is the append-only audit row for one tool invocation made
// on the model's behalf.
type ToolCallRecord struct {
	bun.BaseModel `bun:"table:tool_calls"`

	ID              string         `bun:"id,pk"`
	FunctionName    string         `bun:"function_name,notnull"`
	Arguments       map[string]any `bun:"arguments,type:jsonb,notnull"`
	Response        map[string]any `bun:"response,type:jsonb,notnull"`
	ExecutionTimeMS int64          `bun:"execution_time_ms,notnull"`
	Success         bool           `bun:"success,notnull"`
	ErrorMessage    string         `bun:"error_message,nullzero"`
	ConversationID  string         `bun:"conversation_id,nullzero"`
	RequestID       string         `bun:"request_id,nullzero"`
	CreatedAt       time.Time      `bun:"created_at,notnull,default:current_timestamp"`
}
