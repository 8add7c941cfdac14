package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/rs/zerolog/log"

	contractx "github.com/brookfield-ai/leasing-assistant/assistant/contract"
	storex "github.com/brookfield-ai/leasing-assistant/store"
)

const isoDate = "2006-01-02"

func (s *Server) registerChatRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/chat")
	g.GET("/communities", s.listCommunities)
	g.POST("/start", s.startConversation)
	g.POST("/reply", s.handleReply)
}

type communityResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

func (s *Server) listCommunities(c *echo.Context) error {
	communities, err := s.store.Communities.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]communityResponse, 0, len(communities))
	for _, community := range communities {
		resp = append(resp, communityResponse{
			ID:      community.ID,
			Name:    community.Name,
			Address: community.Address,
			Phone:   community.Phone,
			Email:   community.Email,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

type startRequest struct {
	Lead struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"lead"`
	CommunityID string `json:"community_id"`
	Preferences struct {
		Bedrooms int    `json:"bedrooms"`
		MoveIn   string `json:"move_in"`
	} `json:"preferences"`
}

type startResponse struct {
	ConversationID string `json:"conversation_id"`
	LeadID         string `json:"lead_id"`
	Greeting       string `json:"greeting"`
}

func (s *Server) startConversation(c *echo.Context) error {
	var req startRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Lead.Email) == "" || strings.TrimSpace(req.Lead.Name) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "lead name and email required")
	}
	if strings.TrimSpace(req.CommunityID) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "community_id required")
	}

	ctx := c.Request().Context()

	community, err := s.store.Communities.ByID(ctx, req.CommunityID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if community == nil {
		return echo.NewHTTPError(http.StatusNotFound, "community not found")
	}

	lead := &storex.Lead{
		Name:              strings.TrimSpace(req.Lead.Name),
		Email:             strings.TrimSpace(req.Lead.Email),
		PreferredBedrooms: req.Preferences.Bedrooms,
	}
	if req.Preferences.MoveIn != "" {
		moveIn, err := time.Parse(isoDate, req.Preferences.MoveIn)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "preferences.move_in must be a YYYY-MM-DD date")
		}
		lead.PreferredMoveIn = &moveIn
	}
	lead, err = s.store.Leads.CreateOrGetByEmail(ctx, lead)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	conversation, err := s.store.Conversations.Create(ctx, &storex.Conversation{
		LeadID:      lead.ID,
		CommunityID: community.ID,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, startResponse{
		ConversationID: conversation.ID,
		LeadID:         lead.ID,
		Greeting:       greeting(lead, community),
	})
}

// greeting opens the conversation with the lead's first name and, when
// stated, their bedroom preference.
func greeting(lead *storex.Lead, community *storex.Community) string {
	firstName := lead.Name
	if fields := strings.Fields(lead.Name); len(fields) > 0 {
		firstName = fields[0]
	}
	if lead.PreferredBedrooms > 0 {
		return fmt.Sprintf("Hi %s! Welcome to %s. I see you're looking for a %d-bedroom home. How can I help you today?",
			firstName, community.Name, lead.PreferredBedrooms)
	}
	return fmt.Sprintf("Hi %s! Welcome to %s. How can I help you today?", firstName, community.Name)
}

type replyRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

// handleReply runs one full turn and streams the result as SSE: chunked
// content deltas, then the determined action, then the completion summary.
// A turn that fails before producing a decision streams a single error
// event instead.
func (s *Server) handleReply(c *echo.Context) error {
	var req replyRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message required")
	}
	if strings.TrimSpace(req.ConversationID) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "conversation_id required")
	}

	ctx := c.Request().Context()

	conversation, err := s.store.Conversations.ByID(ctx, req.ConversationID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if conversation == nil {
		return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	}
	lead, err := s.store.Leads.ByID(ctx, conversation.LeadID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if lead == nil {
		return echo.NewHTTPError(http.StatusNotFound, "lead not found")
	}

	history, err := s.store.Messages.ByConversationID(ctx, conversation.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	requestID := storex.NewID()
	userMessage, err := s.store.Messages.Create(ctx, &storex.Message{
		ConversationID: conversation.ID,
		MessageText:    req.Message,
		RequestID:      requestID,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	inquiry := contractx.Inquiry{
		Lead:        contractx.LeadIdentity{Name: lead.Name, Email: lead.Email},
		Message:     req.Message,
		CommunityID: conversation.CommunityID,
		Preferences: leadPreferences(lead),
		History:     historyEntries(history),

		ConversationID: conversation.ID,
		RequestID:      requestID,
	}

	rw := c.Response()
	rw.Header().Set("Content-Type", "text/event-stream")
	rw.Header().Set("Cache-Control", "no-cache")
	rw.Header().Set("Connection", "keep-alive")
	rw.Header().Set("X-Accel-Buffering", "no")
	rw.WriteHeader(http.StatusOK)

	turnCtx := ctx
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		turnCtx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	started := time.Now()
	decision, err := s.handler.HandleInquiry(turnCtx, inquiry)
	latency := time.Since(started).Milliseconds()
	if err != nil {
		log.Error().Err(err).
			Str("conversation_id", conversation.ID).
			Str("request_id", requestID).
			Msg("inquiry turn failed")
		writeEvents(rw, s.streamer.Fail(err))
		return nil
	}

	s.persistReply(ctx, userMessage, decision, latency)
	s.notifyHandoff(conversation, lead, decision)

	writeEvents(rw, s.streamer.Stream(decision))
	return nil
}

func writeEvents(rw http.ResponseWriter, events <-chan contractx.StreamEvent) {
	for ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			log.Warn().Err(err).Msg("stream event not serializable")
			continue
		}
		fmt.Fprintf(rw, "data: %s\n\n", data)
		if f, ok := rw.(http.Flusher); ok {
			f.Flush()
		}
	}
}

func (s *Server) persistReply(ctx context.Context, userMessage *storex.Message, decision contractx.ActionDecision, latencyMS int64) {
	userMessage.ReplyText = decision.ResponseText
	userMessage.Action = string(decision.ActionType)
	userMessage.ProposedTime = proposedTime(decision)
	userMessage.LLMTokensUsed = decision.TokensUsed
	userMessage.LLMLatencyMS = latencyMS
	if decision.ToolsCalled != nil {
		toolsCalled := make(map[string]any, len(decision.ToolsCalled))
		for name, args := range decision.ToolsCalled {
			toolsCalled[name] = args
		}
		userMessage.ToolsCalled = toolsCalled
	}

	if err := s.store.Messages.UpdateReply(ctx, userMessage); err != nil {
		log.Warn().Err(err).
			Str("message_id", userMessage.ID).
			Msg("reply persist failed")
	}
}

// proposedTime combines the decision's tour date and time into a concrete
// timestamp when both parse, date-only otherwise.
func proposedTime(decision contractx.ActionDecision) *time.Time {
	if decision.ActionType != contractx.ActionProposeTour || decision.TourDate == "" {
		return nil
	}
	day, err := time.Parse(isoDate, decision.TourDate)
	if err != nil {
		return nil
	}
	if clock, err := time.Parse("15:04", decision.TourTime); err == nil {
		day = day.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute)
	}
	return &day
}

// notifyHandoff tells the leasing team's webhook about a human handoff.
// Delivery is best effort and never blocks the reply stream.
func (s *Server) notifyHandoff(conversation *storex.Conversation, lead *storex.Lead, decision contractx.ActionDecision) {
	if decision.ActionType != contractx.ActionHandoffHuman {
		return
	}
	if s.notifier == nil || s.cfg.HandoffWebhookURL == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		err := s.notifier.Publish(ctx, s.cfg.HandoffWebhookURL, map[string]any{
			"conversation_id": conversation.ID,
			"community_id":    conversation.CommunityID,
			"lead_id":         lead.ID,
			"lead_name":       lead.Name,
			"lead_email":      lead.Email,
			"reason":          decision.ResponseText,
		})
		if err != nil {
			log.Warn().Err(err).
				Str("conversation_id", conversation.ID).
				Msg("handoff notification failed")
		}
	}()
}

func leadPreferences(lead *storex.Lead) contractx.Preferences {
	prefs := contractx.Preferences{Bedrooms: lead.PreferredBedrooms}
	if lead.PreferredMoveIn != nil {
		prefs.MoveIn = lead.PreferredMoveIn.Format(isoDate)
	}
	return prefs
}

// historyEntries rebuilds the chat transcript with explicit roles: each
// stored turn contributes its user text and, when the turn finished, the
// assistant reply.
func historyEntries(messages []storex.Message) []contractx.HistoryEntry {
	entries := make([]contractx.HistoryEntry, 0, len(messages)*2)
	for _, m := range messages {
		entries = append(entries, contractx.HistoryEntry{
			Role:      contractx.RoleUser,
			Content:   m.MessageText,
			Timestamp: m.CreatedAt,
		})
		if m.ReplyText != "" {
			entries = append(entries, contractx.HistoryEntry{
				Role:      contractx.RoleAssistant,
				Content:   m.ReplyText,
				Timestamp: m.CreatedAt,
			})
		}
	}
	return entries
}
