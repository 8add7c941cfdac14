// Package inquiry is the orchestration core: it turns one inbound lead
// message plus conversation history into zero or more tool invocations, a
// model-determined action classification, and a finished reply.
package inquiry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/brookfield-ai/leasing-assistant/assistant/contract"
	promptx "github.com/brookfield-ai/leasing-assistant/assistant/prompt"
)

var (
	ErrEmptyMessage     = errors.New("inquiry message is empty")
	ErrMissingCommunity = errors.New("inquiry community id is empty")
)

type Orchestrator struct {
	model   contractx.ModelGateway
	tools   contractx.ToolGateway
	prompts promptx.PromptSet

	graphRunner compose.Runnable[contractx.Inquiry, contractx.ActionDecision]
}

func New(model contractx.ModelGateway, tools contractx.ToolGateway) (*Orchestrator, error) {
	if model == nil {
		return nil, errors.New("model gateway is required")
	}
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}

	o := &Orchestrator{
		model:   model,
		tools:   tools,
		prompts: promptx.LoadPromptSet(),
	}

	graphRunner, err := o.compileHandleTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleInquiry produces exactly one ActionDecision for the turn. Tool
// failures are absorbed into model context along the way; only a model
// backend failure or invalid input surfaces as an error.
func (o *Orchestrator) HandleInquiry(ctx context.Context, inq contractx.Inquiry) (contractx.ActionDecision, error) {
	return o.graphRunner.Invoke(ctx, inq)
}

// turnState threads one turn through the graph nodes.
type turnState struct {
	Inquiry     contractx.Inquiry
	Messages    []contractx.Message
	Draft       contractx.Draft
	ToolsCalled map[string]map[string]any
	Tokens      int
}

func (o *Orchestrator) validateInquiry(inq contractx.Inquiry) (*turnState, error) {
	if strings.TrimSpace(inq.Message) == "" {
		return nil, fmt.Errorf("%w: %v", contractx.ErrValidation, ErrEmptyMessage)
	}
	if strings.TrimSpace(inq.CommunityID) == "" {
		return nil, fmt.Errorf("%w: %v", contractx.ErrValidation, ErrMissingCommunity)
	}
	for _, entry := range inq.History {
		if entry.Role != contractx.RoleUser && entry.Role != contractx.RoleAssistant {
			return nil, fmt.Errorf("%w: history entry has role %q", contractx.ErrValidation, entry.Role)
		}
	}
	return &turnState{Inquiry: inq}, nil
}

// buildContext assembles the model context: system instruction, then the
// conversation history in original order, then the new user message.
func (o *Orchestrator) buildContext(st *turnState) (*turnState, error) {
	st.Messages = make([]contractx.Message, 0, len(st.Inquiry.History)+2)
	st.Messages = append(st.Messages, contractx.Message{
		Role:    contractx.RoleSystem,
		Content: o.systemInstruction(st.Inquiry),
	})
	for _, entry := range st.Inquiry.History {
		st.Messages = append(st.Messages, contractx.Message{
			Role:    entry.Role,
			Content: entry.Content,
		})
	}
	st.Messages = append(st.Messages, contractx.Message{
		Role:    contractx.RoleUser,
		Content: st.Inquiry.Message,
	})
	return st, nil
}

func (o *Orchestrator) systemInstruction(inq contractx.Inquiry) string {
	var preferences strings.Builder
	if inq.Preferences.Bedrooms > 0 {
		fmt.Fprintf(&preferences, "- Looking for: %d bedroom unit\n", inq.Preferences.Bedrooms)
	}
	if inq.Preferences.MoveIn != "" {
		fmt.Fprintf(&preferences, "- Preferred move-in date: %s\n", inq.Preferences.MoveIn)
	}

	replacer := strings.NewReplacer(
		"{community_id}", inq.CommunityID,
		"{lead_name}", inq.Lead.Name,
		"{lead_email}", inq.Lead.Email,
		"{preferences}", strings.TrimRight(preferences.String(), "\n"),
	)
	return replacer.Replace(o.prompts.System)
}

func (o *Orchestrator) draft(ctx context.Context, st *turnState) (*turnState, error) {
	draft, err := o.model.Draft(ctx, st.Messages, o.tools.Schemas())
	if err != nil {
		return nil, err
	}
	st.Draft = draft
	st.Tokens += draft.Tokens
	return st, nil
}

func (o *Orchestrator) finalize(st *turnState, decision contractx.Decision) (contractx.ActionDecision, error) {
	actionType := contractx.ActionType(strings.TrimSpace(decision.ActionType))
	if !actionType.Valid() {
		return contractx.ActionDecision{}, fmt.Errorf("%w: unsupported action_type=%q", contractx.ErrSchemaViolation, decision.ActionType)
	}

	out := contractx.ActionDecision{
		ActionType:           actionType,
		ResponseText:         decision.ResponseText,
		TourTime:             decision.TourTime,
		TourDate:             decision.TourDate,
		UnitID:               decision.UnitID,
		ConfirmationRequired: decision.ConfirmationRequired,
		ClarificationNeeded:  decision.ClarificationNeeded,
		TokensUsed:           st.Tokens + decision.Tokens,
	}
	if len(st.ToolsCalled) > 0 {
		out.ToolsCalled = st.ToolsCalled
	}

	if out.ActionType == contractx.ActionProposeTour {
		if out.TourTime == "" || out.TourDate == "" || out.UnitID == "" {
			return contractx.ActionDecision{}, fmt.Errorf("%w: propose_tour decision missing tour_time, tour_date or unit_id", contractx.ErrSchemaViolation)
		}
		// The model may omit the confirmation flag; an omitted flag means
		// the tour still needs confirming, an explicit false stays false.
		if out.ConfirmationRequired == nil {
			required := true
			out.ConfirmationRequired = &required
		}
	}
	if out.ActionType != contractx.ActionProposeTour {
		out.ConfirmationRequired = nil
		out.TourTime = ""
		out.TourDate = ""
		out.UnitID = ""
	}
	if out.ActionType != contractx.ActionAskClarification {
		out.ClarificationNeeded = ""
	}

	return out, nil
}
