// Package llm implements the model gateway on the OpenAI chat-completions
// API: a free-form draft call that offers the lookup tools, then a
// schema-constrained decide call. The two calls are separate because most
// backends cannot enforce structured output and use tools simultaneously.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/shared"

	contractx "github.com/brookfield-ai/leasing-assistant/assistant/contract"
	openaix "github.com/brookfield-ai/leasing-assistant/pkg/openaix"
)

const decisionSchemaName = "leasing_response"

type Gateway struct {
	client      *openaisdk.Client
	model       string
	maxTokens   int
	temperature float32
}

var _ contractx.ModelGateway = (*Gateway)(nil)

func NewGateway(client *openaisdk.Client, cfg openaix.Config) (*Gateway, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: openai client is required", contractx.ErrValidation)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("%w: model name is required", contractx.ErrValidation)
	}
	return &Gateway{
		client:      client,
		model:       model,
		maxTokens:   cfg.MaxCompletionToken,
		temperature: cfg.Temperature,
	}, nil
}

// Draft issues the first-phase completion: the model sees the context and
// the tool schemas and may request zero or more calls.
func (g *Gateway) Draft(ctx context.Context, msgs []contractx.Message, tools []contractx.ToolSchema) (contractx.Draft, error) {
	params := g.baseParams(msgs)
	params.Tools = toToolParams(tools)

	completion, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return contractx.Draft{}, fmt.Errorf("%w: draft completion: %v", contractx.ErrModelInvoke, err)
	}
	if len(completion.Choices) == 0 {
		return contractx.Draft{}, fmt.Errorf("%w: draft returned no choices", contractx.ErrSchemaViolation)
	}

	msg := completion.Choices[0].Message
	draft := contractx.Draft{
		Content: msg.Content,
		Tokens:  int(completion.Usage.TotalTokens),
		Raw:     msg.ToParam(),
	}
	for _, tc := range msg.ToolCalls {
		name := strings.TrimSpace(tc.Function.Name)
		if name == "" {
			return contractx.Draft{}, fmt.Errorf("%w: tool call without a function name", contractx.ErrSchemaViolation)
		}
		draft.ToolCalls = append(draft.ToolCalls, contractx.ToolCall{
			ID:        tc.ID,
			Name:      name,
			Arguments: tc.Function.Arguments,
		})
	}
	return draft, nil
}

// Decide issues the second-phase completion with a forced response schema:
// unknown fields rejected, response_text and action_type mandatory,
// everything else optional.
func (g *Gateway) Decide(ctx context.Context, msgs []contractx.Message) (contractx.Decision, error) {
	params := g.baseParams(msgs)
	params.ResponseFormat = openaisdk.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
			JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:        decisionSchemaName,
				Description: openaisdk.String("Classified next action for a leasing inquiry"),
				Schema:      decisionSchema(),
			},
		},
	}

	completion, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return contractx.Decision{}, fmt.Errorf("%w: decide completion: %v", contractx.ErrModelInvoke, err)
	}
	if len(completion.Choices) == 0 {
		return contractx.Decision{}, fmt.Errorf("%w: decide returned no choices", contractx.ErrSchemaViolation)
	}

	var payload struct {
		ResponseText         string `json:"response_text"`
		ActionType           string `json:"action_type"`
		TourTime             string `json:"tour_time"`
		TourDate             string `json:"tour_date"`
		UnitID               string `json:"unit_id"`
		ConfirmationRequired *bool  `json:"confirmation_required"`
		ClarificationNeeded  string `json:"clarification_needed"`
	}
	content := completion.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return contractx.Decision{}, fmt.Errorf("%w: decide content is not valid JSON: %v", contractx.ErrSchemaViolation, err)
	}
	if strings.TrimSpace(payload.ResponseText) == "" || strings.TrimSpace(payload.ActionType) == "" {
		return contractx.Decision{}, fmt.Errorf("%w: decide response missing response_text or action_type", contractx.ErrSchemaViolation)
	}

	return contractx.Decision{
		ActionType:           payload.ActionType,
		ResponseText:         payload.ResponseText,
		TourTime:             payload.TourTime,
		TourDate:             payload.TourDate,
		UnitID:               payload.UnitID,
		ConfirmationRequired: payload.ConfirmationRequired,
		ClarificationNeeded:  payload.ClarificationNeeded,
		Tokens:               int(completion.Usage.TotalTokens),
	}, nil
}

func (g *Gateway) baseParams(msgs []contractx.Message) openaisdk.ChatCompletionNewParams {
	params := openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(g.model),
		Messages: toMessageParams(msgs),
	}
	if g.maxTokens > 0 {
		params.MaxCompletionTokens = openaisdk.Int(int64(g.maxTokens))
	}
	if g.temperature > 0 {
		params.Temperature = openaisdk.Float(float64(g.temperature))
	}
	return params
}

// toMessageParams converts the context sequence to SDK params. Entries the
// gateway itself produced carry their exact replay handle in Raw and are
// passed through verbatim; this is how assistant entries keep their tool
// calls across the two phases.
func toMessageParams(msgs []contractx.Message) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		if m.Raw != nil {
			if p, ok := m.Raw.(openaisdk.ChatCompletionMessageParamUnion); ok {
				out = append(out, p)
				continue
			}
		}
		switch m.Role {
		case contractx.RoleSystem:
			out = append(out, openaisdk.SystemMessage(m.Content))
		case contractx.RoleUser:
			out = append(out, openaisdk.UserMessage(m.Content))
		case contractx.RoleAssistant:
			out = append(out, openaisdk.AssistantMessage(m.Content))
		case contractx.RoleTool:
			out = append(out, openaisdk.ToolMessage(m.Content, m.ToolCallID))
		}
	}
	return out
}

func toToolParams(tools []contractx.ToolSchema) []openaisdk.ChatCompletionToolUnionParam {
	out := make([]openaisdk.ChatCompletionToolUnionParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, openaisdk.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openaisdk.String(t.Description),
			Parameters:  shared.FunctionParameters(t.Parameters),
		}))
	}
	return out
}

// decisionSchema is the wire schema for the decide phase. All fields stay
// optional except response_text and action_type, matching the tolerance
// the action policy expects from weaker backends.
func decisionSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"response_text": map[string]any{
				"type":        "string",
				"description": "The friendly response message to the lead",
			},
			"action_type": map[string]any{
				"type":        "string",
				"enum":        []string{"propose_tour", "ask_clarification", "handoff_human", "tour_confirmed"},
				"description": "The next action to take based on the inquiry",
			},
			"tour_time": map[string]any{
				"type":        "string",
				"description": "Proposed tour time (only for propose_tour action)",
			},
			"tour_date": map[string]any{
				"type":        "string",
				"description": "Proposed tour date (only for propose_tour action)",
			},
			"unit_id": map[string]any{
				"type":        "string",
				"description": "Specific unit to tour (only for propose_tour action)",
			},
			"confirmation_required": map[string]any{
				"type":        "boolean",
				"description": "Whether tour confirmation is needed (only for propose_tour action)",
			},
			"clarification_needed": map[string]any{
				"type":        "string",
				"description": "What clarification is needed (only for ask_clarification action)",
			},
		},
		"required":             []string{"response_text", "action_type"},
		"additionalProperties": false,
	}
}
