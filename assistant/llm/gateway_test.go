package llm

import (
	"testing"

	openaisdk "github.com/openai/openai-go/v2"

	contractx "github.com/brookfield-ai/leasing-assistant/assistant/contract"
	openaix "github.com/brookfield-ai/leasing-assistant/pkg/openaix"
)

func TestNewGatewayValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewGateway(nil, openaix.Config{Model: "gpt-4o-mini"}); err == nil {
		t.Fatal("expected error for nil client")
	}

	client := &openaisdk.Client{}
	if _, err := NewGateway(client, openaix.Config{Model: "   "}); err == nil {
		t.Fatal("expected error for blank model")
	}
	if _, err := NewGateway(client, openaix.Config{Model: "gpt-4o-mini"}); err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}
}

func TestToMessageParamsRoles(t *testing.T) {
	t.Parallel()

	msgs := []contractx.Message{
		{Role: contractx.RoleSystem, Content: "You are a leasing agent."},
		{Role: contractx.RoleUser, Content: "Any 2 bedrooms?"},
		{Role: contractx.RoleAssistant, Content: "Let me check."},
		{Role: contractx.RoleTool, Content: `{"total_count":0}`, ToolCallID: "call-1", ToolName: "check_availability"},
	}

	out := toMessageParams(msgs)
	if len(out) != 4 {
		t.Fatalf("expected 4 params, got %d", len(out))
	}
	if out[0].OfSystem == nil || out[1].OfUser == nil || out[2].OfAssistant == nil || out[3].OfTool == nil {
		t.Fatalf("unexpected param variants: %+v", out)
	}
	if out[3].OfTool.ToolCallID != "call-1" {
		t.Fatalf("expected tool call id preserved, got %q", out[3].OfTool.ToolCallID)
	}
}

func TestToMessageParamsRawPassthrough(t *testing.T) {
	t.Parallel()

	raw := openaisdk.AssistantMessage("drafted with tool calls")
	out := toMessageParams([]contractx.Message{
		{Role: contractx.RoleAssistant, Content: "ignored", Raw: raw},
	})
	if len(out) != 1 {
		t.Fatalf("expected 1 param, got %d", len(out))
	}
	if out[0].OfAssistant == nil || out[0].OfAssistant.Content.OfString.Value != "drafted with tool calls" {
		t.Fatalf("expected raw replay handle passed through, got %+v", out[0])
	}
}

func TestToToolParams(t *testing.T) {
	t.Parallel()

	out := toToolParams([]contractx.ToolSchema{
		{
			Name:        "check_availability",
			Description: "Check available units",
			Parameters: map[string]any{
				"type":     "object",
				"required": []string{"community_id", "bedrooms"},
			},
		},
	})
	if len(out) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(out))
	}
	fn := out[0].OfFunction
	if fn == nil || fn.Function.Name != "check_availability" {
		t.Fatalf("unexpected tool param: %+v", out[0])
	}
}

func TestDecisionSchemaShape(t *testing.T) {
	t.Parallel()

	schema := decisionSchema()
	if schema["additionalProperties"] != false {
		t.Fatal("schema must reject unknown fields")
	}

	required, ok := schema["required"].([]string)
	if !ok || len(required) != 2 {
		t.Fatalf("expected two required fields, got %v", schema["required"])
	}

	props := schema["properties"].(map[string]any)
	for _, name := range []string{
		"response_text", "action_type", "tour_time", "tour_date",
		"unit_id", "confirmation_required", "clarification_needed",
	} {
		if _, ok := props[name]; !ok {
			t.Fatalf("schema missing property %q", name)
		}
	}

	action := props["action_type"].(map[string]any)
	enum := action["enum"].([]string)
	if len(enum) != 4 {
		t.Fatalf("expected 4 action kinds, got %v", enum)
	}
}
