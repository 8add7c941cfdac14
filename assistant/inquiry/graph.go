package inquiry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/brookfield-ai/leasing-assistant/assistant/contract"
)

// compileHandleTurnGraph wires the two-phase turn protocol as an explicit
// graph: validate -> build_context -> draft, then either a tool dispatch hop
// or a plain assistant append, both converging on the structured decide call.
func (o *Orchestrator) compileHandleTurnGraph(ctx context.Context) (compose.Runnable[contractx.Inquiry, contractx.ActionDecision], error) {
	graph := compose.NewGraph[contractx.Inquiry, contractx.ActionDecision]()

	if err := graph.AddLambdaNode("validate",
		compose.InvokableLambda(func(ctx context.Context, inq contractx.Inquiry) (*turnState, error) {
			return o.validateInquiry(inq)
		}),
	); err != nil {
		return nil, fmt.Errorf("add turn validate node: %w", err)
	}

	if err := graph.AddLambdaNode("build_context",
		compose.InvokableLambda(func(ctx context.Context, st *turnState) (*turnState, error) {
			return o.buildContext(st)
		}),
	); err != nil {
		return nil, fmt.Errorf("add turn context node: %w", err)
	}

	if err := graph.AddLambdaNode("draft",
		compose.InvokableLambda(func(ctx context.Context, st *turnState) (*turnState, error) {
			return o.draft(ctx, st)
		}),
	); err != nil {
		return nil, fmt.Errorf("add turn draft node: %w", err)
	}

	if err := graph.AddLambdaNode("dispatch_tools",
		compose.InvokableLambda(func(ctx context.Context, st *turnState) (*turnState, error) {
			return o.dispatchTools(ctx, st)
		}),
	); err != nil {
		return nil, fmt.Errorf("add turn tool dispatch node: %w", err)
	}

	if err := graph.AddLambdaNode("append_draft",
		compose.InvokableLambda(func(ctx context.Context, st *turnState) (*turnState, error) {
			if st.Draft.Content != "" {
				st.Messages = append(st.Messages, contractx.Message{
					Role:    contractx.RoleAssistant,
					Content: st.Draft.Content,
				})
			}
			return st, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add turn append draft node: %w", err)
	}

	if err := graph.AddLambdaNode("decide",
		compose.InvokableLambda(func(ctx context.Context, st *turnState) (contractx.ActionDecision, error) {
			decision, err := o.model.Decide(ctx, st.Messages)
			if err != nil {
				return contractx.ActionDecision{}, err
			}
			return o.finalize(st, decision)
		}),
	); err != nil {
		return nil, fmt.Errorf("add turn decide node: %w", err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, st *turnState) (string, error) {
			if st == nil {
				return "", fmt.Errorf("%w: turn state is nil", contractx.ErrValidation)
			}
			if len(st.Draft.ToolCalls) > 0 {
				return "dispatch_tools", nil
			}
			return "append_draft", nil
		},
		map[string]bool{
			"dispatch_tools": true,
			"append_draft":   true,
		},
	)

	if err := graph.AddBranch("draft", branch); err != nil {
		return nil, fmt.Errorf("add turn branch: %w", err)
	}
	if err := graph.AddEdge(compose.START, "validate"); err != nil {
		return nil, fmt.Errorf("add turn edge start->validate: %w", err)
	}
	if err := graph.AddEdge("validate", "build_context"); err != nil {
		return nil, fmt.Errorf("add turn edge validate->context: %w", err)
	}
	if err := graph.AddEdge("build_context", "draft"); err != nil {
		return nil, fmt.Errorf("add turn edge context->draft: %w", err)
	}
	if err := graph.AddEdge("dispatch_tools", "decide"); err != nil {
		return nil, fmt.Errorf("add turn edge dispatch->decide: %w", err)
	}
	if err := graph.AddEdge("append_draft", "decide"); err != nil {
		return nil, fmt.Errorf("add turn edge append->decide: %w", err)
	}
	if err := graph.AddEdge("decide", compose.END); err != nil {
		return nil, fmt.Errorf("add turn edge decide->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("inquiry.handle_turn_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile handle turn graph: %w", err)
	}
	return runner, nil
}

// dispatchTools replays the draft into context, then executes every requested
// tool sequentially in request order. Tool failures never abort the turn:
// the degraded payload travels back to the model in-band.
func (o *Orchestrator) dispatchTools(ctx context.Context, st *turnState) (*turnState, error) {
	st.Messages = append(st.Messages, contractx.Message{
		Role:      contractx.RoleAssistant,
		Content:   st.Draft.Content,
		ToolCalls: st.Draft.ToolCalls,
		Raw:       st.Draft.Raw,
	})

	meta := contractx.AuditMeta{
		ConversationID: st.Inquiry.ConversationID,
		RequestID:      st.Inquiry.RequestID,
	}

	for _, call := range st.Draft.ToolCalls {
		outcome := o.tools.Execute(ctx, call, meta)

		payload, err := json.Marshal(outcome.Payload)
		if err != nil {
			payload = []byte(`{"error":"tool payload was not serializable"}`)
		}
		st.Messages = append(st.Messages, contractx.Message{
			Role:       contractx.RoleTool,
			Content:    string(payload),
			ToolCallID: call.ID,
			ToolName:   call.Name,
		})

		if st.ToolsCalled == nil {
			st.ToolsCalled = make(map[string]map[string]any)
		}
		st.ToolsCalled[call.Name] = outcome.Args
	}

	return st, nil
}
