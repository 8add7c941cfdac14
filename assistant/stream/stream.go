// Package stream re-chunks a finished turn into an ordered sequence of
// incremental events for progressive delivery. Each sequence is generated
// once and consumed once; there is no replay.
package stream

import (
	"strings"

	contractx "github.com/brookfield-ai/leasing-assistant/assistant/contract"
)

const defaultChunkTokens = 4

type Streamer struct {
	chunkTokens int
}

type Option func(*Streamer)

func WithChunkTokens(n int) Option {
	return func(s *Streamer) {
		if n > 0 {
			s.chunkTokens = n
		}
	}
}

func New(opts ...Option) *Streamer {
	s := &Streamer{chunkTokens: defaultChunkTokens}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Stream emits content_delta events for the reply text in chunks, then one
// action_determined event, then one response_complete event, and closes.
func (s *Streamer) Stream(decision contractx.ActionDecision) <-chan contractx.StreamEvent {
	out := make(chan contractx.StreamEvent)
	go func() {
		defer close(out)

		tokens := strings.Fields(decision.ResponseText)
		for start := 0; start < len(tokens); start += s.chunkTokens {
			end := start + s.chunkTokens
			if end > len(tokens) {
				end = len(tokens)
			}
			out <- contractx.StreamEvent{
				Type: contractx.EventContentDelta,
				Data: map[string]any{
					"content": strings.Join(tokens[start:end], " "),
				},
			}
		}

		out <- contractx.StreamEvent{
			Type: contractx.EventActionDetermined,
			Data: actionData(decision),
		}

		complete := actionData(decision)
		complete["response_text"] = decision.ResponseText
		complete["tokens_used"] = decision.TokensUsed
		if decision.ToolsCalled != nil {
			complete["tools_called"] = decision.ToolsCalled
		}
		out <- contractx.StreamEvent{
			Type: contractx.EventResponseComplete,
			Data: complete,
		}
	}()
	return out
}

// Fail emits a single terminal error event. No further events follow.
func (s *Streamer) Fail(err error) <-chan contractx.StreamEvent {
	out := make(chan contractx.StreamEvent, 1)
	out <- contractx.StreamEvent{
		Type: contractx.EventError,
		Data: map[string]any{"error": err.Error()},
	}
	close(out)
	return out
}

func actionData(d contractx.ActionDecision) map[string]any {
	data := map[string]any{
		"action_type": string(d.ActionType),
	}
	switch d.ActionType {
	case contractx.ActionProposeTour:
		data["tour_time"] = d.TourTime
		data["tour_date"] = d.TourDate
		data["unit_id"] = d.UnitID
		confirmation := true
		if d.ConfirmationRequired != nil {
			confirmation = *d.ConfirmationRequired
		}
		data["confirmation_required"] = confirmation
	case contractx.ActionAskClarification:
		data["clarification_needed"] = d.ClarificationNeeded
	}
	return data
}
