package stream

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	contractx "github.com/brookfield-ai/leasing-assistant/assistant/contract"
)

func collect(ch <-chan contractx.StreamEvent) []contractx.StreamEvent {
	var events []contractx.StreamEvent
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func TestStreamChunksAndOrdering(t *testing.T) {
	t.Parallel()

	cases := []struct {
		tokens     int
		wantDeltas int
	}{
		{tokens: 1, wantDeltas: 1},
		{tokens: 4, wantDeltas: 1},
		{tokens: 5, wantDeltas: 2},
		{tokens: 8, wantDeltas: 2},
		{tokens: 9, wantDeltas: 3},
		{tokens: 23, wantDeltas: 6},
	}

	s := New()
	for _, tc := range cases {
		words := make([]string, tc.tokens)
		for i := range words {
			words[i] = fmt.Sprintf("word%d", i)
		}
		text := strings.Join(words, " ")

		events := collect(s.Stream(contractx.ActionDecision{
			ActionType:   contractx.ActionHandoffHuman,
			ResponseText: text,
			TokensUsed:   12,
		}))

		if len(events) != tc.wantDeltas+2 {
			t.Fatalf("tokens=%d: expected %d events, got %d", tc.tokens, tc.wantDeltas+2, len(events))
		}

		var parts []string
		for _, ev := range events[:tc.wantDeltas] {
			if ev.Type != contractx.EventContentDelta {
				t.Fatalf("tokens=%d: expected content_delta, got %q", tc.tokens, ev.Type)
			}
			parts = append(parts, ev.Data["content"].(string))
		}
		if got := strings.Join(parts, " "); got != text {
			t.Fatalf("tokens=%d: reconstructed text mismatch:\n got %q\nwant %q", tc.tokens, got, text)
		}

		if events[tc.wantDeltas].Type != contractx.EventActionDetermined {
			t.Fatalf("tokens=%d: expected action_determined, got %q", tc.tokens, events[tc.wantDeltas].Type)
		}
		if events[tc.wantDeltas+1].Type != contractx.EventResponseComplete {
			t.Fatalf("tokens=%d: expected response_complete, got %q", tc.tokens, events[tc.wantDeltas+1].Type)
		}
	}
}

func TestStreamEmptyReply(t *testing.T) {
	t.Parallel()

	events := collect(New().Stream(contractx.ActionDecision{
		ActionType:   contractx.ActionHandoffHuman,
		ResponseText: "",
	}))

	if len(events) != 2 {
		t.Fatalf("expected only terminal events for empty reply, got %d", len(events))
	}
	if events[0].Type != contractx.EventActionDetermined || events[1].Type != contractx.EventResponseComplete {
		t.Fatalf("unexpected event order: %q, %q", events[0].Type, events[1].Type)
	}
}

func TestStreamProposeTourPayload(t *testing.T) {
	t.Parallel()

	confirmed := false
	decision := contractx.ActionDecision{
		ActionType:           contractx.ActionProposeTour,
		ResponseText:         "How about Saturday at 10am?",
		TourTime:             "10:00",
		TourDate:             "2026-09-05",
		UnitID:               "204",
		ConfirmationRequired: &confirmed,
		ToolsCalled: map[string]map[string]any{
			"find_tour_slots": {"community_id": "sunset-ridge"},
		},
		TokensUsed: 90,
	}

	events := collect(New().Stream(decision))
	action := events[len(events)-2]
	if action.Type != contractx.EventActionDetermined {
		t.Fatalf("expected action_determined, got %q", action.Type)
	}
	if action.Data["tour_time"] != "10:00" || action.Data["tour_date"] != "2026-09-05" || action.Data["unit_id"] != "204" {
		t.Fatalf("unexpected tour fields: %v", action.Data)
	}
	if action.Data["confirmation_required"] != false {
		t.Fatalf("expected explicit false confirmation flag, got %v", action.Data["confirmation_required"])
	}

	complete := events[len(events)-1]
	if complete.Data["response_text"] != decision.ResponseText {
		t.Fatalf("unexpected response_text: %v", complete.Data["response_text"])
	}
	if complete.Data["tokens_used"] != 90 {
		t.Fatalf("unexpected tokens_used: %v", complete.Data["tokens_used"])
	}
	if _, ok := complete.Data["tools_called"]; !ok {
		t.Fatalf("expected tools_called in completion, got %v", complete.Data)
	}
}

func TestStreamAskClarificationPayload(t *testing.T) {
	t.Parallel()

	events := collect(New().Stream(contractx.ActionDecision{
		ActionType:          contractx.ActionAskClarification,
		ResponseText:        "Which move-in month works for you?",
		ClarificationNeeded: "move_in_date",
	}))

	action := events[len(events)-2]
	if action.Data["clarification_needed"] != "move_in_date" {
		t.Fatalf("unexpected clarification payload: %v", action.Data)
	}
	if _, ok := action.Data["tour_time"]; ok {
		t.Fatalf("tour fields must not leak into %q events", action.Data["action_type"])
	}
}

func TestFailEmitsSingleErrorEvent(t *testing.T) {
	t.Parallel()

	events := collect(New().Fail(errors.New("model backend unreachable")))
	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(events))
	}
	if events[0].Type != contractx.EventError {
		t.Fatalf("expected error event, got %q", events[0].Type)
	}
	if events[0].Data["error"] != "model backend unreachable" {
		t.Fatalf("unexpected error payload: %v", events[0].Data)
	}
}

func TestWithChunkTokens(t *testing.T) {
	t.Parallel()

	events := collect(New(WithChunkTokens(2)).Stream(contractx.ActionDecision{
		ActionType:   contractx.ActionHandoffHuman,
		ResponseText: "one two three four five",
	}))

	var deltas int
	for _, ev := range events {
		if ev.Type == contractx.EventContentDelta {
			deltas++
		}
	}
	if deltas != 3 {
		t.Fatalf("expected 3 deltas with chunk size 2, got %d", deltas)
	}
}
