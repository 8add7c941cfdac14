package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	contractx "github.com/brookfield-ai/leasing-assistant/assistant/contract"
	streamx "github.com/brookfield-ai/leasing-assistant/assistant/stream"
	storex "github.com/brookfield-ai/leasing-assistant/store"
)

func TestHistoryEntriesExplicitRoles(t *testing.T) {
	t.Parallel()

	now := time.Now()
	messages := []storex.Message{
		{MessageText: "Any 2 bedrooms?", ReplyText: "Yes, two are open.", CreatedAt: now.Add(-2 * time.Minute)},
		{MessageText: "Can I tour one?", ReplyText: "", CreatedAt: now.Add(-time.Minute)},
		{MessageText: "Hello?", ReplyText: "How about 2pm tomorrow?", CreatedAt: now},
	}

	entries := historyEntries(messages)
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}

	wantRoles := []contractx.Role{
		contractx.RoleUser, contractx.RoleAssistant,
		contractx.RoleUser,
		contractx.RoleUser, contractx.RoleAssistant,
	}
	for i, want := range wantRoles {
		if entries[i].Role != want {
			t.Fatalf("entry %d: expected role %q, got %q", i, want, entries[i].Role)
		}
	}
	if entries[2].Content != "Can I tour one?" {
		t.Fatalf("unreplied turn must still contribute its user entry, got %q", entries[2].Content)
	}
}

func TestProposedTime(t *testing.T) {
	t.Parallel()

	decision := contractx.ActionDecision{
		ActionType: contractx.ActionProposeTour,
		TourDate:   "2026-09-05",
		TourTime:   "14:30",
	}
	got := proposedTime(decision)
	if got == nil {
		t.Fatal("expected a proposed time")
	}
	want := time.Date(2026, 9, 5, 14, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	decision.TourTime = "2pm"
	got = proposedTime(decision)
	if got == nil || !got.Equal(time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unparseable clock should fall back to date-only, got %v", got)
	}

	decision.ActionType = contractx.ActionHandoffHuman
	if proposedTime(decision) != nil {
		t.Fatal("non-tour decisions carry no proposed time")
	}
}

func TestLeadPreferences(t *testing.T) {
	t.Parallel()

	moveIn := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	prefs := leadPreferences(&storex.Lead{PreferredBedrooms: 2, PreferredMoveIn: &moveIn})
	if prefs.Bedrooms != 2 || prefs.MoveIn != "2026-10-01" {
		t.Fatalf("unexpected preferences: %+v", prefs)
	}

	prefs = leadPreferences(&storex.Lead{})
	if prefs.Bedrooms != 0 || prefs.MoveIn != "" {
		t.Fatalf("expected empty preferences, got %+v", prefs)
	}
}

func TestGreeting(t *testing.T) {
	t.Parallel()

	community := &storex.Community{Name: "Sunset Ridge"}

	got := greeting(&storex.Lead{Name: "Jordan Smith", PreferredBedrooms: 2}, community)
	if !strings.Contains(got, "Jordan") || !strings.Contains(got, "2-bedroom") || !strings.Contains(got, "Sunset Ridge") {
		t.Fatalf("unexpected greeting: %q", got)
	}
	if strings.Contains(got, "Smith") {
		t.Fatalf("greeting should use the first name only, got %q", got)
	}

	got = greeting(&storex.Lead{Name: "Sam"}, community)
	if strings.Contains(got, "bedroom") {
		t.Fatalf("greeting without preference must not mention bedrooms: %q", got)
	}
}

func TestWriteEventsFraming(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	writeEvents(rec, streamx.New().Stream(contractx.ActionDecision{
		ActionType:   contractx.ActionHandoffHuman,
		ResponseText: "one two three four five six",
		TokensUsed:   7,
	}))

	body := rec.Body.String()
	blocks := strings.Split(strings.TrimSuffix(body, "\n\n"), "\n\n")
	if len(blocks) != 4 {
		t.Fatalf("expected 4 SSE blocks (2 deltas + action + complete), got %d:\n%s", len(blocks), body)
	}

	var types []string
	for _, block := range blocks {
		if !strings.HasPrefix(block, "data: ") {
			t.Fatalf("block missing data prefix: %q", block)
		}
		var ev contractx.StreamEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(block, "data: ")), &ev); err != nil {
			t.Fatalf("block is not valid JSON: %v", err)
		}
		types = append(types, string(ev.Type))
	}

	want := []string{"content_delta", "content_delta", "action_determined", "response_complete"}
	for i, w := range want {
		if types[i] != w {
			t.Fatalf("block %d: expected %q, got %q", i, w, types[i])
		}
	}
}
