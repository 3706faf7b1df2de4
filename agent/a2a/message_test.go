package a2a

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestMessageMapRoundTrip(t *testing.T) {
	t.Parallel()

	orig := NewMessage("router", "customer_data", TypeDataRequest,
		map[string]any{"query": "Get customer 5", "customer_id": 5},
		WithMetadata(map[string]any{"hop": 1}),
	)

	got, err := FromMap(orig.ToMap())
	if err != nil {
		t.Fatalf("FromMap() error = %v", err)
	}

	if got.Sender() != orig.Sender() || got.Recipient() != orig.Recipient() {
		t.Fatalf("unexpected addressing: %s", got)
	}
	if got.Type() != orig.Type() {
		t.Fatalf("expected type %q, got %q", orig.Type(), got.Type())
	}
	if !reflect.DeepEqual(got.Payload(), orig.Payload()) {
		t.Fatalf("payload mismatch: %#v vs %#v", got.Payload(), orig.Payload())
	}
	if got.ConversationID() != orig.ConversationID() || got.MessageID() != orig.MessageID() {
		t.Fatalf("ids not preserved: %s vs %s", got, orig)
	}
	if !got.Timestamp().Equal(orig.Timestamp()) {
		t.Fatalf("timestamp not preserved: %v vs %v", got.Timestamp(), orig.Timestamp())
	}
}

func TestMessageJSONRoundTrip(t *testing.T) {
	t.Parallel()

	orig := NewMessage("support", "router", TypeResponse, map[string]any{"response": "ok"})
	raw, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var wire map[string]any
	if err := json.Unmarshal(raw, &wire); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if wire["type"] != "response" {
		t.Fatalf("expected lowercase type on the wire, got %v", wire["type"])
	}

	got, err := FromJSON(raw)
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	if got.MessageID() != orig.MessageID() || got.Payload()["response"] != "ok" {
		t.Fatalf("unexpected message after round trip: %s %#v", got, got.Payload())
	}
}

func TestFromMapDefaults(t *testing.T) {
	t.Parallel()

	got, err := FromMap(map[string]any{
		"sender":    "a",
		"recipient": "b",
		"type":      "carrier_pigeon",
	})
	if err != nil {
		t.Fatalf("FromMap() error = %v", err)
	}
	if got.Type() != TypeQuery {
		t.Fatalf("expected unknown type to become query, got %q", got.Type())
	}
	if got.ConversationID() == "" || got.MessageID() == "" {
		t.Fatalf("expected generated ids, got %s", got)
	}
	if got.Payload() == nil {
		t.Fatal("expected empty payload map, got nil")
	}
}

func TestFromMapRequiresAddressing(t *testing.T) {
	t.Parallel()

	_, err := FromMap(map[string]any{"recipient": "b"})
	if !errors.Is(err, ErrMalformedMessage) {
		t.Fatalf("expected ErrMalformedMessage, got %v", err)
	}
}

func TestMessageIsImmutable(t *testing.T) {
	t.Parallel()

	payload := map[string]any{"query": "original"}
	msg := NewMessage("a", "b", TypeQuery, payload)

	payload["query"] = "changed by caller"
	view := msg.Payload()
	view["query"] = "changed by reader"

	if got := msg.PayloadValue("query"); got != "original" {
		t.Fatalf("expected payload to stay untouched, got %v", got)
	}
}

func TestReplyKeepsConversation(t *testing.T) {
	t.Parallel()

	req := NewMessage("router", "support", TypeQuery, nil, WithConversationID("conv-1"))
	resp := req.Reply("support", TypeResponse, map[string]any{"response": "done"})

	if resp.Recipient() != "router" || resp.Sender() != "support" {
		t.Fatalf("unexpected reply addressing: %s", resp)
	}
	if resp.ConversationID() != "conv-1" {
		t.Fatalf("expected conversation conv-1, got %s", resp.ConversationID())
	}
	if resp.MessageID() == req.MessageID() {
		t.Fatal("expected a fresh message id on the reply")
	}
}

func TestGeneratedIDsAreUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for i := 0; i < 500; i++ {
		m := NewMessage("a", "b", TypeQuery, nil)
		for _, id := range []string{m.MessageID(), m.ConversationID()} {
			if _, dup := seen[id]; dup {
				t.Fatalf("duplicate id %q", id)
			}
			seen[id] = struct{}{}
		}
	}
}

func TestWithTimestampIgnoresZero(t *testing.T) {
	t.Parallel()

	m := NewMessage("a", "b", TypeQuery, nil, WithTimestamp(time.Time{}))
	if m.Timestamp().IsZero() {
		t.Fatal("expected construction time to be kept")
	}
}
