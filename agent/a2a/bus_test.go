package a2a

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func echoHandler(name string) Handler {
	return func(ctx context.Context, msg Message) (*Message, error) {
		resp := msg.Reply(name, TypeResponse, map[string]any{"echo": msg.PayloadValue("query")})
		return &resp, nil
	}
}

func TestSendToUnknownRecipient(t *testing.T) {
	t.Parallel()

	bus := NewBus(Config{})
	req := NewMessage("router", "ghost", TypeQuery, map[string]any{"query": "hi"})

	d := bus.Deliver(context.Background(), req)
	if d.Outcome != OutcomeUnroutable {
		t.Fatalf("expected unroutable outcome, got %q", d.Outcome)
	}
	resp := d.Response
	if resp == nil || resp.Type() != TypeError {
		t.Fatalf("expected ERROR response, got %v", resp)
	}
	if !strings.Contains(resp.ErrorText(), "Agent 'ghost' not found") {
		t.Fatalf("unexpected error text %q", resp.ErrorText())
	}
	if resp.Recipient() != "router" || resp.Sender() != ProtocolSender {
		t.Fatalf("unexpected addressing: %s", resp)
	}
	if resp.ConversationID() != req.ConversationID() {
		t.Fatal("expected conversation id to be copied from the request")
	}
	if req.Sender() != "router" {
		t.Fatal("expected request to stay untouched")
	}
	if got := len(bus.History("")); got != 2 {
		t.Fatalf("expected request and error in history, got %d", got)
	}
}

func TestSendHistoryAccounting(t *testing.T) {
	t.Parallel()

	bus := NewBus(Config{})
	bus.RegisterHandler("echo", echoHandler("echo"))

	shared := NewConversationID()
	for i := 0; i < 3; i++ {
		opts := []MessageOption{}
		if i < 2 {
			opts = append(opts, WithConversationID(shared))
		}
		resp := bus.Send(context.Background(), NewMessage("client", "echo", TypeQuery, map[string]any{"query": i}, opts...))
		if resp == nil || resp.Type() != TypeResponse {
			t.Fatalf("expected a response, got %v", resp)
		}
	}

	history := bus.History("")
	if len(history) != 6 {
		t.Fatalf("expected 6 history entries, got %d", len(history))
	}
	for i := 0; i < len(history); i += 2 {
		if history[i].Type() != TypeQuery || history[i+1].Type() != TypeResponse {
			t.Fatalf("expected request before response at %d: %s, %s", i, history[i], history[i+1])
		}
	}

	filtered := bus.History(shared)
	if len(filtered) != 4 {
		t.Fatalf("expected 4 entries for shared conversation, got %d", len(filtered))
	}
	for _, m := range filtered {
		if m.ConversationID() != shared {
			t.Fatalf("unexpected conversation in filtered history: %s", m)
		}
	}

	bus.ClearHistory()
	if got := len(bus.History("")); got != 0 {
		t.Fatalf("expected empty history after clear, got %d", got)
	}
}

func TestSendHandlerFailure(t *testing.T) {
	t.Parallel()

	bus := NewBus(Config{})
	bus.RegisterHandler("broken", func(ctx context.Context, msg Message) (*Message, error) {
		return nil, errors.New("database on fire")
	})
	bus.RegisterHandler("panicky", func(ctx context.Context, msg Message) (*Message, error) {
		panic("nil map write")
	})

	for name, want := range map[string]string{"broken": "database on fire", "panicky": "nil map write"} {
		d := bus.Deliver(context.Background(), NewMessage("router", name, TypeQuery, nil))
		if d.Outcome != OutcomeErrored {
			t.Fatalf("%s: expected errored outcome, got %q", name, d.Outcome)
		}
		if !d.Failed() || !strings.Contains(d.Response.ErrorText(), want) {
			t.Fatalf("%s: unexpected response %v", name, d.Response)
		}
		if d.Response.Recipient() != "router" {
			t.Fatalf("%s: expected error addressed back to sender, got %s", name, d.Response)
		}
	}
}

func TestSendSilentHandler(t *testing.T) {
	t.Parallel()

	bus := NewBus(Config{})
	bus.RegisterHandler("sink", func(ctx context.Context, msg Message) (*Message, error) {
		return nil, nil
	})

	d := bus.Deliver(context.Background(), NewMessage("router", "sink", TypeTask, nil))
	if d.Outcome != OutcomeSilent || d.Response != nil {
		t.Fatalf("expected silent delivery, got %+v", d)
	}
	if got := len(bus.History("")); got != 1 {
		t.Fatalf("expected only the request in history, got %d", got)
	}
}

func TestSendHandlerTimeout(t *testing.T) {
	t.Parallel()

	bus := NewBus(Config{HandlerTimeout: 20 * time.Millisecond})
	bus.RegisterHandler("slow", func(ctx context.Context, msg Message) (*Message, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
			resp := msg.Reply("slow", TypeResponse, nil)
			return &resp, nil
		}
	})

	resp := bus.Send(context.Background(), NewMessage("router", "slow", TypeQuery, nil))
	if resp == nil || !resp.IsError() {
		t.Fatalf("expected ERROR response, got %v", resp)
	}
	if !strings.Contains(resp.ErrorText(), ErrHandlerTimeout.Error()) {
		t.Fatalf("unexpected error text %q", resp.ErrorText())
	}
}

func TestSendBlockingFromInsideHandler(t *testing.T) {
	t.Parallel()

	bus := NewBus(Config{BlockingTimeout: time.Second})
	bus.RegisterHandler("inner", echoHandler("inner"))
	bus.RegisterHandler("outer", func(ctx context.Context, msg Message) (*Message, error) {
		inner := bus.SendBlocking(NewMessage("outer", "inner", TypeQuery, map[string]any{"query": "nested"},
			WithConversationID(msg.ConversationID())))
		if inner == nil {
			return nil, errors.New("no inner response")
		}
		resp := msg.Reply("outer", TypeResponse, inner.Payload())
		return &resp, nil
	})

	resp := bus.SendBlocking(NewMessage("client", "outer", TypeQuery, nil))
	if resp == nil || resp.Type() != TypeResponse {
		t.Fatalf("expected response, got %v", resp)
	}
	if resp.PayloadValue("echo") != "nested" {
		t.Fatalf("unexpected payload %#v", resp.Payload())
	}
	if got := len(bus.History(resp.ConversationID())); got != 4 {
		t.Fatalf("expected 4 messages in the conversation, got %d", got)
	}
}

func TestRegisterHandlerAssignsAddresses(t *testing.T) {
	t.Parallel()

	bus := NewBus(Config{BasePort: 9100})
	first := bus.RegisterHandler("router", echoHandler("router"))
	second := bus.RegisterHandler("support", echoHandler("support"))

	if first != "http://localhost:9100" || second != "http://localhost:9101" {
		t.Fatalf("unexpected addresses %q %q", first, second)
	}
	card, ok := bus.AgentCard("support")
	if !ok || card.URL != second || card.Version != "1.0.0" {
		t.Fatalf("unexpected card %+v", card)
	}

	if got := bus.RegisteredAgents(); len(got) != 2 || got[0] != "router" {
		t.Fatalf("unexpected agents %v", got)
	}
	if !bus.UnregisterHandler("router") {
		t.Fatal("expected router to be removed")
	}
	if _, ok := bus.AgentURL("router"); ok {
		t.Fatal("expected router address to be dropped")
	}
}

func TestConcurrentSends(t *testing.T) {
	t.Parallel()

	bus := NewBus(Config{})
	bus.RegisterHandler("echo", echoHandler("echo"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Send(context.Background(), NewMessage("client", "echo", TypeQuery, nil))
		}()
	}
	wg.Wait()

	if got := len(bus.History("")); got != 100 {
		t.Fatalf("expected 100 history entries, got %d", got)
	}
}
