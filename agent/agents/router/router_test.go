package router

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/a2a"
	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/agents/base"
	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	nodex "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/nodes"
	promptx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/prompt"
)

type scriptedGenerator struct {
	mu      sync.Mutex
	replies []string
	err     error
	users   []string
}

func (g *scriptedGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.users = append(g.users, user)
	if g.err != nil {
		return "", g.err
	}
	if len(g.replies) == 0 {
		return "", errors.New("no scripted reply left")
	}
	out := g.replies[0]
	g.replies = g.replies[1:]
	return out, nil
}

type specialistStub struct {
	mu       sync.Mutex
	received []a2a.Message
	payload  map[string]any
	fail     bool
}

func (s *specialistStub) handle(ctx context.Context, msg a2a.Message) (*a2a.Message, error) {
	s.mu.Lock()
	s.received = append(s.received, msg)
	s.mu.Unlock()
	if s.fail {
		return nil, errors.New("specialist exploded")
	}
	resp := msg.Reply(msg.Recipient(), a2a.TypeResponse, s.payload)
	return &resp, nil
}

func (s *specialistStub) last(t *testing.T) a2a.Message {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.received) == 0 {
		t.Fatal("specialist received nothing")
	}
	return s.received[len(s.received)-1]
}

func newTestRouter(t *testing.T, gen contractx.Generator) (*Router, *a2a.Bus) {
	t.Helper()
	bus := a2a.NewBus(a2a.Config{})
	r, err := New(context.Background(), base.Deps{
		Directory: a2a.NewDirectory(),
		Bus:       bus,
		Generator: gen,
	}, promptx.LoadPromptSet())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r, bus
}

func TestHandleUserQueryFallbackPath(t *testing.T) {
	t.Parallel()

	r, bus := newTestRouter(t, &scriptedGenerator{err: contractx.ErrModelInvoke})
	customers := &specialistStub{payload: map[string]any{"response": "Customer 5 is Charlie Brown."}}
	bus.RegisterHandler("customer_data", customers.handle)

	result, err := r.HandleUserQuery(context.Background(), "Get customer information for ID 5", "conv-1")
	if err != nil {
		t.Fatalf("HandleUserQuery() error = %v", err)
	}
	if result.ConversationID != "conv-1" {
		t.Fatalf("conversation id = %q", result.ConversationID)
	}
	if result.Analysis.Source != contractx.AnalysisFallback {
		t.Fatalf("expected fallback analysis, got %s", result.Analysis.Source)
	}
	if len(result.AgentsUsed) != 1 || result.AgentsUsed[0] != "customer_data" {
		t.Fatalf("agents used = %v", result.AgentsUsed)
	}
	if result.Response != "Customer 5 is Charlie Brown." {
		t.Fatalf("response = %q", result.Response)
	}

	msg := customers.last(t)
	if msg.Type() != a2a.TypeQuery || msg.Sender() != Name || msg.ConversationID() != "conv-1" {
		t.Fatalf("unexpected dispatched message: %s", msg)
	}
	if id, _ := contractx.AsInt(msg.PayloadValue("customer_id")); id != 5 {
		t.Fatalf("customer_id = %v", msg.PayloadValue("customer_id"))
	}

	if len(bus.History("conv-1")) != 2 {
		t.Fatalf("expected request and response in history, got %d", len(bus.History("conv-1")))
	}
}

func TestHandleUserQueryParsedPathSynthesizes(t *testing.T) {
	t.Parallel()

	analysis := "```json\n" + `{
		"analysis": "needs both",
		"intents": ["customer_lookup", "ticket_creation"],
		"requires_customer_data": true,
		"requires_support": true,
		"customer_id": 1,
		"routing_plan": [{"agent": "support_agent", "task": "open ticket", "priority": 1}]
	}` + "\n```"
	gen := &scriptedGenerator{replies: []string{analysis, "Ticket opened for John."}}
	r, bus := newTestRouter(t, gen)

	customers := &specialistStub{payload: map[string]any{"response": "John Doe, active."}}
	support := &specialistStub{payload: map[string]any{"response": "Ticket #27 created."}}
	bus.RegisterHandler("customer_data", customers.handle)
	bus.RegisterHandler("support", support.handle)

	result, err := r.HandleUserQuery(context.Background(), "Customer 1 needs a ticket", "")
	if err != nil {
		t.Fatalf("HandleUserQuery() error = %v", err)
	}
	if result.ConversationID == "" {
		t.Fatal("expected a generated conversation id")
	}
	if result.Analysis.Source != contractx.AnalysisParsed {
		t.Fatalf("expected parsed analysis, got %s", result.Analysis.Source)
	}
	if strings.Join(result.AgentsUsed, ",") != "customer_data,support" {
		t.Fatalf("agents used = %v", result.AgentsUsed)
	}
	if result.Response != "Ticket opened for John." {
		t.Fatalf("response = %q", result.Response)
	}

	supportMsg := support.last(t)
	cd, _ := supportMsg.PayloadValue("customer_data").(map[string]any)
	if cd["response"] != "John Doe, active." {
		t.Fatalf("support did not receive customer data: %v", supportMsg.Payload())
	}
	if tasks, _ := supportMsg.PayloadValue("tasks").([]any); len(tasks) != 1 {
		t.Fatalf("support tasks = %v", supportMsg.PayloadValue("tasks"))
	}
	if !strings.Contains(gen.users[1], "\nSUPPORT AGENT:\nTicket #27 created.\n") {
		t.Fatalf("synthesis prompt = %q", gen.users[1])
	}
}

func TestHandleUserQueryWithoutSpecialistsApologizes(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t, &scriptedGenerator{err: contractx.ErrModelInvoke})

	result, err := r.HandleUserQuery(context.Background(), "I need help with a refund", "")
	if err != nil {
		t.Fatalf("HandleUserQuery() error = %v", err)
	}
	if result.Response != nodex.NoResponseApology {
		t.Fatalf("response = %q", result.Response)
	}
	if len(result.AgentsUsed) != 0 {
		t.Fatalf("agents used = %v", result.AgentsUsed)
	}
	if !strings.Contains(strings.Join(r.Logs(), "\n"), "Error from support: Agent 'support' not found") {
		t.Fatalf("unroutable support not logged: %v", r.Logs())
	}
}

func TestHandleUserQuerySkipsFailingSpecialist(t *testing.T) {
	t.Parallel()

	r, bus := newTestRouter(t, &scriptedGenerator{err: contractx.ErrModelInvoke})
	bus.RegisterHandler("customer_data", (&specialistStub{fail: true}).handle)
	bus.RegisterHandler("support", (&specialistStub{payload: map[string]any{"status": "ok"}}).handle)

	result, err := r.HandleUserQuery(context.Background(), "customer 3 has an urgent issue", "")
	if err != nil {
		t.Fatalf("HandleUserQuery() error = %v", err)
	}
	if strings.Join(result.AgentsUsed, ",") != "support" {
		t.Fatalf("agents used = %v", result.AgentsUsed)
	}
	if result.Response != nodex.ProcessedMessage {
		t.Fatalf("response = %q", result.Response)
	}
}

func TestHandleUserQueryRejectsEmptyQuery(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t, nil)
	if _, err := r.HandleUserQuery(context.Background(), "  ", ""); !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestRouterOverBus(t *testing.T) {
	t.Parallel()

	r, bus := newTestRouter(t, nil)
	bus.RegisterHandler("customer_data", (&specialistStub{payload: map[string]any{"response": "found"}}).handle)

	query := a2a.NewMessage("user", r.Name(), a2a.TypeQuery, map[string]any{"query": "show customer 2"},
		a2a.WithConversationID("conv-bus"))
	resp := bus.Send(context.Background(), query)
	if resp == nil || resp.Type() != a2a.TypeResponse {
		t.Fatalf("expected RESPONSE, got %v", resp)
	}
	if resp.PayloadValue("response") != "found" || resp.PayloadValue("conversation_id") != "conv-bus" {
		t.Fatalf("unexpected payload: %v", resp.Payload())
	}

	ping := a2a.NewMessage("user", r.Name(), a2a.TypeTask, nil)
	resp = bus.Send(context.Background(), ping)
	if resp == nil || resp.PayloadValue("status") != "processed" || resp.PayloadValue("message") != "Router received message" {
		t.Fatalf("unexpected ack: %v", resp)
	}

	empty := a2a.NewMessage("user", r.Name(), a2a.TypeQuery, map[string]any{"query": ""})
	resp = bus.Send(context.Background(), empty)
	if resp == nil || !resp.IsError() || !strings.Contains(resp.ErrorText(), "query is empty") {
		t.Fatalf("expected ERROR for empty query, got %v", resp)
	}
}

func TestRouterRegistersCapabilities(t *testing.T) {
	t.Parallel()

	dir := a2a.NewDirectory()
	r, err := New(context.Background(), base.Deps{Directory: dir, Bus: a2a.NewBus(a2a.Config{})}, promptx.LoadPromptSet())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	found := dir.FindByCapability("synthesis")
	if len(found) != 1 || found[0].Name != r.Name() {
		t.Fatalf("FindByCapability(synthesis) = %+v", found)
	}
}
