package a2a

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	logx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/logger"
	tracingx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/tracing"
)

var ErrHandlerTimeout = errors.New("handler timed out")

// Handler receives a message addressed to one agent. A nil message with a nil
// error means the agent chose not to answer.
type Handler func(ctx context.Context, msg Message) (*Message, error)

type Config struct {
	HandlerTimeout  time.Duration `split_words:"true" default:"0s"`
	BlockingTimeout time.Duration `split_words:"true" default:"2m"`
	BasePort        int           `split_words:"true" default:"9000"`
}

// Outcome is the terminal state of one delivery.
type Outcome string

const (
	OutcomeResponded  Outcome = "responded"
	OutcomeSilent     Outcome = "silent"
	OutcomeErrored    Outcome = "errored"
	OutcomeUnroutable Outcome = "unroutable"
)

// Delivery is the tagged result of Bus.Deliver.
type Delivery struct {
	Outcome  Outcome
	Response *Message
}

// Failed reports whether the caller got an ERROR message back, whether the bus
// synthesized it or the recipient answered with one.
func (d Delivery) Failed() bool {
	return d.Response != nil && d.Response.IsError()
}

type AgentCard struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Version     string   `json:"version"`
	Skills      []string `json:"skills"`
	InputModes  []string `json:"default_input_modes"`
	OutputModes []string `json:"default_output_modes"`
}

type registration struct {
	handler Handler
	url     string
}

// Bus routes messages between in-process agents and keeps the message history.
//
// Send is for callers that already hold a context; SendBlocking is for plain
// call sites and always runs the delivery on its own goroutine with a context
// owned by the bus.
type Bus struct {
	cfg    Config
	logger zerolog.Logger

	handlersMu sync.RWMutex
	handlers   map[string]registration
	order      []string
	nextPort   int

	historyMu sync.RWMutex
	history   []Message
}

type BusOption func(*Bus)

func WithBusLogger(logger zerolog.Logger) BusOption {
	return func(b *Bus) {
		b.logger = logger
	}
}

func NewBus(cfg Config, opts ...BusOption) *Bus {
	if cfg.BasePort <= 0 {
		cfg.BasePort = 9000
	}
	b := &Bus{
		cfg:      cfg,
		logger:   logx.Component("a2a.bus"),
		handlers: make(map[string]registration),
		nextPort: cfg.BasePort,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// RegisterHandler installs or replaces the handler for name and returns the
// local address assigned to the agent.
func (b *Bus) RegisterHandler(name string, h Handler) string {
	b.handlersMu.Lock()
	defer b.handlersMu.Unlock()

	if _, exists := b.handlers[name]; !exists {
		b.order = append(b.order, name)
	}
	url := fmt.Sprintf("http://localhost:%d", b.nextPort)
	b.nextPort++
	b.handlers[name] = registration{handler: h, url: url}

	b.logger.Debug().Str("agent", name).Str("url", url).Msg("handler registered")
	return url
}

func (b *Bus) UnregisterHandler(name string) bool {
	b.handlersMu.Lock()
	defer b.handlersMu.Unlock()

	if _, ok := b.handlers[name]; !ok {
		return false
	}
	delete(b.handlers, name)
	for i, n := range b.order {
		if n == name {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	b.logger.Debug().Str("agent", name).Msg("handler unregistered")
	return true
}

func (b *Bus) RegisteredAgents() []string {
	b.handlersMu.RLock()
	defer b.handlersMu.RUnlock()
	return append([]string(nil), b.order...)
}

func (b *Bus) AgentURL(name string) (string, bool) {
	b.handlersMu.RLock()
	defer b.handlersMu.RUnlock()
	reg, ok := b.handlers[name]
	return reg.url, ok
}

func (b *Bus) AgentCard(name string) (AgentCard, bool) {
	url, ok := b.AgentURL(name)
	if !ok {
		return AgentCard{}, false
	}
	return AgentCard{
		Name:        name,
		Description: "A2A Agent: " + name,
		URL:         url,
		Version:     "1.0.0",
		Skills:      []string{name},
		InputModes:  []string{"text"},
		OutputModes: []string{"text"},
	}, true
}

// Send delivers msg and returns the response, or nil when the recipient stayed silent.
func (b *Bus) Send(ctx context.Context, msg Message) *Message {
	return b.Deliver(ctx, msg).Response
}

// SendBlocking runs Send on a dedicated goroutine and blocks until it finishes.
func (b *Bus) SendBlocking(msg Message) *Message {
	ctx := context.Background()
	if b.cfg.BlockingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.BlockingTimeout)
		defer cancel()
	}

	done := make(chan *Message, 1)
	go func() {
		done <- b.Send(ctx, msg)
	}()
	return <-done
}

// Deliver appends msg to the history, invokes the recipient and records the
// response. Failures never escape: they come back as ERROR messages to the sender.
func (b *Bus) Deliver(ctx context.Context, msg Message) Delivery {
	ctx, span := tracingx.StartSpan(ctx, "a2a.deliver",
		attribute.String("a2a.sender", msg.Sender()),
		attribute.String("a2a.recipient", msg.Recipient()),
		attribute.String("a2a.type", string(msg.Type())),
		attribute.String("a2a.conversation_id", msg.ConversationID()),
	)
	defer span.End()

	b.record(msg)

	handler, ok := b.handler(msg.Recipient())
	if !ok {
		resp := msg.Reply(ProtocolSender, TypeError, map[string]any{
			"error": fmt.Sprintf("Agent '%s' not found", msg.Recipient()),
		})
		b.record(resp)
		b.logger.Warn().Str("recipient", msg.Recipient()).Str("conversation_id", msg.ConversationID()).Msg("unroutable message")
		span.SetAttributes(attribute.String("a2a.outcome", string(OutcomeUnroutable)))
		return Delivery{Outcome: OutcomeUnroutable, Response: &resp}
	}

	resp, err := b.invoke(ctx, handler, msg)
	if err != nil {
		errMsg := msg.Reply(ProtocolSender, TypeError, map[string]any{"error": err.Error()})
		b.record(errMsg)
		b.logger.Error().Err(err).Str("recipient", msg.Recipient()).Str("conversation_id", msg.ConversationID()).Msg("handler failed")
		tracingx.RecordError(span, err)
		return Delivery{Outcome: OutcomeErrored, Response: &errMsg}
	}
	if resp == nil {
		span.SetAttributes(attribute.String("a2a.outcome", string(OutcomeSilent)))
		return Delivery{Outcome: OutcomeSilent}
	}

	b.record(*resp)
	span.SetAttributes(attribute.String("a2a.outcome", string(OutcomeResponded)))
	tracingx.SetOK(span)
	return Delivery{Outcome: OutcomeResponded, Response: resp}
}

func (b *Bus) handler(name string) (Handler, bool) {
	b.handlersMu.RLock()
	defer b.handlersMu.RUnlock()
	reg, ok := b.handlers[name]
	if !ok || reg.handler == nil {
		return nil, false
	}
	return reg.handler, true
}

func (b *Bus) invoke(ctx context.Context, h Handler, msg Message) (*Message, error) {
	if b.cfg.HandlerTimeout <= 0 {
		return callHandler(ctx, h, msg)
	}

	ctx, cancel := context.WithTimeout(ctx, b.cfg.HandlerTimeout)
	defer cancel()

	type result struct {
		resp *Message
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := callHandler(ctx, h, msg)
		done <- result{resp: resp, err: err}
	}()

	select {
	case r := <-done:
		return r.resp, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: agent=%s after %s", ErrHandlerTimeout, msg.Recipient(), b.cfg.HandlerTimeout)
		}
		return nil, ctx.Err()
	}
}

func callHandler(ctx context.Context, h Handler, msg Message) (resp *Message, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, msg)
}

func (b *Bus) record(msg Message) {
	b.historyMu.Lock()
	b.history = append(b.history, msg)
	b.historyMu.Unlock()
}

// History returns every recorded message, or only those of one conversation
// when conversationID is not empty, in insertion order.
func (b *Bus) History(conversationID string) []Message {
	b.historyMu.RLock()
	defer b.historyMu.RUnlock()

	if conversationID == "" {
		return append([]Message(nil), b.history...)
	}
	out := make([]Message, 0, len(b.history))
	for _, m := range b.history {
		if m.ConversationID() == conversationID {
			out = append(out, m)
		}
	}
	return out
}

func (b *Bus) ClearHistory() {
	b.historyMu.Lock()
	b.history = nil
	b.historyMu.Unlock()
}
