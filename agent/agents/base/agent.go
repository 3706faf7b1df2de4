package base

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/a2a"
	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	logx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/logger"
)

// Processor is the agent-specific step wrapped by HandleMessage.
type Processor interface {
	Process(ctx context.Context, msg a2a.Message) (map[string]any, error)
}

type Config struct {
	Name         string
	Description  string
	Capabilities []string
	Metadata     map[string]any
}

type Deps struct {
	Directory *a2a.Directory
	Bus       *a2a.Bus
	Generator contractx.Generator
}

// Agent carries the lifecycle shared by every agent: registration, message
// handling, bus round trips, model calls and a per-agent log buffer.
type Agent struct {
	name         string
	description  string
	capabilities []string

	directory *a2a.Directory
	bus       *a2a.Bus
	generator contractx.Generator
	processor Processor

	logger zerolog.Logger
	logs   *LogBook
}

// New registers the agent in the directory and installs its handler on the
// bus, so the agent is addressable as soon as New returns.
func New(cfg Config, deps Deps, processor Processor) (*Agent, error) {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: agent name is required", contractx.ErrValidation)
	}
	if deps.Directory == nil {
		return nil, errors.New("agent directory is required")
	}
	if deps.Bus == nil {
		return nil, errors.New("message bus is required")
	}
	if processor == nil {
		return nil, errors.New("processor is required")
	}

	a := &Agent{
		name:         name,
		description:  strings.TrimSpace(cfg.Description),
		capabilities: append([]string(nil), cfg.Capabilities...),
		directory:    deps.Directory,
		bus:          deps.Bus,
		generator:    deps.Generator,
		processor:    processor,
		logger:       logx.Component("agent").With().Str("agent", name).Logger(),
		logs:         NewLogBook(name),
	}

	url := a.bus.RegisterHandler(a.name, a.HandleMessage)
	a.directory.Register(a.name, a.description, a.capabilities,
		a2a.WithAddress(url),
		a2a.WithDescriptorMetadata(cfg.Metadata),
	)
	a.Logf("Agent '%s' registered with capabilities: [%s]", a.name, strings.Join(a.capabilities, ", "))

	return a, nil
}

func (a *Agent) Name() string           { return a.name }
func (a *Agent) Description() string    { return a.description }
func (a *Agent) Capabilities() []string { return append([]string(nil), a.capabilities...) }
func (a *Agent) Logger() zerolog.Logger { return a.logger }

// Close removes the agent from the bus and the directory.
func (a *Agent) Close() {
	a.bus.UnregisterHandler(a.name)
	a.directory.Unregister(a.name)
	a.Logf("Agent '%s' unregistered", a.name)
}

// HandleMessage is the bus handler of the agent. Process failures become
// ERROR messages to the sender; they are never returned as errors.
func (a *Agent) HandleMessage(ctx context.Context, msg a2a.Message) (*a2a.Message, error) {
	a.Logf("Received %s from %s", msg.Type(), msg.Sender())

	result, err := a.process(ctx, msg)
	if err != nil {
		a.Logf("Error processing message: %v", err)
		a.logger.Error().Err(err).Str("conversation_id", msg.ConversationID()).Msg("process failed")
		resp := msg.Reply(a.name, a2a.TypeError, map[string]any{"error": err.Error()})
		return &resp, nil
	}
	if result == nil {
		return nil, nil
	}

	resp := msg.Reply(a.name, a2a.TypeResponse, result)
	return &resp, nil
}

func (a *Agent) process(ctx context.Context, msg a2a.Message) (result map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("process panic: %v", r)
		}
	}()
	return a.processor.Process(ctx, msg)
}

// SendToAgent sends one message over the bus and returns whatever the bus
// returns. An empty conversation id starts a new conversation.
func (a *Agent) SendToAgent(
	ctx context.Context,
	recipient string,
	typ a2a.MessageType,
	payload map[string]any,
	conversationID string,
) *a2a.Message {
	if strings.TrimSpace(conversationID) == "" {
		conversationID = a2a.NewConversationID()
	}
	msg := a2a.NewMessage(a.name, recipient, typ, payload, a2a.WithConversationID(conversationID))

	a.Logf("Sending %s to %s", typ, recipient)
	resp := a.bus.Send(ctx, msg)
	if resp != nil {
		a.Logf("Received %s from %s", resp.Type(), resp.Sender())
	}
	return resp
}

// CallLLM runs the configured generator. Every failure wraps contract.ErrModelInvoke.
func (a *Agent) CallLLM(ctx context.Context, systemPrompt, userText string) (string, error) {
	if a.generator == nil {
		return "", fmt.Errorf("%w: no generator configured for agent=%s", contractx.ErrModelInvoke, a.name)
	}
	out, err := a.generator.Generate(ctx, systemPrompt, userText)
	if err != nil {
		if errors.Is(err, contractx.ErrModelInvoke) {
			return "", err
		}
		return "", fmt.Errorf("%w: agent=%s: %v", contractx.ErrModelInvoke, a.name, err)
	}
	return out, nil
}

// FindAgentForCapability returns the first registered agent advertising tag.
func (a *Agent) FindAgentForCapability(tag string) (string, bool) {
	found := a.directory.FindByCapability(tag)
	if len(found) == 0 {
		return "", false
	}
	return found[0].Name, true
}

func (a *Agent) Logf(format string, args ...any) {
	line := a.logs.Add(fmt.Sprintf(format, args...))
	a.logger.Debug().Msg(line)
}

func (a *Agent) Logs() []string { return a.logs.Entries() }
func (a *Agent) ClearLogs()     { a.logs.Clear() }
