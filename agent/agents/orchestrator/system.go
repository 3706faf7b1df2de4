package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/a2a"
	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/agents/base"
	routerx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/agents/router"
	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/agents/specialist"
	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	llmx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/llm"
	promptx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/prompt"
	logx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/logger"
)

// UserSender is the sender name of queries entering through the bus.
const UserSender = "user"

var ErrEmptyQuery = routerx.ErrEmptyQuery

type Deps struct {
	Generators      llmx.Generators
	Tools           contractx.ToolCaller
	Notifier        contractx.Notifier
	EscalationTopic string
}

// logSource is an agent whose log buffer is reported with each query.
type logSource interface {
	Logs() []string
	ClearLogs()
	Close()
}

// System owns the directory, the bus and the three agents.
type System struct {
	directory *a2a.Directory
	bus       *a2a.Bus

	router       *routerx.Router
	customerData *specialist.CustomerData
	support      *specialist.Support

	// queryMu keeps one query at a time so agent_logs belong to it.
	queryMu sync.Mutex
	closers []func() error
	logger  zerolog.Logger
}

func New(ctx context.Context, busCfg a2a.Config, deps Deps) (*System, error) {
	if deps.Tools == nil {
		return nil, errors.New("tool caller is required")
	}
	gens := deps.Generators
	if gens.Router == nil || gens.CustomerData == nil || gens.Support == nil {
		off := llmx.Unavailable{Reason: "llm is not configured"}
		if gens.Router == nil {
			gens.Router = off
		}
		if gens.CustomerData == nil {
			gens.CustomerData = off
		}
		if gens.Support == nil {
			gens.Support = off
		}
	}

	prompts := promptx.LoadPromptSet()
	s := &System{
		directory: a2a.NewDirectory(),
		bus:       a2a.NewBus(busCfg),
		logger:    logx.Component("orchestrator"),
	}

	router, err := routerx.New(ctx, s.agentDeps(gens.Router), prompts)
	if err != nil {
		return nil, fmt.Errorf("create router agent: %w", err)
	}
	s.router = router

	customerData, err := specialist.NewCustomerData(s.agentDeps(gens.CustomerData), deps.Tools, prompts.CustomerData)
	if err != nil {
		return nil, fmt.Errorf("create customer data agent: %w", err)
	}
	s.customerData = customerData

	var supportOpts []specialist.SupportOption
	if deps.Notifier != nil {
		supportOpts = append(supportOpts, specialist.WithEscalationNotifier(deps.Notifier, deps.EscalationTopic))
	}
	support, err := specialist.NewSupport(s.agentDeps(gens.Support), deps.Tools, prompts.Support, supportOpts...)
	if err != nil {
		return nil, fmt.Errorf("create support agent: %w", err)
	}
	s.support = support

	s.logger.Info().Strs("agents", s.directory.Names()).Msg("multi-agent system initialized")
	return s, nil
}

func (s *System) agentDeps(gen contractx.Generator) base.Deps {
	return base.Deps{Directory: s.directory, Bus: s.bus, Generator: gen}
}

func (s *System) agents() []logSource {
	return []logSource{s.router, s.customerData, s.support}
}

// ProcessQuery runs one query through the router and attaches every agent's
// log lines for that query.
func (s *System) ProcessQuery(ctx context.Context, query, conversationID string) (contractx.QueryResult, error) {
	s.queryMu.Lock()
	defer s.queryMu.Unlock()

	s.clearLogs()
	result, err := s.router.HandleUserQuery(ctx, query, conversationID)
	if err != nil {
		return contractx.QueryResult{}, err
	}
	result.AgentLogs = s.collectLogs()
	return result, nil
}

// ProcessQueryBlocking sends the query to the router as a bus message from a
// plain call site, without a caller context.
func (s *System) ProcessQueryBlocking(query, conversationID string) (contractx.QueryResult, error) {
	if strings.TrimSpace(query) == "" {
		return contractx.QueryResult{}, ErrEmptyQuery
	}

	s.queryMu.Lock()
	defer s.queryMu.Unlock()

	s.clearLogs()
	if strings.TrimSpace(conversationID) == "" {
		conversationID = a2a.NewConversationID()
	}
	msg := a2a.NewMessage(UserSender, s.router.Name(), a2a.TypeQuery,
		map[string]any{"query": query},
		a2a.WithConversationID(conversationID),
	)

	resp := s.bus.SendBlocking(msg)
	switch {
	case resp == nil:
		return contractx.QueryResult{}, fmt.Errorf("%w: agent=%s", contractx.ErrNoResponse, s.router.Name())
	case resp.IsError():
		return contractx.QueryResult{}, errors.New(resp.ErrorText())
	}

	var result contractx.QueryResult
	if err := contractx.FromPayload(resp.Payload(), &result); err != nil {
		return contractx.QueryResult{}, err
	}
	result.AgentLogs = s.collectLogs()
	return result, nil
}

func (s *System) clearLogs() {
	for _, a := range s.agents() {
		a.ClearLogs()
	}
}

func (s *System) collectLogs() []string {
	var out []string
	for _, a := range s.agents() {
		out = append(out, a.Logs()...)
	}
	return out
}

// History returns the bus history, filtered by conversation when the id is set.
func (s *System) History(conversationID string) []a2a.Message {
	return s.bus.History(conversationID)
}

// ClearHistory drops the bus history and every agent log.
func (s *System) ClearHistory() {
	s.bus.ClearHistory()
	s.clearLogs()
}

func (s *System) Agents() []a2a.Descriptor {
	return s.directory.List()
}

func (s *System) AgentCard(name string) (a2a.AgentCard, bool) {
	card, ok := s.bus.AgentCard(name)
	if !ok {
		return a2a.AgentCard{}, false
	}
	if desc, found := s.directory.Get(name); found {
		card.Description = desc.Description
		card.Skills = desc.Capabilities
	}
	return card, true
}

// AddCloser registers a cleanup run by Close in reverse order.
func (s *System) AddCloser(fn func() error) {
	s.closers = append(s.closers, fn)
}

func (s *System) Close() error {
	for _, a := range s.agents() {
		a.Close()
	}
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
