package specialist

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/a2a"
	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/agents/base"
	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/tool"
)

const (
	SupportName = string(contractx.AgentTypeSupport)

	escalationTicketThreshold = 3

	supportAcknowledged = "Thank you for reaching out. I've noted your concern and our team will assist you shortly."
)

// EscalationEvent is published when a support request needs a human.
type EscalationEvent struct {
	CustomerID     *int   `json:"customer_id"`
	Reason         string `json:"reason"`
	Priority       string `json:"priority"`
	Category       string `json:"category"`
	TicketID       *int64 `json:"ticket_id,omitempty"`
	ConversationID string `json:"conversation_id"`
}

type SupportOption func(*Support)

// WithEscalationNotifier publishes escalations to topic.
func WithEscalationNotifier(n contractx.Notifier, topic string) SupportOption {
	return func(s *Support) {
		s.notifier = n
		s.topic = strings.TrimSpace(topic)
	}
}

// Support classifies issues, opens tickets and decides on escalation.
type Support struct {
	*base.Agent

	tools        tool.Customers
	systemPrompt string
	notifier     contractx.Notifier
	topic        string
}

func NewSupport(deps base.Deps, caller contractx.ToolCaller, systemPrompt string, opts ...SupportOption) (*Support, error) {
	if caller == nil {
		return nil, fmt.Errorf("%w: tool caller is required", contractx.ErrValidation)
	}
	s := &Support{
		tools:        tool.NewCustomers(tool.ForAgent(contractx.AgentTypeSupport, caller)),
		systemPrompt: systemPrompt,
	}
	for _, opt := range opts {
		opt(s)
	}
	agent, err := base.New(base.Config{
		Name:         SupportName,
		Description:  "Handles support tickets and customer issue resolution",
		Capabilities: []string{"ticket_creation", "ticket_management", "escalation", "support"},
	}, deps, s)
	if err != nil {
		return nil, err
	}
	s.Agent = agent
	return s, nil
}

type supportOutcome struct {
	ticket          any
	ticketID        *int64
	existingTickets []any
}

func (s *Support) Process(ctx context.Context, msg a2a.Message) (map[string]any, error) {
	var req contractx.SpecialistRequest
	if err := contractx.FromPayload(msg.Payload(), &req); err != nil {
		return nil, err
	}
	s.Logf("Processing support query: '%s'", req.Query)

	analysis := ClassifySupport(req.Query)
	customerID, hasCustomer := knownCustomer(req.CustomerID)
	var outcome supportOutcome
	var errs []string

	if analysis.NeedsTicket && hasCustomer {
		s.Logf("Creating ticket for customer %d", customerID)
		raw, err := s.tools.CreateTicket(ctx, customerID, analysis.IssueSummary, analysis.Priority)
		if err != nil {
			s.Logf("Error creating ticket: %v", err)
			errs = append(errs, "Failed to create ticket: "+describeToolError(err))
		} else {
			outcome.ticket = field(raw, "data")
			if id := gjson.GetBytes(raw, "data.id"); id.Exists() {
				v := id.Int()
				outcome.ticketID = &v
			}
			s.Logf("Ticket created: ID %s", gjson.GetBytes(raw, "data.id").String())
		}
	}

	if hasCustomer {
		raw, err := s.tools.GetCustomerHistory(ctx, customerID)
		if err != nil {
			s.Logf("Error fetching customer history: %v", err)
		} else {
			tickets := gjson.GetBytes(raw, "tickets").Array()
			outcome.existingTickets = make([]any, 0, len(tickets))
			open := 0
			for _, t := range tickets {
				outcome.existingTickets = append(outcome.existingTickets, t.Value())
				if t.Get("status").String() != "resolved" {
					open++
				}
			}
			if open >= escalationTicketThreshold {
				analysis.EscalationNeeded = true
				analysis.EscalationReason = fmt.Sprintf("Customer has %d open tickets", open)
			}
		}
	}

	if analysis.EscalationNeeded {
		s.notifyEscalation(ctx, req.CustomerID, analysis, outcome.ticketID, msg.ConversationID())
	}

	data := map[string]any{"analysis": analysis}
	if outcome.ticket != nil {
		data["ticket_created"] = outcome.ticket
	}
	if outcome.existingTickets != nil {
		data["existing_tickets"] = outcome.existingTickets
	}

	return contractx.ToPayload(contractx.AgentResponse{
		Response: s.respond(ctx, req, analysis, outcome, errs),
		Data:     data,
		Errors:   errs,
		Analysis: &analysis,
	})
}

func (s *Support) notifyEscalation(ctx context.Context, customerID *int, analysis contractx.SupportAnalysis, ticketID *int64, conversationID string) {
	s.Logf("Escalation needed: %s", analysis.EscalationReason)
	if s.notifier == nil || s.topic == "" {
		return
	}
	err := s.notifier.Publish(ctx, s.topic, EscalationEvent{
		CustomerID:     customerID,
		Reason:         analysis.EscalationReason,
		Priority:       analysis.Priority,
		Category:       analysis.Category,
		TicketID:       ticketID,
		ConversationID: conversationID,
	})
	if err != nil {
		s.Logf("Escalation notification failed: %v", err)
		s.Logger().Warn().Err(err).Str("conversation_id", conversationID).Msg("escalation publish failed")
	}
}

func (s *Support) respond(
	ctx context.Context,
	req contractx.SpecialistRequest,
	analysis contractx.SupportAnalysis,
	outcome supportOutcome,
	errs []string,
) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nQuery: %s\n\nAnalysis:\n", req.Query)
	fmt.Fprintf(&b, "- Category: %s\n- Priority: %s\n", analysis.Category, analysis.Priority)
	fmt.Fprintf(&b, "- Needs Ticket: %t\n- Escalation Needed: %t\n", analysis.NeedsTicket, analysis.EscalationNeeded)
	if len(req.CustomerData) > 0 {
		b.WriteString("\nCustomer Data:\n" + indentJSON(req.CustomerData))
	}
	if outcome.ticketID != nil {
		fmt.Fprintf(&b, "\n\nTicket Created: #%d", *outcome.ticketID)
	}
	if len(outcome.existingTickets) > 0 {
		fmt.Fprintf(&b, "\n\nExisting Tickets: %d tickets found", len(outcome.existingTickets))
	}
	if len(errs) > 0 {
		b.WriteString("\n\nErrors encountered: " + strings.Join(errs, "; "))
	}

	reply, err := s.CallLLM(ctx, s.systemPrompt, "Provide a helpful support response for this situation:\n\n"+b.String())
	if err == nil && strings.TrimSpace(reply) == "" {
		err = contractx.ErrNoResponse
	}
	if err == nil {
		return reply
	}

	s.Logf("Error generating response: %v", err)
	if outcome.ticketID != nil {
		return fmt.Sprintf("I've created support ticket #%d for your issue. Our team will follow up shortly.", *outcome.ticketID)
	}
	return supportAcknowledged
}
