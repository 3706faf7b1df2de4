package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/a2a"
	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	logx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/logger"
)

// Service is the multi-agent system as seen by the HTTP API.
type Service interface {
	ProcessQuery(ctx context.Context, query, conversationID string) (contractx.QueryResult, error)
	History(conversationID string) []a2a.Message
	ClearHistory()
	Agents() []a2a.Descriptor
	AgentCard(name string) (a2a.AgentCard, bool)
}

type Handler struct {
	svc          Service
	isEmptyQuery func(error) bool
	logger       zerolog.Logger
}

type HandlerOption func(*Handler)

// WithEmptyQueryError maps err onto 400 responses.
func WithEmptyQueryError(target error) HandlerOption {
	return func(h *Handler) {
		h.isEmptyQuery = func(err error) bool { return errors.Is(err, target) }
	}
}

func NewHandler(svc Service, opts ...HandlerOption) *Handler {
	h := &Handler{
		svc:          svc,
		isEmptyQuery: func(error) bool { return false },
		logger:       logx.Component("httpapi"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	v1 := e.Group("/v1")
	v1.POST("/query", h.Query)
	v1.GET("/agents", h.ListAgents)
	v1.GET("/agents/:name/card", h.GetAgentCard)
	v1.GET("/history", h.GetHistory)
	v1.DELETE("/history", h.ClearHistory)
}

type QueryRequest struct {
	Query          string `json:"query"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// Query runs one user query through the router.
// POST /v1/query
func (h *Handler) Query(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Query) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	result, err := h.svc.ProcessQuery(c.Request().Context(), req.Query, req.ConversationID)
	if err != nil {
		if h.isEmptyQuery(err) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
		}
		h.logger.Error().Err(err).Str("conversation_id", req.ConversationID).Msg("query failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to process query"})
	}
	return c.JSON(http.StatusOK, result)
}

// ListAgents returns the directory in registration order.
// GET /v1/agents
func (h *Handler) ListAgents(c echo.Context) error {
	agents := h.svc.Agents()
	return c.JSON(http.StatusOK, map[string]any{
		"agents": agents,
		"count":  len(agents),
	})
}

// GET /v1/agents/:name/card
func (h *Handler) GetAgentCard(c echo.Context) error {
	card, ok := h.svc.AgentCard(c.Param("name"))
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "agent not found"})
	}
	return c.JSON(http.StatusOK, card)
}

// GetHistory returns bus messages, optionally for one conversation.
// GET /v1/history?conversation_id=
func (h *Handler) GetHistory(c echo.Context) error {
	messages := h.svc.History(strings.TrimSpace(c.QueryParam("conversation_id")))
	return c.JSON(http.StatusOK, map[string]any{
		"messages": messages,
		"count":    len(messages),
	})
}

// DELETE /v1/history
func (h *Handler) ClearHistory(c echo.Context) error {
	h.svc.ClearHistory()
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

// GET /healthz
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"agents": len(h.svc.Agents()),
	})
}
