package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/tabletalk/tabletalk/internal/connector"
	"github.com/tabletalk/tabletalk/internal/llm"
	"github.com/tabletalk/tabletalk/internal/schema"
	"github.com/tabletalk/tabletalk/internal/server/middleware"
	"github.com/tabletalk/tabletalk/internal/service"
	"github.com/tabletalk/tabletalk/internal/session"
)

// Handler holds the dependencies shared by all API endpoints.
type Handler struct {
	sessions *session.Manager
	registry *connector.Registry
	auth     *service.AuthService
	client   llm.Client
	logger   *slog.Logger
}

// New wires a Handler from its dependencies.
func New(sessions *session.Manager, registry *connector.Registry, auth *service.AuthService, client llm.Client, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		sessions: sessions,
		registry: registry,
		auth:     auth,
		client:   client,
		logger:   logger,
	}
}

// conversation resolves the authenticated conversation or writes a 401/404.
func (h *Handler) conversation(w http.ResponseWriter, r *http.Request) (*session.Conversation, bool) {
	id := middleware.GetConversationID(r.Context())
	if id == "" {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}
	conv, err := h.sessions.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Conversation not found. Connect to a database first.")
		return nil, false
	}
	return conv, true
}

// ensureSchema returns the conversation's cached schema description,
// building it on first use after a connect.
func (h *Handler) ensureSchema(ctx context.Context, conv *session.Conversation, conn connector.Connector) (*schema.Description, error) {
	if desc := conv.Schema(); desc != nil {
		return desc, nil
	}

	desc, err := schema.Describe(ctx, conn, true)
	if err != nil {
		return nil, err
	}
	conv.SetSchema(desc)
	h.logger.Info("schema described",
		"conversation_id", conv.ID,
		"tables", len(desc.Schema.Tables),
		"relationships", len(desc.Relationships),
	)
	return desc, nil
}
