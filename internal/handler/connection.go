package handler

import (
	"fmt"
	"net/http"

	"github.com/tabletalk/tabletalk/internal/connector"
	"github.com/tabletalk/tabletalk/internal/model"
)

// connectRequest is the connection parameters plus an optional standing
// instruction applied to every answer in the conversation.
type connectRequest struct {
	connector.ConnectionConfig
	Directive string `json:"directive"`
}

// connectResponse is the payload returned by a successful connect.
type connectResponse struct {
	ConversationID string `json:"conversation_id"`
	Token          string `json:"token"`
	Driver         string `json:"driver"`
	Database       string `json:"database"`
}

// Connect handles POST /api/v1/connect. It opens a database connection,
// creates a conversation bound to it, and returns the bearer token for the
// rest of the session.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}
	cfg := req.ConnectionConfig
	if cfg.Driver == "" {
		writeError(w, http.StatusBadRequest, "driver is required")
		return
	}

	conv := h.sessions.Create()
	if err := h.registry.Connect(conv.ID, cfg); err != nil {
		h.sessions.Delete(conv.ID)
		h.logger.Warn("connect failed", "driver", cfg.Driver, "error", err)
		writeError(w, http.StatusBadGateway, "Could not connect to the database: "+err.Error())
		return
	}

	database := cfg.Database
	if database == "" {
		database = cfg.FilePath
	}
	conv.SetConnection(cfg.Driver, database)
	if req.Directive != "" {
		conv.SetDirective(req.Directive)
	}

	token, err := h.auth.IssueToken(conv.ID)
	if err != nil {
		h.registry.Disconnect(conv.ID)
		h.sessions.Delete(conv.ID)
		writeError(w, http.StatusInternalServerError, "Could not issue session token")
		return
	}

	h.logger.Info("database connected", "conversation_id", conv.ID, "driver", cfg.Driver)
	writeJSON(w, http.StatusOK, model.APIResponse{
		Success: true,
		Message: fmt.Sprintf("Connected to %s. Ask me anything about your data.", database),
		Data: connectResponse{
			ConversationID: conv.ID,
			Token:          token,
			Driver:         cfg.Driver,
			Database:       database,
		},
	})
}

// Disconnect handles POST /api/v1/disconnect. It closes the database
// connection and discards the conversation.
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.conversation(w, r)
	if !ok {
		return
	}

	if err := h.registry.Disconnect(conv.ID); err != nil {
		h.logger.Warn("disconnect", "conversation_id", conv.ID, "error", err)
	}
	h.sessions.Delete(conv.ID)

	writeJSON(w, http.StatusOK, model.APIResponse{Success: true, Message: "Disconnected"})
}

// Status handles GET /api/v1/status. It reports the connection's health and
// identity.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.conversation(w, r)
	if !ok {
		return
	}

	driver, database := conv.Connection()
	status := map[string]interface{}{
		"connected": false,
		"driver":    driver,
		"database":  database,
	}

	conn, err := h.registry.Get(conv.ID)
	if err == nil {
		if pingErr := conn.Ping(r.Context()); pingErr == nil {
			status["connected"] = true
		} else {
			status["error"] = pingErr.Error()
		}
	}

	writeJSON(w, http.StatusOK, model.APIResponse{Success: true, Data: status})
}
