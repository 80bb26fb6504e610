package handler

import (
	"net/http"
	"strings"

	"github.com/tabletalk/tabletalk/internal/model"
)

type directiveRequest struct {
	Directive string `json:"directive"`
}

// GetDirective handles GET /api/v1/directive.
func (h *Handler) GetDirective(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.conversation(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, model.APIResponse{
		Success: true,
		Data:    map[string]string{"directive": conv.Directive()},
	})
}

// SetDirective handles POST /api/v1/directive. The directive is a standing
// instruction applied to every subsequent answer in the conversation.
func (h *Handler) SetDirective(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.conversation(w, r)
	if !ok {
		return
	}

	var req directiveRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}
	directive := strings.TrimSpace(req.Directive)
	if directive == "" {
		writeError(w, http.StatusBadRequest, "directive is required")
		return
	}

	conv.SetDirective(directive)
	writeJSON(w, http.StatusOK, model.APIResponse{Success: true, Message: "Directive set"})
}

// ClearDirective handles DELETE /api/v1/directive.
func (h *Handler) ClearDirective(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.conversation(w, r)
	if !ok {
		return
	}
	conv.SetDirective("")
	writeJSON(w, http.StatusOK, model.APIResponse{Success: true, Message: "Directive cleared"})
}
