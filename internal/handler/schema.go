package handler

import (
	"net/http"

	"github.com/tabletalk/tabletalk/internal/model"
)

// Schema handles GET /api/v1/schema. It returns the introspected structure
// of the connected database.
func (h *Handler) Schema(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.conversation(w, r)
	if !ok {
		return
	}

	conn, err := h.registry.Get(conv.ID)
	if err != nil {
		writeError(w, http.StatusConflict, "No database connected. Call /api/v1/connect first.")
		return
	}

	desc, err := h.ensureSchema(r.Context(), conv, conn)
	if err != nil {
		writeError(w, http.StatusBadGateway, "Could not read the database schema: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, model.APIResponse{Success: true, Data: map[string]interface{}{
		"tables":        desc.Schema.Tables,
		"relationships": desc.Relationships,
	}})
}
