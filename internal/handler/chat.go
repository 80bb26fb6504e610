package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/tabletalk/tabletalk/internal/chat"
	"github.com/tabletalk/tabletalk/internal/llm"
	"github.com/tabletalk/tabletalk/internal/model"
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// Chat handles POST /api/v1/chat: one user turn through the full pipeline.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.conversation(w, r)
	if !ok {
		return
	}

	var req chatRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	conn, err := h.registry.Get(conv.ID)
	if err != nil {
		writeError(w, http.StatusConflict, "No database connected. Call /api/v1/connect first.")
		return
	}

	desc, err := h.ensureSchema(r.Context(), conv, conn)
	if err != nil {
		h.logger.Error("schema introspection failed", "conversation_id", conv.ID, "error", err)
		writeError(w, http.StatusBadGateway, "Could not read the database schema: "+err.Error())
		return
	}

	controller := chat.NewController(
		&plannerAdapter{planner: llm.NewPlanner(h.client, h.logger), schemaText: desc.Text},
		&answerAdapter{answerer: llm.NewAnswerer(h.client, h.logger)},
		conn,
		llm.NewAgent(h.client, conn, desc.Text, h.logger),
		h.logger,
	)

	history := conv.History()
	reply := controller.Respond(r.Context(), history, conv.Directive(), req.Message)

	conv.AppendTurn(model.RoleUser, req.Message)
	conv.AppendTurn(model.RoleAssistant, reply)

	writeJSON(w, http.StatusOK, model.APIResponse{Success: true, Data: chatResponse{Reply: reply}})
}

// History handles GET /api/v1/chat/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.conversation(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, model.APIResponse{Success: true, Data: conv.History()})
}

// ClearHistory handles DELETE /api/v1/chat/history.
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.conversation(w, r)
	if !ok {
		return
	}
	conv.ClearHistory()
	writeJSON(w, http.StatusOK, model.APIResponse{Success: true, Message: "History cleared"})
}

// plannerAdapter binds the conversation's schema description into the
// planner call.
type plannerAdapter struct {
	planner    *llm.Planner
	schemaText string
}

func (a *plannerAdapter) Plan(ctx context.Context, req chat.PlanRequest) (model.QueryPlan, error) {
	return a.planner.Plan(ctx, llm.PlanInput{
		Question:     req.Question,
		SchemaText:   a.schemaText,
		ContextBlock: req.ContextBlock,
		Directive:    req.Directive,
	})
}

type answerAdapter struct {
	answerer *llm.Answerer
}

func (a *answerAdapter) Compose(ctx context.Context, req chat.AnswerRequest) (string, error) {
	return a.answerer.Compose(ctx, llm.AnswerInput{
		Question:  req.Question,
		Rows:      req.Rows,
		Directive: req.Directive,
	})
}
