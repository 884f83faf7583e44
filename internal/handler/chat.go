package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/phamrachel17/plan-pal/internal/middleware"
	"github.com/phamrachel17/plan-pal/internal/model"
	"github.com/phamrachel17/plan-pal/internal/service"
	"github.com/phamrachel17/plan-pal/pkg/logger"
)

// ChatHandler handles conversational scheduling turns.
type ChatHandler struct {
	chat   *service.ChatService
	logger *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chat *service.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		chat:   chat,
		logger: log,
	}
}

// Turn handles POST /api/v1/conversations/{id}/chat
func (h *ChatHandler) Turn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := middleware.GetTenantID(ctx)
	userID := middleware.GetUserID(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.ChatTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Choice == "" {
		if err := middleware.ValidateMessageContent(req.Content); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if err := middleware.ValidateTimeZone(req.TimeZone); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.chat.HandleTurn(ctx, tenantID, userID, conversationID, middleware.GetCalendarToken(ctx), &req)
	if err != nil {
		h.logger.Error("chat turn failed",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
