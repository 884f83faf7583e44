package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/phamrachel17/plan-pal/internal/middleware"
	"github.com/phamrachel17/plan-pal/internal/model"
	"github.com/phamrachel17/plan-pal/internal/service"
	"github.com/phamrachel17/plan-pal/pkg/logger"
)

// MessageHistory reads back the conversation log.
type MessageHistory interface {
	GetMessages(ctx context.Context, tenantID, conversationID string, afterSequence uint64, limit int) ([]model.Message, uint64, bool, error)
}

// MessageHandler serves conversation history.
type MessageHandler struct {
	history             MessageHistory
	conversationService *service.ConversationService
	logger              *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(history MessageHistory, convSvc *service.ConversationService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		history:             history,
		conversationService: convSvc,
		logger:              log,
	}
}

// List handles GET /api/v1/conversations/{id}/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := middleware.GetTenantID(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.conversationService.Get(ctx, tenantID, conversationID); err != nil {
		writeDomainError(w, err)
		return
	}

	afterSequence := uint64(0)
	limit := 50

	if seq := r.URL.Query().Get("after_sequence"); seq != "" {
		if parsed, err := strconv.ParseUint(seq, 10, 64); err == nil {
			afterSequence = parsed
		}
	}

	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	messages, lastSequence, hasMore, err := h.history.GetMessages(ctx, tenantID, conversationID, afterSequence, limit)
	if err != nil {
		h.logger.Error("failed to get messages",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to get messages")
		return
	}

	writeJSON(w, http.StatusOK, &model.ListMessagesResponse{
		Messages:     messages,
		HasMore:      hasMore,
		LastSequence: lastSequence,
	})
}
