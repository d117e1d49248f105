package http

import (
	"bytes"
	"net/http"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/internal/http/middleware"
	"github.com/simulai/simulai/pkg/logger"
)

const maxConversationBody = 16 << 20

type ConversationHandler struct {
	service domain.ConversationService
	auth    middleware.Authenticator
	logger  logger.Logger
}

func NewConversationHandler(service domain.ConversationService, auth middleware.Authenticator, logger logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: service,
		auth:    auth,
		logger:  logger,
	}
}

func (h *ConversationHandler) RegisterRoutes(mux *http.ServeMux) {
	requireAuth := middleware.RequireAuth(h.auth)

	mux.Handle("GET /scenarios/{id}/conversations", requireAuth(http.HandlerFunc(h.ListConversations)))
	mux.Handle("POST /scenarios/{id}/conversations", requireAuth(http.HandlerFunc(h.CreateConversation)))
	mux.Handle("GET /scenarios/{id}/conversations/export", requireAuth(http.HandlerFunc(h.ExportConversations)))
	mux.Handle("GET /conversations/{id}", requireAuth(http.HandlerFunc(h.GetConversation)))
	mux.Handle("DELETE /conversations/{id}", requireAuth(http.HandlerFunc(h.DeleteConversation)))
}

func (h *ConversationHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.service.ListConversations(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, conversations)
}

// CreateConversation takes a larger body than other JSON routes since it
// carries the facial expression samples of the whole session
func (h *ConversationHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateConversationRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxConversationBody)
	if err := decodeOptionalJSON(r.Body, &req); err != nil {
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	conversation, err := h.service.CreateConversation(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, conversation)
}

func (h *ConversationHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	conversation, err := h.service.GetConversation(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, conversation)
}

func (h *ConversationHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteConversation(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Conversation deleted"})
}

func (h *ConversationHandler) ExportConversations(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	id := r.PathValue("id")
	if err := h.service.ExportConversations(r.Context(), id, &buf); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeDownload(w, "conversations-"+id+".csv", "text/csv; charset=utf-8", buf.Bytes())
}
