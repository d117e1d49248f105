package http

import (
	"net/http"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/internal/http/middleware"
	"github.com/simulai/simulai/pkg/logger"
)

const maxAudioBody = 26 << 20

// AvatarHandler hands out HeyGen streaming tokens and transcribes speech
type AvatarHandler struct {
	service domain.AvatarService
	auth    middleware.Authenticator
	logger  logger.Logger
}

func NewAvatarHandler(service domain.AvatarService, auth middleware.Authenticator, logger logger.Logger) *AvatarHandler {
	return &AvatarHandler{
		service: service,
		auth:    auth,
		logger:  logger,
	}
}

func (h *AvatarHandler) RegisterRoutes(mux *http.ServeMux) {
	requireAuth := middleware.RequireAuth(h.auth)

	mux.Handle("POST /avatar/token", requireAuth(http.HandlerFunc(h.CreateToken)))
	mux.Handle("POST /speech/transcribe", requireAuth(http.HandlerFunc(h.Transcribe)))
}

func (h *AvatarHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.service.CreateStreamingToken(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (h *AvatarHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r, maxAudioBody) {
		return
	}
	file, fh, err := r.FormFile("audio")
	if err != nil {
		WriteJSONError(w, "Missing audio file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	text, err := h.service.Transcribe(r.Context(), fh.Filename, file)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}
