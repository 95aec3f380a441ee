package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nebulagames/story-relay/internal/services"
	"github.com/nebulagames/story-relay/pkg/story"
)

const maxUploadBytes = 100 << 20 // 100MB, provider's media ceiling

// MessageHandler exposes operator endpoints for sending provider
// messages directly. Requests are validated before any side effect;
// delivery failures surface the provider's error body.
type MessageHandler struct {
	dispatcher services.Dispatcher
	logger     *slog.Logger
}

func NewMessageHandler(dispatcher services.Dispatcher, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (h *MessageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		if err := json.NewEncoder(w).Encode(ErrorResponse{Error: "Method not allowed"}); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	switch r.URL.Path {
	case "/send-message":
		h.handleSendText(w, r)
	case "/send-interactive-button":
		h.handleSendButtons(w, r)
	case "/send-interactive-list":
		h.handleSendList(w, r)
	case "/send-media":
		h.handleSendMedia(w, r)
	case "/send-carousel":
		h.handleSendCarousel(w, r)
	case "/upload-media":
		h.handleUploadMedia(w, r)
	default:
		h.writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *MessageHandler) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		h.logger.Error("Failed to encode error response", "error", err)
	}
}

func (h *MessageHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

// writeSendResult maps a dispatch outcome to an HTTP response:
// provider rejections become 502 with the provider's error body.
func (h *MessageHandler) writeSendResult(w http.ResponseWriter, resp *services.SendResponse, err error) {
	if err != nil {
		var de *services.DeliveryError
		if errors.As(err, &de) {
			h.logger.Error("Provider rejected message", "status", de.StatusCode, "body", de.Body)
			h.writeError(w, http.StatusBadGateway, de.Error())
			return
		}
		h.logger.Error("Failed to send message", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to send message")
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

type sendTextRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

func (h *MessageHandler) handleSendText(w http.ResponseWriter, r *http.Request) {
	var req sendTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.To == "" || req.Text == "" {
		h.writeError(w, http.StatusBadRequest, "Recipient and message text are required")
		return
	}

	resp, err := h.dispatcher.SendText(r.Context(), req.To, req.Text)
	h.writeSendResult(w, resp, err)
}

type sendButtonsRequest struct {
	To string `json:"to"`
	story.ButtonMessage
}

func (h *MessageHandler) handleSendButtons(w http.ResponseWriter, r *http.Request) {
	var req sendButtonsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.To == "" || req.BodyText == "" || len(req.Buttons) == 0 {
		h.writeError(w, http.StatusBadRequest, "Recipient, body text and at least one button are required")
		return
	}

	resp, err := h.dispatcher.SendButtons(r.Context(), req.To, &req.ButtonMessage)
	h.writeSendResult(w, resp, err)
}

type sendListRequest struct {
	To string `json:"to"`
	story.ListMessage
}

func (h *MessageHandler) handleSendList(w http.ResponseWriter, r *http.Request) {
	var req sendListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.To == "" || req.BodyText == "" || req.ButtonText == "" || len(req.Sections) == 0 {
		h.writeError(w, http.StatusBadRequest, "Recipient, body text, button text and at least one section are required")
		return
	}
	for _, sec := range req.Sections {
		if len(sec.Rows) == 0 {
			h.writeError(w, http.StatusBadRequest, "Every section needs at least one row")
			return
		}
	}

	resp, err := h.dispatcher.SendList(r.Context(), req.To, &req.ListMessage)
	h.writeSendResult(w, resp, err)
}

type sendMediaRequest struct {
	To    string `json:"to"`
	Media struct {
		Type    string `json:"type"`
		ID      string `json:"id"`
		Caption string `json:"caption,omitempty"`
	} `json:"media"`
}

func (h *MessageHandler) handleSendMedia(w http.ResponseWriter, r *http.Request) {
	var req sendMediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.To == "" || req.Media.Type == "" || req.Media.ID == "" {
		h.writeError(w, http.StatusBadRequest, "Recipient, media type and media id are required")
		return
	}

	resp, err := h.dispatcher.SendMedia(r.Context(), req.To, req.Media.Type, req.Media.ID, req.Media.Caption)
	h.writeSendResult(w, resp, err)
}

type sendCarouselRequest struct {
	To           string                  `json:"to"`
	TemplateName string                  `json:"template_name"`
	BodyParams   []string                `json:"body_params,omitempty"`
	Cards        []services.CarouselCard `json:"cards"`
}

func (h *MessageHandler) handleSendCarousel(w http.ResponseWriter, r *http.Request) {
	var req sendCarouselRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.To == "" || req.TemplateName == "" || len(req.Cards) == 0 {
		h.writeError(w, http.StatusBadRequest, "Recipient, template name and cards are required")
		return
	}

	resp, err := h.dispatcher.SendCarousel(r.Context(), req.To, req.TemplateName, req.BodyParams, req.Cards)
	h.writeSendResult(w, resp, err)
}

func (h *MessageHandler) handleUploadMedia(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer func() { _ = file.Close() }()

	resp, err := h.dispatcher.UploadMedia(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		var de *services.DeliveryError
		if errors.As(err, &de) {
			h.logger.Error("Provider rejected media upload", "status", de.StatusCode, "body", de.Body)
			h.writeError(w, http.StatusBadGateway, de.Error())
			return
		}
		h.logger.Error("Failed to upload media", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to upload media")
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}
