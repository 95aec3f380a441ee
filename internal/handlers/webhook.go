package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/nebulagames/story-relay/internal/narrative"
	"github.com/nebulagames/story-relay/internal/storage"
	"github.com/nebulagames/story-relay/pkg/whatsapp"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// WebhookHandler serves the provider webhook endpoint: the GET
// verification handshake and POST callback deliveries.
type WebhookHandler struct {
	verifyToken string
	audit       storage.AuditLog
	resolver    *narrative.Resolver
	logger      *slog.Logger
}

func NewWebhookHandler(verifyToken string, audit storage.AuditLog, resolver *narrative.Resolver, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifyToken: verifyToken,
		audit:       audit,
		resolver:    resolver,
		logger:      logger,
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleVerify(w, r)
	case http.MethodPost:
		h.handleCallback(w, r)
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		if err := json.NewEncoder(w).Encode(ErrorResponse{Error: "Method not allowed"}); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
	}
}

// handleVerify answers the provider's subscription handshake: echo the
// challenge when the verify token matches, 403 otherwise.
func (h *WebhookHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		h.logger.Info("Webhook verified")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(challenge)); err != nil {
			h.logger.Error("Failed to write challenge", "error", err)
		}
		return
	}

	h.logger.Warn("Webhook verification failed", "mode", mode)
	w.WriteHeader(http.StatusForbidden)
}

// handleCallback logs the raw payload first, then classifies and
// processes each message. The audit write precedes processing so a
// processing failure never loses the trail; an audit failure is logged
// and processing continues.
func (h *WebhookHandler) handleCallback(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Warn("Failed to read webhook body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		if err := json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to read request body"}); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	if err := h.audit.Append(r.Context(), body); err != nil {
		h.logger.Error("Failed to log webhook payload", "error", err)
	}

	var envelope whatsapp.Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		h.logger.Warn("Malformed webhook payload", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		if err := json.NewEncoder(w).Encode(ErrorResponse{Error: "Malformed webhook payload"}); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	// Each message is processed independently; one failure must not
	// block the others.
	failures := 0
	for _, msg := range envelope.Messages() {
		if msg.From == "" {
			h.logger.Warn("Webhook message without sender", "message_id", msg.ID)
			continue
		}

		if choiceID, ok := msg.ChoiceID(); ok {
			if _, err := h.resolver.ResolveChoice(r.Context(), msg.From, choiceID); err != nil {
				h.logger.Error("Failed to resolve choice",
					"player_id", msg.From, "choice_id", choiceID, "error", err)
				failures++
			}
			continue
		}

		if _, err := h.resolver.StartSession(r.Context(), msg.From); err != nil {
			h.logger.Error("Failed to start session", "player_id", msg.From, "error", err)
			failures++
		}
	}

	if failures > 0 {
		w.WriteHeader(http.StatusInternalServerError)
		if err := json.NewEncoder(w).Encode(ErrorResponse{Error: "Internal server error"}); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]bool{"success": true}); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}
