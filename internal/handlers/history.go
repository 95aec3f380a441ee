package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/nebulagames/story-relay/internal/storage"
)

const defaultHistoryLimit = 100

// HistoryHandler serves the most recent raw webhook records for
// operational inspection. Nothing in the processing path depends on
// this endpoint.
type HistoryHandler struct {
	audit  storage.AuditLog
	logger *slog.Logger
}

func NewHistoryHandler(audit storage.AuditLog, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{
		audit:  audit,
		logger: logger,
	}
}

type historyEntry struct {
	ID        int64           `json:"id"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		if err := json.NewEncoder(w).Encode(ErrorResponse{Error: "Method not allowed"}); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			w.WriteHeader(http.StatusBadRequest)
			if err := json.NewEncoder(w).Encode(ErrorResponse{Error: "limit must be a positive integer"}); err != nil {
				h.logger.Error("Failed to encode error response", "error", err)
			}
			return
		}
		limit = n
	}

	records, err := h.audit.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to retrieve webhook history", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		if err := json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to retrieve webhook history"}); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	entries := make([]historyEntry, 0, len(records))
	for _, rec := range records {
		entry := historyEntry{ID: rec.ID, Timestamp: rec.Timestamp}
		if json.Valid([]byte(rec.Payload)) {
			entry.Payload = json.RawMessage(rec.Payload)
		} else {
			// Raw payloads are logged verbatim and may not be JSON.
			quoted, _ := json.Marshal(rec.Payload)
			entry.Payload = quoted
		}
		entries = append(entries, entry)
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		h.logger.Error("Failed to encode history response", "error", err)
	}
}
