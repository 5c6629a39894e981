package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Daphne210/amr-inference-server/internal/activity"
	"github.com/Daphne210/amr-inference-server/internal/auth"
	"github.com/Daphne210/amr-inference-server/internal/store"
)

// AdminHandler serves the operator surface: API key management, the audit
// trail, and the activity ring. All routes sit behind the admin middleware.
type AdminHandler struct {
	Auth     *auth.Authenticator
	Store    *store.Store
	Activity *activity.Log
}

type keyInfo struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Prefix     string     `json:"prefix"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// HandleKeys mints (POST), lists (GET) and revokes (DELETE ?id=) API keys.
// The plaintext key appears exactly once, in the mint response.
func (h *AdminHandler) HandleKeys(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			Name string `json:"name"`
		}
		if err := decodeJSONBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, errMalformedRequest, err.Error())
			return
		}
		key, rec, err := h.Auth.GenerateKey(r.Context(), req.Name)
		if err != nil {
			writeError(w, http.StatusInternalServerError, errInternal, "could not create key")
			return
		}
		if h.Activity != nil {
			h.Activity.Add(activity.Event{Type: activity.EventKeyMinted, Note: rec.Name + " (" + rec.Prefix + "...)"})
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"id":     rec.ID,
			"name":   rec.Name,
			"prefix": rec.Prefix,
			"key":    key,
		})

	case http.MethodGet:
		records, err := h.Store.ListAPIKeys(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, errInternal, "could not list keys")
			return
		}
		out := make([]keyInfo, 0, len(records))
		for _, rec := range records {
			out = append(out, keyInfo{
				ID: rec.ID, Name: rec.Name, Prefix: rec.Prefix,
				CreatedAt: rec.CreatedAt, LastUsedAt: rec.LastUsedAt,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"keys": out})

	case http.MethodDelete:
		id := r.URL.Query().Get("id")
		if id == "" {
			writeError(w, http.StatusBadRequest, errMalformedRequest, "missing id parameter")
			return
		}
		if err := h.Store.DeleteAPIKey(r.Context(), id); err != nil {
			writeError(w, http.StatusInternalServerError, errInternal, "could not delete key")
			return
		}
		if h.Activity != nil {
			h.Activity.Add(activity.Event{Type: activity.EventKeyRevoked, Note: id})
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.NotFound(w, r)
	}
}

type predictionInfo struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	ModelVersion string    `json:"model_version,omitempty"`
	SchemaSource string    `json:"schema_source"`
	Outcome      string    `json:"outcome"`
	ResultsJSON  string    `json:"results_json,omitempty"`
	FilledCount  int       `json:"filled_count"`
	DurationMs   float64   `json:"duration_ms"`
	Error        string    `json:"error,omitempty"`
}

// HandlePredictions lists recent audit records (?limit=N, newest first).
func (h *AdminHandler) HandlePredictions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1000 {
			writeError(w, http.StatusBadRequest, errMalformedRequest, "limit must be 1..1000")
			return
		}
		limit = n
	}
	records, err := h.Store.RecentPredictions(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errInternal, "could not list predictions")
		return
	}
	out := make([]predictionInfo, 0, len(records))
	for _, rec := range records {
		out = append(out, predictionInfo{
			ID: rec.ID, CreatedAt: rec.CreatedAt,
			ModelVersion: rec.ModelVersion, SchemaSource: rec.SchemaSource,
			Outcome: rec.Outcome, ResultsJSON: rec.ResultsJSON,
			FilledCount: rec.FilledCount, DurationMs: rec.DurationMs, Error: rec.Error,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"predictions": out})
}

// HandleActivity dumps the in-memory event ring, newest first.
func (h *AdminHandler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	events := h.Activity.List()
	if events == nil {
		events = []activity.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
