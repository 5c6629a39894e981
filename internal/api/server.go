package api

import (
	"net/http"
	"strconv"

	"github.com/Daphne210/amr-inference-server/internal/activity"
	"github.com/Daphne210/amr-inference-server/internal/metrics"
	"github.com/Daphne210/amr-inference-server/internal/model"
	"github.com/Daphne210/amr-inference-server/internal/schema"
	"github.com/Daphne210/amr-inference-server/internal/store"
)

// Server bundles the process-scoped immutable state (model bundle, schema)
// and the runtime sinks (audit store, activity ring, latency tracker) that
// every request handler needs. Constructed once at startup.
type Server struct {
	Models *model.Store
	Schema *schema.Schema

	FillPolicy schema.FillPolicy

	Audit    *store.Store
	Activity *activity.Log
	Latency  *metrics.LatencyTracker

	// TopFeatures is how many contributing features to report per resistant
	// prediction. 0 disables explanations.
	TopFeatures int
}

func NewServer(models *model.Store, sch *schema.Schema) *Server {
	return &Server{
		Models:      models,
		Schema:      sch,
		FillPolicy:  schema.FillDefault,
		TopFeatures: 5,
	}
}

func (s *Server) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"model_version": s.Models.Version(),
		"schema_source": s.Schema.Source(),
	})
}

// statusRecorder captures the status code for the request counter.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Instrument counts requests per route and status.
func Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}
