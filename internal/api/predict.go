package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Daphne210/amr-inference-server/internal/activity"
	"github.com/Daphne210/amr-inference-server/internal/metrics"
	"github.com/Daphne210/amr-inference-server/internal/model"
	"github.com/Daphne210/amr-inference-server/internal/schema"
	"github.com/Daphne210/amr-inference-server/internal/store"
)

const maxRequestBytes = 1 << 20

// LabelResult is one booster's verdict for the request.
type LabelResult struct {
	Label       string                `json:"label"`
	Prediction  int                   `json:"prediction"`
	Probability float64               `json:"probability"`
	TopFeatures []model.FeatureImpact `json:"top_features,omitempty"`
}

type PredictResponse struct {
	ID           string        `json:"id"`
	ModelVersion string        `json:"model_version,omitempty"`
	SchemaSource string        `json:"schema_source"`
	// Prediction is the first label's output; for single-model bundles this
	// is the prediction.
	Prediction  int           `json:"prediction"`
	Results     []LabelResult `json:"results"`
	Suggestions []string      `json:"suggestions"`
	Filled      []string      `json:"filled,omitempty"`
}

// HandlePredict scores one feature record against every booster in the
// bundle. The request either fully succeeds or fully fails; errors always
// come back as the {error, message} envelope.
func (s *Server) HandlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	start := time.Now()
	id := uuid.NewString()
	defer func() {
		metrics.PredictDuration.Observe(time.Since(start).Seconds())
	}()

	record, kind, msg := decodeRecord(w, r)
	if kind != "" {
		s.failPredict(w, id, start, http.StatusBadRequest, kind, msg)
		return
	}

	rec, err := s.Schema.Reconcile(record, s.FillPolicy)
	if err != nil {
		var typeErr *schema.FeatureTypeError
		var missErr *schema.MissingFeatureError
		switch {
		case errors.As(err, &typeErr):
			s.failPredict(w, id, start, http.StatusBadRequest, errFeatureType, err.Error())
		case errors.As(err, &missErr):
			s.failPredict(w, id, start, http.StatusBadRequest, errMissingFeature, err.Error())
		default:
			s.failPredict(w, id, start, http.StatusInternalServerError, errInternal, err.Error())
		}
		return
	}
	if len(rec.Filled) > 0 {
		log.Printf("predict %s: filled %d missing feature(s) per policy: %v", id, len(rec.Filled), rec.Filled)
	}

	names := s.Schema.Names()
	var results []LabelResult
	var suggestions []string
	for _, b := range s.Models.Boosters() {
		t0 := time.Now()
		class, prob, err := b.Predict(rec.Vector)
		took := time.Since(t0)
		if err != nil {
			// Reconciliation guarantees schema-length vectors, so landing
			// here means model/schema version skew. Log loudly and refuse.
			log.Printf("ERROR: dimension mismatch on model %q (version %s, schema %s): %v",
				b.Label, s.Models.Version(), s.Schema.Source(), err)
			if s.Latency != nil {
				s.Latency.ObserveError(b.Label, took)
			}
			metrics.PredictionsTotal.WithLabelValues(b.Label, "error").Inc()
			if s.Activity != nil {
				s.Activity.Add(activity.Event{Type: activity.EventDimensionMismatch, Model: b.Label, RequestID: id, Note: err.Error()})
			}
			s.failPredict(w, id, start, http.StatusInternalServerError, errDimensionMismatch, err.Error())
			return
		}
		if s.Latency != nil {
			s.Latency.ObserveOK(b.Label, took)
		}

		res := LabelResult{Label: b.Label, Prediction: class, Probability: prob}
		if class == 1 {
			metrics.PredictionsTotal.WithLabelValues(b.Label, "resistant").Inc()
			if s.TopFeatures > 0 {
				if contrib, cerr := b.Contributions(rec.Vector); cerr == nil {
					res.TopFeatures = model.TopImpacts(contrib, names, s.TopFeatures)
				}
			}
			suggestions = append(suggestions, fmt.Sprintf("Avoid using %s. Consider alternative antibiotic.", b.Label))
		} else {
			metrics.PredictionsTotal.WithLabelValues(b.Label, "sensitive").Inc()
		}
		results = append(results, res)
	}
	if len(suggestions) == 0 {
		suggestions = []string{"All antibiotics predicted sensitive. Proceed with standard treatment."}
	}

	resp := PredictResponse{
		ID:           id,
		ModelVersion: s.Models.Version(),
		SchemaSource: string(s.Schema.Source()),
		Prediction:   results[0].Prediction,
		Results:      results,
		Suggestions:  suggestions,
		Filled:       rec.Filled,
	}

	s.audit(store.PredictionRecord{
		ID:           id,
		CreatedAt:    start,
		ModelVersion: s.Models.Version(),
		SchemaSource: string(s.Schema.Source()),
		Outcome:      "ok",
		ResultsJSON:  marshalResults(results),
		FilledCount:  len(rec.Filled),
		DurationMs:   float64(time.Since(start).Microseconds()) / 1000.0,
	})

	writeJSON(w, http.StatusOK, resp)
}

// decodeRecord reads the body into a flat feature record. A non-empty kind
// means the request is malformed.
func decodeRecord(w http.ResponseWriter, r *http.Request) (map[string]any, string, string) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		return nil, errMalformedRequest, fmt.Sprintf("read body: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, errMalformedRequest, "body must be a JSON object of feature name to value"
	}
	// JSON null unmarshals into a nil map without error.
	if record == nil {
		return nil, errMalformedRequest, "body must be a JSON object of feature name to value"
	}
	for k, v := range record {
		switch v.(type) {
		case map[string]any, []any:
			return nil, errMalformedRequest, fmt.Sprintf("feature %q: value must be a scalar", k)
		}
	}
	return record, "", ""
}

func (s *Server) failPredict(w http.ResponseWriter, id string, start time.Time, status int, kind, msg string) {
	if status >= http.StatusInternalServerError {
		log.Printf("predict %s failed: %s: %s", id, kind, msg)
	}
	if s.Activity != nil && status < http.StatusInternalServerError {
		s.Activity.Add(activity.Event{Type: activity.EventPredictFailed, RequestID: id, Note: kind + ": " + msg})
	}
	s.audit(store.PredictionRecord{
		ID:           id,
		CreatedAt:    start,
		ModelVersion: s.Models.Version(),
		SchemaSource: string(s.Schema.Source()),
		Outcome:      kind,
		DurationMs:   float64(time.Since(start).Microseconds()) / 1000.0,
		Error:        msg,
	})
	writeError(w, status, kind, msg)
}

// audit persists the attempt. Deliberately decoupled from the request
// context so a dropped client still leaves a record.
func (s *Server) audit(rec store.PredictionRecord) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.InsertPrediction(context.Background(), rec); err != nil {
		log.Printf("audit insert failed for %s: %v", rec.ID, err)
	}
}

func marshalResults(results []LabelResult) string {
	raw, err := json.Marshal(results)
	if err != nil {
		return ""
	}
	return string(raw)
}
