package api

import (
	"net/http"

	"github.com/Daphne210/amr-inference-server/internal/schema"
)

type modelInfo struct {
	Label       string  `json:"label"`
	NumFeatures int     `json:"num_features"`
	NumTrees    int     `json:"num_trees"`
	EWMAms      float64 `json:"scoring_ewma_ms,omitempty"`
	Predictions uint64  `json:"predictions,omitempty"`
}

type modelsResponse struct {
	Version      string      `json:"version,omitempty"`
	SchemaSource string      `json:"schema_source"`
	Models       []modelInfo `json:"models"`
}

// HandleModels lists the loaded bundle with scoring stats.
func (s *Server) HandleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	out := modelsResponse{
		Version:      s.Models.Version(),
		SchemaSource: string(s.Schema.Source()),
	}
	for _, b := range s.Models.Boosters() {
		info := modelInfo{
			Label:       b.Label,
			NumFeatures: b.NumFeatures,
			NumTrees:    len(b.Trees),
		}
		if s.Latency != nil {
			if l, ok := s.Latency.Get(b.Label); ok {
				info.EWMAms = l.EWMAms
				info.Predictions = l.OK
			}
		}
		out.Models = append(out.Models, info)
	}

	writeJSON(w, http.StatusOK, out)
}

type schemaResponse struct {
	Source   string           `json:"source"`
	Features []schema.Feature `json:"features"`
}

// HandleSchema returns the active feature contract in vector order.
func (s *Server) HandleSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, schemaResponse{
		Source:   string(s.Schema.Source()),
		Features: s.Schema.Features(),
	})
}
