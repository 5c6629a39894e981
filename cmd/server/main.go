package main

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Daphne210/amr-inference-server/internal/activity"
	"github.com/Daphne210/amr-inference-server/internal/api"
	"github.com/Daphne210/amr-inference-server/internal/auth"
	"github.com/Daphne210/amr-inference-server/internal/config"
	"github.com/Daphne210/amr-inference-server/internal/httpx"
	"github.com/Daphne210/amr-inference-server/internal/metrics"
	"github.com/Daphne210/amr-inference-server/internal/model"
	"github.com/Daphne210/amr-inference-server/internal/schema"
	"github.com/Daphne210/amr-inference-server/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Startup is the single serialization point: every artifact loads before
	// the listener opens, and any load failure aborts the process.
	models, err := model.Load(cfg.ModelPath)
	if err != nil {
		log.Fatalf("model load: %v", err)
	}
	log.Printf("loaded model bundle %q (%d boosters, %d features) from %s",
		models.Version(), len(models.Boosters()), models.NumFeatures(), cfg.ModelPath)

	sch, err := resolveSchema(cfg, models)
	if err != nil {
		log.Fatalf("schema load: %v", err)
	}
	if sch.Len() != models.NumFeatures() {
		log.Fatalf("schema/model skew: schema has %d features, model expects %d", sch.Len(), models.NumFeatures())
	}
	log.Printf("feature schema: %d features, source=%s", sch.Len(), sch.Source())

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer db.Close()

	activityLog := activity.New(cfg.ActivityLogSize)
	activityLog.Add(activity.Event{Type: activity.EventModelLoaded, Note: cfg.ModelPath})
	activityLog.Add(activity.Event{Type: activity.EventSchemaLoaded, Note: string(sch.Source())})

	authenticator := auth.NewAuthenticator(db)
	authenticator.RequireKey = cfg.RequireAPIKey
	authenticator.AdminUser = cfg.AdminUser
	authenticator.AdminPasswordHash = cfg.AdminPasswordHash

	srv := api.NewServer(models, sch)
	srv.FillPolicy = cfg.FillPolicy()
	srv.TopFeatures = cfg.TopFeatures
	srv.Audit = db
	srv.Activity = activityLog
	srv.Latency = metrics.NewLatencyTracker(0.2)

	admin := &api.AdminHandler{Auth: authenticator, Store: db, Activity: activityLog}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.HandleHealthz)
	mux.Handle("/metrics", promhttp.Handler())

	// Prediction API, optionally behind API keys.
	apiMux := http.NewServeMux()
	apiMux.Handle("/v1/predict", api.Instrument("predict", http.HandlerFunc(srv.HandlePredict)))
	apiMux.Handle("/v1/models", api.Instrument("models", http.HandlerFunc(srv.HandleModels)))
	apiMux.Handle("/v1/schema", api.Instrument("schema", http.HandlerFunc(srv.HandleSchema)))
	mux.Handle("/v1/", authenticator.Middleware(apiMux))

	// Admin surface behind basic auth.
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("/v1/admin/keys", admin.HandleKeys)
	adminMux.HandleFunc("/v1/admin/predictions", admin.HandlePredictions)
	adminMux.HandleFunc("/v1/admin/activity", admin.HandleActivity)
	mux.Handle("/v1/admin/", authenticator.AdminMiddleware(adminMux))

	handler := httpx.CORS{AllowOrigin: cfg.CORSAllowOrigin}.Wrap(mux)

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	log.Printf("HTTP listening on %s", cfg.HTTPAddr)
	if err := httpSrv.ListenAndServe(); err != nil {
		log.Fatalf("http serve: %v", err)
	}
}

// resolveSchema picks the feature contract: explicit artifact first, then the
// list embedded in the model bundle, then the hardcoded baseline.
func resolveSchema(cfg config.Config, models *model.Store) (*schema.Schema, error) {
	if cfg.SchemaPath != "" {
		return schema.Load(cfg.SchemaPath)
	}
	if names := models.Features(); len(names) > 0 {
		return schema.FromNames(names, schema.SourceEmbedded)
	}
	return schema.Baseline(), nil
}
