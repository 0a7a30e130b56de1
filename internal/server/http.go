package server

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jswheeler/trivia-api/internal/config"
	"github.com/jswheeler/trivia-api/internal/logging"
	"github.com/jswheeler/trivia-api/internal/trivia"
)

// NewHTTPServer wires all routes for the API service.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, handlers *trivia.HTTPHandlers) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			reqLogger := logging.FromContext(r.Context())
			reqLogger.Error().Err(err).Msg("database ping failed")
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/categories", handlers.ListCategories)
	mux.HandleFunc("GET /v1/categories/{token}/questions", handlers.ListQuestionsByCategory)
	mux.HandleFunc("GET /v1/questions", handlers.ListQuestions)
	mux.HandleFunc("POST /v1/questions", handlers.AddQuestion)
	mux.HandleFunc("DELETE /v1/questions/{id}", handlers.DeleteQuestion)
	mux.HandleFunc("POST /v1/questions/search", handlers.SearchQuestions)
	mux.HandleFunc("POST /v1/quizzes", handlers.NextQuizQuestion)

	handler := RequestID(logger, Metrics(CORS(cfg.CORS, mux)))

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler,
	}
}
