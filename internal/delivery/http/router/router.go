package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pmajay/image-verifier/internal/delivery/http/handler"
	"github.com/pmajay/image-verifier/internal/delivery/http/middleware"
	"github.com/pmajay/image-verifier/pkg/metrics"
)

func New(h *handler.Handler, logger *zap.Logger) http.Handler {
	metrics.Init()

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/api/health", h.HandleHealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Post("/verify", h.HandleVerify)
		r.Post("/verify/batch", h.HandleVerifyBatch)
		r.Get("/verifications", h.HandleListVerifications)
		r.Get("/verifications/{id}", h.HandleGetVerification)
	})

	return r
}
