// Package api serves evaluations over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sells-group/windcover/internal/store"
	"github.com/sells-group/windcover/internal/wind"
)

// Evaluator is satisfied by *wind.Estimator.
type Evaluator interface {
	Evaluate(ctx context.Context, q wind.Query) (*wind.Evaluation, error)
}

// Defaults fill request fields the client leaves out.
type Defaults struct {
	Turbine  wind.TurbineConfig
	Scenario wind.ScenarioParams
	Filter   wind.BuildingFilter
	Quality  wind.QualityThresholds
	Location *time.Location
}

// Options configure a Server.
type Options struct {
	Evaluator   Evaluator
	Store       store.Store // nil disables persistence and the /v1/evaluations routes
	Defaults    Defaults
	CORSOrigins []string
	RateLimit   int // requests per minute per IP; 0 disables

	// Registry receives the metrics. A fresh registry with the Go and
	// process collectors is used when nil.
	Registry *prometheus.Registry
}

// Server holds the handlers' dependencies.
type Server struct {
	eval     Evaluator
	store    store.Store
	defaults Defaults
	metrics  *Metrics
	registry *prometheus.Registry
	opts     Options
}

// New builds a Server.
func New(opts Options) *Server {
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	if opts.Defaults.Location == nil {
		opts.Defaults.Location = time.UTC
	}
	return &Server{
		eval:     opts.Evaluator,
		store:    opts.Store,
		defaults: opts.Defaults,
		metrics:  NewMetrics(reg),
		registry: reg,
		opts:     opts,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		if s.opts.RateLimit > 0 {
			r.Use(httprate.LimitByIP(s.opts.RateLimit, time.Minute))
		}
		r.Post("/evaluate", s.handleEvaluate)
		r.Get("/evaluations", s.handleListEvaluations)
		r.Get("/evaluations/{id}", s.handleGetEvaluation)
		r.Post("/evaluations/{id}/coverage", s.handleCoverage)
	})
	return r
}

// requestLogger logs one line per request with zap.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("api: request",
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
