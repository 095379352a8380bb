package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/verdant-group/impact-cli/internal/aggregate"
	"github.com/verdant-group/impact-cli/internal/attribute"
	"github.com/verdant-group/impact-cli/internal/device"
	"github.com/verdant-group/impact-cli/internal/metrics"
	"github.com/verdant-group/impact-cli/internal/model"
	"github.com/verdant-group/impact-cli/internal/resolver"
	"github.com/verdant-group/impact-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		api := &apiServer{
			engine:  initEngine(),
			store:   st,
			metrics: metrics.New(),
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           api.routes(cfg.Server.RatePerSec, cfg.Server.RateBurst),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// apiServer holds the request handlers' shared collaborators.
type apiServer struct {
	engine  *engine
	store   store.Store
	metrics *metrics.Metrics
}

func (s *apiServer) routes(ratePerSec float64, burst int) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(rateLimiter(ratePerSec, burst))

	r.Get("/health", s.metrics.Instrument("/health", s.handleHealth))
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/server", s.metrics.Instrument("/v1/server", s.handleServer))
		r.Post("/component/{type}", s.metrics.Instrument("/v1/component", s.handleComponent))
		r.Get("/archetypes/{kind}", s.metrics.Instrument("/v1/archetypes", s.handleArchetypes))
		r.Get("/assessments", s.metrics.Instrument("/v1/assessments", s.handleAssessmentsList))
		r.Get("/assessments/{id}", s.metrics.Instrument("/v1/assessments/id", s.handleAssessmentsGet))
	})

	return r
}

// rateLimiter rejects requests beyond the configured sustained rate.
func rateLimiter(perSec float64, burst int) func(http.Handler) http.Handler {
	if perSec <= 0 {
		perSec = 20
	}
	if burst <= 0 {
		burst = int(perSec)
	}
	limiter := rate.NewLimiter(rate.Limit(perSec), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, eris.New("rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *apiServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// serverRequest is the body of POST /v1/server.
type serverRequest struct {
	device.Spec
	Criteria   []string `json:"criteria,omitempty"`
	Duration   float64  `json:"duration_hours,omitempty"`
	Allocation float64  `json:"allocation,omitempty"`
	Verbose    bool     `json:"verbose,omitempty"`
}

func (s *apiServer) handleServer(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req serverRequest
	if err := decodeBody(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	allocation := req.Allocation
	if allocation == 0 {
		allocation = 1
	}
	if allocation < 0 || allocation > 1 {
		writeError(w, http.StatusBadRequest, eris.Errorf("allocation must be in (0, 1], got %v", req.Allocation))
		return
	}
	aggReq, err := buildRequest(req.Criteria, req.Duration, allocation, req.Verbose)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := computeDevice(r.Context(), s.engine, s.store, "server", req.Spec, aggReq)
	if err != nil {
		s.metrics.RecordComputation("server", "error", time.Since(start))
		writeError(w, statusFor(err), err)
		return
	}

	s.metrics.RecordComputation("server", "success", time.Since(start))
	writeJSON(w, http.StatusOK, result)
}

// componentRequest is the body of POST /v1/component/{type}.
type componentRequest struct {
	Attributes device.ComponentSpec `json:"attributes,omitempty"`
	Archetype  string               `json:"archetype,omitempty"`
	Criteria   []string             `json:"criteria,omitempty"`
}

func (s *apiServer) handleComponent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	typ, err := device.ParseType(chi.URLParam(r, "type"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	var req componentRequest
	if err := decodeBody(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var criteria []model.Criterion
	if len(req.Criteria) > 0 {
		criteria, err = model.ParseCriteria(req.Criteria)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	kind := "component:" + string(typ)
	specJSON, _ := json.Marshal(req)
	record, err := s.store.CreateAssessment(r.Context(), kind, specJSON)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	c, err := device.ComponentFromSpec(typ, req.Attributes)
	if err == nil {
		err = s.engine.Resolver.CompleteComponent(r.Context(), c, req.Archetype)
	}
	var result *model.ImpactResult
	if err == nil {
		result, err = aggregate.Component(r.Context(), c, s.engine.Refdata, s.engine.Defaults, criteria)
	}
	if err != nil {
		failAssessment(r.Context(), s.store, record.ID, err)
		s.metrics.RecordComputation(kind, "error", time.Since(start))
		writeError(w, statusFor(err), err)
		return
	}

	if err := s.store.CompleteAssessment(r.Context(), record.ID, result); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.metrics.RecordComputation(kind, "success", time.Since(start))
	writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleArchetypes(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	ids, err := s.engine.Refdata.ListArchetypes(r.Context(), kind)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"kind": kind, "archetypes": ids})
}

func (s *apiServer) handleAssessmentsList(w http.ResponseWriter, r *http.Request) {
	filter := store.Filter{
		Status: model.AssessmentStatus(r.URL.Query().Get("status")),
		Kind:   r.URL.Query().Get("kind"),
	}
	assessments, err := s.store.ListAssessments(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, assessments)
}

func (s *apiServer) handleAssessmentsGet(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.GetAssessment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// statusFor maps domain error kinds to HTTP statuses.
func statusFor(err error) int {
	var notFound *resolver.ArchetypeNotFoundError
	var country *resolver.CountryNotSupportedError
	var invalid *attribute.InvalidValueError
	switch {
	case eris.As(err, &notFound):
		return http.StatusNotFound
	case eris.As(err, &country), eris.As(err, &invalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(body io.Reader, dst any) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return eris.Wrap(err, "invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
