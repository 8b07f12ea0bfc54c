package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/trace"

	"github.com/psantana5/hostbench/internal/host"
	"github.com/psantana5/hostbench/internal/logging"
	"github.com/psantana5/hostbench/internal/ratelimit"
	"github.com/psantana5/hostbench/internal/report"
	"github.com/psantana5/hostbench/internal/script"
)

// Options configure the HTTP surface
type Options struct {
	Resource  string
	Resources []string
	Labels    bool
	Metrics   *report.Metrics
	History   *report.History
	Limiter   *ratelimit.Limiter
	Tracer    trace.Tracer

	// TrustedProxies may set X-Forwarded-For for rate limiting
	TrustedProxies []string
	Logger    *logging.Logger
}

// Server exposes script runs and their metrics over HTTP
type Server struct {
	opts   Options
	log    *logging.Logger
	router *mux.Router
}

// RunResponse is the body of POST /run
type RunResponse struct {
	RunID   string          `json:"run_id"`
	Output  []string        `json:"output"`
	Results []report.Result `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// New builds the router
func New(opts Options) *Server {
	if opts.Metrics == nil {
		opts.Metrics = report.NewMetrics()
	}
	if opts.History == nil {
		opts.History = report.NewHistory(100)
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.NewLimiter(0, 1)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	s := &Server{
		opts:   opts,
		log:    logger.WithField("component", "server"),
		router: mux.NewRouter(),
	}
	s.RegisterRoutes(s.router)
	return s
}

// RegisterRoutes wires every endpoint onto r
func (s *Server) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.opts.Metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/results", s.handleResults).Methods(http.MethodGet)

	keyFunc := ratelimit.IPKeyFunc
	if len(s.opts.TrustedProxies) > 0 {
		keyFunc = ratelimit.ForwardedKeyFunc(s.opts.TrustedProxies)
	}
	limit := s.opts.Limiter.Middleware(keyFunc)
	r.Handle("/run", limit(http.HandlerFunc(s.handleRun))).Methods(http.MethodPost)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRun executes the script against a fresh host so registrations
// from earlier runs do not accumulate
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	rt := host.NewRuntime(s.opts.Resource, s.opts.Resources...)

	var out bytes.Buffer
	sc := script.New(rt, script.Options{
		Out:     &out,
		Labels:  s.opts.Labels,
		Logger:  s.log,
		Metrics: s.opts.Metrics,
		History: s.opts.History,
		Tracer:  s.opts.Tracer,
	})

	results, err := sc.Run(r.Context())
	if err != nil {
		s.log.Error("Run failed", map[string]interface{}{"run_id": sc.RunID(), "error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, RunResponse{
		RunID:   sc.RunID(),
		Output:  strings.Split(strings.TrimRight(out.String(), "\n"), "\n"),
		Results: results,
	})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, s.opts.History.Recent(limit))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
