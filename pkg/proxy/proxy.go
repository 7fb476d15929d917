// Package proxy is the gateway's HTTP front: it routes inbound requests to the
// relay, search, summarize, WebDAV and static handlers.
package proxy

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/edgegate/edgegate/pkg/auth"
	"github.com/edgegate/edgegate/pkg/config"
	"github.com/edgegate/edgegate/pkg/keys"
	"github.com/edgegate/edgegate/pkg/kv"
	"github.com/edgegate/edgegate/pkg/llm"
	"github.com/edgegate/edgegate/pkg/metrics"
	"github.com/edgegate/edgegate/pkg/models"
	"github.com/edgegate/edgegate/pkg/quota"
	"github.com/edgegate/edgegate/pkg/router"
	"github.com/edgegate/edgegate/pkg/search"
	"github.com/edgegate/edgegate/pkg/summary"
	"github.com/edgegate/edgegate/pkg/webdav"
)

// Demo quota charged per call.
const (
	RelayCharge     = 1.0
	AuxiliaryCharge = 0.1
)

// webdavMethods are registered with chi so /webdav routes accept them.
var webdavMethods = []string{"PROPFIND", "PROPPATCH", "MKCOL", "COPY", "MOVE", "LOCK", "UNLOCK"}

func init() {
	for _, m := range webdavMethods {
		chi.RegisterMethod(m)
	}
}

// Server is the edgegate HTTP gateway.
type Server struct {
	cfg        *config.Config
	gate       *auth.Gate
	router     *router.Router
	search     *search.Orchestrator
	summarizer *summary.Summarizer
	webdav     *webdav.Proxy
	metrics    *metrics.Metrics
	client     *http.Client
	instanceID string
	handler    http.Handler
}

// Option customizes a Server.
type Option func(*Server)

// WithHTTPClient sets the client used for every outbound call.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Server) { s.client = c }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New creates a Server wired with all dependencies. store backs the demo
// quota; nil keeps it in memory.
func New(cfg *config.Config, store kv.Store, opts ...Option) *Server {
	s := &Server{
		cfg:        cfg,
		router:     router.New(cfg.APIBase),
		client:     http.DefaultClient,
		instanceID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}

	pool := keys.NewRotator(cfg.APIKeys)
	s.gate = auth.NewGate(cfg.SecretPassword, cfg.DemoPassword, pool, quota.New(store, cfg.DemoMaxTimesPerHour))

	lite := router.DefaultLiteModelStrategy().Pick(cfg.ModelIDList())
	completer := llm.New(s.router, pool, s.client)
	s.search = search.New(completer, lite, search.NewTavily(cfg.TavilyURL, s.client), keys.NewRotator(cfg.TavilyKeys))
	s.summarizer = summary.New(completer, lite)
	s.webdav = webdav.New(s.client)

	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/index.html", s.handleIndex)
	r.Get("/favicon.svg", s.handleFavicon)
	r.Get("/manifest.json", s.handleManifest)
	r.Get("/site.webmanifest", s.handleManifest)

	r.HandleFunc("/whoami", s.handleWhoami)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Post("/search", s.handleSearch)
	r.Post("/summarize", s.handleSummarize)

	r.Handle("/webdav", s.webdav)
	r.Handle("/webdav/*", s.webdav)

	r.HandleFunc("/v1", s.handleRelay)
	r.HandleFunc("/v1/*", s.handleRelay)

	r.NotFound(s.fallback)
	r.MethodNotAllowed(s.fallback)
	return r
}

// fallback serves paths chi has no route for. Anything under the /v1 prefix
// (including /v1beta) is relayed; the rest is an invalid path.
func (s *Server) fallback(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case r.Method == http.MethodOptions && strings.HasPrefix(path, webdav.Prefix):
		webdav.Preflight(w, r)
	case path == webdav.Prefix || strings.HasPrefix(path, webdav.Prefix+"/"):
		s.webdav.ServeHTTP(w, r)
	case strings.HasPrefix(path, "/v1"):
		s.handleRelay(w, r)
	default:
		models.WriteError(w, http.StatusBadRequest, path+" Invalid API path. Must start with /v1")
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe starts the gateway with graceful shutdown support.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"listen":   s.cfg.Listen,
			"instance": s.instanceID,
		}).Info("edgegate listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// resolve runs the credential gate and writes the rejection if there is one.
func (s *Server) resolve(w http.ResponseWriter, r *http.Request, credential string, charge float64) (auth.Grant, bool) {
	grant, err := s.gate.Resolve(r.Context(), credential, charge)
	if err != nil {
		s.writeGateError(w, r, err)
		return auth.Grant{}, false
	}
	s.metrics.Grant(grant.Kind.String())
	return grant, true
}

func (s *Server) writeGateError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *models.APIError
	if errors.As(err, &apiErr) {
		s.metrics.Reject(apiErr.Status)
		models.WriteAPIError(w, apiErr)
		return
	}

	log.WithError(err).WithField("path", r.URL.Path).Error("credential resolution failed")
	s.metrics.Reject(http.StatusInternalServerError)
	if errors.Is(err, keys.ErrEmptyPool) {
		models.WriteError(w, http.StatusInternalServerError, keys.ErrEmptyPool.Error())
		return
	}
	models.WriteError(w, http.StatusInternalServerError, "Internal server error")
}
