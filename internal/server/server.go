package server

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/kartoza/spores-explorer/internal/api"
	"github.com/kartoza/spores-explorer/internal/config"
	"github.com/kartoza/spores-explorer/internal/dashboard"
	"github.com/kartoza/spores-explorer/internal/dataset"
	"github.com/kartoza/spores-explorer/internal/explorer"
	"github.com/kartoza/spores-explorer/internal/metrics"
	"github.com/kartoza/spores-explorer/internal/sessions"
)

//go:embed static/*
var staticFS embed.FS

// sweepInterval is how often idle sessions are looked for
const sweepInterval = time.Minute

// Server holds all the components for the web application
type Server struct {
	cfg        config.Config
	httpServer *http.Server
	router     *mux.Router
	dash       *dashboard.Dashboard
	sessions   *sessions.Store
	metrics    *metrics.Metrics
	page       *template.Template
	sweepCtx   context.Context
	stopSweep  context.CancelFunc
}

// New loads the dataset and the indicator catalogue and creates a Server
// with all components initialized
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	cat, err := config.LoadCatalogue(cfg.IndicatorsFile)
	if err != nil {
		return nil, err
	}

	data, err := dataset.Load(ctx, cfg.SporesPath(), cfg.UnitsPath())
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d SPORES with %d columns from %s", data.Len(), len(data.Columns()), cfg.SporesPath())

	engine, err := explorer.NewEngine(data, cat.Indicators)
	if err != nil {
		return nil, err
	}

	return NewWithEngine(cfg, cat, engine)
}

// NewWithEngine creates a Server around an already loaded engine
func NewWithEngine(cfg config.Config, cat config.Catalogue, engine *explorer.Engine) (*Server, error) {
	m := metrics.New()
	m.SetRecords(engine.Dataset().Len())

	page, err := template.ParseFS(staticFS, "static/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}

	dash := dashboard.New(cat, engine, dashboard.WithRuleObserver(m.IncrementRuleFiring))
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	s := &Server{
		cfg:       cfg,
		router:    mux.NewRouter(),
		dash:      dash,
		sessions:  sessions.NewStore(dash, cfg.SessionTTL, sessions.WithSizeObserver(m.SetActiveSessions)),
		metrics:   m,
		page:      page,
		sweepCtx:  sweepCtx,
		stopSweep: stopSweep,
	}

	// Set up routes
	s.setupRoutes()

	return s, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(s.instrument)

	// API routes
	apiRouter := s.router.PathPrefix("/api").Subrouter()
	apiHandler := api.NewHandler(s.dash, s.sessions, s.metrics, s.cfg)
	apiHandler.RegisterRoutes(apiRouter)

	// Prometheus scrape endpoint
	s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")

	// Record images and other static assets from disk
	s.router.PathPrefix("/assets/").Handler(
		http.StripPrefix("/assets/", http.FileServer(http.Dir(s.cfg.AssetsDir))))

	// Page scripts and styles (embedded)
	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Printf("Warning: Could not load embedded static files: %v", err)
	} else {
		s.router.PathPrefix("/static/").Handler(
			http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))
	}

	// The page shell, seeded from the query string
	s.router.HandleFunc("/", s.handlePage).Methods("GET")
}

// pageData is what the page template renders
type pageData struct {
	Layout  dashboard.Layout
	Version string
}

// handlePage renders the page shell with every control seeded from the URL
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Layout:  s.dash.Layout(r.URL.String()),
		Version: s.cfg.Version,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if err := s.page.Execute(w, data); err != nil {
		log.Printf("Error rendering page: %v", err)
	}
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument records request latency by route template
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.metrics.ObserveRequest(route, r.Method, rec.status, time.Since(start))
	})
}

// Start begins listening for HTTP connections and sweeping idle sessions
func (s *Server) Start() error {
	go s.sessions.Run(s.sweepCtx, sweepInterval)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server listening on http://localhost:%d", s.cfg.Port)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.stopSweep()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
