package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	applog "monthlyexpenses/internal/log"
	"monthlyexpenses/internal/services"
)

// Options tunes a Server. Zero values pick defaults.
type Options struct {
	Logger *applog.Logger
	// RateLimit is the number of mutating requests allowed per client per minute.
	RateLimit int
}

// Server exposes the ledger service and the single shared entry draft.
type Server struct {
	http.Server
	svc     *services.LedgerService
	logger  *applog.Logger
	limiter *rateLimiter
	started time.Time

	draftMu sync.Mutex
	draft   services.Draft

	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, svc *services.LedgerService, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.Config{Component: applog.ComponentHTTP})
	}
	if opts.RateLimit < 1 {
		opts.RateLimit = 60
	}

	s := &Server{
		svc:     svc,
		logger:  opts.Logger.WithComponent(applog.ComponentHTTP),
		limiter: newRateLimiter(opts.RateLimit),
		started: time.Now(),
	}
	go s.limiter.startCleanup()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/types", s.handleTypes)
	mux.HandleFunc("GET /api/folder", s.handleGetFolder)
	mux.HandleFunc("POST /api/folder", s.handleSelectFolder)

	mux.HandleFunc("GET /api/draft", s.handleGetDraft)
	mux.HandleFunc("POST /api/draft/entries", s.handleAddEntry)
	mux.HandleFunc("PUT /api/draft/entries/{index}", s.handleEditEntry)
	mux.HandleFunc("DELETE /api/draft/entries/{index}", s.handleDeleteEntry)
	mux.HandleFunc("POST /api/draft/submit", s.handleSubmitDraft)

	mux.HandleFunc("GET /api/months", s.handleListMonths)
	mux.HandleFunc("GET /api/months/{month}", s.handleGetMonth)
	mux.HandleFunc("GET /api/months/{month}/deviations", s.handleDeviations)
	mux.HandleFunc("GET /api/totals", s.handleTotals)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           applog.Middleware(s.logger)(s.protect(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops background routines and the HTTP server. Only the first
// call has an effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
