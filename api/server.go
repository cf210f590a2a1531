package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/safecoin/interest-api/binder"
	"github.com/safecoin/interest-api/database/models"
	"github.com/safecoin/interest-api/types"
	"github.com/safecoin/interest-api/view"
)

// Cache is the read side of the snapshot cache.
type Cache interface {
	GetUnspents(ctx context.Context, filter models.Filter) ([]types.UnspentOutput, error)
	GetLastFetch(ctx context.Context, address string) (*models.LastFetch, error)
	GetBalance(ctx context.Context, address string) (models.Balance, bool, error)
}

const (
	defaultSessionTTL  = 30 * time.Minute
	defaultMaxSessions = 10000
)

// API server
type Server struct {
	r        chi.Router
	http     *http.Server
	log      *slog.Logger
	db       Cache
	sessions *Sessions
	renderer view.Renderer
	opts     ServerOpts
}

type ServerOpts struct {
	Logger      *slog.Logger
	Port        string
	ExplorerURL string
	// Port the views send their requests to
	Fetcher binder.Port
	// optional, enables /v1/addresses
	Cache Cache
	// sessions idle for longer are dropped
	SessionTTL  time.Duration
	MaxSessions int
}

// Create API server
func NewServer(opts ServerOpts) (*Server, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("api server needs a fetcher")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SessionTTL == 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	if opts.MaxSessions == 0 {
		opts.MaxSessions = defaultMaxSessions
	}

	s := &Server{
		log:      opts.Logger,
		db:       opts.Cache,
		renderer: view.Renderer{ExplorerURL: opts.ExplorerURL},
		opts:     opts,
	}
	s.sessions = NewSessions(func() *binder.Binder {
		return binder.New(binder.BinderOpts{
			Port:   opts.Fetcher,
			Logger: opts.Logger.With("component", "binder"),
		})
	}, opts.SessionTTL, opts.MaxSessions)
	s.routes()

	return s, nil
}

// Starts HTTP server. Blocks until the server is shut down.
func (s *Server) StartServer() error {
	s.http = &http.Server{Addr: ":" + s.opts.Port, Handler: s.r}
	s.log.Info("📡 Server Started. API Server is now listening on http://localhost:" + s.opts.Port)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// SweepSessions drops idle sessions until ctx is cancelled.
func (s *Server) SweepSessions(ctx context.Context) {
	interval := s.opts.SessionTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	s.sessions.Run(ctx, interval, func(dropped int) {
		s.log.Info("dropped idle sessions", "count", dropped, "open", s.sessions.Len())
	})
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Turns server into http server
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.r.ServeHTTP(w, r)
}

// Returns JSON response to the API user. HTTP status code
// and data must be provided
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		fmt.Fprintf(w, "%s", err.Error())
	}
}

// Returns an error to the API user
func ERROR(w http.ResponseWriter, statusCode int, err error) {
	w.WriteHeader(statusCode)
	err = json.NewEncoder(w).Encode(map[string]interface{}{"error": err.Error()})
	if err != nil {
		fmt.Fprintf(w, "%s", err.Error())
	}
}
