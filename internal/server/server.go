// Package server exposes the review API: item listing, session lifecycle,
// command dispatch, and save/activity endpoints.
package server

import (
	"context"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/curation-cli/internal/autosave"
	"github.com/sells-group/curation-cli/internal/session"
	"github.com/sells-group/curation-cli/internal/store"
)

// Options configures the server.
type Options struct {
	AssetsBaseURL string
	CORSOrigins   []string
	Autosave      autosave.Config
}

// Server holds the review API state: the store, live sessions, and one
// autosave scheduler per session. Background work spawned for a session
// (similarity ranking, autosave/keepalive timers) runs under baseCtx,
// which spans the server's lifetime, not the opening request's.
type Server struct {
	store    store.Store
	sessions *session.Manager
	opts     Options

	baseCtx context.Context
	cancel  context.CancelFunc

	mu         sync.Mutex
	schedulers map[string]*autosave.Scheduler
	lastSeen   map[string]time.Time
}

// New creates a Server.
func New(st store.Store, sessions *session.Manager, opts Options) *Server {
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		store:      st,
		sessions:   sessions,
		opts:       opts,
		baseCtx:    ctx,
		cancel:     cancel,
		schedulers: make(map[string]*autosave.Scheduler),
		lastSeen:   make(map[string]time.Time),
	}
}

// Router builds the chi router for the review API.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/items", s.handleListItems)
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleOpenSession)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleCloseSession)
				r.Post("/commands", s.handleCommand)
				r.Post("/save", s.handleSave)
				r.Post("/activity", s.handleActivity)
				r.Post("/keepalive", s.handleKeepalive)
			})
		})
	})
	return r
}

// startScheduler attaches an autosave scheduler to a freshly opened
// session. Autosave assembles and persists; keepalive refreshes the
// session's last-seen time.
func (s *Server) startScheduler(ctx context.Context, sess *session.Session) {
	save := func(ctx context.Context) error {
		if sess.Closed() {
			return nil
		}
		_, err := s.store.SaveEntry(ctx, sess.Assemble())
		return err
	}
	ping := func(ctx context.Context) error {
		s.touch(sess.ID)
		return nil
	}

	sched := autosave.New(s.opts.Autosave, save, ping)
	sched.Start(ctx)

	s.mu.Lock()
	s.schedulers[sess.ID] = sched
	s.lastSeen[sess.ID] = time.Now()
	s.mu.Unlock()
}

func (s *Server) scheduler(sessionID string) *autosave.Scheduler {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedulers[sessionID]
}

func (s *Server) touch(sessionID string) {
	s.mu.Lock()
	s.lastSeen[sessionID] = time.Now()
	s.mu.Unlock()
}

// dropScheduler stops and forgets a session's scheduler.
func (s *Server) dropScheduler(sessionID string) {
	s.mu.Lock()
	sched := s.schedulers[sessionID]
	delete(s.schedulers, sessionID)
	delete(s.lastSeen, sessionID)
	s.mu.Unlock()
	if sched != nil {
		sched.Stop()
	}
}

// Shutdown stops all schedulers and closes every session.
func (s *Server) Shutdown() {
	s.cancel()

	s.mu.Lock()
	scheds := make([]*autosave.Scheduler, 0, len(s.schedulers))
	for id, sched := range s.schedulers {
		scheds = append(scheds, sched)
		delete(s.schedulers, id)
		delete(s.lastSeen, id)
	}
	s.mu.Unlock()

	for _, sched := range scheds {
		sched.Stop()
	}
	s.sessions.CloseAll()
	zap.L().Info("server: shutdown complete")
}
