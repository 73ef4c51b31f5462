package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cricket-roster/internal/config"
	"cricket-roster/internal/constants"
	"cricket-roster/internal/domain"
	"cricket-roster/internal/roster"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var ErrSessionNotFound = errors.New("view session not found")

// ViewSnapshot is what the list view renders.
type ViewSnapshot struct {
	SessionID     string
	Players       []domain.Player
	TotalPages    int
	FilteredCount int
	PageSize      int
	State         roster.ViewState
	Loading       bool
}

// Session is one mounted list view. Operations on a session are serialised.
type Session struct {
	ID string

	mu       sync.Mutex
	view     *roster.View
	loading  bool
	closed   bool
	loadGen  int
	cancel   context.CancelFunc
	loaded   chan struct{}
	lastUsed time.Time

	manager *SessionManager
	logger  zerolog.Logger
}

// mount starts a background roster load. A load that finishes after the
// session was closed or remounted is discarded.
func (s *Session) mount() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithTimeout(s.manager.ctx, constants.MountLoadTimeout)
	s.cancel = cancel
	s.loadGen++
	gen := s.loadGen
	s.loading = true
	done := make(chan struct{})
	s.loaded = done
	s.mu.Unlock()

	s.manager.group.Go(func() error {
		defer close(done)
		defer cancel()

		start := time.Now()
		players := s.manager.loader.Load(ctx)
		s.apply(gen, players, time.Since(start))
		return nil
	})
}

func (s *Session) apply(gen int, players []domain.Player, took time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.loadGen {
		s.logger.Debug().Int("generation", gen).Bool("closed", s.closed).Msg("discarding stale roster load")
		return
	}
	s.view.SetRoster(players)
	s.loading = false
	s.logger.Info().Int("count", len(players)).Dur("duration", took).Msg("roster mounted")
}

func (s *Session) unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
}

// AwaitLoaded blocks until the most recent load has resolved or ctx ends.
func (s *Session) AwaitLoaded(ctx context.Context) error {
	s.mu.Lock()
	done := s.loaded
	s.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Update applies fn to the view and returns the resulting page.
func (s *Session) Update(fn func(v *roster.View)) (ViewSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ViewSnapshot{}, ErrSessionNotFound
	}
	if fn != nil {
		fn(s.view)
	}
	s.lastUsed = s.manager.now()
	return s.snapshotLocked(), nil
}

func (s *Session) Snapshot() (ViewSnapshot, error) {
	return s.Update(nil)
}

func (s *Session) snapshotLocked() ViewSnapshot {
	page, total := s.view.Page()
	return ViewSnapshot{
		SessionID:     s.ID,
		Players:       page,
		TotalPages:    total,
		FilteredCount: s.view.FilteredCount(),
		PageSize:      s.view.PageSize(),
		State:         s.view.State(),
		Loading:       s.loading,
	}
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastUsed)
}

// SessionManager owns every mounted list view.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	loader   roster.Loader
	pipeline *roster.Pipeline
	pageSize int
	idleTTL  time.Duration
	now      func() time.Time

	ctx    context.Context
	stop   context.CancelFunc
	group  errgroup.Group
	logger zerolog.Logger
}

func NewSessionManager(loader roster.Loader, cfg *config.Config, logger zerolog.Logger) *SessionManager {
	return newSessionManager(loader, roster.NewPipeline(cfg.Locale()), cfg.PageSize, cfg.SessionIdleTTL, logger)
}

func newSessionManager(loader roster.Loader, pipeline *roster.Pipeline, pageSize int, idleTTL time.Duration, logger zerolog.Logger) *SessionManager {
	ctx, stop := context.WithCancel(context.Background())
	return &SessionManager{
		sessions: make(map[string]*Session),
		loader:   loader,
		pipeline: pipeline,
		pageSize: pageSize,
		idleTTL:  idleTTL,
		now:      time.Now,
		ctx:      ctx,
		stop:     stop,
		logger:   logger,
	}
}

// Open mounts a new list view with default state and starts loading the
// roster in the background.
func (m *SessionManager) Open() (*Session, error) {
	if err := m.ctx.Err(); err != nil {
		return nil, fmt.Errorf("session manager stopped: %w", err)
	}
	m.sweep()

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	s := &Session{
		ID:       id,
		view:     roster.NewView(m.pipeline, m.pageSize),
		lastUsed: m.now(),
		manager:  m,
		logger:   m.logger.With().Str("session_id", id).Logger(),
	}

	m.mu.Lock()
	m.sessions[id] = s
	count := len(m.sessions)
	m.mu.Unlock()

	s.mount()
	s.logger.Info().Int("open_sessions", count).Msg("view session opened")
	return s, nil
}

func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Reload issues a fresh roster load for a mounted view.
func (m *SessionManager) Reload(id string) (*Session, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	s.mount()
	s.logger.Debug().Msg("view session reloading")
	return s, nil
}

// Close unmounts a view, cancelling any pending load.
func (m *SessionManager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.unmount()
	s.logger.Info().Msg("view session closed")
	return nil
}

func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *SessionManager) sweep() {
	if m.idleTTL <= 0 {
		return
	}
	now := m.now()

	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.idleSince(now) > m.idleTTL {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.unmount()
		s.logger.Info().Msg("idle view session closed")
	}
}

// Shutdown closes every session and waits for pending loads to return.
func (m *SessionManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.unmount()
	}
	m.stop()

	done := make(chan error, 1)
	go func() { done <- m.group.Wait() }()

	select {
	case err := <-done:
		m.logger.Info().Int("closed", len(sessions)).Msg("view sessions shut down")
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
