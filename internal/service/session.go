package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/timmy/vodhub/internal/loader"
	"github.com/timmy/vodhub/internal/logger"
	"github.com/timmy/vodhub/internal/source"
)

var (
	// ErrSessionNotFound is returned for unknown, closed or expired sessions.
	ErrSessionNotFound = errors.New("browse session not found")
	// ErrTooManySessions is returned when the open-session limit is reached.
	ErrTooManySessions = errors.New("too many open browse sessions")
)

const (
	defaultMaxSessions   = 1000
	defaultIdleTTL       = 30 * time.Minute
	defaultSweepInterval = time.Minute
)

// SessionConfig holds configuration for browse sessions.
type SessionConfig struct {
	MaxSessions   int
	IdleTTL       time.Duration
	SweepInterval time.Duration
	Loader        loader.Config
}

// SessionView is what clients see of a session.
type SessionView struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
	PageSize   int       `json:"page_size"`
	loader.State
}

// session pairs one loader with the context its background loads run in.
type session struct {
	id        string
	loader    *loader.Loader
	ctx       context.Context
	cancel    context.CancelFunc
	createdAt time.Time

	mu       sync.Mutex
	lastUsed time.Time
}

func (s *session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

func (s *session) lastUsedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// SessionService owns one loader per browse session. Sessions never share
// loader state, even when they page through the same query.
type SessionService struct {
	gateway source.Gateway
	cfg     SessionConfig
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// NewSessionService creates a new session service.
// Parameters:
//   - gateway: upstream gateway shared by every session's loader.
//   - cfg: limits and loader settings; zero values use defaults.
//
// Returns:
//   - *SessionService: service with no open sessions.
func NewSessionService(gateway source.Gateway, cfg SessionConfig) *SessionService {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = defaultMaxSessions
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaultIdleTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	return &SessionService{
		gateway:  gateway,
		cfg:      cfg,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Open creates a session paging through query. With prefetch set, the
// first page is loaded before returning; a failed prefetch still opens
// the session, with the failure visible in its state.
// Parameters:
//   - ctx: request context, used for the prefetch only.
//   - query: list to page through.
//   - prefetch: load page 1 synchronously.
//
// Returns:
//   - *SessionView: the new session.
//   - error: source.ErrSourceNotFound or ErrTooManySessions.
func (s *SessionService) Open(ctx context.Context, query source.ListQuery, prefetch bool) (*SessionView, error) {
	if _, ok := s.gateway.Site(query.SourceID); !ok {
		return nil, source.ErrSourceNotFound
	}

	id := uuid.New().String()
	now := s.now()
	sessCtx, cancel := context.WithCancel(logger.SetSource(logger.SetSessionID(context.Background(), id), query.SourceID))
	sess := &session{
		id:        id,
		loader:    loader.New(s.gateway, s.cfg.Loader),
		ctx:       sessCtx,
		cancel:    cancel,
		createdAt: now,
		lastUsed:  now,
	}
	sess.loader.Reset(query)

	s.mu.Lock()
	if len(s.sessions) >= s.cfg.MaxSessions {
		s.mu.Unlock()
		cancel()
		return nil, ErrTooManySessions
	}
	s.sessions[id] = sess
	s.mu.Unlock()

	logger.With(logger.Fields{
		logger.FieldSessionID: id,
		logger.FieldSource:    query.SourceID,
	}).Info(ctx, "Browse session opened: query=%s", query)

	if prefetch {
		sess.loader.LoadNext(logger.SetSessionID(ctx, id))
	}
	return s.view(sess), nil
}

// Get returns the current state of a session.
func (s *SessionService) Get(id string) (*SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

// Next loads the next page synchronously.
// Parameters:
//   - ctx: request context for the gateway call.
//   - id: session id.
//
// Returns:
//   - loader.Outcome: what the load did.
//   - *SessionView: state after the load.
//   - error: ErrSessionNotFound.
func (s *SessionService) Next(ctx context.Context, id string) (loader.Outcome, *SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return 0, nil, err
	}
	outcome := sess.loader.LoadNext(logger.SetSessionID(ctx, id))
	return outcome, s.view(sess), nil
}

// Scroll forwards a near-bottom signal. The load, if one starts, runs in
// the session's own context and is cancelled when the session closes.
func (s *SessionService) Scroll(id string) (bool, *SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return false, nil, err
	}
	started := sess.loader.TriggerFromScrollSignal(sess.ctx)
	return started, s.view(sess), nil
}

// Reset points a session at query, discarding its items if the query
// changed. It reports whether a reset happened.
func (s *SessionService) Reset(id string, query source.ListQuery) (bool, *SessionView, error) {
	if _, ok := s.gateway.Site(query.SourceID); !ok {
		return false, nil, source.ErrSourceNotFound
	}
	sess, err := s.lookup(id)
	if err != nil {
		return false, nil, err
	}
	changed := sess.loader.Activate(query)
	if changed {
		logger.With(logger.Fields{logger.FieldSessionID: id}).
			Debug(sess.ctx, "Browse session query changed: query=%s", query)
	}
	return changed, s.view(sess), nil
}

// Close tears a session down. In-flight background loads are cancelled.
func (s *SessionService) Close(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	sess.cancel()
	logger.CtxInfo(sess.ctx, "Browse session closed")
	return nil
}

// CloseAll tears down every session and waits for their background loads.
func (s *SessionService) CloseAll() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	for _, sess := range all {
		sess.cancel()
	}
	for _, sess := range all {
		sess.loader.Wait()
	}
}

// Len returns the number of open sessions.
func (s *SessionService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep closes sessions idle for longer than the configured TTL and
// returns how many were closed.
func (s *SessionService) Sweep() int {
	cutoff := s.now().Add(-s.cfg.IdleTTL)

	s.mu.Lock()
	var expired []*session
	for id, sess := range s.sessions {
		if sess.lastUsedAt().Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.cancel()
	}
	if len(expired) > 0 {
		logger.With(logger.Fields{logger.FieldCount: len(expired)}).
			Info(context.Background(), "Expired idle browse sessions")
	}
	return len(expired)
}

// Run sweeps idle sessions until ctx is done.
func (s *SessionService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *SessionService) lookup(id string) (*session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.touch(s.now())
	return sess, nil
}

func (s *SessionService) view(sess *session) *SessionView {
	return &SessionView{
		ID:         sess.id,
		CreatedAt:  sess.createdAt,
		LastUsedAt: sess.lastUsedAt(),
		PageSize:   sess.loader.PageSize(),
		State:      sess.loader.State(),
	}
}
