package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ericrosedev/findavote/internal/apperr"
	"github.com/ericrosedev/findavote/internal/ids"
)

// Hub maps session ids to live sessions.
type Hub struct {
	deps    Deps
	idleTTL time.Duration
	now     func() time.Time
	log     zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewHub(deps Deps, idleTTL time.Duration) *Hub {
	if deps.Tokens == nil {
		deps.Tokens = NewMemoryTokenStore()
	}
	return &Hub{
		deps:     deps,
		idleTTL:  idleTTL,
		now:      time.Now,
		log:      deps.Log,
		sessions: make(map[string]*Session),
	}
}

// Open returns the live session for id. An id that is not live but has a stored token is
// restored under the same id; any other id is replaced by a fresh anonymous session.
func (h *Hub) Open(ctx context.Context, id string) (*Session, error) {
	now := h.now()

	if id != "" {
		h.mu.Lock()
		s, ok := h.sessions[id]
		h.mu.Unlock()
		if ok {
			s.touch(now)
			return s, nil
		}

		token, err := h.deps.Tokens.Load(ctx, id)
		if err != nil {
			h.log.Warn().Err(err).Str("session", id).Msg("load session token failed")
		}
		if token != "" {
			return h.restore(ctx, id, token, now)
		}
	}

	s := newSession(ids.New(), h.deps, now)
	if err := s.Auth.Anonymous(ctx); err != nil {
		return nil, err
	}
	return h.store(s), nil
}

func (h *Hub) restore(ctx context.Context, id, token string, now time.Time) (*Session, error) {
	s := newSession(id, h.deps, now)
	if _, err := s.Auth.Restore(ctx, token); err != nil {
		if !errors.Is(err, apperr.ErrUnauthorized) {
			return nil, err
		}
		h.log.Info().Err(err).Str("session", id).Msg("stored token rejected, continuing anonymous")
		s.forgetToken(ctx)
		if !s.Queries.Ready() {
			return nil, err
		}
	}
	return h.store(s), nil
}

// store registers s unless another request registered the same id first.
func (h *Hub) store(s *Session) *Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.sessions[s.ID]; ok {
		return existing
	}
	h.sessions[s.ID] = s
	return s
}

// Lookup returns a live session without creating or restoring one.
func (h *Hub) Lookup(id string) (*Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[id]
	return s, ok
}

// Sweep drops sessions idle for longer than the idle TTL. Their stored tokens stay, so a
// returning browser is restored on its next request.
func (h *Hub) Sweep() int {
	cutoff := h.now().Add(-h.idleTTL)

	h.mu.Lock()
	defer h.mu.Unlock()
	removed := 0
	for id, s := range h.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(h.sessions, id)
			removed++
		}
	}
	return removed
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}
