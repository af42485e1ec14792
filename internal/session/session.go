// Package session holds one client session per browser: an identity, its backend
// capability, the query cache and the state of every page.
package session

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ericrosedev/findavote/internal/actor"
	"github.com/ericrosedev/findavote/internal/backend"
	"github.com/ericrosedev/findavote/internal/identity"
	"github.com/ericrosedev/findavote/internal/models"
	"github.com/ericrosedev/findavote/internal/query"
	"github.com/ericrosedev/findavote/internal/service"
)

// Deps are shared by every session.
type Deps struct {
	Backend  backend.Factory
	Provider identity.Provider
	Uploads  *service.UploadService
	Tokens   TokenStore
	TokenTTL time.Duration
	Log      zerolog.Logger
}

type Session struct {
	ID        string
	CreatedAt time.Time

	Queries    *query.Client
	Auth       *service.AuthService
	Shell      *service.Shell
	Feed       *service.Feed
	Posts      *service.PostWorkflow
	Moderation *service.Moderation

	tokens   TokenStore
	tokenTTL time.Duration
	lastSeen atomic.Int64
	log      zerolog.Logger
}

func newSession(id string, deps Deps, now time.Time) *Session {
	log := deps.Log.With().Str("session", id).Logger()

	accessor := actor.NewAccessor(deps.Backend, log)
	queries := query.NewClient(accessor, log)
	auth := service.NewAuthService(deps.Provider, accessor, queries, log)

	s := &Session{
		ID:         id,
		CreatedAt:  now,
		Queries:    queries,
		Auth:       auth,
		Shell:      service.NewShell(auth, queries, log),
		Feed:       service.NewFeed(queries, deps.Uploads, log),
		Posts:      service.NewPostWorkflow(queries, deps.Uploads, log),
		Moderation: service.NewModeration(queries, deps.Uploads, log),
		tokens:     deps.Tokens,
		tokenTTL:   deps.TokenTTL,
		log:        log,
	}
	s.lastSeen.Store(now.UnixNano())

	accessor.Subscribe(func(uint64) {
		s.Posts.Reset()
	})
	return s
}

func (s *Session) Identity() models.Identity {
	return s.Queries.Identity()
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Login authenticates through the shell and remembers the token for this session.
func (s *Session) Login(ctx context.Context, creds identity.Credentials) (models.Identity, error) {
	id, err := s.Shell.Login(ctx, creds)
	if err != nil {
		if s.Identity().IsAnonymous() {
			s.forgetToken(ctx)
		}
		return models.Identity{}, err
	}
	if err := s.tokens.Save(ctx, s.ID, id.Token, s.tokenTTL); err != nil {
		// the login itself worked; only a restart would lose it
		s.log.Warn().Err(err).Msg("persist session token failed")
	}
	return id, nil
}

func (s *Session) Logout(ctx context.Context) error {
	s.forgetToken(ctx)
	return s.Shell.Logout(ctx)
}

func (s *Session) forgetToken(ctx context.Context) {
	if err := s.tokens.Delete(ctx, s.ID); err != nil {
		s.log.Warn().Err(err).Msg("delete session token failed")
	}
}
