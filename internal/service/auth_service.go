package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ericrosedev/findavote/internal/actor"
	"github.com/ericrosedev/findavote/internal/identity"
	"github.com/ericrosedev/findavote/internal/models"
	"github.com/ericrosedev/findavote/internal/query"
)

// AuthService binds one client session to an identity from the identity provider.
type AuthService struct {
	provider identity.Provider
	accessor *actor.Accessor
	queries  *query.Client
	log      zerolog.Logger
}

func NewAuthService(provider identity.Provider, accessor *actor.Accessor, queries *query.Client, log zerolog.Logger) *AuthService {
	return &AuthService{
		provider: provider,
		accessor: accessor,
		queries:  queries,
		log:      log,
	}
}

// Login authenticates creds and rebuilds the backend capability for the new identity.
// An existing login is cleared first. If the provider still reports the device as
// logged in, the session is cleared once more and the login retried a single time.
func (s *AuthService) Login(ctx context.Context, creds identity.Credentials) (models.Identity, error) {
	cleared := false
	if !s.accessor.Identity().IsAnonymous() {
		s.clear(ctx)
		cleared = true
	}

	id, err := s.provider.Login(ctx, creds)
	if errors.Is(err, identity.ErrAlreadyAuthenticated) {
		s.log.Debug().Msg("provider reports an active login, clearing and retrying")
		s.clear(ctx)
		cleared = true
		creds.DeviceID = ""
		id, err = s.provider.Login(ctx, creds)
	}
	if err != nil {
		if cleared {
			if anonErr := s.Anonymous(ctx); anonErr != nil {
				s.log.Warn().Err(anonErr).Msg("rebind anonymous after failed login")
			}
		}
		return models.Identity{}, err
	}

	if err := s.accessor.SetIdentity(ctx, id); err != nil {
		return models.Identity{}, fmt.Errorf("bind identity: %w", err)
	}

	s.log.Info().Str("principal", id.Principal.String()).Msg("logged in")
	return id, nil
}

// Restore rebinds a session from a previously issued token, e.g. after a restart.
// An invalid or expired token leaves the session anonymous.
func (s *AuthService) Restore(ctx context.Context, token string) (models.Identity, error) {
	id, err := s.provider.Verify(token)
	if err != nil {
		if anonErr := s.Anonymous(ctx); anonErr != nil {
			return models.Identity{}, anonErr
		}
		return models.Identity{}, err
	}
	if err := s.accessor.SetIdentity(ctx, id); err != nil {
		return models.Identity{}, fmt.Errorf("bind identity: %w", err)
	}
	return id, nil
}

// Anonymous binds an anonymous capability so public reads work.
func (s *AuthService) Anonymous(ctx context.Context) error {
	return s.accessor.SetIdentity(ctx, models.Identity{})
}

// Logout clears the identity and every cached read, then binds an anonymous capability.
func (s *AuthService) Logout(ctx context.Context) error {
	principal := s.accessor.Identity().Principal
	s.clear(ctx)
	s.log.Info().Str("principal", principal.String()).Msg("logged out")
	return s.Anonymous(ctx)
}

func (s *AuthService) clear(ctx context.Context) {
	current := s.accessor.Identity()
	if err := s.provider.Logout(ctx, current); err != nil {
		s.log.Warn().Err(err).Str("principal", current.Principal.String()).Msg("provider logout failed")
	}
	s.queries.Clear()
}
