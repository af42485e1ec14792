// Package actor owns the capability handle through which every backend call is made.
// The handle is bound to one identity and is rebuilt whenever the identity changes.
package actor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ericrosedev/findavote/internal/backend"
	"github.com/ericrosedev/findavote/internal/models"
)

var ErrNotReady = errors.New("backend capability not ready")

// Listener is notified after a capability was (re)created for a new generation.
type Listener func(generation uint64)

type Accessor struct {
	factory backend.Factory
	log     zerolog.Logger

	mu         sync.RWMutex
	identity   models.Identity
	actor      backend.Backend
	generation uint64
	listeners  []Listener
}

func NewAccessor(factory backend.Factory, log zerolog.Logger) *Accessor {
	return &Accessor{
		factory: factory,
		log:     log,
	}
}

// Subscribe registers fn for identity-change notifications.
func (a *Accessor) Subscribe(fn Listener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// SetIdentity drops the current capability and builds one for identity. Until it
// succeeds the accessor is not ready. A later SetIdentity supersedes an earlier one
// still in progress: the earlier result is thrown away.
func (a *Accessor) SetIdentity(ctx context.Context, identity models.Identity) error {
	a.mu.Lock()
	a.generation++
	gen := a.generation
	a.identity = identity
	a.actor = nil
	a.mu.Unlock()

	actor, err := a.factory(ctx, identity)
	if err == nil && !identity.IsAnonymous() {
		if initErr := actor.InitializeAuth(ctx); initErr != nil {
			err = fmt.Errorf("initialize auth: %w", initErr)
		}
	}
	if err != nil {
		a.log.Error().Err(err).Str("principal", identity.Principal.String()).Msg("create backend capability failed")
		return err
	}

	a.mu.Lock()
	if gen != a.generation {
		a.mu.Unlock()
		a.log.Debug().Uint64("generation", gen).Msg("discarding superseded capability")
		return nil
	}
	a.actor = actor
	listeners := append([]Listener(nil), a.listeners...)
	a.mu.Unlock()

	a.log.Debug().
		Str("principal", identity.Principal.String()).
		Uint64("generation", gen).
		Msg("backend capability ready")

	for _, fn := range listeners {
		fn(gen)
	}
	return nil
}

// Actor returns the capability and the generation it belongs to.
func (a *Accessor) Actor() (backend.Backend, uint64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.actor == nil {
		return nil, a.generation, ErrNotReady
	}
	return a.actor, a.generation, nil
}

// Snapshot returns the capability together with the identity and generation it is bound
// to, read atomically.
func (a *Accessor) Snapshot() (backend.Backend, models.Identity, uint64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.actor == nil {
		return nil, a.identity, a.generation, ErrNotReady
	}
	return a.actor, a.identity, a.generation, nil
}

func (a *Accessor) Ready() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.actor != nil
}

func (a *Accessor) Identity() models.Identity {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.identity
}

func (a *Accessor) Generation() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.generation
}
