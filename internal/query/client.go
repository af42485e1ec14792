package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ericrosedev/findavote/internal/actor"
	"github.com/ericrosedev/findavote/internal/apperr"
	"github.com/ericrosedev/findavote/internal/backend"
	"github.com/ericrosedev/findavote/internal/models"
)

// ErrStale is returned for a read whose identity was replaced while it was in flight.
// The response is discarded, never cached.
var ErrStale = errors.New("response belongs to a superseded identity")

// Client is the per-session query/mutation layer in front of the accessor.
type Client struct {
	accessor *actor.Accessor
	cache    *Cache
	log      zerolog.Logger
}

func NewClient(accessor *actor.Accessor, log zerolog.Logger) *Client {
	c := &Client{
		accessor: accessor,
		cache:    NewCache(),
		log:      log,
	}
	accessor.Subscribe(func(generation uint64) {
		c.cache.Reset()
		c.log.Debug().Uint64("generation", generation).Msg("identity changed, query cache reset")
	})
	return c
}

func (c *Client) Cache() *Cache {
	return c.cache
}

func (c *Client) Ready() bool {
	return c.accessor.Ready()
}

func (c *Client) Identity() models.Identity {
	return c.accessor.Identity()
}

// Clear drops every cached read. Used on logout.
func (c *Client) Clear() {
	c.cache.Reset()
}

func read[T any](ctx context.Context, c *Client, op Op, scoped bool, fn func(context.Context, backend.Backend, models.Identity) (T, error)) (T, error) {
	var zero T

	be, identity, gen, err := c.accessor.Snapshot()
	if err != nil {
		return zero, err
	}

	key := Key{Op: op}
	if scoped {
		key.Scope = identity.Principal.String()
	}

	if v, ok := c.cache.Get(key, gen); ok {
		return v.(T), nil
	}

	epoch := c.cache.Epoch()
	value, err := fn(ctx, be, identity)
	if err != nil {
		return zero, err
	}

	if c.accessor.Generation() != gen {
		c.log.Debug().Str("op", string(op)).Uint64("generation", gen).Msg("discarding stale read")
		return zero, ErrStale
	}
	c.cache.Put(key, gen, epoch, value)
	return value, nil
}

func (c *Client) mutate(ctx context.Context, name string, fn func(context.Context, backend.Backend) error, affects ...Op) error {
	be, identity, _, err := c.accessor.Snapshot()
	if err != nil {
		return err
	}

	if err := fn(ctx, be); err != nil {
		c.log.Warn().Err(err).Str("mutation", name).Str("principal", identity.Principal.String()).Msg("mutation failed")
		return err
	}

	c.cache.InvalidateOps(affects...)
	return nil
}

func (c *Client) UserProfile(ctx context.Context) (*models.UserProfile, error) {
	return read(ctx, c, OpUserProfile, true, func(ctx context.Context, be backend.Backend, _ models.Identity) (*models.UserProfile, error) {
		return be.GetUserProfile(ctx)
	})
}

func (c *Client) IsCurrentUserAdmin(ctx context.Context) (bool, error) {
	return read(ctx, c, OpIsCurrentUserAdmin, true, func(ctx context.Context, be backend.Backend, _ models.Identity) (bool, error) {
		return be.IsCurrentUserAdmin(ctx)
	})
}

func (c *Client) CurrentUserRole(ctx context.Context) (models.UserRole, error) {
	return read(ctx, c, OpCurrentUserRole, true, func(ctx context.Context, be backend.Backend, _ models.Identity) (models.UserRole, error) {
		return be.GetCurrentUserRole(ctx)
	})
}

func (c *Client) ListUsers(ctx context.Context) ([]models.UserInfo, error) {
	return read(ctx, c, OpListUsers, false, func(ctx context.Context, be backend.Backend, _ models.Identity) ([]models.UserInfo, error) {
		return be.ListUsers(ctx)
	})
}

func (c *Client) AllPosts(ctx context.Context) ([]models.Post, error) {
	return read(ctx, c, OpAllPosts, false, func(ctx context.Context, be backend.Backend, _ models.Identity) ([]models.Post, error) {
		return be.GetAllPosts(ctx)
	})
}

// MyPosts lists the caller's posts. For an anonymous caller the read is disabled and
// yields nothing without a request.
func (c *Client) MyPosts(ctx context.Context) ([]models.Post, error) {
	if c.accessor.Identity().IsAnonymous() {
		return nil, nil
	}
	return read(ctx, c, OpUserPosts, true, func(ctx context.Context, be backend.Backend, identity models.Identity) ([]models.Post, error) {
		if identity.IsAnonymous() {
			return nil, nil
		}
		return be.GetPostsByAuthor(ctx, identity.Principal)
	})
}

func (c *Client) SaveUserProfile(ctx context.Context, profile models.UserProfile) error {
	return c.mutate(ctx, "saveUserProfile", func(ctx context.Context, be backend.Backend) error {
		return be.SaveUserProfile(ctx, profile)
	}, OpUserProfile)
}

func (c *Client) SetApproval(ctx context.Context, user models.Principal, status models.ApprovalStatus) error {
	return c.mutate(ctx, "setApproval", func(ctx context.Context, be backend.Backend) error {
		return be.SetApproval(ctx, user, status)
	}, OpListUsers)
}

func (c *Client) AssignRole(ctx context.Context, user models.Principal, role models.UserRole) error {
	return c.mutate(ctx, "assignRole", func(ctx context.Context, be backend.Backend) error {
		return be.AssignRole(ctx, user, role)
	}, OpListUsers)
}

func (c *Client) CreatePost(ctx context.Context, title, description, imagePath string) error {
	return c.mutate(ctx, "createPost", func(ctx context.Context, be backend.Backend) error {
		return be.CreatePost(ctx, title, description, imagePath)
	}, OpAllPosts, OpUserPosts)
}

// UpdatePost replaces a post by deleting it and creating the new version; the backend
// has no atomic update. If the delete goes through and the create does not, the error
// wraps apperr.ErrPartialUpdate and the post caches are still invalidated, because the
// backend no longer holds the old post.
func (c *Client) UpdatePost(ctx context.Context, oldID uint64, title, description, imagePath string) error {
	be, identity, _, err := c.accessor.Snapshot()
	if err != nil {
		return err
	}

	if err := be.DeletePost(ctx, oldID); err != nil {
		c.log.Warn().Err(err).Uint64("post_id", oldID).Msg("update: delete step failed")
		return err
	}

	if err := be.CreatePost(ctx, title, description, imagePath); err != nil {
		c.cache.InvalidateOps(OpAllPosts, OpUserPosts)
		c.log.Error().Err(err).
			Uint64("post_id", oldID).
			Str("principal", identity.Principal.String()).
			Msg("update: post deleted but create failed")
		return fmt.Errorf("%w: %w", apperr.ErrPartialUpdate, err)
	}

	c.cache.InvalidateOps(OpAllPosts, OpUserPosts)
	return nil
}

func (c *Client) DeletePost(ctx context.Context, id uint64) error {
	return c.mutate(ctx, "deletePost", func(ctx context.Context, be backend.Backend) error {
		return be.DeletePost(ctx, id)
	}, OpAllPosts, OpUserPosts)
}

// RemovePost is the moderation delete. It only touches the global post list.
func (c *Client) RemovePost(ctx context.Context, id uint64) error {
	return c.mutate(ctx, "removePost", func(ctx context.Context, be backend.Backend) error {
		return be.RemovePost(ctx, id)
	}, OpAllPosts)
}
