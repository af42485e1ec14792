// Package backend is the remote-procedure client for the FindaVote backend service.
// A Backend value is a capability: it is bound to exactly one identity for its whole life.
package backend

import (
	"context"

	"github.com/ericrosedev/findavote/internal/models"
)

type Backend interface {
	// InitializeAuth registers the bound identity with the backend. Only called on
	// authenticated capabilities.
	InitializeAuth(ctx context.Context) error

	GetUserProfile(ctx context.Context) (*models.UserProfile, error)
	SaveUserProfile(ctx context.Context, profile models.UserProfile) error
	IsCurrentUserAdmin(ctx context.Context) (bool, error)
	GetCurrentUserRole(ctx context.Context) (models.UserRole, error)

	ListUsers(ctx context.Context) ([]models.UserInfo, error)
	SetApproval(ctx context.Context, user models.Principal, status models.ApprovalStatus) error
	AssignRole(ctx context.Context, user models.Principal, role models.UserRole) error

	GetAllPosts(ctx context.Context) ([]models.Post, error)
	GetPostsByAuthor(ctx context.Context, author models.Principal) ([]models.Post, error)
	CreatePost(ctx context.Context, title, description, imagePath string) error
	DeletePost(ctx context.Context, id uint64) error
	RemovePost(ctx context.Context, id uint64) error
}

// Factory builds a capability for the given identity. An anonymous identity yields an
// anonymous capability.
type Factory func(ctx context.Context, identity models.Identity) (Backend, error)
