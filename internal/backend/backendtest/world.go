// Package backendtest provides an in-memory backend for tests. A World holds the shared
// state; each Capability is bound to one principal the same way a real remote client is.
package backendtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ericrosedev/findavote/internal/apperr"
	"github.com/ericrosedev/findavote/internal/backend"
	"github.com/ericrosedev/findavote/internal/models"
)

type World struct {
	mu       sync.Mutex
	nextID   uint64
	now      func() time.Time
	profiles map[models.Principal]models.UserProfile
	users    map[models.Principal]*models.UserInfo
	order    []models.Principal
	posts    []models.Post
	failures map[string][]error
	calls    map[string]int
	hooks    map[string]func()
}

func NewWorld() *World {
	return &World{
		nextID:   1,
		now:      time.Now,
		profiles: make(map[models.Principal]models.UserProfile),
		users:    make(map[models.Principal]*models.UserInfo),
		failures: make(map[string][]error),
		calls:    make(map[string]int),
		hooks:    make(map[string]func()),
	}
}

// AddUser registers a user directly, bypassing InitializeAuth.
func (w *World) AddUser(p models.Principal, role models.UserRole, approval models.ApprovalStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.addUserLocked(p, role, approval)
}

func (w *World) addUserLocked(p models.Principal, role models.UserRole, approval models.ApprovalStatus) {
	if _, ok := w.users[p]; !ok {
		w.order = append(w.order, p)
	}
	w.users[p] = &models.UserInfo{Principal: p, Role: role, Approval: approval}
}

// SeedPost stores a post without going through the single-post check.
func (w *World) SeedPost(p models.Post) models.Post {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p.ID == 0 {
		p.ID = w.nextID
	}
	if p.ID >= w.nextID {
		w.nextID = p.ID + 1
	}
	if p.Timestamp == 0 {
		p.Timestamp = w.now().UnixNano()
	}
	w.posts = append(w.posts, p)
	return p
}

// FailNext makes the next call of method return err instead of running.
func (w *World) FailNext(method string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failures[method] = append(w.failures[method], err)
}

// OnCall runs fn every time method is invoked, before the operation executes and
// outside the world lock, so fn may block.
func (w *World) OnCall(method string, fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.hooks[method] = fn
}

func (w *World) Calls(method string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls[method]
}

func (w *World) TotalCalls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	total := 0
	for _, n := range w.calls {
		total += n
	}
	return total
}

func (w *World) Posts() []models.Post {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]models.Post(nil), w.posts...)
}

func (w *World) User(p models.Principal) (models.UserInfo, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	u, ok := w.users[p]
	if !ok {
		return models.UserInfo{}, false
	}
	return *u, true
}

// Capability returns a backend handle acting as p. The empty principal is anonymous.
func (w *World) Capability(p models.Principal) *Capability {
	return &Capability{world: w, caller: p}
}

func (w *World) Factory() backend.Factory {
	return func(_ context.Context, identity models.Identity) (backend.Backend, error) {
		return w.Capability(identity.Principal), nil
	}
}

func (w *World) begin(method string) error {
	w.mu.Lock()
	w.calls[method]++
	hook := w.hooks[method]
	var err error
	if queued := w.failures[method]; len(queued) > 0 {
		err = queued[0]
		w.failures[method] = queued[1:]
	}
	w.mu.Unlock()

	if hook != nil {
		hook()
	}
	return err
}

type Capability struct {
	world  *World
	caller models.Principal
}

func (c *Capability) unauthorized(what string) error {
	return fmt.Errorf("%w: %s", apperr.ErrUnauthorized, what)
}

// roleLocked reports the caller's role; unknown callers are guests.
func (c *Capability) roleLocked() models.UserRole {
	if u, ok := c.world.users[c.caller]; ok {
		return u.Role
	}
	return models.UserRoleGuest
}

func (c *Capability) InitializeAuth(_ context.Context) error {
	if err := c.world.begin("initializeAuth"); err != nil {
		return err
	}
	if c.caller == "" {
		return c.unauthorized("anonymous caller")
	}

	w := c.world
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.users[c.caller]; ok {
		return nil
	}
	for _, u := range w.users {
		if u.Role == models.UserRoleAdmin {
			w.addUserLocked(c.caller, models.UserRoleUser, models.ApprovalPending)
			return nil
		}
	}
	// the first principal to initialize becomes the admin
	w.addUserLocked(c.caller, models.UserRoleAdmin, models.ApprovalApproved)
	return nil
}

func (c *Capability) GetUserProfile(_ context.Context) (*models.UserProfile, error) {
	if err := c.world.begin("getUserProfile"); err != nil {
		return nil, err
	}
	w := c.world
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.profiles[c.caller]
	if !ok || c.caller == "" {
		return nil, nil
	}
	return &p, nil
}

func (c *Capability) SaveUserProfile(_ context.Context, profile models.UserProfile) error {
	if err := c.world.begin("saveUserProfile"); err != nil {
		return err
	}
	if c.caller == "" {
		return c.unauthorized("only users can save profiles")
	}
	w := c.world
	w.mu.Lock()
	defer w.mu.Unlock()
	w.profiles[c.caller] = profile
	return nil
}

func (c *Capability) IsCurrentUserAdmin(_ context.Context) (bool, error) {
	if err := c.world.begin("isCurrentUserAdmin"); err != nil {
		return false, err
	}
	c.world.mu.Lock()
	defer c.world.mu.Unlock()
	return c.roleLocked() == models.UserRoleAdmin, nil
}

func (c *Capability) GetCurrentUserRole(_ context.Context) (models.UserRole, error) {
	if err := c.world.begin("getCurrentUserRole"); err != nil {
		return "", err
	}
	c.world.mu.Lock()
	defer c.world.mu.Unlock()
	return c.roleLocked(), nil
}

func (c *Capability) ListUsers(_ context.Context) ([]models.UserInfo, error) {
	if err := c.world.begin("listUsers"); err != nil {
		return nil, err
	}
	w := c.world
	w.mu.Lock()
	defer w.mu.Unlock()
	if c.roleLocked() != models.UserRoleAdmin {
		return nil, c.unauthorized("only admins can list users")
	}
	out := make([]models.UserInfo, 0, len(w.order))
	for _, p := range w.order {
		out = append(out, *w.users[p])
	}
	return out, nil
}

func (c *Capability) SetApproval(_ context.Context, user models.Principal, status models.ApprovalStatus) error {
	if err := c.world.begin("setApproval"); err != nil {
		return err
	}
	w := c.world
	w.mu.Lock()
	defer w.mu.Unlock()
	if c.roleLocked() != models.UserRoleAdmin {
		return c.unauthorized("only admins can set approval")
	}
	u, ok := w.users[user]
	if !ok {
		return fmt.Errorf("%w: unknown user %s", apperr.ErrValidation, user)
	}
	u.Approval = status
	return nil
}

func (c *Capability) AssignRole(_ context.Context, user models.Principal, role models.UserRole) error {
	if err := c.world.begin("assignRole"); err != nil {
		return err
	}
	w := c.world
	w.mu.Lock()
	defer w.mu.Unlock()
	if c.roleLocked() != models.UserRoleAdmin {
		return c.unauthorized("only admins can assign roles")
	}
	u, ok := w.users[user]
	if !ok {
		return fmt.Errorf("%w: unknown user %s", apperr.ErrValidation, user)
	}
	u.Role = role
	return nil
}

func (c *Capability) GetAllPosts(_ context.Context) ([]models.Post, error) {
	if err := c.world.begin("getAllPosts"); err != nil {
		return nil, err
	}
	return c.world.Posts(), nil
}

func (c *Capability) GetPostsByAuthor(_ context.Context, author models.Principal) ([]models.Post, error) {
	if err := c.world.begin("getPostsByAuthor"); err != nil {
		return nil, err
	}
	w := c.world
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []models.Post
	for _, p := range w.posts {
		if p.Author == author {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *Capability) CreatePost(_ context.Context, title, description, imagePath string) error {
	if err := c.world.begin("createPost"); err != nil {
		return err
	}
	w := c.world
	w.mu.Lock()
	defer w.mu.Unlock()
	if c.caller == "" || c.roleLocked() == models.UserRoleGuest {
		return c.unauthorized("only users can create posts")
	}
	for _, p := range w.posts {
		if p.Author == c.caller {
			return fmt.Errorf("%w: delete it before creating a new one", apperr.ErrAlreadyHasPost)
		}
	}
	w.posts = append(w.posts, models.Post{
		ID:          w.nextID,
		Title:       title,
		Description: description,
		ImagePath:   imagePath,
		Author:      c.caller,
		Timestamp:   w.now().UnixNano(),
	})
	w.nextID++
	return nil
}

func (c *Capability) DeletePost(_ context.Context, id uint64) error {
	if err := c.world.begin("deletePost"); err != nil {
		return err
	}
	w := c.world
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, p := range w.posts {
		if p.ID != id {
			continue
		}
		if p.Author != c.caller || c.caller == "" {
			return c.unauthorized("can only delete your own post")
		}
		w.posts = append(w.posts[:i], w.posts[i+1:]...)
		return nil
	}
	return fmt.Errorf("%w: post %d not found", apperr.ErrValidation, id)
}

func (c *Capability) RemovePost(_ context.Context, id uint64) error {
	if err := c.world.begin("removePost"); err != nil {
		return err
	}
	w := c.world
	w.mu.Lock()
	defer w.mu.Unlock()
	if c.roleLocked() != models.UserRoleAdmin {
		return c.unauthorized("only admins can remove posts")
	}
	for i, p := range w.posts {
		if p.ID == id {
			w.posts = append(w.posts[:i], w.posts[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: post %d not found", apperr.ErrValidation, id)
}

var _ backend.Backend = (*Capability)(nil)
