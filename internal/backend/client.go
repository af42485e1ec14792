package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ericrosedev/findavote/internal/apperr"
	"github.com/ericrosedev/findavote/internal/models"
)

// Client calls the backend over HTTP. Every operation is POST {baseURL}/rpc/{method}
// with a JSON argument object and a JSON result.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewFactory returns a Factory producing HTTP capabilities bound to each identity's token.
func NewFactory(baseURL string, timeout time.Duration) Factory {
	return func(_ context.Context, identity models.Identity) (Backend, error) {
		if baseURL == "" {
			return nil, errors.New("backend base url is empty")
		}
		return NewClient(baseURL, identity.Token, timeout), nil
	}
}

func (c *Client) InitializeAuth(ctx context.Context) error {
	return c.call(ctx, "initializeAuth", nil, nil)
}

func (c *Client) GetUserProfile(ctx context.Context) (*models.UserProfile, error) {
	var resp struct {
		Profile *models.UserProfile `json:"profile"`
	}
	if err := c.call(ctx, "getUserProfile", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Profile, nil
}

func (c *Client) SaveUserProfile(ctx context.Context, profile models.UserProfile) error {
	return c.call(ctx, "saveUserProfile", map[string]any{"profile": profile}, nil)
}

func (c *Client) IsCurrentUserAdmin(ctx context.Context) (bool, error) {
	var resp struct {
		Admin bool `json:"admin"`
	}
	if err := c.call(ctx, "isCurrentUserAdmin", nil, &resp); err != nil {
		return false, err
	}
	return resp.Admin, nil
}

func (c *Client) GetCurrentUserRole(ctx context.Context) (models.UserRole, error) {
	var resp struct {
		Role string `json:"role"`
	}
	if err := c.call(ctx, "getCurrentUserRole", nil, &resp); err != nil {
		return "", err
	}
	return models.ParseUserRole(resp.Role)
}

func (c *Client) ListUsers(ctx context.Context) ([]models.UserInfo, error) {
	var resp struct {
		Users []models.UserInfo `json:"users"`
	}
	if err := c.call(ctx, "listUsers", nil, &resp); err != nil {
		return nil, err
	}
	for _, u := range resp.Users {
		if _, err := models.ParseUserRole(string(u.Role)); err != nil {
			return nil, fmt.Errorf("listUsers: %w", err)
		}
		if _, err := models.ParseApprovalStatus(string(u.Approval)); err != nil {
			return nil, fmt.Errorf("listUsers: %w", err)
		}
	}
	return resp.Users, nil
}

func (c *Client) SetApproval(ctx context.Context, user models.Principal, status models.ApprovalStatus) error {
	return c.call(ctx, "setApproval", map[string]any{"user": user, "approval": status}, nil)
}

func (c *Client) AssignRole(ctx context.Context, user models.Principal, role models.UserRole) error {
	return c.call(ctx, "assignRole", map[string]any{"user": user, "role": role}, nil)
}

func (c *Client) GetAllPosts(ctx context.Context) ([]models.Post, error) {
	var resp struct {
		Posts []models.Post `json:"posts"`
	}
	if err := c.call(ctx, "getAllPosts", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Posts, nil
}

func (c *Client) GetPostsByAuthor(ctx context.Context, author models.Principal) ([]models.Post, error) {
	var resp struct {
		Posts []models.Post `json:"posts"`
	}
	if err := c.call(ctx, "getPostsByAuthor", map[string]any{"author": author}, &resp); err != nil {
		return nil, err
	}
	return resp.Posts, nil
}

func (c *Client) CreatePost(ctx context.Context, title, description, imagePath string) error {
	return c.call(ctx, "createPost", map[string]any{
		"title":       title,
		"description": description,
		"imagePath":   imagePath,
	}, nil)
}

func (c *Client) DeletePost(ctx context.Context, id uint64) error {
	return c.call(ctx, "deletePost", map[string]any{"id": id}, nil)
}

func (c *Client) RemovePost(ctx context.Context, id uint64) error {
	return c.call(ctx, "removePost", map[string]any{"id": id}, nil)
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// maxResponseBytes bounds how much of a reply is buffered before decoding.
const maxResponseBytes = 1 << 20

var ErrResponseTooLarge = errors.New("response too large")

func (c *Client) call(ctx context.Context, method string, args any, result any) error {
	if args == nil {
		args = struct{}{}
	}
	payload, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rpc/"+method, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", method, ctx.Err())
		}
		return fmt.Errorf("%s: %w: %v", method, apperr.ErrTransient, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return fmt.Errorf("%s: %w: read response: %v", method, apperr.ErrTransient, err)
	}
	if len(respBody) > maxResponseBytes {
		return fmt.Errorf("%s: %w: over %d bytes", method, ErrResponseTooLarge, maxResponseBytes)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s: %w", method, decodeError(resp.StatusCode, respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%s: unmarshal response: %w", method, err)
		}
	}
	return nil
}

// decodeError maps a non-2xx reply onto the apperr taxonomy, keeping the backend's message.
func decodeError(status int, body []byte) error {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)
	msg := eb.Error.Message
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}

	switch {
	case eb.Error.Code == "already_has_post" || strings.Contains(strings.ToLower(msg), "already have a post"):
		return fmt.Errorf("%w: %s", apperr.ErrAlreadyHasPost, msg)
	case status == http.StatusUnauthorized || status == http.StatusForbidden ||
		strings.Contains(msg, "Unauthorized"):
		return fmt.Errorf("%w: %s", apperr.ErrUnauthorized, msg)
	case status == http.StatusConflict:
		return fmt.Errorf("%w: %s", apperr.ErrAlreadyHasPost, msg)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", apperr.ErrValidation, msg)
	case status >= 500 || status == http.StatusTooManyRequests || status == http.StatusRequestTimeout:
		return fmt.Errorf("%w: status %d: %s", apperr.ErrTransient, status, msg)
	default:
		return fmt.Errorf("backend error (status %d): %s", status, msg)
	}
}

var _ Backend = (*Client)(nil)
