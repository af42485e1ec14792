// Package identity talks to the external identity provider. It never sees password hashes:
// credentials are forwarded and the returned access token is verified locally.
package identity

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
	"github.com/ericrosedev/findavote/internal/security"
)

var (
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)
	// ErrAlreadyAuthenticated is returned when the provider still holds a login for the
	// device. Callers log out and try once more.
	ErrAlreadyAuthenticated = errors.New("already authenticated")
)

type Credentials struct {
	Email    string
	Password string
	DeviceID string
}

type Provider interface {
	Login(ctx context.Context, creds Credentials) (models.Identity, error)
	Logout(ctx context.Context, identity models.Identity) error
	// Verify turns a stored token back into an identity without a network round trip.
	Verify(token string) (models.Identity, error)
}

type HTTPProvider struct {
	baseURL string
	secret  string
	http    *http.Client
}

func NewHTTPProvider(baseURL, jwtSecret string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  jwtSecret,
		http:    &http.Client{Timeout: timeout},
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	DeviceID string `json:"deviceId,omitempty"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	DeviceID    string `json:"deviceId"`
}

type logoutRequest struct {
	UserID   string `json:"userId"`
	DeviceID string `json:"deviceId"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (p *HTTPProvider) Login(ctx context.Context, creds Credentials) (models.Identity, error) {
	var resp loginResponse
	err := p.post(ctx, "/v1/auth/login", "", loginRequest{
		Email:    strings.TrimSpace(creds.Email),
		Password: creds.Password,
		DeviceID: creds.DeviceID,
	}, &resp)
	if err != nil {
		return models.Identity{}, err
	}

	identity, err := p.Verify(resp.AccessToken)
	if err != nil {
		return models.Identity{}, err
	}
	if identity.DeviceID == "" {
		identity.DeviceID = resp.DeviceID
	}
	return identity, nil
}

func (p *HTTPProvider) Logout(ctx context.Context, identity models.Identity) error {
	if identity.IsAnonymous() {
		return nil
	}
	return p.post(ctx, "/v1/auth/logout", identity.Token, logoutRequest{
		UserID:   identity.Principal.String(),
		DeviceID: identity.DeviceID,
	}, nil)
}

func (p *HTTPProvider) Verify(token string) (models.Identity, error) {
	claims, err := security.ParseAccessToken(token, p.secret)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %w", apperr.ErrUnauthorized, err)
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return models.Identity{}, fmt.Errorf("%w: token has no principal", apperr.ErrUnauthorized)
	}
	return models.Identity{
		Principal: models.Principal(claims.UserID),
		Token:     token,
		DeviceID:  claims.DeviceID,
	}, nil
}

func (p *HTTPProvider) post(ctx context.Context, path, token string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := p.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w: %v", path, apperr.ErrTransient, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s: %w: read response: %v", path, apperr.ErrTransient, err)
	}

	if res.StatusCode >= 300 {
		var e errorResponse
		_ = json.Unmarshal(raw, &e)
		switch {
		case res.StatusCode == http.StatusConflict || e.Error == "already_authenticated":
			return ErrAlreadyAuthenticated
		case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
			return ErrInvalidCredentials
		case res.StatusCode == http.StatusBadRequest:
			return fmt.Errorf("%w: %s", apperr.ErrValidation, e.Error)
		default:
			return fmt.Errorf("%s: %w: status %d", path, apperr.ErrTransient, res.StatusCode)
		}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", path, err)
	}
	return nil
}
