// Package auth manages the client's session with the backend: login,
// logout, and the current-user identity read by the sync engine at drain
// time. The access token is kept in the local metadata store so identity
// survives restarts and is available offline.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ibalodis/fieldsignal/internal/client/store"
	"github.com/ibalodis/fieldsignal/internal/common"
)

// Session exposes the identity surface consumed by the queue and gateway.
type Session interface {
	// CurrentUserID returns the user identifier from the stored token.
	// It is read fresh on every call, never cached by consumers.
	CurrentUserID(ctx context.Context) (string, error)

	// AccessToken returns the raw bearer token for API calls.
	AccessToken(ctx context.Context) (string, error)
}

// Service implements Session against the backend's login endpoint and the
// local metadata repository.
type Service struct {
	baseURL  string
	client   *http.Client
	metadata store.MetadataRepository
}

func NewService(baseURL string, client *http.Client, metadata store.MetadataRepository) *Service {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Service{baseURL: baseURL, client: client, metadata: metadata}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// Login authenticates against the backend and persists the issued token
// together with the user name for offline display.
func (s *Service) Login(ctx context.Context, username string, password []byte) error {
	body, err := json.Marshal(loginRequest{Username: username, Password: string(password)})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return common.ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed: %s", resp.Status)
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}

	return s.metadata.SetSession(ctx, lr.AccessToken, username)
}

// Logout wipes the locally cached session.
func (s *Service) Logout(ctx context.Context) error {
	return s.metadata.Clear(ctx)
}

// AccessToken returns the stored bearer token, or common.ErrUnauthorized
// when no session exists.
func (s *Service) AccessToken(ctx context.Context) (string, error) {
	token, err := s.metadata.Get(ctx, store.MetaAccessToken)
	if errors.Is(err, common.ErrNotFound) {
		return "", common.ErrUnauthorized
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// CurrentUserID extracts the subject claim from the stored token. The
// token is not verified here; the server verifies it on every call.
func (s *Service) CurrentUserID(ctx context.Context) (string, error) {
	raw, err := s.AccessToken(ctx)
	if err != nil {
		return "", err
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", common.ErrInvalidToken
	}
	return claims.Subject, nil
}

// UserName returns the locally stored user name for prompts; empty when
// not logged in.
func (s *Service) UserName(ctx context.Context) string {
	name, err := s.metadata.Get(ctx, store.MetaUserName)
	if err != nil {
		return ""
	}
	return name
}
