package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ibalodis/fieldsignal/internal/client/store"
	"github.com/ibalodis/fieldsignal/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupMetadata(t *testing.T) store.MetadataRepository {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE metadata (name TEXT PRIMARY KEY, value TEXT NOT NULL);`)
	require.NoError(t, err)

	return store.NewSQLiteMetadataRepository(db)
}

func signToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestLogin_StoresTokenAndUserName(t *testing.T) {
	signed := signToken(t, "user-42")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/login", r.URL.Path)
		var req loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Username != "janis" || req.Password != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(loginResponse{AccessToken: signed})
	}))
	defer srv.Close()

	meta := setupMetadata(t)
	s := NewService(srv.URL, srv.Client(), meta)
	ctx := context.Background()

	require.NoError(t, s.Login(ctx, "janis", []byte("pw")))

	token, err := s.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, signed, token)
	assert.Equal(t, "janis", s.UserName(ctx))

	userID, err := s.CurrentUserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestLogin_BadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewService(srv.URL, srv.Client(), setupMetadata(t))
	err := s.Login(context.Background(), "janis", []byte("wrong"))
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestCurrentUserID_NoSession(t *testing.T) {
	s := NewService("http://unused", nil, setupMetadata(t))
	_, err := s.CurrentUserID(context.Background())
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestCurrentUserID_MalformedToken(t *testing.T) {
	meta := setupMetadata(t)
	ctx := context.Background()
	require.NoError(t, meta.Set(ctx, store.MetaAccessToken, "not-a-jwt"))

	s := NewService("http://unused", nil, meta)
	_, err := s.CurrentUserID(ctx)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestLogout_ClearsSession(t *testing.T) {
	meta := setupMetadata(t)
	ctx := context.Background()
	require.NoError(t, meta.Set(ctx, store.MetaAccessToken, signToken(t, "u")))

	s := NewService("http://unused", nil, meta)
	require.NoError(t, s.Logout(ctx))

	_, err := s.AccessToken(ctx)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}
