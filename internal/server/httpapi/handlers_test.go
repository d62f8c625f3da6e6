package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibalodis/fieldsignal/internal/common"
	"github.com/ibalodis/fieldsignal/internal/logging"
	"github.com/ibalodis/fieldsignal/internal/server/auth"
	"github.com/ibalodis/fieldsignal/internal/server/models"
)

var testSecret = []byte("test-secret")

type fakeAuth struct {
	loginToken string
	loginErr   error
	registered []string
}

func (f *fakeAuth) Register(ctx context.Context, username, password string) (*models.User, error) {
	f.registered = append(f.registered, username)
	return &models.User{ID: "user-1", Username: username}, nil
}

func (f *fakeAuth) Login(ctx context.Context, username, password string) (string, error) {
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return f.loginToken, nil
}

type fakeIntake struct {
	accepted []*models.Report
	items    []models.Report
	err      error
}

func (f *fakeIntake) Accept(ctx context.Context, report *models.Report) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.accepted = append(f.accepted, report)
	return "remote-1", nil
}

func (f *fakeIntake) List(ctx context.Context, limit int) ([]models.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.items) {
		return f.items[:limit], nil
	}
	return f.items, nil
}

type fakePresigner struct {
	key string
	url string
}

func (f *fakePresigner) GetPresignedPutURL(ctx context.Context) (string, string, error) {
	return f.key, f.url, nil
}

func (f *fakePresigner) GetPresignedGetURL(ctx context.Context, key string) (string, error) {
	return f.url + "/" + key, nil
}

func newTestRouter(t *testing.T, a *fakeAuth, i *fakeIntake, p *fakePresigner) http.Handler {
	t.Helper()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewRouter(NewHandler(a, i, p, testSecret, logger))
}

func bearerToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, testSecret, time.Minute)
	require.NoError(t, err)
	return common.BearerPrefix + token
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, &fakeAuth{}, &fakeIntake{}, &fakePresigner{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogin_Success(t *testing.T) {
	router := newTestRouter(t, &fakeAuth{loginToken: "token-abc"}, &fakeIntake{}, &fakePresigner{})

	body := bytes.NewBufferString(`{"username":"alice","password":"pw"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/login", body))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "token-abc", resp.AccessToken)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	router := newTestRouter(t, &fakeAuth{loginErr: common.ErrUnauthorized}, &fakeIntake{}, &fakePresigner{})

	body := bytes.NewBufferString(`{"username":"alice","password":"wrong"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/login", body))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegister(t *testing.T) {
	fa := &fakeAuth{}
	router := newTestRouter(t, fa, &fakeIntake{}, &fakePresigner{})

	body := bytes.NewBufferString(`{"username":"bob","password":"pw"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/register", body))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"bob"}, fa.registered)
}

func TestPresign_RequiresAuth(t *testing.T) {
	router := newTestRouter(t, &fakeAuth{}, &fakeIntake{}, &fakePresigner{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/media/presign", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPresign_Success(t *testing.T) {
	router := newTestRouter(t, &fakeAuth{}, &fakeIntake{}, &fakePresigner{key: "media/1/k", url: "http://s3/put"})

	req := httptest.NewRequest(http.MethodPost, "/api/media/presign", nil)
	req.Header.Set(common.AuthorizationHeaderName, bearerToken(t, "user-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp presignUploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "media/1/k", resp.Key)
	assert.Equal(t, "http://s3/put", resp.URL)
}

func TestSubmitReport_UsesTokenSubject(t *testing.T) {
	fi := &fakeIntake{}
	router := newTestRouter(t, &fakeAuth{}, fi, &fakePresigner{})

	body := bytes.NewBufferString(`{
		"payload": {"latitude": 56.95, "longitude": 24.1, "description": "downed power line", "severity": "high", "hazard_type": "power_line", "urgency": "immediate"},
		"media_keys": ["media/1/a", "media/1/b"],
		"user_id": "someone-else"
	}`)
	req := httptest.NewRequest(http.MethodPost, "/api/reports", body)
	req.Header.Set(common.AuthorizationHeaderName, bearerToken(t, "user-7"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp submitReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "remote-1", resp.ID)

	require.Len(t, fi.accepted, 1)
	got := fi.accepted[0]
	assert.Equal(t, "user-7", got.UserID)
	assert.Equal(t, "downed power line", got.Description)
	assert.Equal(t, []string{"media/1/a", "media/1/b"}, got.MediaKeys)
}

func TestSubmitReport_MissingDescription(t *testing.T) {
	router := newTestRouter(t, &fakeAuth{}, &fakeIntake{}, &fakePresigner{})

	body := bytes.NewBufferString(`{"payload": {"latitude": 1, "longitude": 2}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/reports", body)
	req.Header.Set(common.AuthorizationHeaderName, bearerToken(t, "user-7"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestListReports(t *testing.T) {
	fi := &fakeIntake{items: []models.Report{
		{ID: "r2", UserID: "user-7", Description: "flooded underpass", CreatedAt: time.Now()},
		{ID: "r1", UserID: "user-7", Description: "fallen tree", CreatedAt: time.Now().Add(-time.Hour)},
	}}
	router := newTestRouter(t, &fakeAuth{}, fi, &fakePresigner{})

	req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	req.Header.Set(common.AuthorizationHeaderName, bearerToken(t, "user-7"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []reportItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "r2", resp[0].ID)
	assert.Equal(t, "flooded underpass", resp[0].Payload.Description)
}

func TestRequireAuth_BadToken(t *testing.T) {
	router := newTestRouter(t, &fakeAuth{}, &fakeIntake{}, &fakePresigner{})

	req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+"not.a.token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
