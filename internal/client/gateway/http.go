package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ibalodis/fieldsignal/internal/client/models"
	"github.com/ibalodis/fieldsignal/internal/common"
	"github.com/ibalodis/fieldsignal/internal/netx"
	"github.com/sethvargo/go-retry"
)

// TokenSource supplies the current access token for authenticated calls.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// HTTPGateway talks to the FieldSignal backend over its HTTP API. Blob
// upload is a two-step flow: ask the backend for a presigned PUT URL, then
// PUT the bytes straight to object storage.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
	tokens  TokenSource

	maxRetries  uint64
	baseBackoff time.Duration
}

func NewHTTPGateway(baseURL string, client *http.Client, tokens TokenSource) *HTTPGateway {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPGateway{
		baseURL:     baseURL,
		client:      client,
		tokens:      tokens,
		maxRetries:  2,
		baseBackoff: 200 * time.Millisecond,
	}
}

type presignResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type insertRequest struct {
	Payload   models.ReportPayload `json:"payload"`
	MediaKeys []string             `json:"media_keys"`
	UserID    string               `json:"user_id"`
}

type insertResponse struct {
	ID string `json:"id"`
}

// UploadBlob requests a presigned PUT URL and uploads the data to it.
// The returned locator is the object storage key.
func (g *HTTPGateway) UploadBlob(ctx context.Context, data []byte, contentType string) (string, error) {
	var presign presignResponse
	err := g.withRetry(ctx, func(ctx context.Context) error {
		return g.doJSON(ctx, http.MethodPost, "/api/media/presign", nil, &presign)
	})
	if err != nil {
		return "", fmt.Errorf("%w: presign: %v", common.ErrUpload, err)
	}

	err = g.withRetry(ctx, func(ctx context.Context) error {
		if err := netx.UploadToPresignedURL(ctx, g.client, presign.URL, data, contentType); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: put object: %v", common.ErrUpload, err)
	}
	return presign.Key, nil
}

// InsertRecord posts the report payload plus uploaded media keys.
func (g *HTTPGateway) InsertRecord(ctx context.Context, payload models.ReportPayload, locators []string, userID string) (string, error) {
	req := insertRequest{Payload: payload, MediaKeys: locators, UserID: userID}

	var resp insertResponse
	err := g.withRetry(ctx, func(ctx context.Context) error {
		return g.doJSON(ctx, http.MethodPost, "/api/reports", req, &resp)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInsert, err)
	}
	return resp.ID, nil
}

// Ping checks the unauthenticated health endpoint.
func (g *HTTPGateway) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend unhealthy: %s", resp.Status)
	}
	return nil
}

// withRetry runs fn with capped exponential backoff. Only errors marked
// retryable by fn are attempted again.
func (g *HTTPGateway) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(g.maxRetries, retry.NewExponential(g.baseBackoff))
	return retry.Do(ctx, backoff, fn)
}

// doJSON performs an authenticated JSON round trip. Server-side (5xx) and
// transport failures are retryable; client errors are not.
func (g *HTTPGateway) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	if g.tokens != nil {
		token, err := g.tokens.AccessToken(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrUnauthorized, err)
		}
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return retry.RetryableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		b, _ := io.ReadAll(resp.Body)
		return retry.RetryableError(fmt.Errorf("%s: %s", resp.Status, string(b)))
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s", resp.Status, string(b))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
