// Package gateway is the client's interface to the remote submission
// backend: blob upload and record insert. Timeout and retry policy for
// individual calls lives here; the queue treats any failure uniformly as
// "retry next pass".
package gateway

import (
	"context"

	"github.com/ibalodis/fieldsignal/internal/client/models"
)

// Gateway submits report data to the remote backend. There is no batch
// API: one call per attachment, one call per record.
type Gateway interface {
	// UploadBlob stores one binary attachment remotely and returns its
	// retrievable locator. Failures wrap common.ErrUpload.
	UploadBlob(ctx context.Context, data []byte, contentType string) (string, error)

	// InsertRecord stores the report payload together with the locators of
	// its already-uploaded attachments. Returns the canonical remote id.
	// Failures wrap common.ErrInsert.
	InsertRecord(ctx context.Context, payload models.ReportPayload, locators []string, userID string) (string, error)

	// Ping checks backend liveness.
	Ping(ctx context.Context) error
}
