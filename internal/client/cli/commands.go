package cli

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/ibalodis/fieldsignal/internal/client/models"
)

// Login authenticates against the backend and stores the session locally.
func (a *App) Login(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Enter username:", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.session.Login(ctx, username, password); err != nil {
		printlnFn("Login failed:", err.Error())
		return err
	}
	printlnFn("Logged in as", username)
	return nil
}

// Logout wipes the local session.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		printlnFn("Logout failed:", err.Error())
		return err
	}
	printlnFn("Logged out")
	return nil
}

// Report interactively builds a hazard report draft and enqueues it.
// Enqueue returns once the report is durably stored; submission to the
// backend happens in the background when connectivity allows.
func (a *App) Report(ctx context.Context) error {
	draft, err := a.readDraft()
	if err != nil {
		printlnFn("Aborted:", err.Error())
		return err
	}

	rep, err := a.queue.Enqueue(ctx, *draft)
	if err != nil {
		printlnFn("Failed to queue report:", err.Error())
		return err
	}

	printlnFn("Report queued:", rep.ID)
	return nil
}

func (a *App) readDraft() (*models.Draft, error) {
	out := os.Stdout

	description, err := GetMultiline(a.reader, "Describe the hazard:", out)
	if err != nil {
		return nil, err
	}
	if description == "" {
		return nil, fmt.Errorf("description is required")
	}

	lat, err := GetFloat(a.reader, "Latitude:", out)
	if err != nil {
		return nil, err
	}
	lon, err := GetFloat(a.reader, "Longitude:", out)
	if err != nil {
		return nil, err
	}

	hazard, err := GetChoice(a.reader, "Hazard type",
		[]string{"other", "flood", "fire", "road_block", "power_line", "landslide"}, out)
	if err != nil {
		return nil, err
	}
	severity, err := GetChoice(a.reader, "Severity",
		[]string{"moderate", "low", "high", "critical"}, out)
	if err != nil {
		return nil, err
	}
	urgency, err := GetChoice(a.reader, "Urgency",
		[]string{"routine", "elevated", "immediate"}, out)
	if err != nil {
		return nil, err
	}

	label, err := GetSimpleText(a.reader, "Location label (optional):", out)
	if err != nil {
		return nil, err
	}
	name, err := GetSimpleText(a.reader, "Your name:", out)
	if err != nil {
		return nil, err
	}
	contact, err := GetSimpleText(a.reader, "Contact (optional):", out)
	if err != nil {
		return nil, err
	}

	paths, err := GetLines(a.reader, "Attachment paths:", out)
	if err != nil {
		return nil, err
	}

	var media []models.MediaRef
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("attachment %s: %w", p, err)
		}
		media = append(media, models.MediaRef{LocalPath: p, ContentType: contentTypeForPath(p)})
	}

	return &models.Draft{
		Payload: models.ReportPayload{
			Latitude:        lat,
			Longitude:       lon,
			Description:     description,
			Severity:        models.Severity(severity),
			HazardType:      models.HazardType(hazard),
			Urgency:         models.Urgency(urgency),
			LocationLabel:   label,
			ReporterName:    name,
			ReporterContact: contact,
		},
		MediaRefs: media,
	}, nil
}

// List prints the projected queue, newest first.
func (a *App) List(ctx context.Context) error {
	s := a.queue.Snapshot()
	if len(s.Reports) == 0 {
		printlnFn("No reports queued.")
		return nil
	}

	for _, r := range s.Reports {
		printlnFn(fmt.Sprintf("%s  [%s]  %s  %s (%.4f, %.4f)",
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.SyncState, r.Payload.HazardType, r.Payload.Description,
			r.Payload.Latitude, r.Payload.Longitude))
	}
	return nil
}

// Sync triggers an explicit drain pass.
func (a *App) Sync(ctx context.Context) error {
	if err := a.queue.Drain(ctx); err != nil {
		printlnFn("Sync error:", err.Error())
		return err
	}
	s := a.queue.Snapshot()
	printlnFn(fmt.Sprintf("Sync complete: %d pending, %d synced", s.PendingCount, s.SyncedCount))
	return nil
}

// Clear removes synced reports from the local queue.
func (a *App) Clear(ctx context.Context) error {
	if err := a.queue.ClearSyncedReports(ctx); err != nil {
		printlnFn("Clear failed:", err.Error())
		return err
	}
	printlnFn("Synced reports removed.")
	return nil
}

// Status prints the presentation-facing state summary.
func (a *App) Status(ctx context.Context) error {
	printlnFn(a.statusLine())
	return nil
}

func contentTypeForPath(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
