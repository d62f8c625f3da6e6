// Package models defines the client-side hazard report types queued for
// synchronization.
package models

import "time"

// SyncState tracks a queued report's synchronization lifecycle.
// Pending is the only initial state; Synced is terminal and never reverted.
// A failed sync attempt leaves the record Pending for retry — there is no
// failed state.
type SyncState string

const (
	SyncStatePending SyncState = "pending"
	SyncStateSynced  SyncState = "synced"
)

// Severity grades the observed impact of a hazard.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// HazardType classifies what was observed.
type HazardType string

const (
	HazardTypeFlood     HazardType = "flood"
	HazardTypeFire      HazardType = "fire"
	HazardTypeRoadBlock HazardType = "road_block"
	HazardTypePowerLine HazardType = "power_line"
	HazardTypeLandslide HazardType = "landslide"
	HazardTypeOther     HazardType = "other"
)

// Urgency expresses how quickly a responder should act.
type Urgency string

const (
	UrgencyRoutine   Urgency = "routine"
	UrgencyElevated  Urgency = "elevated"
	UrgencyImmediate Urgency = "immediate"
)

// ReportPayload holds the hazard-report fields. The payload is set once at
// creation and never mutated afterwards; coordinates and labels arrive from
// the device's geolocation layer and are carried as opaque values.
type ReportPayload struct {
	Latitude        float64    `json:"latitude"`
	Longitude       float64    `json:"longitude"`
	Description     string     `json:"description"`
	Severity        Severity   `json:"severity"`
	HazardType      HazardType `json:"hazard_type"`
	Urgency         Urgency    `json:"urgency"`
	LocationLabel   string     `json:"location_label"`
	ReporterName    string     `json:"reporter_name"`
	ReporterContact string     `json:"reporter_contact"`
}

// MediaRef references a binary attachment captured at creation time.
type MediaRef struct {
	LocalPath   string `json:"local_path"`
	ContentType string `json:"content_type"`
}

// Draft is the validated input to Enqueue. The caller is responsible for
// business validation (required fields, non-null coordinates); the queue
// does not re-check it.
type Draft struct {
	Payload   ReportPayload
	MediaRefs []MediaRef
}

// QueuedReport is the unit of work held by the durable local store.
type QueuedReport struct {
	// ID is a locally generated identifier, stable for the record's
	// lifetime and never reused. It is the local store key.
	ID string

	// Payload is immutable after creation.
	Payload ReportPayload

	// MediaRefs is an immutable list of local attachment references.
	MediaRefs []MediaRef

	// CreatedAt is used only for display ordering, never for business logic.
	CreatedAt time.Time

	// SyncState flips Pending→Synced exactly once, after the remote gateway
	// durably accepted all media uploads and the record insert.
	SyncState SyncState
}

// Pending reports whether the record still awaits synchronization.
func (r *QueuedReport) Pending() bool {
	return r.SyncState == SyncStatePending
}
