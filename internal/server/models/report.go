// Package models defines server-side persistence models.
package models

import "time"

// Report is a hazard report accepted from a client. ID is the canonical
// identifier assigned at submission time and returned to the client.
type Report struct {
	ID              string
	UserID          string
	Latitude        float64
	Longitude       float64
	Description     string
	Severity        string
	HazardType      string
	Urgency         string
	LocationLabel   string
	ReporterName    string
	ReporterContact string
	MediaKeys       []string
	CreatedAt       time.Time
	ReceivedAt      time.Time
}

// User is an account allowed to submit reports.
type User struct {
	ID           string
	Username     string
	PasswordHash []byte
	CreatedAt    time.Time
}
