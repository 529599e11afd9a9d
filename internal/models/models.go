// Package models defines the data structures used across the application.
// These map to the PinMov PostgreSQL schema.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Severity classifies how urgent a report is. The wire field is called
// "priority" for historical reasons; the column and canonical name is
// severity.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
	SeverityUrgent Severity = "urgent"
)

// Valid reports whether s belongs to the closed severity enumeration.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityUrgent:
		return true
	}
	return false
}

// Status tracks the municipal triage state of a report.
type Status string

const (
	StatusSubmitted   Status = "submitted"
	StatusUnderReview Status = "under-review"
	StatusInProgress  Status = "in-progress"
	StatusResolved    Status = "resolved"
	StatusRejected    Status = "rejected"
)

// Valid reports whether st is a known triage status.
func (st Status) Valid() bool {
	switch st {
	case StatusSubmitted, StatusUnderReview, StatusInProgress, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// Report is a citizen-submitted record of a mobility/accessibility issue
// at a geographic point. UserID is set server-side from the resolved
// identity at creation and never afterwards; it is nil for legacy rows.
// Name and Email are populated only on reads, joined from the citizen row.
type Report struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Title          string     `json:"title" db:"title"`
	Description    *string    `json:"description" db:"description"`
	Lat            float64    `json:"lat" db:"lat"`
	Lng            float64    `json:"lng" db:"lng"`
	Severity       Severity   `json:"severity" db:"severity"`
	Status         Status     `json:"status" db:"status"`
	Category       string     `json:"category,omitempty" db:"category"`
	MunicipalNotes *string    `json:"municipal_notes,omitempty" db:"municipal_notes"`
	UserID         *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	Name           *string    `json:"name,omitempty" db:"name"`
	Email          *string    `json:"email,omitempty" db:"email"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// Hub is a fixed municipal service location displayed alongside reports
// on the map. Hubs are read-only from the client's perspective.
type Hub struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Services  string    `json:"services" db:"services"`
	Lat       float64   `json:"lat" db:"lat"`
	Lng       float64   `json:"lng" db:"lng"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Identity is the authenticated caller resolved from the session cookie.
type Identity struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

// CreateReportRequest is the request body for filing a new report.
// Lat and Lng are pointers so a missing coordinate is distinguishable
// from a legitimate zero coordinate.
type CreateReportRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	Priority    Severity `json:"priority"`
}

// Validate enforces the boundary contract for report creation: title,
// lat, lng and priority must all be present and priority must be a known
// severity. It runs before any persistence call.
func (r *CreateReportRequest) Validate() error {
	if r.Title == "" {
		return &ValidationError{Field: "title", Reason: "required"}
	}
	if r.Lat == nil {
		return &ValidationError{Field: "lat", Reason: "required"}
	}
	if r.Lng == nil {
		return &ValidationError{Field: "lng", Reason: "required"}
	}
	if r.Priority == "" {
		return &ValidationError{Field: "priority", Reason: "required"}
	}
	if !r.Priority.Valid() {
		return &ValidationError{Field: "priority", Reason: "must be one of low, medium, high, urgent"}
	}
	return nil
}

// UpdateReportRequest is the admin update path: present fields overwrite,
// absent fields are left alone. No transition rules beyond enum validity.
type UpdateReportRequest struct {
	Status         *Status   `json:"status,omitempty"`
	Severity       *Severity `json:"severity,omitempty"`
	Category       *string   `json:"category,omitempty"`
	MunicipalNotes *string   `json:"municipal_notes,omitempty"`
}

// Validate rejects unknown enum values. An empty update is also rejected
// since it would only bump updated_at.
func (r *UpdateReportRequest) Validate() error {
	if r.Status == nil && r.Severity == nil && r.Category == nil && r.MunicipalNotes == nil {
		return &ValidationError{Field: "body", Reason: "no fields to update"}
	}
	if r.Status != nil && !r.Status.Valid() {
		return &ValidationError{Field: "status", Reason: "unknown status"}
	}
	if r.Severity != nil && !r.Severity.Valid() {
		return &ValidationError{Field: "severity", Reason: "must be one of low, medium, high, urgent"}
	}
	return nil
}

// ActivityEntry records a municipal action on a report for accountability.
type ActivityEntry struct {
	ID         uuid.UUID `json:"id" db:"id"`
	ReportID   uuid.UUID `json:"report_id" db:"report_id"`
	Actor      string    `json:"actor" db:"actor"`
	Action     string    `json:"action" db:"action"`
	FromStatus *Status   `json:"from_status,omitempty" db:"from_status"`
	ToStatus   *Status   `json:"to_status,omitempty" db:"to_status"`
	Note       string    `json:"note,omitempty" db:"note"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// HealthStatus represents the server health check response.
type HealthStatus struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Database string `json:"database,omitempty"`
}
