package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"referral-backend/internal/domain"
)

// ReferralsRepository is the record store contract shared by all backends.
// Append-only creation, one conditional in-place update for acknowledgment,
// full-list read for display and export. Records are never deleted.
type ReferralsRepository interface {
	// Append durably writes a new record and returns the assigned id.
	// Duplicate submissions are allowed; no dedup.
	Append(ctx context.Context, r *domain.Referral) (string, error)

	// List returns every record in store order.
	List(ctx context.Context) ([]*domain.Referral, error)

	// Acknowledge sets arrival_time (plus acknowledged_by / notes) on the
	// record with the given id. Returns ErrNotFound for an unknown id and
	// ErrAlreadyAcknowledged when arrival_time is already set; the update
	// touches no other field.
	Acknowledge(ctx context.Context, id string, ack Acknowledgment) error
}

// Acknowledgment is the only field change the store accepts after creation.
type Acknowledgment struct {
	ArrivalTime    time.Time
	AcknowledgedBy string
	Notes          string
}

var (
	ErrNotFound            = errors.New("referral not found")
	ErrAlreadyAcknowledged = errors.New("referral already acknowledged")
)

// StoreUnavailableError wraps a transport or driver failure so handlers can
// distinguish "store unreachable" from domain errors. Not retried here; the
// caller re-submits.
type StoreUnavailableError struct {
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("record store unavailable: %v", e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// Header is the fixed column order of the backing sheet/table. Row 1 of every
// spreadsheet backend and the export surface use exactly these names.
var Header = []string{
	"id",
	"patient_name",
	"age",
	"gender",
	"phone",
	"diagnosis",
	"referring_facility",
	"referral_time",
	"arrival_time",
	"acknowledged",
	"referring_doctor",
	"acknowledged_by",
	"notes",
}

// TimeLayout is the cell format for timestamps in spreadsheet backends and
// exports ("YYYY-MM-DD HH:MM:SS", UTC).
const TimeLayout = "2006-01-02 15:04:05"
