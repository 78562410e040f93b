package store

import (
	"context"
	"time"
)

type AppointmentStatus string

const (
	AppointmentPending     AppointmentStatus = "pending"
	AppointmentAccepted    AppointmentStatus = "accepted"
	AppointmentRejected    AppointmentStatus = "rejected"
	AppointmentRescheduled AppointmentStatus = "rescheduled"
)

// IsDecision reports whether s is a status an administrator may set.
func (s AppointmentStatus) IsDecision() bool {
	switch s {
	case AppointmentAccepted, AppointmentRejected, AppointmentRescheduled:
		return true
	}
	return false
}

// AppointmentRecord stores Ethiopian dates as normalized Y-M-D strings and
// Gregorian dates as YYYY-MM-DD, both derived by the calendar package.
type AppointmentRecord struct {
	ID                       string
	TenantID                 string
	UniqueCode               string
	RequesterName            string
	RequesterEmail           string
	RequesterPhone           string
	Reason                   string
	RequestedDateEthiopian   string
	RequestedDateGregorian   string
	RequestedTime            string
	Status                   AppointmentStatus
	AdminReason              string
	RescheduledDateEthiopian string
	RescheduledDateGregorian string
	RescheduledTime          string
	CreatedAt                time.Time
	DecidedAt                *time.Time
}

// AppointmentDecision is the set of fields an administrator decision writes.
// Rescheduled* are cleared unless Status is rescheduled.
type AppointmentDecision struct {
	Status                   AppointmentStatus
	AdminReason              string
	RescheduledDateEthiopian string
	RescheduledDateGregorian string
	RescheduledTime          string
	DecidedAt                time.Time
}

type AppointmentStore interface {
	CreateAppointment(ctx context.Context, rec AppointmentRecord) error
	GetAppointment(ctx context.Context, tenantID, id string) (AppointmentRecord, error)

	// FindAppointmentByCode is a public lookup; the unique code is the
	// citizen's credential, as with FindLatestRequestByCode.
	FindAppointmentByCode(ctx context.Context, code string) (AppointmentRecord, error)

	// ListAppointments returns newest first.
	ListAppointments(ctx context.Context, tenantID string, limit int) ([]AppointmentRecord, error)

	// DecideAppointment overwrites the decision fields and returns the
	// updated record.  ErrNotFound when no such appointment exists in the
	// tenant.
	DecideAppointment(ctx context.Context, tenantID, id string, d AppointmentDecision) (AppointmentRecord, error)
}
