package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/woreda-portal/server/internal/portal/calendar"
	"github.com/woreda-portal/server/internal/portal/codes"
	"github.com/woreda-portal/server/internal/portal/events"
	"github.com/woreda-portal/server/internal/portal/store"
	"github.com/woreda-portal/server/internal/portal/types"
)

// AppointmentScheduler accepts citizen appointment requests and records
// administrator decisions.  Every Ethiopian date is parsed and converted
// here; a Gregorian date is never taken from the caller.
type AppointmentScheduler struct {
	appointments store.AppointmentStore
	tenants      *TenantRegistry
	events       events.Publisher
	clock        Clock
}

func NewAppointmentScheduler(
	appointments store.AppointmentStore,
	tenants *TenantRegistry,
	pub events.Publisher,
	clock Clock,
) *AppointmentScheduler {
	if pub == nil {
		pub = events.Nop{}
	}
	return &AppointmentScheduler{appointments: appointments, tenants: tenants, events: pub, clock: clock}
}

// Create stores a pending appointment.  An invalid date is a
// *ValidationError matching ErrInvalidDate and nothing is stored.
func (s *AppointmentScheduler) Create(
	ctx context.Context,
	tenantID string,
	req types.CreateAppointmentRequest,
) (types.Appointment, error) {
	tenantID = strings.TrimSpace(tenantID)
	req = trimCreate(req)

	if err := validateStruct(req); err != nil {
		return types.Appointment{}, err
	}

	eth, greg, err := calendar.ConvertEthiopian(req.RequestedDateEthiopian)
	if err != nil {
		return types.Appointment{}, invalidDate("requested_date_ethiopian", err)
	}

	if err := s.tenants.Require(ctx, tenantID); err != nil {
		return types.Appointment{}, err
	}

	now := s.clock.now()
	rec := store.AppointmentRecord{
		ID:                     uuid.NewString(),
		TenantID:               tenantID,
		UniqueCode:             codes.NewAppointmentCode(now),
		RequesterName:          req.RequesterName,
		RequesterEmail:         req.RequesterEmail,
		RequesterPhone:         req.RequesterPhone,
		Reason:                 req.Reason,
		RequestedDateEthiopian: eth.String(),
		RequestedDateGregorian: greg.Format(time.DateOnly),
		RequestedTime:          req.RequestedTime,
		Status:                 store.AppointmentPending,
		CreatedAt:              now,
	}
	if err := s.appointments.CreateAppointment(ctx, rec); err != nil {
		return types.Appointment{}, storeFailure(ctx, "appointment.create", tenantID, rec.ID, err)
	}

	log.Ctx(ctx).Info().
		Str("tenant_id", tenantID).
		Str("appointment_id", rec.ID).
		Str("requested_date", rec.RequestedDateGregorian).
		Msg("appointment requested")

	publish(ctx, s.events, events.Event{
		Type:       events.AppointmentCreated,
		TenantID:   tenantID,
		EntityID:   rec.ID,
		Code:       rec.UniqueCode,
		Status:     string(rec.Status),
		OccurredAt: now,
	})

	return appointmentFromRecord(rec), nil
}

// Decide records an administrator decision.  Re-deciding an appointment
// that is no longer pending is allowed and overwrites the earlier decision.
func (s *AppointmentScheduler) Decide(
	ctx context.Context,
	tenantID, appointmentID string,
	req types.AppointmentDecisionRequest,
) (types.Appointment, error) {
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	req.AdminReason = strings.TrimSpace(req.AdminReason)
	req.RescheduledDateEthiopian = strings.TrimSpace(req.RescheduledDateEthiopian)
	req.RescheduledTime = strings.TrimSpace(req.RescheduledTime)

	if err := validateStruct(req); err != nil {
		return types.Appointment{}, err
	}

	now := s.clock.now()
	decision := store.AppointmentDecision{
		Status:      store.AppointmentStatus(req.Status),
		AdminReason: req.AdminReason,
		DecidedAt:   now,
	}

	if decision.Status == store.AppointmentRescheduled {
		if req.RescheduledDateEthiopian == "" {
			return types.Appointment{}, invalid("rescheduled_date_ethiopian", "is required when rescheduling", ErrInvalidDate)
		}
		eth, greg, err := calendar.ConvertEthiopian(req.RescheduledDateEthiopian)
		if err != nil {
			return types.Appointment{}, invalidDate("rescheduled_date_ethiopian", err)
		}
		decision.RescheduledDateEthiopian = eth.String()
		decision.RescheduledDateGregorian = greg.Format(time.DateOnly)
		decision.RescheduledTime = req.RescheduledTime
	}

	prev, err := s.appointments.GetAppointment(ctx, tenantID, appointmentID)
	if errors.Is(err, store.ErrNotFound) {
		return types.Appointment{}, ErrNotFound
	}
	if err != nil {
		return types.Appointment{}, storeFailure(ctx, "appointment.get", tenantID, appointmentID, err)
	}

	rec, err := s.appointments.DecideAppointment(ctx, tenantID, appointmentID, decision)
	if errors.Is(err, store.ErrNotFound) {
		return types.Appointment{}, ErrNotFound
	}
	if err != nil {
		return types.Appointment{}, storeFailure(ctx, "appointment.decide", tenantID, appointmentID, err)
	}

	ev := log.Ctx(ctx).Info()
	if prev.Status != store.AppointmentPending {
		ev = log.Ctx(ctx).Warn().Str("previous_status", string(prev.Status))
	}
	ev.Str("tenant_id", tenantID).
		Str("appointment_id", appointmentID).
		Str("status", string(rec.Status)).
		Msg("appointment decided")

	publish(ctx, s.events, events.Event{
		Type:       events.AppointmentDecided,
		TenantID:   tenantID,
		EntityID:   appointmentID,
		Code:       rec.UniqueCode,
		Status:     string(rec.Status),
		OccurredAt: now,
	})

	return appointmentFromRecord(rec), nil
}

// FindByCode is the citizen's lookup; the unique code is the credential.
func (s *AppointmentScheduler) FindByCode(ctx context.Context, code string) (types.Appointment, error) {
	code = codes.NormalizeAppointmentCode(code)
	if !strings.HasPrefix(code, codes.AppointmentPrefix) {
		return types.Appointment{}, invalid("code", "malformed appointment code", ErrInvalidCode)
	}

	rec, err := s.appointments.FindAppointmentByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return types.Appointment{}, ErrNotFound
	}
	if err != nil {
		return types.Appointment{}, storeFailure(ctx, "appointment.find_by_code", "", code, err)
	}
	return appointmentFromRecord(rec), nil
}

// List returns the tenant's newest appointments first.
func (s *AppointmentScheduler) List(ctx context.Context, tenantID string, limit int) ([]types.Appointment, error) {
	recs, err := s.appointments.ListAppointments(ctx, tenantID, limit)
	if err != nil {
		return nil, storeFailure(ctx, "appointment.list", tenantID, "", err)
	}
	out := make([]types.Appointment, 0, len(recs))
	for _, r := range recs {
		out = append(out, appointmentFromRecord(r))
	}
	return out, nil
}

func trimCreate(r types.CreateAppointmentRequest) types.CreateAppointmentRequest {
	r.RequesterName = strings.TrimSpace(r.RequesterName)
	r.RequesterEmail = strings.TrimSpace(r.RequesterEmail)
	r.RequesterPhone = strings.TrimSpace(r.RequesterPhone)
	r.Reason = strings.TrimSpace(r.Reason)
	r.RequestedDateEthiopian = strings.TrimSpace(r.RequestedDateEthiopian)
	r.RequestedTime = strings.TrimSpace(r.RequestedTime)
	return r
}
