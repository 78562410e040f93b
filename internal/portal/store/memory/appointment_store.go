package memory

import (
	"context"

	"github.com/woreda-portal/server/internal/portal/store"
)

func (s *Store) CreateAppointment(_ context.Context, rec store.AppointmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments = append(s.appointments, rec)
	return nil
}

func (s *Store) GetAppointment(_ context.Context, tenantID, id string) (store.AppointmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.appointments {
		if a.ID == id && a.TenantID == tenantID {
			return a, nil
		}
	}
	return store.AppointmentRecord{}, store.ErrNotFound
}

func (s *Store) FindAppointmentByCode(_ context.Context, code string) (store.AppointmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.appointments {
		if a.UniqueCode == code {
			return a, nil
		}
	}
	return store.AppointmentRecord{}, store.ErrNotFound
}

func (s *Store) ListAppointments(_ context.Context, tenantID string, limit int) ([]store.AppointmentRecord, error) {
	limit = store.ClampLimit(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.AppointmentRecord, 0, limit)
	for i := len(s.appointments) - 1; i >= 0 && len(out) < limit; i-- {
		if s.appointments[i].TenantID == tenantID {
			out = append(out, s.appointments[i])
		}
	}
	return out, nil
}

func (s *Store) DecideAppointment(
	_ context.Context,
	tenantID, id string,
	d store.AppointmentDecision,
) (store.AppointmentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.appointments {
		a := &s.appointments[i]
		if a.ID != id || a.TenantID != tenantID {
			continue
		}
		decided := d.DecidedAt
		a.Status = d.Status
		a.AdminReason = d.AdminReason
		a.RescheduledDateEthiopian = d.RescheduledDateEthiopian
		a.RescheduledDateGregorian = d.RescheduledDateGregorian
		a.RescheduledTime = d.RescheduledTime
		a.DecidedAt = &decided
		return *a, nil
	}
	return store.AppointmentRecord{}, store.ErrNotFound
}
