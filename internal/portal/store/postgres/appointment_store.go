package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/woreda-portal/server/internal/portal/store"
)

const appointmentColumns = `
  appointment_id, tenant_id, unique_code,
  requester_name, requester_email, requester_phone, reason,
  requested_date_ethiopian, requested_date_gregorian, requested_time,
  status, admin_reason,
  rescheduled_date_ethiopian, rescheduled_date_gregorian, rescheduled_time,
  created_at, decided_at`

func scanAppointment(row pgx.Row) (store.AppointmentRecord, error) {
	var (
		a      store.AppointmentRecord
		status string
	)
	if err := row.Scan(
		&a.ID, &a.TenantID, &a.UniqueCode,
		&a.RequesterName, &a.RequesterEmail, &a.RequesterPhone, &a.Reason,
		&a.RequestedDateEthiopian, &a.RequestedDateGregorian, &a.RequestedTime,
		&status, &a.AdminReason,
		&a.RescheduledDateEthiopian, &a.RescheduledDateGregorian, &a.RescheduledTime,
		&a.CreatedAt, &a.DecidedAt,
	); err != nil {
		return store.AppointmentRecord{}, err
	}
	a.Status = store.AppointmentStatus(status)
	a.CreatedAt = a.CreatedAt.UTC()
	if a.DecidedAt != nil {
		t := a.DecidedAt.UTC()
		a.DecidedAt = &t
	}
	return a, nil
}

func (s *Store) CreateAppointment(ctx context.Context, a store.AppointmentRecord) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.Status == "" {
		a.Status = store.AppointmentPending
	}
	if _, err := s.pool.Exec(ctx, `
INSERT INTO appointments(`+appointmentColumns+`
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		a.ID, a.TenantID, a.UniqueCode,
		a.RequesterName, a.RequesterEmail, a.RequesterPhone, a.Reason,
		a.RequestedDateEthiopian, a.RequestedDateGregorian, a.RequestedTime,
		string(a.Status), a.AdminReason,
		a.RescheduledDateEthiopian, a.RescheduledDateGregorian, a.RescheduledTime,
		a.CreatedAt.UTC(), a.DecidedAt,
	); err != nil {
		return fmt.Errorf("CreateAppointment insert: %w", err)
	}
	return nil
}

func (s *Store) GetAppointment(ctx context.Context, tenantID, id string) (store.AppointmentRecord, error) {
	return s.oneAppointment(ctx, "GetAppointment", `SELECT`+appointmentColumns+`
FROM appointments
WHERE appointment_id = $1 AND tenant_id = $2`, id, tenantID)
}

func (s *Store) FindAppointmentByCode(ctx context.Context, code string) (store.AppointmentRecord, error) {
	return s.oneAppointment(ctx, "FindAppointmentByCode", `SELECT`+appointmentColumns+`
FROM appointments
WHERE unique_code = $1`, code)
}

func (s *Store) oneAppointment(ctx context.Context, op, sql string, args ...any) (store.AppointmentRecord, error) {
	a, err := scanAppointment(s.pool.QueryRow(ctx, sql, args...))
	if notFound(err) {
		return store.AppointmentRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.AppointmentRecord{}, fmt.Errorf("%s query: %w", op, err)
	}
	return a, nil
}

func (s *Store) ListAppointments(ctx context.Context, tenantID string, limit int) ([]store.AppointmentRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT`+appointmentColumns+`
FROM appointments
WHERE tenant_id = $1
ORDER BY created_at DESC, seq DESC
LIMIT $2`, tenantID, store.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("ListAppointments query: %w", err)
	}
	defer rows.Close()

	var out []store.AppointmentRecord
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("ListAppointments scan: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListAppointments rows: %w", err)
	}
	return out, nil
}

func (s *Store) DecideAppointment(
	ctx context.Context,
	tenantID, id string,
	d store.AppointmentDecision,
) (store.AppointmentRecord, error) {
	a, err := scanAppointment(s.pool.QueryRow(ctx, `
UPDATE appointments
SET status = $1,
    admin_reason = $2,
    rescheduled_date_ethiopian = $3,
    rescheduled_date_gregorian = $4,
    rescheduled_time = $5,
    decided_at = $6
WHERE appointment_id = $7 AND tenant_id = $8
RETURNING`+appointmentColumns,
		string(d.Status), d.AdminReason,
		d.RescheduledDateEthiopian, d.RescheduledDateGregorian, d.RescheduledTime,
		d.DecidedAt.UTC(), id, tenantID,
	))
	if notFound(err) {
		return store.AppointmentRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.AppointmentRecord{}, fmt.Errorf("DecideAppointment update: %w", err)
	}
	return a, nil
}
