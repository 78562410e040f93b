package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	dbpkg "github.com/woreda-portal/server/internal/db"
	"github.com/woreda-portal/server/internal/portal/store"
)

type AppointmentStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAppointmentStore(db *sql.DB, writer *dbpkg.Worker) *AppointmentStore {
	return &AppointmentStore{db: db, writer: writer}
}

const appointmentColumns = `
  appointment_id, tenant_id, unique_code,
  requester_name, requester_email, requester_phone, reason,
  requested_date_ethiopian, requested_date_gregorian, requested_time,
  status, admin_reason,
  rescheduled_date_ethiopian, rescheduled_date_gregorian, rescheduled_time,
  created_at_ms, decided_at_ms`

func scanAppointment(row rowScanner) (store.AppointmentRecord, error) {
	var (
		a         store.AppointmentRecord
		status    string
		createdMs int64
		decidedMs sql.NullInt64
	)
	if err := row.Scan(
		&a.ID, &a.TenantID, &a.UniqueCode,
		&a.RequesterName, &a.RequesterEmail, &a.RequesterPhone, &a.Reason,
		&a.RequestedDateEthiopian, &a.RequestedDateGregorian, &a.RequestedTime,
		&status, &a.AdminReason,
		&a.RescheduledDateEthiopian, &a.RescheduledDateGregorian, &a.RescheduledTime,
		&createdMs, &decidedMs,
	); err != nil {
		return store.AppointmentRecord{}, err
	}
	a.Status = store.AppointmentStatus(status)
	a.CreatedAt = fromMs(createdMs)
	a.DecidedAt = timePtr(decidedMs)
	return a, nil
}

func (s *AppointmentStore) CreateAppointment(ctx context.Context, a store.AppointmentRecord) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.Status == "" {
		a.Status = store.AppointmentPending
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO appointments(`+appointmentColumns+`
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
			a.ID, a.TenantID, a.UniqueCode,
			a.RequesterName, a.RequesterEmail, a.RequesterPhone, a.Reason,
			a.RequestedDateEthiopian, a.RequestedDateGregorian, a.RequestedTime,
			string(a.Status), a.AdminReason,
			a.RescheduledDateEthiopian, a.RescheduledDateGregorian, a.RescheduledTime,
			toMs(a.CreatedAt), nullMs(a.DecidedAt),
		); err != nil {
			return fmt.Errorf("CreateAppointment insert: %w", err)
		}
		return nil
	})
}

func (s *AppointmentStore) GetAppointment(ctx context.Context, tenantID, id string) (store.AppointmentRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT`+appointmentColumns+`
FROM appointments
WHERE appointment_id = ? AND tenant_id = ?;
`, id, tenantID)
	return oneAppointment(row, "GetAppointment")
}

func (s *AppointmentStore) FindAppointmentByCode(ctx context.Context, code string) (store.AppointmentRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT`+appointmentColumns+`
FROM appointments
WHERE unique_code = ?;
`, code)
	return oneAppointment(row, "FindAppointmentByCode")
}

func oneAppointment(row *sql.Row, op string) (store.AppointmentRecord, error) {
	a, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.AppointmentRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.AppointmentRecord{}, fmt.Errorf("%s query: %w", op, err)
	}
	return a, nil
}

func (s *AppointmentStore) ListAppointments(
	ctx context.Context,
	tenantID string,
	limit int,
) ([]store.AppointmentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT`+appointmentColumns+`
FROM appointments
WHERE tenant_id = ?
ORDER BY created_at_ms DESC, rowid DESC
LIMIT ?;
`, tenantID, store.ClampLimit(limit))
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

func (s *AppointmentStore) DecideAppointment(
	ctx context.Context,
	tenantID, id string,
	d store.AppointmentDecision,
) (store.AppointmentRecord, error) {
	var out store.AppointmentRecord

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE appointments
SET status = ?,
    admin_reason = ?,
    rescheduled_date_ethiopian = ?,
    rescheduled_date_gregorian = ?,
    rescheduled_time = ?,
    decided_at_ms = ?
WHERE appointment_id = ? AND tenant_id = ?;
`,
			string(d.Status), d.AdminReason,
			d.RescheduledDateEthiopian, d.RescheduledDateGregorian, d.RescheduledTime,
			toMs(d.DecidedAt), id, tenantID,
		)
		if err != nil {
			return fmt.Errorf("DecideAppointment update: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("DecideAppointment rows affected: %w", err)
		}
		if n == 0 {
			return store.ErrNotFound
		}

		row := tx.QueryRowContext(ctx, `SELECT`+appointmentColumns+`
FROM appointments
WHERE appointment_id = ? AND tenant_id = ?;
`, id, tenantID)
		out, err = scanAppointment(row)
		if err != nil {
			return fmt.Errorf("DecideAppointment reload: %w", err)
		}
		return nil
	})
	if err != nil {
		return store.AppointmentRecord{}, err
	}
	return out, nil
}
