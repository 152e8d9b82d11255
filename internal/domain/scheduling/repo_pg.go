package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sgc/sgc/internal/platform/db"
)

type PostgresAppointmentRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresAppointmentRepository(pool *pgxpool.Pool) *PostgresAppointmentRepository {
	return &PostgresAppointmentRepository{pool: pool}
}

const appointmentColumns = `id, patient_id, provider_id, date, start_minute, end_minute, status, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.ProviderID, &a.Date,
		&a.StartTime, &a.EndTime, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan appointment: %w", err)
	}
	return &a, nil
}

// Book serializes concurrent bookings for the same provider and date with a
// transaction-scoped advisory lock, so the guard always sees a current view
// of the slot before the insert commits.
func (r *PostgresAppointmentRepository) Book(ctx context.Context, a *Appointment, guard func(existing []*Appointment) error) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	day := a.Date.Format("2006-01-02")

	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		key := db.AdvisoryLockKey("cita", a.ProviderID.String(), day)
		if err := db.AcquireTxLock(ctx, tx, key); err != nil {
			return err
		}

		rows, err := tx.Query(ctx, `
			SELECT `+appointmentColumns+`
			FROM appointments
			WHERE provider_id = $1 AND date = $2 AND status NOT IN ('completed', 'missed')
			ORDER BY start_minute`,
			a.ProviderID, a.Date)
		if err != nil {
			return fmt.Errorf("failed to list appointments: %w", err)
		}
		existing, err := collectAppointments(rows)
		if err != nil {
			return err
		}

		if err := guard(existing); err != nil {
			return err
		}

		now := time.Now()
		a.CreatedAt = now
		a.UpdatedAt = now
		_, err = tx.Exec(ctx, `
			INSERT INTO appointments (id, patient_id, provider_id, date, start_minute, end_minute, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			a.ID, a.PatientID, a.ProviderID, a.Date, a.StartTime, a.EndTime, a.Status, a.CreatedAt, a.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert appointment: %w", err)
		}
		return nil
	})
}

func (r *PostgresAppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1`, id)
	return scanAppointment(row)
}

func (r *PostgresAppointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresAppointmentRepository) ListActiveByProvider(ctx context.Context, providerID uuid.UUID, from time.Time) ([]*Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE provider_id = $1 AND date >= $2 AND status NOT IN ('completed', 'missed')
		ORDER BY date, start_minute`,
		providerID, from)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return collectAppointments(rows)
}

func (r *PostgresAppointmentRepository) ListByDate(ctx context.Context, date time.Time) ([]*Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE date = $1
		ORDER BY start_minute`,
		date)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]*Appointment, error) {
	defer rows.Close()
	var out []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type PostgresWorkingHoursRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresWorkingHoursRepository(pool *pgxpool.Pool) *PostgresWorkingHoursRepository {
	return &PostgresWorkingHoursRepository{pool: pool}
}

func (r *PostgresWorkingHoursRepository) GetForWeekday(ctx context.Context, providerID uuid.UUID, weekday string) (*WorkingInterval, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, provider_id, weekday, start_minute, end_minute
		FROM working_hours
		WHERE provider_id = $1 AND weekday = $2`,
		providerID, weekday)

	var iv WorkingInterval
	err := row.Scan(&iv.ID, &iv.ProviderID, &iv.Weekday, &iv.StartTime, &iv.EndTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get working hours: %w", err)
	}
	return &iv, nil
}

func (r *PostgresWorkingHoursRepository) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*WorkingInterval, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, provider_id, weekday, start_minute, end_minute
		FROM working_hours
		WHERE provider_id = $1
		ORDER BY weekday`,
		providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list working hours: %w", err)
	}
	defer rows.Close()

	var out []*WorkingInterval
	for rows.Next() {
		var iv WorkingInterval
		if err := rows.Scan(&iv.ID, &iv.ProviderID, &iv.Weekday, &iv.StartTime, &iv.EndTime); err != nil {
			return nil, fmt.Errorf("failed to scan working hours: %w", err)
		}
		out = append(out, &iv)
	}
	return out, rows.Err()
}

func (r *PostgresWorkingHoursRepository) ReplaceForProvider(ctx context.Context, providerID uuid.UUID, intervals []*WorkingInterval) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM working_hours WHERE provider_id = $1`, providerID); err != nil {
			return fmt.Errorf("failed to clear working hours: %w", err)
		}
		for _, iv := range intervals {
			if iv.ID == uuid.Nil {
				iv.ID = uuid.New()
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO working_hours (id, provider_id, weekday, start_minute, end_minute)
				VALUES ($1, $2, $3, $4, $5)`,
				iv.ID, providerID, iv.Weekday, iv.StartTime, iv.EndTime)
			if err != nil {
				return fmt.Errorf("failed to insert working hours: %w", err)
			}
		}
		return nil
	})
}
