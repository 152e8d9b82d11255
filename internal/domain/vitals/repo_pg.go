package vitals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sgc/sgc/internal/domain/scheduling"
	"github.com/sgc/sgc/internal/platform/db"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) CreateForAppointment(ctx context.Context, v *VitalSigns) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.RecordedAt = time.Now()

	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var status scheduling.Status
		err := tx.QueryRow(ctx,
			`SELECT status FROM appointments WHERE id = $1 FOR UPDATE`,
			v.AppointmentID).Scan(&status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return scheduling.ErrNotFound
			}
			return fmt.Errorf("failed to load appointment: %w", err)
		}
		if status.IsTerminal() {
			return scheduling.ErrTerminalState
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO vital_signs (id, appointment_id, blood_pressure, weight, height, temperature, oxygen_saturation, recorded_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			v.ID, v.AppointmentID, v.BloodPressure, v.Weight, v.Height, v.Temperature, v.OxygenSaturation, v.RecordedAt)
		if err != nil {
			return fmt.Errorf("failed to insert vital signs: %w", err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE appointments SET status = $1, updated_at = $2 WHERE id = $3`,
			scheduling.StatusWaiting, time.Now(), v.AppointmentID)
		if err != nil {
			return fmt.Errorf("failed to update appointment status: %w", err)
		}
		return nil
	})
}

func (r *PostgresRepository) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*VitalSigns, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, appointment_id, blood_pressure, weight, height, temperature, oxygen_saturation, recorded_at
		FROM vital_signs
		WHERE appointment_id = $1
		ORDER BY recorded_at`,
		appointmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vital signs: %w", err)
	}
	defer rows.Close()

	var out []*VitalSigns
	for rows.Next() {
		var v VitalSigns
		err := rows.Scan(&v.ID, &v.AppointmentID, &v.BloodPressure, &v.Weight,
			&v.Height, &v.Temperature, &v.OxygenSaturation, &v.RecordedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vital signs: %w", err)
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}
