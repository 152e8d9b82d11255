package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sgc/sgc/internal/domain/scheduling"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) CreateRecord(ctx context.Context, rec *MedicalRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.RecordedOn = time.Now()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO medical_records (id, appointment_id, content, recorded_on)
		VALUES ($1, $2, $3, $4)`,
		rec.ID, rec.AppointmentID, rec.Content, rec.RecordedOn)
	if err != nil {
		return fmt.Errorf("failed to insert medical record: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListRecordsForPatient(ctx context.Context, patientID, physicianID uuid.UUID) ([]*MedicalRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT mr.id, mr.appointment_id, mr.content, mr.recorded_on
		FROM medical_records mr
		JOIN appointments a ON a.id = mr.appointment_id
		WHERE a.patient_id = $1 AND a.provider_id = $2
		ORDER BY mr.recorded_on`,
		patientID, physicianID)
	if err != nil {
		return nil, fmt.Errorf("failed to list medical records: %w", err)
	}
	defer rows.Close()

	var out []*MedicalRecord
	for rows.Next() {
		var rec MedicalRecord
		if err := rows.Scan(&rec.ID, &rec.AppointmentID, &rec.Content, &rec.RecordedOn); err != nil {
			return nil, fmt.Errorf("failed to scan medical record: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) CreateMedicalCertificate(ctx context.Context, c *MedicalCertificate) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.IssuedOn = time.Now()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO medical_certificates (id, appointment_id, diagnosis, rest_days, issued_on, observations)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.AppointmentID, c.Diagnosis, c.RestDays, c.IssuedOn, c.Observations)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505: unique_violation
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrCertificateExists
		}
		return fmt.Errorf("failed to insert medical certificate: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetMedicalCertificate(ctx context.Context, appointmentID uuid.UUID) (*MedicalCertificate, error) {
	var c MedicalCertificate
	err := r.pool.QueryRow(ctx, `
		SELECT id, appointment_id, diagnosis, rest_days, issued_on, observations
		FROM medical_certificates
		WHERE appointment_id = $1`,
		appointmentID).Scan(&c.ID, &c.AppointmentID, &c.Diagnosis, &c.RestDays, &c.IssuedOn, &c.Observations)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCertificateNotFound
		}
		return nil, fmt.Errorf("failed to get medical certificate: %w", err)
	}
	return &c, nil
}

func (r *PostgresRepository) CreateAttendanceCertificate(ctx context.Context, c *AttendanceCertificate) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO attendance_certificates (id, appointment_id, date, time_in_minute, time_out_minute, reason)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.AppointmentID, c.Date, int(c.TimeIn), int(c.TimeOut), c.Reason)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrCertificateExists
		}
		return fmt.Errorf("failed to insert attendance certificate: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetAttendanceCertificate(ctx context.Context, appointmentID uuid.UUID) (*AttendanceCertificate, error) {
	var c AttendanceCertificate
	var in, out int
	err := r.pool.QueryRow(ctx, `
		SELECT id, appointment_id, date, time_in_minute, time_out_minute, reason
		FROM attendance_certificates
		WHERE appointment_id = $1`,
		appointmentID).Scan(&c.ID, &c.AppointmentID, &c.Date, &in, &out, &c.Reason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCertificateNotFound
		}
		return nil, fmt.Errorf("failed to get attendance certificate: %w", err)
	}
	c.TimeIn = scheduling.ClockTime(in)
	c.TimeOut = scheduling.ClockTime(out)
	return &c, nil
}
