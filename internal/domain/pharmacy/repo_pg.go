package pharmacy

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

type PostgresMedicationRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresMedicationRepository(pool *pgxpool.Pool) *PostgresMedicationRepository {
	return &PostgresMedicationRepository{pool: pool}
}

const medicationColumns = `id, name, description, concentration, stock, unit_price, active, created_at, updated_at`

func scanMedication(row pgx.Row) (*Medication, error) {
	var m Medication
	err := row.Scan(&m.ID, &m.Name, &m.Description, &m.Concentration,
		&m.Stock, &m.UnitPrice, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMedicationNotFound
		}
		return nil, fmt.Errorf("failed to scan medication: %w", err)
	}
	return &m, nil
}

func (r *PostgresMedicationRepository) Create(ctx context.Context, m *Medication) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO medications (id, name, description, concentration, stock, unit_price, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.Name, m.Description, m.Concentration, m.Stock, m.UnitPrice, m.Active, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert medication: %w", err)
	}
	return nil
}

func (r *PostgresMedicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*Medication, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+medicationColumns+` FROM medications WHERE id = $1`, id)
	return scanMedication(row)
}

func (r *PostgresMedicationRepository) List(ctx context.Context, limit, offset int) ([]*Medication, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM medications`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count medications: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		ORDER BY name
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list medications: %w", err)
	}
	defer rows.Close()

	var out []*Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

func (r *PostgresMedicationRepository) Update(ctx context.Context, m *Medication) error {
	m.UpdatedAt = time.Now()
	tag, err := r.pool.Exec(ctx, `
		UPDATE medications
		SET name = $1, description = $2, concentration = $3, stock = $4, unit_price = $5, active = $6, updated_at = $7
		WHERE id = $8`,
		m.Name, m.Description, m.Concentration, m.Stock, m.UnitPrice, m.Active, m.UpdatedAt, m.ID)
	if err != nil {
		return fmt.Errorf("failed to update medication: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMedicationNotFound
	}
	return nil
}

func (r *PostgresMedicationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM medications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete medication: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMedicationNotFound
	}
	return nil
}

type PostgresPrescriptionRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresPrescriptionRepository(pool *pgxpool.Pool) *PostgresPrescriptionRepository {
	return &PostgresPrescriptionRepository{pool: pool}
}

func (r *PostgresPrescriptionRepository) Create(ctx context.Context, p *Prescription) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.IssuedOn = time.Now()
	p.Status = PrescriptionPending

	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO prescriptions (id, appointment_id, issued_on, status, notes)
			VALUES ($1, $2, $3, $4, $5)`,
			p.ID, p.AppointmentID, p.IssuedOn, p.Status, p.Notes)
		if err != nil {
			return fmt.Errorf("failed to insert prescription: %w", err)
		}

		for _, item := range p.Items {
			var exists bool
			err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM medications WHERE id = $1)`,
				item.MedicationID).Scan(&exists)
			if err != nil {
				return fmt.Errorf("failed to check medication: %w", err)
			}
			if !exists {
				return &UnknownMedicationError{MedicationID: item.MedicationID}
			}
			item.PrescriptionID = p.ID
			_, err = tx.Exec(ctx, `
				INSERT INTO prescription_items (prescription_id, medication_id, dose, frequency, duration, instructions, delivered)
				VALUES ($1, $2, $3, $4, $5, $6, false)`,
				p.ID, item.MedicationID, item.Dose, item.Frequency, item.Duration, item.Instructions)
			if err != nil {
				return fmt.Errorf("failed to insert prescription item: %w", err)
			}
		}
		return nil
	})
}

const prescriptionColumns = `id, appointment_id, issued_on, delivered_on, status, notes`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.AppointmentID, &p.IssuedOn, &p.DeliveredOn, &p.Status, &p.Notes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPrescriptionNotFound
		}
		return nil, fmt.Errorf("failed to scan prescription: %w", err)
	}
	return &p, nil
}

func (r *PostgresPrescriptionRepository) loadItems(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, prescriptionID uuid.UUID) ([]*PrescriptionItem, error) {
	rows, err := q.Query(ctx, `
		SELECT pi.prescription_id, pi.medication_id, pi.dose, pi.frequency, pi.duration, pi.instructions, pi.delivered,
		       m.name, m.stock
		FROM prescription_items pi
		JOIN medications m ON m.id = pi.medication_id
		WHERE pi.prescription_id = $1
		ORDER BY m.name`,
		prescriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prescription items: %w", err)
	}
	defer rows.Close()

	var items []*PrescriptionItem
	for rows.Next() {
		var it PrescriptionItem
		err := rows.Scan(&it.PrescriptionID, &it.MedicationID, &it.Dose, &it.Frequency,
			&it.Duration, &it.Instructions, &it.Delivered, &it.MedicationName, &it.StockLeft)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prescription item: %w", err)
		}
		it.Available = it.StockLeft > 0
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *PostgresPrescriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := scanPrescription(r.pool.QueryRow(ctx,
		`SELECT `+prescriptionColumns+` FROM prescriptions WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	p.Items, err = r.loadItems(ctx, r.pool, p.ID)
	return p, err
}

func (r *PostgresPrescriptionRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error) {
	p, err := scanPrescription(r.pool.QueryRow(ctx,
		`SELECT `+prescriptionColumns+` FROM prescriptions WHERE appointment_id = $1`, appointmentID))
	if err != nil {
		return nil, err
	}
	p.Items, err = r.loadItems(ctx, r.pool, p.ID)
	return p, err
}

func (r *PostgresPrescriptionRepository) ListPending(ctx context.Context) ([]*Prescription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+prescriptionColumns+`
		FROM prescriptions
		WHERE status IN ('pending', 'partial')
		ORDER BY issued_on`)
	if err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}
	defer rows.Close()

	var out []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, p := range out {
		if p.Items, err = r.loadItems(ctx, r.pool, p.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *PostgresPrescriptionRepository) Deliver(ctx context.Context, prescriptionID uuid.UUID, medicationIDs []uuid.UUID, estimate func(item *PrescriptionItem) int) (*Prescription, error) {
	var result *Prescription

	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		p, err := scanPrescription(tx.QueryRow(ctx,
			`SELECT `+prescriptionColumns+` FROM prescriptions WHERE id = $1 FOR UPDATE`,
			prescriptionID))
		if err != nil {
			return err
		}
		if p.Status == PrescriptionDelivered {
			return ErrAlreadyDelivered
		}

		items, err := r.loadItems(ctx, tx, p.ID)
		if err != nil {
			return err
		}

		requested := make(map[uuid.UUID]bool, len(medicationIDs))
		for _, id := range medicationIDs {
			requested[id] = true
		}

		remaining := 0
		for _, it := range items {
			if it.Delivered {
				continue
			}
			if len(medicationIDs) > 0 && !requested[it.MedicationID] {
				remaining++
				continue
			}

			var name string
			var stock int
			err := tx.QueryRow(ctx,
				`SELECT name, stock FROM medications WHERE id = $1 FOR UPDATE`,
				it.MedicationID).Scan(&name, &stock)
			if err != nil {
				return fmt.Errorf("failed to lock medication: %w", err)
			}
			if stock <= 0 {
				return &OutOfStockError{MedicationID: it.MedicationID, Name: name}
			}

			units := estimate(it)
			newStock := stock - units
			if newStock < 0 {
				newStock = 0
			}
			_, err = tx.Exec(ctx,
				`UPDATE medications SET stock = $1, updated_at = $2 WHERE id = $3`,
				newStock, time.Now(), it.MedicationID)
			if err != nil {
				return fmt.Errorf("failed to decrement stock: %w", err)
			}

			_, err = tx.Exec(ctx, `
				UPDATE prescription_items SET delivered = true
				WHERE prescription_id = $1 AND medication_id = $2`,
				p.ID, it.MedicationID)
			if err != nil {
				return fmt.Errorf("failed to mark item delivered: %w", err)
			}
			it.Delivered = true
		}

		if remaining == 0 {
			now := time.Now()
			p.Status = PrescriptionDelivered
			p.DeliveredOn = &now
			_, err = tx.Exec(ctx,
				`UPDATE prescriptions SET status = $1, delivered_on = $2 WHERE id = $3`,
				p.Status, now, p.ID)
		} else {
			p.Status = PrescriptionPartial
			_, err = tx.Exec(ctx,
				`UPDATE prescriptions SET status = $1 WHERE id = $2`,
				p.Status, p.ID)
		}
		if err != nil {
			return fmt.Errorf("failed to update prescription: %w", err)
		}

		p.Items = items
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
