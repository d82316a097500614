package clinicaldata

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinicals/clinicals/internal/platform/db"
)

const foreignKeyViolation = "23503"

type clinicalDataRepoPG struct{ q db.Querier }

func NewClinicalDataRepoPG(q db.Querier) ClinicalDataRepository {
	return &clinicalDataRepoPG{q: q}
}

const clinicalDataCols = `id, patient_id, component_name, component_value, measured_date_time`

func (r *clinicalDataRepoPG) scanRow(row pgx.Row) (*ClinicalData, error) {
	var cd ClinicalData
	if err := row.Scan(&cd.ID, &cd.PatientID, &cd.ComponentName, &cd.ComponentValue, &cd.MeasuredDateTime); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cd, nil
}

func (r *clinicalDataRepoPG) Create(ctx context.Context, cd *ClinicalData) error {
	cd.ID = uuid.New()
	_, err := r.q.Exec(ctx, `
		INSERT INTO clinicaldata (id, patient_id, component_name, component_value, measured_date_time)
		VALUES ($1, $2, $3, $4, $5)`,
		cd.ID, cd.PatientID, cd.ComponentName, cd.ComponentValue, cd.MeasuredDateTime)
	if err != nil {
		return mapWriteError("insert clinical data", err)
	}
	return nil
}

func (r *clinicalDataRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ClinicalData, error) {
	return r.scanRow(r.q.QueryRow(ctx, `SELECT `+clinicalDataCols+` FROM clinicaldata WHERE id = $1`, id))
}

func (r *clinicalDataRepoPG) Update(ctx context.Context, cd *ClinicalData) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE clinicaldata SET patient_id = $2, component_name = $3, component_value = $4,
			measured_date_time = $5, updated_at = NOW()
		WHERE id = $1`,
		cd.ID, cd.PatientID, cd.ComponentName, cd.ComponentValue, cd.MeasuredDateTime)
	if err != nil {
		return mapWriteError("update clinical data", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *clinicalDataRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM clinicaldata WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete clinical data: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *clinicalDataRepoPG) List(ctx context.Context) ([]*ClinicalData, error) {
	return r.query(ctx, `SELECT `+clinicalDataCols+` FROM clinicaldata`)
}

func (r *clinicalDataRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*ClinicalData, error) {
	return r.query(ctx, `SELECT `+clinicalDataCols+` FROM clinicaldata
		WHERE patient_id = $1 ORDER BY measured_date_time`, patientID)
}

func (r *clinicalDataRepoPG) ListByPatientAndComponent(ctx context.Context, patientID uuid.UUID, componentName string) ([]*ClinicalData, error) {
	return r.query(ctx, `SELECT `+clinicalDataCols+` FROM clinicaldata
		WHERE patient_id = $1 AND component_name = $2
		ORDER BY measured_date_time DESC`, patientID, componentName)
}

func (r *clinicalDataRepoPG) query(ctx context.Context, sql string, args ...any) ([]*ClinicalData, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query clinical data: %w", err)
	}
	defer rows.Close()

	items := []*ClinicalData{}
	for rows.Next() {
		cd, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, cd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clinical data: %w", err)
	}
	return items, nil
}

// mapWriteError turns a foreign key violation into ErrPatientUnresolved. The
// owner can disappear between the existence check and the write.
func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return ErrPatientUnresolved
	}
	return fmt.Errorf("%s: %w", op, err)
}
