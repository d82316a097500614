package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinicals/clinicals/internal/platform/db"
)

type patientRepoPG struct{ q db.Querier }

func NewPatientRepoPG(q db.Querier) PatientRepository {
	return &patientRepoPG{q: q}
}

// The owned clinical data ids are materialized with every patient row.
const patientCols = `p.id, p.first_name, p.last_name, p.age,
	ARRAY(SELECT c.id FROM clinicaldata c WHERE c.patient_id = p.id ORDER BY c.measured_date_time)`

func (r *patientRepoPG) scanRow(row pgx.Row) (*Patient, error) {
	var p Patient
	if err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Age, &p.ClinicalDataIDs); err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.ClinicalDataIDs = nil
	_, err := r.q.Exec(ctx, `
		INSERT INTO patient (id, first_name, last_name, age)
		VALUES ($1, $2, $3, $4)`,
		p.ID, p.FirstName, p.LastName, p.Age)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return r.scanRow(r.q.QueryRow(ctx, `SELECT `+patientCols+` FROM patient p WHERE p.id = $1`, id))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE patient SET first_name = $2, last_name = $3, age = $4, updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.FirstName, p.LastName, p.Age)
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the patient; its clinical data goes with it through the
// ON DELETE CASCADE foreign key.
func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) List(ctx context.Context) ([]*Patient, error) {
	return r.query(ctx, `SELECT `+patientCols+` FROM patient p`)
}

func (r *patientRepoPG) SearchByName(ctx context.Context, name string) ([]*Patient, error) {
	return r.query(ctx, `SELECT `+patientCols+` FROM patient p
		WHERE p.first_name ILIKE $1 OR p.last_name ILIKE $1
		ORDER BY p.last_name, p.first_name`, "%"+escapeLike(name)+"%")
}

func (r *patientRepoPG) query(ctx context.Context, sql string, args ...any) ([]*Patient, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}
	defer rows.Close()

	items := []*Patient{}
	for rows.Next() {
		p, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patients: %w", err)
	}
	return items, nil
}

func (r *patientRepoPG) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM patient WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check patient: %w", err)
	}
	return exists, nil
}

func (r *patientRepoPG) Stats(ctx context.Context) (*Stats, error) {
	var (
		s                                     Stats
		avg                                   float64
		child, youngAdult, middleAged, senior int
	)
	err := r.q.QueryRow(ctx, `
		SELECT COUNT(*),
			COALESCE(AVG(age), 0)::float8,
			COUNT(*) FILTER (WHERE age <= 18),
			COUNT(*) FILTER (WHERE age BETWEEN 19 AND 35),
			COUNT(*) FILTER (WHERE age BETWEEN 36 AND 55),
			COUNT(*) FILTER (WHERE age >= 56),
			(SELECT COUNT(*) FROM clinicaldata)
		FROM patient`).Scan(&s.TotalPatients, &avg, &child, &youngAdult, &middleAged, &senior, &s.TotalClinicalData)
	if err != nil {
		return nil, fmt.Errorf("patient stats: %w", err)
	}

	s.AverageAge = avg
	s.AgeDistribution = map[string]int{
		AgeGroupChild:      child,
		AgeGroupYoungAdult: youngAdult,
		AgeGroupMiddleAged: middleAged,
		AgeGroupSenior:     senior,
	}
	return &s, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// escapeLike makes user input match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
