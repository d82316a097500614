package clinicaldata

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("clinical data not found")
	ErrPatientUnresolved = errors.New("patient could not be resolved")
	ErrMissingPayload    = errors.New("request body is required")
)

type ClinicalDataRepository interface {
	Create(ctx context.Context, cd *ClinicalData) error
	GetByID(ctx context.Context, id uuid.UUID) (*ClinicalData, error)
	Update(ctx context.Context, cd *ClinicalData) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*ClinicalData, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*ClinicalData, error)
	// ListByPatientAndComponent returns the newest measurement first.
	ListByPatientAndComponent(ctx context.Context, patientID uuid.UUID, componentName string) ([]*ClinicalData, error)
}
