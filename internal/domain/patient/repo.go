package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("patient not found")
)

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*Patient, error)
	SearchByName(ctx context.Context, name string) ([]*Patient, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Stats(ctx context.Context) (*Stats, error)
}
