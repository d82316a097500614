package patient

import (
	"context"
	"math"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	repo PatientRepository
}

func NewService(repo PatientRepository) *Service {
	return &Service{repo: repo}
}

// CreatePatient persists req under a freshly assigned id.
func (s *Service) CreatePatient(ctx context.Context, req *PatientRequest) (*Patient, error) {
	p := &Patient{}
	req.apply(p)
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context) ([]*Patient, error) {
	return s.repo.List(ctx)
}

// SearchPatients matches name case-insensitively against first and last
// names. A blank name lists everyone.
func (s *Service) SearchPatients(ctx context.Context, name string) ([]*Patient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.repo.List(ctx)
	}
	return s.repo.SearchByName(ctx, name)
}

// UpdatePatient overwrites the name and age of an existing patient. The id
// and owned clinical data are left untouched.
func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, req *PatientRequest) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req.apply(p)
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// PatientExists lets other domains resolve a patient reference.
func (s *Service) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	return s.repo.Exists(ctx, id)
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	st, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	st.AverageAge = math.Round(st.AverageAge*10) / 10
	if st.AgeDistribution == nil {
		st.AgeDistribution = make(map[string]int, len(AgeGroups))
	}
	for _, g := range AgeGroups {
		if _, ok := st.AgeDistribution[g]; !ok {
			st.AgeDistribution[g] = 0
		}
	}
	return st, nil
}
