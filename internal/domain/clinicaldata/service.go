package clinicaldata

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PatientLookup resolves owner references. *patient.Service satisfies it.
type PatientLookup interface {
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service struct {
	repo     ClinicalDataRepository
	patients PatientLookup
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(repo ClinicalDataRepository, patients PatientLookup, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		logger:   logger.With().Str("component", "clinicaldata").Logger(),
		now:      time.Now,
	}
}

func (s *Service) ListClinicalData(ctx context.Context, f ListFilter) ([]*ClinicalData, error) {
	switch {
	case f.PatientID != nil && f.ComponentName != "":
		return s.repo.ListByPatientAndComponent(ctx, *f.PatientID, f.ComponentName)
	case f.PatientID != nil:
		return s.repo.ListByPatient(ctx, *f.PatientID)
	default:
		return s.repo.List(ctx)
	}
}

func (s *Service) GetClinicalData(ctx context.Context, id uuid.UUID) (*ClinicalData, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateClinicalData stores req under the resolved owner. An explicit
// patientID wins over the payload's patient.id.
func (s *Service) CreateClinicalData(ctx context.Context, patientID *uuid.UUID, req *ClinicalDataRequest) (*ClinicalData, error) {
	if req == nil {
		return nil, ErrMissingPayload
	}

	owner, ok := resolvePatientID(patientID, req.Patient)
	if !ok {
		return nil, ErrPatientUnresolved
	}
	if err := s.requirePatient(ctx, owner); err != nil {
		return nil, err
	}

	cd := &ClinicalData{
		PatientID:      owner,
		ComponentName:  req.ComponentName,
		ComponentValue: req.ComponentValue,
	}
	if req.MeasuredDateTime != nil && !req.MeasuredDateTime.IsZero() {
		cd.MeasuredDateTime = *req.MeasuredDateTime
	} else {
		cd.MeasuredDateTime = s.now()
	}

	if err := s.repo.Create(ctx, cd); err != nil {
		return nil, err
	}
	return cd, nil
}

// CreateSimple stores a measurement taken now from scalar inputs.
func (s *Service) CreateSimple(ctx context.Context, patientID uuid.UUID, req *SimpleRequest) (*ClinicalData, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}

	cd := &ClinicalData{
		PatientID:        patientID,
		ComponentName:    req.ComponentName,
		ComponentValue:   req.ComponentValue,
		MeasuredDateTime: s.now(),
	}
	if err := s.repo.Create(ctx, cd); err != nil {
		return nil, err
	}
	return cd, nil
}

// UpdateClinicalData overwrites the mutable fields of id. A reassignment
// target that does not resolve is ignored and the current owner kept; the
// field changes are still applied.
func (s *Service) UpdateClinicalData(ctx context.Context, id uuid.UUID, reassignTo *uuid.UUID, req *UpdateRequest) (*ClinicalData, error) {
	if req == nil {
		return nil, ErrMissingPayload
	}

	cd, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	cd.ComponentName = req.ComponentName
	cd.ComponentValue = req.ComponentValue
	if req.MeasuredDateTime != nil {
		cd.MeasuredDateTime = *req.MeasuredDateTime
	}

	if reassignTo != nil && *reassignTo != cd.PatientID {
		exists, err := s.patients.PatientExists(ctx, *reassignTo)
		if err != nil {
			return nil, err
		}
		if exists {
			cd.PatientID = *reassignTo
		} else {
			s.logger.Warn().
				Str("clinical_data_id", id.String()).
				Str("requested_patient_id", reassignTo.String()).
				Str("kept_patient_id", cd.PatientID.String()).
				Msg("reassignment target not found, keeping current owner")
		}
	}

	if err := s.repo.Update(ctx, cd); err != nil {
		return nil, err
	}
	return cd, nil
}

func (s *Service) DeleteClinicalData(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) requirePatient(ctx context.Context, id uuid.UUID) error {
	exists, err := s.patients.PatientExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrPatientUnresolved
	}
	return nil
}

func resolvePatientID(explicit *uuid.UUID, ref *PatientRef) (uuid.UUID, bool) {
	if explicit != nil && *explicit != uuid.Nil {
		return *explicit, true
	}
	if ref != nil && ref.ID != uuid.Nil {
		return ref.ID, true
	}
	return uuid.Nil, false
}
