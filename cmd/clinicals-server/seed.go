package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicals/clinicals/internal/domain/clinicaldata"
	"github.com/clinicals/clinicals/internal/domain/patient"
	"github.com/clinicals/clinicals/internal/platform/validation"
)

type samplePatient struct {
	FirstName string
	LastName  string
	Age       int
}

var samplePatients = []samplePatient{
	{"John", "Smith", 35},
	{"Sarah", "Johnson", 28},
	{"Michael", "Brown", 42},
	{"Emily", "Davis", 67},
	{"David", "Wilson", 23},
	{"Lisa", "Anderson", 51},
	{"Robert", "Taylor", 39},
	{"Jennifer", "Martinez", 45},
}

type sampleReading struct {
	Component string
	Values    []string
}

// Each patient gets one reading per component, offset by a day, so that
// per-component listings have something to order.
var sampleReadings = []sampleReading{
	{"hr", []string{"72", "68", "75", "80", "64", "70", "77", "66"}},
	{"bp", []string{"120/80", "118/76", "130/85", "142/90", "115/75", "125/82", "135/88", "122/79"}},
	{"hw", []string{"180/82", "165/60", "178/90", "160/70", "185/78", "170/68", "175/85", "168/64"}},
}

type patientSeeder interface {
	ListPatients(ctx context.Context) ([]*patient.Patient, error)
	CreatePatient(ctx context.Context, req *patient.PatientRequest) (*patient.Patient, error)
}

type clinicalDataSeeder interface {
	CreateClinicalData(ctx context.Context, patientID *uuid.UUID, req *clinicaldata.ClinicalDataRequest) (*clinicaldata.ClinicalData, error)
}

type seeder struct {
	patients patientSeeder
	clinical clinicalDataSeeder
	validate *validation.Validator
	now      func() time.Time
}

type seedResult struct {
	Patients     int
	ClinicalData int
	Skipped      bool
}

func newSeeder(svcs *services) *seeder {
	return &seeder{
		patients: svcs.patients,
		clinical: svcs.clinicalData,
		validate: validation.New(),
		now:      time.Now,
	}
}

// Run inserts the sample data set. Unless force is set it does nothing when
// any patient already exists.
func (s *seeder) Run(ctx context.Context, force bool) (seedResult, error) {
	var res seedResult

	if !force {
		existing, err := s.patients.ListPatients(ctx)
		if err != nil {
			return res, fmt.Errorf("list patients: %w", err)
		}
		if len(existing) > 0 {
			res.Skipped = true
			return res, nil
		}
	}

	now := s.now().UTC().Truncate(time.Minute)
	for i, sp := range samplePatients {
		age := sp.Age
		preq := &patient.PatientRequest{FirstName: sp.FirstName, LastName: sp.LastName, Age: &age}
		if err := s.validate.Validate(preq); err != nil {
			return res, fmt.Errorf("sample patient %s %s: %w", sp.FirstName, sp.LastName, err)
		}
		p, err := s.patients.CreatePatient(ctx, preq)
		if err != nil {
			return res, fmt.Errorf("create patient %s %s: %w", sp.FirstName, sp.LastName, err)
		}
		res.Patients++

		for j, r := range sampleReadings {
			measured := now.Add(-time.Duration(j*24+i) * time.Hour)
			creq := &clinicaldata.ClinicalDataRequest{
				ComponentName:    r.Component,
				ComponentValue:   r.Values[i%len(r.Values)],
				MeasuredDateTime: &measured,
			}
			if err := s.validate.Validate(creq); err != nil {
				return res, fmt.Errorf("sample reading %s: %w", r.Component, err)
			}
			if _, err := s.clinical.CreateClinicalData(ctx, &p.ID, creq); err != nil {
				return res, fmt.Errorf("create %s for %s: %w", r.Component, p.ID, err)
			}
			res.ClinicalData++
		}
	}

	return res, nil
}
