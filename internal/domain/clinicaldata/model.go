package clinicaldata

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ClinicalData is one timestamped observation owned by exactly one patient.
// The owner is not serialized.
type ClinicalData struct {
	ID               uuid.UUID `json:"id"`
	PatientID        uuid.UUID `json:"-"`
	ComponentName    string    `json:"componentName"`
	ComponentValue   string    `json:"componentValue"`
	MeasuredDateTime time.Time `json:"measuredDateTime"`
}

func (cd *ClinicalData) String() string {
	return fmt.Sprintf("ClinicalData{id=%s, componentName=%s, componentValue=%s, measuredDateTime=%s, patientId=%s}",
		cd.ID, cd.ComponentName, cd.ComponentValue, cd.MeasuredDateTime.Format(time.RFC3339), cd.PatientID)
}

// PatientRef is the owner reference a payload may embed as
// {"patient": {"id": "..."}}.
type PatientRef struct {
	ID uuid.UUID `json:"id"`
}

// ClinicalDataRequest is the create body. MeasuredDateTime defaults to the
// time of the call when omitted.
type ClinicalDataRequest struct {
	ComponentName    string      `json:"componentName" validate:"required,max=100"`
	ComponentValue   string      `json:"componentValue" validate:"required,max=255"`
	MeasuredDateTime *time.Time  `json:"measuredDateTime"`
	Patient          *PatientRef `json:"patient"`
}

// UpdateRequest replaces every mutable field, so all of them are required.
type UpdateRequest struct {
	ComponentName    string     `json:"componentName" validate:"required,max=100"`
	ComponentValue   string     `json:"componentValue" validate:"required,max=255"`
	MeasuredDateTime *time.Time `json:"measuredDateTime" validate:"required"`
}

// SimpleRequest carries the scalar inputs of the query-string create form.
type SimpleRequest struct {
	ComponentName  string `json:"componentName" validate:"required,max=100"`
	ComponentValue string `json:"componentValue" validate:"required,max=255"`
}

// ListFilter narrows List. ComponentName only applies together with
// PatientID.
type ListFilter struct {
	PatientID     *uuid.UUID
	ComponentName string
}
