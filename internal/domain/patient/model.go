package patient

import (
	"fmt"

	"github.com/google/uuid"
)

// Patient is the subject record clinical observations belong to. The owned
// clinical data is carried as ids only and is never serialized back to the
// caller.
type Patient struct {
	ID              uuid.UUID   `json:"id"`
	FirstName       string      `json:"firstName"`
	LastName        string      `json:"lastName"`
	Age             int         `json:"age"`
	ClinicalDataIDs []uuid.UUID `json:"-"`
}

// Equal reports whether both records carry the same assigned id. A record
// without an id is never equal to another.
func (p *Patient) Equal(other *Patient) bool {
	if p == nil || other == nil {
		return false
	}
	if p.ID == uuid.Nil || other.ID == uuid.Nil {
		return false
	}
	return p.ID == other.ID
}

func (p *Patient) String() string {
	return fmt.Sprintf("Patient{id=%s, firstName=%s, lastName=%s, age=%d}", p.ID, p.FirstName, p.LastName, p.Age)
}

// PatientRequest is the body accepted by create and update. Any id or
// clinical data list in the payload is ignored.
type PatientRequest struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Age       *int   `json:"age" validate:"required"`
}

func (r *PatientRequest) apply(p *Patient) {
	p.FirstName = r.FirstName
	p.LastName = r.LastName
	if r.Age != nil {
		p.Age = *r.Age
	}
}

// Age groups used by Stats.
const (
	AgeGroupChild      = "0-18"
	AgeGroupYoungAdult = "19-35"
	AgeGroupMiddleAged = "36-55"
	AgeGroupSenior     = "56+"
)

// AgeGroups lists the distribution buckets in ascending order.
var AgeGroups = []string{AgeGroupChild, AgeGroupYoungAdult, AgeGroupMiddleAged, AgeGroupSenior}

// AgeGroup returns the distribution bucket for age.
func AgeGroup(age int) string {
	switch {
	case age <= 18:
		return AgeGroupChild
	case age <= 35:
		return AgeGroupYoungAdult
	case age <= 55:
		return AgeGroupMiddleAged
	default:
		return AgeGroupSenior
	}
}

// Stats summarizes the patient population.
type Stats struct {
	TotalPatients     int            `json:"totalPatients"`
	AverageAge        float64        `json:"averageAge"`
	AgeDistribution   map[string]int `json:"ageDistribution"`
	TotalClinicalData int            `json:"totalClinicalData"`
}
