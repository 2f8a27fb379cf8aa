// Package deed defines the land-deed record, its query filter, and the store
// contract. The fingerprint and lifecycle rules live in subpackages.
package deed

import "time"

// Status is an administrative label, not a workflow state. Any mutation may
// set any of the three values.
type Status string

const (
	StatusValid   Status = "valid"
	StatusInvalid Status = "invalid"
	StatusPending Status = "pending"
)

// ValidStatus reports whether s is one of the three known labels.
func ValidStatus(s Status) bool {
	return s == StatusValid || s == StatusInvalid || s == StatusPending
}

// Deed is one registered land title. LandTitleNumber, DeedNumber and
// Fingerprint are each globally unique; the fingerprint always reflects the
// current business field values.
type Deed struct {
	ID               string    `json:"id"`
	LandTitleNumber  string    `json:"landTitleNumber"`
	DeedNumber       string    `json:"deedNumber"`
	OwnerName        string    `json:"ownerName"`
	OwnerNIC         string    `json:"ownerNIC"`
	LandLocation     string    `json:"landLocation"`
	Province         string    `json:"province"`
	District         string    `json:"district"`
	LandArea         string    `json:"landArea"`
	SurveyRef        string    `json:"surveyRef"`
	RegistrationDate time.Time `json:"registrationDate"`
	Status           Status    `json:"status"`
	Fingerprint      string    `json:"fingerprint"`
	RegisteredBy     string    `json:"registeredBy"`
	DocumentURL      string    `json:"documentUrl,omitempty"`
	DocumentID       string    `json:"documentId,omitempty"`
}

// QueryFilter combines optional predicates with AND semantics, except Search
// which is an OR across deed number, land title number and owner NIC.
// Substring matches are case-insensitive.
type QueryFilter struct {
	LandTitleNumber string
	DeedNumber      string
	OwnerName       string
	OwnerNIC        string
	District        string
	Status          Status
	Search          string
}

// UpdateFields carries a partial update. Nil pointers leave the field alone.
type UpdateFields struct {
	LandTitleNumber *string
	DeedNumber      *string
	OwnerName       *string
	OwnerNIC        *string
	LandLocation    *string
	Province        *string
	District        *string
	LandArea        *string
	SurveyRef       *string
	Status          *Status
	DocumentURL     *string
	DocumentID      *string
}

// Apply merges the changes over d, returning the updated copy.
func (u UpdateFields) Apply(d Deed) Deed {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&d.LandTitleNumber, u.LandTitleNumber)
	set(&d.DeedNumber, u.DeedNumber)
	set(&d.OwnerName, u.OwnerName)
	set(&d.OwnerNIC, u.OwnerNIC)
	set(&d.LandLocation, u.LandLocation)
	set(&d.Province, u.Province)
	set(&d.District, u.District)
	set(&d.LandArea, u.LandArea)
	set(&d.SurveyRef, u.SurveyRef)
	set(&d.DocumentURL, u.DocumentURL)
	set(&d.DocumentID, u.DocumentID)
	if u.Status != nil {
		d.Status = *u.Status
	}
	return d
}
