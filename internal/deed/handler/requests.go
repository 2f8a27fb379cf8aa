package handler

import (
	"strings"

	"deedledger/internal/deed"
	"deedledger/internal/deed/service"
	dErrors "deedledger/pkg/domain-errors"
)

// RegisterRequest is the HTTP request body for POST /deeds.
type RegisterRequest struct {
	LandTitleNumber string `json:"landTitleNumber"`
	DeedNumber      string `json:"deedNumber"`
	OwnerName       string `json:"ownerName"`
	OwnerNIC        string `json:"ownerNIC"`
	LandLocation    string `json:"landLocation"`
	Province        string `json:"province"`
	District        string `json:"district"`
	LandArea        string `json:"landArea"`
	SurveyRef       string `json:"surveyRef"`
	Status          string `json:"status"`
	DocumentURL     string `json:"documentUrl"`
	DocumentID      string `json:"documentId"`
}

// Validate trims the business fields. Field-level rules live in the service;
// the handler only rejects an empty body.
func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.LandTitleNumber = strings.TrimSpace(r.LandTitleNumber)
	r.DeedNumber = strings.TrimSpace(r.DeedNumber)
	r.OwnerName = strings.TrimSpace(r.OwnerName)
	r.OwnerNIC = strings.TrimSpace(r.OwnerNIC)
	r.LandLocation = strings.TrimSpace(r.LandLocation)
	r.Province = strings.TrimSpace(r.Province)
	r.District = strings.TrimSpace(r.District)
	r.LandArea = strings.TrimSpace(r.LandArea)
	r.SurveyRef = strings.TrimSpace(r.SurveyRef)
	return nil
}

func (r *RegisterRequest) toInput() service.RegisterInput {
	return service.RegisterInput{
		LandTitleNumber: r.LandTitleNumber,
		DeedNumber:      r.DeedNumber,
		OwnerName:       r.OwnerName,
		OwnerNIC:        r.OwnerNIC,
		LandLocation:    r.LandLocation,
		Province:        r.Province,
		District:        r.District,
		LandArea:        r.LandArea,
		SurveyRef:       r.SurveyRef,
		Status:          deed.Status(r.Status),
		DocumentURL:     r.DocumentURL,
		DocumentID:      r.DocumentID,
	}
}

// TransferRequest is the HTTP request body for POST /deeds/{id}/transfer.
type TransferRequest struct {
	OwnerName string `json:"ownerName"`
	OwnerNIC  string `json:"ownerNIC"`
	Reason    string `json:"reason"`
}

func (r *TransferRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.OwnerName = strings.TrimSpace(r.OwnerName)
	r.OwnerNIC = strings.TrimSpace(r.OwnerNIC)
	r.Reason = strings.TrimSpace(r.Reason)
	if r.OwnerName == "" {
		return dErrors.New(dErrors.CodeValidation, "ownerName is required")
	}
	if r.OwnerNIC == "" {
		return dErrors.New(dErrors.CodeValidation, "ownerNIC is required")
	}
	return nil
}

// UpdateRequest is the HTTP request body for PUT /deeds/{id}. Absent fields
// stay untouched.
type UpdateRequest struct {
	LandTitleNumber *string `json:"landTitleNumber"`
	DeedNumber      *string `json:"deedNumber"`
	OwnerName       *string `json:"ownerName"`
	OwnerNIC        *string `json:"ownerNIC"`
	LandLocation    *string `json:"landLocation"`
	Province        *string `json:"province"`
	District        *string `json:"district"`
	LandArea        *string `json:"landArea"`
	SurveyRef       *string `json:"surveyRef"`
	Status          *string `json:"status"`
	DocumentURL     *string `json:"documentUrl"`
	DocumentID      *string `json:"documentId"`
}

func (r *UpdateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return nil
}

func (r *UpdateRequest) toFields() deed.UpdateFields {
	fields := deed.UpdateFields{
		LandTitleNumber: r.LandTitleNumber,
		DeedNumber:      r.DeedNumber,
		OwnerName:       r.OwnerName,
		OwnerNIC:        r.OwnerNIC,
		LandLocation:    r.LandLocation,
		Province:        r.Province,
		District:        r.District,
		LandArea:        r.LandArea,
		SurveyRef:       r.SurveyRef,
		DocumentURL:     r.DocumentURL,
		DocumentID:      r.DocumentID,
	}
	if r.Status != nil {
		status := deed.Status(*r.Status)
		fields.Status = &status
	}
	return fields
}
