package dto

import (
	"time"

	"github.com/echotrack/echotrack-api/internal/models"
)

// CreateRequestRequest describes the payload for registering a new echo request.
type CreateRequestRequest struct {
	Pathway     string `json:"pathway" validate:"required"`
	RequestTime string `json:"request_time" validate:"required"`
	PatientName string `json:"patient_name"`
	MRN         string `json:"mrn"`
	Ward        string `json:"ward"`
}

// CreateRequestResponse returns the identifiers assigned at creation.
type CreateRequestResponse struct {
	ID        int64  `json:"id"`
	DisplayID string `json:"display_id"`
}

// UpdateFieldRequest updates one mutable descriptive field.
type UpdateFieldRequest struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value"`
}

// RequestItem is the list representation of an echo request. The pathway is
// the display label, so REJECTED rows surface as GREEN.
type RequestItem struct {
	ID             int64                `json:"id"`
	DisplayID      string               `json:"display_id"`
	Pathway        models.Pathway       `json:"pathway"`
	RequestTime    time.Time            `json:"request_time"`
	ExpectedTime   time.Time            `json:"expected_time"`
	Status         models.RequestStatus `json:"status"`
	TriageDate     string               `json:"triage_date"`
	CompletionTime *time.Time           `json:"completion_time,omitempty"`
	Notes          string               `json:"notes"`
	PatientName    string               `json:"patient_name"`
	MRN            string               `json:"mrn"`
	Ward           string               `json:"ward"`
}
