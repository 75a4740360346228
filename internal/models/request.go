package models

import "time"

// Pathway represents the triage category assigned to an echo request.
type Pathway string

const (
	PathwayPurple   Pathway = "PURPLE"
	PathwayRed      Pathway = "RED"
	PathwayAmber    Pathway = "AMBER"
	PathwayGreen    Pathway = "GREEN"
	PathwayRejected Pathway = "REJECTED"
)

// Valid returns true when the pathway is a supported value.
func (p Pathway) Valid() bool {
	switch p {
	case PathwayPurple, PathwayRed, PathwayAmber, PathwayGreen, PathwayRejected:
		return true
	default:
		return false
	}
}

// Timed reports whether the pathway carries a working-hours deadline.
func (p Pathway) Timed() bool {
	switch p {
	case PathwayPurple, PathwayRed, PathwayAmber:
		return true
	default:
		return false
	}
}

// SLAHours returns the number of working hours allowed for the pathway.
func (p Pathway) SLAHours() int {
	switch p {
	case PathwayPurple:
		return 1
	case PathwayRed:
		return 24
	case PathwayAmber:
		return 72
	default:
		return 0
	}
}

// Display returns the label shown to users. Rejected requests are presented
// as green; the stored value stays REJECTED.
func (p Pathway) Display() Pathway {
	if p == PathwayRejected {
		return PathwayGreen
	}
	return p
}

// RequestStatus is the completion state of an echo request.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusCompleted RequestStatus = "completed"
)

// EchoRequest is one clinical echo-imaging request.
type EchoRequest struct {
	ID             int64         `db:"id" json:"id"`
	DisplayID      string        `db:"display_id" json:"display_id"`
	Pathway        Pathway       `db:"pathway" json:"pathway"`
	RequestTime    time.Time     `db:"request_time" json:"request_time"`
	ExpectedTime   time.Time     `db:"expected_time" json:"expected_time"`
	Status         RequestStatus `db:"status" json:"status"`
	TriageDate     time.Time     `db:"triage_date" json:"triage_date"`
	CompletionTime *time.Time    `db:"completion_time" json:"completion_time,omitempty"`
	Notes          string        `db:"notes" json:"notes"`
	PatientName    string        `db:"patient_name" json:"patient_name"`
	MRN            string        `db:"mrn" json:"mrn"`
	Ward           string        `db:"ward" json:"ward"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// RequestField names a mutable descriptive field on an echo request.
type RequestField string

const (
	FieldNotes       RequestField = "notes"
	FieldPatientName RequestField = "patient_name"
	FieldMRN         RequestField = "mrn"
	FieldWard        RequestField = "ward"
)

// Valid returns true when the field may be updated after creation.
func (f RequestField) Valid() bool {
	switch f {
	case FieldNotes, FieldPatientName, FieldMRN, FieldWard:
		return true
	default:
		return false
	}
}
