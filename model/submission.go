package model

import "time"

// SubmissionStatus is the downstream processing state of a submission. The
// core creates submissions as pending; downstream processors may mark them
// processed or failed.
type SubmissionStatus string

// Submission processing states.
const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionProcessed SubmissionStatus = "processed"
	SubmissionFailed    SubmissionStatus = "failed"
)

// Submission is one respondent's answer set for a form. Data maps field ID
// to the stored answer: string, float64, bool, or []string depending on the
// field type. The core never mutates a submission after creation.
type Submission struct {
	ID        string           `json:"id"`
	FormID    string           `json:"form_id"`
	Data      map[string]any   `json:"data"`
	Status    SubmissionStatus `json:"status"`
	IPAddress string           `json:"ip_address,omitempty"`
	UserAgent string           `json:"user_agent,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
