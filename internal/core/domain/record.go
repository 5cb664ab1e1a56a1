package domain

import "time"

// RequestIDLayout formats the submission time into the opaque request id used
// for spool file names and persisted records.
const RequestIDLayout = "20060102_150405"

// InspectionResult is what the caller gets back: the classified labels are
// always present once detection succeeded, the URL only when the artifact
// upload did.
type InspectionResult struct {
	RequestID string
	Classes   []string
	ImageURL  string
}

// DetectionRecord is the persisted unit of one inspection. It is written to
// every configured record sink independently; the stores may diverge when one
// write fails, there is no cross-store transaction.
type DetectionRecord struct {
	RequestID string    `json:"timestamp"`
	Classes   []string  `json:"classes"`
	ImageURL  string    `json:"image_url"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
