package model

import "time"

// ValidationRecord is the outcome of the vision check for one job. Written
// exactly once by the pipeline worker, read many times by polling requests.
type ValidationRecord struct {
	JobID     string
	CastHash  string
	UserFID   int64
	Text      string
	ImageURL  string
	IsValid   bool
	Message   string // failure explanation; empty on success
	CreatedAt time.Time
}

// SameOutcome reports whether two records for the same job carry identical
// content. A duplicate event may legitimately re-deliver the same outcome;
// a different outcome for one JobID is a defect.
func (v *ValidationRecord) SameOutcome(o *ValidationRecord) bool {
	return v.JobID == o.JobID &&
		v.IsValid == o.IsValid &&
		v.Message == o.Message &&
		v.ImageURL == o.ImageURL
}
