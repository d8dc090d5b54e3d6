package model

import "time"

// TrainingStatus is the due state of a person for a mandatory course as
// reported by the due-status source.
type TrainingStatus string

const (
	TrainingUpToDate TrainingStatus = "UP_TO_DATE"
	TrainingDueSoon  TrainingStatus = "DUE_SOON"
	TrainingOverdue  TrainingStatus = "OVERDUE"
)

// DueStatus is one row from the due-status source: a person's training
// due state for a course within a company.  How the due date itself is
// computed is outside this service; rows are consumed as-is by the
// priority ranker.
type DueStatus struct {
	UserID      uint64         // training_records.user_id
	CourseID    uint64         // training_records.course_id
	CompanyID   uint64         // training_records.company_id
	Status      TrainingStatus // training_records.status
	NextDueDate *time.Time     // training_records.next_due_date (nullable)
}

// PriorityCandidate is a derived, never persisted suggestion produced by
// the priority ranker for a specific session.  Score orders candidates
// descending; Reason is a human-readable explanation for display.
type PriorityCandidate struct {
	UserID      uint64         `json:"user_id"`
	Status      TrainingStatus `json:"status"`
	NextDueDate *time.Time     `json:"next_due_date,omitempty"`
	Score       int            `json:"score"`
	Reason      string         `json:"reason"`
}
