// Package queue defines message payloads exchanged over the message broker.
package queue

// AttendanceConfirmedEvent is published whenever a mutating operation
// lands an attendee row in CONFIRMED (self-claim, self-confirmation or
// forced placement).  It carries enough context for downstream
// notification and compliance consumers to act without querying the
// primary database.  Notification delivery itself is outside this
// service; emitting the signal is the whole contract.
type AttendanceConfirmedEvent struct {
	SessionID   uint64 `json:"session_id"`
	CourseID    uint64 `json:"course_id"`
	CompanyID   uint64 `json:"company_id"`
	UserID      uint64 `json:"user_id"`
	Source      string `json:"source"`       // SELF, COMPANY, MANAGER or PRIORITY
	StartsAt    string `json:"starts_at"`    // RFC3339
	ConfirmedAt string `json:"confirmed_at"` // RFC3339
}
