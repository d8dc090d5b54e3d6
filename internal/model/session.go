package model

import "time"

// SessionStatus is the lifecycle state of a training session.  Only
// PUBLISHED sessions are acted on by the reservation engine.
type SessionStatus string

const (
	SessionDraft     SessionStatus = "DRAFT"
	SessionPublished SessionStatus = "PUBLISHED"
	SessionCancelled SessionStatus = "CANCELLED"
)

// Session represents a scheduled training session with finite capacity.
// Capacity and course are fixed at creation for reservation purposes.
// A session is created by a privileged actor and hard-deleted only by
// privileged actors, which cascades its attendee rows.
//
// Fields:
//  ID              – primary key identifier.
//  CompanyID       – company that owns the session.
//  CourseID        – course the session delivers.
//  Capacity        – total seats, always >= 1, immutable once attendees exist.
//  StartsAt        – when the session begins.
//  EndsAt          – when the session ends (nullable).
//  ConfirmDeadline – latest moment self-confirmation is accepted (nullable).
//  Status          – DRAFT, PUBLISHED or CANCELLED.
//  Location        – free-text venue (nullable).
//  Notes           – free-text notes (nullable).
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Session struct {
	ID              uint64        // sessions.id
	CompanyID       uint64        // sessions.company_id
	CourseID        uint64        // sessions.course_id
	Capacity        int           // sessions.capacity
	StartsAt        time.Time     // sessions.starts_at
	EndsAt          *time.Time    // sessions.ends_at (nullable)
	ConfirmDeadline *time.Time    // sessions.confirm_deadline (nullable)
	Status          SessionStatus // sessions.status
	Location        *string       // sessions.location (nullable)
	Notes           *string       // sessions.notes (nullable)
	CreatedAt       time.Time     // sessions.created_at
	UpdatedAt       time.Time     // sessions.updated_at
}
