package model

import "time"

// Role is the closed set of actor roles resolved from the access token.
// ADMIN and COMPANY act company-wide; MANAGER is scoped to its homes;
// STAFF may only act on its own attendance.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleCompany Role = "COMPANY"
	RoleManager Role = "MANAGER"
	RoleStaff   Role = "STAFF"
)

// User represents an application user as stored in the `users` table.
// DisplayName is what the roster endpoint presents; it carries no
// authorization or capacity meaning.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  DisplayName  – name shown on rosters and suggestions.
//  Role         – one of ADMIN, COMPANY, MANAGER, STAFF.
//  CompanyID    – company the user belongs to.
//  HomeID       – home the user works in (nullable for company-level users).
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	DisplayName  string    // users.display_name
	Role         Role      // users.role
	CompanyID    uint64    // users.company_id
	HomeID       *uint64   // users.home_id (nullable)
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Home is a care home within a company.  Managers are scoped to one or
// more homes; the scope limits which users they may invite or place.
type Home struct {
	ID        uint64    // homes.id
	CompanyID uint64    // homes.company_id
	Name      string    // homes.name
	CreatedAt time.Time // homes.created_at
}

// Course is a mandatory training course owned by a company.  Sessions
// reference exactly one course; due-status rows are keyed by course.
type Course struct {
	ID        uint64    // courses.id
	CompanyID uint64    // courses.company_id
	Title     string    // courses.title
	CreatedAt time.Time // courses.created_at
}
