package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/caretrain/session-booking/internal/model"
	"github.com/caretrain/session-booking/internal/utils"
)

// UserRepo persists application users.  Emails are normalized to lower
// case; passwords are stored as bcrypt hashes only.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// Create inserts a user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, email, password, displayName string, role model.Role, companyID uint64, homeID *uint64, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, display_name, role, company_id, home_id) VALUES (?,?,?,?,?,?)",
		email, hash, displayName, role, companyID, homeID)
	if err != nil {
		if isMySQLErr(err, "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

const userCols = "id, email, password_hash, display_name, role, company_id, home_id, is_active, created_at, updated_at"

func scanUser(row rowScanner) (model.User, error) {
	var (
		u      model.User
		homeID sql.NullInt64
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName,
		&u.Role, &u.CompanyID, &homeID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if homeID.Valid {
		h := uint64(homeID.Int64)
		u.HomeID = &h
	}
	return u, err
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id))
}

// HomeIDs returns the home ids a manager is scoped to.  A manager's own
// home plus any rows in manager_homes; company-level users have no
// scoping and should not call this.
func (r *UserRepo) HomeIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	const q = `SELECT home_id FROM users WHERE id = ? AND home_id IS NOT NULL
               UNION
               SELECT home_id FROM manager_homes WHERE user_id = ?`
	rows, err := r.DB.QueryContext(ctx, q, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
