package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cafeshift_backend/internal/models"
)

// AuthRepository defines the interface for user account persistence.
type AuthRepository interface {
	CreateUser(executor SQLExecutor, user *models.User, hashedPassword string) (int64, error)
	FindUserByUsername(username string) (*models.User, string, error) // Returns User, HashedPassword, Error
	FindUserByID(userID int64) (*models.User, error)
	UpdateApprovalStatus(executor SQLExecutor, userID int64, status string) error
}

// authRepository implements the AuthRepository interface.
type authRepository struct {
	db *sql.DB
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

const selectUserFields = `
	id, username, password_hash, email, full_name, role, approval_status, cv_ref, avatar_ref, is_active, created_at, updated_at
`

func scanUserRow(row scanner) (*models.User, string, error) {
	user := &models.User{}
	var hashedPassword string
	var email, fullName, cvRef, avatarRef sql.NullString

	err := row.Scan(
		&user.ID, &user.Username, &hashedPassword, &email, &fullName,
		&user.Role, &user.ApprovalStatus, &cvRef, &avatarRef, &user.IsActive,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("%w: scanning user: %v", ErrDatabaseError, err)
	}

	if email.Valid {
		user.Email = &email.String
	}
	if fullName.Valid {
		user.FullName = &fullName.String
	}
	if cvRef.Valid {
		user.CVRef = &cvRef.String
	}
	if avatarRef.Valid {
		user.AvatarRef = &avatarRef.String
	}
	return user, hashedPassword, nil
}

// CreateUser inserts a new user. New cafe and employee accounts start with a
// pending approval status; admins are seeded directly in the schema.
func (r *authRepository) CreateUser(executor SQLExecutor, user *models.User, hashedPassword string) (int64, error) {
	query := `INSERT INTO users (username, password_hash, email, full_name, role, approval_status, cv_ref, avatar_ref, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING id`

	currentTime := time.Now()
	var userID int64
	err := executor.QueryRow(query,
		user.Username, hashedPassword, user.Email, user.FullName,
		user.Role, user.ApprovalStatus, user.CVRef, user.AvatarRef,
		true, currentTime, currentTime,
	).Scan(&userID)

	if err != nil {
		return 0, wrapPQError(err, "creating user")
	}
	return userID, nil
}

// FindUserByUsername retrieves a user by their username.
// It returns the user model, their hashed password, and an error if any.
func (r *authRepository) FindUserByUsername(username string) (*models.User, string, error) {
	query := "SELECT " + selectUserFields + " FROM users WHERE username = $1"
	user, hashedPassword, err := scanUserRow(r.db.QueryRow(query, username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("finding user by username %s: %w", username, err)
	}
	return user, hashedPassword, nil
}

// FindUserByID retrieves a user by their ID. The password hash is not
// populated; this method serves profile reads, not credential checks.
func (r *authRepository) FindUserByID(userID int64) (*models.User, error) {
	query := "SELECT " + selectUserFields + " FROM users WHERE id = $1"
	user, _, err := scanUserRow(r.db.QueryRow(query, userID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("finding user by ID %d: %w", userID, err)
	}
	return user, nil
}

func (r *authRepository) UpdateApprovalStatus(executor SQLExecutor, userID int64, status string) error {
	query := `UPDATE users SET approval_status = $2, updated_at = NOW() WHERE id = $1`
	return execConditional(executor, query, "updating approval status", userID, status)
}
