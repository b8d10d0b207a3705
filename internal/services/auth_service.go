package services

import (
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"cafeshift_backend/internal/models"
	"cafeshift_backend/internal/repositories"
	"cafeshift_backend/pkg/utils"
)

// --- Custom Service Errors for Auth ---
var (
	ErrUserAlreadyExists  = errors.New("user with this username already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidRole        = errors.New("invalid role for registration")
	ErrInvalidApproval    = errors.New("invalid approval status")
)

// --- Auth DTOs ---
type SignUpRequest struct {
	Username  string  `json:"username" binding:"required"`
	Password  string  `json:"password" binding:"required,min=8"`
	Role      string  `json:"role" binding:"required"` // "cafe" or "employee"
	Email     *string `json:"email"`
	FullName  *string `json:"full_name"`
	CVRef     *string `json:"cv_ref"`     // employees: uploaded beforehand via the file endpoint
	AvatarRef *string `json:"avatar_ref"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// --- AuthService Interface ---
type AuthService interface {
	SignUp(req SignUpRequest) (*models.User, error)
	Login(req LoginRequest) (*models.User, *TokenPair, error)
	GetUserByID(userID int64) (*models.User, error)
	// SetApproval is the admin gate on new accounts: pending -> approved or
	// rejected. Approval status rides inside the JWT, so a change takes
	// effect on the user's next login.
	SetApproval(userID int64, status string) (*models.User, error)
}

type authService struct {
	authRepo repositories.AuthRepository
	db       *sql.DB
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(ar repositories.AuthRepository, db *sql.DB) AuthService {
	return &authService{authRepo: ar, db: db}
}

func (s *authService) SignUp(req SignUpRequest) (*models.User, error) {
	// Admins are seeded, never self-registered.
	if req.Role != models.RoleCafe && req.Role != models.RoleEmployee {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidRole, req.Role)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:       req.Username,
		Role:           req.Role,
		ApprovalStatus: models.ApprovalPending,
		Email:          req.Email,
		FullName:       req.FullName,
		CVRef:          req.CVRef,
		AvatarRef:      req.AvatarRef,
		IsActive:       true,
	}

	userID, err := s.authRepo.CreateUser(s.db, user, string(hashedPassword))
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = userID
	return user, nil
}

func (s *authService) Login(req LoginRequest) (*models.User, *TokenPair, error) {
	user, hashedPassword, err := s.authRepo.FindUserByUsername(req.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !user.IsActive {
		return nil, nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(req.Password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	accessToken, err := utils.GenerateAccessToken(user.ID, user.Username, user.Role, user.ApprovalStatus)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := utils.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return user, &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *authService) GetUserByID(userID int64) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

func (s *authService) SetApproval(userID int64, status string) (*models.User, error) {
	if !models.IsValidApprovalStatus(status) {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidApproval, status)
	}
	if err := s.authRepo.UpdateApprovalStatus(s.db, userID, status); err != nil {
		if errors.Is(err, repositories.ErrConditionFailed) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update approval status: %w", err)
	}
	return s.GetUserByID(userID)
}
