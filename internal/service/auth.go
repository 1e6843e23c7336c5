package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ahelp-app/ahelp-cli/internal/api"
	"github.com/ahelp-app/ahelp-cli/internal/domain"
	"github.com/ahelp-app/ahelp-cli/internal/session"
)

// AuthService owns every write to the session store; the rest of the
// client only reads it.
type AuthService struct {
	api      *api.Client
	sessions session.Store
}

func NewAuthService(client *api.Client, sessions session.Store) *AuthService {
	return &AuthService{api: client, sessions: sessions}
}

// Login exchanges credentials for a session and persists it verbatim.
// Every failure cause collapses into ErrInvalidCredentials; the real
// error only goes to the log.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	sess, err := s.api.Login(ctx, email, password)
	if err != nil {
		slog.Warn("login failed", "email", email, "error", err)
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.sessions.Save(sess); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return sess, nil
}

// Logout clears the persisted session.
func (s *AuthService) Logout() error {
	return s.sessions.Clear()
}

// RegisterUser creates a common user account. Backend validation errors
// (duplicate email and the like) surface verbatim through *api.Error.
func (s *AuthService) RegisterUser(ctx context.Context, params api.RegisterUserParams) (int64, error) {
	if params.Role == "" {
		params.Role = domain.RoleCommon
	}
	return s.api.RegisterUser(ctx, params)
}

// HelperRegistration is the input to the two-step helper signup.
type HelperRegistration struct {
	FirstName   string
	MiddleName  string
	LastName    string
	Email       string
	Password    string
	Education   string
	PictureName string
	Picture     io.Reader
}

// HelperProfileError reports the known partial-failure gap in helper
// registration: the user account exists but the profile step failed.
// Nothing rolls the account back.
type HelperProfileError struct {
	UserID int64
	Err    error
}

func (e *HelperProfileError) Error() string {
	return fmt.Sprintf("helper profile creation failed for user %d (account was created): %v", e.UserID, e.Err)
}

func (e *HelperProfileError) Unwrap() error {
	return e.Err
}

// RegisterHelper runs the non-atomic two-step signup: create the base
// user account as JSON, then attach the helper profile via multipart.
func (s *AuthService) RegisterHelper(ctx context.Context, reg HelperRegistration) (*domain.HelperProfile, error) {
	userID, err := s.api.RegisterUser(ctx, api.RegisterUserParams{
		FirstName:  reg.FirstName,
		MiddleName: reg.MiddleName,
		LastName:   reg.LastName,
		Email:      reg.Email,
		Password:   reg.Password,
		Role:       domain.RoleHelper,
	})
	if err != nil {
		return nil, fmt.Errorf("create user account: %w", err)
	}

	profile, err := s.api.CreateHelperProfile(ctx, api.HelperProfileUpload{
		UserID:      userID,
		Education:   reg.Education,
		PictureName: reg.PictureName,
		Picture:     reg.Picture,
	})
	if err != nil {
		return nil, &HelperProfileError{UserID: userID, Err: err}
	}
	return profile, nil
}

// VerifyEmail confirms an address using the token from the verification
// link.
func (s *AuthService) VerifyEmail(ctx context.Context, token, email string) error {
	if token == "" || email == "" {
		return fmt.Errorf("invalid verification link")
	}
	return s.api.VerifyEmail(ctx, token, email)
}
