package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ahelp-app/ahelp-cli/internal/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Access        string `json:"access"`
	Refresh       string `json:"refresh"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
}

// Login exchanges credentials for a session at POST /api/token/.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/token/", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &domain.Session{
		Access:        resp.Access,
		Refresh:       resp.Refresh,
		Role:          domain.ParseRole(resp.Role),
		EmailVerified: resp.EmailVerified,
	}, nil
}

type RegisterUserParams struct {
	FirstName  string      `json:"first_name"`
	MiddleName string      `json:"middle_name,omitempty"`
	LastName   string      `json:"last_name"`
	Email      string      `json:"email"`
	Password   string      `json:"password"`
	Role       domain.Role `json:"role,omitempty"`
}

// createdUser tolerates the backend's three shapes for the new user id:
// a bare id, a nested user object, or user_id.
type createdUser struct {
	ID   int64 `json:"id"`
	User *struct {
		ID int64 `json:"id"`
	} `json:"user"`
	UserID int64 `json:"user_id"`
}

func (u createdUser) resolveID() int64 {
	switch {
	case u.ID != 0:
		return u.ID
	case u.User != nil && u.User.ID != 0:
		return u.User.ID
	default:
		return u.UserID
	}
}

// RegisterUser creates a base user account and returns its id.
func (c *Client) RegisterUser(ctx context.Context, params RegisterUserParams) (int64, error) {
	var resp createdUser
	if err := c.do(ctx, http.MethodPost, "/api/auth/user/", params, &resp); err != nil {
		return 0, err
	}
	id := resp.resolveID()
	if id == 0 {
		return 0, fmt.Errorf("user id missing from registration response")
	}
	return id, nil
}

// ListUsers fetches every user account. The backend only honours this
// for admin sessions.
func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/user/", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

type verifyEmailRequest struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// VerifyEmail confirms an address with the token from the verification
// link.
func (c *Client) VerifyEmail(ctx context.Context, token, email string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/verify-email/", verifyEmailRequest{Token: token, Email: email}, nil)
}
