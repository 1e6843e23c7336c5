package domain

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the account role carried by the token endpoint response.
type Role string

const (
	RoleCommon Role = "common"
	RoleHelper Role = "helper"
	RoleAdmin  Role = "admin"
)

// ParseRole maps a backend role string to a Role. Unknown or empty
// values fall back to RoleCommon, matching the login routing rules.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleHelper:
		return RoleHelper
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleCommon
	}
}

// Session is the credential bundle returned by POST /api/token/ and
// persisted between runs. At most one session is active per client.
type Session struct {
	Access        string `json:"access"`
	Refresh       string `json:"refresh"`
	Role          Role   `json:"role,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
}

// UserID extracts the account id from the access token's claims without
// verifying the signature. The backend stays the authority on every
// request; the client only needs the id to tell its own side of a
// conversation apart. Returns 0 when the token carries no usable id.
func (s *Session) UserID() int64 {
	if s == nil || s.Access == "" {
		return 0
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Access, claims); err != nil {
		return 0
	}
	if uid, ok := claims["uid"].(float64); ok && uid != 0 {
		return int64(uid)
	}
	if sub, _ := claims.GetSubject(); sub != "" {
		if id, err := strconv.ParseInt(sub, 10, 64); err == nil {
			return id
		}
	}
	return 0
}
