package domain

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestSessionUserID(t *testing.T) {
	cases := []struct {
		name   string
		access string
		want   int64
	}{
		{"uid claim", signedToken(t, jwt.MapClaims{"uid": 7, "sub": "9"}), 7},
		{"subject fallback", signedToken(t, jwt.MapClaims{"sub": "9"}), 9},
		{"no id claims", signedToken(t, jwt.MapClaims{"role": "common"}), 0},
		{"opaque token", "not-a-jwt", 0},
		{"empty token", "", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &Session{Access: tc.access}
			if got := s.UserID(); got != tc.want {
				t.Errorf("UserID() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestNilSessionUserID(t *testing.T) {
	var s *Session
	if got := s.UserID(); got != 0 {
		t.Errorf("UserID() on nil session = %d", got)
	}
}

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"common":    RoleCommon,
		"helper":    RoleHelper,
		"admin":     RoleAdmin,
		"":          RoleCommon,
		"moderator": RoleCommon,
	}
	for input, want := range cases {
		if got := ParseRole(input); got != want {
			t.Errorf("ParseRole(%q) = %q, want %q", input, got, want)
		}
	}
}
