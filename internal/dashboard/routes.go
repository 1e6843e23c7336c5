package dashboard

import "github.com/ahelp-app/ahelp-cli/internal/domain"

// Route identifies which dashboard a session lands on.
type Route string

const (
	RouteUser   Route = "user"
	RouteHelper Route = "helper"
	RouteAdmin  Route = "admin"
)

// RouteFor maps a session to its dashboard. A helper with an unverified
// email gets ErrEmailNotVerified and no route; an unknown or missing
// role lands on the user dashboard.
func RouteFor(s *domain.Session) (Route, error) {
	if s == nil {
		return "", domain.ErrNoSession
	}
	switch s.Role {
	case domain.RoleHelper:
		if !s.EmailVerified {
			return "", domain.ErrEmailNotVerified
		}
		return RouteHelper, nil
	case domain.RoleAdmin:
		return RouteAdmin, nil
	default:
		return RouteUser, nil
	}
}
