package domain

// HelperProfile is the assignment-helper directory entry. The profile
// references its base user account; rating may be absent for new helpers.
type HelperProfile struct {
	ID                 int64    `json:"id"`
	User               User     `json:"user"`
	ProfilePicture     *string  `json:"pp"`
	Education          string   `json:"education,omitempty"`
	Rating             *float64 `json:"rating"`
	RatingDisplay      string   `json:"rating_display"`
	IsAvailable        bool     `json:"is_available"`
	AssignedUsersCount int      `json:"assigned_users_count,omitempty"`
}
