package domain

import "errors"

var (
	ErrNoSession            = errors.New("no active session")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrEmailNotVerified     = errors.New("email not verified")
	ErrUserNotFound         = errors.New("user not found")
	ErrHelperNotFound       = errors.New("helper profile not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNoConversation       = errors.New("no conversation selected")
)
