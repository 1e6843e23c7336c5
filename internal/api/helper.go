package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/ahelp-app/ahelp-cli/internal/domain"
)

const helperBase = "/api/helper/assignment-helper/"

// ListHelpers fetches the assignment-helper directory.
func (c *Client) ListHelpers(ctx context.Context) ([]domain.HelperProfile, error) {
	var helpers []domain.HelperProfile
	if err := c.do(ctx, http.MethodGet, helperBase, nil, &helpers); err != nil {
		return nil, err
	}
	return helpers, nil
}

// HelperProfileUpload is the multipart payload for profile creation:
// the base user id, the education reference and the profile picture.
type HelperProfileUpload struct {
	UserID      int64
	Education   string
	PictureName string
	Picture     io.Reader
}

// CreateHelperProfile attaches a helper profile to an existing user
// account via a multipart POST.
func (c *Client) CreateHelperProfile(ctx context.Context, up HelperProfileUpload) (*domain.HelperProfile, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("user", strconv.FormatInt(up.UserID, 10)); err != nil {
		return nil, fmt.Errorf("write user field: %w", err)
	}
	if err := writer.WriteField("education", up.Education); err != nil {
		return nil, fmt.Errorf("write education field: %w", err)
	}
	if up.Picture != nil {
		part, err := writer.CreateFormFile("pp", up.PictureName)
		if err != nil {
			return nil, fmt.Errorf("create picture part: %w", err)
		}
		if _, err := io.Copy(part, up.Picture); err != nil {
			return nil, fmt.Errorf("copy picture: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	var profile domain.HelperProfile
	if err := c.doMultipart(ctx, helperBase, writer.FormDataContentType(), &buf, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// AssignedUsers lists the users assigned to a helper.
func (c *Client) AssignedUsers(ctx context.Context, helperID int64) ([]domain.User, error) {
	var users []domain.User
	path := fmt.Sprintf("%s%d/assigned_users/", helperBase, helperID)
	if err := c.do(ctx, http.MethodGet, path, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

type availabilityRequest struct {
	IsAvailable bool `json:"is_available"`
}

// UpdateAvailability flips a helper's availability flag.
func (c *Client) UpdateAvailability(ctx context.Context, helperID int64, available bool) error {
	path := fmt.Sprintf("%s%d/update_availability/", helperBase, helperID)
	return c.do(ctx, http.MethodPost, path, availabilityRequest{IsAvailable: available}, nil)
}

type assignUserRequest struct {
	UserID int64 `json:"user_id"`
}

// AssignUser assigns a user to a helper (admin action).
func (c *Client) AssignUser(ctx context.Context, helperID, userID int64) error {
	path := fmt.Sprintf("%s%d/assign_user/", helperBase, helperID)
	return c.do(ctx, http.MethodPost, path, assignUserRequest{UserID: userID}, nil)
}

// DeleteHelper removes a helper profile (admin action).
func (c *Client) DeleteHelper(ctx context.Context, helperID int64) error {
	path := fmt.Sprintf("%s%d/", helperBase, helperID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}
