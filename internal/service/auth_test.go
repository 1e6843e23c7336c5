package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ahelp-app/ahelp-cli/internal/api"
	"github.com/ahelp-app/ahelp-cli/internal/domain"
	"github.com/ahelp-app/ahelp-cli/internal/session"
)

func newService(t *testing.T, handler http.Handler) (*AuthService, *session.MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := session.NewMemoryStore()
	client := api.NewClient(srv.URL, store)
	return NewAuthService(client, store), store
}

func TestLoginPersistsSession(t *testing.T) {
	svc, store := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"access": "acc", "refresh": "ref", "role": "helper", "email_verified": true,
		})
	}))

	sess, err := svc.Login(context.Background(), "h@x.test", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.Role != domain.RoleHelper {
		t.Errorf("Role = %q", sess.Role)
	}

	saved, err := store.Get()
	if err != nil || saved == nil {
		t.Fatalf("Get: %v, %v", saved, err)
	}
	if saved.Access != "acc" || saved.Refresh != "ref" || !saved.EmailVerified {
		t.Errorf("persisted session = %+v", saved)
	}
}

func TestLoginCollapsesBackendErrors(t *testing.T) {
	svc, store := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "No active account found"})
	}))

	_, err := svc.Login(context.Background(), "h@x.test", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
	if saved, _ := store.Get(); saved != nil {
		t.Error("failed login persisted a session")
	}
}

func TestLoginRejectsEmptyCredentialsWithoutNetwork(t *testing.T) {
	svc, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	}))

	if _, err := svc.Login(context.Background(), "", "pw"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("err = %v", err)
	}
	if _, err := svc.Login(context.Background(), "a@x.test", ""); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("err = %v", err)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	svc, store := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"access": "acc", "role": "common"})
	}))

	if _, err := svc.Login(context.Background(), "a@x.test", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := svc.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if saved, _ := store.Get(); saved != nil {
		t.Error("session survived logout")
	}
}

func TestRegisterUserDefaultsToCommonRole(t *testing.T) {
	var gotRole string
	svc, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		gotRole, _ = req["role"].(string)
		json.NewEncoder(w).Encode(map[string]int64{"id": 42})
	}))

	id, err := svc.RegisterUser(context.Background(), api.RegisterUserParams{Email: "new@x.test"})
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if id != 42 {
		t.Errorf("id = %d", id)
	}
	if gotRole != "common" {
		t.Errorf("role = %q, want common", gotRole)
	}
}

func TestRegisterHelperPartialFailure(t *testing.T) {
	svc, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/user/":
			json.NewEncoder(w).Encode(map[string]int64{"id": 7})
		case "/api/helper/assignment-helper/":
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"detail": "profile creation failed"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	_, err := svc.RegisterHelper(context.Background(), HelperRegistration{
		FirstName: "Hana", LastName: "Helper", Email: "h@x.test", Password: "pw", Education: "1",
	})

	var profileErr *HelperProfileError
	if !errors.As(err, &profileErr) {
		t.Fatalf("err = %v, want *HelperProfileError", err)
	}
	if profileErr.UserID != 7 {
		t.Errorf("UserID = %d, want 7 (the account that was created)", profileErr.UserID)
	}
	var apiErr *api.Error
	if !errors.As(profileErr, &apiErr) || apiErr.Status != http.StatusInternalServerError {
		t.Errorf("wrapped error = %v", profileErr.Err)
	}
}

func TestRegisterHelperFirstStepFailure(t *testing.T) {
	svc, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "user with this email already exists"})
	}))

	_, err := svc.RegisterHelper(context.Background(), HelperRegistration{Email: "dup@x.test"})
	var profileErr *HelperProfileError
	if errors.As(err, &profileErr) {
		t.Errorf("first-step failure reported as HelperProfileError: %v", err)
	}
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Detail != "user with this email already exists" {
		t.Errorf("err = %v", err)
	}
}
