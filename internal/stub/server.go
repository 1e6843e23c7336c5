// Package stub is an in-memory stand-in for the marketplace backend,
// honouring the REST contract the client depends on. It exists for
// local development and integration tests; it is not the production
// backend.
package stub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ahelp-app/ahelp-cli/internal/config"
	"github.com/ahelp-app/ahelp-cli/internal/domain"
	"github.com/ahelp-app/ahelp-cli/internal/middleware"
)

type Server struct {
	store     *Store
	jwtSecret []byte
}

func NewServer(store *Store, jwtSecret string) *Server {
	return &Server{store: store, jwtSecret: []byte(jwtSecret)}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover, middleware.Logging)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/token/", s.handleToken)
	r.Post("/api/auth/user/", s.handleCreateUser)
	r.Post("/api/auth/verify-email/", s.handleVerifyEmail)
	r.With(s.authRequired, s.adminOnly).Get("/api/auth/user/", s.handleListUsers)

	r.Route("/api/helper/assignment-helper", func(r chi.Router) {
		r.With(s.authOptional).Get("/", s.handleListHelpers)
		r.Post("/", s.handleCreateHelper)
		r.With(s.authRequired).Get("/{helperID}/assigned_users/", s.handleAssignedUsers)
		r.With(s.authRequired).Post("/{helperID}/update_availability/", s.handleUpdateAvailability)
		r.With(s.authRequired, s.adminOnly).Post("/{helperID}/assign_user/", s.handleAssignUser)
		r.With(s.authRequired, s.adminOnly).Delete("/{helperID}/", s.handleDeleteHelper)
	})

	r.Route("/api/chat", func(r chi.Router) {
		r.Use(s.authRequired)
		r.Post("/conversation/get_or_create/", s.handleGetOrCreate)
		r.Get("/conversation/my_conversations/", s.handleMyConversations)
		r.With(s.adminOnly).Get("/conversation/", s.handleListConversations)
		r.Get("/message/", s.handleListMessages)
		r.Post("/message/", s.handleSendMessage)
	})

	return r
}

type tokenClaims struct {
	UserID int64  `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (s *Server) issueAccessToken(acc *Account) (string, error) {
	now := time.Now().UTC()
	claims := tokenClaims{
		UserID: acc.User.ID,
		Role:   string(acc.User.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(acc.User.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(config.StubAccessTokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func (s *Server) parseAccessToken(token string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	acc := s.store.UserByEmail(req.Email)
	if acc == nil || acc.Password != req.Password {
		writeDetail(w, http.StatusUnauthorized, "No active account found with the given credentials")
		return
	}

	access, err := s.issueAccessToken(acc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access":         access,
		"refresh":        uuid.NewString(),
		"role":           acc.User.Role,
		"email_verified": acc.EmailVerified,
	})
}

type createUserRequest struct {
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		writeDetail(w, http.StatusBadRequest, "missing required fields")
		return
	}

	acc, err := s.store.CreateUser(domain.User{
		FirstName:  req.FirstName,
		MiddleName: req.MiddleName,
		LastName:   req.LastName,
		Email:      req.Email,
		Role:       domain.ParseRole(req.Role),
	}, req.Password)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "user with this email already exists.")
		return
	}

	writeJSON(w, http.StatusCreated, acc.User)
}

type verifyEmailRequest struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if !s.store.VerifyEmail(req.Token, req.Email) {
		writeDetail(w, http.StatusBadRequest, "invalid or expired verification link")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

func (s *Server) handleListUsers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.ListUsers())
}

func (s *Server) handleListHelpers(w http.ResponseWriter, r *http.Request) {
	var forUserID int64
	if claims := claimsFromContext(r.Context()); claims != nil {
		forUserID = claims.UserID
	}
	writeJSON(w, http.StatusOK, s.store.ListHelpers(forUserID))
}

func (s *Server) handleCreateHelper(w http.ResponseWriter, r *http.Request) {
	if s.store.FailHelperCreate {
		writeDetail(w, http.StatusInternalServerError, "helper profile creation failed")
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, "expected multipart form data")
		return
	}
	userID, err := strconv.ParseInt(r.FormValue("user"), 10, 64)
	if err != nil || userID == 0 {
		writeDetail(w, http.StatusBadRequest, "missing user id")
		return
	}
	education := r.FormValue("education")
	if education == "" {
		writeDetail(w, http.StatusBadRequest, "missing education")
		return
	}
	// The picture is accepted but not stored anywhere durable.
	if file, _, err := r.FormFile("pp"); err == nil {
		file.Close()
	}

	profile, ok := s.store.CreateHelper(userID, education)
	if !ok {
		writeDetail(w, http.StatusBadRequest, "user not found or profile already exists")
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

func (s *Server) handleAssignedUsers(w http.ResponseWriter, r *http.Request) {
	helperID, ok := helperIDParam(w, r)
	if !ok {
		return
	}

	claims := claimsFromContext(r.Context())
	helper := s.store.Helper(helperID)
	if helper == nil {
		writeError(w, http.StatusNotFound, "helper not found")
		return
	}
	if claims.Role != string(domain.RoleAdmin) && helper.User.ID != claims.UserID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	users, _ := s.store.AssignedUsers(helperID)
	writeJSON(w, http.StatusOK, users)
}

type availabilityRequest struct {
	IsAvailable bool `json:"is_available"`
}

func (s *Server) handleUpdateAvailability(w http.ResponseWriter, r *http.Request) {
	helperID, ok := helperIDParam(w, r)
	if !ok {
		return
	}

	var req availabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	claims := claimsFromContext(r.Context())
	helper := s.store.Helper(helperID)
	if helper == nil {
		writeError(w, http.StatusNotFound, "helper not found")
		return
	}
	if claims.Role != string(domain.RoleAdmin) && helper.User.ID != claims.UserID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	s.store.SetAvailability(helperID, req.IsAvailable)
	writeJSON(w, http.StatusOK, map[string]bool{"is_available": req.IsAvailable})
}

type assignUserRequest struct {
	UserID int64 `json:"user_id"`
}

func (s *Server) handleAssignUser(w http.ResponseWriter, r *http.Request) {
	helperID, ok := helperIDParam(w, r)
	if !ok {
		return
	}

	var req assignUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if !s.store.AssignUser(helperID, req.UserID) {
		writeError(w, http.StatusBadRequest, "helper or user not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "assigned"})
}

func (s *Server) handleDeleteHelper(w http.ResponseWriter, r *http.Request) {
	helperID, ok := helperIDParam(w, r)
	if !ok {
		return
	}
	if !s.store.DeleteHelper(helperID) {
		writeError(w, http.StatusNotFound, "helper not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type getOrCreateRequest struct {
	OtherUserID int64 `json:"other_user_id"`
}

func (s *Server) handleGetOrCreate(w http.ResponseWriter, r *http.Request) {
	var req getOrCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	claims := claimsFromContext(r.Context())
	if req.OtherUserID == claims.UserID {
		writeError(w, http.StatusBadRequest, "cannot start a conversation with yourself")
		return
	}

	conv, ok := s.store.GetOrCreateConversation(claims.UserID, req.OtherUserID)
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleMyConversations(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	writeJSON(w, http.StatusOK, s.store.ConversationsFor(claims.UserID))
}

func (s *Server) handleListConversations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.ConversationsFor(0))
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	convID, err := strconv.ParseInt(r.URL.Query().Get("conversation_id"), 10, 64)
	if err != nil || convID == 0 {
		writeError(w, http.StatusBadRequest, "missing conversation_id")
		return
	}

	claims := claimsFromContext(r.Context())
	if s.store.Conversation(convID) == nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if claims.Role != string(domain.RoleAdmin) && !s.store.IsParticipant(convID, claims.UserID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	writeJSON(w, http.StatusOK, s.store.Messages(convID))
}

// sendMessageRequest deliberately ignores sender_id and receiver_id:
// both are resolved from the authenticated session so a client cannot
// spoof attribution.
type sendMessageRequest struct {
	Conversation int64  `json:"conversation"`
	Text         string `json:"text"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "empty message")
		return
	}

	claims := claimsFromContext(r.Context())
	if s.store.Conversation(req.Conversation) == nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if claims.Role != string(domain.RoleAdmin) && !s.store.IsParticipant(req.Conversation, claims.UserID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	msg, ok := s.store.AppendMessage(req.Conversation, claims.UserID, req.Text)
	if !ok {
		writeError(w, http.StatusBadRequest, "send failed")
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

type claimsKey struct{}

func claimsFromContext(ctx context.Context) *tokenClaims {
	claims, _ := ctx.Value(claimsKey{}).(*tokenClaims)
	return claims
}

// authRequired rejects requests without a valid bearer token.
func (s *Server) authRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		claims, err := s.parseAccessToken(token)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Given token not valid")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authOptional attaches claims when a valid token is present but lets
// anonymous requests through (public helper directory).
func (s *Server) authOptional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r.Header.Get("Authorization")); token != "" {
			if claims, err := s.parseAccessToken(token); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil || claims.Role != string(domain.RoleAdmin) {
			writeError(w, http.StatusForbidden, "admin only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func helperIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "helperID"), 10, 64)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "missing helper id")
		return 0, false
	}
	return id, true
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDetail mirrors the production backend's Django-style error shape.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
