package stub

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ahelp-app/ahelp-cli/internal/domain"
)

// ErrDuplicateEmail mirrors the production backend's uniqueness check.
var ErrDuplicateEmail = errors.New("user with this email already exists")

// Account is a stored user plus the credentials the stub checks on
// login. Passwords are kept in the clear; this backend exists for local
// development only.
type Account struct {
	User          domain.User
	Password      string
	EmailVerified bool
	VerifyToken   string
}

type helperRecord struct {
	Profile  domain.HelperProfile
	Assigned []int64
}

// Store is the stub backend's in-memory state. Numeric ids mirror the
// production contract.
type Store struct {
	mu sync.Mutex

	users   map[int64]*Account
	helpers map[int64]*helperRecord
	convs   map[int64]*domain.Conversation
	msgs    map[int64][]domain.Message

	nextUserID   int64
	nextHelperID int64
	nextConvID   int64
	nextMsgID    int64

	// FailHelperCreate makes profile creation return a server error,
	// exercising the two-step registration's partial-failure path.
	FailHelperCreate bool
}

func NewStore() *Store {
	return &Store{
		users:   make(map[int64]*Account),
		helpers: make(map[int64]*helperRecord),
		convs:   make(map[int64]*domain.Conversation),
		msgs:    make(map[int64][]domain.Message),
	}
}

// CreateUser registers an account. Helpers start unverified with a
// verification token; everyone else is verified immediately.
func (st *Store) CreateUser(u domain.User, password string) (*Account, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(u.Email))
	for _, acc := range st.users {
		if acc.User.Email == email {
			return nil, ErrDuplicateEmail
		}
	}

	st.nextUserID++
	u.ID = st.nextUserID
	u.Email = email
	if u.Role == "" {
		u.Role = domain.RoleCommon
	}

	acc := &Account{User: u, Password: password, EmailVerified: u.Role != domain.RoleHelper}
	if !acc.EmailVerified {
		acc.VerifyToken = uuid.NewString()
	}
	st.users[u.ID] = acc
	return acc, nil
}

func (st *Store) UserByEmail(email string) *Account {
	st.mu.Lock()
	defer st.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, acc := range st.users {
		if acc.User.Email == email {
			return acc
		}
	}
	return nil
}

func (st *Store) UserByID(id int64) *Account {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.users[id]
}

func (st *Store) ListUsers() []domain.User {
	st.mu.Lock()
	defer st.mu.Unlock()
	users := make([]domain.User, 0, len(st.users))
	for id := int64(1); id <= st.nextUserID; id++ {
		if acc, ok := st.users[id]; ok {
			users = append(users, acc.User)
		}
	}
	return users
}

// VerifyEmail marks the account verified when token and email match.
func (st *Store) VerifyEmail(token, email string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, acc := range st.users {
		if acc.User.Email == email && acc.VerifyToken == token && token != "" {
			acc.EmailVerified = true
			acc.VerifyToken = ""
			return true
		}
	}
	return false
}

// CreateHelper attaches a profile to an existing helper account.
func (st *Store) CreateHelper(userID int64, education string) (*domain.HelperProfile, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	acc, ok := st.users[userID]
	if !ok {
		return nil, false
	}
	for _, rec := range st.helpers {
		if rec.Profile.User.ID == userID {
			return nil, false
		}
	}

	st.nextHelperID++
	profile := domain.HelperProfile{
		ID:            st.nextHelperID,
		User:          acc.User,
		Education:     education,
		RatingDisplay: "No ratings yet",
		IsAvailable:   true,
	}
	st.helpers[profile.ID] = &helperRecord{Profile: profile}
	return &profile, true
}

func (st *Store) Helper(id int64) *domain.HelperProfile {
	st.mu.Lock()
	defer st.mu.Unlock()
	rec, ok := st.helpers[id]
	if !ok {
		return nil
	}
	cp := rec.Profile
	cp.AssignedUsersCount = len(rec.Assigned)
	return &cp
}

// ListHelpers returns the directory. When forUserID belongs to a helper
// the listing is scoped to that helper's own profile, mirroring the
// production backend.
func (st *Store) ListHelpers(forUserID int64) []domain.HelperProfile {
	st.mu.Lock()
	defer st.mu.Unlock()

	scoped := false
	if acc, ok := st.users[forUserID]; ok && acc.User.Role == domain.RoleHelper {
		scoped = true
	}

	helpers := make([]domain.HelperProfile, 0, len(st.helpers))
	for id := int64(1); id <= st.nextHelperID; id++ {
		rec, ok := st.helpers[id]
		if !ok {
			continue
		}
		if scoped && rec.Profile.User.ID != forUserID {
			continue
		}
		cp := rec.Profile
		cp.AssignedUsersCount = len(rec.Assigned)
		helpers = append(helpers, cp)
	}
	return helpers
}

func (st *Store) DeleteHelper(id int64) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.helpers[id]; !ok {
		return false
	}
	delete(st.helpers, id)
	return true
}

func (st *Store) SetAvailability(helperID int64, available bool) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	rec, ok := st.helpers[helperID]
	if !ok {
		return false
	}
	rec.Profile.IsAvailable = available
	return true
}

func (st *Store) AssignUser(helperID, userID int64) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	rec, ok := st.helpers[helperID]
	if !ok {
		return false
	}
	if _, ok := st.users[userID]; !ok {
		return false
	}
	for _, id := range rec.Assigned {
		if id == userID {
			return true
		}
	}
	rec.Assigned = append(rec.Assigned, userID)
	return true
}

func (st *Store) AssignedUsers(helperID int64) ([]domain.User, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	rec, ok := st.helpers[helperID]
	if !ok {
		return nil, false
	}
	users := make([]domain.User, 0, len(rec.Assigned))
	for _, id := range rec.Assigned {
		if acc, ok := st.users[id]; ok {
			users = append(users, acc.User)
		}
	}
	return users, true
}

// GetOrCreateConversation returns the conversation between the two
// users, creating it on first use. The participant pair is unordered, so
// repeated calls with the same pair always yield the same conversation.
func (st *Store) GetOrCreateConversation(selfID, otherID int64) (*domain.Conversation, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	self, ok := st.users[selfID]
	if !ok {
		return nil, false
	}
	other, ok := st.users[otherID]
	if !ok {
		return nil, false
	}

	for _, conv := range st.convs {
		a, b := conv.Participant1.ID, conv.Participant2.ID
		if (a == selfID && b == otherID) || (a == otherID && b == selfID) {
			cp := st.withUnread(conv)
			return &cp, true
		}
	}

	st.nextConvID++
	conv := &domain.Conversation{
		ID:           st.nextConvID,
		Participant1: self.User,
		Participant2: other.User,
	}
	st.convs[conv.ID] = conv
	cp := *conv
	return &cp, true
}

func (st *Store) Conversation(id int64) *domain.Conversation {
	st.mu.Lock()
	defer st.mu.Unlock()
	conv, ok := st.convs[id]
	if !ok {
		return nil
	}
	cp := st.withUnread(conv)
	return &cp
}

// ConversationsFor lists conversations for one participant; a zero
// userID lists everything (admin view).
func (st *Store) ConversationsFor(userID int64) []domain.Conversation {
	st.mu.Lock()
	defer st.mu.Unlock()

	convs := make([]domain.Conversation, 0, len(st.convs))
	for id := int64(1); id <= st.nextConvID; id++ {
		conv, ok := st.convs[id]
		if !ok {
			continue
		}
		if userID != 0 && conv.Participant1.ID != userID && conv.Participant2.ID != userID {
			continue
		}
		convs = append(convs, st.withUnread(conv))
	}
	return convs
}

// AppendMessage stores a message; ordering is append order, which is
// also created_at/id ascending.
func (st *Store) AppendMessage(convID, senderID int64, text string) (*domain.Message, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	conv, ok := st.convs[convID]
	if !ok {
		return nil, false
	}
	sender, ok := st.users[senderID]
	if !ok {
		return nil, false
	}

	receiver := conv.Participant2
	if receiver.ID == senderID {
		receiver = conv.Participant1
	}

	st.nextMsgID++
	msg := domain.Message{
		ID:             st.nextMsgID,
		ConversationID: convID,
		Text:           text,
		Sender:         sender.User,
		Receiver:       receiver,
		CreatedAt:      time.Now().UTC(),
	}
	st.msgs[convID] = append(st.msgs[convID], msg)
	conv.LastMessage = &domain.LastMessage{Text: msg.Text, CreatedAt: msg.CreatedAt}
	return &msg, true
}

func (st *Store) Messages(convID int64) []domain.Message {
	st.mu.Lock()
	defer st.mu.Unlock()
	return append([]domain.Message(nil), st.msgs[convID]...)
}

func (st *Store) withUnread(conv *domain.Conversation) domain.Conversation {
	cp := *conv
	cp.UnreadCount = 0
	return cp
}

func (st *Store) IsParticipant(convID, userID int64) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	conv, ok := st.convs[convID]
	if !ok {
		return false
	}
	return conv.Participant1.ID == userID || conv.Participant2.ID == userID
}
