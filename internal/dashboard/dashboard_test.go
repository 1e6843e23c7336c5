package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ahelp-app/ahelp-cli/internal/domain"

	"github.com/ahelp-app/ahelp-cli/internal/api"
)

// fakeBackend serves the handful of endpoints a dashboard touches and
// records every request as "METHOD path".
type fakeBackend struct {
	mu          sync.Mutex
	requests    []string
	messages    []domain.Message
	failSend    bool
	missingUser bool
	convGone    bool
}

func (f *fakeBackend) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		f.mu.Unlock()

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/helper/assignment-helper/":
			writeJSON(w, []domain.HelperProfile{{
				ID:          2,
				User:        domain.User{ID: 10, FirstName: "Hana", LastName: "Helper", Role: domain.RoleHelper},
				IsAvailable: true,
			}})
		case r.Method == http.MethodGet && r.URL.Path == "/api/helper/assignment-helper/2/assigned_users/":
			writeJSON(w, []domain.User{{ID: 20, FirstName: "Sam", LastName: "Student"}})
		case r.Method == http.MethodGet && r.URL.Path == "/api/auth/user/":
			writeJSON(w, []domain.User{{ID: 1, FirstName: "Ada"}, {ID: 10, FirstName: "Hana"}})
		case r.Method == http.MethodGet && r.URL.Path == "/api/chat/conversation/my_conversations/":
			writeJSON(w, []domain.Conversation{})
		case r.Method == http.MethodGet && r.URL.Path == "/api/chat/conversation/":
			writeJSON(w, []domain.Conversation{})
		case r.Method == http.MethodPost && r.URL.Path == "/api/chat/conversation/get_or_create/":
			if f.missingUser {
				w.WriteHeader(http.StatusNotFound)
				writeJSON(w, map[string]string{"error": "user not found"})
				return
			}
			writeJSON(w, domain.Conversation{
				ID:           5,
				Participant1: domain.User{ID: 20},
				Participant2: domain.User{ID: 10},
			})
		case r.Method == http.MethodGet && r.URL.Path == "/api/chat/message/":
			f.mu.Lock()
			msgs := append([]domain.Message(nil), f.messages...)
			f.mu.Unlock()
			writeJSON(w, msgs)
		case r.Method == http.MethodPost && r.URL.Path == "/api/chat/message/":
			f.mu.Lock()
			gone := f.convGone
			f.mu.Unlock()
			if gone {
				w.WriteHeader(http.StatusNotFound)
				writeJSON(w, map[string]string{"error": "conversation not found"})
				return
			}
			f.mu.Lock()
			fail := f.failSend
			if !fail {
				var req struct {
					Conversation int64  `json:"conversation"`
					Text         string `json:"text"`
				}
				json.NewDecoder(r.Body).Decode(&req)
				f.messages = append(f.messages, domain.Message{
					ID: int64(len(f.messages) + 1), ConversationID: req.Conversation, Text: req.Text,
				})
			}
			f.mu.Unlock()
			if fail {
				w.WriteHeader(http.StatusInternalServerError)
				writeJSON(w, map[string]string{"detail": "boom"})
				return
			}
			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func (f *fakeBackend) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestOpenDispatchesByRole(t *testing.T) {
	cases := []struct {
		route Route
		want  []string
	}{
		{RouteUser, []string{
			"GET /api/helper/assignment-helper/",
			"GET /api/chat/conversation/my_conversations/",
		}},
		{RouteHelper, []string{
			"GET /api/helper/assignment-helper/",
			"GET /api/helper/assignment-helper/2/assigned_users/",
			"GET /api/chat/conversation/my_conversations/",
		}},
		{RouteAdmin, []string{
			"GET /api/auth/user/",
			"GET /api/helper/assignment-helper/",
			"GET /api/chat/conversation/",
		}},
	}

	for _, tc := range cases {
		t.Run(string(tc.route), func(t *testing.T) {
			backend := &fakeBackend{}
			srv := httptest.NewServer(backend.handler(t))
			defer srv.Close()

			d := New(api.NewClient(srv.URL, nil), tc.route)
			defer d.Close()

			if err := d.Open(context.Background()); err != nil {
				t.Fatalf("Open: %v", err)
			}
			got := backend.recorded()
			if strings.Join(got, "\n") != strings.Join(tc.want, "\n") {
				t.Errorf("requests = %v, want %v", got, tc.want)
			}
			if len(d.Contacts()) == 0 {
				t.Error("no contacts loaded")
			}
		})
	}
}

func TestHelperContactsAreAssignedUsers(t *testing.T) {
	backend := &fakeBackend{}
	srv := httptest.NewServer(backend.handler(t))
	defer srv.Close()

	d := New(api.NewClient(srv.URL, nil), RouteHelper)
	defer d.Close()

	if err := d.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	contacts := d.Contacts()
	if len(contacts) != 1 || contacts[0].UserID != 20 || contacts[0].Label != "Sam Student" {
		t.Errorf("contacts = %+v", contacts)
	}
	if own := d.OwnProfile(); own == nil || own.ID != 2 {
		t.Errorf("own profile = %+v", own)
	}
}

func TestSendRefetchesMessagesImmediately(t *testing.T) {
	backend := &fakeBackend{
		messages: []domain.Message{{ID: 1, ConversationID: 5, Text: "hello"}},
	}
	srv := httptest.NewServer(backend.handler(t))
	defer srv.Close()

	// A long interval so the only polls are the watch's first fetch and
	// the refresh after the send.
	d := NewWithInterval(api.NewClient(srv.URL, nil), RouteUser, time.Hour)
	defer d.Close()

	if _, err := d.StartConversation(context.Background(), 10); err != nil {
		t.Fatalf("StartConversation: %v", err)
	}
	waitFor(t, func() bool { return len(d.Messages()) == 1 })

	if err := d.Send(context.Background(), "hi there"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	msgs := d.Messages()
	if len(msgs) != 2 || msgs[1].Text != "hi there" {
		t.Errorf("messages after send = %+v", msgs)
	}

	// The refetch must come after the post, without waiting for a tick.
	recorded := backend.recorded()
	postIdx, getIdx := -1, -1
	for i, req := range recorded {
		if req == "POST /api/chat/message/" {
			postIdx = i
		}
		if req == "GET /api/chat/message/" && i > postIdx && postIdx >= 0 {
			getIdx = i
			break
		}
	}
	if postIdx < 0 || getIdx < 0 {
		t.Errorf("no message refetch after send: %v", recorded)
	}
}

func TestSendFailureKeepsSelection(t *testing.T) {
	backend := &fakeBackend{failSend: true}
	srv := httptest.NewServer(backend.handler(t))
	defer srv.Close()

	d := NewWithInterval(api.NewClient(srv.URL, nil), RouteUser, time.Hour)
	defer d.Close()

	if _, err := d.StartConversation(context.Background(), 10); err != nil {
		t.Fatalf("StartConversation: %v", err)
	}

	if err := d.Send(context.Background(), "doomed"); err == nil {
		t.Fatal("Send succeeded, want error")
	}
	if d.ActiveConversation() == nil {
		t.Error("active conversation cleared by failed send")
	}
	if d.LastSendError() == nil {
		t.Error("LastSendError not recorded")
	}
}

func TestStartConversationWithUnknownUser(t *testing.T) {
	backend := &fakeBackend{missingUser: true}
	srv := httptest.NewServer(backend.handler(t))
	defer srv.Close()

	d := New(api.NewClient(srv.URL, nil), RouteUser)
	defer d.Close()

	_, err := d.StartConversation(context.Background(), 999)
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
	if d.ActiveConversation() != nil {
		t.Error("conversation activated despite missing user")
	}
}

func TestSendToDeletedConversation(t *testing.T) {
	backend := &fakeBackend{}
	srv := httptest.NewServer(backend.handler(t))
	defer srv.Close()

	d := NewWithInterval(api.NewClient(srv.URL, nil), RouteUser, time.Hour)
	defer d.Close()

	if _, err := d.StartConversation(context.Background(), 10); err != nil {
		t.Fatalf("StartConversation: %v", err)
	}

	backend.mu.Lock()
	backend.convGone = true
	backend.mu.Unlock()

	if err := d.Send(context.Background(), "hi"); !errors.Is(err, domain.ErrConversationNotFound) {
		t.Errorf("err = %v, want ErrConversationNotFound", err)
	}
	if d.LastSendError() == nil {
		t.Error("LastSendError not recorded")
	}
}

func TestSendWithoutActiveConversation(t *testing.T) {
	backend := &fakeBackend{}
	srv := httptest.NewServer(backend.handler(t))
	defer srv.Close()

	d := New(api.NewClient(srv.URL, nil), RouteUser)
	defer d.Close()

	if err := d.Send(context.Background(), "hi"); err != domain.ErrNoConversation {
		t.Errorf("err = %v, want ErrNoConversation", err)
	}
}

func TestCloseConversationClearsState(t *testing.T) {
	backend := &fakeBackend{}
	srv := httptest.NewServer(backend.handler(t))
	defer srv.Close()

	d := NewWithInterval(api.NewClient(srv.URL, nil), RouteUser, time.Hour)
	defer d.Close()

	if _, err := d.StartConversation(context.Background(), 10); err != nil {
		t.Fatalf("StartConversation: %v", err)
	}
	d.CloseConversation()

	if d.ActiveConversation() != nil {
		t.Error("active conversation survived close")
	}
	if len(d.Messages()) != 0 {
		t.Error("messages survived close")
	}
}
