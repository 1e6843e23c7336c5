// Package dashboard holds the per-role client state: contact list,
// conversation list, the active conversation and its message poll loop.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ahelp-app/ahelp-cli/internal/api"
	"github.com/ahelp-app/ahelp-cli/internal/chat"
	"github.com/ahelp-app/ahelp-cli/internal/config"
	"github.com/ahelp-app/ahelp-cli/internal/domain"
)

// Contact is one entry in the role-specific contact list: helpers for a
// common user, assigned users for a helper, every user for an admin.
type Contact struct {
	UserID    int64
	Label     string
	Available bool
	Rating    *float64
	HelperID  int64 // set when the contact is a helper profile
}

// Dashboard drives one signed-in dashboard session. The contact source
// is fixed by the route at construction; the role is not expected to
// change while the dashboard lives.
//
// Lock order: methods never hold mu while calling into the poller; the
// poller's sink takes mu on delivery.
type Dashboard struct {
	api    *api.Client
	route  Route
	poller *chat.Poller

	mu            sync.Mutex
	contacts      []Contact
	helpers       []domain.HelperProfile
	ownProfile    *domain.HelperProfile
	conversations []domain.Conversation
	active        *domain.Conversation
	messages      []domain.Message
	lastSendErr   error
}

// New builds a dashboard for the given route polling at the standard
// interval.
func New(client *api.Client, route Route) *Dashboard {
	return NewWithInterval(client, route, config.PollInterval)
}

// NewWithInterval exists for tests that shrink the poll interval.
func NewWithInterval(client *api.Client, route Route, interval time.Duration) *Dashboard {
	d := &Dashboard{api: client, route: route}
	d.poller = chat.NewPoller(client, interval, d.applyMessages)
	return d
}

func (d *Dashboard) Route() Route { return d.route }

// Open loads the role-specific contact list and the conversation list.
func (d *Dashboard) Open(ctx context.Context) error {
	contacts, err := d.loadContacts(ctx)
	if err != nil {
		return err
	}

	convs, err := d.loadConversations(ctx)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.contacts = contacts
	d.conversations = convs
	d.mu.Unlock()
	return nil
}

// loadContacts is the single role-dispatch point for the contact list.
func (d *Dashboard) loadContacts(ctx context.Context) ([]Contact, error) {
	switch d.route {
	case RouteHelper:
		return d.loadAssignedUsers(ctx)
	case RouteAdmin:
		return d.loadAllUsers(ctx)
	default:
		return d.loadHelperDirectory(ctx)
	}
}

func (d *Dashboard) loadHelperDirectory(ctx context.Context) ([]Contact, error) {
	helpers, err := d.api.ListHelpers(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch helpers: %w", err)
	}

	contacts := make([]Contact, 0, len(helpers))
	for _, h := range helpers {
		contacts = append(contacts, Contact{
			UserID:    h.User.ID,
			Label:     h.User.FullName(),
			Available: h.IsAvailable,
			Rating:    h.Rating,
			HelperID:  h.ID,
		})
	}

	d.mu.Lock()
	d.helpers = helpers
	d.mu.Unlock()
	return contacts, nil
}

// loadAssignedUsers resolves the helper's own profile first; the backend
// scopes the helper listing to the authenticated helper.
func (d *Dashboard) loadAssignedUsers(ctx context.Context) ([]Contact, error) {
	profile, err := d.fetchOwnProfile(ctx)
	if err != nil {
		return nil, err
	}

	users, err := d.api.AssignedUsers(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch assigned users: %w", err)
	}

	contacts := make([]Contact, 0, len(users))
	for _, u := range users {
		contacts = append(contacts, Contact{UserID: u.ID, Label: u.FullName(), Available: true})
	}
	return contacts, nil
}

func (d *Dashboard) loadAllUsers(ctx context.Context) ([]Contact, error) {
	users, err := d.api.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}

	// Admins also see the helper directory for assignment management.
	helpers, err := d.api.ListHelpers(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch helpers: %w", err)
	}

	contacts := make([]Contact, 0, len(users))
	for _, u := range users {
		contacts = append(contacts, Contact{UserID: u.ID, Label: u.FullName(), Available: true})
	}

	d.mu.Lock()
	d.helpers = helpers
	d.mu.Unlock()
	return contacts, nil
}

func (d *Dashboard) fetchOwnProfile(ctx context.Context) (*domain.HelperProfile, error) {
	helpers, err := d.api.ListHelpers(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch own profile: %w", err)
	}
	if len(helpers) == 0 {
		return nil, domain.ErrHelperNotFound
	}
	profile := helpers[0]

	d.mu.Lock()
	d.ownProfile = &profile
	d.mu.Unlock()
	return &profile, nil
}

func (d *Dashboard) loadConversations(ctx context.Context) ([]domain.Conversation, error) {
	// Admins see every conversation; everyone else only their own.
	if d.route == RouteAdmin {
		convs, err := d.api.ListConversations(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch conversations: %w", err)
		}
		return convs, nil
	}
	convs, err := d.api.MyConversations(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch conversations: %w", err)
	}
	return convs, nil
}

// StartConversation get-or-creates the conversation with otherUserID,
// makes it active and starts polling it.
func (d *Dashboard) StartConversation(ctx context.Context, otherUserID int64) (*domain.Conversation, error) {
	conv, err := d.api.GetOrCreateConversation(ctx, otherUserID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("start conversation: %w", err)
	}
	d.activate(ctx, *conv)

	if convs, err := d.loadConversations(ctx); err == nil {
		d.mu.Lock()
		d.conversations = convs
		d.mu.Unlock()
	}
	return conv, nil
}

// SelectConversation makes conv active and starts polling it. Selecting
// a new conversation always stops the previous poll first.
func (d *Dashboard) SelectConversation(ctx context.Context, conv domain.Conversation) {
	d.activate(ctx, conv)
}

func (d *Dashboard) activate(ctx context.Context, conv domain.Conversation) {
	d.mu.Lock()
	d.active = &conv
	d.messages = nil
	d.lastSendErr = nil
	d.mu.Unlock()

	d.poller.Watch(ctx, conv.ID)
}

// CloseConversation clears the active conversation and stops its poll
// loop.
func (d *Dashboard) CloseConversation() {
	d.poller.Stop()

	d.mu.Lock()
	d.active = nil
	d.messages = nil
	d.lastSendErr = nil
	d.mu.Unlock()
}

// Send posts text to the active conversation, then refetches messages
// immediately so the sender sees their own message without waiting for
// the next tick. A failed send keeps the conversation selected.
func (d *Dashboard) Send(ctx context.Context, text string) error {
	d.mu.Lock()
	active := d.active
	d.mu.Unlock()
	if active == nil {
		return domain.ErrNoConversation
	}

	if err := d.api.SendMessage(ctx, active.ID, text); err != nil {
		d.mu.Lock()
		d.lastSendErr = err
		d.mu.Unlock()
		if isNotFound(err) {
			// The conversation was deleted out from under the selection.
			return domain.ErrConversationNotFound
		}
		return fmt.Errorf("send message: %w", err)
	}

	d.mu.Lock()
	d.lastSendErr = nil
	d.mu.Unlock()

	d.poller.Refresh(ctx)

	if convs, err := d.loadConversations(ctx); err == nil {
		d.mu.Lock()
		d.conversations = convs
		d.mu.Unlock()
	} else {
		slog.Warn("conversation list refresh failed", "error", err)
	}
	return nil
}

// ToggleAvailability flips the helper's availability flag.
func (d *Dashboard) ToggleAvailability(ctx context.Context) (bool, error) {
	profile, err := d.fetchOwnProfile(ctx)
	if err != nil {
		return false, err
	}
	next := !profile.IsAvailable
	if err := d.api.UpdateAvailability(ctx, profile.ID, next); err != nil {
		return profile.IsAvailable, fmt.Errorf("update availability: %w", err)
	}

	d.mu.Lock()
	if d.ownProfile != nil {
		d.ownProfile.IsAvailable = next
	}
	d.mu.Unlock()
	return next, nil
}

// AssignUser assigns a user to a helper and refreshes the directory
// (admin action).
func (d *Dashboard) AssignUser(ctx context.Context, helperID, userID int64) error {
	if err := d.api.AssignUser(ctx, helperID, userID); err != nil {
		return err
	}
	if helpers, err := d.api.ListHelpers(ctx); err == nil {
		d.mu.Lock()
		d.helpers = helpers
		d.mu.Unlock()
	}
	return nil
}

// DeleteHelper removes a helper profile and refreshes the directory
// (admin action).
func (d *Dashboard) DeleteHelper(ctx context.Context, helperID int64) error {
	if err := d.api.DeleteHelper(ctx, helperID); err != nil {
		return err
	}
	if helpers, err := d.api.ListHelpers(ctx); err == nil {
		d.mu.Lock()
		d.helpers = helpers
		d.mu.Unlock()
	}
	return nil
}

// isNotFound reports whether err is a backend 404.
func isNotFound(err error) bool {
	var apiErr *api.Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Close stops any active polling. The dashboard must not be used after.
func (d *Dashboard) Close() {
	d.poller.Stop()
}

// applyMessages is the poller sink.
func (d *Dashboard) applyMessages(conversationID int64, msgs []domain.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active == nil || d.active.ID != conversationID {
		return
	}
	d.messages = msgs
}

func (d *Dashboard) Contacts() []Contact {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Contact(nil), d.contacts...)
}

func (d *Dashboard) Helpers() []domain.HelperProfile {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.HelperProfile(nil), d.helpers...)
}

func (d *Dashboard) OwnProfile() *domain.HelperProfile {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ownProfile == nil {
		return nil
	}
	cp := *d.ownProfile
	return &cp
}

func (d *Dashboard) Conversations() []domain.Conversation {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.Conversation(nil), d.conversations...)
}

func (d *Dashboard) ActiveConversation() *domain.Conversation {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active == nil {
		return nil
	}
	cp := *d.active
	return &cp
}

func (d *Dashboard) Messages() []domain.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.Message(nil), d.messages...)
}

func (d *Dashboard) LastSendError() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastSendErr
}
