package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ahelp-app/ahelp-cli/internal/domain"
)

type getOrCreateRequest struct {
	OtherUserID int64 `json:"other_user_id"`
}

// GetOrCreateConversation returns the conversation with the given user,
// creating it when none exists. The call is idempotent: the same
// other_user_id always yields the same conversation id.
func (c *Client) GetOrCreateConversation(ctx context.Context, otherUserID int64) (*domain.Conversation, error) {
	var conv domain.Conversation
	if err := c.do(ctx, http.MethodPost, "/api/chat/conversation/get_or_create/", getOrCreateRequest{OtherUserID: otherUserID}, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// MyConversations lists the conversations the session participates in.
func (c *Client) MyConversations(ctx context.Context) ([]domain.Conversation, error) {
	var convs []domain.Conversation
	if err := c.do(ctx, http.MethodGet, "/api/chat/conversation/my_conversations/", nil, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// ListConversations lists every conversation (admin only).
func (c *Client) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	var convs []domain.Conversation
	if err := c.do(ctx, http.MethodGet, "/api/chat/conversation/", nil, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// Messages fetches a conversation's messages in the backend's order
// (created_at/id ascending); the client never re-sorts.
func (c *Client) Messages(ctx context.Context, conversationID int64) ([]domain.Message, error) {
	var msgs []domain.Message
	path := fmt.Sprintf("/api/chat/message/?conversation_id=%d", conversationID)
	if err := c.do(ctx, http.MethodGet, path, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// sendMessageRequest deliberately posts sender_id and receiver_id as
// null: the backend resolves both from the authenticated session.
type sendMessageRequest struct {
	Conversation int64  `json:"conversation"`
	Text         string `json:"text"`
	SenderID     *int64 `json:"sender_id"`
	ReceiverID   *int64 `json:"receiver_id"`
}

// SendMessage posts a message to a conversation.
func (c *Client) SendMessage(ctx context.Context, conversationID int64, text string) error {
	return c.do(ctx, http.MethodPost, "/api/chat/message/", sendMessageRequest{
		Conversation: conversationID,
		Text:         text,
	}, nil)
}
