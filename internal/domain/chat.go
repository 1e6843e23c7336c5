package domain

import "time"

type LastMessage struct {
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation pairs two participants. The id always comes from the
// backend (conversation list or get_or_create); the client never makes
// one up.
type Conversation struct {
	ID           int64        `json:"id"`
	Participant1 User         `json:"participant1"`
	Participant2 User         `json:"participant2"`
	LastMessage  *LastMessage `json:"last_message"`
	UnreadCount  int          `json:"unread_count"`
}

// Other returns the participant that is not selfID. When selfID matches
// neither participant (admin viewing foreign conversations) the second
// participant is returned.
func (c *Conversation) Other(selfID int64) User {
	if c.Participant1.ID == selfID {
		return c.Participant2
	}
	if c.Participant2.ID == selfID {
		return c.Participant1
	}
	return c.Participant2
}

// Message is append-only from the client's perspective; ordering is
// whatever the backend returns (created_at/id ascending).
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation"`
	Text           string    `json:"text"`
	Sender         User      `json:"sender"`
	Receiver       User      `json:"receiver"`
	CreatedAt      time.Time `json:"created_at"`
}
