package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/ahelp-app/ahelp-cli/internal/domain"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

var (
	sam  = domain.User{ID: 1, FirstName: "Sam", LastName: "Student"}
	hana = domain.User{ID: 2, FirstName: "Hana", LastName: "Helper"}
)

func TestConversationsLabeledWithPeer(t *testing.T) {
	convs := []domain.Conversation{
		// Sam started this one, so he is participant1.
		{ID: 5, Participant1: sam, Participant2: hana},
	}

	var buf bytes.Buffer
	RenderConversations(&buf, convs, sam.ID)
	out := buf.String()
	if !strings.Contains(out, "Hana Helper") {
		t.Errorf("peer name missing from listing:\n%s", out)
	}
	if strings.Contains(out, "Sam Student") {
		t.Errorf("listing labeled with the user's own name:\n%s", out)
	}

	// The same conversation seen from the other side flips the label.
	buf.Reset()
	RenderConversations(&buf, convs, hana.ID)
	if !strings.Contains(buf.String(), "Sam Student") {
		t.Errorf("peer name missing for participant2:\n%s", buf.String())
	}
}

func TestMessagesHeaderNamesPeer(t *testing.T) {
	conv := &domain.Conversation{ID: 5, Participant1: sam, Participant2: hana}
	msgs := []domain.Message{
		{ID: 1, ConversationID: 5, Text: "hi", Sender: sam, Receiver: hana},
		{ID: 2, ConversationID: 5, Text: "hello", Sender: hana, Receiver: sam},
	}

	var buf bytes.Buffer
	RenderMessages(&buf, conv, msgs, sam.ID)
	out := buf.String()
	if !strings.Contains(out, "Chat with Hana Helper") {
		t.Errorf("header = %q", out)
	}
	if !strings.Contains(out, "Sam Student: hi") || !strings.Contains(out, "Hana Helper: hello") {
		t.Errorf("transcript mangled:\n%s", out)
	}
}

func TestRenderMessagesNilConversation(t *testing.T) {
	var buf bytes.Buffer
	RenderMessages(&buf, nil, nil, 1)
	if buf.Len() != 0 {
		t.Errorf("output for nil conversation: %q", buf.String())
	}
}
