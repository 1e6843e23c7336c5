package tui

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/ahelp-app/ahelp-cli/internal/dashboard"
	"github.com/ahelp-app/ahelp-cli/internal/domain"
)

var (
	heading   = color.New(color.FgCyan, color.Bold).SprintFunc()
	accent    = color.New(color.FgGreen).SprintFunc()
	dim       = color.New(color.Faint).SprintFunc()
	warnColor = color.New(color.FgRed).SprintFunc()
	peerColor = color.New(color.FgYellow).SprintFunc()
)

// RenderContacts prints the role-specific contact list. A non-zero
// minRating hides helpers rated below it, mirroring the directory
// filter of the original dashboard.
func RenderContacts(w io.Writer, contacts []dashboard.Contact, minRating float64) {
	fmt.Fprintln(w, heading("Contacts"))
	if len(contacts) == 0 {
		fmt.Fprintln(w, dim("  nobody here yet"))
		return
	}
	for i, c := range contacts {
		if minRating > 0 && (c.Rating == nil || *c.Rating < minRating) {
			continue
		}
		line := fmt.Sprintf("  %2d. %s", i+1, c.Label)
		if c.Rating != nil {
			line += dim(fmt.Sprintf("  %.1f★", *c.Rating))
		}
		if c.Available {
			line += accent("  available")
		}
		fmt.Fprintln(w, line)
	}
}

// RenderConversations prints the conversation list with last-message
// previews. Each entry is labeled with the participant that is not
// selfID.
func RenderConversations(w io.Writer, convs []domain.Conversation, selfID int64) {
	fmt.Fprintln(w, heading("Conversations"))
	if len(convs) == 0 {
		fmt.Fprintln(w, dim("  no conversations yet"))
		return
	}
	for i, conv := range convs {
		preview := "no messages yet"
		if conv.LastMessage != nil {
			preview = conv.LastMessage.Text
		}
		line := fmt.Sprintf("  %2d. %s — %s", i+1, conv.Other(selfID).FullName(), dim(preview))
		if conv.UnreadCount > 0 {
			line += warnColor(fmt.Sprintf(" (%d unread)", conv.UnreadCount))
		}
		fmt.Fprintln(w, line)
	}
}

// RenderMessages prints a conversation transcript in backend order. The
// signed-in user's own messages get the accent color, the peer's the
// peer color.
func RenderMessages(w io.Writer, conv *domain.Conversation, msgs []domain.Message, selfID int64) {
	if conv == nil {
		return
	}
	fmt.Fprintln(w, heading("Chat with "+conv.Other(selfID).FullName()))
	for _, msg := range msgs {
		name := msg.Sender.FullName()
		if msg.Sender.ID == selfID {
			name = accent(name)
		} else {
			name = peerColor(name)
		}
		fmt.Fprintf(w, "  %s %s: %s\n", dim(msg.CreatedAt.Local().Format("15:04")), name, msg.Text)
	}
}

// RenderError prints a user-facing error line.
func RenderError(w io.Writer, msg string) {
	fmt.Fprintln(w, warnColor("! "+msg))
}
