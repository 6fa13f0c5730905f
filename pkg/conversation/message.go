package conversation

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/simplechat/pkg/llm"
)

// Kind tells how Content should be interpreted.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Message is one entry of the conversation. Messages are handed out by value
// and never change after they are appended.
type Message struct {
	ID        string
	Author    llm.Role
	Kind      Kind
	Content   string // Text, or a data URI for image messages
	Seq       int    // Position in the conversation, starting at 1
	Timestamp time.Time
}

func newMessage(author llm.Role, kind Kind, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Author:    author,
		Kind:      kind,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// State is a snapshot of the conversation for a rendering layer.
type State struct {
	Messages []Message
	// Pending is true while at least one completion is outstanding.
	Pending bool
}

// Last returns the most recent message, if any.
func (s State) Last() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}
