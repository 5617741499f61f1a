package message

import "time"

// Role represents the role of the message sender
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message represents a single entry in a conversation transcript.
type Message struct {
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewMessage creates a new message with the given role and content
func NewMessage(role Role, content string) *Message {
	return &Message{
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// Clone creates a deep copy of the message.
func Clone(msg *Message) *Message {
	if msg == nil {
		return nil
	}
	cloned := *msg
	if msg.Metadata != nil {
		cloned.Metadata = make(map[string]any, len(msg.Metadata))
		for k, v := range msg.Metadata {
			cloned.Metadata[k] = v
		}
	}
	return &cloned
}

// CloneMessages copies a slice of messages.
func CloneMessages(msgs []*Message) []*Message {
	if len(msgs) == 0 {
		return nil
	}
	clones := make([]*Message, 0, len(msgs))
	for _, msg := range msgs {
		clones = append(clones, Clone(msg))
	}
	return clones
}

// RecentExchanges returns the tail of a transcript covering the last n
// user/assistant exchanges (2n messages). The transcript itself is never
// modified; callers receive a sub-slice view.
func RecentExchanges(msgs []*Message, n int) []*Message {
	if n <= 0 || len(msgs) == 0 {
		return nil
	}
	limit := 2 * n
	if len(msgs) <= limit {
		return msgs
	}
	return msgs[len(msgs)-limit:]
}
