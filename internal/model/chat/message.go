package chat

import "time"

// Sender values accepted on a Message.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// Message is a single immutable turn of a conversation.
type Message struct {
	ID        string        `json:"id"`
	SessionID string        `json:"sessionId"`
	Sender    string        `json:"sender"`
	Content   string        `json:"content"`
	Intent    string        `json:"intent,omitempty"`
	ReplyTo   string        `json:"replyTo,omitempty"`
	Chart     *ChartPayload `json:"chart,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

// FromUser reports whether the message was authored by the user.
func (m Message) FromUser() bool {
	return m.Sender == SenderUser
}
