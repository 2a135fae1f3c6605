package chat

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/z-advisor/backend/internal/model/chat"
)

var (
	ErrInvalidSender = errors.New("message sender must be user or assistant")
	ErrUnknownReply  = errors.New("reply does not reference a preceding user message")
)

// subscriberBuffer bounds how far an observer may lag before events are dropped.
const subscriberBuffer = 64

// Conversation is the ordered, append-only message history of one session.
// Messages are never mutated or removed once appended.
type Conversation struct {
	sessionID string
	now       func() time.Time

	mu          sync.RWMutex
	messages    []chat.Message
	userIDs     map[string]struct{}
	subscribers map[int]chan chat.Message
	nextSub     int
}

// NewConversation creates an empty conversation for a session.
func NewConversation(sessionID string) *Conversation {
	return &Conversation{
		sessionID:   sessionID,
		now:         func() time.Time { return time.Now().UTC() },
		messages:    make([]chat.Message, 0, 16),
		userIDs:     make(map[string]struct{}),
		subscribers: make(map[int]chan chat.Message),
	}
}

// SessionID returns the owning session identifier.
func (c *Conversation) SessionID() string {
	return c.sessionID
}

// Append stores msg at the end of the history and notifies subscribers. The
// identifier, session and creation time are assigned here; CreatedAt never
// goes backwards relative to the previous message.
func (c *Conversation) Append(msg chat.Message) (chat.Message, error) {
	if msg.Sender != chat.SenderUser && msg.Sender != chat.SenderAssistant {
		return chat.Message{}, fmt.Errorf("%w: %q", ErrInvalidSender, msg.Sender)
	}
	if err := msg.Chart.Validate(); err != nil {
		return chat.Message{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if msg.ReplyTo != "" {
		if _, ok := c.userIDs[msg.ReplyTo]; !ok {
			return chat.Message{}, fmt.Errorf("%w: %s", ErrUnknownReply, msg.ReplyTo)
		}
	}

	msg.ID = uuid.NewString()
	msg.SessionID = c.sessionID
	created := c.now()
	if n := len(c.messages); n > 0 && created.Before(c.messages[n-1].CreatedAt) {
		created = c.messages[n-1].CreatedAt
	}
	msg.CreatedAt = created

	c.messages = append(c.messages, msg)
	if msg.FromUser() {
		c.userIDs[msg.ID] = struct{}{}
	}

	for _, ch := range c.subscribers {
		select {
		case ch <- msg:
		default:
		}
	}
	return msg, nil
}

// Messages returns a copy of the history in insertion order.
func (c *Conversation) Messages() []chat.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	copied := make([]chat.Message, len(c.messages))
	copy(copied, c.messages)
	return copied
}

// Len reports the number of stored messages.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Subscribe registers an observer that receives every message appended
// after the call. The returned cancel func closes the channel and is safe to
// call more than once.
func (c *Conversation) Subscribe() (<-chan chat.Message, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan chat.Message, subscriberBuffer)
	c.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subscribers, id)
			close(ch)
			c.mu.Unlock()
		})
	}
	return ch, cancel
}
