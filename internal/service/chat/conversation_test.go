package chat

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/z-advisor/backend/internal/model/chat"
)

func TestConversationAppendAssignsIdentity(t *testing.T) {
	conv := NewConversation("s1")

	msg, err := conv.Append(chat.Message{Sender: chat.SenderUser, Content: "hi", ID: "ignored", SessionID: "other"})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.NotEqual(t, "ignored", msg.ID)
	assert.Equal(t, "s1", msg.SessionID)
	assert.False(t, msg.CreatedAt.IsZero())
}

func TestConversationRejectsInvalidMessages(t *testing.T) {
	conv := NewConversation("s1")

	_, err := conv.Append(chat.Message{Sender: "system", Content: "x"})
	assert.True(t, errors.Is(err, ErrInvalidSender))

	_, err = conv.Append(chat.Message{Sender: chat.SenderAssistant, Content: "x", ReplyTo: "nope"})
	assert.True(t, errors.Is(err, ErrUnknownReply))

	_, err = conv.Append(chat.Message{Sender: chat.SenderAssistant, Content: "x", Chart: &chat.ChartPayload{Kind: chat.ChartPie}})
	assert.True(t, errors.Is(err, chat.ErrInvalidChart))

	assert.Equal(t, 0, conv.Len())
}

func TestConversationReplyMustReferenceUserMessage(t *testing.T) {
	conv := NewConversation("s1")
	greeting, err := conv.Append(chat.Message{Sender: chat.SenderAssistant, Content: "hello"})
	require.NoError(t, err)

	_, err = conv.Append(chat.Message{Sender: chat.SenderAssistant, Content: "x", ReplyTo: greeting.ID})
	assert.True(t, errors.Is(err, ErrUnknownReply))

	user, err := conv.Append(chat.Message{Sender: chat.SenderUser, Content: "q"})
	require.NoError(t, err)
	_, err = conv.Append(chat.Message{Sender: chat.SenderAssistant, Content: "a", ReplyTo: user.ID})
	assert.NoError(t, err)
}

func TestConversationCreatedAtIsMonotonic(t *testing.T) {
	conv := NewConversation("s1")
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ticks := []time.Time{base, base.Add(-time.Minute), base.Add(time.Second)}
	i := 0
	conv.now = func() time.Time {
		t := ticks[i]
		i++
		return t
	}

	for range ticks {
		_, err := conv.Append(chat.Message{Sender: chat.SenderUser, Content: "x"})
		require.NoError(t, err)
	}

	msgs := conv.Messages()
	assert.Equal(t, base, msgs[0].CreatedAt)
	assert.Equal(t, base, msgs[1].CreatedAt)
	assert.Equal(t, base.Add(time.Second), msgs[2].CreatedAt)
}

func TestConversationMessagesIsCopy(t *testing.T) {
	conv := NewConversation("s1")
	_, err := conv.Append(chat.Message{Sender: chat.SenderUser, Content: "original"})
	require.NoError(t, err)

	msgs := conv.Messages()
	msgs[0].Content = "changed"

	assert.Equal(t, "original", conv.Messages()[0].Content)
}

func TestConversationSubscribe(t *testing.T) {
	conv := NewConversation("s1")
	_, err := conv.Append(chat.Message{Sender: chat.SenderUser, Content: "before"})
	require.NoError(t, err)

	ch, cancel := conv.Subscribe()
	appended, err := conv.Append(chat.Message{Sender: chat.SenderUser, Content: "after"})
	require.NoError(t, err)

	got := <-ch
	assert.Equal(t, appended.ID, got.ID)

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)

	_, err = conv.Append(chat.Message{Sender: chat.SenderUser, Content: "late"})
	assert.NoError(t, err)
}
