package assistant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"littlesteps/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNewStartsWithGreeting(t *testing.T) {
	c := New()
	defer c.Close()

	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, Greeting, msgs[0].Content)
	assert.Equal(t, models.SenderAI, msgs[0].Sender)
	assert.False(t, c.Pending())
}

func TestSendSchedulesReply(t *testing.T) {
	c := New(WithDelay(10 * time.Millisecond))
	defer c.Close()

	msg, err := c.Send("Is walking at 14 months normal?")
	require.NoError(t, err)
	assert.Equal(t, models.SenderUser, msg.Sender)
	assert.True(t, c.Pending())
	assert.Len(t, c.Messages(), 2)

	require.Eventually(t, func() bool { return len(c.Messages()) == 3 }, time.Second, 5*time.Millisecond)
	last := c.Messages()[2]
	assert.Equal(t, CannedReply, last.Content)
	assert.Equal(t, models.SenderAI, last.Sender)
	assert.False(t, c.Pending())
}

func TestSendIgnoresBlank(t *testing.T) {
	c := New()
	defer c.Close()

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := c.Send(text)
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}
	assert.Len(t, c.Messages(), 1)
	assert.False(t, c.Pending())
}

func TestEachMessageGetsAReply(t *testing.T) {
	c := New(WithDelay(5 * time.Millisecond))
	defer c.Close()

	_, err := c.Send("one")
	require.NoError(t, err)
	_, err = c.Send("two")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(c.Messages()) == 5 }, time.Second, 5*time.Millisecond)
}

func TestCloseCancelsPendingReply(t *testing.T) {
	c := New(WithDelay(20 * time.Millisecond))
	_, err := c.Send("hello")
	require.NoError(t, err)

	c.Close()
	assert.False(t, c.Pending())

	time.Sleep(50 * time.Millisecond)
	assert.Len(t, c.Messages(), 2)

	_, err = c.Send("again")
	assert.ErrorIs(t, err, ErrClosed)
	c.Close()
}

func TestWithClockStampsMessages(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	c := New(WithClock(func() time.Time { return at }))
	defer c.Close()

	msg, err := c.Send("hi")
	require.NoError(t, err)
	assert.Equal(t, at, msg.Timestamp)
	assert.Equal(t, at, c.Messages()[0].Timestamp)
}

func TestConversationsRegistry(t *testing.T) {
	cs := NewConversations(WithDelay(time.Hour))

	a, err := cs.For("a")
	require.NoError(t, err)
	again, err := cs.For("a")
	require.NoError(t, err)
	b, err := cs.For("b")
	require.NoError(t, err)
	assert.Same(t, a, again)
	assert.NotSame(t, a, b)

	_, err = a.Send("question")
	require.NoError(t, err)
	assert.Len(t, b.Messages(), 1)

	cs.Close()
	assert.False(t, a.Pending())
	_, err = cs.For("a")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestConversationsEvictIdle(t *testing.T) {
	cs := NewConversations(WithDelay(time.Hour))
	defer cs.Close()

	now := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	cs.now = func() time.Time { return now }

	idle, err := cs.For("idle")
	require.NoError(t, err)
	_, err = idle.Send("anyone there?")
	require.NoError(t, err)
	require.True(t, idle.Pending())

	now = now.Add(45 * time.Minute)
	active, err := cs.For("active")
	require.NoError(t, err)

	assert.Equal(t, 1, cs.EvictIdle(30*time.Minute))
	assert.Equal(t, 1, cs.Len())

	// the pending reply was cancelled with the conversation
	assert.False(t, idle.Pending())
	_, err = idle.Send("hello?")
	assert.ErrorIs(t, err, ErrClosed)

	again, err := cs.For("active")
	require.NoError(t, err)
	assert.Same(t, active, again)

	fresh, err := cs.For("idle")
	require.NoError(t, err)
	assert.NotSame(t, idle, fresh)
	assert.Len(t, fresh.Messages(), 1)
}
