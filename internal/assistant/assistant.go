// Package assistant simulates the floating assistant chat. Every question
// receives the same canned answer after a short delay.
package assistant

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"littlesteps/internal/models"
)

const (
	// Greeting opens every conversation.
	Greeting = "Hello! I'm your AI assistant. I can help you with milestone tracking, therapy suggestions, and answer questions about your child's development. How can I help you today?"
	// CannedReply answers every user message.
	CannedReply = "I understand your question. Based on the data I've analyzed, I recommend continuing with the current therapy plan and focusing on communication exercises. Would you like specific activity suggestions?"
	// DefaultDelay is how long the reply takes to arrive.
	DefaultDelay = time.Second
)

var (
	// ErrEmptyMessage is returned for blank input, which is otherwise ignored.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrClosed is returned after the conversation has been torn down.
	ErrClosed = errors.New("conversation is closed")
)

// Option configures a Conversation.
type Option func(*Conversation)

// WithDelay sets the reply delay.
func WithDelay(d time.Duration) Option {
	return func(c *Conversation) { c.delay = d }
}

// WithClock overrides message timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Conversation) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Conversation) { c.logger = logger }
}

// Conversation is one device's chat history. Replies are scheduled on
// timers that Close cancels, so nothing is delivered after teardown.
type Conversation struct {
	mu       sync.Mutex
	messages []models.Message
	pending  map[uint64]*time.Timer
	seq      uint64
	closed   bool

	delay  time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// New starts a conversation with the greeting.
func New(opts ...Option) *Conversation {
	c := &Conversation{
		pending: make(map[uint64]*time.Timer),
		delay:   DefaultDelay,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.messages = []models.Message{c.message(Greeting, models.SenderAI)}
	return c
}

func (c *Conversation) message(text string, sender models.Sender) models.Message {
	return models.Message{
		ID:        uuid.NewString(),
		Content:   text,
		Sender:    sender,
		Timestamp: c.now(),
	}
}

// Send appends the user's message and schedules the canned reply.
func (c *Conversation) Send(text string) (models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return models.Message{}, ErrEmptyMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return models.Message{}, ErrClosed
	}

	msg := c.message(text, models.SenderUser)
	c.messages = append(c.messages, msg)

	c.seq++
	id := c.seq
	c.pending[id] = time.AfterFunc(c.delay, func() { c.reply(id) })
	return msg, nil
}

func (c *Conversation) reply(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pending[id]; !ok || c.closed {
		return
	}
	delete(c.pending, id)
	c.messages = append(c.messages, c.message(CannedReply, models.SenderAI))
	c.logger.Debug("Assistant replied", zap.Int("messages", len(c.messages)))
}

// Messages returns the history in order.
func (c *Conversation) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.messages)
}

// Pending reports whether a reply is still on its way.
func (c *Conversation) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending) > 0
}

// Close cancels pending replies. It is safe to call more than once.
func (c *Conversation) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, t := range c.pending {
		t.Stop()
		delete(c.pending, id)
	}
	c.closed = true
}

// Conversations hands out one Conversation per device.
type Conversations struct {
	mu       sync.Mutex
	byID     map[string]*Conversation
	lastUsed map[string]time.Time
	opts     []Option
	now      func() time.Time
	closed   bool
}

// NewConversations creates a registry; opts apply to every conversation.
func NewConversations(opts ...Option) *Conversations {
	return &Conversations{
		byID:     make(map[string]*Conversation),
		lastUsed: make(map[string]time.Time),
		opts:     opts,
		now:      time.Now,
	}
}

// For returns the device's conversation, starting it on first use.
func (cs *Conversations) For(deviceID string) (*Conversation, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.closed {
		return nil, ErrClosed
	}
	cs.lastUsed[deviceID] = cs.now()
	c, ok := cs.byID[deviceID]
	if !ok {
		c = New(cs.opts...)
		cs.byID[deviceID] = c
	}
	return c, nil
}

// EvictIdle closes conversations not used within maxIdle, cancelling any
// reply still pending, and reports how many went.
func (cs *Conversations) EvictIdle(maxIdle time.Duration) int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cutoff := cs.now().Add(-maxIdle)
	evicted := 0
	for id, used := range cs.lastUsed {
		if used.Before(cutoff) {
			cs.evict(id)
			evicted++
		}
	}
	return evicted
}

// Len reports how many conversations are open.
func (cs *Conversations) Len() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.byID)
}

func (cs *Conversations) evict(deviceID string) {
	if c, ok := cs.byID[deviceID]; ok {
		c.Close()
		delete(cs.byID, deviceID)
	}
	delete(cs.lastUsed, deviceID)
}

// Close tears down every conversation.
func (cs *Conversations) Close() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for id := range cs.byID {
		cs.evict(id)
	}
	cs.closed = true
}
