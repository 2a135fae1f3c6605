package chat

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/z-advisor/backend/internal/analysis/intent"
	"github.com/zhouzirui/z-advisor/backend/internal/logging"
	"github.com/zhouzirui/z-advisor/backend/internal/model/chat"
	"github.com/zhouzirui/z-advisor/backend/internal/model/profile"
)

// State describes whether a controller is waiting on a reply.
type State string

const (
	StateIdle     State = "idle"
	StateAwaiting State = "awaiting-response"
)

// Request is one user submission.
type Request struct {
	Text string `json:"content"`
	Risk string `json:"risk,omitempty"`
}

// Responder produces free-form advisor text for utterances the keyword
// classifier cannot place.
type Responder interface {
	Respond(ctx context.Context, p profile.Profile, history []chat.Message, utterance string) (string, error)
}

// Recommender renders investment picks for a risk level.
type Recommender interface {
	Summary(risk string) string
}

// Option configures a Service and the controllers it creates.
type Option func(*options)

type options struct {
	delay            time.Duration
	classify         func(string) intent.Response
	responder        Responder
	responderTimeout time.Duration
	recommender      Recommender
	profiles         profile.Store
	logger           logrus.FieldLogger
}

func defaultOptions() options {
	return options{
		classify:         intent.Classify,
		responderTimeout: 20 * time.Second,
	}
}

// WithDelay sets the simulated latency before a reply is produced.
func WithDelay(d time.Duration) Option {
	return func(o *options) {
		if d < 0 {
			d = 0
		}
		o.delay = d
	}
}

// WithClassifier replaces the keyword classifier.
func WithClassifier(fn func(string) intent.Response) Option {
	return func(o *options) {
		if fn != nil {
			o.classify = fn
		}
	}
}

// WithResponder enables free-form replies for fallback utterances.
func WithResponder(r Responder, timeout time.Duration) Option {
	return func(o *options) {
		o.responder = r
		if timeout > 0 {
			o.responderTimeout = timeout
		}
	}
}

// WithRecommender enables risk-based picks on submissions carrying a risk.
func WithRecommender(r Recommender) Option {
	return func(o *options) { o.recommender = r }
}

// WithProfiles binds sessions to the profile store.
func WithProfiles(store profile.Store) Option {
	return func(o *options) { o.profiles = store }
}

// WithLogger sets the logger used by the service and its controllers.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) { o.logger = logger }
}

// Submission is an accepted user message and the channel its reply arrives on.
type Submission struct {
	Message chat.Message
	Reply   <-chan chat.Message
}

// Controller owns the submit flow of a single conversation. Overlapping
// submissions are not serialized: each schedules its own reply.
type Controller struct {
	conv    *Conversation
	profile profile.Profile
	opts    options
	log     *logrus.Entry

	pending atomic.Int64
	wg      sync.WaitGroup

	// ctx is cancelled by Close. mu orders Close against Submit's wg.Add
	// and against reply appends.
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

// NewController creates a controller for conv answering on behalf of p.
func NewController(conv *Conversation, p profile.Profile, opts ...Option) *Controller {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newController(conv, p, o)
}

func newController(conv *Conversation, p profile.Profile, o options) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		conv:    conv,
		profile: p,
		opts:    o,
		log:     logging.Component(o.logger, "chat").WithField("session", conv.SessionID()),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Conversation returns the conversation owned by the controller.
func (c *Controller) Conversation() *Conversation {
	return c.conv
}

// Submit appends the user's text and schedules the assistant reply. Blank
// input is ignored and reported with ok=false. The Reply channel yields the
// assistant message once it is appended and is then closed; it is closed
// without a value if the controller shuts down first.
func (c *Controller) Submit(req Request) (Submission, bool) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return Submission{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return Submission{}, false
	}

	userMsg, err := c.conv.Append(chat.Message{Sender: chat.SenderUser, Content: text})
	if err != nil {
		c.log.WithField(logging.ErrorField, err).Warn("failed to append user message")
		return Submission{}, false
	}

	reply := make(chan chat.Message, 1)
	c.pending.Add(1)
	c.wg.Add(1)
	go c.respond(userMsg, strings.TrimSpace(req.Risk), reply)

	return Submission{Message: userMsg, Reply: reply}, true
}

func (c *Controller) respond(userMsg chat.Message, risk string, reply chan<- chat.Message) {
	var appended *chat.Message
	defer func() {
		c.pending.Add(-1)
		if appended != nil {
			reply <- *appended
		}
		close(reply)
		c.wg.Done()
	}()

	if c.opts.delay > 0 {
		timer := time.NewTimer(c.opts.delay)
		select {
		case <-timer.C:
		case <-c.ctx.Done():
			timer.Stop()
			return
		}
	}

	resp := c.opts.classify(userMsg.Content)
	content := resp.Reply

	if resp.Intent == intent.Fallback && c.opts.responder != nil {
		if text, ok := c.freeform(userMsg.Content); ok {
			content = text
		}
	}

	if risk != "" && c.opts.recommender != nil {
		content = content + "\n\n" + c.opts.recommender.Summary(risk)
	}

	// Replies still in flight when the controller closes are dropped.
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	msg, err := c.conv.Append(chat.Message{
		Sender:  chat.SenderAssistant,
		Content: content,
		Intent:  string(resp.Intent),
		ReplyTo: userMsg.ID,
		Chart:   resp.Chart,
	})
	c.mu.Unlock()
	if err != nil {
		c.log.WithField(logging.ErrorField, err).Error("failed to append assistant message")
		return
	}

	c.log.WithFields(logrus.Fields{"intent": resp.Intent, "replyTo": userMsg.ID}).Debug("assistant replied")
	appended = &msg
}

func (c *Controller) freeform(utterance string) (string, bool) {
	ctx, cancel := context.WithTimeout(c.ctx, c.opts.responderTimeout)
	defer cancel()

	text, err := c.opts.responder.Respond(ctx, c.profile, c.conv.Messages(), utterance)
	if err != nil {
		if c.ctx.Err() != nil {
			return "", false
		}
		c.log.WithField(logging.ErrorField, err).Warn("responder failed, using canned fallback")
		return "", false
	}
	text = strings.TrimSpace(text)
	return text, text != ""
}

// State reports idle or awaiting-response.
func (c *Controller) State() State {
	if c.pending.Load() > 0 {
		return StateAwaiting
	}
	return StateIdle
}

// Pending returns the number of replies not yet appended.
func (c *Controller) Pending() int {
	return int(c.pending.Load())
}

// Wait blocks until every scheduled reply has been appended or abandoned.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close abandons replies that have not been appended yet, cancelling any
// responder call in flight, and rejects further submissions.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.cancel()
		c.mu.Unlock()
	})
	c.wg.Wait()
}
