package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/z-advisor/backend/internal/analysis/intent"
	"github.com/zhouzirui/z-advisor/backend/internal/logging"
	"github.com/zhouzirui/z-advisor/backend/internal/model/chat"
	"github.com/zhouzirui/z-advisor/backend/internal/model/profile"
)

var (
	ErrProfileRequired = errors.New("profile id is required")
	ErrProfileNotFound = errors.New("profile not found")
	ErrSessionNotFound = errors.New("session not found")
)

// greetingIntent tags the assistant message that opens every conversation.
const greetingIntent = "greeting"

// Service encapsulates conversation state management.
type Service struct {
	opts options
	log  *logrus.Entry

	mu          sync.RWMutex
	sessions    map[string]chat.Session
	controllers map[string]*Controller
}

// NewService bootstraps the in-memory chat service.
func NewService(opts ...Option) *Service {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Service{
		opts:        o,
		log:         logging.Component(o.logger, "chat"),
		sessions:    make(map[string]chat.Session),
		controllers: make(map[string]*Controller),
	}
}

// CreateSession provisions an anonymous session bound to a profile and
// opens its conversation with the greeting.
func (s *Service) CreateSession(_ context.Context, profileID string) (chat.Session, error) {
	if profileID == "" {
		return chat.Session{}, ErrProfileRequired
	}

	p := profile.Profile{ID: profileID}
	if s.opts.profiles != nil {
		found, ok := s.opts.profiles.FindByID(profileID)
		if !ok {
			return chat.Session{}, ErrProfileNotFound
		}
		p = found
	}

	session := chat.Session{
		ID:        uuid.NewString(),
		ProfileID: profileID,
		CreatedAt: time.Now().UTC(),
	}

	conv := NewConversation(session.ID)
	greeting := p.Greeting
	if greeting == "" {
		greeting = intent.Greeting()
	}
	if _, err := conv.Append(chat.Message{Sender: chat.SenderAssistant, Content: greeting, Intent: greetingIntent}); err != nil {
		return chat.Session{}, err
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.controllers[session.ID] = newController(conv, p, s.opts)
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"session": session.ID, "profile": profileID}).Info("session created")
	return session, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// Controller returns the submit controller of a session.
func (s *Service) Controller(sessionID string) (*Controller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ctrl, ok := s.controllers[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ctrl, nil
}

// LoadTranscript returns stored messages for the provided session.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Message, error) {
	ctrl, err := s.Controller(sessionID)
	if err != nil {
		return nil, err
	}
	return ctrl.Conversation().Messages(), nil
}

// SaveMessage appends a message to the session conversation without
// scheduling a reply.
func (s *Service) SaveMessage(_ context.Context, msg chat.Message) (chat.Message, error) {
	ctrl, err := s.Controller(msg.SessionID)
	if err != nil {
		return chat.Message{}, err
	}
	return ctrl.Conversation().Append(msg)
}

// Submit forwards a user submission to the session controller. ok is false
// when the text was blank and nothing was appended.
func (s *Service) Submit(_ context.Context, sessionID string, req Request) (Submission, bool, error) {
	ctrl, err := s.Controller(sessionID)
	if err != nil {
		return Submission{}, false, err
	}
	sub, ok := ctrl.Submit(req)
	return sub, ok, nil
}

// Subscribe observes messages appended to a session after the call.
func (s *Service) Subscribe(sessionID string) (<-chan chat.Message, func(), error) {
	ctrl, err := s.Controller(sessionID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := ctrl.Conversation().Subscribe()
	return ch, cancel, nil
}

// Profile resolves the profile a session is bound to.
func (s *Service) Profile(_ context.Context, sessionID string) (profile.Profile, error) {
	ctrl, err := s.Controller(sessionID)
	if err != nil {
		return profile.Profile{}, err
	}
	return ctrl.profile, nil
}

// Close stops every controller, abandoning replies still in their delay.
func (s *Service) Close() {
	s.mu.RLock()
	controllers := make([]*Controller, 0, len(s.controllers))
	for _, ctrl := range s.controllers {
		controllers = append(controllers, ctrl)
	}
	s.mu.RUnlock()

	for _, ctrl := range controllers {
		ctrl.Close()
	}
}
