package stream

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/z-advisor/backend/internal/logging"
	"github.com/zhouzirui/z-advisor/backend/internal/model/chat"
	chatService "github.com/zhouzirui/z-advisor/backend/internal/service/chat"
	"github.com/zhouzirui/z-advisor/backend/pkg/utils"
)

// DefaultHeartbeat is the interval between keep-alive events on idle streams.
const DefaultHeartbeat = 15 * time.Second

// Handler pushes conversation updates to clients via Server-Sent Events.
type Handler struct {
	chatSvc   *chatService.Service
	heartbeat time.Duration
	log       logrus.FieldLogger
}

// New creates a new stream handler. A non-positive heartbeat selects
// DefaultHeartbeat.
func New(chatSvc *chatService.Service, heartbeat time.Duration, logger logrus.FieldLogger) *Handler {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return &Handler{
		chatSvc:   chatSvc,
		heartbeat: heartbeat,
		log:       logging.Component(logger, "stream"),
	}
}

// RegisterRoutes registers the SSE endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

// Event is the payload of every SSE frame.
type Event struct {
	SessionID string            `json:"sessionId"`
	State     chatService.State `json:"state,omitempty"`
	Message   *chat.Message     `json:"message,omitempty"`
	Messages  []chat.Message    `json:"messages,omitempty"`
	Status    string            `json:"status,omitempty"`
	Finished  bool              `json:"finished,omitempty"`
	Error     string            `json:"error,omitempty"`
	Time      string            `json:"time,omitempty"`
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	ctrl, err := h.chatSvc.Controller(sessionID)
	if err != nil {
		if errors.Is(err, chatService.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	utils.SetupSSEHeaders(w)

	if r.URL.Query().Has("message") {
		h.streamReply(w, r, flusher, ctrl, r.URL.Query().Get("message"))
		return
	}
	h.streamUpdates(w, r, flusher, ctrl)
}

// streamReply submits one utterance and ends the stream once its reply is
// appended.
func (h *Handler) streamReply(w http.ResponseWriter, r *http.Request, flusher http.Flusher, ctrl *chatService.Controller, text string) {
	sessionID := ctrl.Conversation().SessionID()
	req := chatService.Request{Text: text, Risk: r.URL.Query().Get("risk")}

	sub, ok := ctrl.Submit(req)
	if !ok {
		h.send(w, flusher, "end", Event{SessionID: sessionID, Status: "ignored", Finished: true})
		return
	}

	h.send(w, flusher, "start", Event{SessionID: sessionID, State: ctrl.State(), Message: &sub.Message})

	select {
	case <-r.Context().Done():
		h.log.WithField("session", sessionID).Debug("client left before reply")
		return
	case msg, ok := <-sub.Reply:
		if !ok {
			h.send(w, flusher, "error", Event{SessionID: sessionID, Error: "reply abandoned"})
			return
		}
		h.send(w, flusher, "message", Event{SessionID: sessionID, Message: &msg})
	}

	h.send(w, flusher, "end", Event{SessionID: sessionID, State: ctrl.State(), Finished: true})
}

// streamUpdates sends the transcript, then every appended message until the
// client disconnects.
func (h *Handler) streamUpdates(w http.ResponseWriter, r *http.Request, flusher http.Flusher, ctrl *chatService.Controller) {
	conv := ctrl.Conversation()
	sessionID := conv.SessionID()
	logger := h.log.WithField("session", sessionID)

	updates, cancel := conv.Subscribe()
	defer cancel()

	snapshot := conv.Messages()
	seen := make(map[string]struct{}, len(snapshot))
	for _, msg := range snapshot {
		seen[msg.ID] = struct{}{}
	}
	if err := h.send(w, flusher, "snapshot", Event{SessionID: sessionID, State: ctrl.State(), Messages: snapshot}); err != nil {
		return
	}
	logger.Info("opened update stream")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.Info("closed update stream")
			return
		case msg, ok := <-updates:
			if !ok {
				return
			}
			if _, dup := seen[msg.ID]; dup {
				continue
			}
			if err := h.send(w, flusher, "message", Event{SessionID: sessionID, State: ctrl.State(), Message: &msg}); err != nil {
				return
			}
		case t := <-ticker.C:
			if err := h.send(w, flusher, "heartbeat", Event{SessionID: sessionID, State: ctrl.State(), Time: t.UTC().Format(time.RFC3339)}); err != nil {
				return
			}
		}
	}
}

func (h *Handler) send(w http.ResponseWriter, flusher http.Flusher, event string, payload Event) error {
	if err := utils.SendSSEEvent(w, flusher, event, payload); err != nil {
		h.log.WithError(err).WithField("event", event).Debug("failed to write sse event")
		return err
	}
	return nil
}
