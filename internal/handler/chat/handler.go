package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/z-advisor/backend/internal/middleware"
	"github.com/zhouzirui/z-advisor/backend/internal/model/chat"
	chatService "github.com/zhouzirui/z-advisor/backend/internal/service/chat"
	"github.com/zhouzirui/z-advisor/backend/pkg/utils"
)

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
	limiter *middleware.RateLimiter
}

// New 创建聊天处理器，limiter 为空时不限流
func New(chatSvc *chatService.Service, limiter *middleware.RateLimiter) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		limiter: limiter,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Get("/sessions/{sessionID}/messages", h.handleListMessages)

	submit := r
	if h.limiter != nil {
		submit = r.With(h.limiter.Handler)
	}
	submit.Post("/sessions/{sessionID}/messages", h.handleSubmit)
}

type transcriptResponse struct {
	SessionID string            `json:"sessionId"`
	State     chatService.State `json:"state"`
	Pending   int               `json:"pending"`
	Messages  []chat.Message    `json:"messages"`
}

type submitResponse struct {
	Status  string        `json:"status"`
	Message *chat.Message `json:"message,omitempty"`
}

// handleCreateSession 创建会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ProfileID string `json:"profileId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.ProfileID == "" {
		utils.RespondError(w, http.StatusBadRequest, "profileId is required")
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), payload.ProfileID)
	if err != nil {
		if errors.Is(err, chatService.ErrProfileNotFound) {
			utils.RespondError(w, http.StatusBadRequest, "profile not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session)
}

// handleListMessages 返回会话的完整消息记录
func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	ctrl, err := h.chatSvc.Controller(sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, transcriptResponse{
		SessionID: sessionID,
		State:     ctrl.State(),
		Pending:   ctrl.Pending(),
		Messages:  ctrl.Conversation().Messages(),
	})
}

// handleSubmit 提交用户消息，回复通过流式接口或轮询获取
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req chatService.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sub, ok, err := h.chatSvc.Submit(r.Context(), sessionID, req)
	if err != nil {
		if errors.Is(err, chatService.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if !ok {
		utils.RespondJSON(w, http.StatusOK, submitResponse{Status: "ignored"})
		return
	}

	utils.RespondJSON(w, http.StatusAccepted, submitResponse{Status: "queued", Message: &sub.Message})
}
