package export

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/z-advisor/backend/internal/logging"
	chatService "github.com/zhouzirui/z-advisor/backend/internal/service/chat"
	"github.com/zhouzirui/z-advisor/backend/internal/service/export"
	"github.com/zhouzirui/z-advisor/backend/internal/service/share"
	"github.com/zhouzirui/z-advisor/backend/pkg/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler 会话导出与分享的HTTP处理器
type Handler struct {
	chatSvc       *chatService.Service
	publicBaseURL string
	log           logrus.FieldLogger
}

// New 创建导出处理器，publicBaseURL 用于生成分享链接
func New(chatSvc *chatService.Service, publicBaseURL string, logger logrus.FieldLogger) *Handler {
	return &Handler{
		chatSvc:       chatSvc,
		publicBaseURL: publicBaseURL,
		log:           logging.Component(logger, "export"),
	}
}

// RegisterRoutes 注册导出相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/export", h.handleExport)
	r.Get("/sessions/{sessionID}/share", h.handleShare)
}

// handleExport 将会话记录和图表数据导出为xlsx
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	p, err := h.chatSvc.Profile(r.Context(), sessionID)
	if err != nil {
		h.respondLookupError(w, err)
		return
	}
	messages, err := h.chatSvc.LoadTranscript(r.Context(), sessionID)
	if err != nil {
		h.respondLookupError(w, err)
		return
	}

	book, err := export.Build(p, messages)
	if err != nil {
		h.log.WithError(err).WithField("session", sessionID).Error("build workbook")
		utils.RespondError(w, http.StatusInternalServerError, "export failed")
		return
	}
	defer book.Close()

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="conversation-%s.xlsx"`, sessionID))
	if _, err := book.WriteTo(w); err != nil {
		h.log.WithError(err).WithField("session", sessionID).Warn("write workbook")
	}
}

// handleShare 生成指向会话的二维码PNG
func (h *Handler) handleShare(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if _, err := h.chatSvc.GetSession(r.Context(), sessionID); err != nil {
		h.respondLookupError(w, err)
		return
	}

	size := share.DefaultSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 64 || parsed > 1024 {
			utils.RespondError(w, http.StatusBadRequest, "size must be between 64 and 1024")
			return
		}
		size = parsed
	}

	link, err := share.SessionLink(h.publicBaseURL, sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	png, err := share.QRCode(link, size)
	if err != nil {
		h.log.WithError(err).WithField("session", sessionID).Error("encode qr code")
		utils.RespondError(w, http.StatusInternalServerError, "share failed")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Share-Link", link)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *Handler) respondLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, chatService.ErrSessionNotFound) {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	utils.RespondError(w, http.StatusInternalServerError, err.Error())
}
