package profile

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/z-advisor/backend/internal/model/profile"
	"github.com/zhouzirui/z-advisor/backend/pkg/utils"
)

// Handler 用户档案服务的HTTP处理器
type Handler struct {
	profiles profile.Store
}

// New 创建档案处理器
func New(profiles profile.Store) *Handler {
	return &Handler{
		profiles: profiles,
	}
}

// RegisterRoutes 注册档案相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/profiles", h.handleListProfiles)
	r.Get("/profiles/{profileID}", h.handleGetProfile)
}

// profileView 侧边栏展示用的档案，附带退休目标进度
type profileView struct {
	profile.Profile
	GoalProgress      float64 `json:"goalProgress"`
	YearsToRetirement int     `json:"yearsToRetirement"`
}

func newProfileView(p profile.Profile) profileView {
	return profileView{
		Profile:           p,
		GoalProgress:      p.GoalProgress(),
		YearsToRetirement: p.YearsToRetirement(),
	}
}

// handleListProfiles 列出所有档案
func (h *Handler) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles := h.profiles.List()
	views := make([]profileView, 0, len(profiles))
	for _, p := range profiles {
		views = append(views, newProfileView(p))
	}
	utils.RespondJSON(w, http.StatusOK, views)
}

// handleGetProfile 获取单个档案
func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := h.profiles.FindByID(chi.URLParam(r, "profileID"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "profile not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, newProfileView(p))
}
