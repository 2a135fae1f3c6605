package recommend

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/z-advisor/backend/internal/service/recommend"
	"github.com/zhouzirui/z-advisor/backend/pkg/utils"
)

// maxPicks 单次请求允许返回的最大推荐数
const maxPicks = 20

// Handler 投资推荐的HTTP处理器
type Handler struct {
	catalog *recommend.Catalog
}

// New 创建推荐处理器
func New(catalog *recommend.Catalog) *Handler {
	return &Handler{catalog: catalog}
}

// RegisterRoutes 注册推荐相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/recommendations", h.handleRecommendations)
}

type recommendationsResponse struct {
	Risk            string                 `json:"risk"`
	Recommendations []recommend.Investment `json:"recommendations"`
	Summary         string                 `json:"summary"`
}

// handleRecommendations 按风险等级返回收益最高的投资
func (h *Handler) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	risk := r.URL.Query().Get("risk")
	if risk == "" {
		utils.RespondError(w, http.StatusBadRequest, "risk query parameter is required")
		return
	}

	n := recommend.DefaultPicks
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxPicks {
			utils.RespondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		n = parsed
	}

	picks, err := h.catalog.TopPicks(risk, n)
	if err != nil {
		if errors.Is(err, recommend.ErrNoMatches) {
			utils.RespondError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, recommendationsResponse{
		Risk:            risk,
		Recommendations: picks,
		Summary:         h.catalog.Summary(risk),
	})
}
