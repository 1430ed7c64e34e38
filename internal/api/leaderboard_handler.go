package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/cookie-game/internal/errors"
	"github.com/wfunc/cookie-game/internal/game"
	"github.com/wfunc/cookie-game/internal/middleware"
)

// LeaderboardHandler 排行榜处理器
type LeaderboardHandler struct {
	gameService *game.GameService
}

// NewLeaderboardHandler 创建排行榜处理器
func NewLeaderboardHandler(gameService *game.GameService) *LeaderboardHandler {
	return &LeaderboardHandler{gameService: gameService}
}

// GetLeaderboard 排行榜
// @Summary 排行榜
// @Description 按累计饼干降序，limit 默认且最大为100；已登录时附带自己的名次
// @Tags Leaderboard
// @Produce json
// @Param limit query int false "条数"
// @Success 200 {object} game.LeaderboardResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /api/v1/leaderboard [get]
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		fail(c, err)
		return
	}

	resp, err := h.gameService.Leaderboard(c.Request.Context(), limit, middleware.GetIdentity(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, resp)
}

// parseLimit 空值返回0，由服务层取默认值
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, apperrors.Newf(apperrors.ErrInvalidParam, "limit 必须是非负整数: %q", raw)
	}
	return limit, nil
}
