package api

import (
	"github.com/gin-gonic/gin"
	"github.com/wfunc/cookie-game/internal/game"
	"github.com/wfunc/cookie-game/internal/middleware"
)

// GameHandler 游戏处理器
// 已登录玩家使用远端存档，匿名玩家使用本机存档槽
type GameHandler struct {
	gameService *game.GameService
}

// NewGameHandler 创建游戏处理器
func NewGameHandler(gameService *game.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

// OpenSession 打开会话
// @Summary 打开游戏会话
// @Description 加载存档并结算离线收益，会话已存在时直接返回
// @Tags Game
// @Produce json
// @Success 200 {object} game.OpenSessionResponse
// @Failure 429 {object} apperrors.ErrorResponse
// @Router /api/v1/game/session [post]
func (h *GameHandler) OpenSession(c *gin.Context) {
	resp, err := h.gameService.OpenSession(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, resp)
}

// GetSession 会话信息
// @Summary 查询游戏会话
// @Tags Game
// @Produce json
// @Success 200 {object} game.SessionInfo
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /api/v1/game/session [get]
func (h *GameHandler) GetSession(c *gin.Context) {
	info, err := h.gameService.SessionInfo(middleware.GetIdentity(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, info)
}

// CloseSession 关闭会话
// @Summary 关闭游戏会话
// @Description 停止定时器并执行最终保存
// @Tags Game
// @Success 200 {object} SuccessResponse
// @Router /api/v1/game/session [delete]
func (h *GameHandler) CloseSession(c *gin.Context) {
	if err := h.gameService.CloseSession(c.Request.Context(), middleware.GetIdentity(c)); err != nil {
		fail(c, err)
		return
	}
	okMessage(c, "会话已关闭")
}

// GetState 当前状态
// @Summary 获取游戏状态
// @Tags Game
// @Produce json
// @Success 200 {object} game.StateView
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /api/v1/game/state [get]
func (h *GameHandler) GetState(c *gin.Context) {
	view, err := h.gameService.State(middleware.GetIdentity(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, view)
}

// Click 手动点击
// @Summary 点击饼干
// @Tags Game
// @Produce json
// @Success 200 {object} game.ActionResponse
// @Router /api/v1/game/click [post]
func (h *GameHandler) Click(c *gin.Context) {
	resp, err := h.gameService.Click(middleware.GetIdentity(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, resp)
}

// BuyBuilding 购买建筑
// @Summary 购买建筑
// @Description 饼干不足时 applied 为 false
// @Tags Game
// @Produce json
// @Param id path string true "建筑ID"
// @Success 200 {object} game.ActionResponse
// @Router /api/v1/game/buildings/{id}/buy [post]
func (h *GameHandler) BuyBuilding(c *gin.Context) {
	resp, err := h.gameService.BuyBuilding(middleware.GetIdentity(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, resp)
}

// BuyUpgrade 购买升级
// @Summary 购买升级
// @Description 已购买或饼干不足时 applied 为 false
// @Tags Game
// @Produce json
// @Param id path string true "升级ID"
// @Success 200 {object} game.ActionResponse
// @Router /api/v1/game/upgrades/{id}/buy [post]
func (h *GameHandler) BuyUpgrade(c *gin.Context) {
	resp, err := h.gameService.BuyUpgrade(middleware.GetIdentity(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, resp)
}

// Prestige 转生
// @Summary 转生
// @Description 累计饼干达到门槛后重置进度并提升倍率
// @Tags Game
// @Produce json
// @Success 200 {object} game.PrestigeResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /api/v1/game/prestige [post]
func (h *GameHandler) Prestige(c *gin.Context) {
	resp, err := h.gameService.Prestige(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, resp)
}

// Save 立即保存
// @Summary 保存进度
// @Tags Game
// @Success 200 {object} SuccessResponse
// @Failure 503 {object} apperrors.ErrorResponse
// @Router /api/v1/game/save [post]
func (h *GameHandler) Save(c *gin.Context) {
	if err := h.gameService.Save(c.Request.Context(), middleware.GetIdentity(c)); err != nil {
		fail(c, err)
		return
	}
	okMessage(c, "已保存")
}

// Reset 重置进度
// @Summary 重置进度
// @Tags Game
// @Produce json
// @Success 200 {object} game.StateView
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /api/v1/game/reset [post]
func (h *GameHandler) Reset(c *gin.Context) {
	view, err := h.gameService.Reset(middleware.GetIdentity(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, view)
}

// Catalog 静态目录
// @Summary 建筑、升级与成就目录
// @Tags Game
// @Produce json
// @Success 200 {object} game.CatalogResponse
// @Router /api/v1/catalog [get]
func (h *GameHandler) Catalog(c *gin.Context) {
	ok(c, h.gameService.Catalog())
}
