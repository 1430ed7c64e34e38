package api

import (
	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/cookie-game/internal/errors"
	"github.com/wfunc/cookie-game/internal/middleware"
	"github.com/wfunc/cookie-game/internal/service"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	authService service.AuthService
	userService service.UserService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(authService service.AuthService, userService service.UserService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
	}
}

// Register 用户注册
// @Summary 用户注册
// @Description 创建新账号并直接登录
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body service.RegisterRequest true "注册信息"
// @Success 200 {object} service.AuthResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 409 {object} apperrors.ErrorResponse
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	// 获取客户端信息
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, resp)
}

// Login 用户登录
// @Summary 用户登录
// @Description 使用用户名或邮箱登录
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body service.LoginRequest true "登录信息"
// @Success 200 {object} service.AuthResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, resp)
}

// RefreshToken 刷新令牌
// @Summary 刷新访问令牌
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body service.RefreshRequest true "刷新令牌"
// @Success 200 {object} service.AuthResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req service.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, resp)
}

// Logout 用户登出
// @Summary 用户登出
// @Description 注销当前登录会话
// @Tags Auth
// @Security Bearer
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), middleware.GetToken(c)); err != nil {
		fail(c, err)
		return
	}
	okMessage(c, "已退出登录")
}

// GetProfile 获取个人资料
// @Summary 获取个人资料
// @Tags Auth
// @Security Bearer
// @Produce json
// @Success 200 {object} service.Profile
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /api/v1/auth/profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	id := middleware.GetIdentity(c)
	if id == nil {
		fail(c, apperrors.New(apperrors.ErrAuthentication, "未登录"))
		return
	}

	profile, err := h.userService.GetProfile(c.Request.Context(), id.ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, profile)
}

// UpdateProfile 修改昵称
// @Summary 修改个人资料
// @Description 昵称同时作为排行榜显示名
// @Tags Auth
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body service.UpdateProfileRequest true "资料"
// @Success 200 {object} service.Profile
// @Router /api/v1/auth/profile [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	id := middleware.GetIdentity(c)
	if id == nil {
		fail(c, apperrors.New(apperrors.ErrAuthentication, "未登录"))
		return
	}

	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	profile, err := h.userService.UpdateNickname(c.Request.Context(), id.ID, req.Nickname)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, profile)
}

// UpdatePassword 修改密码
// @Summary 修改密码
// @Tags Auth
// @Security Bearer
// @Accept json
// @Param request body service.ChangePasswordRequest true "新旧密码"
// @Success 200 {object} SuccessResponse
// @Router /api/v1/auth/password [put]
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	id := middleware.GetIdentity(c)
	if id == nil {
		fail(c, apperrors.New(apperrors.ErrAuthentication, "未登录"))
		return
	}

	var req service.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), id.ID, req.OldPassword, req.NewPassword); err != nil {
		fail(c, err)
		return
	}
	okMessage(c, "密码已修改")
}
