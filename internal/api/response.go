package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/cookie-game/internal/errors"
	"github.com/wfunc/cookie-game/internal/middleware"
)

// SuccessResponse 成功响应
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ok 返回成功响应
func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: data})
}

// okMessage 返回只带提示的成功响应
func okMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: message})
}

// fail 按错误码返回统一错误响应，调用栈不对外暴露
func fail(c *gin.Context, err error) {
	appErr, isApp := apperrors.As(err)
	if !isApp {
		appErr = apperrors.Wrap(err, apperrors.ErrUnknown)
	}
	public := *appErr
	public.Stack = nil
	c.JSON(appErr.HTTPStatus(), apperrors.NewErrorResponse(&public, middleware.GetRequestID(c)))
}

// badRequest 请求参数错误
func badRequest(c *gin.Context, err error) {
	fail(c, apperrors.New(apperrors.ErrInvalidParam, err.Error()))
}
