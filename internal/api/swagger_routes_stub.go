//go:build !swagger

package api

import "github.com/gin-gonic/gin"

// registerSwaggerRoutes 默认构建不提供 Swagger UI，使用 -tags swagger 开启
func registerSwaggerRoutes(engine *gin.Engine) {}
