package service

import (
	"time"

	"github.com/wfunc/cookie-game/internal/config"
	"github.com/wfunc/cookie-game/internal/repository"
	"github.com/wfunc/cookie-game/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config 服务配置
type Config struct {
	JWTSecret          string
	Issuer             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	MaxLoginAttempts   int
	LockDuration       time.Duration
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		JWTSecret:          "change-me-in-production",
		Issuer:             "cookie-game",
		AccessTokenExpiry:  24 * time.Hour,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
		MaxLoginAttempts:   5,
		LockDuration:       15 * time.Minute,
	}
}

// ConfigFromJWT 由全局JWT配置生成服务配置
func ConfigFromJWT(jwt *config.JWTConfig) *Config {
	cfg := DefaultConfig()
	if jwt.Secret != "" {
		cfg.JWTSecret = jwt.Secret
	}
	if jwt.Issuer != "" {
		cfg.Issuer = jwt.Issuer
	}
	if jwt.ExpireHours > 0 {
		cfg.AccessTokenExpiry = time.Duration(jwt.ExpireHours) * time.Hour
	}
	if jwt.RefreshHours > 0 {
		cfg.RefreshTokenExpiry = time.Duration(jwt.RefreshHours) * time.Hour
	}
	return cfg
}

// Services 服务集合
type Services struct {
	Auth AuthService
	User UserService
	JWT  *utils.JWTManager
}

// NewServices 创建服务集合
func NewServices(db *gorm.DB, cfg *Config, log *zap.Logger) *Services {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}

	repos := repository.NewManager(db)

	jwtManager := utils.NewJWTManager(
		cfg.JWTSecret,
		cfg.Issuer,
		cfg.AccessTokenExpiry,
		cfg.RefreshTokenExpiry,
	)

	return &Services{
		Auth: NewAuthService(db, repos.User(), repos.UserAuth(), repos.UserSession(), jwtManager, cfg, log),
		User: NewUserService(repos.User(), repos.UserAuth(), repos.UserSession(), log),
		JWT:  jwtManager,
	}
}
