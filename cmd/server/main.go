package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/cookie-game/internal/adapter"
	"github.com/wfunc/cookie-game/internal/api"
	"github.com/wfunc/cookie-game/internal/config"
	"github.com/wfunc/cookie-game/internal/database"
	"github.com/wfunc/cookie-game/internal/errors"
	"github.com/wfunc/cookie-game/internal/game"
	"github.com/wfunc/cookie-game/internal/logger"
	"github.com/wfunc/cookie-game/internal/repository"
	"github.com/wfunc/cookie-game/internal/service"
	"github.com/wfunc/cookie-game/internal/websocket"
	"go.uber.org/zap"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Server 服务器实例
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	localStore adapter.SlotStore
	hub        *websocket.Hub
	sessions   *game.SessionManager
	services   *service.Services
	httpServer *http.Server

	// 关闭控制
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func main() {
	// 命令行参数
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
		showHelp    = flag.Bool("help", false, "显示帮助信息")
	)
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}
	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	// 加载配置
	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	// 初始化日志系统
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	setupSystem(&cfg.System)
	printStartInfo(cfg)

	server := NewServer(cfg)
	if err := server.Start(); err != nil {
		logger.Fatal("服务器启动失败", zap.Error(err))
	}

	server.WaitForShutdown()

	if err := server.Shutdown(); err != nil {
		logger.Error("服务器关闭失败", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("服务器已安全关闭")
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:    cfg,
		logger: logger.GetLogger(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("正在启动饼干游戏服务器...",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
	)

	if err := s.initComponents(); err != nil {
		return errors.Wrap(err, errors.ErrUnknown, "初始化组件失败")
	}
	s.startServices()

	// 监听配置变化
	config.Watch(func(newCfg *config.Config) {
		s.logger.Info("配置已更新，正在重新加载...")
		s.reloadConfig(newCfg)
	})

	s.logger.Info("服务器启动成功",
		zap.String("http", s.httpServer.Addr),
		zap.String("websocket", s.cfg.WebSocket.Path),
	)
	return nil
}

// initComponents 初始化组件
func (s *Server) initComponents() error {
	s.logger.Info("初始化组件...")

	if err := s.initDatabase(); err != nil {
		return err
	}
	if err := s.initLocalStore(); err != nil {
		return err
	}

	repos := repository.NewManager(database.GetDB())

	// 排行榜推送
	s.hub = websocket.NewHub(logger.GetModuleLogger("websocket"), api.HubOptions(&s.cfg.WebSocket))

	// 存档持久化：登录玩家写数据库，匿名玩家写本机存档槽
	persister := game.NewStorePersister(&game.StorePersisterConfig{
		Local:       s.localStore,
		LocalSlot:   s.cfg.Storage.Slot,
		States:      repos.GameState(),
		Leaderboard: repos.Leaderboard(),
		Logger:      logger.GetModuleLogger("storage"),
	})
	persister.AddNotifier(s.hub)

	s.sessions = game.NewSessionManager(&game.SessionConfig{
		Logger:         logger.GetModuleLogger("game"),
		Persister:      persister,
		Timers:         timersFrom(&s.cfg.Game),
		SessionTimeout: s.cfg.Game.SessionTimeout,
		MaxSessions:    s.cfg.Game.MaxSessions,
	})
	gameService := game.NewGameService(&game.GameServiceConfig{
		Sessions:         s.sessions,
		Leaderboard:      repos.Leaderboard(),
		Logger:           logger.GetModuleLogger("game"),
		AllowReset:       s.cfg.Game.AllowReset,
		LeaderboardLimit: s.cfg.Game.LeaderboardLimit,
	})

	s.services = service.NewServices(database.GetDB(), service.ConfigFromJWT(&s.cfg.Security.JWT), s.logger.Named("auth"))

	if s.cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(&api.RouterConfig{
		DB:         database.GetDB(),
		Services:   s.services,
		Game:       gameService,
		Hub:        s.hub,
		WebSocket:  &s.cfg.WebSocket,
		AllowReset: s.cfg.Game.AllowReset,
		Logger:     s.logger.Named("api"),
	})

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:      router.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	s.logger.Info("所有组件初始化完成")
	return nil
}

// initDatabase 初始化数据库
func (s *Server) initDatabase() error {
	s.logger.Info("初始化数据库...")

	if err := database.Init(&s.cfg.Database); err != nil {
		return errors.Wrap(err, errors.ErrDatabaseConnect, "初始化数据库连接失败")
	}

	if s.cfg.Database.AutoMigrate {
		s.logger.Info("执行数据库自动迁移...")
		if err := database.AutoMigrate(); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseConnect, "数据库迁移失败")
		}
	}

	if !database.IsConnected() {
		return errors.New(errors.ErrDatabaseConnect, "数据库连接检查失败")
	}

	s.logger.Info("数据库初始化完成")
	return nil
}

// initLocalStore 初始化本机存档槽
func (s *Server) initLocalStore() error {
	store, err := adapter.NewAdapter(&adapter.Config{
		Type:   adapter.AdapterType(s.cfg.Storage.Type),
		SQLite: &adapter.SQLiteConfig{Path: s.cfg.Storage.Path},
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrStorageUnavailable, "创建本地存档失败")
	}
	if err := store.Connect(s.ctx); err != nil {
		return errors.Wrap(err, errors.ErrStorageUnavailable, "打开本地存档失败")
	}
	s.localStore = store
	return nil
}

// startServices 启动服务
func (s *Server) startServices() {
	s.logger.Info("启动服务...")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.Run(s.ctx)
	}()

	s.sessions.StartCleanupTask(s.ctx, s.cfg.Game.CleanupInterval)

	// 清理过期登录会话
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				if err := s.services.Auth.CleanupExpiredSessions(s.ctx); err != nil {
					s.logger.Warn("清理过期登录会话失败", zap.Error(err))
				}
			}
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP服务异常退出", zap.Error(err))
		}
	}()

	s.logger.Info("所有服务启动完成")
}

// WaitForShutdown 等待关闭信号
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh,
		syscall.SIGINT,  // Ctrl+C
		syscall.SIGTERM, // kill命令
		syscall.SIGQUIT, // Ctrl+\
	)

	sig := <-sigCh
	s.logger.Info("收到退出信号", zap.String("signal", sig.String()))
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown() error {
	s.logger.Info("正在优雅关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	// 停止接收新请求
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP服务关闭失败", zap.Error(err))
	}

	// 所有会话执行最终保存
	if err := s.sessions.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("保存会话失败", zap.Error(err))
	}

	// 取消主上下文，触发所有goroutine退出
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("所有服务已正常关闭")
	case <-shutdownCtx.Done():
		s.logger.Warn("关闭超时，强制退出")
		return errors.New(errors.ErrTimeout, "关闭超时")
	}

	s.closeComponents()

	logger.Cleanup()
	return nil
}

// closeComponents 关闭组件
func (s *Server) closeComponents() {
	s.logger.Info("关闭组件...")

	if s.localStore != nil {
		if err := s.localStore.Close(); err != nil {
			s.logger.Error("关闭本地存档失败", zap.Error(err))
		}
	}
	if err := database.Close(); err != nil {
		s.logger.Error("关闭数据库失败", zap.Error(err))
	}

	s.logger.Info("所有组件已关闭")
}

// reloadConfig 重新加载配置，只影响日志级别和之后创建的会话
func (s *Server) reloadConfig(newCfg *config.Config) {
	s.cfg = newCfg
	logger.ApplyConfig(&newCfg.Log)
	s.sessions.SetTimers(timersFrom(&newCfg.Game))
	s.logger.Info("配置重新加载完成",
		zap.String("log_level", newCfg.Log.Level),
		zap.Duration("tick_interval", newCfg.Game.TickInterval))
}

func timersFrom(cfg *config.GameConfig) game.Timers {
	return game.Timers{
		Tick:   cfg.TickInterval,
		Save:   cfg.SaveInterval,
		Mirror: cfg.LeaderboardInterval,
	}
}

// setupSystem 设置系统参数
func setupSystem(cfg *config.SystemConfig) {
	if cfg.Timezone != "" {
		if loc, err := time.LoadLocation(cfg.Timezone); err == nil {
			time.Local = loc
		}
	}
	if cfg.MaxProcs > 0 {
		runtime.GOMAXPROCS(cfg.MaxProcs)
	}
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("饼干游戏服务器\n")
	fmt.Printf("版本: %s\n", Version)
	fmt.Printf("构建时间: %s\n", BuildTime)
	fmt.Printf("Git提交: %s\n", GitCommit)
	fmt.Printf("Go版本: %s\n", runtime.Version())
	fmt.Printf("操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("饼干游戏服务器")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  cookie-game-server [选项]")
	fmt.Println()
	fmt.Println("选项:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("环境变量:")
	fmt.Printf("  %s_SERVER_PORT       HTTP端口\n", config.EnvPrefix)
	fmt.Printf("  %s_DATABASE_DSN      数据库连接串\n", config.EnvPrefix)
	fmt.Printf("  %s_LOG_LEVEL         日志级别\n", config.EnvPrefix)
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  cookie-game-server -config=/path/to/config.yaml")
	fmt.Println("  cookie-game-server -version")
}

// printStartInfo 打印启动信息
func printStartInfo(cfg *config.Config) {
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("                       饼干游戏后端服务器")
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("版本: %s | 模式: %s | PID: %d\n", Version, cfg.Server.Mode, os.Getpid())
	fmt.Printf("配置文件: %s\n", config.ConfigFile())
	fmt.Println("═══════════════════════════════════════════════════════════════")
}
