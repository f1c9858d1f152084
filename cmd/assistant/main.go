package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/portfolio/portfolio-assistant/internal/client"
	"github.com/portfolio/portfolio-assistant/internal/config"
	"github.com/portfolio/portfolio-assistant/internal/handler"
	"github.com/portfolio/portfolio-assistant/internal/middleware"
	"github.com/portfolio/portfolio-assistant/internal/portfolio"
	"github.com/portfolio/portfolio-assistant/internal/responder"
	"github.com/portfolio/portfolio-assistant/internal/service"
	"github.com/portfolio/portfolio-assistant/internal/store"
	"github.com/portfolio/portfolio-assistant/pkg/logger"
	"github.com/portfolio/portfolio-assistant/pkg/redis"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .env 只在本地开发时存在
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG")
	if configPath == "" {
		configPath = "configs/assistant.yaml"
	}

	// 加载配置
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化日志
	zapLogger, err := logger.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("portfolio assistant 启动中...")

	profile, err := portfolio.Load(cfg.Chatbot.ProfilePath)
	if err != nil {
		zapLogger.Fatal("加载作品集资料失败", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	contactStore, err := openContactStore(ctx, cfg)
	if err != nil {
		zapLogger.Fatal("初始化联系消息存储失败", zap.Error(err))
	}
	defer contactStore.Close()

	// 初始化服务
	completionClient := client.NewCompletionClient(cfg.DeepSeek, zapLogger)
	if !completionClient.Configured() {
		zapLogger.Warn("未配置 DEEPSEEK_API_KEY，只使用模板回复")
	}
	classifierService := service.NewClassifierService(zapLogger)
	bank := responder.NewDefaultBank(zapLogger)

	sessionService := service.NewSessionService(func() *service.ChatbotService {
		return service.NewChatbotService(completionClient, classifierService, bank, profile, cfg.Chatbot, zapLogger)
	}, cfg.Chatbot.SessionTTL, zapLogger)
	defer sessionService.Stop()

	contactService := service.NewContactService(contactStore, zapLogger)

	// 初始化路由
	origins := middleware.OriginChecker(cfg.Server.AllowedOrigins)
	handlers := handler.Handlers{
		API:        handler.NewAPIHandler(cfg.Server.Name, profile, sessionService, contactStore, completionClient.Configured(), zapLogger),
		Chat:       handler.NewChatHandler(sessionService, profile, zapLogger),
		Classifier: handler.NewClassifierHandler(classifierService, zapLogger),
		Contact:    handler.NewContactHandler(contactService, zapLogger),
		WebSocket:  handler.NewWebSocketHandler(sessionService, origins, zapLogger),
	}
	r := handler.NewRouter(handlers, handler.RouterConfig{
		Origins:       origins,
		AdminToken:    cfg.Contact.AdminToken,
		SubmitLimiter: middleware.NewIPRateLimiter(cfg.Contact.SubmitRate, cfg.Contact.SubmitBurst),
	}, zapLogger)

	if cfg.Contact.AdminToken == "" {
		zapLogger.Warn("未配置 ADMIN_TOKEN，收件箱接口已关闭")
	}

	// 启动服务
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zapLogger.Info("portfolio assistant 启动成功",
			zap.Int("port", cfg.Server.Port),
			zap.String("model", completionClient.Model()),
			zap.String("contactStore", cfg.Contact.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("服务启动失败", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("正在关闭服务...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("服务关闭超时", zap.Error(err))
	}
}

// openContactStore 按配置选择 SQLite 或 Redis
func openContactStore(ctx context.Context, cfg *config.Config) (store.ContactStore, error) {
	switch cfg.Contact.Store {
	case "redis":
		rdb, err := redis.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return store.NewRedisStore(rdb), nil
	default:
		s, err := store.NewSQLite(cfg.Contact.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
