package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/lexlink/chat-backend/internal/config"
	"github.com/lexlink/chat-backend/internal/handler"
	"github.com/lexlink/chat-backend/internal/middleware"
	"github.com/lexlink/chat-backend/internal/repository"
	"github.com/lexlink/chat-backend/internal/service"
	"github.com/lexlink/chat-backend/internal/ws"
	pkgjwt "github.com/lexlink/chat-backend/pkg/jwt"
	"github.com/lexlink/chat-backend/pkg/logger"
	pkgredis "github.com/lexlink/chat-backend/pkg/redis"
)

// @title           Lexlink Chat API
// @version         1.0
// @description     Realtime conversation and presence backend for the lexlink marketplace
//
// @BasePath        /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles := config.LoadDotEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	logger.Init(env)
	logger.Get().Info().Strs("files", dotenvFiles).Str("env", env).Msg("env loaded")

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	logger.Get().Info().Str("host", cfg.Database.Host).Msg("connected to MySQL")

	// Redis is optional; without it the hub runs process-local.
	var hub *ws.Hub
	if cfg.Redis.Enabled {
		client, err := pkgredis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize)
		if err != nil {
			logger.Get().Warn().Err(err).Msg("redis unavailable, running single-instance")
			hub = ws.NewHub(nil)
		} else {
			logger.Get().Info().Msg("connected to Redis")
			hub = ws.NewHub(client)
		}
	} else {
		hub = ws.NewHub(nil)
	}
	go hub.Run()

	jwtManager := pkgjwt.NewManager(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiresIn)*time.Second)

	messageRepo := repository.NewMessageRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	chatService := service.NewChatService(messageRepo, profileRepo)

	chatHandler := handler.NewChatHandler(chatService)
	wsHandler := handler.NewWSHandler(hub, chatService, cfg.CORS.AllowOrigins)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	corsConfig := cors.DefaultConfig()
	if cfg.CORS.AllowOrigins != "" {
		corsConfig.AllowOrigins = parseList(cfg.CORS.AllowOrigins)
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "lexlink-chat",
			"time":    time.Now().Unix(),
		})
	})

	auth := middleware.JWTAuth(jwtManager)

	chat := router.Group("/api/v1/chat", auth)
	{
		chat.GET("/conversations", chatHandler.GetConversations)
		chat.DELETE("/conversations/:partnerId/:partnerType", chatHandler.DeleteConversation)
		chat.GET("/messages/:partnerId/:partnerType", chatHandler.GetMessages)
		chat.PUT("/messages/read/:partnerId/:partnerType", chatHandler.MarkRead)
		chat.GET("/unread", chatHandler.GetUnread)
		chat.GET("/online", wsHandler.Online)
	}

	router.GET("/ws/chat", auth, wsHandler.Connect)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Get().Info().Int("port", cfg.Server.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Get().Info().Msg("shutting down")

	hub.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Get().Error().Err(err).Msg("forced shutdown")
	}
}

func initDB(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{}
	if !cfg.IsDevelopment() {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Warn)
	}
	return gorm.Open(mysql.Open(cfg.DSN()), gormCfg)
}

func parseList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
