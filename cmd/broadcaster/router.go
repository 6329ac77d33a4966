package main

import (
	"path"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/pa-broadcaster/api/swagger"
	"github.com/noah-isme/pa-broadcaster/internal/handler"
	internalmiddleware "github.com/noah-isme/pa-broadcaster/internal/middleware"
	"github.com/noah-isme/pa-broadcaster/internal/models"
	"github.com/noah-isme/pa-broadcaster/internal/repository"
	"github.com/noah-isme/pa-broadcaster/internal/service"
	"github.com/noah-isme/pa-broadcaster/pkg/config"
	"github.com/noah-isme/pa-broadcaster/pkg/logger"
	corsmiddleware "github.com/noah-isme/pa-broadcaster/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/pa-broadcaster/pkg/middleware/requestid"
	"github.com/noah-isme/pa-broadcaster/pkg/storage"
)

type routerDeps struct {
	metrics    *service.MetricsService
	auth       *service.AuthService
	broadcasts *service.BroadcastService
	exports    *service.ExportService
	registry   *service.SubscriberRegistry
	languages  *repository.LanguageRepository
	onboarding *service.OnboardingService
	signer     *storage.SignedURLSigner
	store      *storage.LocalStorage
	readiness  map[string]handler.ReadinessCheck
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(deps.metrics, path.Join(cfg.APIPrefix, "/stream")))

	metricsHandler := handler.NewMetricsHandler(deps.metrics, deps.readiness)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(deps.auth)
	announcementHandler := handler.NewAnnouncementHandler(deps.broadcasts, deps.exports)
	consoleHandler := handler.NewConsoleHandler(deps.languages, deps.onboarding, deps.registry, cfg.Speech.BaseLanguage)
	streamHandler := handler.NewStreamHandler(deps.registry, handler.StreamConfig{
		BufferSize:        cfg.Stream.BufferSize,
		KeepAliveInterval: cfg.Stream.KeepAliveInterval,
	}, logr)
	audioHandler := handler.NewAudioHandler(deps.signer, deps.store, logr)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/languages", consoleHandler.Languages)
	api.GET("/stream", streamHandler.Stream)
	api.GET("/history", announcementHandler.History)
	api.GET("/audio/:token", audioHandler.Serve)

	operator := api.Group("")
	operator.Use(internalmiddleware.JWT(deps.auth), internalmiddleware.RequireRoles(models.RoleOperator))
	operator.GET("/console", consoleHandler.Console)
	operator.GET("/onboarding", consoleHandler.Onboarding)
	operator.POST("/announcements", internalmiddleware.Audit(logr, "announcement.submit"), announcementHandler.Submit)
	operator.POST("/announcements/:id/replay", internalmiddleware.Audit(logr, "announcement.replay"), announcementHandler.Replay)
	operator.DELETE("/history", internalmiddleware.Audit(logr, "history.clear"), announcementHandler.Clear)
	operator.GET("/history/export", internalmiddleware.Audit(logr, "history.export"), announcementHandler.Export)

	return r
}
