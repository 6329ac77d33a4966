package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/pa-broadcaster/internal/handler"
	"github.com/noah-isme/pa-broadcaster/internal/repository"
	"github.com/noah-isme/pa-broadcaster/internal/service"
	"github.com/noah-isme/pa-broadcaster/pkg/cache"
	"github.com/noah-isme/pa-broadcaster/pkg/config"
	"github.com/noah-isme/pa-broadcaster/pkg/logger"
	"github.com/noah-isme/pa-broadcaster/pkg/storage"
	"github.com/noah-isme/pa-broadcaster/pkg/translate"
	"github.com/noah-isme/pa-broadcaster/pkg/tts"
)

// @title PA Broadcaster API
// @version 1.0.0
// @description Multi-language public announcement broadcaster
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("broadcaster stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	metrics := service.NewMetricsService()
	validate := service.NewValidator()

	languages, err := repository.NewLanguageRepository(cfg.Languages.File, logr)
	if err != nil {
		return fmt.Errorf("load languages: %w", err)
	}
	if cfg.Languages.File != "" && cfg.Languages.Watch {
		go func() {
			if err := languages.Watch(ctx); err != nil {
				logr.Warn("language table watch stopped", zap.Error(err))
			}
		}()
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, translation cache disabled", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	translator := service.NewCachedTranslator(newTranslator(cfg.Speech), cacheRepo, metrics, cfg.Speech.CacheTTL, logr)
	synthesizer := newSynthesizer(cfg.Speech)

	store, err := storage.NewLocalStorage(cfg.Audio.StorageDir)
	if err != nil {
		return fmt.Errorf("prepare audio storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Audio.SignedURLSecret, cfg.Audio.SignedURLTTL)

	adapter := service.NewSpeechAdapter(translator, synthesizer, store, signer, languages, service.SpeechAdapterConfig{
		BaseLanguage: cfg.Speech.BaseLanguage,
		APIPrefix:    cfg.APIPrefix,
		RatePerSec:   cfg.Speech.RatePerSec,
	}, logr)
	runner := service.NewJobRunner(adapter, languages, cfg.Speech.LanguageJobTimeout, metrics, logr)
	history := repository.NewHistoryRepository(cfg.History.Capacity)
	registry := service.NewSubscriberRegistry(metrics, logr)

	artifacts := service.NewArtifactService(store, service.ArtifactConfig{
		Retention: cfg.Audio.Retention,
		Schedule:  cfg.Audio.CleanupSchedule,
		Workers:   cfg.Audio.CleanupWorkers,
	}, metrics, logr)
	if err := artifacts.Start(ctx); err != nil {
		return fmt.Errorf("start artifact cleanup: %w", err)
	}
	defer artifacts.Stop()

	broadcasts := service.NewBroadcastService(runner, history, registry, artifacts, validate, cfg.Speech.BaseLanguage, metrics, logr)
	exports := service.NewExportService(broadcasts, logr, nil, nil)
	onboarding := service.NewOnboardingService(cfg.Public.BaseURL, cfg.Port)

	auth, err := service.NewAuthService(validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		Username:          cfg.Operator.Username,
		Password:          cfg.Operator.Password,
		PasswordHash:      cfg.Operator.PasswordHash,
	})
	if err != nil {
		return fmt.Errorf("init operator auth: %w", err)
	}

	if cfg.Telegram.Enabled {
		relay, err := service.NewTelegramRelay(service.TelegramRelayConfig{
			Token:      cfg.Telegram.Token,
			ChatIDs:    cfg.Telegram.ChatIDs,
			RatePerSec: cfg.Telegram.RatePerSec,
			Buffer:     cfg.Stream.BufferSize,
		}, logr)
		if err != nil {
			logr.Warn("telegram relay disabled", zap.Error(err))
		} else {
			relay.Start(ctx)
			registry.Register(relay)
			defer relay.Wait()
		}
	}

	r := newRouter(cfg, logr, routerDeps{
		metrics:    metrics,
		auth:       auth,
		broadcasts: broadcasts,
		exports:    exports,
		registry:   registry,
		languages:  languages,
		onboarding: onboarding,
		signer:     signer,
		store:      store,
		readiness: map[string]handler.ReadinessCheck{
			"audio_storage": func(context.Context) error {
				_, err := os.Stat(cfg.Audio.StorageDir)
				return err
			},
			"translation_cache": func(ctx context.Context) error {
				if redisClient == nil {
					return nil
				}
				return cacheRepo.Ping(ctx)
			},
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logStartupBanner(logr, cfg, languages, onboarding)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	notifySystemd(logr, daemon.SdNotifyReady)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	notifySystemd(logr, daemon.SdNotifyStopping)
	logr.Info("server shutting down")

	// Open streams never finish on their own.
	registry.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newTranslator(cfg config.SpeechConfig) translate.Translator {
	if cfg.TranslatorProvider == "stub" {
		return &translate.Stub{}
	}
	return translate.NewGoogleTranslator(cfg.TranslatorURL, cfg.RequestTimeout)
}

func newSynthesizer(cfg config.SpeechConfig) tts.Synthesizer {
	if cfg.SynthesizerProvider == "stub" {
		return &tts.Stub{}
	}
	return tts.NewGoogleSynthesizer(cfg.SynthesizerURL, cfg.RequestTimeout)
}

func notifySystemd(logr *zap.Logger, state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		logr.Warn("sd_notify failed", zap.String("state", state), zap.Error(err))
		return
	}
	if sent {
		logr.Debug("sd_notify sent", zap.String("state", state))
	}
}

func logStartupBanner(logr *zap.Logger, cfg *config.Config, languages *repository.LanguageRepository, onboarding *service.OnboardingService) {
	codes := make([]string, 0)
	for _, lang := range languages.List() {
		codes = append(codes, fmt.Sprintf("%s %s (%s)", lang.Flag, lang.Name, lang.Code))
	}
	base, source := onboarding.BaseURL()
	logr.Info("pa broadcaster ready",
		zap.String("addr", fmt.Sprintf(":%d", cfg.Port)),
		zap.String("env", cfg.Env),
		zap.String("console", base+cfg.APIPrefix+"/console"),
		zap.String("client_url", onboarding.ClientURL()),
		zap.String("url_source", source),
		zap.String("languages", strings.Join(codes, ", ")),
		zap.Strings("priorities", []string{"normal", "warning", "emergency"}),
		zap.String("base_language", cfg.Speech.BaseLanguage),
		zap.Int("history_capacity", cfg.History.Capacity),
	)
}
