package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Redis     RedisConfig
	JWT       JWTConfig
	Operator  OperatorConfig
	CORS      CORSConfig
	Log       LogConfig
	Speech    SpeechConfig
	Audio     AudioConfig
	History   HistoryConfig
	Languages LanguagesConfig
	Stream    StreamConfig
	Telegram  TelegramConfig
	Public    PublicConfig
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// OperatorConfig describes the single console account allowed to broadcast.
type OperatorConfig struct {
	Username     string
	Password     string
	PasswordHash string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SpeechConfig selects the translation and text-to-speech engines.
type SpeechConfig struct {
	TranslatorProvider  string
	TranslatorURL       string
	SynthesizerProvider string
	SynthesizerURL      string
	BaseLanguage        string
	RequestTimeout      time.Duration
	LanguageJobTimeout  time.Duration
	RatePerSec          int
	CacheTTL            time.Duration
}

// AudioConfig governs where synthesized artifacts live and how long they are served.
type AudioConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	Retention       time.Duration
	CleanupSchedule string
	CleanupWorkers  int
}

// HistoryConfig bounds the in-memory announcement history.
type HistoryConfig struct {
	Capacity int
}

// LanguagesConfig points to an optional YAML override of the built-in language table.
type LanguagesConfig struct {
	File  string
	Watch bool
}

// StreamConfig tunes the SSE subscriber queues.
type StreamConfig struct {
	BufferSize        int
	KeepAliveInterval time.Duration
}

// TelegramConfig enables mirroring announcements into Telegram chats.
type TelegramConfig struct {
	Enabled    bool
	Token      string
	ChatIDs    []int64
	RatePerSec int
}

// PublicConfig overrides the derived base URL handed to display clients.
type PublicConfig struct {
	BaseURL string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS_CACHE"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 12*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.Operator = OperatorConfig{
		Username:     v.GetString("OPERATOR_USERNAME"),
		Password:     v.GetString("OPERATOR_PASSWORD"),
		PasswordHash: v.GetString("OPERATOR_PASSWORD_HASH"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Speech = SpeechConfig{
		TranslatorProvider:  strings.ToLower(v.GetString("TRANSLATOR_PROVIDER")),
		TranslatorURL:       v.GetString("TRANSLATOR_URL"),
		SynthesizerProvider: strings.ToLower(v.GetString("TTS_PROVIDER")),
		SynthesizerURL:      v.GetString("TTS_URL"),
		BaseLanguage:        strings.ToLower(v.GetString("BASE_LANGUAGE")),
		RequestTimeout:      parseDuration(v.GetString("SPEECH_REQUEST_TIMEOUT"), 15*time.Second),
		LanguageJobTimeout:  parseDuration(v.GetString("LANGUAGE_JOB_TIMEOUT"), 0),
		RatePerSec:          v.GetInt("SPEECH_RATE_PER_SEC"),
		CacheTTL:            parseDuration(v.GetString("TRANSLATION_CACHE_TTL"), 24*time.Hour),
	}

	cfg.Audio = AudioConfig{
		StorageDir:      v.GetString("AUDIO_STORAGE_DIR"),
		SignedURLSecret: v.GetString("AUDIO_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("AUDIO_SIGNED_URL_TTL"), 72*time.Hour),
		Retention:       parseDuration(v.GetString("AUDIO_RETENTION"), 72*time.Hour),
		CleanupSchedule: v.GetString("AUDIO_CLEANUP_SCHEDULE"),
		CleanupWorkers:  v.GetInt("AUDIO_CLEANUP_WORKERS"),
	}

	capacity := v.GetInt("HISTORY_CAPACITY")
	if capacity <= 0 {
		capacity = 50
	}
	cfg.History = HistoryConfig{Capacity: capacity}

	cfg.Languages = LanguagesConfig{
		File:  v.GetString("LANGUAGES_FILE"),
		Watch: v.GetBool("LANGUAGES_WATCH"),
	}

	cfg.Stream = StreamConfig{
		BufferSize:        v.GetInt("STREAM_BUFFER_SIZE"),
		KeepAliveInterval: parseDuration(v.GetString("STREAM_KEEPALIVE_INTERVAL"), 25*time.Second),
	}

	cfg.Telegram = TelegramConfig{
		Enabled:    v.GetBool("ENABLE_TELEGRAM_RELAY"),
		Token:      v.GetString("TELEGRAM_TOKEN"),
		ChatIDs:    parseInt64List(v.GetString("TELEGRAM_CHAT_IDS")),
		RatePerSec: v.GetInt("TELEGRAM_RATE_PER_SEC"),
	}

	cfg.Public = PublicConfig{BaseURL: strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/")}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 5000)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("ENABLE_REDIS_CACHE", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "12h")
	v.SetDefault("JWT_ISSUER", "pa-broadcaster")

	v.SetDefault("OPERATOR_USERNAME", "admin")
	v.SetDefault("OPERATOR_PASSWORD", "admin123")
	v.SetDefault("OPERATOR_PASSWORD_HASH", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("TRANSLATOR_PROVIDER", "google")
	v.SetDefault("TRANSLATOR_URL", "https://translate.googleapis.com/translate_a/single")
	v.SetDefault("TTS_PROVIDER", "google")
	v.SetDefault("TTS_URL", "https://translate.google.com/translate_tts")
	v.SetDefault("BASE_LANGUAGE", "en")
	v.SetDefault("SPEECH_REQUEST_TIMEOUT", "15s")
	v.SetDefault("LANGUAGE_JOB_TIMEOUT", "")
	v.SetDefault("SPEECH_RATE_PER_SEC", 10)
	v.SetDefault("TRANSLATION_CACHE_TTL", "24h")

	v.SetDefault("AUDIO_STORAGE_DIR", "./static/audio")
	v.SetDefault("AUDIO_SIGNED_URL_SECRET", "dev_audio_secret")
	v.SetDefault("AUDIO_SIGNED_URL_TTL", "72h")
	v.SetDefault("AUDIO_RETENTION", "72h")
	v.SetDefault("AUDIO_CLEANUP_SCHEDULE", "@every 1h")
	v.SetDefault("AUDIO_CLEANUP_WORKERS", 1)

	v.SetDefault("HISTORY_CAPACITY", 50)
	v.SetDefault("LANGUAGES_FILE", "")
	v.SetDefault("LANGUAGES_WATCH", true)

	v.SetDefault("STREAM_BUFFER_SIZE", 32)
	v.SetDefault("STREAM_KEEPALIVE_INTERVAL", "25s")

	v.SetDefault("ENABLE_TELEGRAM_RELAY", false)
	v.SetDefault("TELEGRAM_TOKEN", "")
	v.SetDefault("TELEGRAM_CHAT_IDS", "")
	v.SetDefault("TELEGRAM_RATE_PER_SEC", 1)

	v.SetDefault("PUBLIC_BASE_URL", "")
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

func parseInt64List(raw string) []int64 {
	parts := splitAndTrim(raw)
	if len(parts) == 0 {
		return nil
	}
	result := make([]int64, 0, len(parts))
	for _, part := range parts {
		var id int64
		if _, err := fmt.Sscanf(part, "%d", &id); err != nil {
			continue
		}
		result = append(result, id)
	}
	return result
}
