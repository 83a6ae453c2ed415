package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// ストアの接続方式
const (
	StoreDriverREST     = "rest"
	StoreDriverPostgres = "postgres"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
// env タグは対応する環境変数名で、検証エラーの表示にも使う。
type Config struct {
	// Store
	StoreDriver        string        `env:"STORE_DRIVER" validate:"oneof=rest postgres"`
	StoreURL           string        `env:"STORE_URL" validate:"required_if=StoreDriver rest"`
	StoreAnonKey       string        `env:"STORE_ANON_KEY" validate:"required_if=StoreDriver rest"`
	StoreServiceKey    string        `env:"STORE_SERVICE_KEY"`
	StoreSessionCookie string        `env:"STORE_SESSION_COOKIE" validate:"required"`
	StoreTimeout       time.Duration `env:"STORE_TIMEOUT" validate:"gt=0"`

	// Database
	DatabaseURL string `env:"DATABASE_URL" validate:"required_if=StoreDriver postgres"`

	// Session
	SessionMaxAge int `env:"SESSION_MAX_AGE" validate:"gte=0"`

	// Updates
	UpdatesFetchPolicy string `env:"UPDATES_FETCH_POLICY" validate:"oneof=per_source over_fetch"`

	// Submission
	SubmissionWebhookURL string        `env:"SUBMISSION_WEBHOOK_URL" validate:"omitempty,url"`
	SubmissionTimeout    time.Duration `env:"SUBMISSION_TIMEOUT" validate:"gt=0"`

	// Rate Limit
	RateLimitSubmission int `env:"RATE_LIMIT_SUBMISSION" validate:"gt=0"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`

	// Server
	ServerPort string `env:"SERVER_PORT" validate:"required,numeric"`
	BaseURL    string `env:"BASE_URL" validate:"required,url"`

	// Cookie
	CookieSecure bool
	CookieDomain string `env:"COOKIE_DOMAIN"`

	// CORS
	CORSAllowedOrigin string `env:"CORS_ALLOWED_ORIGIN"`
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envがあれば先に読み込む（既存の環境変数は上書きしない）。
// 必須環境変数が未設定の場合、または値が不正な場合はエラーを返す。
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf(".envの読み込みに失敗しました: %w", err)
	}

	cfg := &Config{
		StoreDriver:          strings.ToLower(getEnvString("STORE_DRIVER", StoreDriverREST)),
		StoreURL:             strings.TrimRight(os.Getenv("STORE_URL"), "/"),
		StoreAnonKey:         os.Getenv("STORE_ANON_KEY"),
		StoreServiceKey:      os.Getenv("STORE_SERVICE_KEY"),
		StoreSessionCookie:   getEnvString("STORE_SESSION_COOKIE", "sb-access-token"),
		StoreTimeout:         getEnvDuration("STORE_TIMEOUT", 10*time.Second),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		SessionMaxAge:        getEnvInt("SESSION_MAX_AGE", 86400),
		UpdatesFetchPolicy:   strings.ToLower(getEnvString("UPDATES_FETCH_POLICY", "per_source")),
		SubmissionWebhookURL: os.Getenv("SUBMISSION_WEBHOOK_URL"),
		SubmissionTimeout:    getEnvDuration("SUBMISSION_TIMEOUT", 10*time.Second),
		RateLimitSubmission:  getEnvInt("RATE_LIMIT_SUBMISSION", 5),
		LogLevel:             strings.ToLower(getEnvString("LOG_LEVEL", "info")),
		ServerPort:           getEnvString("SERVER_PORT", "8080"),
		BaseURL:              os.Getenv("BASE_URL"),
		CookieDomain:         getEnvString("COOKIE_DOMAIN", ""),
		CORSAllowedOrigin:    getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
	}
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// Validate は設定値を検証する。
// 未設定の必須項目はまとめて1つのエラーとして報告する。
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("設定の検証に失敗しました: %w", err)
	}

	var missing, invalid []string
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "required_if":
			missing = append(missing, fe.Field())
		default:
			invalid = append(invalid, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required environment variables are not set: %v", missing)
	}
	return fmt.Errorf("invalid environment variables: %v", invalid)
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
