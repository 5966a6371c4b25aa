// Пакет config — загрузка и валидация конфигурации imagevault
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации imagevault.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- HTTP Server Timeouts ---

	// Таймаут чтения HTTP-сервера (по умолчанию 30s)
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-сервера (по умолчанию 60s)
	HTTPWriteTimeout time.Duration
	// Таймаут простоя HTTP-сервера (по умолчанию 120s)
	HTTPIdleTimeout time.Duration
	// Таймаут graceful shutdown (по умолчанию 5s)
	ShutdownTimeout time.Duration

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Пользователь БД
	DBUser string
	// Пароль БД
	DBPassword string
	// Режим SSL (disable, require, verify-full)
	DBSSLMode string

	// --- Identity-провайдер (JWT) ---

	// URL JWKS endpoint identity-провайдера (обязательный)
	JWKSURL string
	// Ожидаемый issuer JWT (пустая строка — issuer не проверяется)
	JWTIssuer string
	// Таймаут HTTP-клиента JWKS (по умолчанию 10s)
	JWKSClientTimeout time.Duration
	// Интервал обновления JWKS-ключей (по умолчанию 1h)
	JWKSRefreshInterval time.Duration
	// Допустимое отклонение времени при проверке JWT (по умолчанию 30s)
	JWTLeeway time.Duration
	// Путь к CA-сертификату для TLS к identity-провайдеру (опционально)
	AuthCACertPath string

	// --- Контентное хранилище ---

	// Базовый URL content-addressed хранилища (обязательный)
	StoreURL string
	// Имя bucket в хранилище (обязательный)
	StoreBucket string
	// Ключ доступа к хранилищу
	StoreKey string
	// Секрет доступа к хранилищу
	StoreSecret string
	// Таймаут запросов к хранилищу (по умолчанию 60s)
	StoreTimeout time.Duration
	// Путь к CA-сертификату для TLS к хранилищу (опционально)
	StoreCACertPath string

	// --- Загрузка ---

	// Максимальный размер multipart-буфера в памяти (по умолчанию 32 MiB)
	MaxUploadSize int64

	// --- Кэш lookup по CID ---

	// Максимальное количество записей в LRU-кэше (по умолчанию 1000)
	CacheSize int
	// TTL записи кэша (по умолчанию 5m)
	CacheTTL time.Duration

	// --- topologymetrics ---

	// Имя группы в метриках зависимостей
	DephealthGroup string
	// Интервал проверки зависимостей (по умолчанию 30s)
	DephealthCheckInterval time.Duration
}

// DatabaseDSN возвращает DSN подключения к PostgreSQL для pgxpool.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если обязательные переменные не заданы
// или значения некорректны.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// IV_PORT — порт HTTP-сервера (по умолчанию 5000)
	cfg.Port, err = getEnvInt("IV_PORT", 5000)
	if err != nil {
		return nil, fmt.Errorf("IV_PORT: %w", err)
	}

	// IV_LOG_LEVEL — уровень логирования (по умолчанию info)
	logLevel := getEnvDefault("IV_LOG_LEVEL", "info")
	cfg.LogLevel, err = parseLogLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("IV_LOG_LEVEL: %w", err)
	}

	// IV_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("IV_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("IV_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- HTTP Server Timeouts ---

	cfg.HTTPReadTimeout, err = getEnvDuration("IV_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("IV_HTTP_READ_TIMEOUT: %w", err)
	}

	cfg.HTTPWriteTimeout, err = getEnvDuration("IV_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("IV_HTTP_WRITE_TIMEOUT: %w", err)
	}

	cfg.HTTPIdleTimeout, err = getEnvDuration("IV_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("IV_HTTP_IDLE_TIMEOUT: %w", err)
	}

	cfg.ShutdownTimeout, err = getEnvDuration("IV_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("IV_SHUTDOWN_TIMEOUT: %w", err)
	}

	// --- PostgreSQL ---

	cfg.DBHost = getEnvDefault("IV_DB_HOST", "localhost")

	cfg.DBPort, err = getEnvInt("IV_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("IV_DB_PORT: %w", err)
	}

	cfg.DBName = getEnvDefault("IV_DB_NAME", "imagevault")
	cfg.DBUser = getEnvDefault("IV_DB_USER", "imagevault")
	cfg.DBPassword = os.Getenv("IV_DB_PASSWORD")
	cfg.DBSSLMode = getEnvDefault("IV_DB_SSLMODE", "disable")

	// --- Identity-провайдер ---

	// IV_JWKS_URL — JWKS endpoint identity-провайдера (обязательный)
	cfg.JWKSURL, err = getEnvRequired("IV_JWKS_URL")
	if err != nil {
		return nil, err
	}

	cfg.JWTIssuer = os.Getenv("IV_JWT_ISSUER")

	cfg.JWKSClientTimeout, err = getEnvDuration("IV_JWKS_CLIENT_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("IV_JWKS_CLIENT_TIMEOUT: %w", err)
	}

	cfg.JWKSRefreshInterval, err = getEnvDuration("IV_JWKS_REFRESH_INTERVAL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("IV_JWKS_REFRESH_INTERVAL: %w", err)
	}

	cfg.JWTLeeway, err = getEnvDuration("IV_JWT_LEEWAY", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("IV_JWT_LEEWAY: %w", err)
	}

	cfg.AuthCACertPath = os.Getenv("IV_AUTH_CA_CERT_PATH")

	// --- Контентное хранилище ---

	// IV_STORE_URL — базовый URL хранилища (обязательный)
	cfg.StoreURL, err = getEnvRequired("IV_STORE_URL")
	if err != nil {
		return nil, err
	}

	// IV_STORE_BUCKET — bucket хранилища (обязательный)
	cfg.StoreBucket, err = getEnvRequired("IV_STORE_BUCKET")
	if err != nil {
		return nil, err
	}

	cfg.StoreKey = os.Getenv("IV_STORE_KEY")
	cfg.StoreSecret = os.Getenv("IV_STORE_SECRET")

	cfg.StoreTimeout, err = getEnvDuration("IV_STORE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("IV_STORE_TIMEOUT: %w", err)
	}

	cfg.StoreCACertPath = os.Getenv("IV_STORE_CA_CERT_PATH")

	// --- Загрузка ---

	cfg.MaxUploadSize, err = getEnvInt64("IV_MAX_UPLOAD_SIZE", 32<<20)
	if err != nil {
		return nil, fmt.Errorf("IV_MAX_UPLOAD_SIZE: %w", err)
	}
	if cfg.MaxUploadSize <= 0 {
		return nil, fmt.Errorf("IV_MAX_UPLOAD_SIZE: значение должно быть > 0")
	}

	// --- Кэш ---

	cfg.CacheSize, err = getEnvInt("IV_CACHE_SIZE", 1000)
	if err != nil {
		return nil, fmt.Errorf("IV_CACHE_SIZE: %w", err)
	}
	if cfg.CacheSize <= 0 {
		return nil, fmt.Errorf("IV_CACHE_SIZE: значение должно быть > 0")
	}

	cfg.CacheTTL, err = getEnvDuration("IV_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("IV_CACHE_TTL: %w", err)
	}

	// --- topologymetrics ---

	cfg.DephealthGroup = getEnvDefault("IV_DEPHEALTH_GROUP", "imagevault")

	cfg.DephealthCheckInterval, err = getEnvDuration("IV_DEPHEALTH_CHECK_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("IV_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64-значение переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
