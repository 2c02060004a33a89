// Package config загружает конфигурацию сервиса из переменных окружения,
// необязательного .env-файла и флагов командной строки
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"telemachus-gateway/internal/history"
	"telemachus-gateway/internal/realtime"
	"telemachus-gateway/internal/upstream"
)

// Config содержит конфигурацию сервиса
type Config struct {
	ServerAddr     string
	DatalinkURL    string
	MaxHistory     int
	FetchTimeout   time.Duration
	PollInterval   time.Duration
	Mount          string
	DictionaryPath string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	MirrorWorkers  int
	MirrorBuffer   int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

// DefaultMount префикс маршрутов телеметрии по умолчанию
const DefaultMount = "/proxy/telemachus"

// Load разбирает args (без имени программы). Флаги имеют приоритет над окружением,
// значения из .env не перекрывают уже заданные переменные окружения.
func Load(args []string) (Config, error) {
	flags := pflag.NewFlagSet("telemachus-gateway", pflag.ContinueOnError)
	envFile := flags.String("env-file", ".env", "load environment from this file when it exists")
	addr := flags.String("addr", "", "listen address (overrides SERVER_ADDR)")
	datalink := flags.String("datalink", "", "Telemachus datalink URL (overrides TELEMACHUS_DATALINK_URL)")
	dict := flags.String("dictionary", "", "vessel dictionary file (overrides TELEMACHUS_DICTIONARY)")
	maxHistory := flags.Int("history-length", 0, "samples retained per field (overrides TELEMACHUS_HISTORY_LENGTH)")

	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	if err := loadDotEnv(*envFile); err != nil {
		return Config{}, fmt.Errorf("failed to load %s: %w", *envFile, err)
	}

	env := &envReader{}
	cfg := Config{
		ServerAddr:     getEnv("SERVER_ADDR", ":8080"),
		DatalinkURL:    getEnv("TELEMACHUS_DATALINK_URL", upstream.DefaultBaseURL),
		MaxHistory:     env.Int("TELEMACHUS_HISTORY_LENGTH", history.DefaultMaxHistory),
		FetchTimeout:   env.Duration("TELEMACHUS_FETCH_TIMEOUT", upstream.DefaultTimeout),
		PollInterval:   env.Duration("TELEMACHUS_POLL_INTERVAL", realtime.DefaultInterval),
		Mount:          getEnv("TELEMACHUS_MOUNT", DefaultMount),
		DictionaryPath: getEnv("TELEMACHUS_DICTIONARY", ""),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        env.Int("REDIS_DB", 0),
		MirrorWorkers:  env.Int("MIRROR_WORKERS", runtime.NumCPU()),
		MirrorBuffer:   env.Int("MIRROR_BUFFER", 10000),
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
	}
	if env.err != nil {
		return Config{}, env.err
	}

	if *addr != "" {
		cfg.ServerAddr = *addr
	}
	if *datalink != "" {
		cfg.DatalinkURL = *datalink
	}
	if *dict != "" {
		cfg.DictionaryPath = *dict
	}
	if *maxHistory > 0 {
		cfg.MaxHistory = *maxHistory
	}

	cfg.Mount = normalizeMount(cfg.Mount)
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.MaxHistory <= 0 {
		return fmt.Errorf("history length must be positive, got %d", c.MaxHistory)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %s", c.FetchTimeout)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if !strings.HasPrefix(c.DatalinkURL, "http://") && !strings.HasPrefix(c.DatalinkURL, "https://") {
		return fmt.Errorf("datalink URL must be http(s), got %q", c.DatalinkURL)
	}
	return nil
}

// normalizeMount приводит префикс к виду "/a/b" без завершающего слэша; "/" дает ""
func normalizeMount(mount string) string {
	mount = strings.Trim(strings.TrimSpace(mount), "/")
	if mount == "" {
		return ""
	}
	return "/" + mount
}

func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}

// getEnv получает переменную окружения с значением по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envReader разбирает типизированные переменные окружения и запоминает первую ошибку
type envReader struct {
	err error
}

// Int получает целочисленную переменную окружения
func (e *envReader) Int(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		e.fail(key, value)
		return defaultValue
	}
	return n
}

// Duration принимает длительность ("2s") или целое число миллисекунд
func (e *envReader) Duration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	e.fail(key, value)
	return defaultValue
}

func (e *envReader) fail(key, value string) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid value %q for %s", value, key)
	}
}
