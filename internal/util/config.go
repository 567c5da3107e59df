package util

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

//nolint:gochecknoglobals // here its ok
var once sync.Once

func init() {
	once.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("Warning: could not load .env file: %v", err)
		}
	})
}

const (
	defaultHTTPTimeout = 30 * time.Second
	defaultPageLimit   = 15

	defaultStoreBackend = "file"
	defaultStoreDirName = ".taskmarket"
)

type APIConfig struct {
	BaseURL     string
	HTTPTimeout time.Duration
	PageLimit   int
}

func NewAPIConfig() *APIConfig {
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		log.Fatal("BASE_URL is not set")
	}

	return &APIConfig{
		BaseURL:     baseURL,
		HTTPTimeout: parseDurationOrDefault("HTTP_TIMEOUT", defaultHTTPTimeout),
		PageLimit:   parseIntOrDefault("PAGE_LIMIT", defaultPageLimit),
	}
}

// StoreConfig выбирает бэкенд хранилища учетных данных.
// Backend: file | redis | postgres | memory.
type StoreConfig struct {
	Backend string
	Dir     string
}

func NewStoreConfig() *StoreConfig {
	backend := os.Getenv("TOKEN_STORE")
	if backend == "" {
		backend = defaultStoreBackend
	}

	dir := os.Getenv("STORE_DIR")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			dir = defaultStoreDirName
		} else {
			dir = filepath.Join(home, defaultStoreDirName)
		}
	}

	return &StoreConfig{
		Backend: backend,
		Dir:     dir,
	}
}

type DBConfig struct {
	DSN string
}

func NewDBConfig() *DBConfig {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	return &DBConfig{
		DSN: dsn,
	}
}

type RedisConfig struct {
	Addr string
}

func NewRedisConfig() *RedisConfig {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		log.Fatal("REDIS_ADDR is not set")
	}

	return &RedisConfig{
		Addr: addr,
	}
}

func parseDurationOrDefault(varName string, def time.Duration) time.Duration {
	if v := os.Getenv(varName); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("Invalid duration in %s: %s, using default %s", varName, v, def)
	}
	return def
}

func parseIntOrDefault(varName string, def int) int {
	if v := os.Getenv(varName); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("Invalid integer in %s: %s, using default %d", varName, v, def)
	}
	return def
}
