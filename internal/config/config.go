package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DBDriver      string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBPath        string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	SessionSecret string
	JWTSecret     string
	JWTTTL        time.Duration
	GinMode       string
	Port          int

	// StoreResultLimit caps every list query against the task store.
	StoreResultLimit   int
	StoreRetryAttempts int
	StoreRetryBackoff  time.Duration

	CacheEnabled bool
	CachePrefix  string
	CacheTTL     time.Duration

	AdminEmails     []string
	ShutdownTimeout time.Duration
}

func Load() *Config {
	return &Config{
		DBDriver:           getEnv("DB_DRIVER", "mysql"),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "3306"),
		DBUser:             getEnv("DB_USER", "taskuser"),
		DBPassword:         getEnv("DB_PASSWORD", "taskpassword"),
		DBName:             getEnv("DB_NAME", "task_management"),
		DBPath:             getEnv("DB_PATH", "./tasks.db"),
		RedisHost:          getEnv("REDIS_HOST", "localhost"),
		RedisPort:          getEnv("REDIS_PORT", "6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		SessionSecret:      getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		JWTSecret:          getEnv("JWT_SECRET", "default-jwt-secret-change-me"),
		JWTTTL:             getEnvDuration("JWT_TTL", 24*time.Hour),
		GinMode:            getEnv("GIN_MODE", "debug"),
		Port:               getEnvInt("PORT", 8080),
		StoreResultLimit:   getEnvInt("STORE_RESULT_LIMIT", 1000),
		StoreRetryAttempts: getEnvInt("STORE_RETRY_ATTEMPTS", 2),
		StoreRetryBackoff:  getEnvDuration("STORE_RETRY_BACKOFF", 100*time.Millisecond),
		CacheEnabled:       getEnvBool("CACHE_ENABLED", true),
		CachePrefix:        getEnv("CACHE_PREFIX", "tasks:"),
		CacheTTL:           getEnvDuration("CACHE_TTL", time.Minute),
		AdminEmails:        getEnvList("ADMIN_EMAILS"),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// RedisAddr returns host:port of the Redis server used for sessions and the query cache.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// IsAdminEmail reports whether a newly registered account should receive the admin role.
func (c *Config) IsAdminEmail(email string) bool {
	for _, e := range c.AdminEmails {
		if strings.EqualFold(e, strings.TrimSpace(email)) {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Printf("Warning: invalid bool value for %s: %s, using default: %t", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
