package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string
	JWTKey  []byte

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel string
	LogFile  string

	DefaultTimeLimitMs   int
	DefaultMemoryLimitMB int
	MaxTimeLimitMs       int
	MaxTestCases         int
	ExecMaxOutputBytes   int64
	ProgramCacheSize     int64
	ExecRatePerMinute    int
	ExecRateBurst        int

	CORSAllowedOrigins []string

	NotificationsEnabled  bool
	NotificationQueueName string
	SMTPHost              string
	SMTPPort              int
	SMTPUsername          string
	SMTPPassword          string
	SMTPFrom              string
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:    getEnv("API_PORT", "8080"),
		JWTKey:     []byte(getEnv("JWT_SECRET", "defaultsecret")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "grader_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),

		DefaultTimeLimitMs:   getEnvAsInt("DEFAULT_TIME_LIMIT_MS", 2000),
		DefaultMemoryLimitMB: getEnvAsInt("DEFAULT_MEMORY_LIMIT_MB", 256),
		MaxTimeLimitMs:       getEnvAsInt("MAX_TIME_LIMIT_MS", 10000),
		MaxTestCases:         getEnvAsInt("MAX_TEST_CASES", 50),
		ExecMaxOutputBytes:   int64(getEnvAsInt("EXEC_MAX_OUTPUT_BYTES", 1<<20)),
		ProgramCacheSize:     int64(getEnvAsInt("PROGRAM_CACHE_SIZE", 512)),
		ExecRatePerMinute:    getEnvAsInt("EXEC_RATE_PER_MINUTE", 30),
		ExecRateBurst:        getEnvAsInt("EXEC_RATE_BURST", 5),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		NotificationsEnabled:  getEnvAsBool("NOTIFICATIONS_ENABLED", false),
		NotificationQueueName: getEnv("NOTIFICATION_QUEUE_NAME", "solve_notifications"),
		SMTPHost:              getEnv("SMTP_HOST", "localhost"),
		SMTPPort:              getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername:          getEnv("SMTP_USERNAME", ""),
		SMTPPassword:          getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:              getEnv("SMTP_FROM", "noreply@localhost"),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

// RequestTimeout bounds one HTTP request. A submit may run every case up to
// the maximum time limit, plus overhead for persistence.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.MaxTimeLimitMs*c.MaxTestCases)*time.Millisecond + 30*time.Second
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
