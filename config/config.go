package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	AppPort         string
	AppMode         string
	ShutdownTimeout int

	DatabaseURL    string
	DBHost         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBPort         string
	DBSSLMode      string
	DBMaxOpenConns int
	DBMaxIdleConns int
	AutoMigrate    bool

	RedisEnabled   bool
	RedisHost      string
	RedisPort      string
	RedisPassword  string
	RedisDB        int
	PresenceTTLMin int

	BcryptCost int
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort:         getEnv("APP_PORT", "8080"),
		AppMode:         getEnv("APP_MODE", "debug"),
		ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT_SEC", 5),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBUser:          getEnv("DB_USER", "postgres"),
		DBPassword:      getEnv("DB_PASSWORD", "postgres"),
		DBName:          getEnv("DB_NAME", "messenger"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBSSLMode:       getEnv("DB_SSLMODE", "disable"),
		DBMaxOpenConns:  getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:  getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		AutoMigrate:     getEnvAsBool("AUTO_MIGRATE", true),
		RedisEnabled:    getEnvAsBool("REDIS_ENABLED", false),
		RedisHost:       getEnv("REDIS_HOST", "localhost"),
		RedisPort:       getEnv("REDIS_PORT", "6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvAsInt("REDIS_DB", 0),
		PresenceTTLMin:  getEnvAsInt("PRESENCE_TTL_MIN", 5),
		BcryptCost:      getEnvAsInt("BCRYPT_COST", bcrypt.DefaultCost),
	}
}

// DSN returns DATABASE_URL when set, otherwise a keyword/value string built from the DB_* fields.
// Sessions always run in UTC because the timestamp columns carry no zone.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return withUTC(c.DatabaseURL)
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

func withUTC(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return dsn
		}
		q := u.Query()
		for key := range q {
			if strings.EqualFold(key, "timezone") {
				return dsn
			}
		}
		q.Set("timezone", "UTC")
		u.RawQuery = q.Encode()
		return u.String()
	}
	if strings.Contains(strings.ToLower(dsn), "timezone=") {
		return dsn
	}
	return dsn + " TimeZone=UTC"
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
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
