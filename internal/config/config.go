package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config is the fully resolved runtime configuration of the wallet service.
type Config struct {
	Env         string
	Port        string
	LogLevel    string
	JWTSecret   string
	CORSOrigins string
	RateLimit   int

	DB     DBConfig
	Redis  RedisConfig
	Wallet WalletConfig
	Recon  ReconConfig
}

type DBConfig struct {
	Driver          string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	SQLitePath      string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DSN renders the Postgres connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

type RedisConfig struct {
	Enabled    bool
	Host       string
	Port       string
	Password   string
	DB         int
	BalanceTTL time.Duration
}

// Addr returns host:port.
func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type WalletConfig struct {
	Currency          string
	MinorUnitExponent int32
	TopupPackages     []int64
	DefaultPageSize   int
	MaxPageSize       int
}

type ReconConfig struct {
	Enabled   bool
	RunHour   int
	RunMinute int
}

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("no .env file found: %v", err)
	}
}

// Load reads the environment into a Config, applying defaults for anything unset.
func Load() Config {
	return Config{
		Env:         GetEnv("ENV", "development"),
		Port:        GetEnv("PORT", "8080"),
		LogLevel:    GetEnv("LOG_LEVEL", "info"),
		JWTSecret:   GetEnv("JWT_SECRET", "dev-secret-change-me"),
		CORSOrigins: GetEnv("CORS_ORIGINS", "*"),
		RateLimit:   GetIntEnv("RATE_LIMIT_PER_MINUTE", 120),
		DB: DBConfig{
			Driver:          GetEnv("DB_DRIVER", "postgres"),
			Host:            GetEnv("DB_HOST", "localhost"),
			Port:            GetEnv("DB_PORT", "5432"),
			User:            GetEnv("DB_USER", "postgres"),
			Password:        GetEnv("DB_PASSWORD", "postgres"),
			Name:            GetEnv("DB_NAME", "tripwallet"),
			SSLMode:         GetEnv("DB_SSLMODE", "disable"),
			SQLitePath:      GetEnv("DB_SQLITE_PATH", "tripwallet.db"),
			MaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 50),
			ConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 10*time.Minute),
		},
		Redis: RedisConfig{
			Enabled:    GetBoolEnv("REDIS_ENABLED", false),
			Host:       GetEnv("REDIS_HOST", "localhost"),
			Port:       GetEnv("REDIS_PORT", "6379"),
			Password:   GetEnv("REDIS_PASSWORD", ""),
			DB:         GetIntEnv("REDIS_DB", 0),
			BalanceTTL: GetDurationEnv("REDIS_BALANCE_TTL", 5*time.Minute),
		},
		Wallet: WalletConfig{
			Currency:          GetEnv("WALLET_CURRENCY", "PKR"),
			MinorUnitExponent: int32(GetIntEnv("WALLET_MINOR_UNIT_EXPONENT", 0)),
			TopupPackages:     GetInt64ListEnv("TOPUP_PACKAGES", []int64{5000, 10000, 20000, 50000}),
			DefaultPageSize:   GetIntEnv("WALLET_PAGE_SIZE", 20),
			MaxPageSize:       GetIntEnv("WALLET_MAX_PAGE_SIZE", 100),
		},
		Recon: ReconConfig{
			Enabled:   GetBoolEnv("RECON_ENABLED", true),
			RunHour:   GetIntEnv("RECON_RUN_HOUR", 3),
			RunMinute: GetIntEnv("RECON_RUN_MINUTE", 15),
		},
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return i
		}
	}
	return defaultVal
}

func GetBoolEnv(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(val)); err == nil {
			return b
		}
	}
	return defaultVal
}

// GetDurationEnv accepts Go duration strings such as "90s" or "5m".
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(val)); err == nil {
			return d
		}
	}
	return defaultVal
}

// GetInt64ListEnv parses a comma separated list of integers. Any malformed
// entry makes the whole value fall back to the default.
func GetInt64ListEnv(key string, defaultVal []int64) []int64 {
	val, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		return defaultVal
	}
	parts := strings.Split(val, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return defaultVal
		}
		out = append(out, n)
	}
	return out
}

// IsProduction checks if the app runs in production mode.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}
