package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Ledger modes.
const (
	LedgerModeRPC    = "rpc"
	LedgerModeMemory = "memory"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	DatabaseURL         string // postgres DSN, or file:/sqlite: for an embedded database
	RedisURL            string
	NatsURL             string
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string

	LedgerMode          string
	LedgerRPCURL        string
	ContractAddress     string
	DefaultAccountIndex int
	TxTimeout           time.Duration
	ReceiptPollInterval time.Duration
	RebuildConcurrency  int
	MemoryAccounts      int

	OperatorUsername     string
	OperatorPasswordHash string // bcrypt

	LogLevel string
	LogFile  string
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("LEDGER_MODE", LedgerModeRPC)
	v.SetDefault("LEDGER_RPC_URL", "http://127.0.0.1:7545")
	v.SetDefault("DEFAULT_ACCOUNT_INDEX", 0)
	v.SetDefault("TX_TIMEOUT", "60s")
	v.SetDefault("RECEIPT_POLL_INTERVAL", "500ms")
	v.SetDefault("REBUILD_CONCURRENCY", 8)
	v.SetDefault("MEMORY_ACCOUNTS", 10)
	v.SetDefault("LOG_LEVEL", "info")

	return &Config{
		Env:                  v.GetString("APP_ENV"),
		Port:                 v.GetString("PORT"),
		DatabaseURL:          v.GetString("DATABASE_URL"),
		RedisURL:             v.GetString("REDIS_URL"),
		NatsURL:              v.GetString("NATS_URL"),
		FrontendURLEndsWith:  v.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:          v.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:    strings.EqualFold(v.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:       v.GetString("HEALTH_ADMIN_KEY"),
		LedgerMode:           strings.ToLower(strings.TrimSpace(v.GetString("LEDGER_MODE"))),
		LedgerRPCURL:         v.GetString("LEDGER_RPC_URL"),
		ContractAddress:      v.GetString("CONTRACT_ADDRESS"),
		DefaultAccountIndex:  v.GetInt("DEFAULT_ACCOUNT_INDEX"),
		TxTimeout:            v.GetDuration("TX_TIMEOUT"),
		ReceiptPollInterval:  v.GetDuration("RECEIPT_POLL_INTERVAL"),
		RebuildConcurrency:   v.GetInt("REBUILD_CONCURRENCY"),
		MemoryAccounts:       v.GetInt("MEMORY_ACCOUNTS"),
		OperatorUsername:     v.GetString("OPERATOR_USERNAME"),
		OperatorPasswordHash: v.GetString("OPERATOR_PASSWORD_HASH"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		LogFile:              v.GetString("LOG_FILE"),
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
