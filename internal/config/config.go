package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	MongoURI       string
	DBName         string
	JWTSecret      string
	AccessTokenTTL time.Duration
	Payments       PaymentConfig
}

// PaymentConfig groups every gateway/ledger setting the reconciliation engine
// needs. It is resolved once at startup and passed into the engine explicitly;
// business logic never reads the environment directly.
type PaymentConfig struct {
	GatewayAPIKey        string
	LedgerFeedURL        string
	LedgerTimeout        time.Duration
	MatchTolerance       float64
	SessionTTL           time.Duration
	SweepLookback        time.Duration
	ConfirmSweepInterval time.Duration
	ExpirySweepInterval  time.Duration
	AccountName          string
	BankAccounts         map[string]string
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		MongoURI:       getEnvOrDefault("MONGO_URI", ""),
		DBName:         getEnvOrDefault("DB_NAME", "storefront"),
		JWTSecret:      getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL: getDurationEnv("ACCESS_TOKEN_TTL", 20, time.Minute),
		Payments: PaymentConfig{
			GatewayAPIKey:        getEnvOrDefault("GATEWAY_API_KEY", ""),
			LedgerFeedURL:        getEnvOrDefault("LEDGER_FEED_URL", ""),
			LedgerTimeout:        getDurationEnv("LEDGER_TIMEOUT_SECONDS", 10, time.Second),
			MatchTolerance:       getFloatEnv("PAYMENT_MATCH_TOLERANCE", 1000),
			SessionTTL:           getDurationEnv("SESSION_TTL_MINUTES", 30, time.Minute),
			SweepLookback:        getDurationEnv("SWEEP_LOOKBACK_MINUTES", 60, time.Minute),
			ConfirmSweepInterval: getDurationEnv("CONFIRM_SWEEP_MINUTES", 5, time.Minute),
			ExpirySweepInterval:  getDurationEnv("EXPIRY_SWEEP_MINUTES", 30, time.Minute),
			AccountName:          getEnvOrDefault("BANK_ACCOUNT_NAME", ""),
			BankAccounts:         getBankAccountsEnv("BANK_ACCOUNTS"),
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return defaultValue
}

// getBankAccountsEnv parses "VCB:1031293650,MB:0347178790" into a
// code -> account number map.
func getBankAccountsEnv(key string) map[string]string {
	accounts := map[string]string{}
	for _, pair := range strings.Split(os.Getenv(key), ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 {
			continue
		}
		code := strings.ToUpper(strings.TrimSpace(parts[0]))
		number := strings.TrimSpace(parts[1])
		if code == "" || number == "" {
			continue
		}
		accounts[code] = number
	}
	return accounts
}
