package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values for the indexer process.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Signing   SigningConfig
	Pinning   PinningConfig
	Price     PriceOracleConfig
	Scheduler SchedulerConfig
	Chains    []ChainConfig
}

// ServerConfig holds the Query Interface's HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds Postgres connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// URL returns the Postgres connection DSN.
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode + "&prepare_threshold=0"
}

// RedisConfig holds the cache-layer connection parameters.
type RedisConfig struct {
	URL      string
	Password string
}

// SigningConfig holds the initiator's raw signing key. Consumed as-is;
// encrypted key management is a spec.md Non-goal.
type SigningConfig struct {
	InitiatorPrivateKeyHex string
}

// PinningConfig holds the metadata pinning service's connection details.
type PinningConfig struct {
	BaseURL string
	APIKey  string
}

// PriceOracleConfig holds the price venue base URL and the per-chain
// token->venue-symbol mapping, keyed "chainID:tokenAddress" (lowercase).
type PriceOracleConfig struct {
	VenueBaseURL  string
	SymbolByToken map[string]string
}

// SchedulerConfig holds the driver loop's timing parameters. It is loaded
// but not read by usecases.ChainScheduler, which ticks every
// usecases.TickInterval and starts without a warmup delay.
type SchedulerConfig struct {
	TickInterval time.Duration
	Warmup       time.Duration
}

// ChainConfig holds the per-chain parameters spec.md §6 requires.
type ChainConfig struct {
	ChainID            string
	ShortName          string
	RouterAddress      string
	RPCURL             string
	MinBlock           uint64
	PriorityFeeWei     uint64
	NeedsPOAMiddleware bool
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "subpay_indexer"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Signing: SigningConfig{
			InitiatorPrivateKeyHex: getEnv("INITIATOR_PRIVATE_KEY", ""),
		},
		Pinning: PinningConfig{
			BaseURL: getEnv("PINATA_GATEWAY_BASE_URL", "https://gateway.pinata.cloud/ipfs"),
			APIKey:  getEnv("PINATA_JWT", ""),
		},
		Price: PriceOracleConfig{
			VenueBaseURL:  getEnv("PRICE_VENUE_BASE_URL", "https://api.binance.com"),
			SymbolByToken: parseSymbolTable(getEnv("PRICE_SYMBOL_TABLE", "")),
		},
		Scheduler: SchedulerConfig{
			TickInterval: getEnvAsDuration("SCHEDULER_TICK_INTERVAL", 12*time.Second),
			Warmup:       getEnvAsDuration("SCHEDULER_WARMUP", 2*time.Second),
		},
		Chains: parseChains(getEnv("CHAINS", "")),
	}
}

// parseSymbolTable parses "chainID:token=SYMBOL,chainID:token=SYMBOL"
// into the lookup the Price Oracle consults.
func parseSymbolTable(raw string) map[string]string {
	table := make(map[string]string)
	if raw == "" {
		return table
	}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		kv := strings.SplitN(entry, "=", 2)
		if len(kv) != 2 {
			continue
		}
		table[strings.ToLower(strings.TrimSpace(kv[0]))] = strings.TrimSpace(kv[1])
	}
	return table
}

// parseChains parses a ';'-separated list of chain specs, each
// "chainID,shortName,routerAddress,rpcURL,minBlock,priorityFeeWei,needsPOA".
func parseChains(raw string) []ChainConfig {
	var chains []ChainConfig
	if raw == "" {
		return chains
	}
	for _, spec := range strings.Split(raw, ";") {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		fields := strings.Split(spec, ",")
		if len(fields) < 4 {
			continue
		}
		cfg := ChainConfig{
			ChainID:       strings.TrimSpace(fields[0]),
			ShortName:     strings.TrimSpace(fields[1]),
			RouterAddress: strings.TrimSpace(fields[2]),
			RPCURL:        strings.TrimSpace(fields[3]),
		}
		if len(fields) > 4 {
			if v, err := strconv.ParseUint(strings.TrimSpace(fields[4]), 10, 64); err == nil {
				cfg.MinBlock = v
			}
		}
		if len(fields) > 5 {
			if v, err := strconv.ParseUint(strings.TrimSpace(fields[5]), 10, 64); err == nil {
				cfg.PriorityFeeWei = v
			}
		}
		if len(fields) > 6 {
			cfg.NeedsPOAMiddleware = strings.TrimSpace(fields[6]) == "true"
		}
		chains = append(chains, cfg)
	}
	return chains
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
