package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Wallet modes.
const (
	WalletNode = "node"
	WalletKey  = "key"
)

// Refresh policies applied after a write.
const (
	RefreshOnSuccess = "success"
	RefreshAlways    = "always"
	RefreshNever     = "never"
)

// DefaultEnvFile is read before the environment when present.
const DefaultEnvFile = ".env"

// DefaultListen keeps the HTTP API on loopback unless told otherwise.
const DefaultListen = "127.0.0.1:8080"

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL         string
	Contract       string
	ABIPath        string
	Wallet         string
	PrivateKey     string
	ReadMode       string
	Concurrency    int
	MaxRetries     int
	RetryBackoff   time.Duration
	ReceiptPoll    time.Duration
	ReceiptTimeout time.Duration
	Interval       time.Duration
	Out            string
	StateFile      string
	TxOut          string
	PGDSN          string
	Listen         string
	CORSOrigins    []string
	APIToken       string
	Format         string
	Refresh        string
	LogLevel       string
}

// Load merges .env, config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	if err := loadEnvFile(DefaultEnvFile); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetEnvPrefix("GRIDCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("wallet", WalletNode)
	v.SetDefault("read-mode", "sequential")
	v.SetDefault("concurrency", 4)
	v.SetDefault("max-retries", 0)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("receipt-poll", time.Second)
	v.SetDefault("receipt-timeout", 2*time.Minute)
	v.SetDefault("interval", 15*time.Second)
	v.SetDefault("listen", DefaultListen)
	v.SetDefault("format", "table")
	v.SetDefault("refresh", RefreshOnSuccess)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:         v.GetString("rpc"),
		Contract:       strings.TrimSpace(v.GetString("contract")),
		ABIPath:        v.GetString("abi"),
		Wallet:         strings.ToLower(v.GetString("wallet")),
		PrivateKey:     v.GetString("private-key"),
		ReadMode:       v.GetString("read-mode"),
		Concurrency:    v.GetInt("concurrency"),
		MaxRetries:     v.GetInt("max-retries"),
		RetryBackoff:   v.GetDuration("retry-backoff"),
		ReceiptPoll:    v.GetDuration("receipt-poll"),
		ReceiptTimeout: v.GetDuration("receipt-timeout"),
		Interval:       v.GetDuration("interval"),
		Out:            v.GetString("out"),
		StateFile:      v.GetString("state-file"),
		TxOut:          v.GetString("tx-out"),
		PGDSN:          v.GetString("pg-dsn"),
		Listen:         v.GetString("listen"),
		CORSOrigins:    getStringSlice(v, "cors-origins"),
		APIToken:       v.GetString("api-token"),
		Format:         v.GetString("format"),
		Refresh:        strings.ToLower(v.GetString("refresh")),
		LogLevel:       v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate checks the settings every command needs.
func (c Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if c.Contract == "" {
		return fmt.Errorf("contract address is required")
	}
	if !common.IsHexAddress(c.Contract) {
		return fmt.Errorf("invalid contract address %q", c.Contract)
	}
	switch c.Wallet {
	case WalletNode:
	case WalletKey:
		if c.PrivateKey == "" {
			return fmt.Errorf("private-key is required when wallet=%s", WalletKey)
		}
	default:
		return fmt.Errorf("unknown wallet %q (want %s or %s)", c.Wallet, WalletNode, WalletKey)
	}
	switch c.Refresh {
	case RefreshOnSuccess, RefreshAlways, RefreshNever:
	default:
		return fmt.Errorf("unknown refresh policy %q", c.Refresh)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max-retries must not be negative")
	}
	return nil
}

// ShouldRefresh applies the refresh policy to a write result.
func (c Config) ShouldRefresh(writeOK bool) bool {
	switch c.Refresh {
	case RefreshAlways:
		return true
	case RefreshNever:
		return false
	default:
		return writeOK
	}
}

func loadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
