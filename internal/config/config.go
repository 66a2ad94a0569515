package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string
	Env  string

	ChainHTTPRPC        string
	CooperativeContract string
	TokenContract       string
	ChainFromAddress    string
	ChainTxGasLimit     uint64
	ChainWriterMode     string

	TokenDecimals int32

	ConfirmPatience     time.Duration
	ConfirmPollInterval time.Duration

	DevFaucet bool
}

func Load() Config {
	return Config{
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("APP_ENV", "local"),

		ChainHTTPRPC:        getEnv("CHAIN_HTTP_RPC", "http://localhost:8545"),
		CooperativeContract: getEnv("COOPERATIVE_CONTRACT", ""),
		TokenContract:       getEnv("TOKEN_CONTRACT", ""),
		ChainFromAddress:    getEnv("CHAIN_FROM_ADDRESS", ""),
		ChainTxGasLimit:     getEnvUint64("CHAIN_TX_GAS_LIMIT", 300000),
		ChainWriterMode:     getEnv("CHAIN_WRITER_MODE", "stub"),

		TokenDecimals: getEnvInt32("TOKEN_DECIMALS", 18),

		ConfirmPatience:     getEnvDuration("CONFIRM_PATIENCE", 90*time.Second),
		ConfirmPollInterval: getEnvDuration("CONFIRM_POLL_INTERVAL", 2*time.Second),

		DevFaucet: getEnvBool("DEV_FAUCET", false),
	}
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt32(key string, fallback int32) int32 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		out, err := strconv.ParseInt(strings.TrimSpace(v), 10, 32)
		if err == nil {
			return int32(out)
		}
	}
	return fallback
}

func getEnvUint64(key string, fallback uint64) uint64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		out, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err == nil {
			return out
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		n := strings.ToLower(strings.TrimSpace(v))
		return n == "1" || n == "true" || n == "yes"
	}
	return fallback
}
