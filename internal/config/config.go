// Package config loads application configuration from environment variables.
package config

import (
	"os"
	"strconv"

	"github.com/fasmdigital/gnre-cnab-converter/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Payer  models.PayerProfile
	Server ServerConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	ListenAddr  string
	SeqFilePath string
	MaxUploadMB int
	PageWorkers int
}

// Load reads configuration from environment variables, falling back to the
// payer identity the tool was originally deployed with.
func Load() *Config {
	return &Config{
		Payer: models.PayerProfile{
			BankCode:     getEnv("CNAB_BANK", "341"),
			TaxpayerID:   getEnv("CNAB_CNPJ", "03781919000158"),
			Agency:       getEnv("CNAB_AGENCY", "1529"),
			Account:      getEnv("CNAB_ACCOUNT", "70940"),
			AccountDigit: getEnv("CNAB_ACCOUNT_DIGIT", "2"),
			LegalName:    getEnv("CNAB_COMPANY", "FASM COMERCIO DE ARTIGOS DO VESTUARIO LTDA"),
			BankName:     getEnv("CNAB_BANK_NAME", "BANCO ITAU S.A."),
		},
		Server: ServerConfig{
			ListenAddr:  getEnv("LISTEN_ADDR", ":8080"),
			SeqFilePath: getEnv("CNAB_SEQ_FILE", ".cnab_state/seq.txt"),
			MaxUploadMB: getEnvAsInt("MAX_UPLOAD_MB", 32),
			PageWorkers: getEnvAsInt("PAGE_WORKERS", 4),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
