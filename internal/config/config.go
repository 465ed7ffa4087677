package config

import (
	"os"
	"strconv"

	"github.com/mkfin/banking-backend/internal/models"
)

type Config struct {
	ProjectID        string
	LogLevel         string
	KMSKeyName       string
	OAuthRedirectURL string
	ProviderEnv      string
	SyncLookbackDays int
	SyncWorkers      int
}

func New() *Config {
	return &Config{
		ProjectID:        os.Getenv("PROJECTID"),
		LogLevel:         os.Getenv("LOGLEVEL"),
		KMSKeyName:       os.Getenv("KMSKEYNAME"),
		OAuthRedirectURL: os.Getenv("OAUTHREDIRECTURL"),
		ProviderEnv:      getProviderEnv(os.Getenv("PROVIDERENV")),
		SyncLookbackDays: getInt(os.Getenv("SYNCLOOKBACKDAYS"), 30),
		SyncWorkers:      getInt(os.Getenv("SYNCWORKERS"), 4),
	}
}

func getProviderEnv(env string) string {
	switch env {
	case models.EnvSandbox:
		return models.EnvSandbox
	default:
		return models.EnvProduction
	}
}

func getInt(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
