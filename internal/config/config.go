package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	MongoURI       string
	MongoDatabase  string
	ServerPort     string
	LogLevel       string
	TimeZone       string
	PokeAPIBaseURL string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:  getEnv("MONGO_DATABASE", "ptcg_tracker"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		TimeZone:       getEnv("TIME_ZONE", "America/Sao_Paulo"),
		PokeAPIBaseURL: getEnv("POKEAPI_BASE_URL", "https://pokeapi.co/api/v2"),
	}

	logger.Info().
		Str("mongo_database", cfg.MongoDatabase).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("time_zone", cfg.TimeZone).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
