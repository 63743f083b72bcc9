package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN,required"`

	// Storage
	DBPath string `env:"DB_PATH" envDefault:"data/voicebank.db"`

	// Audio acceptance
	NoiseThreshold  float64 `env:"NOISE_THRESHOLD" envDefault:"0.01"`
	NoisePercentile float64 `env:"NOISE_PERCENTILE" envDefault:"10"`

	// Contributor quota for new signups
	DefaultQuota int `env:"DEFAULT_QUOTA" envDefault:"10"`

	// Sessions older than this are swept by the scheduler
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"72h"`

	// Prompt generation (optional; static prompt list without a key)
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OpenAIModel  string `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
