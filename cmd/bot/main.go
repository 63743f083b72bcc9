package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"voicebank/internal/config"
	"voicebank/internal/noise"
	"voicebank/internal/prompt"
	"voicebank/internal/scheduler"
	"voicebank/internal/store"
	"voicebank/internal/telegram"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	eval := noise.Evaluator{
		Threshold:  cfg.NoiseThreshold,
		Percentile: cfg.NoisePercentile,
	}

	var prompts prompt.Source = prompt.Static{}
	if cfg.OpenAIAPIKey != "" {
		prompts = prompt.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}

	bot, err := telegram.New(cfg.TelegramBotToken, st, prompts, eval, cfg.DefaultQuota)
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	sched := scheduler.New(st, cfg.SessionTTL)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	bot.Start(context.Background())
}
