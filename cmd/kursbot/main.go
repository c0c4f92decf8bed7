package main

import (
	"log"

	"github.com/joho/godotenv"

	corecmd "github.com/m3rciful/kursbot/core/cmd"
	"github.com/m3rciful/kursbot/internal/app"
)

func main() {
	// .env is optional; real deployments set variables directly.
	_ = godotenv.Load()

	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return app.LoadConfig(path)
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return app.New(cfg.(*app.Config))
		},
	})
	if err != nil {
		log.Fatalf("kursbot: %v", err)
	}
}
