package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/cribnosh/group-ordering/internal/app"
	"github.com/cribnosh/group-ordering/internal/config"
)

func main() {
	// Optional in deployment, where env comes from the orchestrator.
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log.Fatalf("failed to load .env file: %v", err)
	}
	path := os.Getenv("CONFIG_PATH")

	cfg := config.MustLoad(path)

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}

	if err = a.Run(); err != nil {
		log.Fatalf("failed to run application: %v", err)
	}
}
