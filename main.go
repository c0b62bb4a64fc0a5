package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"roundsettle/cmd"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	// A missing .env file is fine; the environment is authoritative
	_ = godotenv.Load()

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx); err != nil {
		log.WithError(err).Fatal("Application error")
	}
}
