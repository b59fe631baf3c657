package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"revreport/cmd"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	// .env is optional; real deployments set variables in the environment
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	command := "run"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "run":
		dateArg := ""
		if len(os.Args) > 2 {
			dateArg = os.Args[2]
		}
		if err := cmd.RunOnce(ctx, dateArg); err != nil {
			log.Fatalf("Report run failed: %v", err)
		}

	case "daemon":
		if err := cmd.RunDaemon(ctx); err != nil {
			log.Fatalf("Daemon failed: %v", err)
		}

	default:
		log.Fatalf("Unknown command %q, expected run or daemon", command)
	}
}
