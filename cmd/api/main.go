package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/devasign/devasign/internal/api/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(app.LoadConfig())
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(ctx); err != nil {
		log.Printf("application error: %v", err)
		stop()
		os.Exit(1)
	}
}
