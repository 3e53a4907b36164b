package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"

	"bookmap/internal/logger"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{fs: afero.NewOsFs()}
	if err := newRootCommand(a).ExecuteContext(ctx); err != nil {
		log := a.log
		if log == nil {
			log = logger.New(logger.DefaultConfig())
		}
		log.Error("bookmap failed", "error", err)
		stop()
		os.Exit(1)
	}
}
