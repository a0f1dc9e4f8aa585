package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jask/usercards/internal/cli"
	"github.com/jask/usercards/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := cli.Env{Stdout: os.Stdout, Stderr: os.Stderr, Config: cfg}
	if err := cli.Run(ctx, env, os.Args[1:]); err != nil {
		stop()
		log.Fatalf("usercards: %v", err)
	}
}
