package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/agenticdata/datachat/server"
	"github.com/agenticdata/datachat/server/logger"
	"github.com/agenticdata/datachat/server/profile"
)

var rootCmd = &cobra.Command{
	Use:   "datachat",
	Short: "Chat with a BigQuery dataset through a Gemini agent",
	RunE: func(_ *cobra.Command, _ []string) error {
		return run()
	},
}

func run() error {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	p, err := profile.GetProfile()
	if err != nil {
		return err
	}

	logs, err := logger.New(p.SecureLogPath, p.IsDev())
	if err != nil {
		return err
	}
	defer logs.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := server.NewServer(ctx, p, logs)
	if err != nil {
		return err
	}
	defer s.Close()

	return s.Start(ctx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
