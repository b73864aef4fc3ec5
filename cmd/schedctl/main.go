// Command schedctl is the operator CLI for the scheduling core. Every
// subcommand talks to Postgres and Redis directly through the same services
// the worker uses.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hackgods/clinic-scheduling/internal/app"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/logger"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "schedctl",
		Short:         "Operate the clinic appointment scheduler",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(slotsCmd())
	rootCmd.AddCommand(bookCmd())
	rootCmd.AddCommand(confirmCmd())
	rootCmd.AddCommand(cancelCmd())
	rootCmd.AddCommand(completeCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(availabilityCmd())
	rootCmd.AddCommand(exceptionCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(migrateCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// withApp connects, runs fn and tears everything down again. Notifications
// raised by fn are delivered before it returns.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	log.SetOutput(os.Stderr)

	ctx := cmd.Context()
	a, err := app.Connect(ctx, "schedctl", cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	a.Dispatcher.Start(ctx)
	return fn(ctx, a)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
