package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hackgods/clinic-scheduling/internal/app"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/sweeper"
)

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "sweep [reminders|purge|auto_complete|all]",
		Short:     "Run maintenance sweeps once",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{sweeper.SweepReminders, sweeper.SweepPurge, sweeper.SweepAutoComplete, "all"},
		RunE: func(cmd *cobra.Command, args []string) error {
			which := "all"
			if len(args) == 1 {
				which = args[0]
			}

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				var results []sweeper.Result
				switch which {
				case "all":
					results = a.Sweeper.RunOnce(ctx)
				case sweeper.SweepReminders:
					results = []sweeper.Result{a.Sweeper.Reminders(ctx)}
				case sweeper.SweepPurge:
					results = []sweeper.Result{a.Sweeper.Purge(ctx)}
				case sweeper.SweepAutoComplete:
					results = []sweeper.Result{a.Sweeper.AutoComplete(ctx)}
				default:
					return fmt.Errorf("unknown sweep %q", which)
				}

				out := make([]sweepView, 0, len(results))
				for _, r := range results {
					out = append(out, toSweepView(r))
				}
				return printJSON(out)
			})
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				applied, err := db.Migrate(ctx, a.Pool)
				if err != nil {
					return err
				}
				if applied == nil {
					applied = []string{}
				}
				return printJSON(map[string][]string{"applied": applied})
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the migrations bundled into this binary",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := db.MigrationNames()
			if err != nil {
				return err
			}
			return printJSON(names)
		},
	})

	return cmd
}
