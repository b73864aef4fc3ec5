package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hackgods/clinic-scheduling/internal/app"
	"github.com/hackgods/clinic-scheduling/internal/availability"
)

func availabilityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Manage a doctor's weekly hours",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a weekly block of hours",
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, _ := cmd.Flags().GetString("as")
			in, err := weeklyInput(cmd.Flags())
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				w, err := a.Availability.CreateWeekly(ctx, actor, in)
				if err != nil {
					return err
				}
				return printJSON(toWeeklyView(w))
			})
		},
	}
	weeklyFlags(addCmd)
	cmd.AddCommand(addCmd)

	updateCmd := &cobra.Command{
		Use:   "update <availability-id>",
		Short: "Replace a weekly block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, _ := cmd.Flags().GetString("as")
			id, err := parseID(args[0], "availability")
			if err != nil {
				return err
			}
			in, err := weeklyInput(cmd.Flags())
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				w, err := a.Availability.UpdateWeekly(ctx, actor, id, in)
				if err != nil {
					return err
				}
				return printJSON(toWeeklyView(w))
			})
		},
	}
	weeklyFlags(updateCmd)
	cmd.AddCommand(updateCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List a doctor's weekly blocks",
		RunE: func(cmd *cobra.Command, args []string) error {
			doctor, _ := cmd.Flags().GetString("doctor")
			doctorID, err := parseID(doctor, "doctor")
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				rows, err := a.Availability.ListWeekly(ctx, doctorID)
				if err != nil {
					return err
				}
				out := make([]weeklyView, 0, len(rows))
				for i := range rows {
					out = append(out, toWeeklyView(&rows[i]))
				}
				return printJSON(out)
			})
		},
	}
	listCmd.Flags().String("doctor", "", "Doctor id")
	_ = listCmd.MarkFlagRequired("doctor")
	cmd.AddCommand(listCmd)

	cmd.AddCommand(removeCmd("Delete a weekly block", "availability",
		func(ctx context.Context, a *app.App, actor, id string) error {
			wid, err := parseID(id, "availability")
			if err != nil {
				return err
			}
			return a.Availability.DeleteWeekly(ctx, actor, wid)
		}))

	return cmd
}

func weeklyFlags(cmd *cobra.Command) {
	cmd.Flags().String("as", "", "Username of the doctor")
	cmd.Flags().String("day", "", "Day of week, e.g. mon or 1")
	cmd.Flags().String("start", "", "Start time, HH:MM")
	cmd.Flags().String("end", "", "End time, HH:MM")
	cmd.Flags().Int("slot", availability.DefaultSlotMinutes, "Slot duration in minutes")
	cmd.Flags().Bool("inactive", false, "Store the block switched off")
	for _, name := range []string{"as", "day", "start", "end"} {
		_ = cmd.MarkFlagRequired(name)
	}
}

func weeklyInput(flags *pflag.FlagSet) (availability.WeeklyInput, error) {
	day, _ := flags.GetString("day")
	start, _ := flags.GetString("start")
	end, _ := flags.GetString("end")
	slot, _ := flags.GetInt("slot")
	inactive, _ := flags.GetBool("inactive")

	weekday, err := parseWeekday(day)
	if err != nil {
		return availability.WeeklyInput{}, err
	}
	w, err := parseWindow(start, end)
	if err != nil {
		return availability.WeeklyInput{}, err
	}
	if w == nil {
		return availability.WeeklyInput{}, fmt.Errorf("--start and --end are required")
	}
	return availability.WeeklyInput{
		DayOfWeek:           weekday,
		Start:               w.Start,
		End:                 w.End,
		SlotDurationMinutes: slot,
		Active:              !inactive,
	}, nil
}

func exceptionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exception",
		Short: "Manage date exceptions to a doctor's weekly hours",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Close a date or give it special hours",
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, _ := cmd.Flags().GetString("as")
			date, _ := cmd.Flags().GetString("date")
			reason, _ := cmd.Flags().GetString("reason")
			closed, _ := cmd.Flags().GetBool("closed")
			start, _ := cmd.Flags().GetString("start")
			end, _ := cmd.Flags().GetString("end")

			override, err := parseWindow(start, end)
			if err != nil {
				return err
			}
			if closed && override != nil {
				return fmt.Errorf("--closed cannot be combined with --start/--end")
			}

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				day, err := parseDate(date, a.Config.Location)
				if err != nil {
					return err
				}
				e, err := a.Availability.CreateException(ctx, actor, availability.ExceptionInput{
					Date:        day,
					Reason:      reason,
					IsAvailable: !closed,
					Override:    override,
				})
				if err != nil {
					return err
				}
				return printJSON(toExceptionView(e))
			})
		},
	}
	addCmd.Flags().String("as", "", "Username of the doctor")
	addCmd.Flags().String("date", "", "Date, YYYY-MM-DD")
	addCmd.Flags().String("reason", "", "Reason shown to staff")
	addCmd.Flags().Bool("closed", false, "The doctor does not work that day")
	addCmd.Flags().String("start", "", "Override start time, HH:MM")
	addCmd.Flags().String("end", "", "Override end time, HH:MM")
	_ = addCmd.MarkFlagRequired("as")
	_ = addCmd.MarkFlagRequired("date")
	cmd.AddCommand(addCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List a doctor's active exceptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			doctor, _ := cmd.Flags().GetString("doctor")
			doctorID, err := parseID(doctor, "doctor")
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				list, err := a.Availability.ListExceptions(ctx, doctorID)
				if err != nil {
					return err
				}
				out := make([]exceptionView, 0, len(list))
				for i := range list {
					out = append(out, toExceptionView(&list[i]))
				}
				return printJSON(out)
			})
		},
	}
	listCmd.Flags().String("doctor", "", "Doctor id")
	_ = listCmd.MarkFlagRequired("doctor")
	cmd.AddCommand(listCmd)

	cmd.AddCommand(removeCmd("Withdraw an exception", "exception",
		func(ctx context.Context, a *app.App, actor, id string) error {
			eid, err := parseID(id, "exception")
			if err != nil {
				return err
			}
			return a.Availability.DeleteException(ctx, actor, eid)
		}))

	return cmd
}

func removeCmd(short, what string, run func(ctx context.Context, a *app.App, actor, id string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <" + what + "-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, _ := cmd.Flags().GetString("as")
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := run(ctx, a, actor, args[0]); err != nil {
					return err
				}
				return printJSON(map[string]string{"removed": args[0]})
			})
		},
	}
	cmd.Flags().String("as", "", "Username of the doctor")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}
