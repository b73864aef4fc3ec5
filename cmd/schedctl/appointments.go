package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/hackgods/clinic-scheduling/internal/app"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
)

func slotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "List a doctor's candidate slots on a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			doctor, _ := cmd.Flags().GetString("doctor")
			date, _ := cmd.Flags().GetString("date")

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				doctorID, err := parseID(doctor, "doctor")
				if err != nil {
					return err
				}
				day, err := parseDate(date, a.Config.Location)
				if err != nil {
					return err
				}

				slots, err := a.Booking.AvailableSlots(ctx, doctorID, day)
				if err != nil {
					return err
				}
				out := make([]slotView, 0, len(slots))
				for _, s := range slots {
					out = append(out, slotView{
						Instant:   s.Instant.In(a.Config.Location).Format("2006-01-02T15:04"),
						Available: s.Available,
					})
				}
				return printJSON(out)
			})
		},
	}
	cmd.Flags().String("doctor", "", "Doctor id")
	cmd.Flags().String("date", "", "Date, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("doctor")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func bookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book a PENDING appointment for a patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			doctor, _ := cmd.Flags().GetString("doctor")
			patient, _ := cmd.Flags().GetString("patient")
			at, _ := cmd.Flags().GetString("at")
			reason, _ := cmd.Flags().GetString("reason")

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				doctorID, err := parseID(doctor, "doctor")
				if err != nil {
					return err
				}
				patientID, err := parseID(patient, "patient")
				if err != nil {
					return err
				}

				appt, err := a.Booking.CreateAppointment(ctx, appointment.BookingRequest{
					DoctorID:  doctorID,
					PatientID: patientID,
					Instant:   at,
					Reason:    reason,
				})
				if err != nil {
					return err
				}
				return printJSON(toAppointmentView(appt, a.Config.Location))
			})
		},
	}
	cmd.Flags().String("doctor", "", "Doctor id")
	cmd.Flags().String("patient", "", "Patient id")
	cmd.Flags().String("at", "", "Slot instant, e.g. 2026-10-20T09:30")
	cmd.Flags().String("reason", "", "Reason for the visit")
	_ = cmd.MarkFlagRequired("doctor")
	_ = cmd.MarkFlagRequired("patient")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

// transitionCmd builds confirm, cancel and complete, which share their shape.
func transitionCmd(use, short string, run func(ctx context.Context, a *app.App, cmd *cobra.Command, id, actor string) (*appointment.Appointment, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <appointment-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, _ := cmd.Flags().GetString("as")

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				appt, err := run(ctx, a, cmd, args[0], actor)
				if err != nil {
					return err
				}
				return printJSON(toAppointmentView(appt, a.Config.Location))
			})
		},
	}
	cmd.Flags().String("as", "", "Username of the acting user")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func confirmCmd() *cobra.Command {
	return transitionCmd("confirm", "Confirm a PENDING appointment as its doctor",
		func(ctx context.Context, a *app.App, _ *cobra.Command, id, actor string) (*appointment.Appointment, error) {
			apptID, err := parseID(id, "appointment")
			if err != nil {
				return nil, err
			}
			return a.Booking.Confirm(ctx, apptID, actor)
		})
}

func cancelCmd() *cobra.Command {
	return transitionCmd("cancel", "Cancel an appointment as its doctor or patient",
		func(ctx context.Context, a *app.App, _ *cobra.Command, id, actor string) (*appointment.Appointment, error) {
			apptID, err := parseID(id, "appointment")
			if err != nil {
				return nil, err
			}
			return a.Booking.Cancel(ctx, apptID, actor)
		})
}

func completeCmd() *cobra.Command {
	cmd := transitionCmd("complete", "Complete a CONFIRMED appointment as its doctor",
		func(ctx context.Context, a *app.App, cmd *cobra.Command, id, actor string) (*appointment.Appointment, error) {
			apptID, err := parseID(id, "appointment")
			if err != nil {
				return nil, err
			}
			var notes *string
			if cmd.Flags().Changed("notes") {
				n, _ := cmd.Flags().GetString("notes")
				notes = &n
			}
			return a.Booking.Complete(ctx, apptID, actor, notes)
		})
	cmd.Flags().String("notes", "", "Doctor notes to record")
	return cmd
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <appointment-id>",
		Short: "Show one appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				id, err := parseID(args[0], "appointment")
				if err != nil {
					return err
				}
				appt, err := a.Booking.GetAppointment(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(toAppointmentView(appt, a.Config.Location))
			})
		},
	}
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a doctor's appointments between two dates, or a patient's history",
		RunE: func(cmd *cobra.Command, args []string) error {
			doctor, _ := cmd.Flags().GetString("doctor")
			patient, _ := cmd.Flags().GetString("patient")
			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("to")

			if (doctor == "") == (patient == "") {
				return errors.New("exactly one of --doctor or --patient is required")
			}

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				loc := a.Config.Location

				var (
					list []appointment.Appointment
					err  error
				)
				if patient != "" {
					patientID, perr := parseID(patient, "patient")
					if perr != nil {
						return perr
					}
					list, err = a.Booking.ListForPatient(ctx, patientID)
				} else {
					doctorID, perr := parseID(doctor, "doctor")
					if perr != nil {
						return perr
					}
					fromDate, perr := parseDate(from, loc)
					if perr != nil {
						return perr
					}
					toDate, perr := parseDate(to, loc)
					if perr != nil {
						return perr
					}
					// Dates are inclusive on the command line.
					list, err = a.Booking.ListForDoctor(ctx, doctorID,
						startOfDay(fromDate, loc), startOfDay(toDate.AddDate(0, 0, 1), loc))
				}
				if err != nil {
					return err
				}
				return printJSON(toAppointmentViews(list, loc))
			})
		},
	}
	cmd.Flags().String("doctor", "", "Doctor id")
	cmd.Flags().String("patient", "", "Patient id")
	cmd.Flags().String("from", "", "First date, YYYY-MM-DD (with --doctor)")
	cmd.Flags().String("to", "", "Last date, YYYY-MM-DD (with --doctor)")
	return cmd
}
