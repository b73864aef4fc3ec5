package main

import (
	"time"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/sweeper"
)

type appointmentView struct {
	ID          string  `json:"id"`
	DoctorID    string  `json:"doctor_id"`
	PatientID   string  `json:"patient_id"`
	Instant     string  `json:"instant"`
	Status      string  `json:"status"`
	Reason      string  `json:"reason,omitempty"`
	DoctorNotes *string `json:"doctor_notes,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

func toAppointmentView(a *appointment.Appointment, loc *time.Location) appointmentView {
	v := appointmentView{
		ID:          a.ID.String(),
		DoctorID:    a.DoctorID.String(),
		PatientID:   a.PatientID.String(),
		Instant:     a.Instant.In(loc).Format(time.RFC3339),
		Status:      string(a.Status),
		Reason:      a.Reason,
		DoctorNotes: a.DoctorNotes,
		CreatedAt:   a.CreatedAt.In(loc).Format(time.RFC3339),
	}
	if !a.UpdatedAt.IsZero() {
		v.UpdatedAt = a.UpdatedAt.In(loc).Format(time.RFC3339)
	}
	return v
}

func toAppointmentViews(list []appointment.Appointment, loc *time.Location) []appointmentView {
	out := make([]appointmentView, 0, len(list))
	for i := range list {
		out = append(out, toAppointmentView(&list[i], loc))
	}
	return out
}

type slotView struct {
	Instant   string `json:"instant"`
	Available bool   `json:"available"`
}

type weeklyView struct {
	ID                  string `json:"id"`
	DayOfWeek           string `json:"day_of_week"`
	Start               string `json:"start"`
	End                 string `json:"end"`
	SlotDurationMinutes int    `json:"slot_duration_minutes"`
	Active              bool   `json:"active"`
}

func toWeeklyView(w *availability.WeeklyAvailability) weeklyView {
	return weeklyView{
		ID:                  w.ID.String(),
		DayOfWeek:           w.DayOfWeek.String(),
		Start:               w.StartTime.String(),
		End:                 w.EndTime.String(),
		SlotDurationMinutes: w.SlotDurationMinutes,
		Active:              w.Active,
	}
}

type exceptionView struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Reason      string `json:"reason,omitempty"`
	IsAvailable bool   `json:"is_available"`
	Start       string `json:"start,omitempty"`
	End         string `json:"end,omitempty"`
}

func toExceptionView(e *availability.DateException) exceptionView {
	v := exceptionView{
		ID:          e.ID.String(),
		Date:        e.Date.Format(time.DateOnly),
		Reason:      e.Reason,
		IsAvailable: e.IsAvailable,
	}
	if e.Override != nil {
		v.Start = e.Override.Start.String()
		v.End = e.Override.End.String()
	}
	return v
}

type sweepView struct {
	Sweep     string `json:"sweep"`
	Selected  int    `json:"selected"`
	Succeeded int    `json:"succeeded"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
	Error     string `json:"error,omitempty"`
	Duration  string `json:"duration"`
}

func toSweepView(r sweeper.Result) sweepView {
	v := sweepView{
		Sweep:     r.Sweep,
		Selected:  r.Selected,
		Succeeded: r.Succeeded,
		Skipped:   r.Skipped,
		Failed:    r.Failed,
		Duration:  r.Duration.String(),
	}
	if r.Err != nil {
		v.Error = r.Err.Error()
	}
	return v
}
