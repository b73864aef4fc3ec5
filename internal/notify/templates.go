package notify

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
)

type content struct {
	subject string
	body    *template.Template
}

// view is what templates render from.
type view struct {
	RecipientName  string
	DoctorName     string
	PatientName    string
	When           string
	Reason         string
	Status         string
	PreviousStatus string
	AppointmentID  string
}

var contents = map[appointment.NotificationKind]content{
	appointment.NotifyBookingConfirmedToPatient: {
		subject: "Your appointment request was received",
		body: template.Must(template.New("booking_patient").Parse(
			`Hello {{.RecipientName}},

your appointment with {{.DoctorName}} on {{.When}} has been booked and is awaiting confirmation.
{{if .Reason}}Reason: {{.Reason}}
{{end}}
Appointment ID: {{.AppointmentID}}
`)),
	},
	appointment.NotifyBookingAlertToDoctor: {
		subject: "New appointment request",
		body: template.Must(template.New("booking_doctor").Parse(
			`Hello {{.RecipientName}},

{{.PatientName}} booked an appointment with you on {{.When}}.
{{if .Reason}}Reason: {{.Reason}}
{{end}}
Please confirm or cancel it. Appointment ID: {{.AppointmentID}}
`)),
	},
	appointment.NotifyStatusChanged: {
		subject: "Appointment status updated",
		body: template.Must(template.New("status_changed").Parse(
			`Hello {{.RecipientName}},

the appointment between {{.DoctorName}} and {{.PatientName}} on {{.When}} is now {{.Status}}{{if .PreviousStatus}} (was {{.PreviousStatus}}){{end}}.

Appointment ID: {{.AppointmentID}}
`)),
	},
	appointment.NotifyReminder: {
		subject: "Appointment reminder",
		body: template.Must(template.New("reminder").Parse(
			`Hello {{.RecipientName}},

this is a reminder of your appointment with {{.DoctorName}} on {{.When}}.

Appointment ID: {{.AppointmentID}}
`)),
	},
}

func render(kind appointment.NotificationKind, v view) (subject, body string, err error) {
	c, ok := contents[kind]
	if !ok {
		return "", "", fmt.Errorf("no template for notification kind %q", kind)
	}

	var b strings.Builder
	if err := c.body.Execute(&b, v); err != nil {
		return "", "", fmt.Errorf("render %s: %w", kind, err)
	}
	return c.subject, b.String(), nil
}
