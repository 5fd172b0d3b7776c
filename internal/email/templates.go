package email

import (
	"bytes"
	"fmt"
	"html/template"
)

type renderedMail struct {
	Subject string
	Body    string
}

var templates = map[string]struct {
	subject string
	body    string
}{
	TemplateBookingCreated: {
		subject: "New booking: {{.ServiceName}}",
		body: `<p>Hi {{.Name}},</p>
<p>A new booking for <b>{{.ServiceName}}</b> has been created.</p>
<p>{{.Message}}</p>`,
	},
	TemplateBookingUpdated: {
		subject: "Booking updated: {{.ServiceName}}",
		body: `<p>Hi {{.Name}},</p>
<p>Your booking for <b>{{.ServiceName}}</b> was updated.</p>
<p>{{.Message}}</p>`,
	},
	TemplateBookingCancelled: {
		subject: "Booking cancelled: {{.ServiceName}}",
		body: `<p>Hi {{.Name}},</p>
<p>The booking for <b>{{.ServiceName}}</b> has been cancelled.</p>
<p>{{.Message}}</p>`,
	},
	TemplateStatusChanged: {
		subject: "Booking status changed",
		body: `<p>Hi {{.Name}},</p>
<p>{{.Message}}</p>`,
	},
	TemplateBookingReminder: {
		subject: "Upcoming booking reminder",
		body: `<p>Hi {{.Name}},</p>
<p>{{.Message}}</p>`,
	},
	TemplateProfileUpdated: {
		subject: "Your profile was updated",
		body: `<p>Hi {{.Name}},</p>
<p>{{.Message}}</p>`,
	},
}

// render produces subject and body for a template tag. Unknown tags are
// an error; the queue logs and drops the job.
func render(tag, toName string, data map[string]any) (*renderedMail, error) {
	tpl, ok := templates[tag]
	if !ok {
		return nil, fmt.Errorf("unknown email template %q", tag)
	}

	vars := map[string]any{"Name": toName}
	for k, v := range data {
		vars[k] = v
	}

	subject, err := execute("subject:"+tag, tpl.subject, vars)
	if err != nil {
		return nil, err
	}
	body, err := execute("body:"+tag, tpl.body, vars)
	if err != nil {
		return nil, err
	}

	return &renderedMail{Subject: subject, Body: body}, nil
}

func execute(name, text string, vars map[string]any) (string, error) {
	t, err := template.New(name).Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.String(), nil
}
