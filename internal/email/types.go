package email

// Job is one queued outbound email. The queue is a fire-and-forget sink:
// a failed send is logged and dropped, never retried into the caller.
type Job struct {
	Template string
	To       string
	ToName   string
	Data     map[string]any
}

// Sender delivers a single rendered message.
type Sender interface {
	Send(to, toName, subject, htmlBody string) error
}

// Enqueuer is the collaborator interface the notification dispatcher
// depends on.
type Enqueuer interface {
	EnqueueEmail(template, to, toName string, data map[string]any)
}

// NopSender discards every message. Used when SMTP is not configured so
// the rest of the pipeline keeps working in development.
type NopSender struct{}

func (NopSender) Send(to, toName, subject, htmlBody string) error { return nil }

// Template tags understood by the renderer.
const (
	TemplateBookingCreated   = "booking_created"
	TemplateBookingUpdated   = "booking_updated"
	TemplateBookingCancelled = "booking_cancelled"
	TemplateStatusChanged    = "status_changed"
	TemplateBookingReminder  = "booking_reminder"
	TemplateProfileUpdated   = "profile_updated"
)
