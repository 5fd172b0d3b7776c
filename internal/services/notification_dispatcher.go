package services

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"servio_backend/internal/email"
	"servio_backend/internal/logger"
	"servio_backend/internal/models"
	"servio_backend/internal/repositories"
	"servio_backend/ws"
)

// LivePusher is the live-delivery side of the connection registry.
// A false result means the recipient is offline, which is expected.
type LivePusher interface {
	SendToUser(userID string, frame ws.Frame) bool
}

// NotificationDispatcher maps domain events to notifications: one
// durable record per recipient, a best-effort live push, and a
// best-effort email. Methods never return errors; the triggering
// business operation must not fail because a notification could not be
// delivered.
type NotificationDispatcher interface {
	NotifyBookingCreated(event BookingEvent)
	NotifyBookingStatusChanged(event BookingEvent)
	NotifyBookingCancelled(event BookingEvent)
	NotifyBookingReminder(event BookingEvent)
	NotifyProfileUpdated(event ProfileEvent)
}

type notificationDispatcher struct {
	bookingRepo      repositories.BookingRepository
	userRepo         repositories.UserRepository
	notificationRepo repositories.NotificationRepository
	pusher           LivePusher
	emails           email.Enqueuer
}

func NewNotificationDispatcher(
	bookingRepo repositories.BookingRepository,
	userRepo repositories.UserRepository,
	notificationRepo repositories.NotificationRepository,
	pusher LivePusher,
	emails email.Enqueuer,
) NotificationDispatcher {
	return &notificationDispatcher{
		bookingRepo:      bookingRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		pusher:           pusher,
		emails:           emails,
	}
}

// recipient is the transient projection of who receives a notification.
type recipient struct {
	UserID string
	Name   string
	Email  string
	Role   models.UserRole
}

// delivery is one recipient-specific rendering of an event.
type delivery struct {
	recipient recipient
	title     string
	message   string
}

func (d *notificationDispatcher) NotifyBookingCreated(event BookingEvent) {
	booking, customer, professional, err := d.resolveBookingParties(event.BookingID)
	if err != nil {
		logger.Error("booking created notification abandoned", "booking_id", event.BookingID, "error", err)
		return
	}

	deliveries := []delivery{
		{
			recipient: customer,
			title:     "Booking created",
			message: fmt.Sprintf("Your booking for %s with %s on %s has been created.",
				booking.ServiceName, professional.Name, formatSchedule(booking)),
		},
		{
			recipient: professional,
			title:     "New booking",
			message: fmt.Sprintf("%s booked %s with you on %s.",
				customer.Name, booking.ServiceName, formatSchedule(booking)),
		},
	}

	d.dispatch(repositories.NotificationTypeBookingCreated, ws.FrameBookingCreated,
		email.TemplateBookingCreated, booking, event.Extra, deliveries)
}

func (d *notificationDispatcher) NotifyBookingStatusChanged(event BookingEvent) {
	booking, customer, professional, err := d.resolveBookingParties(event.BookingID)
	if err != nil {
		logger.Error("status change notification abandoned", "booking_id", event.BookingID,
			"from", event.FromStatus, "to", event.ToStatus, "error", err)
		return
	}

	deliveries := []delivery{
		{
			recipient: customer,
			title:     "Booking status changed",
			message:   statusMessage(event, booking, models.UserRoleCustomer, professional.Name),
		},
		{
			recipient: professional,
			title:     "Booking status changed",
			message:   statusMessage(event, booking, models.UserRoleProfessional, customer.Name),
		},
	}

	d.dispatch(repositories.NotificationTypeStatusChanged, ws.FrameStatusChanged,
		email.TemplateStatusChanged, booking, event.Extra, deliveries)
}

func (d *notificationDispatcher) NotifyBookingCancelled(event BookingEvent) {
	booking, customer, professional, err := d.resolveBookingParties(event.BookingID)
	if err != nil {
		logger.Error("cancellation notification abandoned", "booking_id", event.BookingID, "error", err)
		return
	}

	var customerMsg, professionalMsg string
	if event.CancelledBy == models.UserRoleProfessional {
		customerMsg = fmt.Sprintf("%s cancelled your booking for %s on %s. You will not be charged.",
			professional.Name, booking.ServiceName, formatSchedule(booking))
		professionalMsg = fmt.Sprintf("You cancelled the booking for %s with %s on %s.",
			booking.ServiceName, customer.Name, formatSchedule(booking))
	} else {
		customerMsg = fmt.Sprintf("You cancelled your booking for %s on %s.",
			booking.ServiceName, formatSchedule(booking))
		professionalMsg = fmt.Sprintf("%s cancelled the booking for %s on %s.",
			customer.Name, booking.ServiceName, formatSchedule(booking))
	}

	deliveries := []delivery{
		{recipient: customer, title: "Booking cancelled", message: customerMsg},
		{recipient: professional, title: "Booking cancelled", message: professionalMsg},
	}

	d.dispatch(repositories.NotificationTypeBookingCancelled, ws.FrameBookingCancelled,
		email.TemplateBookingCancelled, booking, event.Extra, deliveries)
}

func (d *notificationDispatcher) NotifyBookingReminder(event BookingEvent) {
	booking, customer, professional, err := d.resolveBookingParties(event.BookingID)
	if err != nil {
		logger.Error("reminder notification abandoned", "booking_id", event.BookingID, "error", err)
		return
	}

	deliveries := []delivery{
		{
			recipient: customer,
			title:     "Upcoming booking",
			message: fmt.Sprintf("Reminder: your booking for %s with %s is on %s.",
				booking.ServiceName, professional.Name, formatSchedule(booking)),
		},
		{
			recipient: professional,
			title:     "Upcoming booking",
			message: fmt.Sprintf("Reminder: %s has booked %s with you on %s.",
				customer.Name, booking.ServiceName, formatSchedule(booking)),
		},
	}

	d.dispatch(repositories.NotificationTypeBookingReminder, ws.FrameBookingUpdated,
		email.TemplateBookingReminder, booking, event.Extra, deliveries)
}

func (d *notificationDispatcher) NotifyProfileUpdated(event ProfileEvent) {
	user, err := d.userRepo.FindByID(event.UserID)
	if err != nil {
		logger.Error("profile notification abandoned", "user_id", event.UserID, "error", err)
		return
	}

	var message string
	switch event.Variant {
	case ProfileUpdatedPhoto:
		message = "Your profile photo has been updated."
	case ProfileUpdatedCompletion:
		message = "Your profile is now complete. Complete profiles get more bookings."
	default:
		message = "Your profile has been updated."
	}

	deliveries := []delivery{{
		recipient: toRecipient(user),
		title:     "Profile updated",
		message:   message,
	}}

	d.dispatch(repositories.NotificationTypeProfileUpdated, ws.FrameProfileUpdated,
		email.TemplateProfileUpdated, nil, event.Extra, deliveries)
}

// dispatch runs the three delivery legs for each recipient: durable
// record first (unconditional), then live push, then email. Every leg
// is best-effort and logged; nothing propagates.
func (d *notificationDispatcher) dispatch(
	notificationType string,
	frameType ws.FrameType,
	emailTemplate string,
	booking *models.Booking,
	extra map[string]any,
	deliveries []delivery,
) {
	bookingID := ""
	if booking != nil {
		bookingID = booking.ID
	}

	for _, del := range deliveries {
		rec := del.recipient

		notification := &models.Notification{
			UserID:  rec.UserID,
			Type:    notificationType,
			Title:   del.title,
			Message: del.message,
			Channel: models.ChannelInApp,
			Data:    marshalData(bookingID, extra),
		}
		if err := d.notificationRepo.CreateNotification(notification); err != nil {
			logger.Error("failed to persist notification",
				"user_id", rec.UserID, "type", notificationType, "booking_id", bookingID, "error", err)
		}

		frame := ws.NewFrame(frameType, del.message)
		frame.BookingID = bookingID
		frame.Title = del.title
		frame.Data = extra
		if delivered := d.pusher.SendToUser(rec.UserID, frame); !delivered {
			// Expected when the recipient has no live connection.
			logger.Info("no live connection, push skipped",
				"user_id", rec.UserID, "type", notificationType)
		}

		if rec.Email != "" {
			data := map[string]any{"Message": del.message}
			if booking != nil {
				data["ServiceName"] = booking.ServiceName
			}
			d.emails.EnqueueEmail(emailTemplate, rec.Email, rec.Name, data)
		}
	}
}

func (d *notificationDispatcher) resolveBookingParties(bookingID string) (*models.Booking, recipient, recipient, error) {
	booking, err := d.bookingRepo.FindByID(bookingID)
	if err != nil {
		return nil, recipient{}, recipient{}, err
	}
	if booking.Customer == nil || booking.Professional == nil {
		return nil, recipient{}, recipient{}, fmt.Errorf("booking %s has unresolved parties", bookingID)
	}
	return booking, toRecipient(booking.Customer), toRecipient(booking.Professional), nil
}

func toRecipient(user *models.User) recipient {
	name := user.Email
	if user.Profile != nil && user.Profile.DisplayName != "" {
		name = user.Profile.DisplayName
	}
	return recipient{
		UserID: user.ID,
		Name:   name,
		Email:  user.Email,
		Role:   user.Role,
	}
}

func statusMessage(event BookingEvent, booking *models.Booking, perspective models.UserRole, otherName string) string {
	schedule := formatSchedule(booking)
	switch event.ToStatus {
	case models.BookingStatusConfirmed:
		if perspective == models.UserRoleCustomer {
			return fmt.Sprintf("Your booking for %s on %s has been confirmed by %s.",
				booking.ServiceName, schedule, otherName)
		}
		return fmt.Sprintf("You confirmed the booking for %s with %s on %s.",
			booking.ServiceName, otherName, schedule)
	case models.BookingStatusCancelled:
		if perspective == models.UserRoleCustomer {
			return fmt.Sprintf("Your booking for %s on %s has been cancelled.",
				booking.ServiceName, schedule)
		}
		return fmt.Sprintf("The booking for %s with %s on %s was cancelled.",
			booking.ServiceName, otherName, schedule)
	case models.BookingStatusCompleted:
		if perspective == models.UserRoleCustomer {
			return fmt.Sprintf("Your booking for %s is complete. Thank you for using Servio!",
				booking.ServiceName)
		}
		return fmt.Sprintf("The booking for %s with %s is complete.", booking.ServiceName, otherName)
	default:
		return fmt.Sprintf("Your booking for %s changed status from %s to %s.",
			booking.ServiceName, event.FromStatus, event.ToStatus)
	}
}

func formatSchedule(booking *models.Booking) string {
	return booking.ScheduledAt.Format("Jan 2, 2006 at 15:04")
}

func marshalData(bookingID string, extra map[string]any) datatypes.JSON {
	payload := make(map[string]any, len(extra)+1)
	for k, v := range extra {
		payload[k] = v
	}
	if bookingID != "" {
		payload["booking_id"] = bookingID
	}
	if len(payload) == 0 {
		return nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Error("failed to marshal notification data", "error", err)
		return nil
	}
	return datatypes.JSON(raw)
}
