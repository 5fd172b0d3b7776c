package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"servio_backend/internal/models"
	"servio_backend/internal/repositories"
	"servio_backend/ws"
)

// fakePusher records pushes and reports the configured set of users as
// online.
type fakePusher struct {
	online map[string]bool
	frames map[string][]ws.Frame
}

func newFakePusher(onlineUsers ...string) *fakePusher {
	online := make(map[string]bool, len(onlineUsers))
	for _, u := range onlineUsers {
		online[u] = true
	}
	return &fakePusher{online: online, frames: make(map[string][]ws.Frame)}
}

func (f *fakePusher) SendToUser(userID string, frame ws.Frame) bool {
	if !f.online[userID] {
		return false
	}
	f.frames[userID] = append(f.frames[userID], frame)
	return true
}

type enqueuedEmail struct {
	Template string
	To       string
	ToName   string
}

type fakeEnqueuer struct {
	sent []enqueuedEmail
}

func (f *fakeEnqueuer) EnqueueEmail(template, to, toName string, data map[string]any) {
	f.sent = append(f.sent, enqueuedEmail{Template: template, To: to, ToName: toName})
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Profile{}, &models.Booking{}, &models.Notification{},
	))
	return db
}

type dispatcherFixture struct {
	db               *gorm.DB
	dispatcher       NotificationDispatcher
	pusher           *fakePusher
	emails           *fakeEnqueuer
	notificationRepo repositories.NotificationRepository

	customer     *models.User
	professional *models.User
	booking      *models.Booking
}

func newDispatcherFixture(t *testing.T, onlineUsers ...string) *dispatcherFixture {
	t.Helper()
	db := newTestDB(t)

	customer := &models.User{
		Email:        "maria@example.com",
		PasswordHash: "x",
		Role:         models.UserRoleCustomer,
		Profile:      &models.Profile{DisplayName: "Maria"},
	}
	require.NoError(t, db.Create(customer).Error)

	professional := &models.User{
		Email:        "joao@example.com",
		PasswordHash: "x",
		Role:         models.UserRoleProfessional,
		Profile:      &models.Profile{DisplayName: "Joao"},
	}
	require.NoError(t, db.Create(professional).Error)

	booking := &models.Booking{
		CustomerID:     customer.ID,
		ProfessionalID: professional.ID,
		ServiceName:    "Haircut",
		Status:         models.BookingStatusPending,
		ScheduledAt:    time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(booking).Error)

	pusher := newFakePusher(onlineUsers...)
	emails := &fakeEnqueuer{}
	notificationRepo := repositories.NewNotificationRepository(db)
	dispatcher := NewNotificationDispatcher(
		repositories.NewBookingRepository(db),
		repositories.NewUserRepository(db),
		notificationRepo,
		pusher,
		emails,
	)

	return &dispatcherFixture{
		db:               db,
		dispatcher:       dispatcher,
		pusher:           pusher,
		emails:           emails,
		notificationRepo: notificationRepo,
		customer:         customer,
		professional:     professional,
		booking:          booking,
	}
}

func (f *dispatcherFixture) storedNotifications(t *testing.T, userID string) []models.Notification {
	t.Helper()
	var out []models.Notification
	require.NoError(t, f.db.Where("user_id = ?", userID).Find(&out).Error)
	return out
}

func TestNotifyBookingCreated_PersistsForBothPartiesWhenOffline(t *testing.T) {
	f := newDispatcherFixture(t) // nobody online

	f.dispatcher.NotifyBookingCreated(BookingEvent{BookingID: f.booking.ID})

	customerNotes := f.storedNotifications(t, f.customer.ID)
	require.Len(t, customerNotes, 1)
	assert.Equal(t, repositories.NotificationTypeBookingCreated, customerNotes[0].Type)
	assert.Equal(t, "Booking created", customerNotes[0].Title)
	assert.Contains(t, customerNotes[0].Message, "Haircut")
	assert.Contains(t, customerNotes[0].Message, "Joao")
	assert.False(t, customerNotes[0].IsRead)

	professionalNotes := f.storedNotifications(t, f.professional.ID)
	require.Len(t, professionalNotes, 1)
	assert.Contains(t, professionalNotes[0].Message, "Maria")

	// Nobody got a live frame, but both got an email.
	assert.Empty(t, f.pusher.frames)
	require.Len(t, f.emails.sent, 2)
	assert.Equal(t, "maria@example.com", f.emails.sent[0].To)
	assert.Equal(t, "joao@example.com", f.emails.sent[1].To)
}

func TestNotifyBookingCreated_PushesToOnlineParty(t *testing.T) {
	f := newDispatcherFixture(t)
	f.pusher.online[f.customer.ID] = true

	f.dispatcher.NotifyBookingCreated(BookingEvent{BookingID: f.booking.ID})

	require.Len(t, f.pusher.frames[f.customer.ID], 1)
	frame := f.pusher.frames[f.customer.ID][0]
	assert.Equal(t, ws.FrameBookingCreated, frame.Type)
	assert.Equal(t, f.booking.ID, frame.BookingID)
	assert.Empty(t, f.pusher.frames[f.professional.ID])

	// The durable record exists regardless of push outcome.
	assert.Len(t, f.storedNotifications(t, f.customer.ID), 1)
	assert.Len(t, f.storedNotifications(t, f.professional.ID), 1)
}

func TestNotifyBookingCreated_BothOnlineGetDistinctFrames(t *testing.T) {
	f := newDispatcherFixture(t)
	f.pusher.online[f.customer.ID] = true
	f.pusher.online[f.professional.ID] = true

	f.dispatcher.NotifyBookingCreated(BookingEvent{BookingID: f.booking.ID})

	require.Len(t, f.pusher.frames[f.customer.ID], 1)
	require.Len(t, f.pusher.frames[f.professional.ID], 1)
	customerFrame := f.pusher.frames[f.customer.ID][0]
	professionalFrame := f.pusher.frames[f.professional.ID][0]
	assert.NotEqual(t, customerFrame.Message, professionalFrame.Message)
	assert.Contains(t, customerFrame.Message, "Your booking")
	assert.Contains(t, professionalFrame.Message, "booked")
}

func TestNotifyBookingStatusChanged_ConfirmedWording(t *testing.T) {
	f := newDispatcherFixture(t, "ignored")

	f.dispatcher.NotifyBookingStatusChanged(BookingEvent{
		BookingID:  f.booking.ID,
		FromStatus: models.BookingStatusPending,
		ToStatus:   models.BookingStatusConfirmed,
	})

	customerNotes := f.storedNotifications(t, f.customer.ID)
	require.Len(t, customerNotes, 1)
	assert.Contains(t, customerNotes[0].Message, "confirmed by Joao")

	professionalNotes := f.storedNotifications(t, f.professional.ID)
	require.Len(t, professionalNotes, 1)
	assert.Contains(t, professionalNotes[0].Message, "You confirmed")
}

func TestNotifyBookingStatusChanged_CancelledWording(t *testing.T) {
	f := newDispatcherFixture(t)

	f.dispatcher.NotifyBookingStatusChanged(BookingEvent{
		BookingID:  f.booking.ID,
		FromStatus: models.BookingStatusPending,
		ToStatus:   models.BookingStatusCancelled,
	})

	customerNotes := f.storedNotifications(t, f.customer.ID)
	require.Len(t, customerNotes, 1)
	assert.Contains(t, customerNotes[0].Message, "has been cancelled")

	professionalNotes := f.storedNotifications(t, f.professional.ID)
	require.Len(t, professionalNotes, 1)
	assert.Contains(t, professionalNotes[0].Message, "was cancelled")
}

func TestNotifyBookingCancelled_ByProfessional(t *testing.T) {
	f := newDispatcherFixture(t)

	f.dispatcher.NotifyBookingCancelled(BookingEvent{
		BookingID:   f.booking.ID,
		CancelledBy: models.UserRoleProfessional,
	})

	customerNotes := f.storedNotifications(t, f.customer.ID)
	require.Len(t, customerNotes, 1)
	assert.Contains(t, customerNotes[0].Message, "Joao cancelled your booking")
	assert.Contains(t, customerNotes[0].Message, "You will not be charged")

	professionalNotes := f.storedNotifications(t, f.professional.ID)
	require.Len(t, professionalNotes, 1)
	assert.Contains(t, professionalNotes[0].Message, "You cancelled")
}

func TestNotifyBookingCancelled_ByCustomer(t *testing.T) {
	f := newDispatcherFixture(t)

	f.dispatcher.NotifyBookingCancelled(BookingEvent{
		BookingID:   f.booking.ID,
		CancelledBy: models.UserRoleCustomer,
	})

	customerNotes := f.storedNotifications(t, f.customer.ID)
	require.Len(t, customerNotes, 1)
	assert.Contains(t, customerNotes[0].Message, "You cancelled your booking")

	professionalNotes := f.storedNotifications(t, f.professional.ID)
	require.Len(t, professionalNotes, 1)
	assert.Contains(t, professionalNotes[0].Message, "Maria cancelled")
}

func TestNotifyBookingReminder_BothParties(t *testing.T) {
	f := newDispatcherFixture(t)

	f.dispatcher.NotifyBookingReminder(BookingEvent{BookingID: f.booking.ID})

	assert.Len(t, f.storedNotifications(t, f.customer.ID), 1)
	assert.Len(t, f.storedNotifications(t, f.professional.ID), 1)
	require.Len(t, f.emails.sent, 2)
}

func TestNotifyProfileUpdated_SingleRecipient(t *testing.T) {
	f := newDispatcherFixture(t)
	f.pusher.online[f.professional.ID] = true

	f.dispatcher.NotifyProfileUpdated(ProfileEvent{
		UserID:  f.professional.ID,
		Variant: ProfileUpdatedCompletion,
	})

	notes := f.storedNotifications(t, f.professional.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, repositories.NotificationTypeProfileUpdated, notes[0].Type)
	assert.Contains(t, notes[0].Message, "complete")

	require.Len(t, f.pusher.frames[f.professional.ID], 1)
	assert.Equal(t, ws.FrameProfileUpdated, f.pusher.frames[f.professional.ID][0].Type)
	assert.Empty(t, f.storedNotifications(t, f.customer.ID))
}

func TestNotifyBookingCreated_MissingBookingIsSwallowed(t *testing.T) {
	f := newDispatcherFixture(t)

	assert.NotPanics(t, func() {
		f.dispatcher.NotifyBookingCreated(BookingEvent{BookingID: "no-such-booking"})
	})

	assert.Empty(t, f.storedNotifications(t, f.customer.ID))
	assert.Empty(t, f.emails.sent)
}
