package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servio_backend/internal/models"
	"servio_backend/internal/repositories"
)

// recordingDispatcher captures emitted events without delivering
// anything.
type recordingDispatcher struct {
	created       []BookingEvent
	statusChanged []BookingEvent
	cancelled     []BookingEvent
	reminders     []BookingEvent
	profiles      []ProfileEvent
}

func (r *recordingDispatcher) NotifyBookingCreated(event BookingEvent) {
	r.created = append(r.created, event)
}

func (r *recordingDispatcher) NotifyBookingStatusChanged(event BookingEvent) {
	r.statusChanged = append(r.statusChanged, event)
}

func (r *recordingDispatcher) NotifyBookingCancelled(event BookingEvent) {
	r.cancelled = append(r.cancelled, event)
}

func (r *recordingDispatcher) NotifyBookingReminder(event BookingEvent) {
	r.reminders = append(r.reminders, event)
}

func (r *recordingDispatcher) NotifyProfileUpdated(event ProfileEvent) {
	r.profiles = append(r.profiles, event)
}

type bookingFixture struct {
	service    BookingService
	dispatcher *recordingDispatcher

	customer     *models.User
	professional *models.User
	booking      *models.Booking
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	db := newTestDB(t)

	customer := &models.User{Email: "maria@example.com", PasswordHash: "x", Role: models.UserRoleCustomer}
	require.NoError(t, db.Create(customer).Error)
	professional := &models.User{Email: "joao@example.com", PasswordHash: "x", Role: models.UserRoleProfessional}
	require.NoError(t, db.Create(professional).Error)

	booking := &models.Booking{
		CustomerID:     customer.ID,
		ProfessionalID: professional.ID,
		ServiceName:    "Haircut",
		Status:         models.BookingStatusPending,
		ScheduledAt:    time.Now().Add(24 * time.Hour),
	}
	require.NoError(t, db.Create(booking).Error)

	dispatcher := &recordingDispatcher{}
	service := NewBookingService(
		repositories.NewBookingRepository(db),
		repositories.NewUserRepository(db),
		dispatcher,
	)

	return &bookingFixture{
		service:      service,
		dispatcher:   dispatcher,
		customer:     customer,
		professional: professional,
		booking:      booking,
	}
}

func TestCreateBooking_EmitsCreatedEvent(t *testing.T) {
	f := newBookingFixture(t)

	booking, err := f.service.CreateBooking(
		f.customer.ID, f.professional.ID, "Massage", time.Now().Add(48*time.Hour), "")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, booking.Status)
	assert.NotEmpty(t, booking.ID)

	require.Len(t, f.dispatcher.created, 1)
	assert.Equal(t, booking.ID, f.dispatcher.created[0].BookingID)
}

func TestCreateBooking_RejectsWrongRoles(t *testing.T) {
	f := newBookingFixture(t)

	// Professional cannot book as customer and vice versa.
	_, err := f.service.CreateBooking(
		f.professional.ID, f.customer.ID, "Massage", time.Now().Add(time.Hour), "")
	assert.ErrorIs(t, err, ErrNotBookingParty)
	assert.Empty(t, f.dispatcher.created)
}

func TestUpdateBookingStatus_EmitsTransition(t *testing.T) {
	f := newBookingFixture(t)

	booking, err := f.service.UpdateBookingStatus(f.booking.ID, f.professional.ID, models.BookingStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)

	require.Len(t, f.dispatcher.statusChanged, 1)
	event := f.dispatcher.statusChanged[0]
	assert.Equal(t, models.BookingStatusPending, event.FromStatus)
	assert.Equal(t, models.BookingStatusConfirmed, event.ToStatus)
}

func TestUpdateBookingStatus_RejectsOutsiders(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.service.UpdateBookingStatus(f.booking.ID, "stranger", models.BookingStatusConfirmed)
	assert.ErrorIs(t, err, ErrNotBookingParty)
	assert.Empty(t, f.dispatcher.statusChanged)
}

func TestUpdateBookingStatus_RejectsUnknownStatus(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.service.UpdateBookingStatus(f.booking.ID, f.customer.ID, models.BookingStatus("paused"))
	assert.ErrorIs(t, err, ErrInvalidBookingStatus)
}

func TestUpdateBookingStatus_CancelledRoutesToCancelFlow(t *testing.T) {
	f := newBookingFixture(t)

	booking, err := f.service.UpdateBookingStatus(f.booking.ID, f.customer.ID, models.BookingStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, booking.Status)

	assert.Empty(t, f.dispatcher.statusChanged)
	require.Len(t, f.dispatcher.cancelled, 1)
	assert.Equal(t, models.UserRoleCustomer, f.dispatcher.cancelled[0].CancelledBy)
}

func TestCancelBooking_RecordsWhoCancelled(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.service.CancelBooking(f.booking.ID, f.professional.ID)
	require.NoError(t, err)

	require.Len(t, f.dispatcher.cancelled, 1)
	event := f.dispatcher.cancelled[0]
	assert.Equal(t, models.UserRoleProfessional, event.CancelledBy)
	assert.Equal(t, models.BookingStatusPending, event.FromStatus)
	assert.Equal(t, models.BookingStatusCancelled, event.ToStatus)
}

func TestCancelBooking_UnknownBooking(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.service.CancelBooking("no-such-booking", f.customer.ID)
	assert.ErrorIs(t, err, repositories.ErrBookingNotFound)
	assert.Empty(t, f.dispatcher.cancelled)
}
