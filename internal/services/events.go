package services

import "servio_backend/internal/models"

// Domain events are typed per kind rather than an open bag; Extra keeps
// room for event-specific metadata forwarded to clients verbatim.

// BookingEvent describes a change to one booking.
type BookingEvent struct {
	BookingID string

	// Status transition, set for status-change events.
	FromStatus models.BookingStatus
	ToStatus   models.BookingStatus

	// Which party cancelled, set for cancellation events.
	CancelledBy models.UserRole

	Extra map[string]any
}

// ProfileVariant distinguishes the profile-update notifications.
type ProfileVariant string

const (
	ProfileUpdatedGeneric    ProfileVariant = "generic"
	ProfileUpdatedPhoto      ProfileVariant = "photo"
	ProfileUpdatedCompletion ProfileVariant = "completion"
)

// ProfileEvent describes an update to one user's profile.
type ProfileEvent struct {
	UserID  string
	Variant ProfileVariant
	Extra   map[string]any
}
