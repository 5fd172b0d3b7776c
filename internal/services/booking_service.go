package services

import (
	"errors"
	"time"

	"servio_backend/internal/models"
	"servio_backend/internal/repositories"
)

var (
	ErrInvalidBookingStatus = errors.New("invalid booking status")
	ErrNotBookingParty      = errors.New("user is not a party to this booking")
)

// BookingService owns the booking lifecycle and emits a notification
// event after every successful transition.
type BookingService interface {
	CreateBooking(customerID, professionalID, serviceName string, scheduledAt time.Time, notes string) (*models.Booking, error)
	UpdateBookingStatus(bookingID, actorID string, status models.BookingStatus) (*models.Booking, error)
	CancelBooking(bookingID, actorID string) (*models.Booking, error)
}

type bookingService struct {
	bookingRepo repositories.BookingRepository
	userRepo    repositories.UserRepository
	dispatcher  NotificationDispatcher
}

func NewBookingService(
	bookingRepo repositories.BookingRepository,
	userRepo repositories.UserRepository,
	dispatcher NotificationDispatcher,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		userRepo:    userRepo,
		dispatcher:  dispatcher,
	}
}

func (s *bookingService) CreateBooking(customerID, professionalID, serviceName string, scheduledAt time.Time, notes string) (*models.Booking, error) {
	customer, err := s.userRepo.FindByID(customerID)
	if err != nil {
		return nil, err
	}
	if customer.Role != models.UserRoleCustomer {
		return nil, ErrNotBookingParty
	}
	professional, err := s.userRepo.FindByID(professionalID)
	if err != nil {
		return nil, err
	}
	if professional.Role != models.UserRoleProfessional {
		return nil, ErrNotBookingParty
	}

	booking := &models.Booking{
		CustomerID:     customerID,
		ProfessionalID: professionalID,
		ServiceName:    serviceName,
		Status:         models.BookingStatusPending,
		ScheduledAt:    scheduledAt,
		Notes:          notes,
	}
	if err := s.bookingRepo.Create(booking); err != nil {
		return nil, err
	}

	s.dispatcher.NotifyBookingCreated(BookingEvent{BookingID: booking.ID})
	return booking, nil
}

func (s *bookingService) UpdateBookingStatus(bookingID, actorID string, status models.BookingStatus) (*models.Booking, error) {
	switch status {
	case models.BookingStatusConfirmed, models.BookingStatusInService, models.BookingStatusCompleted:
	case models.BookingStatusCancelled:
		return s.CancelBooking(bookingID, actorID)
	default:
		return nil, ErrInvalidBookingStatus
	}

	booking, err := s.bookingRepo.FindByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.CustomerID != actorID && booking.ProfessionalID != actorID {
		return nil, ErrNotBookingParty
	}

	from := booking.Status
	if err := s.bookingRepo.UpdateStatus(bookingID, status); err != nil {
		return nil, err
	}
	booking.Status = status

	s.dispatcher.NotifyBookingStatusChanged(BookingEvent{
		BookingID:  bookingID,
		FromStatus: from,
		ToStatus:   status,
	})
	return booking, nil
}

func (s *bookingService) CancelBooking(bookingID, actorID string) (*models.Booking, error) {
	booking, err := s.bookingRepo.FindByID(bookingID)
	if err != nil {
		return nil, err
	}

	var cancelledBy models.UserRole
	switch actorID {
	case booking.CustomerID:
		cancelledBy = models.UserRoleCustomer
	case booking.ProfessionalID:
		cancelledBy = models.UserRoleProfessional
	default:
		return nil, ErrNotBookingParty
	}

	from := booking.Status
	if err := s.bookingRepo.UpdateStatus(bookingID, models.BookingStatusCancelled); err != nil {
		return nil, err
	}
	booking.Status = models.BookingStatusCancelled

	s.dispatcher.NotifyBookingCancelled(BookingEvent{
		BookingID:   bookingID,
		FromStatus:  from,
		ToStatus:    models.BookingStatusCancelled,
		CancelledBy: cancelledBy,
	})
	return booking, nil
}
