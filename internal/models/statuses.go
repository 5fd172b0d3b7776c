package models

type UserRole string
type BookingStatus string
type NotificationChannel string

const (
	UserRoleCustomer     UserRole = "customer"
	UserRoleProfessional UserRole = "professional"

	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusInService BookingStatus = "in_service"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"

	ChannelInApp NotificationChannel = "in_app"
	ChannelEmail NotificationChannel = "email"
	ChannelPush  NotificationChannel = "push"
)

// ValidUserRole reports whether role belongs to the closed set of
// participant kinds allowed to hold a live connection.
func ValidUserRole(role UserRole) bool {
	return role == UserRoleCustomer || role == UserRoleProfessional
}
