package ws

import "time"

type FrameType string

// Server→client frame types. Closed set; the persisted notification type
// tags are broader (see repositories).
const (
	FrameConnectionEstablished FrameType = "connection_established"
	FrameBookingCreated        FrameType = "booking_created"
	FrameBookingUpdated        FrameType = "booking_updated"
	FrameBookingCancelled      FrameType = "booking_cancelled"
	FrameStatusChanged         FrameType = "status_changed"
	FramePong                  FrameType = "pong"
	FrameProfileUpdated        FrameType = "profile_updated"
)

// Frame is one push event on the wire. Constructed fresh per send, never
// stored.
type Frame struct {
	Type      FrameType      `json:"type"`
	BookingID string         `json:"bookingId,omitempty"`
	Title     string         `json:"title,omitempty"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp string         `json:"timestamp"`
}

// NewFrame builds a frame of the given type with the timestamp set.
func NewFrame(frameType FrameType, message string) Frame {
	return Frame{
		Type:      frameType,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
