package model

import "time"

const (
	ReservationActive    = "active"
	ReservationExpired   = "expired"
	ReservationCancelled = "cancelled"

	MinReservationHours = 1
	MaxReservationHours = 72
)

// Reservation binds a user to a locker for the half-open window
// [StartDate, EndDate). Status only ever moves active -> cancelled or
// active -> expired; both are terminal. Reservations are never deleted.
type Reservation struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty"`
	UserID       string    `json:"user_id" bson:"user_id"`
	LockerID     string    `json:"locker_id" bson:"locker_id"`
	StartDate    time.Time `json:"start_date" bson:"start_date"`
	EndDate      time.Time `json:"end_date" bson:"end_date"`
	Status       string    `json:"status" bson:"status"`
	ReminderSent bool      `json:"reminder_sent" bson:"reminder_sent"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`

	// Locker is populated for API responses, never persisted on the
	// reservation document.
	Locker *Locker `json:"locker,omitempty" bson:"-"`
}

// ReservationRequest is the admission input: the window always starts now and
// runs for Hours hours.
type ReservationRequest struct {
	LockerID string `json:"locker_id" validate:"required,mongodb"`
	Hours    int    `json:"hours" validate:"required,min=1,max=72"`
}

// IsTerminal reports whether no further status transition is permitted.
func (r *Reservation) IsTerminal() bool {
	return r.Status == ReservationExpired || r.Status == ReservationCancelled
}

// Overlaps tests the half-open interval [start, end) against the
// reservation's own window.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.StartDate.Before(end) && r.EndDate.After(start)
}
