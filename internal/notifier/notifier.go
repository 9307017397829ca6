// Package notifier delivers user-facing messages for reservation lifecycle
// transitions. Every caller treats delivery as best-effort: errors are logged
// at the call site and never roll back or block a state transition.
package notifier

import (
	"context"

	"lockerd/pkg/model"
)

type Notifier interface {
	ReservationConfirmed(ctx context.Context, user *model.User, reservation *model.Reservation, locker *model.Locker) error
	ReservationReturned(ctx context.Context, user *model.User, reservation *model.Reservation, locker *model.Locker) error
	ReservationReminder(ctx context.Context, user *model.User, reservation *model.Reservation, locker *model.Locker) error
	ReservationExpired(ctx context.Context, user *model.User, reservation *model.Reservation, locker *model.Locker) error
	PasswordReset(ctx context.Context, user *model.User, resetToken string) error
}

// Noop discards every notification. Used in tests and when SMTP is not
// configured.
type Noop struct{}

func (Noop) ReservationConfirmed(context.Context, *model.User, *model.Reservation, *model.Locker) error {
	return nil
}

func (Noop) ReservationReturned(context.Context, *model.User, *model.Reservation, *model.Locker) error {
	return nil
}

func (Noop) ReservationReminder(context.Context, *model.User, *model.Reservation, *model.Locker) error {
	return nil
}

func (Noop) ReservationExpired(context.Context, *model.User, *model.Reservation, *model.Locker) error {
	return nil
}

func (Noop) PasswordReset(context.Context, *model.User, string) error {
	return nil
}
