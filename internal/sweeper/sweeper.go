// Package sweeper runs the background passes that retire reservations whose
// window has elapsed and send end-of-window reminders. Both passes are
// idempotent: every transition goes through a guarded write, so overlapping
// runs or restarts never double-apply.
package sweeper

import (
	"context"
	"errors"
	"sync"
	"time"

	"lockerd/internal/events"
	lockerserrors "lockerd/internal/lockers/errors"
	lockersrepo "lockerd/internal/lockers/repository"
	"lockerd/internal/notifier"
	reservationserrors "lockerd/internal/reservations/errors"
	"lockerd/internal/reservations/repository"
	"lockerd/internal/reservations/service"
	"lockerd/pkg/clock"
	"lockerd/pkg/config"
	"lockerd/pkg/model"
)

type Sweeper struct {
	reservations repository.ReservationRepository
	lockers      lockersrepo.LockerRepository
	users        service.UserDirectory
	notifier     notifier.Notifier
	events       events.Publisher
	clock        clock.Clock
	cfg          *config.Config

	wg sync.WaitGroup
}

func New(
	reservations repository.ReservationRepository,
	lockers lockersrepo.LockerRepository,
	users service.UserDirectory,
	n notifier.Notifier,
	publisher events.Publisher,
	clk clock.Clock,
	cfg *config.Config,
) *Sweeper {
	return &Sweeper{
		reservations: reservations,
		lockers:      lockers,
		users:        users,
		notifier:     n,
		events:       publisher,
		clock:        clk,
		cfg:          cfg,
	}
}

// Start launches both passes on their own tickers. Each pass runs once
// immediately, then on every tick until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	s.wg.Add(2)
	go s.loop(ctx, s.cfg.ExpirationSweepInterval, s.SweepExpired)
	go s.loop(ctx, s.cfg.ReminderSweepInterval, s.SweepReminders)

	s.cfg.Log.Info("Sweeper started",
		"expiration_interval", s.cfg.ExpirationSweepInterval,
		"reminder_interval", s.cfg.ReminderSweepInterval,
		"reminder_lead_time", s.cfg.ReminderLeadTime,
	)
}

// Wait blocks until both loops have drained after ctx cancellation.
func (s *Sweeper) Wait() {
	s.wg.Wait()
}

func (s *Sweeper) loop(ctx context.Context, interval time.Duration, pass func(context.Context)) {
	defer s.wg.Done()

	pass(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pass(ctx)
		}
	}
}

// SweepExpired retires every active reservation whose end date has passed and
// releases its locker. A record that fails is logged and skipped; the rest of
// the batch still runs.
func (s *Sweeper) SweepExpired(ctx context.Context) {
	now := s.clock.Now()

	expired, err := s.reservations.FindExpired(ctx, now)
	if err != nil {
		s.cfg.Log.Error("Expiration sweep query failed", "error", err)
		return
	}
	if len(expired) == 0 {
		return
	}

	var retired int
	for _, reservation := range expired {
		if s.expireOne(ctx, reservation) {
			retired++
		}
	}

	s.cfg.Log.Info("Expiration sweep completed", "candidates", len(expired), "retired", retired)
}

func (s *Sweeper) expireOne(ctx context.Context, reservation *model.Reservation) bool {
	err := s.reservations.UpdateStatusIfActive(ctx, reservation.ID, model.ReservationExpired)
	if err != nil {
		// Lost to a concurrent cancel or another sweep run.
		if errors.Is(err, reservationserrors.ErrNotActive) {
			return false
		}
		s.cfg.Log.Error("Failed to expire reservation", "id", reservation.ID, "error", err)
		return false
	}

	if err := s.lockers.UpdateStatus(ctx, reservation.LockerID, model.LockerAvailable); err != nil {
		if errors.Is(err, lockerserrors.ErrNotFound) {
			s.cfg.Log.Warn("Locker missing during expiration", "reservation_id", reservation.ID, "locker_id", reservation.LockerID)
		} else {
			s.cfg.Log.Error("Failed to release locker during expiration",
				"reservation_id", reservation.ID,
				"locker_id", reservation.LockerID,
				"error", err,
			)
		}
	}

	reservation.Status = model.ReservationExpired
	s.notify(ctx, reservation, events.TypeReservationExpired)
	return true
}

// SweepReminders notifies owners of active reservations ending within the
// configured lead time. The reminder flag is set after the attempt whether or
// not delivery succeeded, so each reservation gets exactly one attempt.
func (s *Sweeper) SweepReminders(ctx context.Context) {
	now := s.clock.Now()
	until := now.Add(s.cfg.ReminderLeadTime)

	due, err := s.reservations.FindNeedingReminder(ctx, now, until)
	if err != nil {
		s.cfg.Log.Error("Reminder sweep query failed", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	var sent int
	for _, reservation := range due {
		s.notify(ctx, reservation, events.TypeReservationReminder)

		if err := s.reservations.MarkReminderSent(ctx, reservation.ID); err != nil {
			s.cfg.Log.Error("Failed to mark reminder sent", "id", reservation.ID, "error", err)
			continue
		}
		sent++
	}

	s.cfg.Log.Info("Reminder sweep completed", "candidates", len(due), "sent", sent)
}

func (s *Sweeper) notify(ctx context.Context, reservation *model.Reservation, eventType string) {
	user, err := s.users.FindByID(ctx, reservation.UserID)
	if err != nil {
		s.cfg.Log.Warn("Failed to resolve user for sweep notification",
			"reservation_id", reservation.ID,
			"user_id", reservation.UserID,
			"error", err,
		)
	} else {
		locker, lockerErr := s.lockers.FindByID(ctx, reservation.LockerID)
		if lockerErr != nil {
			locker = nil
		}
		if locker != nil {
			var notifyErr error
			switch eventType {
			case events.TypeReservationExpired:
				notifyErr = s.notifier.ReservationExpired(ctx, user, reservation, locker)
			case events.TypeReservationReminder:
				notifyErr = s.notifier.ReservationReminder(ctx, user, reservation, locker)
			}
			if notifyErr != nil {
				s.cfg.Log.Error("Failed to send sweep notification",
					"type", eventType,
					"reservation_id", reservation.ID,
					"error", notifyErr,
				)
			}
		}
	}

	s.events.ReservationEvent(ctx, eventType, reservation)
}
