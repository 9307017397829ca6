package service

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"lockerd/internal/auth"
	"lockerd/internal/events"
	lockerserrors "lockerd/internal/lockers/errors"
	lockersrepo "lockerd/internal/lockers/repository"
	"lockerd/internal/notifier"
	reservationserrors "lockerd/internal/reservations/errors"
	"lockerd/internal/reservations/repository"
	"lockerd/internal/reservations/validator"
	"lockerd/pkg/clock"
	"lockerd/pkg/config"
	apperrors "lockerd/pkg/errors"
	"lockerd/pkg/model"
)

// UserDirectory is the slice of the user store the reservation flow needs:
// resolving an owner for notification delivery.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

type ReservationService interface {
	Create(ctx context.Context, userID string, req *model.ReservationRequest) (*model.Reservation, error)
	Cancel(ctx context.Context, id string, actor auth.Identity) error
	GetByID(ctx context.Context, id string, actor auth.Identity) (*model.Reservation, error)
	GetByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Reservation, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error)
}

type reservationService struct {
	repo      repository.ReservationRepository
	lockRepo  repository.AdmissionLockRepository
	lockers   lockersrepo.LockerRepository
	users     UserDirectory
	validator *validator.ReservationValidator
	notifier  notifier.Notifier
	events    events.Publisher
	clock     clock.Clock
	cfg       *config.Config
}

func NewReservationService(
	repo repository.ReservationRepository,
	lockRepo repository.AdmissionLockRepository,
	lockers lockersrepo.LockerRepository,
	users UserDirectory,
	v *validator.ReservationValidator,
	n notifier.Notifier,
	publisher events.Publisher,
	clk clock.Clock,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:      repo,
		lockRepo:  lockRepo,
		lockers:   lockers,
		users:     users,
		validator: v,
		notifier:  n,
		events:    publisher,
		clock:     clk,
		cfg:       cfg,
	}
}

// Create runs the admission protocol: the requested window always starts now
// and runs for req.Hours hours. Admission for one locker is serialized by an
// advisory lock, and the locker status flip is a conditional write, so two
// overlapping requests can never both succeed.
func (s *reservationService) Create(ctx context.Context, userID string, req *model.ReservationRequest) (*model.Reservation, error) {
	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Reservation validation failed", "error", err)
		return nil, apperrors.Validation("Reservation validation failed", map[string]any{"error": err.Error()})
	}

	start := s.clock.Now()
	end := start.Add(time.Duration(req.Hours) * time.Hour)

	lockID, err := s.acquireAdmissionLock(ctx, req.LockerID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.lockRepo.Release(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release admission lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	locker, err := s.lockers.FindByID(ctx, req.LockerID)
	if err != nil {
		if errors.Is(err, lockerserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Locker", req.LockerID)
		}
		if errors.Is(err, lockerserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid locker ID format")
		}
		return nil, apperrors.Internal("Failed to load locker", err)
	}

	if locker.Status != model.LockerAvailable {
		return nil, apperrors.Conflict("Locker is not available")
	}

	// The status guard above is not authoritative on its own: an active
	// reservation whose window has not started yet would leave the locker
	// available while still excluding this request.
	overlapping, err := s.repo.FindActiveOverlapping(ctx, req.LockerID, start, end)
	if err != nil {
		return nil, apperrors.Internal("Failed to check existing reservations", err)
	}
	if len(overlapping) > 0 {
		return nil, apperrors.Conflict("Locker is already reserved for this period")
	}

	reservation := &model.Reservation{
		UserID:    userID,
		LockerID:  req.LockerID,
		StartDate: start,
		EndDate:   end,
		Status:    model.ReservationActive,
	}
	if err := s.repo.Create(ctx, reservation); err != nil {
		return nil, apperrors.Internal("Failed to create reservation", err)
	}

	// Reservation first, locker second, and the flip is conditional on the
	// status still being available. A failed flip means another writer won;
	// roll the reservation back and report the conflict.
	flipped, err := s.lockers.UpdateStatusFrom(ctx, req.LockerID, model.LockerAvailable, model.LockerReserved)
	if err != nil {
		s.compensate(ctx, reservation.ID)
		return nil, apperrors.Internal("Failed to reserve locker", err)
	}
	if !flipped {
		s.compensate(ctx, reservation.ID)
		return nil, apperrors.Conflict("Locker is not available")
	}

	locker.Status = model.LockerReserved
	reservation.Locker = locker

	s.notifyBestEffort(ctx, reservation, locker, events.TypeReservationConfirmed)

	s.cfg.Log.Info("Reservation created",
		"id", reservation.ID,
		"user_id", userID,
		"locker_id", req.LockerID,
		"start_date", start,
		"end_date", end,
	)
	return reservation, nil
}

func (s *reservationService) Cancel(ctx context.Context, id string, actor auth.Identity) error {
	reservation, err := s.findByID(ctx, id)
	if err != nil {
		return err
	}

	if !auth.CanAccess(actor, reservation.UserID) {
		return apperrors.Forbidden("Access denied")
	}

	// Fast rejection on the snapshot; the status-guarded update below remains
	// the authority when a concurrent transition slips in between.
	if reservation.IsTerminal() {
		return apperrors.InvalidState("Only active reservations can be cancelled")
	}

	if err := s.repo.UpdateStatusIfActive(ctx, id, model.ReservationCancelled); err != nil {
		if errors.Is(err, reservationserrors.ErrNotActive) {
			return apperrors.InvalidState("Only active reservations can be cancelled")
		}
		return apperrors.Internal("Failed to cancel reservation", err)
	}

	// Releasing the locker tolerates a missing document: the cancellation
	// itself already completed.
	if err := s.lockers.UpdateStatus(ctx, reservation.LockerID, model.LockerAvailable); err != nil {
		if errors.Is(err, lockerserrors.ErrNotFound) {
			s.cfg.Log.Warn("Locker missing during cancellation", "reservation_id", id, "locker_id", reservation.LockerID)
		} else {
			s.cfg.Log.Error("Failed to release locker during cancellation",
				"reservation_id", id,
				"locker_id", reservation.LockerID,
				"error", err,
			)
		}
	}

	reservation.Status = model.ReservationCancelled
	locker, lockerErr := s.lockers.FindByID(ctx, reservation.LockerID)
	if lockerErr != nil {
		locker = nil
	}
	s.notifyBestEffort(ctx, reservation, locker, events.TypeReservationCancelled)

	s.cfg.Log.Info("Reservation cancelled", "id", id, "user_id", reservation.UserID)
	return nil
}

func (s *reservationService) GetByID(ctx context.Context, id string, actor auth.Identity) (*model.Reservation, error) {
	reservation, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !auth.CanAccess(actor, reservation.UserID) {
		return nil, apperrors.Forbidden("Access denied")
	}

	if locker, lockerErr := s.lockers.FindByID(ctx, reservation.LockerID); lockerErr == nil {
		reservation.Locker = locker
	}

	return reservation, nil
}

func (s *reservationService) GetByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Reservation, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	reservations, err := s.repo.FindByUser(ctx, userID, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list user reservations", "user_id", userID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve reservations", err)
	}

	return reservations, nil
}

func (s *reservationService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to count reservations", "error", err)
		return nil, 0, apperrors.Internal("Failed to count reservations", err)
	}

	reservations, err := s.repo.FindAll(ctx, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list reservations", "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve reservations", err)
	}

	return reservations, count, nil
}

// --- Helpers ---

func (s *reservationService) findByID(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Reservation", id)
		}
		if errors.Is(err, reservationserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid reservation ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve reservation", err)
	}

	return reservation, nil
}

func (s *reservationService) acquireAdmissionLock(ctx context.Context, lockerID string) (string, error) {
	lockID := "locker_lock_" + lockerID
	lock := &model.ReservationLock{
		ID:        lockID,
		ExpiresAt: s.clock.Now().Add(s.cfg.AdmissionLockTTL),
	}

	if err := s.lockRepo.Acquire(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This locker is currently being reserved by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire admission lock", err)
	}

	return lockID, nil
}

// compensate rolls a just-created reservation back to cancelled after the
// locker flip failed. Best-effort: a failure here leaves an active
// reservation on an unreserved locker, which the reconciliation in the
// sweeper's expiration pass eventually retires.
func (s *reservationService) compensate(ctx context.Context, reservationID string) {
	if err := s.repo.UpdateStatusIfActive(ctx, reservationID, model.ReservationCancelled); err != nil {
		s.cfg.Log.Error("Failed to roll back reservation after locker flip failure",
			"reservation_id", reservationID,
			"error", err,
		)
	}
}

// notifyBestEffort delivers the user-facing message and publishes the
// lifecycle event. Neither outcome affects the state transition that
// triggered it.
func (s *reservationService) notifyBestEffort(ctx context.Context, reservation *model.Reservation, locker *model.Locker, eventType string) {
	user, err := s.users.FindByID(ctx, reservation.UserID)
	if err != nil {
		s.cfg.Log.Warn("Failed to resolve user for notification",
			"reservation_id", reservation.ID,
			"user_id", reservation.UserID,
			"error", err,
		)
	} else if locker != nil {
		var notifyErr error
		switch eventType {
		case events.TypeReservationConfirmed:
			notifyErr = s.notifier.ReservationConfirmed(ctx, user, reservation, locker)
		case events.TypeReservationCancelled:
			notifyErr = s.notifier.ReservationReturned(ctx, user, reservation, locker)
		}
		if notifyErr != nil {
			s.cfg.Log.Error("Failed to send reservation notification",
				"type", eventType,
				"reservation_id", reservation.ID,
				"error", notifyErr,
			)
		}
	}

	s.events.ReservationEvent(ctx, eventType, reservation)
}
