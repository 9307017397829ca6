package service

import (
	"context"
	"errors"
	"strings"

	lockerserrors "lockerd/internal/lockers/errors"
	"lockerd/internal/lockers/repository"
	"lockerd/internal/lockers/validator"
	"lockerd/pkg/config"
	apperrors "lockerd/pkg/errors"
	"lockerd/pkg/model"
)

type LockerService interface {
	Create(ctx context.Context, locker *model.Locker) error
	GetByID(ctx context.Context, id string) (*model.Locker, error)
	GetAll(ctx context.Context, status string, limit int, offset int64) ([]*model.Locker, int64, error)
	Update(ctx context.Context, id string, updates *model.LockerUpdate) error
	Delete(ctx context.Context, id string) error
}

type lockerService struct {
	repo      repository.LockerRepository
	validator *validator.LockerValidator
	cfg       *config.Config
}

func NewLockerService(repo repository.LockerRepository, v *validator.LockerValidator, cfg *config.Config) LockerService {
	return &lockerService{
		repo:      repo,
		validator: v,
		cfg:       cfg,
	}
}

func (s *lockerService) Create(ctx context.Context, locker *model.Locker) error {
	locker.Number = strings.TrimSpace(locker.Number)
	if locker.Status == "" {
		locker.Status = model.LockerAvailable
	}

	if err := s.validator.Validate(locker); err != nil {
		s.cfg.Log.Warn("Locker validation failed", "error", err)
		return apperrors.Validation("Locker validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, locker); err != nil {
		if errors.Is(err, lockerserrors.ErrDuplicateNumber) {
			return apperrors.Conflict("A locker with this number already exists")
		}
		s.cfg.Log.Error("Failed to create locker", "number", locker.Number, "error", err)
		return apperrors.Internal("Failed to create locker", err)
	}

	s.cfg.Log.Info("Locker created", "id", locker.ID, "number", locker.Number, "size", locker.Size)
	return nil
}

func (s *lockerService) GetByID(ctx context.Context, id string) (*model.Locker, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Locker ID cannot be empty")
	}

	locker, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, lockerserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Locker", id)
		}
		if errors.Is(err, lockerserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid locker ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve locker", err)
	}

	return locker, nil
}

func (s *lockerService) GetAll(ctx context.Context, status string, limit int, offset int64) ([]*model.Locker, int64, error) {
	if status != "" && status != model.LockerAvailable && status != model.LockerReserved && status != model.LockerMaintenance {
		return nil, 0, apperrors.InvalidInput("status must be one of: available, reserved, maintenance")
	}

	count, err := s.repo.Count(ctx, status)
	if err != nil {
		s.cfg.Log.Error("Failed to count lockers", "error", err)
		return nil, 0, apperrors.Internal("Failed to count lockers", err)
	}

	lockers, err := s.repo.FindAll(ctx, status, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list lockers", "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve lockers", err)
	}

	return lockers, count, nil
}

func (s *lockerService) Update(ctx context.Context, id string, updates *model.LockerUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Locker ID cannot be empty")
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Locker update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	merged := s.mergeUpdates(existing, updates)
	if err := s.validator.Validate(merged); err != nil {
		return apperrors.Validation("Locker validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, lockerserrors.ErrDuplicateNumber) {
			return apperrors.Conflict("A locker with this number already exists")
		}
		if errors.Is(err, lockerserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Locker", id)
		}
		s.cfg.Log.Error("Failed to update locker", "id", id, "error", err)
		return apperrors.Internal("Failed to update locker", err)
	}

	s.cfg.Log.Info("Locker updated", "id", id)
	return nil
}

func (s *lockerService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Locker ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, lockerserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Locker", id)
		}
		if errors.Is(err, lockerserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid locker ID format")
		}
		s.cfg.Log.Error("Failed to delete locker", "id", id, "error", err)
		return apperrors.Internal("Failed to delete locker", err)
	}

	s.cfg.Log.Info("Locker deleted", "id", id)
	return nil
}

func (s *lockerService) mergeUpdates(existing *model.Locker, updates *model.LockerUpdate) *model.Locker {
	merged := *existing

	if updates.Number != nil {
		merged.Number = strings.TrimSpace(*updates.Number)
	}
	if updates.Size != nil {
		merged.Size = *updates.Size
	}
	if updates.Price != nil {
		merged.Price = *updates.Price
	}
	if updates.Status != nil {
		merged.Status = *updates.Status
	}

	return &merged
}
