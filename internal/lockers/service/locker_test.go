package service

import (
	"context"
	"testing"
	"time"

	lockerserrors "lockerd/internal/lockers/errors"
	"lockerd/internal/lockers/validator"
	"lockerd/pkg/config"
	apperrors "lockerd/pkg/errors"
	"lockerd/pkg/logger"
	"lockerd/pkg/model"
)

type mockLockerRepository struct {
	createFunc   func(ctx context.Context, locker *model.Locker) error
	findByIDFunc func(ctx context.Context, id string) (*model.Locker, error)
	updateFunc   func(ctx context.Context, id string, locker *model.Locker) error
	deleteFunc   func(ctx context.Context, id string) error
}

func (m *mockLockerRepository) Create(ctx context.Context, locker *model.Locker) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, locker)
	}
	locker.ID = "locker-1"
	return nil
}

func (m *mockLockerRepository) FindByID(ctx context.Context, id string) (*model.Locker, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.Locker{ID: id, Number: "A-1", Size: model.SizeSmall, Status: model.LockerAvailable}, nil
}

func (m *mockLockerRepository) FindByNumber(ctx context.Context, number string) (*model.Locker, error) {
	return nil, lockerserrors.ErrNotFound
}

func (m *mockLockerRepository) FindAll(ctx context.Context, status string, limit int, offset int64) ([]*model.Locker, error) {
	return []*model.Locker{}, nil
}

func (m *mockLockerRepository) Count(ctx context.Context, status string) (int64, error) {
	return 0, nil
}

func (m *mockLockerRepository) Update(ctx context.Context, id string, locker *model.Locker) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, locker)
	}
	return nil
}

func (m *mockLockerRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return nil
}

func (m *mockLockerRepository) UpdateStatusFrom(ctx context.Context, id, from, to string) (bool, error) {
	return true, nil
}

func (m *mockLockerRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func testConfig() *config.Config {
	log := logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})
	return &config.Config{
		Log:          log,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

func newTestService(repo *mockLockerRepository) LockerService {
	cfg := testConfig()
	return NewLockerService(repo, validator.NewLockerValidator(cfg.Log), cfg)
}

func TestCreate_DefaultsToAvailable(t *testing.T) {
	service := newTestService(&mockLockerRepository{})

	locker := &model.Locker{Number: " A-7 ", Size: model.SizeMedium, Price: 4.5}
	if err := service.Create(context.Background(), locker); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if locker.Status != model.LockerAvailable {
		t.Errorf("expected default status available, got %q", locker.Status)
	}
	if locker.Number != "A-7" {
		t.Errorf("expected trimmed number, got %q", locker.Number)
	}
}

func TestCreate_DuplicateNumber(t *testing.T) {
	repo := &mockLockerRepository{
		createFunc: func(ctx context.Context, locker *model.Locker) error {
			return lockerserrors.ErrDuplicateNumber
		},
	}
	service := newTestService(repo)

	err := service.Create(context.Background(), &model.Locker{Number: "A-1", Size: model.SizeSmall})
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Fatalf("expected %s, got %v", apperrors.CodeConflict, err)
	}
}

func TestCreate_InvalidSize(t *testing.T) {
	service := newTestService(&mockLockerRepository{})

	err := service.Create(context.Background(), &model.Locker{Number: "A-1", Size: "gigantic"})
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeValidation {
		t.Fatalf("expected %s, got %v", apperrors.CodeValidation, err)
	}
}

func TestGetAll_InvalidStatusFilter(t *testing.T) {
	service := newTestService(&mockLockerRepository{})

	_, _, err := service.GetAll(context.Background(), "broken", 10, 0)
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInvalidInput {
		t.Fatalf("expected %s, got %v", apperrors.CodeInvalidInput, err)
	}
}

func TestUpdate_MergesPartialFields(t *testing.T) {
	var saved *model.Locker
	repo := &mockLockerRepository{
		updateFunc: func(ctx context.Context, id string, locker *model.Locker) error {
			saved = locker
			return nil
		},
	}
	service := newTestService(repo)

	status := model.LockerMaintenance
	err := service.Update(context.Background(), "locker-1", &model.LockerUpdate{Status: &status})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.Status != model.LockerMaintenance {
		t.Errorf("expected status maintenance, got %q", saved.Status)
	}
	if saved.Number != "A-1" {
		t.Errorf("untouched fields must survive the merge, got number %q", saved.Number)
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo := &mockLockerRepository{
		deleteFunc: func(ctx context.Context, id string) error {
			return lockerserrors.ErrNotFound
		},
	}
	service := newTestService(repo)

	err := service.Delete(context.Background(), "missing")
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeNotFound {
		t.Fatalf("expected %s, got %v", apperrors.CodeNotFound, err)
	}
}
