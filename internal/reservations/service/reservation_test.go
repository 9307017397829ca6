package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"lockerd/internal/auth"
	"lockerd/internal/events"
	lockerserrors "lockerd/internal/lockers/errors"
	"lockerd/internal/notifier"
	reservationserrors "lockerd/internal/reservations/errors"
	"lockerd/internal/reservations/validator"
	"lockerd/pkg/config"
	apperrors "lockerd/pkg/errors"
	"lockerd/pkg/logger"
	"lockerd/pkg/model"
)

// Mock repositories for testing

type mockReservationRepository struct {
	createFunc                func(ctx context.Context, r *model.Reservation) error
	findByIDFunc              func(ctx context.Context, id string) (*model.Reservation, error)
	findActiveOverlappingFunc func(ctx context.Context, lockerID string, start, end time.Time) ([]*model.Reservation, error)
	updateStatusIfActiveFunc  func(ctx context.Context, id, status string) error
}

func (m *mockReservationRepository) Create(ctx context.Context, r *model.Reservation) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, r)
	}
	r.ID = "res-1"
	return nil
}

func (m *mockReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, reservationserrors.ErrNotFound
}

func (m *mockReservationRepository) FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Reservation, error) {
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, error) {
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *mockReservationRepository) FindActiveOverlapping(ctx context.Context, lockerID string, start, end time.Time) ([]*model.Reservation, error) {
	if m.findActiveOverlappingFunc != nil {
		return m.findActiveOverlappingFunc(ctx, lockerID, start, end)
	}
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) FindExpired(ctx context.Context, now time.Time) ([]*model.Reservation, error) {
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) FindNeedingReminder(ctx context.Context, now, until time.Time) ([]*model.Reservation, error) {
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) UpdateStatusIfActive(ctx context.Context, id, status string) error {
	if m.updateStatusIfActiveFunc != nil {
		return m.updateStatusIfActiveFunc(ctx, id, status)
	}
	return nil
}

func (m *mockReservationRepository) MarkReminderSent(ctx context.Context, id string) error {
	return nil
}

// memoryReservationRepository is a stateful store for admission-sequence
// tests. Its overlap query applies the same half-open window logic the Mongo
// filter expresses, via model.Reservation.Overlaps.
type memoryReservationRepository struct {
	mu           sync.Mutex
	seq          int
	reservations map[string]*model.Reservation
}

func newMemoryReservationRepository() *memoryReservationRepository {
	return &memoryReservationRepository{reservations: make(map[string]*model.Reservation)}
}

func (m *memoryReservationRepository) Create(ctx context.Context, r *model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	r.ID = fmt.Sprintf("res-%d", m.seq)
	stored := *r
	m.reservations[r.ID] = &stored
	return nil
}

func (m *memoryReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok {
		return nil, reservationserrors.ErrNotFound
	}
	found := *r
	return &found, nil
}

func (m *memoryReservationRepository) FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Reservation, error) {
	return []*model.Reservation{}, nil
}

func (m *memoryReservationRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, error) {
	return []*model.Reservation{}, nil
}

func (m *memoryReservationRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *memoryReservationRepository) FindActiveOverlapping(ctx context.Context, lockerID string, start, end time.Time) ([]*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Reservation
	for _, r := range m.reservations {
		if r.LockerID == lockerID && r.Status == model.ReservationActive && r.Overlaps(start, end) {
			found := *r
			out = append(out, &found)
		}
	}
	return out, nil
}

func (m *memoryReservationRepository) FindExpired(ctx context.Context, now time.Time) ([]*model.Reservation, error) {
	return []*model.Reservation{}, nil
}

func (m *memoryReservationRepository) FindNeedingReminder(ctx context.Context, now, until time.Time) ([]*model.Reservation, error) {
	return []*model.Reservation{}, nil
}

func (m *memoryReservationRepository) UpdateStatusIfActive(ctx context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok || r.Status != model.ReservationActive {
		return reservationserrors.ErrNotActive
	}
	r.Status = status
	return nil
}

func (m *memoryReservationRepository) MarkReminderSent(ctx context.Context, id string) error {
	return nil
}

// mockAdmissionLockRepository keeps held locks in a map so concurrent tests
// exercise real mutual exclusion.
type mockAdmissionLockRepository struct {
	mu   sync.Mutex
	held map[string]bool

	acquireFunc func(ctx context.Context, lock *model.ReservationLock) error
}

func newMockAdmissionLockRepository() *mockAdmissionLockRepository {
	return &mockAdmissionLockRepository{held: make(map[string]bool)}
}

func duplicateKeyErr() error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
}

func (m *mockAdmissionLockRepository) Acquire(ctx context.Context, lock *model.ReservationLock) error {
	if m.acquireFunc != nil {
		return m.acquireFunc(ctx, lock)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[lock.ID] {
		return duplicateKeyErr()
	}
	m.held[lock.ID] = true
	return nil
}

func (m *mockAdmissionLockRepository) Release(ctx context.Context, lockID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, lockID)
	return nil
}

type mockLockerRepository struct {
	findByIDFunc         func(ctx context.Context, id string) (*model.Locker, error)
	updateStatusFunc     func(ctx context.Context, id, status string) error
	updateStatusFromFunc func(ctx context.Context, id, from, to string) (bool, error)
}

func (m *mockLockerRepository) Create(ctx context.Context, locker *model.Locker) error { return nil }

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
	return nil
}

func (m *mockLockerRepository) UpdateStatus(ctx context.Context, id, status string) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockLockerRepository) UpdateStatusFrom(ctx context.Context, id, from, to string) (bool, error) {
	if m.updateStatusFromFunc != nil {
		return m.updateStatusFromFunc(ctx, id, from, to)
	}
	return true, nil
}

func (m *mockLockerRepository) Delete(ctx context.Context, id string) error { return nil }

type mockUserDirectory struct {
	findByIDFunc func(ctx context.Context, id string) (*model.User, error)
}

func (m *mockUserDirectory) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.User{ID: id, Username: "tester", Email: "tester@example.com", Role: model.RoleUser}, nil
}

type failingNotifier struct {
	notifier.Noop
}

func (failingNotifier) ReservationConfirmed(context.Context, *model.User, *model.Reservation, *model.Locker) error {
	return errors.New("smtp connection refused")
}

type fakeClock struct {
	now time.Time
}

func (c fakeClock) Now() time.Time { return c.now }

// movingClock lets a test reposition "now" between requests.
type movingClock struct {
	now time.Time
}

func (c *movingClock) Now() time.Time { return c.now }

const (
	testLockerID = "64b64c3f2f9b9a0012345678"
	testUserID   = "64b64c3f2f9b9a0087654321"
)

func testConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	return &config.Config{
		Log:              log,
		ReadTimeout:      5 * time.Second,
		WriteTimeout:     5 * time.Second,
		AdmissionLockTTL: 10 * time.Second,
	}
}

func newTestService(
	repo *mockReservationRepository,
	locks *mockAdmissionLockRepository,
	lockers *mockLockerRepository,
	n notifier.Notifier,
) *reservationService {
	cfg := testConfig()
	if locks == nil {
		locks = newMockAdmissionLockRepository()
	}
	if n == nil {
		n = notifier.Noop{}
	}
	return &reservationService{
		repo:      repo,
		lockRepo:  locks,
		lockers:   lockers,
		users:     &mockUserDirectory{},
		validator: validator.NewReservationValidator(cfg.Log),
		notifier:  n,
		events:    events.NewNoopPublisher(),
		clock:     fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		cfg:       cfg,
	}
}

func TestCreate_Success(t *testing.T) {
	repo := &mockReservationRepository{}
	service := newTestService(repo, nil, &mockLockerRepository{}, nil)

	reservation, err := service.Create(context.Background(), testUserID, &model.ReservationRequest{
		LockerID: testLockerID,
		Hours:    5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reservation.Status != model.ReservationActive {
		t.Errorf("expected status active, got %s", reservation.Status)
	}
	wantEnd := reservation.StartDate.Add(5 * time.Hour)
	if !reservation.EndDate.Equal(wantEnd) {
		t.Errorf("expected end %v, got %v", wantEnd, reservation.EndDate)
	}
	if reservation.ReminderSent {
		t.Error("new reservation must start with reminder_sent=false")
	}
	if reservation.Locker == nil || reservation.Locker.Status != model.LockerReserved {
		t.Error("returned reservation should carry the reserved locker")
	}
}

func TestCreate_HoursOutOfRange(t *testing.T) {
	repo := &mockReservationRepository{
		createFunc: func(ctx context.Context, r *model.Reservation) error {
			t.Error("repository must not be called for invalid input")
			return nil
		},
	}
	service := newTestService(repo, nil, &mockLockerRepository{}, nil)

	for _, hours := range []int{0, -1, 73, 1000} {
		_, err := service.Create(context.Background(), testUserID, &model.ReservationRequest{
			LockerID: testLockerID,
			Hours:    hours,
		})
		if err == nil {
			t.Fatalf("hours=%d: expected validation error", hours)
		}
		if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeValidation {
			t.Errorf("hours=%d: expected %s, got %s", hours, apperrors.CodeValidation, appErr.Code)
		}
	}
}

func TestCreate_LockerNotFound(t *testing.T) {
	lockers := &mockLockerRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Locker, error) {
			return nil, lockerserrors.ErrNotFound
		},
	}
	service := newTestService(&mockReservationRepository{}, nil, lockers, nil)

	_, err := service.Create(context.Background(), testUserID, &model.ReservationRequest{
		LockerID: testLockerID,
		Hours:    2,
	})
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeNotFound {
		t.Fatalf("expected %s, got %v", apperrors.CodeNotFound, err)
	}
}

func TestCreate_LockerNotAvailable(t *testing.T) {
	for _, status := range []string{model.LockerReserved, model.LockerMaintenance} {
		lockers := &mockLockerRepository{
			findByIDFunc: func(ctx context.Context, id string) (*model.Locker, error) {
				return &model.Locker{ID: id, Number: "A-1", Status: status}, nil
			},
		}
		service := newTestService(&mockReservationRepository{}, nil, lockers, nil)

		_, err := service.Create(context.Background(), testUserID, &model.ReservationRequest{
			LockerID: testLockerID,
			Hours:    2,
		})
		if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
			t.Errorf("status=%s: expected %s, got %v", status, apperrors.CodeConflict, err)
		}
	}
}

func TestCreate_OverlapConflict(t *testing.T) {
	repo := &mockReservationRepository{
		findActiveOverlappingFunc: func(ctx context.Context, lockerID string, start, end time.Time) ([]*model.Reservation, error) {
			return []*model.Reservation{{ID: "existing", Status: model.ReservationActive}}, nil
		},
		createFunc: func(ctx context.Context, r *model.Reservation) error {
			t.Error("no reservation may be created when an active overlap exists")
			return nil
		},
	}
	service := newTestService(repo, nil, &mockLockerRepository{}, nil)

	_, err := service.Create(context.Background(), testUserID, &model.ReservationRequest{
		LockerID: testLockerID,
		Hours:    2,
	})
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Fatalf("expected %s, got %v", apperrors.CodeConflict, err)
	}
}

func TestCreate_AdmissionLockHeld(t *testing.T) {
	locks := newMockAdmissionLockRepository()
	locks.held["locker_lock_"+testLockerID] = true

	repo := &mockReservationRepository{
		createFunc: func(ctx context.Context, r *model.Reservation) error {
			t.Error("no reservation may be created while the admission lock is held")
			return nil
		},
	}
	service := newTestService(repo, locks, &mockLockerRepository{}, nil)

	_, err := service.Create(context.Background(), testUserID, &model.ReservationRequest{
		LockerID: testLockerID,
		Hours:    2,
	})
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Fatalf("expected %s, got %v", apperrors.CodeConflict, err)
	}
}

func TestCreate_LockReleasedAfterSuccess(t *testing.T) {
	locks := newMockAdmissionLockRepository()
	service := newTestService(&mockReservationRepository{}, locks, &mockLockerRepository{}, nil)

	if _, err := service.Create(context.Background(), testUserID, &model.ReservationRequest{
		LockerID: testLockerID,
		Hours:    2,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	locks.mu.Lock()
	defer locks.mu.Unlock()
	if locks.held["locker_lock_"+testLockerID] {
		t.Error("admission lock must be released after the request finishes")
	}
}

func TestCreate_FlipLostCompensates(t *testing.T) {
	var cancelled string
	repo := &mockReservationRepository{
		updateStatusIfActiveFunc: func(ctx context.Context, id, status string) error {
			cancelled = id
			if status != model.ReservationCancelled {
				t.Errorf("compensation must cancel, got status %s", status)
			}
			return nil
		},
	}
	lockers := &mockLockerRepository{
		updateStatusFromFunc: func(ctx context.Context, id, from, to string) (bool, error) {
			return false, nil
		},
	}
	service := newTestService(repo, nil, lockers, nil)

	_, err := service.Create(context.Background(), testUserID, &model.ReservationRequest{
		LockerID: testLockerID,
		Hours:    2,
	})
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Fatalf("expected %s, got %v", apperrors.CodeConflict, err)
	}
	if cancelled != "res-1" {
		t.Errorf("expected compensating cancellation of res-1, got %q", cancelled)
	}
}

func TestCreate_NotifierFailureDoesNotFail(t *testing.T) {
	service := newTestService(&mockReservationRepository{}, nil, &mockLockerRepository{}, failingNotifier{})

	reservation, err := service.Create(context.Background(), testUserID, &model.ReservationRequest{
		LockerID: testLockerID,
		Hours:    2,
	})
	if err != nil {
		t.Fatalf("notification failure must not fail the reservation: %v", err)
	}
	if reservation.Status != model.ReservationActive {
		t.Errorf("expected active reservation, got %s", reservation.Status)
	}
}

// Two concurrent requests for the same locker: exactly one may win even when
// both pass the availability snapshot.
func TestCreate_ConcurrentAdmission(t *testing.T) {
	locks := newMockAdmissionLockRepository()

	var mu sync.Mutex
	lockerStatus := model.LockerAvailable

	lockers := &mockLockerRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Locker, error) {
			mu.Lock()
			defer mu.Unlock()
			return &model.Locker{ID: id, Number: "A-1", Status: lockerStatus}, nil
		},
		updateStatusFromFunc: func(ctx context.Context, id, from, to string) (bool, error) {
			mu.Lock()
			defer mu.Unlock()
			if lockerStatus != from {
				return false, nil
			}
			lockerStatus = to
			return true, nil
		},
	}

	repo := &mockReservationRepository{}

	service := newTestService(repo, locks, lockers, nil)

	const attempts = 10
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Create(context.Background(), testUserID, &model.ReservationRequest{
				LockerID: testLockerID,
				Hours:    2,
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins int
	for err := range results {
		if err == nil {
			wins++
		} else if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
			t.Errorf("losers must see a conflict, got %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", wins)
	}
}

// The overlap re-check is the sole admission authority here: the inventory
// flip is forced open so every verdict comes from the stored windows. Random
// request windows must be rejected exactly when they intersect an accepted,
// still-active window under half-open semantics, and a cancelled window must
// admit again.
func TestCreate_OverlapExclusivityRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	repo := newMemoryReservationRepository()
	lockers := &mockLockerRepository{
		updateStatusFromFunc: func(ctx context.Context, id, from, to string) (bool, error) {
			return true, nil
		},
	}
	clk := &movingClock{now: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
	base := clk.now

	cfg := testConfig()
	service := &reservationService{
		repo:      repo,
		lockRepo:  newMockAdmissionLockRepository(),
		lockers:   lockers,
		users:     &mockUserDirectory{},
		validator: validator.NewReservationValidator(cfg.Log),
		notifier:  notifier.Noop{},
		events:    events.NewNoopPublisher(),
		clock:     clk,
		cfg:       cfg,
	}

	type window struct {
		id         string
		start, end time.Time
	}
	var active []window

	intersects := func(aStart, aEnd, bStart, bEnd time.Time) bool {
		lo, hi := aStart, aEnd
		if bStart.After(lo) {
			lo = bStart
		}
		if bEnd.Before(hi) {
			hi = bEnd
		}
		return lo.Before(hi)
	}

	for i := 0; i < 300; i++ {
		clk.now = base.Add(time.Duration(rng.Intn(240)) * 30 * time.Minute)
		hours := model.MinReservationHours + rng.Intn(model.MaxReservationHours)
		start := clk.now
		end := start.Add(time.Duration(hours) * time.Hour)

		wantConflict := false
		for _, w := range active {
			if intersects(start, end, w.start, w.end) {
				wantConflict = true
				break
			}
		}

		reservation, err := service.Create(context.Background(), testUserID, &model.ReservationRequest{
			LockerID: testLockerID,
			Hours:    hours,
		})
		if wantConflict {
			if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
				t.Fatalf("request %d [%v, %v): expected conflict against active windows, got %v", i, start, end, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("request %d [%v, %v): expected acceptance, got %v", i, start, end, err)
		}
		active = append(active, window{id: reservation.ID, start: start, end: end})

		if rng.Intn(4) == 0 {
			j := rng.Intn(len(active))
			if err := service.Cancel(context.Background(), active[j].id, auth.Identity{UserID: testUserID, Role: model.RoleUser}); err != nil {
				t.Fatalf("cancel of %s failed: %v", active[j].id, err)
			}
			active = append(active[:j], active[j+1:]...)
		}
	}
}

func TestCreate_AdmissionLockExpiryFollowsClock(t *testing.T) {
	var captured model.ReservationLock
	locks := newMockAdmissionLockRepository()
	locks.acquireFunc = func(ctx context.Context, lock *model.ReservationLock) error {
		captured = *lock
		return nil
	}
	service := newTestService(&mockReservationRepository{}, locks, &mockLockerRepository{}, nil)

	if _, err := service.Create(context.Background(), testUserID, &model.ReservationRequest{
		LockerID: testLockerID,
		Hours:    2,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := service.clock.Now().Add(service.cfg.AdmissionLockTTL)
	if !captured.ExpiresAt.Equal(want) {
		t.Errorf("lock expiry must come from the injected clock: want %v, got %v", want, captured.ExpiresAt)
	}
}

func TestCancel_Success(t *testing.T) {
	var releasedTo string
	repo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return &model.Reservation{ID: id, UserID: testUserID, LockerID: testLockerID, Status: model.ReservationActive}, nil
		},
	}
	lockers := &mockLockerRepository{
		updateStatusFunc: func(ctx context.Context, id, status string) error {
			releasedTo = status
			return nil
		},
	}
	service := newTestService(repo, nil, lockers, nil)

	err := service.Cancel(context.Background(), "res-1", auth.Identity{UserID: testUserID, Role: model.RoleUser})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if releasedTo != model.LockerAvailable {
		t.Errorf("locker must be released to available, got %q", releasedTo)
	}
}

func TestCancel_TerminalStateRejected(t *testing.T) {
	for _, status := range []string{model.ReservationExpired, model.ReservationCancelled} {
		repo := &mockReservationRepository{
			findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
				return &model.Reservation{ID: id, UserID: testUserID, LockerID: testLockerID, Status: status}, nil
			},
			updateStatusIfActiveFunc: func(ctx context.Context, id, s string) error {
				t.Errorf("status=%s: no transition may be attempted on a terminal reservation", status)
				return nil
			},
		}
		service := newTestService(repo, nil, &mockLockerRepository{}, nil)

		err := service.Cancel(context.Background(), "res-1", auth.Identity{UserID: testUserID, Role: model.RoleUser})
		if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInvalidState {
			t.Errorf("status=%s: expected %s, got %v", status, apperrors.CodeInvalidState, err)
		}
	}
}

// A reservation that looks active on the snapshot can still lose to a
// concurrent transition; the guarded update reports it the same way.
func TestCancel_LostRaceRejected(t *testing.T) {
	repo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return &model.Reservation{ID: id, UserID: testUserID, LockerID: testLockerID, Status: model.ReservationActive}, nil
		},
		updateStatusIfActiveFunc: func(ctx context.Context, id, s string) error {
			return reservationserrors.ErrNotActive
		},
	}
	service := newTestService(repo, nil, &mockLockerRepository{}, nil)

	err := service.Cancel(context.Background(), "res-1", auth.Identity{UserID: testUserID, Role: model.RoleUser})
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInvalidState {
		t.Fatalf("expected %s, got %v", apperrors.CodeInvalidState, err)
	}
}

func TestCancel_ForbiddenForOtherUser(t *testing.T) {
	repo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return &model.Reservation{ID: id, UserID: testUserID, LockerID: testLockerID, Status: model.ReservationActive}, nil
		},
		updateStatusIfActiveFunc: func(ctx context.Context, id, s string) error {
			t.Error("no transition may happen for a forbidden caller")
			return nil
		},
	}
	service := newTestService(repo, nil, &mockLockerRepository{}, nil)

	err := service.Cancel(context.Background(), "res-1", auth.Identity{UserID: "someone-else", Role: model.RoleUser})
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeForbidden {
		t.Fatalf("expected %s, got %v", apperrors.CodeForbidden, err)
	}
}

func TestCancel_AdminMayCancelAnyReservation(t *testing.T) {
	repo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return &model.Reservation{ID: id, UserID: testUserID, LockerID: testLockerID, Status: model.ReservationActive}, nil
		},
	}
	service := newTestService(repo, nil, &mockLockerRepository{}, nil)

	err := service.Cancel(context.Background(), "res-1", auth.Identity{UserID: "admin-1", Role: model.RoleAdmin})
	if err != nil {
		t.Fatalf("admin cancel should succeed: %v", err)
	}
}

func TestCancel_MissingLockerTolerated(t *testing.T) {
	repo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return &model.Reservation{ID: id, UserID: testUserID, LockerID: testLockerID, Status: model.ReservationActive}, nil
		},
	}
	lockers := &mockLockerRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Locker, error) {
			return nil, lockerserrors.ErrNotFound
		},
		updateStatusFunc: func(ctx context.Context, id, status string) error {
			return lockerserrors.ErrNotFound
		},
	}
	service := newTestService(repo, nil, lockers, nil)

	err := service.Cancel(context.Background(), "res-1", auth.Identity{UserID: testUserID, Role: model.RoleUser})
	if err != nil {
		t.Fatalf("cancellation must tolerate a deleted locker: %v", err)
	}
}

func TestGetByID_OwnerAndAdminOnly(t *testing.T) {
	repo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return &model.Reservation{ID: id, UserID: testUserID, LockerID: testLockerID, Status: model.ReservationActive}, nil
		},
	}
	service := newTestService(repo, nil, &mockLockerRepository{}, nil)

	if _, err := service.GetByID(context.Background(), "res-1", auth.Identity{UserID: testUserID, Role: model.RoleUser}); err != nil {
		t.Errorf("owner access should succeed: %v", err)
	}
	if _, err := service.GetByID(context.Background(), "res-1", auth.Identity{UserID: "admin-1", Role: model.RoleAdmin}); err != nil {
		t.Errorf("admin access should succeed: %v", err)
	}
	_, err := service.GetByID(context.Background(), "res-1", auth.Identity{UserID: "stranger", Role: model.RoleUser})
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeForbidden {
		t.Errorf("stranger access: expected %s, got %v", apperrors.CodeForbidden, err)
	}
}
