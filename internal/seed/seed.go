// Package seed creates the initial admin account and a starter locker
// inventory so a fresh deployment is usable without touching the database by
// hand.
package seed

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	lockerserrors "lockerd/internal/lockers/errors"
	lockersrepo "lockerd/internal/lockers/repository"
	userserrors "lockerd/internal/users/errors"
	"lockerd/internal/users/repository"
	"lockerd/pkg/config"
	"lockerd/pkg/model"
)

const (
	adminUsername = "admin"
	adminEmail    = "admin@admin.com"
	adminPassword = "admin123"
)

// AdminUser inserts the default admin account if it does not exist yet.
// Safe to run on every startup.
func AdminUser(ctx context.Context, users repository.UserRepository, cfg *config.Config) error {
	_, err := users.FindByEmail(ctx, adminEmail)
	if err == nil {
		cfg.Log.Info("Admin user already seeded", "email", adminEmail)
		return nil
	}
	if !errors.Is(err, userserrors.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &model.User{
		Username:     adminUsername,
		Email:        adminEmail,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
	}

	if err := users.Create(ctx, admin); err != nil {
		// Two instances starting at once can both miss the lookup; the
		// unique email index settles it.
		if errors.Is(err, userserrors.ErrDuplicateEmail) {
			return nil
		}
		return err
	}

	cfg.Log.Warn("Seeded default admin user, change the password immediately", "email", adminEmail)
	return nil
}

// Lockers inserts a small starter inventory when the collection is empty.
func Lockers(ctx context.Context, lockers lockersrepo.LockerRepository, cfg *config.Config) error {
	count, err := lockers.Count(ctx, "")
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	starter := []*model.Locker{
		{Number: "A-1", Size: model.SizeSmall, Price: 2.50, Status: model.LockerAvailable},
		{Number: "A-2", Size: model.SizeSmall, Price: 2.50, Status: model.LockerAvailable},
		{Number: "B-1", Size: model.SizeMedium, Price: 4.00, Status: model.LockerAvailable},
		{Number: "B-2", Size: model.SizeMedium, Price: 4.00, Status: model.LockerAvailable},
		{Number: "C-1", Size: model.SizeLarge, Price: 6.00, Status: model.LockerAvailable},
	}

	for _, locker := range starter {
		if err := lockers.Create(ctx, locker); err != nil {
			// Concurrent startup already inserted this number.
			if errors.Is(err, lockerserrors.ErrDuplicateNumber) {
				continue
			}
			return err
		}
	}

	cfg.Log.Info("Seeded starter locker inventory", "count", len(starter))
	return nil
}
