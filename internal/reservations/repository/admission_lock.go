package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"lockerd/pkg/config"
	"lockerd/pkg/model"
)

const LockCollectionName = "Reservation_locks"

// AdmissionLockRepository manages the per-locker advisory locks that
// serialize concurrent admission for the same locker.
type AdmissionLockRepository interface {
	Acquire(ctx context.Context, lock *model.ReservationLock) error
	Release(ctx context.Context, lockID string) error
}

type mongoAdmissionLockRepository struct {
	collection *mongo.Collection
}

func NewAdmissionLockRepository(cfg *config.Config) AdmissionLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAdmissionLockRepository{
		collection: db.Collection(LockCollectionName),
	}
}

// Acquire inserts the lock document. A duplicate key error means another
// request currently holds the locker; callers translate that to a conflict.
// The TTL index on expires_at reclaims locks whose holder crashed.
func (r *mongoAdmissionLockRepository) Acquire(ctx context.Context, lock *model.ReservationLock) error {
	lock.CreatedAt = time.Now().UTC()

	_, err := r.collection.InsertOne(ctx, lock)
	return err
}

func (r *mongoAdmissionLockRepository) Release(ctx context.Context, lockID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID})
	return err
}
