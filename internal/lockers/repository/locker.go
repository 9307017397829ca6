package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	lockerserrors "lockerd/internal/lockers/errors"
	"lockerd/pkg/config"
	"lockerd/pkg/model"
)

const CollectionName = "Lockers"

type LockerRepository interface {
	Create(ctx context.Context, locker *model.Locker) error
	FindByID(ctx context.Context, id string) (*model.Locker, error)
	FindByNumber(ctx context.Context, number string) (*model.Locker, error)
	FindAll(ctx context.Context, status string, limit int, offset int64) ([]*model.Locker, error)
	Count(ctx context.Context, status string) (int64, error)
	Update(ctx context.Context, id string, locker *model.Locker) error
	UpdateStatus(ctx context.Context, id string, status string) error
	UpdateStatusFrom(ctx context.Context, id string, from, to string) (bool, error)
	Delete(ctx context.Context, id string) error
}

type mongoLockerRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoLockerRepository(cfg *config.Config) LockerRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLockerRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// withTimeout bounds a store call without extending a caller deadline.
func (r *mongoLockerRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			return context.WithTimeout(ctx, remaining)
		}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoLockerRepository) Create(ctx context.Context, locker *model.Locker) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	locker.CreatedAt = now
	locker.UpdatedAt = now
	if locker.Status == "" {
		locker.Status = model.LockerAvailable
	}

	result, err := r.collection.InsertOne(ctx, locker)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return lockerserrors.ErrDuplicateNumber
		}
		return fmt.Errorf("failed to create locker: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		locker.ID = oid.Hex()
	}
	return nil
}

func (r *mongoLockerRepository) FindByID(ctx context.Context, id string) (*model.Locker, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", lockerserrors.ErrInvalidID, id)
	}

	var locker model.Locker
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&locker)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, lockerserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find locker: %w", err)
	}

	return &locker, nil
}

func (r *mongoLockerRepository) FindByNumber(ctx context.Context, number string) (*model.Locker, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var locker model.Locker
	err := r.collection.FindOne(ctx, bson.M{"number": number}).Decode(&locker)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, lockerserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find locker by number: %w", err)
	}

	return &locker, nil
}

func (r *mongoLockerRepository) FindAll(ctx context.Context, status string, limit int, offset int64) ([]*model.Locker, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "number", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find lockers: %w", err)
	}
	defer cursor.Close(ctx)

	var lockers []*model.Locker
	if err = cursor.All(ctx, &lockers); err != nil {
		return nil, fmt.Errorf("failed to decode lockers: %w", err)
	}

	return lockers, nil
}

func (r *mongoLockerRepository) Count(ctx context.Context, status string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count lockers: %w", err)
	}
	return count, nil
}

func (r *mongoLockerRepository) Update(ctx context.Context, id string, locker *model.Locker) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", lockerserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"number":     locker.Number,
			"size":       locker.Size,
			"price":      locker.Price,
			"status":     locker.Status,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return lockerserrors.ErrDuplicateNumber
		}
		return fmt.Errorf("failed to update locker: %w", err)
	}
	if result.MatchedCount == 0 {
		return lockerserrors.ErrNotFound
	}

	return nil
}

func (r *mongoLockerRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", lockerserrors.ErrInvalidID, id)
	}

	update := bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update locker status: %w", err)
	}
	if result.MatchedCount == 0 {
		return lockerserrors.ErrNotFound
	}

	return nil
}

// UpdateStatusFrom flips the status only if it currently equals from. The
// returned bool reports whether the conditional write matched; a false result
// means another writer got there first.
func (r *mongoLockerRepository) UpdateStatusFrom(ctx context.Context, id string, from, to string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", lockerserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "status": from}
	update := bson.M{"$set": bson.M{
		"status":     to,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to update locker status: %w", err)
	}

	return result.MatchedCount > 0, nil
}

func (r *mongoLockerRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", lockerserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete locker: %w", err)
	}
	if result.DeletedCount == 0 {
		return lockerserrors.ErrNotFound
	}

	return nil
}
