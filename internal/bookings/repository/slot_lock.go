package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"coachbook/pkg/config"
	"coachbook/pkg/model"
)

const (
	SlotLockCollectionName = "Slot_locks"
)

// SlotLockRepository provides advisory locks over booking slots. A lock
// document's unique _id encodes org and start time, so two concurrent
// create attempts for the same slot collide on insert. A TTL index on
// expires_at reaps locks abandoned by crashed processes.
type SlotLockRepository interface {
	Acquire(ctx context.Context, lock *model.SlotLock) error
	Release(ctx context.Context, lockID string) error
}

type mongoSlotLockRepository struct {
	collection *mongo.Collection
}

func NewMongoSlotLockRepository(cfg *config.Config) SlotLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotLockRepository{
		collection: db.Collection(SlotLockCollectionName),
	}
}

// SlotLockID builds the lock key for one org's slot.
func SlotLockID(orgID string, startTime time.Time) string {
	return fmt.Sprintf("org:%s:slot:%d", orgID, startTime.Unix())
}

// Acquire inserts the lock document. A duplicate key error means another
// request holds the slot.
func (r *mongoSlotLockRepository) Acquire(ctx context.Context, lock *model.SlotLock) error {
	lock.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, lock)
	return err
}

func (r *mongoSlotLockRepository) Release(ctx context.Context, lockID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID})
	return err
}
