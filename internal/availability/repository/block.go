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

	availabilityerrors "coachbook/internal/availability/errors"
	"coachbook/pkg/config"
	"coachbook/pkg/model"
)

const (
	BlockCollectionName = "Blocked_intervals"
)

type mongoBlockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type BlockRepository interface {
	Create(ctx context.Context, b *model.BlockedInterval) error
	FindByID(ctx context.Context, orgID string, id string) (*model.BlockedInterval, error)
	FindByOrg(ctx context.Context, orgID string) ([]*model.BlockedInterval, error)
	FindApplicable(ctx context.Context, orgID string, date string, dayOfWeek int) ([]*model.BlockedInterval, error)
	Delete(ctx context.Context, orgID string, id string) error
}

func NewMongoBlockRepository(cfg *config.Config) BlockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBlockRepository{
		cfg:        cfg,
		collection: db.Collection(BlockCollectionName),
	}
}

func (r *mongoBlockRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBlockRepository) Create(ctx context.Context, b *model.BlockedInterval) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	b.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, b)
	if err != nil {
		return fmt.Errorf("failed to create blocked interval: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		b.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBlockRepository) FindByID(ctx context.Context, orgID string, id string) (*model.BlockedInterval, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", availabilityerrors.ErrInvalidID, id)
	}

	var b model.BlockedInterval
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID, "org_id": orgID}).Decode(&b)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", availabilityerrors.ErrBlockNotFound, id)
		}
		return nil, fmt.Errorf("failed to find blocked interval: %w", err)
	}

	return &b, nil
}

func (r *mongoBlockRepository) FindByOrg(ctx context.Context, orgID string) ([]*model.BlockedInterval, error) {
	return r.find(ctx, bson.M{"org_id": orgID})
}

// FindApplicable returns blocks that cover the given calendar day, whether
// pinned to that date or recurring on its weekday.
func (r *mongoBlockRepository) FindApplicable(ctx context.Context, orgID string, date string, dayOfWeek int) ([]*model.BlockedInterval, error) {
	filter := bson.M{
		"org_id": orgID,
		"$or": []bson.M{
			{"date": date},
			{"day_of_week": dayOfWeek},
		},
	}
	return r.find(ctx, filter)
}

func (r *mongoBlockRepository) find(ctx context.Context, filter bson.M) ([]*model.BlockedInterval, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query blocked intervals: %w", err)
	}
	defer cursor.Close(ctx)

	var blocks []*model.BlockedInterval
	if err = cursor.All(ctx, &blocks); err != nil {
		return nil, fmt.Errorf("failed to decode blocked intervals: %w", err)
	}
	return blocks, nil
}

func (r *mongoBlockRepository) Delete(ctx context.Context, orgID string, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", availabilityerrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID, "org_id": orgID})
	if err != nil {
		return fmt.Errorf("failed to delete blocked interval: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", availabilityerrors.ErrBlockNotFound, id)
	}
	return nil
}
