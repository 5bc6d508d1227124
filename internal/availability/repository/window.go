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
	WindowCollectionName = "Availability_windows"
)

type mongoWindowRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type WindowRepository interface {
	Create(ctx context.Context, w *model.AvailabilityWindow) error
	FindByID(ctx context.Context, orgID string, id string) (*model.AvailabilityWindow, error)
	FindByOrg(ctx context.Context, orgID string) ([]*model.AvailabilityWindow, error)
	FindByOrgAndDay(ctx context.Context, orgID string, dayOfWeek int) ([]*model.AvailabilityWindow, error)
	Delete(ctx context.Context, orgID string, id string) error
}

func NewMongoWindowRepository(cfg *config.Config) WindowRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoWindowRepository{
		cfg:        cfg,
		collection: db.Collection(WindowCollectionName),
	}
}

// withTimeout wraps the context with a timeout unless a transaction session
// is already driving the deadline.
func (r *mongoWindowRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoWindowRepository) Create(ctx context.Context, w *model.AvailabilityWindow) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	w.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, w)
	if err != nil {
		return fmt.Errorf("failed to create availability window: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		w.ID = oid.Hex()
	}
	return nil
}

func (r *mongoWindowRepository) FindByID(ctx context.Context, orgID string, id string) (*model.AvailabilityWindow, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", availabilityerrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "org_id": orgID}

	var w model.AvailabilityWindow
	err = r.collection.FindOne(ctx, filter).Decode(&w)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", availabilityerrors.ErrWindowNotFound, id)
		}
		return nil, fmt.Errorf("failed to find availability window: %w", err)
	}

	return &w, nil
}

func (r *mongoWindowRepository) FindByOrg(ctx context.Context, orgID string) ([]*model.AvailabilityWindow, error) {
	return r.find(ctx, bson.M{"org_id": orgID})
}

func (r *mongoWindowRepository) FindByOrgAndDay(ctx context.Context, orgID string, dayOfWeek int) ([]*model.AvailabilityWindow, error) {
	return r.find(ctx, bson.M{"org_id": orgID, "day_of_week": dayOfWeek})
}

func (r *mongoWindowRepository) find(ctx context.Context, filter bson.M) ([]*model.AvailabilityWindow, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "day_of_week", Value: 1}, {Key: "start_time", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query availability windows: %w", err)
	}
	defer cursor.Close(ctx)

	var windows []*model.AvailabilityWindow
	if err = cursor.All(ctx, &windows); err != nil {
		return nil, fmt.Errorf("failed to decode availability windows: %w", err)
	}
	return windows, nil
}

func (r *mongoWindowRepository) Delete(ctx context.Context, orgID string, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", availabilityerrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID, "org_id": orgID})
	if err != nil {
		return fmt.Errorf("failed to delete availability window: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", availabilityerrors.ErrWindowNotFound, id)
	}
	return nil
}
