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

	packageserrors "coachbook/internal/packages/errors"
	"coachbook/pkg/config"
	"coachbook/pkg/model"
)

const (
	CollectionName = "Session_packages"
)

type mongoPackageRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type PackageRepository interface {
	Create(ctx context.Context, p *model.SessionPackage) error
	FindByID(ctx context.Context, id string) (*model.SessionPackage, error)
	FindByOrgAndClient(ctx context.Context, orgID string, clientID string) ([]*model.SessionPackage, error)
	ConsumeCredit(ctx context.Context, id string) (*model.SessionPackage, error)
	ReinstateCredit(ctx context.Context, id string) (*model.SessionPackage, error)
	SetPaymentStatus(ctx context.Context, id string, status string) error
}

func NewMongoPackageRepository(cfg *config.Config) PackageRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPackageRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoPackageRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoPackageRepository) Create(ctx context.Context, p *model.SessionPackage) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	p.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, p)
	if err != nil {
		return fmt.Errorf("failed to create session package: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		p.ID = oid.Hex()
	}
	return nil
}

func (r *mongoPackageRepository) FindByID(ctx context.Context, id string) (*model.SessionPackage, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", packageserrors.ErrInvalidID, id)
	}

	var p model.SessionPackage
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", packageserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find session package: %w", err)
	}

	return &p, nil
}

func (r *mongoPackageRepository) FindByOrgAndClient(ctx context.Context, orgID string, clientID string) ([]*model.SessionPackage, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"org_id": orgID, "client_id": clientID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query session packages: %w", err)
	}
	defer cursor.Close(ctx)

	var packages []*model.SessionPackage
	if err = cursor.All(ctx, &packages); err != nil {
		return nil, fmt.Errorf("failed to decode session packages: %w", err)
	}
	return packages, nil
}

// ConsumeCredit atomically increments sessions_used while it is still
// below sessions_total. The bounds check lives in the filter, so two
// concurrent consumers can never push the counter past the total.
func (r *mongoPackageRepository) ConsumeCredit(ctx context.Context, id string) (*model.SessionPackage, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", packageserrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":   objectID,
		"$expr": bson.M{"$lt": bson.A{"$sessions_used", "$sessions_total"}},
	}
	update := bson.M{"$inc": bson.M{"sessions_used": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p model.SessionPackage
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Either the package does not exist or it is exhausted.
			if _, findErr := r.FindByID(ctx, id); findErr != nil {
				return nil, findErr
			}
			return nil, fmt.Errorf("%w: %s", packageserrors.ErrExhausted, id)
		}
		return nil, fmt.Errorf("failed to consume session credit: %w", err)
	}

	return &p, nil
}

// ReinstateCredit atomically decrements sessions_used, floored at zero.
func (r *mongoPackageRepository) ReinstateCredit(ctx context.Context, id string) (*model.SessionPackage, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", packageserrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":           objectID,
		"sessions_used": bson.M{"$gt": 0},
	}
	update := bson.M{"$inc": bson.M{"sessions_used": -1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p model.SessionPackage
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if _, findErr := r.FindByID(ctx, id); findErr != nil {
				return nil, findErr
			}
			return nil, fmt.Errorf("%w: %s", packageserrors.ErrNothingToReinstate, id)
		}
		return nil, fmt.Errorf("failed to reinstate session credit: %w", err)
	}

	return &p, nil
}

func (r *mongoPackageRepository) SetPaymentStatus(ctx context.Context, id string, status string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", packageserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"payment_status": status}},
	)
	if err != nil {
		return fmt.Errorf("failed to set payment status: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", packageserrors.ErrNotFound, id)
	}
	return nil
}
