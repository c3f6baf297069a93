package providerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"beautybook/database"
	"beautybook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoProviderRepo implements ProviderRepository using MongoDB.
type MongoProviderRepo struct {
	coll *mongo.Collection
}

// NewMongoProviderRepo creates a new instance of ProviderRepository using MongoDB.
func NewMongoProviderRepo() ProviderRepository {
	repo := &MongoProviderRepo{coll: database.DB().Collection("artists")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoProviderRepo) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	return r.findOne(ctx, id, nil)
}

func (r *MongoProviderRepo) findOne(ctx context.Context, id string, projection bson.M) (*models.Provider, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOne()
	if projection != nil {
		opts.SetProjection(projection)
	}
	var provider models.Provider
	err := r.coll.FindOne(ctx, bson.M{"id": id}, opts).Decode(&provider)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("provider %s: %w", id, ErrProviderNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch provider with id %s: %w", id, err)
	}
	return &provider, nil
}

func (r *MongoProviderRepo) GetService(ctx context.Context, providerID, serviceID string) (*models.Service, error) {
	provider, err := r.findOne(ctx, providerID, bson.M{"id": 1, "services": 1})
	if errors.Is(err, ErrProviderNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	svc, ok := provider.FindService(serviceID)
	if !ok {
		return nil, nil
	}
	return &svc, nil
}

func (r *MongoProviderRepo) GetProviderPolicy(ctx context.Context, providerID string) (*models.BookingPolicy, error) {
	provider, err := r.findOne(ctx, providerID, bson.M{"id": 1, "bookingPolicy": 1})
	if errors.Is(err, ErrProviderNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &provider.Policy, nil
}

func (r *MongoProviderRepo) GetFCMToken(ctx context.Context, providerID string) (string, error) {
	provider, err := r.findOne(ctx, providerID, bson.M{"id": 1, "fcmToken": 1})
	if err != nil {
		return "", err
	}
	return provider.FCMToken, nil
}

func (r *MongoProviderRepo) Upsert(ctx context.Context, provider *models.Provider) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	if provider.CreatedAt.IsZero() {
		provider.CreatedAt = now
	}
	provider.UpdatedAt = now
	opts := options.Replace().SetUpsert(true)
	if _, err := r.coll.ReplaceOne(ctx, bson.M{"id": provider.ID}, provider, opts); err != nil {
		return fmt.Errorf("failed to upsert provider %s: %w", provider.ID, err)
	}
	return nil
}

func (r *MongoProviderRepo) UpdateFCMToken(ctx context.Context, providerID, token string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"fcmToken": token, "updatedAt": time.Now().UTC()}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": providerID}, update)
	if err != nil {
		return fmt.Errorf("failed to update fcm token for provider %s: %w", providerID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("provider %s: %w", providerID, ErrProviderNotFound)
	}
	return nil
}

// ensureIndexes creates indexes for fields frequently used in queries.
func (r *MongoProviderRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "services.id", Value: 1}}},
		{Keys: bson.D{{Key: "profile.status", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
