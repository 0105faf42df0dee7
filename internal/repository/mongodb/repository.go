package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockscan/internal/config"
	"github.com/mamadbah2/stockscan/internal/domain/models"
)

// CatalogRepository serves item references straight from a MongoDB collection.
// Documents look like {code: "WDG-001", name: "Widget A", quantity: 150}.
type CatalogRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *zap.Logger
}

// NewCatalogRepository connects to MongoDB and verifies the connection.
func NewCatalogRepository(ctx context.Context, cfg config.MongoDBConfig, logger *zap.Logger) (*CatalogRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(cfg.URI)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &CatalogRepository{
		client: client,
		coll:   client.Database(cfg.DBName).Collection(cfg.CatalogCollection),
		logger: logger,
	}, nil
}

// Lookup implements catalog.Catalog with a single FindOne by code. Stored codes are
// compared trimmed, the same way LoadItems normalizes them.
func (r *CatalogRepository) Lookup(ctx context.Context, identifier string) (models.ItemReference, bool, error) {
	identifier = strings.TrimSpace(identifier)
	filter := bson.M{"$or": bson.A{
		bson.M{"code": identifier},
		bson.M{"$expr": bson.M{"$eq": bson.A{bson.M{"$trim": bson.M{"input": "$code"}}, identifier}}},
	}}

	var item models.ItemReference
	err := r.coll.FindOne(ctx, filter).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ItemReference{}, false, nil
	}
	if err != nil {
		return models.ItemReference{}, false, fmt.Errorf("find catalog item %s: %w", identifier, err)
	}
	return normalize(item), true, nil
}

// LoadItems implements catalog.Source.
func (r *CatalogRepository) LoadItems(ctx context.Context) ([]models.ItemReference, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "code", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find catalog items: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var items []models.ItemReference
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode catalog items: %w", err)
	}

	for i := range items {
		items[i] = normalize(items[i])
	}
	r.logger.Debug("catalog items loaded", zap.Int("count", len(items)))
	return items, nil
}

// List implements catalog.Lister.
func (r *CatalogRepository) List(ctx context.Context) ([]models.ItemReference, error) {
	return r.LoadItems(ctx)
}

// Close closes the MongoDB connection.
func (r *CatalogRepository) Close(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Disconnect(ctx)
}

func normalize(item models.ItemReference) models.ItemReference {
	item.Identifier = strings.TrimSpace(item.Identifier)
	item.DisplayName = strings.TrimSpace(item.DisplayName)
	if item.KnownQuantity < 0 {
		item.KnownQuantity = 0
	}
	return item
}
