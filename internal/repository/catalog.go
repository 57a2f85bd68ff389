package repository

import (
	"context"
	"errors"
	"fmt"

	"ptcg-tracker/internal/constants"
	"ptcg-tracker/internal/domain"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DeckCatalogRepository holds curated deck metadata keyed by deck key.
// A missing entry is not an error.
type DeckCatalogRepository struct {
	col    *mongo.Collection
	logger zerolog.Logger
}

func NewDeckCatalogRepository(db *mongo.Database, logger zerolog.Logger) *DeckCatalogRepository {
	return &DeckCatalogRepository{
		col:    db.Collection(constants.ColDeckCatalog),
		logger: logger,
	}
}

func (r *DeckCatalogRepository) Entry(ctx context.Context, deckKey string) (*domain.DeckCatalogEntry, error) {
	var entry domain.DeckCatalogEntry
	err := r.col.FindOne(ctx, bson.M{"deckKey": deckKey}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deck catalog entry: %w", err)
	}
	return &entry, nil
}

func (r *DeckCatalogRepository) Upsert(ctx context.Context, entry domain.DeckCatalogEntry) error {
	opts := options.Update().SetUpsert(true)
	if _, err := r.col.UpdateOne(ctx, bson.M{"deckKey": entry.DeckKey}, bson.M{"$set": entry}, opts); err != nil {
		return fmt.Errorf("failed to upsert deck catalog entry: %w", err)
	}
	return nil
}

func (r *DeckCatalogRepository) List(ctx context.Context) ([]domain.DeckCatalogEntry, error) {
	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query deck catalog: %w", err)
	}
	defer cur.Close(ctx)

	var entries []domain.DeckCatalogEntry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode deck catalog: %w", err)
	}
	return entries, nil
}
