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

// RawLogRepository stores the verbatim log text separately from the
// match records, keyed by its own id.
type RawLogRepository struct {
	col    *mongo.Collection
	logger zerolog.Logger
}

func NewRawLogRepository(db *mongo.Database, logger zerolog.Logger) *RawLogRepository {
	return &RawLogRepository{
		col:    db.Collection(constants.ColRawLogs),
		logger: logger,
	}
}

func (r *RawLogRepository) Put(ctx context.Context, log domain.RawLog) error {
	opts := options.Update().SetUpsert(true)
	if _, err := r.col.UpdateOne(ctx, bson.M{"id": log.ID}, bson.M{"$set": log}, opts); err != nil {
		return fmt.Errorf("failed to store raw log: %w", err)
	}
	return nil
}

func (r *RawLogRepository) Get(ctx context.Context, id string) (*domain.RawLog, error) {
	var log domain.RawLog
	err := r.col.FindOne(ctx, bson.M{"id": id}).Decode(&log)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get raw log: %w", err)
	}
	return &log, nil
}

func (r *RawLogRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.col.DeleteOne(ctx, bson.M{"id": id}); err != nil {
		return fmt.Errorf("failed to delete raw log: %w", err)
	}
	return nil
}
