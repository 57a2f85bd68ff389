package database

import (
	"context"
	"fmt"

	"ptcg-tracker/internal/config"
	"ptcg-tracker/internal/constants"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func New(cfg *config.Config, logger zerolog.Logger) (*mongo.Client, error) {
	logger.Info().Str("database", cfg.MongoDatabase).Msg("connecting to mongodb")

	ctx, cancel := context.WithTimeout(context.Background(), constants.DBConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to mongodb")
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		logger.Error().Err(err).Msg("failed to ping mongodb")
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	logger.Info().Msg("mongodb connection established")
	return client, nil
}

func Database(client *mongo.Client, cfg *config.Config) *mongo.Database {
	return client.Database(cfg.MongoDatabase)
}

// EnsureIndexes creates the indexes the recompute and summary queries
// depend on. Creation is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger zerolog.Logger) error {
	event := []mongo.IndexModel{
		{Keys: map[string]int{"eventId": 1}, Options: options.Index().SetUnique(true)},
		{Keys: map[string]int{"date": 1}},
		{Keys: map[string]int{"playerDeckKey": 1}},
		{Keys: map[string]int{"opponentKeys": 1}},
		{Keys: map[string]int{"tournamentId": 1}},
		{Keys: map[string]int{"createdAt": -1}},
	}
	for _, col := range []string{constants.ColLiveEvents, constants.ColPhysicalEvents} {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, event); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", col, err)
		}
	}

	keyed := map[string]string{
		constants.ColLiveDays:            "date",
		constants.ColPhysicalDays:        "date",
		constants.ColLiveDecks:           "deckKey",
		constants.ColPhysicalDecks:       "deckKey",
		constants.ColLiveOpponents:       "opponentKey",
		constants.ColPhysicalOpponents:   "opponentKey",
		constants.ColLiveTournaments:     "tournamentId",
		constants.ColPhysicalTournaments: "tournamentId",
		constants.ColRawLogs:             "id",
		constants.ColDeckCatalog:         "deckKey",
	}
	for col, field := range keyed {
		idx := mongo.IndexModel{Keys: map[string]int{field: 1}, Options: options.Index().SetUnique(true)}
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, []mongo.IndexModel{idx}); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", col, err)
		}
	}

	logger.Info().Msg("mongodb indexes ensured")
	return nil
}
