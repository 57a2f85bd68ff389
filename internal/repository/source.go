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

// SourceRepository owns the collections of one match source: the event
// records themselves plus the four derived aggregate collections.
type SourceRepository struct {
	source      string
	events      *mongo.Collection
	days        *mongo.Collection
	decks       *mongo.Collection
	opponents   *mongo.Collection
	tournaments *mongo.Collection
	logger      zerolog.Logger
}

type LiveRepository struct {
	*SourceRepository
}

type PhysicalRepository struct {
	*SourceRepository
}

func NewLiveRepository(db *mongo.Database, logger zerolog.Logger) *LiveRepository {
	return &LiveRepository{&SourceRepository{
		source:      domain.SourceLive,
		events:      db.Collection(constants.ColLiveEvents),
		days:        db.Collection(constants.ColLiveDays),
		decks:       db.Collection(constants.ColLiveDecks),
		opponents:   db.Collection(constants.ColLiveOpponents),
		tournaments: db.Collection(constants.ColLiveTournaments),
		logger:      logger.With().Str("repository", domain.SourceLive).Logger(),
	}}
}

func NewPhysicalRepository(db *mongo.Database, logger zerolog.Logger) *PhysicalRepository {
	return &PhysicalRepository{&SourceRepository{
		source:      domain.SourcePhysical,
		events:      db.Collection(constants.ColPhysicalEvents),
		days:        db.Collection(constants.ColPhysicalDays),
		decks:       db.Collection(constants.ColPhysicalDecks),
		opponents:   db.Collection(constants.ColPhysicalOpponents),
		tournaments: db.Collection(constants.ColPhysicalTournaments),
		logger:      logger.With().Str("repository", domain.SourcePhysical).Logger(),
	}}
}

func (r *SourceRepository) Insert(ctx context.Context, rec domain.MatchRecord) error {
	if _, err := r.events.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func (r *SourceRepository) Replace(ctx context.Context, rec domain.MatchRecord) error {
	res, err := r.events.ReplaceOne(ctx, bson.M{"eventId": rec.EventID}, rec)
	if err != nil {
		return fmt.Errorf("failed to replace event: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("event %s not found", rec.EventID)
	}
	return nil
}

func (r *SourceRepository) Delete(ctx context.Context, eventID string) error {
	if _, err := r.events.DeleteOne(ctx, bson.M{"eventId": eventID}); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

func (r *SourceRepository) GetByEventID(ctx context.Context, eventID string) (*domain.MatchRecord, error) {
	var rec domain.MatchRecord
	err := r.events.FindOne(ctx, bson.M{"eventId": eventID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &rec, nil
}

func (r *SourceRepository) ByDate(ctx context.Context, date string) ([]domain.MatchRecord, error) {
	return r.findEvents(ctx, bson.M{"date": date}, nil)
}

func (r *SourceRepository) ByDeckKey(ctx context.Context, deckKey string) ([]domain.MatchRecord, error) {
	return r.findEvents(ctx, bson.M{"playerDeckKey": deckKey}, nil)
}

// ByOpponentKey matches both the flat opponent key and the per-round
// keys of nested physical records.
func (r *SourceRepository) ByOpponentKey(ctx context.Context, opponentKey string) ([]domain.MatchRecord, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"opponentKey": opponentKey},
		bson.M{"opponentKeys": opponentKey},
	}}
	return r.findEvents(ctx, filter, nil)
}

func (r *SourceRepository) ByTournament(ctx context.Context, tournamentID string) ([]domain.MatchRecord, error) {
	return r.findEvents(ctx, bson.M{"tournamentId": tournamentID}, nil)
}

func (r *SourceRepository) RecentEvents(ctx context.Context, limit int) ([]domain.MatchRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	return r.findEvents(ctx, bson.M{}, opts)
}

func (r *SourceRepository) findEvents(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.MatchRecord, error) {
	var cur *mongo.Cursor
	var err error
	if opts != nil {
		cur, err = r.events.Find(ctx, filter, opts)
	} else {
		cur, err = r.events.Find(ctx, filter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer cur.Close(ctx)

	var recs []domain.MatchRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return recs, nil
}

func (r *SourceRepository) UpsertDay(ctx context.Context, agg domain.DayAggregate) error {
	return r.upsert(ctx, r.days, bson.M{"date": agg.Date}, agg)
}

func (r *SourceRepository) DeleteDay(ctx context.Context, date string) error {
	return r.deleteAgg(ctx, r.days, bson.M{"date": date})
}

func (r *SourceRepository) UpsertDeck(ctx context.Context, agg domain.DeckAggregate) error {
	return r.upsert(ctx, r.decks, bson.M{"deckKey": agg.DeckKey}, agg)
}

func (r *SourceRepository) DeleteDeck(ctx context.Context, deckKey string) error {
	return r.deleteAgg(ctx, r.decks, bson.M{"deckKey": deckKey})
}

func (r *SourceRepository) UpsertOpponent(ctx context.Context, agg domain.OpponentAggregate) error {
	return r.upsert(ctx, r.opponents, bson.M{"opponentKey": agg.OpponentKey}, agg)
}

func (r *SourceRepository) DeleteOpponent(ctx context.Context, opponentKey string) error {
	return r.deleteAgg(ctx, r.opponents, bson.M{"opponentKey": opponentKey})
}

func (r *SourceRepository) UpsertTournament(ctx context.Context, agg domain.TournamentAggregate) error {
	return r.upsert(ctx, r.tournaments, bson.M{"tournamentId": agg.TournamentID}, agg)
}

func (r *SourceRepository) DeleteTournament(ctx context.Context, tournamentID string) error {
	return r.deleteAgg(ctx, r.tournaments, bson.M{"tournamentId": tournamentID})
}

func (r *SourceRepository) upsert(ctx context.Context, col *mongo.Collection, filter bson.M, doc any) error {
	opts := options.Update().SetUpsert(true)
	if _, err := col.UpdateOne(ctx, filter, bson.M{"$set": doc}, opts); err != nil {
		return fmt.Errorf("failed to upsert %s aggregate: %w", col.Name(), err)
	}
	return nil
}

func (r *SourceRepository) deleteAgg(ctx context.Context, col *mongo.Collection, filter bson.M) error {
	if _, err := col.DeleteOne(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete %s aggregate: %w", col.Name(), err)
	}
	return nil
}

// Days returns every day aggregate, most recent date first.
func (r *SourceRepository) Days(ctx context.Context) ([]domain.DayAggregate, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cur, err := r.days.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query days: %w", err)
	}
	defer cur.Close(ctx)

	var aggs []domain.DayAggregate
	if err := cur.All(ctx, &aggs); err != nil {
		return nil, fmt.Errorf("failed to decode days: %w", err)
	}
	return aggs, nil
}

func (r *SourceRepository) TopDecks(ctx context.Context, limit int) ([]domain.DeckAggregate, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "wr", Value: -1}, {Key: "games", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.decks.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query decks: %w", err)
	}
	defer cur.Close(ctx)

	var aggs []domain.DeckAggregate
	if err := cur.All(ctx, &aggs); err != nil {
		return nil, fmt.Errorf("failed to decode decks: %w", err)
	}
	return aggs, nil
}

func (r *SourceRepository) TopOpponents(ctx context.Context, limit int) ([]domain.OpponentAggregate, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "games", Value: -1}, {Key: "wr", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.opponents.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query opponents: %w", err)
	}
	defer cur.Close(ctx)

	var aggs []domain.OpponentAggregate
	if err := cur.All(ctx, &aggs); err != nil {
		return nil, fmt.Errorf("failed to decode opponents: %w", err)
	}
	return aggs, nil
}

func (r *SourceRepository) RecentTournaments(ctx context.Context, limit int) ([]domain.TournamentAggregate, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "dateISO", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.tournaments.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments: %w", err)
	}
	defer cur.Close(ctx)

	var aggs []domain.TournamentAggregate
	if err := cur.All(ctx, &aggs); err != nil {
		return nil, fmt.Errorf("failed to decode tournaments: %w", err)
	}
	return aggs, nil
}
