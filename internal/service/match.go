package service

import (
	"context"
	"errors"
	"fmt"

	"ptcg-tracker/internal/aggregate"
	"ptcg-tracker/internal/calendar"
	"ptcg-tracker/internal/constants"
	"ptcg-tracker/internal/domain"
	"ptcg-tracker/internal/matchlog"
	"ptcg-tracker/internal/repository"
	"ptcg-tracker/internal/slug"
	"ptcg-tracker/internal/suggest"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

var ErrMatchNotFound = errors.New("match not found")

// LiveMatchInput carries a live match submission. Every field except
// the raw log is optional; missing fields are prefilled from the parsed
// log when one is present.
type LiveMatchInput struct {
	RawLog           string   `json:"rawLog,omitempty"`
	You              string   `json:"you,omitempty"`
	Opponent         string   `json:"opponent,omitempty"`
	DeckName         string   `json:"deckName,omitempty"`
	OpponentDeck     string   `json:"opponentDeck,omitempty"`
	Result           string   `json:"result,omitempty"`
	Date             string   `json:"date,omitempty"`
	Pokemons         []string `json:"pokemons,omitempty"`
	OpponentPokemons []string `json:"opponentPokemons,omitempty"`
	TournamentID     string   `json:"tournamentId,omitempty"`
	TourneyName      string   `json:"tourneyName,omitempty"`
	Round            string   `json:"round,omitempty"`
	Placement        string   `json:"placement,omitempty"`
	LimitlessID      string   `json:"limitlessId,omitempty"`
}

type PhysicalMatchInput struct {
	Date             string         `json:"date,omitempty"`
	DeckName         string         `json:"deckName,omitempty"`
	Opponent         string         `json:"opponent,omitempty"`
	OpponentDeck     string         `json:"opponentDeck,omitempty"`
	Result           string         `json:"result,omitempty"`
	Pokemons         []string       `json:"pokemons,omitempty"`
	OpponentPokemons []string       `json:"opponentPokemons,omitempty"`
	Rounds           []domain.Round `json:"rounds,omitempty"`
	RoundsCount      int            `json:"roundsCount,omitempty"`
	TournamentID     string         `json:"tournamentId,omitempty"`
	TourneyName      string         `json:"tourneyName,omitempty"`
	Format           string         `json:"format,omitempty"`
	Placement        string         `json:"placement,omitempty"`
}

// ParsePreview is what the log-paste UI shows before the user saves.
type ParsePreview struct {
	Log        matchlog.Result    `json:"log"`
	Suggestion suggest.Suggestion `json:"suggestion"`
}

type MatchService struct {
	live       *repository.LiveRepository
	physical   *repository.PhysicalRepository
	rawLogs    *repository.RawLogRepository
	liveEngine *aggregate.LiveEngine
	physEngine *aggregate.PhysicalEngine
	suggestor  *suggest.Suggestor
	cal        *calendar.Calendar
	logger     zerolog.Logger
}

func NewMatchService(
	live *repository.LiveRepository,
	physical *repository.PhysicalRepository,
	rawLogs *repository.RawLogRepository,
	liveEngine *aggregate.LiveEngine,
	physEngine *aggregate.PhysicalEngine,
	suggestor *suggest.Suggestor,
	cal *calendar.Calendar,
	logger zerolog.Logger,
) *MatchService {
	return &MatchService{
		live:       live,
		physical:   physical,
		rawLogs:    rawLogs,
		liveEngine: liveEngine,
		physEngine: physEngine,
		suggestor:  suggestor,
		cal:        cal,
		logger:     logger,
	}
}

// Preview parses a battle log and suggests decks without persisting
// anything.
func (s *MatchService) Preview(ctx context.Context, raw string) ParsePreview {
	parsed := matchlog.Parse(raw)
	return ParsePreview{
		Log:        parsed,
		Suggestion: s.suggestor.FromParsed(ctx, parsed, raw),
	}
}

func (s *MatchService) CreateLive(ctx context.Context, in LiveMatchInput) (*domain.MatchRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	now := s.cal.Now()
	eventID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate event id: %w", err)
	}

	rec := domain.MatchRecord{
		EventID:          eventID,
		Source:           domain.SourceLive,
		CreatedAt:        now,
		UpdatedAt:        now,
		Date:             in.Date,
		You:              in.You,
		Opponent:         in.Opponent,
		DeckName:         in.DeckName,
		OpponentDeck:     in.OpponentDeck,
		Result:           in.Result,
		Pokemons:         in.Pokemons,
		OpponentPokemons: in.OpponentPokemons,
		TournamentID:     in.TournamentID,
		TourneyName:      in.TourneyName,
		Round:            in.Round,
		Placement:        in.Placement,
		LimitlessID:      in.LimitlessID,
	}
	if rec.Date == "" {
		rec.Date = s.cal.DateKey(now)
	}

	if in.RawLog != "" {
		s.prefillFromLog(ctx, &rec, in.RawLog, now)
	}

	deriveKeys(&rec)

	if err := s.live.Insert(ctx, rec); err != nil {
		s.logger.Error().Err(err).Str("eventId", rec.EventID).Msg("failed to insert live match")
		return nil, err
	}
	s.recompute(ctx, s.liveEngine.Engine, rec)

	s.logger.Info().Str("eventId", rec.EventID).Str("date", rec.Date).Msg("live match created")
	return &rec, nil
}

// prefillFromLog fills the record fields the submission left empty from
// the parsed log and stores the raw text. A raw-log storage failure
// only loses the transcript, never the match.
func (s *MatchService) prefillFromLog(ctx context.Context, rec *domain.MatchRecord, raw string, now int64) {
	parsed := matchlog.Parse(raw)
	sugg := s.suggestor.FromParsed(ctx, parsed, raw)

	if rec.You == "" {
		rec.You = parsed.Players.Player
	}
	if rec.Opponent == "" {
		rec.Opponent = parsed.Players.Opponent
	}
	if rec.DeckName == "" {
		rec.DeckName = sugg.PlayerDeckName
	}
	if rec.OpponentDeck == "" {
		rec.OpponentDeck = sugg.OpponentDeckName
	}
	if len(rec.Pokemons) == 0 {
		rec.Pokemons = sugg.PlayerPokemons
	}
	if len(rec.OpponentPokemons) == 0 {
		rec.OpponentPokemons = sugg.OpponentPokemons
	}
	rec.Lang = parsed.Language

	logID, err := gonanoid.New()
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to generate raw log id")
		return
	}
	if err := s.rawLogs.Put(ctx, domain.RawLog{ID: logID, Text: raw, CreatedAt: now}); err != nil {
		s.logger.Warn().Err(err).Str("eventId", rec.EventID).Msg("failed to store raw log")
		return
	}
	rec.RawLogID = logID
}

func (s *MatchService) UpdateLive(ctx context.Context, eventID string, in LiveMatchInput) (*domain.MatchRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	before, err := s.live.GetByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if before == nil {
		return nil, ErrMatchNotFound
	}

	after := *before
	after.UpdatedAt = s.cal.Now()
	after.You = in.You
	after.Opponent = in.Opponent
	after.DeckName = in.DeckName
	after.OpponentDeck = in.OpponentDeck
	after.Result = in.Result
	after.Pokemons = in.Pokemons
	after.OpponentPokemons = in.OpponentPokemons
	after.TournamentID = in.TournamentID
	after.TourneyName = in.TourneyName
	after.Round = in.Round
	after.Placement = in.Placement
	after.LimitlessID = in.LimitlessID
	if in.Date != "" {
		after.Date = in.Date
	}
	deriveKeys(&after)

	if err := s.live.Replace(ctx, after); err != nil {
		s.logger.Error().Err(err).Str("eventId", eventID).Msg("failed to update live match")
		return nil, err
	}
	s.recomputeChange(ctx, s.liveEngine.Engine, *before, after)

	s.logger.Info().Str("eventId", eventID).Msg("live match updated")
	return &after, nil
}

func (s *MatchService) DeleteLive(ctx context.Context, eventID string) error {
	return s.deleteMatch(ctx, s.live.SourceRepository, s.liveEngine.Engine, eventID)
}

func (s *MatchService) CreatePhysical(ctx context.Context, in PhysicalMatchInput) (*domain.MatchRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	now := s.cal.Now()
	eventID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate event id: %w", err)
	}

	rec := domain.MatchRecord{
		EventID:   eventID,
		Source:    domain.SourcePhysical,
		CreatedAt: now,
		UpdatedAt: now,
		Date:      in.Date,
	}
	if rec.Date == "" {
		rec.Date = s.cal.DateKey(now)
	}
	applyPhysical(&rec, in)

	if err := s.physical.Insert(ctx, rec); err != nil {
		s.logger.Error().Err(err).Str("eventId", rec.EventID).Msg("failed to insert physical match")
		return nil, err
	}
	s.recompute(ctx, s.physEngine.Engine, rec)

	s.logger.Info().Str("eventId", rec.EventID).Str("date", rec.Date).Int("rounds", len(rec.Rounds)).Msg("physical match created")
	return &rec, nil
}

func (s *MatchService) UpdatePhysical(ctx context.Context, eventID string, in PhysicalMatchInput) (*domain.MatchRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	before, err := s.physical.GetByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if before == nil {
		return nil, ErrMatchNotFound
	}

	after := *before
	after.UpdatedAt = s.cal.Now()
	if in.Date != "" {
		after.Date = in.Date
	}
	applyPhysical(&after, in)

	if err := s.physical.Replace(ctx, after); err != nil {
		s.logger.Error().Err(err).Str("eventId", eventID).Msg("failed to update physical match")
		return nil, err
	}
	s.recomputeChange(ctx, s.physEngine.Engine, *before, after)

	s.logger.Info().Str("eventId", eventID).Msg("physical match updated")
	return &after, nil
}

func (s *MatchService) DeletePhysical(ctx context.Context, eventID string) error {
	return s.deleteMatch(ctx, s.physical.SourceRepository, s.physEngine.Engine, eventID)
}

func (s *MatchService) GetLive(ctx context.Context, eventID string) (*domain.MatchRecord, error) {
	return s.getMatch(ctx, s.live.SourceRepository, eventID)
}

func (s *MatchService) GetPhysical(ctx context.Context, eventID string) (*domain.MatchRecord, error) {
	return s.getMatch(ctx, s.physical.SourceRepository, eventID)
}

// RawLog returns the stored transcript behind a match record.
func (s *MatchService) RawLog(ctx context.Context, id string) (*domain.RawLog, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	log, err := s.rawLogs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if log == nil {
		return nil, ErrMatchNotFound
	}
	return log, nil
}

func (s *MatchService) getMatch(ctx context.Context, repo *repository.SourceRepository, eventID string) (*domain.MatchRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	rec, err := repo.GetByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrMatchNotFound
	}
	return rec, nil
}

func (s *MatchService) deleteMatch(ctx context.Context, repo *repository.SourceRepository, engine *aggregate.Engine, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	rec, err := repo.GetByEventID(ctx, eventID)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrMatchNotFound
	}

	if err := repo.Delete(ctx, eventID); err != nil {
		s.logger.Error().Err(err).Str("eventId", eventID).Msg("failed to delete match")
		return err
	}
	if rec.RawLogID != "" {
		if err := s.rawLogs.Delete(ctx, rec.RawLogID); err != nil {
			s.logger.Warn().Err(err).Str("rawLogId", rec.RawLogID).Msg("failed to delete raw log")
		}
	}
	s.recompute(ctx, engine, *rec)

	s.logger.Info().Str("eventId", eventID).Msg("match deleted")
	return nil
}

// recompute refreshes the aggregates a record touches. The record is
// already persisted, so a recompute failure is logged and the save
// still succeeds; the next write to the same buckets repairs them.
func (s *MatchService) recompute(ctx context.Context, engine *aggregate.Engine, rec domain.MatchRecord) {
	if err := engine.RecomputeForEvent(ctx, rec); err != nil {
		s.logger.Error().Err(err).Str("eventId", rec.EventID).Msg("aggregate recompute failed")
	}
}

func (s *MatchService) recomputeChange(ctx context.Context, engine *aggregate.Engine, before, after domain.MatchRecord) {
	if err := engine.RecomputeForChange(ctx, before, after); err != nil {
		s.logger.Error().Err(err).Str("eventId", after.EventID).Msg("aggregate recompute failed")
	}
}

// deriveKeys computes the lookup keys persisted alongside a record so
// the recompute queries stay simple equality filters.
func deriveKeys(rec *domain.MatchRecord) {
	rec.PlayerDeckKey = slug.Make(rec.DeckName)
	rec.OpponentDeckKey = slug.Make(rec.OpponentDeck)
	rec.OpponentKey = slug.NormalizeName(rec.Opponent)
	rec.OpponentKeys = rec.AllOpponentKeys()
}

// applyPhysical copies a physical submission onto a record and derives
// the per-round result tokens and lookup keys.
func applyPhysical(rec *domain.MatchRecord, in PhysicalMatchInput) {
	rec.DeckName = in.DeckName
	rec.Opponent = in.Opponent
	rec.OpponentDeck = in.OpponentDeck
	rec.Result = in.Result
	rec.Pokemons = in.Pokemons
	rec.OpponentPokemons = in.OpponentPokemons
	rec.Rounds = in.Rounds
	rec.TournamentID = in.TournamentID
	rec.TourneyName = in.TourneyName
	rec.Format = in.Format
	rec.Placement = in.Placement

	rec.RoundsCount = in.RoundsCount
	if rec.RoundsCount == 0 {
		rec.RoundsCount = len(in.Rounds)
	}

	rec.Results = nil
	for _, rd := range rec.Rounds {
		if token := rd.Result(); token != "" {
			rec.Results = append(rec.Results, token)
		}
	}

	deriveKeys(rec)
}
