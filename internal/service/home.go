package service

import (
	"context"
	"sort"

	"ptcg-tracker/internal/constants"
	"ptcg-tracker/internal/domain"
	"ptcg-tracker/internal/stats"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// SummarySource reads the precomputed aggregates of one match source.
type SummarySource interface {
	Days(ctx context.Context) ([]domain.DayAggregate, error)
	TopDecks(ctx context.Context, limit int) ([]domain.DeckAggregate, error)
	TopOpponents(ctx context.Context, limit int) ([]domain.OpponentAggregate, error)
	RecentTournaments(ctx context.Context, limit int) ([]domain.TournamentAggregate, error)
	RecentEvents(ctx context.Context, limit int) ([]domain.MatchRecord, error)
}

type HeadlineEvent struct {
	EventID string `json:"eventId"`
	Title   string `json:"title,omitempty"`
}

type DayEntry struct {
	Date     string         `json:"date"`
	Counts   stats.Counts   `json:"counts"`
	WR       float64        `json:"wr"`
	Headline *HeadlineEvent `json:"headline,omitempty"`
}

type DeckEntry struct {
	DeckKey  string       `json:"deckKey"`
	Counts   stats.Counts `json:"counts"`
	WR       float64      `json:"wr"`
	Games    int          `json:"games"`
	Pokemons []string     `json:"pokemons,omitempty"`
}

type OpponentTopDeck struct {
	DeckKey  string   `json:"deckKey,omitempty"`
	DeckName string   `json:"deckName,omitempty"`
	Pokemons []string `json:"pokemons,omitempty"`
}

type OpponentEntry struct {
	Name    string           `json:"name"`
	Counts  stats.Counts     `json:"counts"`
	WR      float64          `json:"wr"`
	Games   int              `json:"games"`
	TopDeck *OpponentTopDeck `json:"topDeck,omitempty"`
}

type LogEntry struct {
	EventID          string   `json:"eventId"`
	DateISO          string   `json:"dateISO"`
	Source           string   `json:"source"`
	Result           string   `json:"result,omitempty"`
	DeckName         string   `json:"deckName,omitempty"`
	Opponent         string   `json:"opponent,omitempty"`
	Pokemons         []string `json:"pokemons,omitempty"`
	OpponentPokemons []string `json:"opponentPokemons,omitempty"`
}

type SummaryBlock struct {
	Counts  stats.Counts `json:"counts"`
	WR      float64      `json:"wr"`
	TopDeck *DeckEntry   `json:"topDeck,omitempty"`
}

type HomeSummary struct {
	Summary           SummaryBlock                 `json:"summary"`
	LastDays          []DayEntry                   `json:"lastDays"`
	TopDecks          []DeckEntry                  `json:"topDecks"`
	TopOpponents      []OpponentEntry              `json:"topOpponents"`
	RecentTournaments []domain.TournamentAggregate `json:"recentTournaments"`
	RecentLogs        []LogEntry                   `json:"recentLogs"`
}

type HomeService struct {
	live     SummarySource
	physical SummarySource
	logger   zerolog.Logger
}

func NewHomeService(live SummarySource, physical SummarySource, logger zerolog.Logger) *HomeService {
	return &HomeService{live: live, physical: physical, logger: logger}
}

// Overview builds both per-source summaries concurrently and merges
// them. A physical read failure degrades to the live summary alone; a
// live failure is fatal.
func (s *HomeService) Overview(ctx context.Context) (*HomeSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	var live, physical HomeSummary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		built, err := s.buildSummary(gctx, s.live, domain.SourceLive)
		if err != nil {
			return err
		}
		live = built
		return nil
	})
	g.Go(func() error {
		built, err := s.buildSummary(gctx, s.physical, domain.SourcePhysical)
		if err != nil {
			s.logger.Warn().Err(err).Msg("physical summary unavailable, serving live only")
			return nil
		}
		physical = built
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Msg("failed to build home summary")
		return nil, err
	}

	merged := Merge(live, physical)
	return &merged, nil
}

func (s *HomeService) buildSummary(ctx context.Context, src SummarySource, source string) (HomeSummary, error) {
	var (
		days        []domain.DayAggregate
		decks       []domain.DeckAggregate
		opponents   []domain.OpponentAggregate
		tournaments []domain.TournamentAggregate
		events      []domain.MatchRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		days, err = src.Days(gctx)
		return err
	})
	g.Go(func() (err error) {
		decks, err = src.TopDecks(gctx, constants.TopDecksLimit)
		return err
	})
	g.Go(func() (err error) {
		opponents, err = src.TopOpponents(gctx, constants.TopOpponentsLimit)
		return err
	})
	g.Go(func() (err error) {
		tournaments, err = src.RecentTournaments(gctx, constants.RecentTournamentsLimit)
		return err
	})
	g.Go(func() (err error) {
		events, err = src.RecentEvents(gctx, constants.RecentLogsLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return HomeSummary{}, err
	}

	var out HomeSummary

	for _, d := range days {
		out.Summary.Counts = stats.Add(out.Summary.Counts, d.Counts)
	}
	out.Summary.WR = stats.WinRate(out.Summary.Counts)

	for _, d := range decks {
		out.TopDecks = append(out.TopDecks, DeckEntry{
			DeckKey:  d.DeckKey,
			Counts:   d.Counts,
			WR:       d.WR,
			Games:    d.Games,
			Pokemons: d.Pokemons,
		})
	}
	if len(out.TopDecks) > 0 {
		top := out.TopDecks[0]
		out.Summary.TopDeck = &top
	}

	headlines := make(map[string]*HeadlineEvent)
	for _, t := range tournaments {
		if _, ok := headlines[t.DateISO]; !ok {
			headlines[t.DateISO] = &HeadlineEvent{EventID: t.TournamentID, Title: t.Name}
		}
	}
	for i, d := range days {
		if i == constants.LastDaysLimit {
			break
		}
		out.LastDays = append(out.LastDays, DayEntry{
			Date:     d.Date,
			Counts:   d.Counts,
			WR:       d.WR,
			Headline: headlines[d.Date],
		})
	}

	for _, o := range opponents {
		entry := OpponentEntry{
			Name:   o.OpponentName,
			Counts: o.Counts,
			WR:     o.WR,
			Games:  o.Games,
		}
		if o.TopDeckKey != "" || o.TopDeckName != "" || len(o.TopPokemons) > 0 {
			entry.TopDeck = &OpponentTopDeck{
				DeckKey:  o.TopDeckKey,
				DeckName: o.TopDeckName,
				Pokemons: o.TopPokemons,
			}
		}
		out.TopOpponents = append(out.TopOpponents, entry)
	}

	out.RecentTournaments = tournaments

	for _, rec := range events {
		out.RecentLogs = append(out.RecentLogs, LogEntry{
			EventID:          rec.EventID,
			DateISO:          rec.Date,
			Source:           source,
			Result:           rec.Result,
			DeckName:         rec.DeckName,
			Opponent:         rec.Opponent,
			Pokemons:         rec.Pokemons,
			OpponentPokemons: rec.OpponentPokemons,
		})
	}

	return out, nil
}

// Merge combines two per-source summaries into one view. Counts are
// summed and win rates recomputed from the summed counts, never
// averaged. Keyed lists union on their key; recency lists concatenate,
// re-sort and truncate. Inputs are never mutated.
func Merge(a, b HomeSummary) HomeSummary {
	var out HomeSummary

	out.Summary.Counts = stats.Add(a.Summary.Counts, b.Summary.Counts)
	out.Summary.WR = stats.WinRate(out.Summary.Counts)

	out.TopDecks = mergeDecks(a.TopDecks, b.TopDecks)
	if len(out.TopDecks) > 0 {
		top := out.TopDecks[0]
		out.Summary.TopDeck = &top
	}

	out.LastDays = mergeDays(a.LastDays, b.LastDays)
	out.TopOpponents = mergeOpponents(a.TopOpponents, b.TopOpponents)

	for _, t := range append(append([]domain.TournamentAggregate{}, a.RecentTournaments...), b.RecentTournaments...) {
		if t.Decks != nil {
			t.Decks = append([]domain.TournamentDeck{}, t.Decks...)
		}
		out.RecentTournaments = append(out.RecentTournaments, t)
	}
	sort.SliceStable(out.RecentTournaments, func(i, j int) bool {
		return out.RecentTournaments[i].DateISO > out.RecentTournaments[j].DateISO
	})
	out.RecentTournaments = truncateTournaments(out.RecentTournaments, constants.RecentTournamentsLimit)

	for _, log := range append(append([]LogEntry{}, a.RecentLogs...), b.RecentLogs...) {
		log.Pokemons = cloneStrings(log.Pokemons)
		log.OpponentPokemons = cloneStrings(log.OpponentPokemons)
		out.RecentLogs = append(out.RecentLogs, log)
	}
	sort.SliceStable(out.RecentLogs, func(i, j int) bool {
		return out.RecentLogs[i].DateISO > out.RecentLogs[j].DateISO
	})
	if len(out.RecentLogs) > constants.RecentLogsLimit {
		out.RecentLogs = out.RecentLogs[:constants.RecentLogsLimit]
	}

	return out
}

func mergeDays(a, b []DayEntry) []DayEntry {
	byDate := make(map[string]*DayEntry)
	var order []string
	for _, list := range [][]DayEntry{a, b} {
		for _, d := range list {
			e, ok := byDate[d.Date]
			if !ok {
				e = &DayEntry{Date: d.Date}
				byDate[d.Date] = e
				order = append(order, d.Date)
			}
			e.Counts = stats.Add(e.Counts, d.Counts)
			if e.Headline == nil && d.Headline != nil {
				h := *d.Headline
				e.Headline = &h
			}
		}
	}

	out := make([]DayEntry, 0, len(order))
	for _, date := range order {
		e := byDate[date]
		e.WR = stats.WinRate(e.Counts)
		out = append(out, *e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	if len(out) > constants.LastDaysLimit {
		out = out[:constants.LastDaysLimit]
	}
	return out
}

func mergeDecks(a, b []DeckEntry) []DeckEntry {
	byKey := make(map[string]*DeckEntry)
	var order []string
	for _, list := range [][]DeckEntry{a, b} {
		for _, d := range list {
			e, ok := byKey[d.DeckKey]
			if !ok {
				e = &DeckEntry{DeckKey: d.DeckKey}
				byKey[d.DeckKey] = e
				order = append(order, d.DeckKey)
			}
			e.Counts = stats.Add(e.Counts, d.Counts)
			e.Games += d.Games
			if len(e.Pokemons) == 0 {
				e.Pokemons = cloneStrings(d.Pokemons)
			}
		}
	}

	out := make([]DeckEntry, 0, len(order))
	for _, key := range order {
		e := byKey[key]
		e.WR = stats.WinRate(e.Counts)
		out = append(out, *e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].WR != out[j].WR {
			return out[i].WR > out[j].WR
		}
		return out[i].Games > out[j].Games
	})
	if len(out) > constants.TopDecksLimit {
		out = out[:constants.TopDecksLimit]
	}
	return out
}

func mergeOpponents(a, b []OpponentEntry) []OpponentEntry {
	byName := make(map[string]*OpponentEntry)
	var order []string
	for _, list := range [][]OpponentEntry{a, b} {
		for _, o := range list {
			e, ok := byName[o.Name]
			if !ok {
				e = &OpponentEntry{Name: o.Name}
				byName[o.Name] = e
				order = append(order, o.Name)
			}
			e.Counts = stats.Add(e.Counts, o.Counts)
			e.Games += o.Games
			if e.TopDeck == nil && o.TopDeck != nil {
				td := *o.TopDeck
				td.Pokemons = cloneStrings(td.Pokemons)
				e.TopDeck = &td
			}
		}
	}

	out := make([]OpponentEntry, 0, len(order))
	for _, name := range order {
		e := byName[name]
		e.WR = stats.WinRate(e.Counts)
		out = append(out, *e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Games != out[j].Games {
			return out[i].Games > out[j].Games
		}
		return out[i].WR > out[j].WR
	})
	if len(out) > constants.TopOpponentsLimit {
		out = out[:constants.TopOpponentsLimit]
	}
	return out
}

func truncateTournaments(ts []domain.TournamentAggregate, n int) []domain.TournamentAggregate {
	if len(ts) > n {
		return ts[:n]
	}
	return ts
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}
