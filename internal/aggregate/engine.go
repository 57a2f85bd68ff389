// Package aggregate maintains the derived day/deck/opponent/tournament
// documents. Every recompute is a full re-scan of the matching records
// folded into one document; nothing is ever patched incrementally, so
// the aggregates cannot drift from the records they project.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"ptcg-tracker/internal/domain"
	"ptcg-tracker/internal/slug"
	"ptcg-tracker/internal/stats"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// EventStore reads the match records of one source.
type EventStore interface {
	ByDate(ctx context.Context, date string) ([]domain.MatchRecord, error)
	ByDeckKey(ctx context.Context, deckKey string) ([]domain.MatchRecord, error)
	ByOpponentKey(ctx context.Context, opponentKey string) ([]domain.MatchRecord, error)
	ByTournament(ctx context.Context, tournamentID string) ([]domain.MatchRecord, error)
}

// AggregateStore owns the derived documents of one source. The engine is
// the only writer.
type AggregateStore interface {
	UpsertDay(ctx context.Context, agg domain.DayAggregate) error
	DeleteDay(ctx context.Context, date string) error
	UpsertDeck(ctx context.Context, agg domain.DeckAggregate) error
	DeleteDeck(ctx context.Context, deckKey string) error
	UpsertOpponent(ctx context.Context, agg domain.OpponentAggregate) error
	DeleteOpponent(ctx context.Context, opponentKey string) error
	UpsertTournament(ctx context.Context, agg domain.TournamentAggregate) error
	DeleteTournament(ctx context.Context, tournamentID string) error
}

// DeckCatalog looks up curated deck metadata. A lookup failure only
// costs the enrichment, never the aggregate write.
type DeckCatalog interface {
	Entry(ctx context.Context, deckKey string) (*domain.DeckCatalogEntry, error)
}

type Engine struct {
	source  string
	events  EventStore
	aggs    AggregateStore
	catalog DeckCatalog
	logger  zerolog.Logger
}

func NewEngine(source string, events EventStore, aggs AggregateStore, catalog DeckCatalog, logger zerolog.Logger) *Engine {
	return &Engine{
		source:  source,
		events:  events,
		aggs:    aggs,
		catalog: catalog,
		logger:  logger.With().Str("source", source).Logger(),
	}
}

// Dimensions is the set of aggregate bucket values one or more records
// touch.
type Dimensions struct {
	Dates       []string
	DeckKeys    []string
	Opponents   []string
	Tournaments []string
}

func DimensionsOf(recs ...domain.MatchRecord) Dimensions {
	var d Dimensions
	seen := make(map[string]bool)
	add := func(list *[]string, kind, v string) {
		if v == "" || seen[kind+":"+v] {
			return
		}
		seen[kind+":"+v] = true
		*list = append(*list, v)
	}
	for _, rec := range recs {
		add(&d.Dates, "date", rec.Date)
		add(&d.DeckKeys, "deck", rec.PlayerDeckKey)
		for _, k := range rec.AllOpponentKeys() {
			add(&d.Opponents, "opp", k)
		}
		add(&d.Tournaments, "tour", rec.TournamentID)
	}
	return d
}

// RecomputeForEvent refreshes every aggregate bucket a single record
// belongs to, typically right after a create or delete.
func (e *Engine) RecomputeForEvent(ctx context.Context, rec domain.MatchRecord) error {
	return e.Recompute(ctx, DimensionsOf(rec))
}

// RecomputeForChange refreshes the union of the buckets a record touched
// before and after a mutation: an edit that moves a record between
// buckets must refresh both, since the old one may now be empty.
func (e *Engine) RecomputeForChange(ctx context.Context, before, after domain.MatchRecord) error {
	return e.Recompute(ctx, DimensionsOf(before, after))
}

// Recompute fans the dimension recomputations out concurrently. Each one
// runs independently: a failing dimension is logged and skipped, and an
// error surfaces only when every dimension failed, which signals the
// store itself is unreachable.
func (e *Engine) Recompute(ctx context.Context, dims Dimensions) error {
	type task struct {
		name string
		run  func(context.Context) error
	}
	var tasks []task
	for _, date := range dims.Dates {
		date := date
		tasks = append(tasks, task{"day:" + date, func(ctx context.Context) error { return e.RecomputeDay(ctx, date) }})
	}
	for _, key := range dims.DeckKeys {
		key := key
		tasks = append(tasks, task{"deck:" + key, func(ctx context.Context) error { return e.RecomputeDeck(ctx, key) }})
	}
	for _, opp := range dims.Opponents {
		opp := opp
		tasks = append(tasks, task{"opponent:" + opp, func(ctx context.Context) error { return e.RecomputeOpponent(ctx, opp) }})
	}
	for _, id := range dims.Tournaments {
		id := id
		tasks = append(tasks, task{"tournament:" + id, func(ctx context.Context) error { return e.RecomputeTournament(ctx, id) }})
	}
	if len(tasks) == 0 {
		return nil
	}

	var (
		mu       sync.Mutex
		failures []error
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		t := t
		g.Go(func() error {
			if err := t.run(gctx); err != nil {
				e.logger.Error().Err(err).Str("dimension", t.name).Msg("aggregate recompute failed")
				mu.Lock()
				failures = append(failures, fmt.Errorf("%s: %w", t.name, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failures) == len(tasks) {
		return fmt.Errorf("all aggregate recomputations failed: %w", errors.Join(failures...))
	}
	return nil
}

// RecomputeDay rebuilds the day bucket from scratch, removing it when no
// record references the date anymore.
func (e *Engine) RecomputeDay(ctx context.Context, date string) error {
	recs, err := e.events.ByDate(ctx, date)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return e.aggs.DeleteDay(ctx, date)
	}
	var total stats.Counts
	for _, rec := range recs {
		total = stats.Add(total, rec.GameCounts())
	}
	return e.aggs.UpsertDay(ctx, domain.DayAggregate{
		Date:   date,
		Counts: total,
		WR:     stats.WinRate(total),
	})
}

// RecomputeDeck rebuilds one deck bucket. Representative Pokémon come
// from the deck catalog when it has an entry, otherwise from the union
// of the matching records' own pokemons, first seen first.
func (e *Engine) RecomputeDeck(ctx context.Context, deckKey string) error {
	recs, err := e.events.ByDeckKey(ctx, deckKey)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return e.aggs.DeleteDeck(ctx, deckKey)
	}

	var total stats.Counts
	for _, rec := range recs {
		total = stats.Add(total, rec.GameCounts())
	}

	pokemons := e.catalogPokemons(ctx, deckKey)
	if len(pokemons) == 0 {
		pokemons = representedPokemons(recs)
	}

	return e.aggs.UpsertDeck(ctx, domain.DeckAggregate{
		DeckKey:  deckKey,
		Games:    total.Total(),
		Counts:   total,
		WR:       stats.WinRate(total),
		Pokemons: pokemons,
	})
}

func (e *Engine) catalogPokemons(ctx context.Context, deckKey string) []string {
	if e.catalog == nil {
		return nil
	}
	entry, err := e.catalog.Entry(ctx, deckKey)
	if err != nil {
		e.logger.Warn().Err(err).Str("deckKey", deckKey).Msg("deck catalog lookup failed, falling back to record pokemons")
		return nil
	}
	if entry == nil {
		return nil
	}
	return capSlice(entry.Pokemons, 2)
}

func representedPokemons(recs []domain.MatchRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, rec := range recs {
		for _, p := range rec.Pokemons {
			if p == "" || seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
			if len(out) == 2 {
				return out
			}
		}
	}
	return out
}

// RecomputeTournament rebuilds one tournament bucket, including the
// per-deck breakdown and the display metadata taken from a single
// reference record.
func (e *Engine) RecomputeTournament(ctx context.Context, tournamentID string) error {
	recs, err := e.events.ByTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return e.aggs.DeleteTournament(ctx, tournamentID)
	}

	var total stats.Counts
	roundsCount := 0
	deckCounts := make(map[string]stats.Counts)
	var deckOrder []string
	ref := recs[0]

	for i, rec := range recs {
		c := rec.GameCounts()
		total = stats.Add(total, c)
		if len(rec.Rounds) > 0 {
			roundsCount += len(rec.Rounds)
		} else {
			roundsCount++
		}
		if _, ok := deckCounts[rec.PlayerDeckKey]; !ok {
			deckOrder = append(deckOrder, rec.PlayerDeckKey)
		}
		deckCounts[rec.PlayerDeckKey] = stats.Add(deckCounts[rec.PlayerDeckKey], c)
		if i > 0 {
			ref = betterReference(ref, rec)
		}
	}

	decks := make([]domain.TournamentDeck, 0, len(deckOrder))
	for _, key := range deckOrder {
		c := deckCounts[key]
		decks = append(decks, domain.TournamentDeck{
			DeckKey: key,
			Counts:  c,
			Games:   c.Total(),
			WR:      stats.WinRate(c),
		})
	}
	sortTournamentDecks(decks)

	return e.aggs.UpsertTournament(ctx, domain.TournamentAggregate{
		TournamentID: tournamentID,
		Name:         ref.TourneyName,
		DateISO:      ref.Date,
		Format:       ref.Format,
		RoundsCount:  roundsCount,
		Counts:       total,
		WR:           stats.WinRate(total),
		Decks:        decks,
	})
}

// betterReference picks which record supplies tournament display
// metadata: higher declared rounds count wins, then the most recent
// timestamp, checking updatedAt, createdAt and the date key in turn.
func betterReference(a, b domain.MatchRecord) domain.MatchRecord {
	if a.RoundsCount != b.RoundsCount {
		if a.RoundsCount > b.RoundsCount {
			return a
		}
		return b
	}
	if a.UpdatedAt != b.UpdatedAt {
		if a.UpdatedAt > b.UpdatedAt {
			return a
		}
		return b
	}
	if a.CreatedAt != b.CreatedAt {
		if a.CreatedAt > b.CreatedAt {
			return a
		}
		return b
	}
	if a.Date != b.Date && b.Date > a.Date {
		return b
	}
	return a
}

// RecomputeOpponent rebuilds one opponent bucket. Physical events nest
// rounds against many opponents, so a record counts only through the
// rounds that actually name this opponent; flat records count through
// the legacy resolver.
func (e *Engine) RecomputeOpponent(ctx context.Context, opponentKey string) error {
	recs, err := e.events.ByOpponentKey(ctx, opponentKey)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return e.aggs.DeleteOpponent(ctx, opponentKey)
	}

	var total stats.Counts
	displayName := ""
	tallies := make(map[string]*deckFaced)
	var tallyOrder []string

	note := func(identity deckFaced, c stats.Counts, games int) {
		total = stats.Add(total, c)
		id := identity.key()
		t, ok := tallies[id]
		if !ok {
			t = &identity
			tallies[id] = t
			tallyOrder = append(tallyOrder, id)
		}
		t.games += games
		if len(t.pokemons) == 0 {
			t.pokemons = identity.pokemons
		}
	}

	for _, rec := range recs {
		if len(rec.Rounds) > 0 {
			matched := false
			for _, rd := range rec.Rounds {
				if slug.NormalizeName(rd.Opponent) != opponentKey {
					continue
				}
				matched = true
				if displayName == "" {
					displayName = rd.Opponent
				}
				c := stats.FromResult(rd.Result())
				note(deckFaced{deckName: rd.OpponentDeck}, c, 1)
			}
			if !matched && slug.NormalizeName(rec.Opponent) == opponentKey {
				// Indexed by the top-level opponent only. The rounds
				// carry other names, so the result against this one is
				// unknown; still a game faced.
				if displayName == "" {
					displayName = rec.Opponent
				}
				note(deckFaced{
					deckKey:  rec.OpponentDeckKey,
					deckName: rec.OpponentDeck,
					pokemons: capSlice(rec.OpponentPokemons, 2),
				}, stats.Counts{}, 1)
			}
			continue
		}
		if slug.NormalizeName(rec.Opponent) != opponentKey {
			continue
		}
		if displayName == "" {
			displayName = rec.Opponent
		}
		c := rec.GameCounts()
		games := c.Total()
		if games == 0 {
			// a pending result is still a game faced
			games = 1
		}
		note(deckFaced{
			deckKey:  rec.OpponentDeckKey,
			deckName: rec.OpponentDeck,
			pokemons: capSlice(rec.OpponentPokemons, 2),
		}, c, games)
	}

	// Nothing in the fold named this opponent: keep the bucket empty
	// instead of persisting a zero-evidence document.
	if len(tallyOrder) == 0 {
		return e.aggs.DeleteOpponent(ctx, opponentKey)
	}

	top := topDeckFaced(tallies, tallyOrder)

	agg := domain.OpponentAggregate{
		OpponentKey:  opponentKey,
		OpponentName: displayName,
		Counts:       total,
		WR:           stats.WinRate(total),
		Games:        total.Total(),
		Total:        total.Total(),
	}
	if top != nil {
		agg.TopDeckKey = top.deckKey
		agg.TopDeckName = top.deckName
		agg.TopPokemons = top.pokemons
	}
	return e.aggs.UpsertOpponent(ctx, agg)
}

// deckFaced is one opponent-deck identity seen across the matches
// against a single opponent.
type deckFaced struct {
	deckKey  string
	deckName string
	pokemons []string
	games    int
}

func (d deckFaced) key() string {
	switch {
	case d.deckKey != "":
		return "key:" + d.deckKey
	case d.deckName != "":
		return "name:" + slug.NormalizeName(d.deckName)
	case len(d.pokemons) > 0:
		return "poke:" + strings.Join(d.pokemons, "+")
	}
	return "unknown"
}

// topDeckFaced returns the identity with the most games; among equals
// one with a deck key beats one without.
func topDeckFaced(tallies map[string]*deckFaced, order []string) *deckFaced {
	var top *deckFaced
	for _, id := range order {
		t := tallies[id]
		if top == nil || t.games > top.games {
			top = t
			continue
		}
		if t.games == top.games && top.deckKey == "" && t.deckKey != "" {
			top = t
		}
	}
	return top
}

func sortTournamentDecks(decks []domain.TournamentDeck) {
	sort.SliceStable(decks, func(i, j int) bool {
		if decks[i].Games != decks[j].Games {
			return decks[i].Games > decks[j].Games
		}
		return decks[i].DeckKey < decks[j].DeckKey
	})
}

func capSlice(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
