package domain

import (
	"ptcg-tracker/internal/slug"
	"ptcg-tracker/internal/stats"
)

const (
	SourceLive     = "live"
	SourcePhysical = "physical"
)

// GameResult is one game of a best-of-three inside a physical round.
// Order records who went first (1 or 2).
type GameResult struct {
	Result string `bson:"result" json:"result"`
	Order  int    `bson:"order,omitempty" json:"order,omitempty"`
}

// Round is one pairing inside a physical event. Rounds only exist as part
// of their parent event; deleting the event deletes them.
type Round struct {
	Opponent        string       `bson:"opponent" json:"opponent"`
	OpponentDeck    string       `bson:"opponentDeck,omitempty" json:"opponentDeck,omitempty"`
	Games           []GameResult `bson:"games,omitempty" json:"games,omitempty"`
	NoShow          bool         `bson:"noShow,omitempty" json:"noShow,omitempty"`
	Bye             bool         `bson:"bye,omitempty" json:"bye,omitempty"`
	IntentionalDraw bool         `bson:"id,omitempty" json:"id,omitempty"`
}

// Result derives the round outcome: byes and no-shows count as wins,
// intentional draws as ties, otherwise whoever took more games.
// A round with no games and no flags yields "".
func (r Round) Result() string {
	if r.Bye || r.NoShow {
		return "W"
	}
	if r.IntentionalDraw {
		return "T"
	}
	var won, lost int
	for _, g := range r.Games {
		c := stats.FromResult(g.Result)
		won += c.W
		lost += c.L
	}
	switch {
	case won == 0 && lost == 0 && len(r.Games) == 0:
		return ""
	case won > lost:
		return "W"
	case lost > won:
		return "L"
	}
	return "T"
}

// LegacyStats is the nested stats shape some older records were written
// with, either holding its own counts object or being one inline.
type LegacyStats struct {
	Counts *stats.Counts `bson:"counts,omitempty" json:"counts,omitempty"`
	W      int           `bson:"W,omitempty" json:"W,omitempty"`
	L      int           `bson:"L,omitempty" json:"L,omitempty"`
	T      int           `bson:"T,omitempty" json:"T,omitempty"`
}

// MatchRecord is the unit of truth: one document per played match (live)
// or per event (physical, with nested rounds).
type MatchRecord struct {
	EventID   string `bson:"eventId" json:"eventId"`
	Source    string `bson:"source" json:"source"`
	CreatedAt int64  `bson:"createdAt" json:"createdAt"`
	UpdatedAt int64  `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
	Date      string `bson:"date" json:"date"`

	You      string `bson:"you,omitempty" json:"you,omitempty"`
	Opponent string `bson:"opponent,omitempty" json:"opponent,omitempty"`

	DeckName        string `bson:"deckName,omitempty" json:"deckName,omitempty"`
	OpponentDeck    string `bson:"opponentDeck,omitempty" json:"opponentDeck,omitempty"`
	PlayerDeckKey   string `bson:"playerDeckKey,omitempty" json:"playerDeckKey,omitempty"`
	OpponentDeckKey string `bson:"opponentDeckKey,omitempty" json:"opponentDeckKey,omitempty"`

	Result  string   `bson:"result,omitempty" json:"result,omitempty"`
	Results []string `bson:"results,omitempty" json:"results,omitempty"`

	Pokemons         []string `bson:"pokemons,omitempty" json:"pokemons,omitempty"`
	OpponentPokemons []string `bson:"opponentPokemons,omitempty" json:"opponentPokemons,omitempty"`

	TournamentID string `bson:"tournamentId,omitempty" json:"tournamentId,omitempty"`
	Round        string `bson:"round,omitempty" json:"round,omitempty"`
	Placement    string `bson:"placement,omitempty" json:"placement,omitempty"`
	TourneyName  string `bson:"tourneyName,omitempty" json:"tourneyName,omitempty"`
	LimitlessID  string `bson:"limitlessId,omitempty" json:"limitlessId,omitempty"`
	Format       string `bson:"format,omitempty" json:"format,omitempty"`
	RoundsCount  int    `bson:"roundsCount,omitempty" json:"roundsCount,omitempty"`

	RawLogID string `bson:"rawLogId,omitempty" json:"rawLogId,omitempty"`
	Lang     string `bson:"lang,omitempty" json:"lang,omitempty"`

	// Physical events nest their rounds; OpponentKeys is the derived
	// membership index so the store can match an event by any opponent
	// faced anywhere inside it.
	Rounds       []Round  `bson:"rounds,omitempty" json:"rounds,omitempty"`
	OpponentKey  string   `bson:"opponentKey,omitempty" json:"opponentKey,omitempty"`
	OpponentKeys []string `bson:"opponentKeys,omitempty" json:"opponentKeys,omitempty"`

	// Legacy shapes still found on old documents, consumed through
	// stats.Resolve only.
	Counts      *stats.Counts `bson:"counts,omitempty" json:"counts,omitempty"`
	LegacyStats *LegacyStats  `bson:"stats,omitempty" json:"stats,omitempty"`
}

// CountsSource exposes every counts shape this record may carry, in the
// resolver's priority order.
func (r MatchRecord) CountsSource() stats.Source {
	src := stats.Source{
		Counts:  r.Counts,
		Results: r.Results,
		Result:  r.Result,
	}
	if r.LegacyStats != nil {
		src.StatsCounts = r.LegacyStats.Counts
		if r.LegacyStats.W+r.LegacyStats.L+r.LegacyStats.T > 0 {
			src.Stats = &stats.Counts{W: r.LegacyStats.W, L: r.LegacyStats.L, T: r.LegacyStats.T}
		}
	}
	return src
}

// GameCounts resolves this record's folded win/loss/tie counts. Physical
// events with rounds fold every round result; everything else goes through
// the legacy-shape resolver.
func (r MatchRecord) GameCounts() stats.Counts {
	if len(r.Rounds) > 0 {
		var c stats.Counts
		for _, rd := range r.Rounds {
			c = stats.Add(c, stats.FromResult(rd.Result()))
		}
		return c
	}
	return stats.Resolve(r.CountsSource())
}

// AllOpponentKeys returns every normalized opponent this record mentions:
// the top-level opponent plus each round opponent, deduplicated,
// first-seen order.
func (r MatchRecord) AllOpponentKeys() []string {
	seen := make(map[string]bool)
	var keys []string
	add := func(name string) {
		k := slug.NormalizeName(name)
		if k == "" || seen[k] {
			return
		}
		seen[k] = true
		keys = append(keys, k)
	}
	add(r.Opponent)
	for _, rd := range r.Rounds {
		add(rd.Opponent)
	}
	return keys
}

// DayAggregate, DeckAggregate, OpponentAggregate and TournamentAggregate
// are pure projections over MatchRecords. They are always safe to delete
// and regenerate; nothing writes them except the recompute engine.

type DayAggregate struct {
	Date   string       `bson:"date" json:"date"`
	Counts stats.Counts `bson:"counts" json:"counts"`
	WR     float64      `bson:"wr" json:"wr"`
}

type DeckAggregate struct {
	DeckKey  string       `bson:"deckKey" json:"deckKey"`
	Games    int          `bson:"games" json:"games"`
	Counts   stats.Counts `bson:"counts" json:"counts"`
	WR       float64      `bson:"wr" json:"wr"`
	Pokemons []string     `bson:"pokemons" json:"pokemons"`
}

type OpponentAggregate struct {
	OpponentKey  string       `bson:"opponentKey" json:"opponentKey"`
	OpponentName string       `bson:"opponentName" json:"opponentName"`
	Counts       stats.Counts `bson:"counts" json:"counts"`
	WR           float64      `bson:"wr" json:"wr"`
	Games        int          `bson:"games" json:"games"`
	Total        int          `bson:"total" json:"total"`
	TopDeckKey   string       `bson:"topDeckKey,omitempty" json:"topDeckKey,omitempty"`
	TopDeckName  string       `bson:"topDeckName,omitempty" json:"topDeckName,omitempty"`
	TopPokemons  []string     `bson:"topPokemons,omitempty" json:"topPokemons,omitempty"`
}

type TournamentDeck struct {
	DeckKey string       `bson:"deckKey" json:"deckKey"`
	Counts  stats.Counts `bson:"counts" json:"counts"`
	Games   int          `bson:"games" json:"games"`
	WR      float64      `bson:"wr" json:"wr"`
}

type TournamentAggregate struct {
	TournamentID string           `bson:"tournamentId" json:"tournamentId"`
	Name         string           `bson:"name" json:"name"`
	DateISO      string           `bson:"dateISO" json:"dateISO"`
	Format       string           `bson:"format,omitempty" json:"format,omitempty"`
	RoundsCount  int              `bson:"roundsCount" json:"roundsCount"`
	Counts       stats.Counts     `bson:"counts" json:"counts"`
	WR           float64          `bson:"wr" json:"wr"`
	Decks        []TournamentDeck `bson:"decks" json:"decks"`
}

// DeckCatalogEntry is the curated deck-catalog document consulted for a
// deck's representative Pokémon.
type DeckCatalogEntry struct {
	DeckKey  string   `bson:"deckKey" json:"deckKey"`
	Name     string   `bson:"name,omitempty" json:"name,omitempty"`
	Pokemons []string `bson:"pokemons,omitempty" json:"pokemons,omitempty"`
}

// RawLog stores pasted match-log text for live records.
type RawLog struct {
	ID        string `bson:"id" json:"id"`
	Text      string `bson:"text" json:"text"`
	CreatedAt int64  `bson:"createdAt" json:"createdAt"`
}
