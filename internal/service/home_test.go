package service

import (
	"context"
	"errors"
	"testing"

	"ptcg-tracker/internal/domain"
	"ptcg-tracker/internal/stats"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeSumsDeckCountsAndRecomputesWinRate(t *testing.T) {
	live := HomeSummary{
		TopDecks: []DeckEntry{
			{DeckKey: "charizard-pidgeot", Counts: stats.Counts{W: 3, L: 1}, WR: 75.0, Games: 4},
		},
	}
	physical := HomeSummary{
		TopDecks: []DeckEntry{
			{DeckKey: "charizard-pidgeot", Counts: stats.Counts{W: 1, T: 1}, WR: 50.0, Games: 2},
		},
	}

	merged := Merge(live, physical)

	require.Len(t, merged.TopDecks, 1)
	deck := merged.TopDecks[0]
	assert.Equal(t, stats.Counts{W: 4, L: 1, T: 1}, deck.Counts)
	assert.Equal(t, 6, deck.Games)
	// 4/6, not the average of 75 and 50
	assert.Equal(t, 66.7, deck.WR)
}

func TestMergeIsCommutativeOnCounts(t *testing.T) {
	a := HomeSummary{
		Summary:  SummaryBlock{Counts: stats.Counts{W: 5, L: 2}},
		TopDecks: []DeckEntry{{DeckKey: "lugia", Counts: stats.Counts{W: 2, L: 2}, Games: 4}},
		LastDays: []DayEntry{{Date: "2024-03-01", Counts: stats.Counts{W: 1}}},
	}
	b := HomeSummary{
		Summary:  SummaryBlock{Counts: stats.Counts{W: 1, L: 1, T: 1}},
		TopDecks: []DeckEntry{{DeckKey: "lugia", Counts: stats.Counts{W: 1}, Games: 1}},
		LastDays: []DayEntry{{Date: "2024-03-01", Counts: stats.Counts{L: 2}}},
	}

	ab := Merge(a, b)
	ba := Merge(b, a)

	assert.Equal(t, ab.Summary.Counts, ba.Summary.Counts)
	assert.Equal(t, ab.Summary.WR, ba.Summary.WR)
	assert.Equal(t, ab.TopDecks[0].Counts, ba.TopDecks[0].Counts)
	assert.Equal(t, ab.LastDays[0].Counts, ba.LastDays[0].Counts)
}

func TestMergeUnionsDaysByDateAndSortsDescending(t *testing.T) {
	live := HomeSummary{LastDays: []DayEntry{
		{Date: "2024-03-02", Counts: stats.Counts{W: 2}},
		{Date: "2024-03-01", Counts: stats.Counts{W: 1, L: 1}},
	}}
	physical := HomeSummary{LastDays: []DayEntry{
		{Date: "2024-03-03", Counts: stats.Counts{L: 1}},
		{Date: "2024-03-01", Counts: stats.Counts{W: 1}},
	}}

	merged := Merge(live, physical)

	require.Len(t, merged.LastDays, 3)
	assert.Equal(t, "2024-03-03", merged.LastDays[0].Date)
	assert.Equal(t, "2024-03-02", merged.LastDays[1].Date)
	assert.Equal(t, "2024-03-01", merged.LastDays[2].Date)
	assert.Equal(t, stats.Counts{W: 2, L: 1}, merged.LastDays[2].Counts)
	assert.Equal(t, 66.7, merged.LastDays[2].WR)
}

func TestMergePrefersFirstHeadline(t *testing.T) {
	live := HomeSummary{LastDays: []DayEntry{
		{Date: "2024-03-01", Headline: &HeadlineEvent{EventID: "t1", Title: "Regional"}},
	}}
	physical := HomeSummary{LastDays: []DayEntry{
		{Date: "2024-03-01", Headline: &HeadlineEvent{EventID: "t2", Title: "League Cup"}},
	}}

	merged := Merge(live, physical)

	require.NotNil(t, merged.LastDays[0].Headline)
	assert.Equal(t, "t1", merged.LastDays[0].Headline.EventID)

	// the merged headline must be a copy, not the input pointer
	merged.LastDays[0].Headline.Title = "changed"
	assert.Equal(t, "Regional", live.LastDays[0].Headline.Title)
}

func TestMergeDoesNotAliasInputSlices(t *testing.T) {
	live := HomeSummary{
		TopDecks: []DeckEntry{
			{DeckKey: "gardevoir", Counts: stats.Counts{W: 1}, Pokemons: []string{"gardevoir", "kirlia"}},
		},
		RecentLogs: []LogEntry{
			{EventID: "e1", DateISO: "2024-03-01", Pokemons: []string{"gardevoir"}},
		},
		RecentTournaments: []domain.TournamentAggregate{
			{TournamentID: "t1", DateISO: "2024-03-01", Decks: []domain.TournamentDeck{{DeckKey: "gardevoir"}}},
		},
	}

	merged := Merge(live, HomeSummary{})

	merged.TopDecks[0].Pokemons[0] = "mutated"
	merged.RecentLogs[0].Pokemons[0] = "mutated"
	merged.RecentTournaments[0].Decks[0].DeckKey = "mutated"
	assert.Equal(t, "gardevoir", live.TopDecks[0].Pokemons[0])
	assert.Equal(t, "gardevoir", live.RecentLogs[0].Pokemons[0])
	assert.Equal(t, "gardevoir", live.RecentTournaments[0].Decks[0].DeckKey)
}

func TestMergeTruncatesRecencyLists(t *testing.T) {
	var live, physical HomeSummary
	for i := 0; i < 8; i++ {
		live.RecentLogs = append(live.RecentLogs, LogEntry{EventID: "l", DateISO: "2024-03-0" + string(rune('1'+i))})
		physical.RecentLogs = append(physical.RecentLogs, LogEntry{EventID: "p", DateISO: "2024-02-0" + string(rune('1'+i))})
	}

	merged := Merge(live, physical)

	require.Len(t, merged.RecentLogs, 10)
	// all live entries are newer, so they sort first
	assert.Equal(t, "l", merged.RecentLogs[0].EventID)
	assert.Equal(t, "2024-03-08", merged.RecentLogs[0].DateISO)
}

func TestMergeTopDeckComesFromMergedList(t *testing.T) {
	live := HomeSummary{TopDecks: []DeckEntry{
		{DeckKey: "miraidon", Counts: stats.Counts{W: 1, L: 1}, Games: 2},
	}}
	physical := HomeSummary{TopDecks: []DeckEntry{
		{DeckKey: "snorlax-stall", Counts: stats.Counts{W: 3}, Games: 3},
	}}

	merged := Merge(live, physical)

	require.NotNil(t, merged.Summary.TopDeck)
	assert.Equal(t, "snorlax-stall", merged.Summary.TopDeck.DeckKey)
}

type fakeSummarySource struct {
	days        []domain.DayAggregate
	decks       []domain.DeckAggregate
	opponents   []domain.OpponentAggregate
	tournaments []domain.TournamentAggregate
	events      []domain.MatchRecord
	err         error
}

func (f *fakeSummarySource) Days(ctx context.Context) ([]domain.DayAggregate, error) {
	return f.days, f.err
}

func (f *fakeSummarySource) TopDecks(ctx context.Context, limit int) ([]domain.DeckAggregate, error) {
	return f.decks, f.err
}

func (f *fakeSummarySource) TopOpponents(ctx context.Context, limit int) ([]domain.OpponentAggregate, error) {
	return f.opponents, f.err
}

func (f *fakeSummarySource) RecentTournaments(ctx context.Context, limit int) ([]domain.TournamentAggregate, error) {
	return f.tournaments, f.err
}

func (f *fakeSummarySource) RecentEvents(ctx context.Context, limit int) ([]domain.MatchRecord, error) {
	return f.events, f.err
}

func TestOverviewCombinesBothSources(t *testing.T) {
	live := &fakeSummarySource{
		days:  []domain.DayAggregate{{Date: "2024-03-02", Counts: stats.Counts{W: 2, L: 1}}},
		decks: []domain.DeckAggregate{{DeckKey: "charizard", Counts: stats.Counts{W: 2, L: 1}, Games: 3, WR: 66.7}},
	}
	physical := &fakeSummarySource{
		days: []domain.DayAggregate{{Date: "2024-03-01", Counts: stats.Counts{W: 1}}},
	}
	svc := NewHomeService(live, physical, zerolog.Nop())

	got, err := svc.Overview(context.Background())

	require.NoError(t, err)
	assert.Equal(t, stats.Counts{W: 3, L: 1}, got.Summary.Counts)
	assert.Equal(t, 75.0, got.Summary.WR)
	require.Len(t, got.LastDays, 2)
	assert.Equal(t, "2024-03-02", got.LastDays[0].Date)
}

func TestOverviewDegradesWhenPhysicalFails(t *testing.T) {
	live := &fakeSummarySource{
		days: []domain.DayAggregate{{Date: "2024-03-02", Counts: stats.Counts{W: 2}}},
	}
	physical := &fakeSummarySource{err: errors.New("store down")}
	svc := NewHomeService(live, physical, zerolog.Nop())

	got, err := svc.Overview(context.Background())

	require.NoError(t, err)
	assert.Equal(t, stats.Counts{W: 2}, got.Summary.Counts)
}

func TestOverviewFailsWhenLiveFails(t *testing.T) {
	live := &fakeSummarySource{err: errors.New("store down")}
	svc := NewHomeService(live, &fakeSummarySource{}, zerolog.Nop())

	_, err := svc.Overview(context.Background())

	require.Error(t, err)
}
