package suggest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ptcg-tracker/internal/matchlog"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func parsedWith(player, opponent string) matchlog.Result {
	return matchlog.Result{
		Language: matchlog.LangEnglish,
		Players:  matchlog.Players{Player: player, Opponent: opponent},
	}
}

func TestSpeciesSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Charizard ex", "charizard"},
		{"Alice's Pidgeot ex", "pidgeot"},
		{"Flabébé", "flabebe"},
		{"Iron Hands ex", "iron-hands"},
		{"Origin Forme Palkia VSTAR extra", "origin-forme-palkia"},
		{"Comfey in the Active Spot", "comfey"},
		{"Ex", "ex"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SpeciesSlug(tt.in), "SpeciesSlug(%q)", tt.in)
	}
}

func TestFromParsedRanksByAttacks(t *testing.T) {
	raw := `Alice's Comfey used Flower Selecting.
Alice drew 2 cards.
Alice's Charizard ex used Burning Darkness for 180 damage.
Bob's Miraidon ex used Photon Blaster for 220 damage.
Alice's Charizard ex used Burning Darkness for 180 damage.
Bob's Iron Hands ex used Arm Press for 160 damage.
Alice's Pidgeot ex used Quick Search.
Alice drew 1 card.`

	s := New(nil, zerolog.Nop())
	got := s.FromParsed(context.Background(), parsedWith("Alice", "Bob"), raw)

	// Charizard attacked twice, Comfey and Pidgeot only used abilities.
	assert.Equal(t, []string{"charizard", "comfey"}, got.PlayerPokemons)
	assert.Equal(t, []string{"miraidon", "iron-hands"}, got.OpponentPokemons)
}

func TestFromParsedArchetypeHint(t *testing.T) {
	raw := `Bob's Miraidon ex used Photon Blaster for 220 damage.
Bob's Iron Hands ex used Arm Press for 160 damage.`

	s := New(nil, zerolog.Nop())
	got := s.FromParsed(context.Background(), parsedWith("Alice", "Bob"), raw)

	assert.Equal(t, "Miraidon Iron Hands", got.OpponentDeckName)
	assert.Empty(t, got.PlayerPokemons)
	assert.Empty(t, got.PlayerDeckName)
}

func TestFromParsedDefaultDeckName(t *testing.T) {
	raw := `Alice's Gholdengo ex used Make It Rain for 200 damage.
Alice's Dragapult ex used Phantom Dive for 200 damage.
Alice's Gholdengo ex used Make It Rain for 120 damage.`

	s := New(nil, zerolog.Nop())
	got := s.FromParsed(context.Background(), parsedWith("Alice", "Bob"), raw)

	assert.Equal(t, []string{"gholdengo", "dragapult"}, got.PlayerPokemons)
	assert.Equal(t, "Gholdengo / Dragapult", got.PlayerDeckName)
}

func TestFromParsedTrainerPrefix(t *testing.T) {
	raw := `Alice's Zoroark used Night Daze for 120 damage.
Alice played N's PP Up.
N's Zoroark is now in the Active Spot.`

	s := New(nil, zerolog.Nop())
	got := s.FromParsed(context.Background(), parsedWith("Alice", "Bob"), raw)

	assert.Equal(t, []string{"zoroark"}, got.PlayerPokemons)
	assert.Equal(t, "N's Zoroark", got.PlayerDeckName)
}

func TestFromParsedAbilityVersusAttack(t *testing.T) {
	raw := `Alice's Pidgeot ex used Quick Search.
Alice drew 1 card.
Alice's Bibarel used Industrious Incisors.
Alice drew 3 cards.
Alice's Charizard ex used Burning Darkness for 330 damage.
Bob's Miraidon ex was Knocked Out.`

	s := New(nil, zerolog.Nop())
	got := s.FromParsed(context.Background(), parsedWith("Alice", "Bob"), raw)

	// the only attacker outranks the two ability users
	assert.Equal(t, "charizard", got.PlayerPokemons[0])
}

// Parse previews and match creates hit the suggestor from concurrent
// handlers, so deck naming must survive the race detector.
func TestDeckNameConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				assert.Equal(t, "Gholdengo / Dragapult", deckName([]string{"gholdengo", "dragapult"}, nil))
			}
		}()
	}
	wg.Wait()
}

type fakeValidator struct {
	known map[string]bool
	err   error
}

func (f fakeValidator) IsKnownSpecies(_ context.Context, s string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.known[s], nil
}

func TestFromParsedValidatorFiltersUnknown(t *testing.T) {
	raw := `Alice's Madeupmon used Fake Move for 50 damage.
Alice's Comfey used Flower Selecting for 10 damage.`

	s := New(fakeValidator{known: map[string]bool{"comfey": true}}, zerolog.Nop())
	got := s.FromParsed(context.Background(), parsedWith("Alice", "Bob"), raw)

	assert.Equal(t, []string{"comfey"}, got.PlayerPokemons)
}

func TestFromParsedValidatorErrorKeepsSuggestion(t *testing.T) {
	raw := `Alice's Comfey used Flower Selecting for 10 damage.`

	s := New(fakeValidator{err: errors.New("catalog down")}, zerolog.Nop())
	got := s.FromParsed(context.Background(), parsedWith("Alice", "Bob"), raw)

	assert.Equal(t, []string{"comfey"}, got.PlayerPokemons)
}
