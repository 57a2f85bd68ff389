package matchlog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleLog = `Setup
Alice drew 7 cards for the opening hand.
• Charizard ex, Pidgey, Rare Candy, Ultra Ball, Arven, Fire Energy, Fire Energy
Bob drew 7 cards for the opening hand.
- 7 drawn cards.

Turn # 1 - Bob's Turn
Bob played Nest Ball.
Bob attached a Basic Lightning Energy to Miraidon ex.

Turn # 2 - Alice's Turn
Alice played Rare Candy.
Alice's Charizard ex used Burning Darkness for 180 damage.

Alice wins.`

func TestParseIdentifiesPlayersBySideVisibility(t *testing.T) {
	res := Parse(sampleLog)

	assert.Equal(t, LangEnglish, res.Language)
	assert.Equal(t, "Alice", res.Players.Player)
	assert.Equal(t, "Bob", res.Players.Opponent)
}

func TestParseFindsFirstActorAfterTurnOne(t *testing.T) {
	res := Parse(sampleLog)
	assert.Equal(t, "Bob", res.Players.First)
}

func TestParseCollectsRevealedCards(t *testing.T) {
	log := `Alice drew 7 cards for the opening hand.
- 7 drawn cards.
• Snorlax, Comfey, Mirage Gate
Bob drew 7 cards for the opening hand.`

	res := Parse(log)
	assert.Equal(t, []string{"Snorlax", "Comfey", "Mirage Gate"}, res.RevealedCards)
}

func TestParseEmptyInput(t *testing.T) {
	for _, raw := range []string{"", "   \n  \n"} {
		res := Parse(raw)
		assert.Equal(t, LangAuto, res.Language)
		assert.Equal(t, "", res.Players.Player)
		assert.Equal(t, "", res.Players.Opponent)
		assert.Equal(t, "", res.Players.First)
		assert.Empty(t, res.RevealedCards)
	}
}

func TestParseWinnerFallback(t *testing.T) {
	// No reveal bullets at all: the "<Name> wins." line decides who owns
	// the log, the remaining collected name becomes the opponent.
	log := `Carol drew 7 cards for the opening hand.
Dave drew 7 cards for the opening hand.
Turn # 1
Dave played Ultra Ball.
Dave wins.`

	res := Parse(log)
	assert.Equal(t, "Dave", res.Players.Player)
	assert.Equal(t, "Carol", res.Players.Opponent)
	assert.Equal(t, "Dave", res.Players.First)
}

func TestParseFillsFromCollectedNames(t *testing.T) {
	// No ownership signal of any kind: first collected name is "you".
	log := `Carol drew 7 cards for the opening hand.
Dave drew 7 cards for the opening hand.`

	res := Parse(log)
	assert.Equal(t, "Carol", res.Players.Player)
	assert.Equal(t, "Dave", res.Players.Opponent)
}

func TestParseDeduplicatesRepeatedOpeningDraws(t *testing.T) {
	// Mulligans repeat the opening-draw line; the same name must not
	// crowd out the second player, whatever the casing.
	log := `Carol drew 7 cards for the opening hand.
CAROL drew 7 cards for the opening hand.
Dave drew 7 cards for the opening hand.`

	res := Parse(log)
	assert.Equal(t, "Carol", res.Players.Player)
	assert.Equal(t, "Dave", res.Players.Opponent)
}

func TestParseSkipsContinuationLinesInFirstActorScan(t *testing.T) {
	log := `Ana drew 7 cards for the opening hand.
• Pikachu, Iono
Turn # 1

- some continuation
• another continuation
Ana attached a Lightning Energy to Pikachu.`

	res := Parse(log)
	assert.Equal(t, "Ana", res.Players.First)
}

func TestParseFirstActorScanWindowIsCapped(t *testing.T) {
	var b strings.Builder
	b.WriteString("Ana drew 7 cards for the opening hand.\n• Pikachu\nTurn # 1\n")
	for i := 0; i < firstActorScanWindow+5; i++ {
		b.WriteString("some narration without an actor\n")
	}
	b.WriteString("Ana played Nest Ball.\n")

	res := Parse(b.String())
	assert.Equal(t, "", res.Players.First)
}

func TestParsePortugueseDetection(t *testing.T) {
	log := `Ana comprou 7 cartas para a mão inicial.
Beto comprou 7 cartas para a mão inicial.
Ana venceu.`

	res := Parse(log)
	assert.Equal(t, LangPortuguese, res.Language)
	assert.Equal(t, "Ana", res.Players.Player)
	assert.Equal(t, "Beto", res.Players.Opponent)
}

func TestParsePossessiveActorCreditsOwner(t *testing.T) {
	log := `Turn # 1
Mia's Pikachu used Thunder Shock for 30 damage.`

	res := Parse(log)
	assert.Equal(t, "Mia", res.Players.First)
}
