// Package suggest ranks which Pokémon were "featured" on each side of a
// parsed match log and proposes human-readable deck names. Like the
// parser it is best-effort: the output pre-fills a form the user can
// still override.
package suggest

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"ptcg-tracker/internal/matchlog"
	"ptcg-tracker/internal/slug"

	"github.com/rs/zerolog"
)

// FeaturedMax caps how many species represent one side of a deck.
const FeaturedMax = 2

// SpeciesValidator checks a species slug against the external catalog.
// Validation failures never drop a suggestion; the slugs are hints.
type SpeciesValidator interface {
	IsKnownSpecies(ctx context.Context, speciesSlug string) (bool, error)
}

type Suggestion struct {
	PlayerPokemons   []string `json:"playerPokemons"`
	OpponentPokemons []string `json:"opponentPokemons"`
	PlayerDeckName   string   `json:"playerDeckName,omitempty"`
	OpponentDeckName string   `json:"opponentDeckName,omitempty"`
}

type Suggestor struct {
	validator SpeciesValidator
	logger    zerolog.Logger
}

func New(validator SpeciesValidator, logger zerolog.Logger) *Suggestor {
	return &Suggestor{validator: validator, logger: logger}
}

var (
	reUsed   = regexp.MustCompile(`(?i)^[\s•\-]*(.+?)'s\s+(.+?)\s+used\s+`)
	reDamage = regexp.MustCompile(`(?i)(?:for|deals|dealt)\s+(\d+)\s+damage`)
	reEffect = regexp.MustCompile(`(?i)damage|discard|knock`)
	reDrew   = regexp.MustCompile(`(?i)\bdrew\b`)
	reActive = regexp.MustCompile(`(?i)^[\s•\-]*(?:(.+?)'s\s+)?(.+?)\s+is now in the active spot`)
	reEvolve = regexp.MustCompile(`(?i)^[\s•\-]*(.+?)'s\s+.+?\s+evolved\s+into\s+(.+?)\s*[.!]?\s*$`)
)

// attackWindow is how many following lines an attack/ability
// classification may look at.
const attackWindow = 5

type candidate struct {
	slug       string
	attacks    int
	damage     int
	ability    int
	firstOrder int
	active     int
	evolveTo   int
}

type sideTally struct {
	byKey map[string]*candidate
	order []*candidate
}

func newSideTally() *sideTally {
	return &sideTally{byKey: make(map[string]*candidate)}
}

func (t *sideTally) get(key string) *candidate {
	if c, ok := t.byKey[key]; ok {
		return c
	}
	c := &candidate{slug: key, firstOrder: -1}
	t.byKey[key] = c
	t.order = append(t.order, c)
	return c
}

// FromParsed scans the raw text for per-species usage signals on each
// side and returns the ranked featured Pokémon plus deck-name guesses.
func (s *Suggestor) FromParsed(ctx context.Context, parsed matchlog.Result, raw string) Suggestion {
	lines := strings.Split(raw, "\n")
	player := parsed.Players.Player
	opponent := parsed.Players.Opponent

	you := newSideTally()
	opp := newSideTally()
	seq := 0

	tallyFor := func(owner string) *sideTally {
		switch sideOf(owner, player, opponent) {
		case "you":
			return you
		case "opp":
			return opp
		}
		return nil
	}

	for i, line := range lines {
		if m := reUsed.FindStringSubmatch(line); m != nil {
			tally := tallyFor(m[1])
			if tally == nil {
				continue
			}
			c := tally.get(SpeciesSlug(m[2]))
			kind, dmg := classifyAction(lines, i)
			if kind == "ability" {
				c.ability++
			} else {
				c.attacks++
				if c.firstOrder < 0 {
					c.firstOrder = seq
				}
			}
			c.damage += dmg
			seq++
			continue
		}
		if m := reActive.FindStringSubmatch(line); m != nil {
			if tally := tallyFor(m[1]); tally != nil {
				tally.get(SpeciesSlug(m[2])).active++
			}
			continue
		}
		if m := reEvolve.FindStringSubmatch(line); m != nil {
			if tally := tallyFor(m[1]); tally != nil {
				tally.get(SpeciesSlug(m[2])).evolveTo++
			}
		}
	}

	playerPokemons := s.featured(ctx, you)
	opponentPokemons := s.featured(ctx, opp)

	return Suggestion{
		PlayerPokemons:   playerPokemons,
		OpponentPokemons: opponentPokemons,
		PlayerDeckName:   deckName(playerPokemons, lines),
		OpponentDeckName: deckName(opponentPokemons, lines),
	}
}

// sideOf matches a leading name against the identified player and
// opponent, case-insensitively, diacritics ignored.
func sideOf(name, player, opponent string) string {
	n := slug.NormalizeName(name)
	if n == "" {
		return ""
	}
	switch n {
	case slug.NormalizeName(player):
		if player != "" {
			return "you"
		}
	case slug.NormalizeName(opponent):
		if opponent != "" {
			return "opp"
		}
	}
	return ""
}

// classifyAction decides whether a "used" line was an attack or an
// ability by reading up to attackWindow following lines, stopping at the
// next action so one move never absorbs another's effects. It also sums
// damage mentions inside the window.
func classifyAction(lines []string, idx int) (string, int) {
	dmg := 0
	if m := reDamage.FindStringSubmatch(lines[idx]); m != nil {
		dmg += atoi(m[1])
	}

	sawEffect := reEffect.MatchString(lines[idx])
	sawDrew := false
	for j := idx + 1; j <= idx+attackWindow && j < len(lines); j++ {
		line := lines[j]
		if reUsed.MatchString(line) {
			break
		}
		if m := reDamage.FindStringSubmatch(line); m != nil {
			dmg += atoi(m[1])
		}
		if reEffect.MatchString(line) {
			sawEffect = true
		}
		if reDrew.MatchString(line) {
			sawDrew = true
		}
	}

	if !sawEffect && sawDrew {
		return "ability", dmg
	}
	return "attack", dmg
}

// featured ranks a side's candidates and returns the top slugs. Ranking:
// more attacks, then earliest attacking appearance, then more damage,
// then ability uses, then active-spot entries, then evolutions-into.
func (s *Suggestor) featured(ctx context.Context, t *sideTally) []string {
	ranked := make([]*candidate, len(t.order))
	copy(ranked, t.order)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.attacks != b.attacks {
			return a.attacks > b.attacks
		}
		if a.firstOrder != b.firstOrder {
			// -1 means never attacked and ranks after any attacker
			if a.firstOrder < 0 {
				return false
			}
			if b.firstOrder < 0 {
				return true
			}
			return a.firstOrder < b.firstOrder
		}
		if a.damage != b.damage {
			return a.damage > b.damage
		}
		if a.ability != b.ability {
			return a.ability > b.ability
		}
		if a.active != b.active {
			return a.active > b.active
		}
		return a.evolveTo > b.evolveTo
	})

	out := []string{}
	for _, c := range ranked {
		if len(out) == FeaturedMax {
			break
		}
		if c.slug == "" {
			continue
		}
		if s.validator != nil {
			known, err := s.validator.IsKnownSpecies(ctx, c.slug)
			if err != nil {
				// validator trouble is not a reason to drop a hint
				s.logger.Debug().Err(err).Str("species", c.slug).Msg("species validation failed, keeping suggestion")
			} else if !known {
				continue
			}
		}
		out = append(out, c.slug)
	}
	return out
}

// SpeciesSlug normalizes a species display name to its slug: possessive
// owner prefixes dropped, diacritics stripped, trailing "ex" and active
// spot phrasing removed, at most the first three words kept.
func SpeciesSlug(name string) string {
	n := strings.TrimSpace(name)
	if i := strings.LastIndex(n, "'s "); i >= 0 {
		n = n[i+len("'s "):]
	}
	lower := strings.ToLower(slug.StripDiacritics(n))
	lower = strings.TrimSuffix(strings.TrimSpace(lower), " in the active spot")
	words := strings.Fields(lower)
	if len(words) > 1 && words[len(words)-1] == "ex" {
		words = words[:len(words)-1]
	}
	if len(words) > 3 {
		words = words[:3]
	}
	return slug.Make(strings.Join(words, " "))
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
