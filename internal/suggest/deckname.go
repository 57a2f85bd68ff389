package suggest

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// archetypeHints maps an order-independent featured-species signature to
// the name the community actually calls the deck.
var archetypeHints = map[string]string{
	hintKey("miraidon", "iron-hands"):       "Miraidon Iron Hands",
	hintKey("charizard", "pidgeot"):         "Charizard Pidgeot",
	hintKey("lugia", "archeops"):            "Lugia Archeops",
	hintKey("giratina", "comfey"):           "Lost Box Giratina",
	hintKey("sableye", "comfey"):            "Lost Box",
	hintKey("gardevoir", "kirlia"):          "Gardevoir ex",
	hintKey("chien-pao", "baxcalibur"):      "Chien-Pao Baxcalibur",
	hintKey("roaring-moon", "flutter-mane"): "Roaring Moon",
	hintKey("charizard", "bibarel"):         "Charizard ex",
	hintKey("gholdengo", "palkia"):          "Gholdengo Palkia",
	hintKey("snorlax"):                      "Snorlax Stall",
	hintKey("regidrago"):                    "Regidrago VSTAR",
	hintKey("klawf"):                        "Klawf Unhinged Scissors",
}

// trainerNames is the whitelist of Trainer-card characters whose owned
// Pokémon form named archetypes ("Arven's Mabosstiff", "N's Zoroark").
var trainerNames = map[string]bool{
	"Adaman": true, "Arven": true, "Blaine": true, "Brock": true,
	"Cheren": true, "Cynthia": true, "Erika": true, "Ethan": true,
	"Giovanni": true, "Hop": true, "Iono": true, "Irida": true,
	"Lance": true, "Lillie": true, "Marnie": true, "Melony": true,
	"Misty": true, "N": true, "Nemona": true, "Penny": true,
	"Sabrina": true, "Steven": true, "Volkner": true,
}

var reTrainerOwned = regexp.MustCompile(`([A-Z][a-z]*)'s\s+([A-Za-z-]+)`)

func hintKey(slugs ...string) string {
	sorted := make([]string, len(slugs))
	copy(sorted, slugs)
	sort.Strings(sorted)
	return strings.Join(sorted, "+")
}

// deckName turns a side's featured species into a label: a known
// archetype name when the signature matches, otherwise the title-cased
// species joined by " / ", with a trainer prefix when the log shows the
// lead species is trainer-owned.
func deckName(featured []string, lines []string) string {
	if len(featured) == 0 {
		return ""
	}
	if hint, ok := archetypeHints[hintKey(featured...)]; ok {
		return hint
	}

	// cases.Caser is stateful and not safe for concurrent use, so each
	// call gets its own.
	caser := cases.Title(language.English)
	parts := make([]string, len(featured))
	for i, s := range featured {
		parts[i] = caser.String(strings.ReplaceAll(s, "-", " "))
	}
	label := strings.Join(parts, " / ")

	if trainer := trainerOwner(featured[0], lines); trainer != "" {
		label = trainer + "'s " + label
	}
	return label
}

// trainerOwner looks for "<Trainer>'s <FirstWordOfSpecies>" where the
// trainer is a known Trainer-card character.
func trainerOwner(featuredSlug string, lines []string) string {
	firstWord := featuredSlug
	if i := strings.Index(firstWord, "-"); i > 0 {
		firstWord = firstWord[:i]
	}
	for _, line := range lines {
		for _, m := range reTrainerOwned.FindAllStringSubmatch(line, -1) {
			if trainerNames[m[1]] && strings.EqualFold(m[2], firstWord) {
				return m[1]
			}
		}
	}
	return ""
}
