// Package matchlog extracts player identity, turn order and winner from
// pasted PTCG Live match-log text. The format is informal and evolving,
// so everything here is a best-effort heuristic: on unrecognized input
// the parser degrades to empty fields, it never fails.
package matchlog

import (
	"regexp"
	"strings"
)

const (
	LangEnglish    = "en"
	LangPortuguese = "pt"
	LangAuto       = "auto"
)

type Players struct {
	Player   string `json:"player"`
	Opponent string `json:"opponent"`
	First    string `json:"first,omitempty"`
}

type Result struct {
	Language      string   `json:"language"`
	Players       Players  `json:"players"`
	RevealedCards []string `json:"revealedCards"`
}

var (
	reDrewSeven  = regexp.MustCompile(`(?i)^[\s•\-]*(.+?)\s+(?:drew|comprou)\s+7\s+(?:cards|cartas)`)
	reOpening    = regexp.MustCompile(`(?i)opening hand|mão inicial`)
	reDrawnCount = regexp.MustCompile(`(?i)^\s*-\s*\d+\s+drawn cards`)
	reDrawnLine  = regexp.MustCompile(`(?i)drawn cards`)
	reTurnOne    = regexp.MustCompile(`(?i)^\s*turn\s*#\s*1\b`)
	reWins       = regexp.MustCompile(`(?i)^[\s•\-]*(.+?)\s+(?:wins|venceu)\.?\s*$`)
	reAction     = regexp.MustCompile(`(?i)^(.+?)\s+(played|attached|used|evolved|benched|put|moved|retreated|declared|shuffled|chose|searched|drew|wins|conceded)\b`)
)

// How far past "Turn # 1" the first-actor scan looks.
const firstActorScanWindow = 60

type playerHit struct {
	name string
	line int
}

// Parse runs the heuristic pipeline over raw log text. Each step either
// resolves a field or defers to the next fallback; fields that nothing
// resolves come back as empty strings.
func Parse(raw string) Result {
	res := Result{Language: LangAuto, RevealedCards: []string{}}
	if strings.TrimSpace(raw) == "" {
		return res
	}

	res.Language = detectLanguage(raw)
	lines := strings.Split(raw, "\n")

	hits := collectPlayers(lines)
	you, opponent := classifySides(lines, hits)
	if you == "" {
		you = winnerName(lines)
	}

	// Fill gaps from the collected name set: the other known name is the
	// opponent, and with no signal at all the first name seen is "you".
	if opponent == "" {
		opponent = otherName(hits, you)
	}
	if you == "" && len(hits) > 0 {
		you = hits[0].name
		if opponent == you {
			opponent = otherName(hits, you)
		}
	}

	res.Players = Players{
		Player:   you,
		Opponent: opponent,
		First:    findFirstActor(lines, hits),
	}
	res.RevealedCards = revealedCards(lines)
	return res
}

func detectLanguage(raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "drew") || strings.Contains(lower, "wins"):
		return LangEnglish
	case strings.Contains(lower, "comprou") || strings.Contains(lower, "venceu"):
		return LangPortuguese
	}
	return LangAuto
}

// collectPlayers finds up to the first two distinct names introduced by
// "<Name> drew 7 cards ... opening hand" lines, in order of appearance.
func collectPlayers(lines []string) []playerHit {
	var hits []playerHit
	for i, line := range lines {
		m := reDrewSeven.FindStringSubmatch(line)
		if m == nil || !reOpening.MatchString(line) {
			continue
		}
		name := strings.TrimSpace(m[1])
		if name == "" || containsName(hits, name) {
			continue
		}
		hits = append(hits, playerHit{name: name, line: i})
		if len(hits) == 2 {
			break
		}
	}
	return hits
}

// classifySides decides who owns the log. Right after a player's opening
// draw, the log owner sees their own seven cards revealed as a bullet
// list; the other side only shows "- 7 drawn cards".
func classifySides(lines []string, hits []playerHit) (you, opponent string) {
	for _, h := range hits {
		revealed := false
		counted := false
		for i := h.line + 1; i <= h.line+2 && i < len(lines); i++ {
			next := strings.TrimSpace(lines[i])
			if strings.HasPrefix(next, "•") {
				revealed = true
				break
			}
			if reDrawnCount.MatchString(next) {
				counted = true
			}
		}
		if revealed && you == "" {
			you = h.name
		} else if counted && !revealed && opponent == "" {
			opponent = h.name
		}
	}
	return you, opponent
}

// findFirstActor locates "Turn # 1" and scans forward for the first
// "<Name> <action-verb>" line, skipping blank and bullet continuations.
func findFirstActor(lines []string, hits []playerHit) string {
	start := -1
	for i, line := range lines {
		if reTurnOne.MatchString(line) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return ""
	}

	end := start + firstActorScanWindow
	if end > len(lines) {
		end = len(lines)
	}
	for _, line := range lines[start:end] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "•") || strings.HasPrefix(trimmed, "-") {
			continue
		}
		if name := actorOf(trimmed, hits); name != "" {
			return name
		}
	}
	return ""
}

// actorOf matches a line against the known player names first; failing
// that it falls back to a generic name-then-verb capture, crediting the
// possessive owner when a Pokémon is the grammatical subject.
func actorOf(line string, hits []playerHit) string {
	lower := strings.ToLower(line)
	for _, h := range hits {
		prefix := strings.ToLower(h.name) + " "
		if strings.HasPrefix(lower, prefix) || strings.HasPrefix(lower, strings.ToLower(h.name)+"'s ") {
			return h.name
		}
	}
	m := reAction.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	name := strings.TrimSpace(m[1])
	if idx := strings.Index(name, "'s "); idx > 0 {
		name = name[:idx]
	}
	return name
}

func winnerName(lines []string) string {
	for _, line := range lines {
		if m := reWins.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func containsName(hits []playerHit, name string) bool {
	for _, h := range hits {
		if strings.EqualFold(h.name, name) {
			return true
		}
	}
	return false
}

func otherName(hits []playerHit, taken string) string {
	for _, h := range hits {
		if !strings.EqualFold(h.name, taken) {
			return h.name
		}
	}
	return ""
}

// revealedCards returns the comma-separated entries of the bullet line
// following the first "drawn cards" line. Informational only.
func revealedCards(lines []string) []string {
	cards := []string{}
	for i, line := range lines {
		if !reDrawnLine.MatchString(line) || i+1 >= len(lines) {
			continue
		}
		next := strings.TrimSpace(lines[i+1])
		if !strings.HasPrefix(next, "•") {
			break
		}
		for _, entry := range strings.Split(strings.TrimPrefix(next, "•"), ",") {
			if entry = strings.TrimSpace(entry); entry != "" {
				cards = append(cards, entry)
			}
		}
		break
	}
	return cards
}
