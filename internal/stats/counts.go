package stats

import (
	"math"
	"strings"
)

// Counts is the win/loss/tie triple every aggregate is built from.
type Counts struct {
	W int `bson:"W" json:"W"`
	L int `bson:"L" json:"L"`
	T int `bson:"T" json:"T"`
}

func (c Counts) Total() int {
	return c.W + c.L + c.T
}

func Add(a, b Counts) Counts {
	return Counts{W: a.W + b.W, L: a.L + b.L, T: a.T + b.T}
}

// FromResult maps a single result token to a unit count. Unknown tokens
// (including the empty pending result) count as nothing.
func FromResult(r string) Counts {
	switch strings.ToUpper(strings.TrimSpace(r)) {
	case "W":
		return Counts{W: 1}
	case "L":
		return Counts{L: 1}
	case "T":
		return Counts{T: 1}
	}
	return Counts{}
}

// WinRate is the percentage of wins over all games, one decimal place.
// Ties count toward the denominator but not the numerator.
func WinRate(c Counts) float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return math.Round(float64(c.W)/float64(total)*1000) / 10
}
