package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromResult(t *testing.T) {
	assert.Equal(t, Counts{W: 1}, FromResult("W"))
	assert.Equal(t, Counts{L: 1}, FromResult("l"))
	assert.Equal(t, Counts{T: 1}, FromResult(" t "))
	assert.Equal(t, Counts{}, FromResult(""))
	assert.Equal(t, Counts{}, FromResult("X"))
}

func TestAdd(t *testing.T) {
	got := Add(Counts{W: 3, L: 1}, Counts{W: 1, T: 1})
	assert.Equal(t, Counts{W: 4, L: 1, T: 1}, got)
}

func TestWinRate(t *testing.T) {
	tests := []struct {
		c    Counts
		want float64
	}{
		{Counts{}, 0},
		{Counts{W: 1, L: 1, T: 1}, 33.3},
		{Counts{W: 2}, 100},
		{Counts{W: 1, L: 2}, 33.3},
		{Counts{W: 2, L: 1}, 66.7},
		{Counts{W: 1, T: 1}, 50},
		{Counts{L: 5}, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WinRate(tt.c), "WinRate(%+v)", tt.c)
	}
}

func TestWinRateBounds(t *testing.T) {
	for w := 0; w <= 10; w++ {
		for l := 0; l <= 10; l++ {
			for ties := 0; ties <= 3; ties++ {
				wr := WinRate(Counts{W: w, L: l, T: ties})
				assert.GreaterOrEqual(t, wr, 0.0)
				assert.LessOrEqual(t, wr, 100.0)
				// at most one decimal digit
				assert.InDelta(t, math.Round(wr*10), wr*10, 1e-9)
			}
		}
	}
}

func TestResolvePriority(t *testing.T) {
	explicit := &Counts{W: 2, L: 1}
	nested := &Counts{W: 5}

	tests := []struct {
		name string
		src  Source
		want Counts
	}{
		{"explicit counts win", Source{Counts: explicit, Results: []string{"L"}}, Counts{W: 2, L: 1}},
		{"stats.counts over stats", Source{StatsCounts: nested, Stats: &Counts{L: 9}}, Counts{W: 5}},
		{"stats object", Source{Stats: &Counts{T: 2}}, Counts{T: 2}},
		{"results tally", Source{Results: []string{"W", " l ", "t", "w"}}, Counts{W: 2, L: 1, T: 1}},
		{"single result", Source{Result: "W"}, Counts{W: 1}},
		{"zero counts object falls through", Source{Counts: &Counts{}, Result: "L"}, Counts{L: 1}},
		{"nothing usable", Source{}, Counts{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.src))
		})
	}
}
