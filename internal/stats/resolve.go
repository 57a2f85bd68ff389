package stats

// Source carries every shape a record's counts have ever been written in.
// Older code paths stored an explicit counts object, some nested it under
// stats, some kept a per-game results array, and the oldest kept a single
// result token. Resolve tries them in that priority order.
type Source struct {
	Counts      *Counts
	StatsCounts *Counts
	Stats       *Counts
	Results     []string
	Result      string
}

type extractor func(Source) (Counts, bool)

var extractors = []extractor{
	func(s Source) (Counts, bool) { return fromPointer(s.Counts) },
	func(s Source) (Counts, bool) { return fromPointer(s.StatsCounts) },
	func(s Source) (Counts, bool) { return fromPointer(s.Stats) },
	func(s Source) (Counts, bool) {
		var c Counts
		for _, r := range s.Results {
			c = Add(c, FromResult(r))
		}
		return c, c.Total() > 0
	},
	func(s Source) (Counts, bool) {
		c := FromResult(s.Result)
		return c, c.Total() > 0
	},
}

func fromPointer(p *Counts) (Counts, bool) {
	if p == nil {
		return Counts{}, false
	}
	return *p, p.Total() > 0
}

// Resolve returns the first source that yields actual evidence of games
// played. A record with no usable shape resolves to zero counts.
func Resolve(s Source) Counts {
	for _, ex := range extractors {
		if c, ok := ex(s); ok {
			return c
		}
	}
	return Counts{}
}
