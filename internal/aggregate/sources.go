package aggregate

// LiveEngine and PhysicalEngine are the two engine instances, one per
// match source. Distinct types keep the dependency graph unambiguous.
type LiveEngine struct {
	*Engine
}

type PhysicalEngine struct {
	*Engine
}

func NewLiveEngine(e *Engine) *LiveEngine {
	return &LiveEngine{e}
}

func NewPhysicalEngine(e *Engine) *PhysicalEngine {
	return &PhysicalEngine{e}
}
