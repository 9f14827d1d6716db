package radiant

// RuntimeGuard enforces a minimum continuous run once the loop starts heating or cooling.
type RuntimeGuard struct {
	ActiveHours float64

	minimum float64
}

func NewRuntimeGuard(minimumHours float64) *RuntimeGuard {
	return &RuntimeGuard{minimum: minimumHours}
}

func (g *RuntimeGuard) Reset() { g.ActiveHours = 0 }

func (g *RuntimeGuard) Observe(heating, cooling bool, dt float64) {
	if heating || cooling {
		g.ActiveHours += dt
		return
	}
	g.ActiveHours = 0
}

// Holding reports whether a run is in progress but shorter than the minimum.
func (g *RuntimeGuard) Holding() bool {
	return g.ActiveHours > 0 && g.ActiveHours < g.minimum
}
