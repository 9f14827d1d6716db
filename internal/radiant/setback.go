package radiant

// WeekendReset tracks the weekend setback window. It never changes the slab
// setpoint itself; callers read Bias while the window is active.
type WeekendReset struct {
	params *Params
	Active bool
}

func NewWeekendReset(p *Params) *WeekendReset {
	return &WeekendReset{params: p}
}

func (w *WeekendReset) Reset() { w.Active = false }

// Step opens the window at the end of Friday's occupied period and closes it at
// the restoration timestep. It reports whether the state changed.
func (w *WeekendReset) Step(c Calendar) bool {
	dt := w.params.Timestep()
	c = c.Normalize()
	day := c.DayOfWeek
	if !w.Active {
		if day == Friday && sameStep(c.Hour, w.params.OccupiedEnd, dt) {
			w.Active = true
			return true
		}
		return false
	}
	rd, rh := w.params.RestorationTime()
	if day == rd && sameStep(c.Hour, rh, dt) {
		w.Active = false
		return true
	}
	return false
}

// Bias is the configured reset magnitude while the window is active.
func (w *WeekendReset) Bias() float64 {
	if w.Active {
		return w.params.WeekendReset
	}
	return 0
}
