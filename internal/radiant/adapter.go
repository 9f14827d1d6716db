package radiant

import "fmt"

// SetpointAdapter applies the once-per-day proportional correction of the slab
// setpoint from the comfort band errors.
type SetpointAdapter struct {
	params       *Params
	lower, upper float64 // comfort band

	Setpoint     float64
	CoolingError float64
	HeatingError float64

	initial     float64
	lastApplied int
}

// Correction describes one daily adjustment.
type Correction struct {
	Day          int
	Before       float64
	CoolingDelta float64
	HeatingDelta float64
	After        float64
	Clamped      bool
}

func (c Correction) Applied() bool {
	return c.CoolingDelta != 0 || c.HeatingDelta != 0 || c.Clamped
}

func NewSetpointAdapter(p *Params, lowerComfort, upperComfort, initial float64) *SetpointAdapter {
	a := &SetpointAdapter{params: p, lower: lowerComfort, upper: upperComfort, initial: initial}
	a.Reset()
	return a
}

func (a *SetpointAdapter) Reset() {
	a.Setpoint = a.initial
	a.CoolingError = 0
	a.HeatingError = 0
	a.lastApplied = -1
	a.assertInBounds()
}

// ComputeErrors records how far the day's occupied extremes landed from the
// comfort band, shrunk by the comfort offset.
func (a *SetpointAdapter) ComputeErrors(maxCtrl, minCtrl float64) {
	a.CoolingError = (a.upper - a.params.ComfortOffset) - maxCtrl
	a.HeatingError = (a.lower + a.params.ComfortOffset) - minCtrl
}

// Apply corrects the setpoint once for the given day. Both corrections apply
// when the mode is neutral and both activity sums are non-zero.
func (a *SetpointAdapter) Apply(day int, mode Mode, coolSum, heatSum float64) Correction {
	c := Correction{Day: day, Before: a.Setpoint, After: a.Setpoint}
	if day == a.lastApplied {
		return c
	}
	a.lastApplied = day

	sp := a.Setpoint
	if mode >= ModeNeutral && coolSum != 0 {
		c.CoolingDelta = a.CoolingError * a.params.ProportionalGain
		sp += c.CoolingDelta
	}
	if mode <= ModeNeutral && heatSum != 0 {
		c.HeatingDelta = a.HeatingError * a.params.ProportionalGain
		sp += c.HeatingDelta
	}
	clamped := a.params.clamp(sp)
	c.Clamped = clamped != sp
	a.Setpoint = clamped
	c.After = clamped
	a.assertInBounds()
	return c
}

// Override replaces the setpoint, clamped to the slab limits. Used by the basic
// strategy, which recomputes its setpoint every timestep.
func (a *SetpointAdapter) Override(sp float64) {
	a.Setpoint = a.params.clamp(sp)
	a.assertInBounds()
}

func (a *SetpointAdapter) assertInBounds() {
	if a.Setpoint < a.params.SlabLowerLimit || a.Setpoint > a.params.SlabUpperLimit || a.Setpoint != a.Setpoint {
		panic(fmt.Sprintf("radiant: slab setpoint %v outside [%v, %v]",
			a.Setpoint, a.params.SlabLowerLimit, a.params.SlabUpperLimit))
	}
}
