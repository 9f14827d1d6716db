package radiant

import "math"

// OutdoorReset linearly maps the 24h outdoor mean to a slab setpoint for the
// basic strategy. Colder outdoor air gives SetpointAtLow.
type OutdoorReset struct {
	Enabled        bool
	OutdoorLow     float64
	OutdoorHigh    float64
	SetpointAtLow  float64
	SetpointAtHigh float64
}

func (r OutdoorReset) setpoint(outdoorMean float64) float64 {
	switch {
	case outdoorMean <= r.OutdoorLow:
		return r.SetpointAtLow
	case outdoorMean >= r.OutdoorHigh:
		return r.SetpointAtHigh
	}
	frac := (outdoorMean - r.OutdoorLow) / (r.OutdoorHigh - r.OutdoorLow)
	return r.SetpointAtLow + frac*(r.SetpointAtHigh-r.SetpointAtLow)
}

type Params struct {
	OccupiedStart         float64 // decimal hour
	OccupiedEnd           float64 // decimal hour
	ProportionalGain      float64 // 0.3 or less recommended
	MinimumOperationHours float64
	WeekendReset          float64 // C
	EarlyResetLead        float64 // hours before Monday occupancy
	SwitchOverHours       float64
	SlabLowerLimit        float64
	SlabUpperLimit        float64
	ComfortOffset         float64
	TimestepsPerHour      int
	TemperatureSeed       float64

	Strategy           Strategy
	ControlType        ControlType
	BasicSetpoint      float64
	BasicCoolingOffset float64
	OutdoorReset       OutdoorReset
}

// RecommendedMaxGain is the largest gain that keeps the daily correction stable
// for typical slabs. Larger values are accepted.
const RecommendedMaxGain = 0.3

func DefaultParams() Params {
	return Params{
		OccupiedStart:         6,
		OccupiedEnd:           18,
		ProportionalGain:      0.3,
		MinimumOperationHours: 1,
		WeekendReset:          2,
		EarlyResetLead:        20,
		SwitchOverHours:       24,
		SlabLowerLimit:        19,
		SlabUpperLimit:        29,
		ComfortOffset:         0.5,
		TimestepsPerHour:      4,
		TemperatureSeed:       20,
		Strategy:              StrategyProportional,
		ControlType:           ControlSurfaceFace,
		BasicSetpoint:         22,
		BasicCoolingOffset:    0.1,
		OutdoorReset: OutdoorReset{
			OutdoorLow:     -10,
			OutdoorHigh:    25,
			SetpointAtLow:  27,
			SetpointAtHigh: 20,
		},
	}
}

func (p *Params) Validate() error {
	if p.OccupiedStart < 0 || p.OccupiedEnd > 24 || p.OccupiedStart >= p.OccupiedEnd {
		return ErrInvalidOccupiedWindow
	}
	if p.ProportionalGain <= 0 || p.ProportionalGain > 1 {
		return ErrInvalidGain
	}
	if p.SlabLowerLimit >= p.SlabUpperLimit {
		return ErrInvalidSlabLimits
	}
	if p.TimestepsPerHour < 1 || p.TimestepsPerHour > 60 || 60%p.TimestepsPerHour != 0 {
		return ErrInvalidTimestep
	}
	if p.MinimumOperationHours < 0 || p.WeekendReset < 0 || p.SwitchOverHours < 0 || p.ComfortOffset < 0 {
		return ErrInvalidDuration
	}
	if p.EarlyResetLead < 0 || p.EarlyResetLead >= 24 {
		return ErrInvalidLeadTime
	}
	if !p.Strategy.Valid() {
		return ErrInvalidStrategy
	}
	if p.OutdoorReset.Enabled && p.OutdoorReset.OutdoorLow >= p.OutdoorReset.OutdoorHigh {
		return ErrInvalidOutdoorReset
	}
	return nil
}

// Timestep is the simulation timestep length in hours.
func (p *Params) Timestep() float64 {
	return 1 / float64(p.TimestepsPerHour)
}

// TrendCapacity is the number of samples in a 24h window.
func (p *Params) TrendCapacity() int {
	return p.TimestepsPerHour * 24
}

func (p *Params) clamp(sp float64) float64 {
	return math.Min(math.Max(sp, p.SlabLowerLimit), p.SlabUpperLimit)
}

// sameStep reports whether the timestep ending at hour a is the one closest to
// hour b. The window is half-open so exactly one timestep matches.
func sameStep(a, b, dt float64) bool {
	d := a - b
	return d >= -dt/2 && d < dt/2
}
