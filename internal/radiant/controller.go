package radiant

import (
	"log/slog"
	"strings"
)

type DualSetpoint struct {
	Heating float64 // lower comfort limit
	Cooling float64 // upper comfort limit
}

// ZoneSetup is everything a zone controller needs at construction time.
type ZoneSetup struct {
	Name           string
	ControlSurface string
	Thermostat     *DualSetpoint
	// InitialSetpoint defaults to the lower comfort limit clamped to the slab limits.
	InitialSetpoint *float64
	Params          Params
}

// DemandInput is read in the before-demand call point.
type DemandInput struct {
	SlabTemperature float64
}

// Reading holds the finalized sensor values of a timestep.
type Reading struct {
	ControlTemperature float64
	SlabTemperature    float64
	OutdoorTemperature float64
	HeatingActive      bool
	CoolingActive      bool
}

type Output struct {
	Zone            string
	Command         Command
	Actuators       ActuatorValues
	Mode            Mode
	SlabSetpoint    float64
	CoolingSetpoint float64
	SetbackBias     float64
	Reason          string
	Correction      *Correction
}

// Snapshot is a read-only copy of a zone's controller state.
type Snapshot struct {
	Zone           string
	ControlSurface string
	ControlType    ControlType
	Strategy       Strategy

	Mode            Mode
	SlabSetpoint    float64
	CoolingSetpoint float64
	ComfortLower    float64
	ComfortUpper    float64

	MaxCtrlTemp  float64
	MinCtrlTemp  float64
	CoolingError float64
	HeatingError float64

	ContinuousNeutralHours float64
	ContinuousActiveHours  float64

	DailyCoolHours    float64
	DailyHeatHours    float64
	PriorDayCoolHours float64
	PriorDayHeatHours float64

	SetbackActive bool
	SetbackBias   float64

	OutdoorMean float64
	SlabMean    float64

	Command   Command
	Actuators ActuatorValues
	Reason    string
}

// DaySummary is emitted once per zone at the last timestep of every simulated day.
type DaySummary struct {
	// Environment names the simulated period; the zone leaves it empty.
	Environment  string
	Zone         string
	Day          int
	DayOfWeek    int
	DesignDay    bool
	Mode         Mode
	SlabSetpoint float64
	CoolingError float64
	HeatingError float64
	MaxCtrlTemp  float64
	MinCtrlTemp  float64
	CoolHours    float64
	HeatHours    float64
	Setback      bool
	OutdoorMean  float64
	SlabMean     float64
}

// ZoneController owns all persistent radiant control state of one zone. It is
// not safe for concurrent use.
type ZoneController struct {
	name    string
	surface string
	params  Params
	lower   float64
	upper   float64
	log     *slog.Logger

	outdoor *TrendBuffer[float64]
	slab    *TrendBuffer[float64]
	heating *TrendBuffer[int]
	cooling *TrendBuffer[int]

	extremes *ExtremeTracker
	mode     *ModeStateMachine
	adapter  *SetpointAdapter
	setback  *WeekendReset
	guard    *RuntimeGuard

	priorCoolHours float64
	priorHeatHours float64
	last           Decision
	coolSP         float64
}

// New validates the setup and builds a controller in its seed state.
func New(setup ZoneSetup, logger *slog.Logger) (*ZoneController, error) {
	fail := func(err error) (*ZoneController, error) {
		return nil, &ZoneError{Zone: setup.Name, Err: err}
	}
	if strings.TrimSpace(setup.ControlSurface) == "" {
		return fail(ErrNoControlSurface)
	}
	if setup.Thermostat == nil {
		return fail(ErrMissingDualSetpoint)
	}
	if setup.Thermostat.Heating >= setup.Thermostat.Cooling {
		return fail(ErrInvalidComfortBand)
	}
	p := setup.Params
	if err := p.Validate(); err != nil {
		return fail(err)
	}
	initial := p.clamp(setup.Thermostat.Heating)
	if setup.InitialSetpoint != nil {
		initial = *setup.InitialSetpoint
		if initial < p.SlabLowerLimit || initial > p.SlabUpperLimit {
			return fail(ErrSetpointOutOfRange)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	z := &ZoneController{
		name:    setup.Name,
		surface: setup.ControlSurface,
		params:  p,
		lower:   setup.Thermostat.Heating,
		upper:   setup.Thermostat.Cooling,
		log:     logger.With("zone", setup.Name),
	}
	n := p.TrendCapacity()
	z.outdoor = NewTrendBuffer(n, p.TemperatureSeed)
	z.slab = NewTrendBuffer(n, p.TemperatureSeed)
	z.heating = NewTrendBuffer(n, 0)
	z.cooling = NewTrendBuffer(n, 0)
	z.extremes = NewExtremeTracker(z.lower, z.upper)
	z.mode = NewModeStateMachine(p.SwitchOverHours)
	z.adapter = NewSetpointAdapter(&z.params, z.lower, z.upper, initial)
	z.setback = NewWeekendReset(&z.params)
	z.guard = NewRuntimeGuard(p.MinimumOperationHours)
	z.Reset()

	if p.ProportionalGain > RecommendedMaxGain {
		z.log.Warn("proportional gain above recommended maximum", "gain", p.ProportionalGain, "recommended", RecommendedMaxGain)
	}
	return z, nil
}

func (z *ZoneController) Name() string { return z.name }

func (z *ZoneController) Params() Params { return z.params }

// Reset is the environment initialization call point: every buffer, counter and
// the setpoint return to their seed values.
func (z *ZoneController) Reset() {
	z.outdoor.Reset()
	z.slab.Reset()
	z.heating.Reset()
	z.cooling.Reset()
	z.extremes.Reset()
	z.mode.Reset()
	z.adapter.Reset()
	z.setback.Reset()
	z.guard.Reset()
	z.priorCoolHours = 0
	z.priorHeatHours = 0
	z.last = Decision{Command: CommandOff, Reason: "initialized"}
	z.coolSP = z.adapter.Setpoint
}

// BeforeDemand runs before the zone load is solved for the timestep. It updates
// the setpoint when due, the setback window and the mode, then emits the commands.
func (z *ZoneController) BeforeDemand(shared *SharedContext, in DemandInput) Output {
	cal := shared.Calendar
	if cal.DesignDay {
		z.last = Decide(DecisionInput{DesignDay: true})
		return z.output(nil)
	}

	dt := z.params.Timestep()
	coolSum := float64(z.cooling.Sum())
	heatSum := float64(z.heating.Sum())

	var corr *Correction
	switch z.params.Strategy {
	case StrategyProportional:
		if sameStep(cal.Hour, z.params.OccupiedEnd, dt) {
			c := z.adapter.Apply(shared.DayIndex, z.mode.Mode, coolSum, heatSum)
			if c.Applied() {
				z.log.Info("slab setpoint corrected",
					"day", c.Day, "before", c.Before, "after", c.After,
					"cooling_delta", c.CoolingDelta, "heating_delta", c.HeatingDelta, "clamped", c.Clamped)
			}
			corr = &c
		}
		if z.setback.Step(cal) {
			z.log.Info("weekend setback", "active", z.setback.Active, "day_of_week", cal.DayOfWeek, "hour", cal.Hour)
		}
		z.coolSP = z.adapter.Setpoint
	case StrategyBasic:
		sp := z.params.BasicSetpoint
		if z.params.OutdoorReset.Enabled {
			sp = z.params.OutdoorReset.setpoint(z.outdoor.Mean())
		}
		z.adapter.Override(sp)
		z.coolSP = z.params.clamp(z.adapter.Setpoint + z.params.BasicCoolingOffset)
	}

	prev := z.mode.Mode
	mode := z.mode.Next(coolSum, heatSum)
	if mode != prev {
		z.log.Debug("mode changed", "from", prev, "to", mode, "neutral_hours", z.mode.NeutralHours)
	}

	coolSP := z.coolSP
	z.last = Decide(DecisionInput{
		Mode:            mode,
		SlabTemperature: in.SlabTemperature,
		Setpoint:        z.adapter.Setpoint,
		CoolingSetpoint: &coolSP,
		Holding:         z.guard.Holding(),
	})
	return z.output(corr)
}

func (z *ZoneController) output(corr *Correction) Output {
	return Output{
		Zone:            z.name,
		Command:         z.last.Command,
		Actuators:       z.last.Command.Actuators(),
		Mode:            z.mode.Mode,
		SlabSetpoint:    z.adapter.Setpoint,
		CoolingSetpoint: z.coolSP,
		SetbackBias:     z.setback.Bias(),
		Reason:          z.last.Reason,
		Correction:      corr,
	}
}

// AfterReporting runs once the timestep's conditions are final. It returns a
// DaySummary at the last timestep of the day.
func (z *ZoneController) AfterReporting(shared *SharedContext, r Reading) (DaySummary, bool) {
	cal := shared.Calendar
	dt := z.params.Timestep()

	z.outdoor.Push(r.OutdoorTemperature)
	z.slab.Push(r.SlabTemperature)
	z.heating.Push(flag(r.HeatingActive))
	z.cooling.Push(flag(r.CoolingActive))

	z.extremes.Observe(r.ControlTemperature, z.params.Occupied(cal.Hour))
	if sameStep(cal.Hour, z.params.OccupiedEnd-dt, dt) {
		z.adapter.ComputeErrors(z.extremes.Max, z.extremes.Min)
	}

	z.mode.ObserveFlow(r.HeatingActive, r.CoolingActive, dt)
	z.guard.Observe(r.HeatingActive, r.CoolingActive, dt)

	if !sameStep(cal.Hour, 24, dt) {
		return DaySummary{}, false
	}
	z.priorCoolHours = float64(z.cooling.Sum()) * dt
	z.priorHeatHours = float64(z.heating.Sum()) * dt
	return DaySummary{
		Zone:         z.name,
		Day:          shared.DayIndex,
		DayOfWeek:    normalizeDay(cal.DayOfWeek),
		DesignDay:    cal.DesignDay,
		Mode:         z.mode.Mode,
		SlabSetpoint: z.adapter.Setpoint,
		CoolingError: z.adapter.CoolingError,
		HeatingError: z.adapter.HeatingError,
		MaxCtrlTemp:  z.extremes.Max,
		MinCtrlTemp:  z.extremes.Min,
		CoolHours:    z.priorCoolHours,
		HeatHours:    z.priorHeatHours,
		Setback:      z.setback.Active,
		OutdoorMean:  z.outdoor.Mean(),
		SlabMean:     z.slab.Mean(),
	}, true
}

func (z *ZoneController) Snapshot() Snapshot {
	dt := z.params.Timestep()
	return Snapshot{
		Zone:                   z.name,
		ControlSurface:         z.surface,
		ControlType:            z.params.ControlType,
		Strategy:               z.params.Strategy,
		Mode:                   z.mode.Mode,
		SlabSetpoint:           z.adapter.Setpoint,
		CoolingSetpoint:        z.coolSP,
		ComfortLower:           z.lower,
		ComfortUpper:           z.upper,
		MaxCtrlTemp:            z.extremes.Max,
		MinCtrlTemp:            z.extremes.Min,
		CoolingError:           z.adapter.CoolingError,
		HeatingError:           z.adapter.HeatingError,
		ContinuousNeutralHours: z.mode.NeutralHours,
		ContinuousActiveHours:  z.guard.ActiveHours,
		DailyCoolHours:         float64(z.cooling.Sum()) * dt,
		DailyHeatHours:         float64(z.heating.Sum()) * dt,
		PriorDayCoolHours:      z.priorCoolHours,
		PriorDayHeatHours:      z.priorHeatHours,
		SetbackActive:          z.setback.Active,
		SetbackBias:            z.setback.Bias(),
		OutdoorMean:            z.outdoor.Mean(),
		SlabMean:               z.slab.Mean(),
		Command:                z.last.Command,
		Actuators:              z.last.Command.Actuators(),
		Reason:                 z.last.Reason,
	}
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}
