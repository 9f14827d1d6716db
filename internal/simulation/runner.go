package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Agrid-Dev/radiantctl/internal/ports"
	"github.com/Agrid-Dev/radiantctl/internal/radiant"
)

// Environment is one contiguous simulated period. The building is reset at
// the start of every environment.
type Environment struct {
	Name           string
	Days           int // >= 1
	StartDayOfWeek int // 1 = Sunday
	StartDayOfYear int // 1-365
	DesignDay      bool
}

// Step is what a StepObserver sees after each timestep.
type Step struct {
	Environment string
	Calendar    radiant.Calendar
	Outdoor     float64
	Outputs     []radiant.Output
	Plants      map[string]PlantState
}

type StepObserver func(Step)

type Result struct {
	Environments int
	Steps        int
	Summaries    int
}

// Runner plays the role of the simulation engine: it drives both call points
// of every zone against a plant model and synthetic weather.
type Runner struct {
	svc       ports.ZoneService
	params    radiant.Params
	plants    map[string]*Plant
	weather   Weather
	recorders []ports.DayRecorder
	log       *slog.Logger

	// Pace throttles the loop to one timestep per tick when > 0.
	Pace     time.Duration
	Observer StepObserver
}

func NewRunner(svc ports.ZoneService, params radiant.Params, plants map[string]*Plant, w Weather, logger *slog.Logger, recorders ...ports.DayRecorder) (*Runner, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	for _, z := range svc.Snapshot().Zones {
		if _, ok := plants[z.Zone]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingPlant, z.Zone)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		svc:       svc,
		params:    params,
		plants:    plants,
		weather:   w,
		recorders: recorders,
		log:       logger,
	}, nil
}

// Run simulates the environments in order and returns once all are done or
// ctx is canceled.
func (r *Runner) Run(ctx context.Context, envs []Environment) (Result, error) {
	var res Result
	var tick <-chan time.Time
	if r.Pace > 0 {
		ticker := time.NewTicker(r.Pace)
		defer ticker.Stop()
		tick = ticker.C
	}

	seen := make(map[string]bool, len(envs))
	for _, env := range envs {
		if env.Days < 1 || env.StartDayOfWeek < 1 || env.StartDayOfWeek > 7 || env.StartDayOfYear < 1 {
			return res, fmt.Errorf("%w: %q", ErrInvalidEnvironment, env.Name)
		}
		// summaries are keyed by environment name
		if seen[env.Name] {
			return res, fmt.Errorf("%w: duplicate name %q", ErrInvalidEnvironment, env.Name)
		}
		seen[env.Name] = true
		r.svc.Reset()
		for _, p := range r.plants {
			p.Reset()
		}
		r.log.Info("environment started", "name", env.Name, "days", env.Days, "design_day", env.DesignDay)

		for d := 0; d < env.Days; d++ {
			cal := radiant.Calendar{
				DayOfWeek: (env.StartDayOfWeek-1+d)%7 + 1,
				DesignDay: env.DesignDay,
			}
			doy := (env.StartDayOfYear-1+d)%365 + 1
			for k := 1; k <= r.params.TrendCapacity(); k++ {
				if tick != nil {
					select {
					case <-ctx.Done():
						return res, ctx.Err()
					case <-tick:
					}
				} else if err := ctx.Err(); err != nil {
					return res, err
				}
				cal.Hour = float64(k) / float64(r.params.TimestepsPerHour)
				n, err := r.step(ctx, env, cal, doy)
				if err != nil {
					return res, fmt.Errorf("%s day %d hour %.2f: %w", env.Name, d, cal.Hour, err)
				}
				res.Steps++
				res.Summaries += n
			}
		}
		res.Environments++
		r.log.Info("environment finished", "name", env.Name, "steps", res.Steps)
	}
	return res, nil
}

func (r *Runner) step(ctx context.Context, env Environment, cal radiant.Calendar, doy int) (int, error) {
	dt := time.Hour / time.Duration(r.params.TimestepsPerHour)
	// weather is sampled at the middle of the timestep
	outdoor := r.weather.Temperature(doy, cal.Hour-dt.Hours()/2)

	df := ports.DemandFrame{Calendar: cal, Slab: make(map[string]float64, len(r.plants))}
	for name, p := range r.plants {
		df.Slab[name] = p.State().Slab
	}
	outs, err := r.svc.BeforeDemand(ctx, df)
	if err != nil {
		return 0, err
	}

	occupied := !r.params.Flags(cal).Unoccupied
	rf := ports.ReportFrame{Calendar: cal, OutdoorTemperature: outdoor, Readings: make(map[string]radiant.Reading, len(outs))}
	states := make(map[string]PlantState, len(outs))
	for _, o := range outs {
		s := r.plants[o.Zone].Step(o.Command, outdoor, occupied, dt)
		states[o.Zone] = s
		rf.Readings[o.Zone] = radiant.Reading{
			ControlTemperature: s.Air,
			SlabTemperature:    s.Slab,
			HeatingActive:      o.Command == radiant.CommandHeating,
			CoolingActive:      o.Command == radiant.CommandCooling,
		}
	}
	summaries, err := r.svc.AfterReporting(ctx, rf)
	if err != nil {
		return 0, err
	}
	if r.Observer != nil {
		r.Observer(Step{Environment: env.Name, Calendar: cal, Outdoor: outdoor, Outputs: outs, Plants: states})
	}
	for _, s := range summaries {
		s.Environment = env.Name
		for _, rec := range r.recorders {
			if err := rec.RecordDay(ctx, s); err != nil {
				return 0, fmt.Errorf("record day summary for %q: %w", s.Zone, err)
			}
		}
	}
	return len(summaries), nil
}
