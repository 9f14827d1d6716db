package building

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Agrid-Dev/radiantctl/internal/ports"
	"github.com/Agrid-Dev/radiantctl/internal/radiant"
)

type Options struct {
	ID            string
	Params        radiant.Params // building-wide calendar and timestep
	DesignPeriods int
	// Parallelism caps concurrent zone updates. 0 means no limit.
	Parallelism int
}

// Building owns the shared context and one controller per radiant zone. It
// implements ports.ZoneService.
type Building struct {
	mu     sync.RWMutex
	opts   Options
	shared *radiant.SharedContext
	zones  []*radiant.ZoneController
	index  map[string]int
	log    *slog.Logger

	// last is the calendar of the last accepted before-demand frame. Frames
	// repeating it are answered from lastOuts and lastDays without stepping.
	last     *radiant.Calendar
	lastOuts []radiant.Output
	reported bool
	lastDays []radiant.DaySummary
}

var _ ports.ZoneService = (*Building)(nil)

func New(opts Options, setups []radiant.ZoneSetup, logger *slog.Logger) (*Building, error) {
	if len(setups) == 0 {
		return nil, ErrNoZones
	}
	if opts.Parallelism < 0 {
		return nil, ErrInvalidParallel
	}
	if logger == nil {
		logger = slog.Default()
	}
	shared, err := radiant.NewSharedContext(opts.Params, opts.DesignPeriods)
	if err != nil {
		return nil, fmt.Errorf("building %q: %w", opts.ID, err)
	}
	b := &Building{
		opts:   opts,
		shared: shared,
		index:  make(map[string]int, len(setups)),
		log:    logger.With("building", opts.ID),
	}
	for _, s := range setups {
		if _, dup := b.index[s.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateZone, s.Name)
		}
		z, err := radiant.New(s, b.log)
		if err != nil {
			return nil, err
		}
		b.index[s.Name] = len(b.zones)
		b.zones = append(b.zones, z)
	}
	b.log.Info("building ready", "zones", len(b.zones), "design_periods", opts.DesignPeriods)
	return b, nil
}

func (b *Building) ID() string { return b.opts.ID }

func (b *Building) ZoneNames() []string {
	names := make([]string, len(b.zones))
	for i, z := range b.zones {
		names[i] = z.Name()
	}
	return names
}

// Reset is the environment initialization call point for every zone.
func (b *Building) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shared.Reset()
	for _, z := range b.zones {
		z.Reset()
	}
	b.last, b.lastOuts, b.reported, b.lastDays = nil, nil, false, nil
	b.log.Debug("building reset")
}

func (b *Building) Snapshot() ports.BuildingSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s := ports.BuildingSnapshot{
		ID:          b.opts.ID,
		Calendar:    b.shared.Calendar,
		Flags:       b.shared.Flags,
		DayIndex:    b.shared.DayIndex,
		OutdoorMean: b.shared.OutdoorMean(),
		Zones:       make([]radiant.Snapshot, len(b.zones)),
	}
	for i, z := range b.zones {
		s.Zones[i] = z.Snapshot()
	}
	return s
}

func (b *Building) Zone(name string) (radiant.Snapshot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	i, ok := b.index[name]
	if !ok {
		return radiant.Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownZone, name)
	}
	return b.zones[i].Snapshot(), nil
}

// BeforeDemand advances the shared calendar and evaluates every zone in
// parallel. Outputs are returned in zone configuration order. A frame that
// repeats the last calendar is answered with the outputs already computed for it.
// Cancellation is only honored before any state changes.
func (b *Building) BeforeDemand(ctx context.Context, f ports.DemandFrame) ([]radiant.Output, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	inputs := make([]radiant.DemandInput, len(b.zones))
	for i, z := range b.zones {
		slab, ok := f.Slab[z.Name()]
		if !ok {
			return nil, fmt.Errorf("%w: slab temperature for %q", ErrMissingReading, z.Name())
		}
		inputs[i] = radiant.DemandInput{SlabTemperature: slab}
	}
	if b.last != nil && *b.last == f.Calendar {
		b.log.Debug("replaying before-demand frame", "day_of_week", f.Calendar.DayOfWeek, "hour", f.Calendar.Hour)
		return slices.Clone(b.lastOuts), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := b.shared.Advance(f.Calendar); err != nil {
		return nil, err
	}

	outs := make([]radiant.Output, len(b.zones))
	b.each(func(i int, z *radiant.ZoneController) {
		outs[i] = z.BeforeDemand(b.shared, inputs[i])
	})
	cal := f.Calendar
	b.last, b.lastOuts, b.reported, b.lastDays = &cal, outs, false, nil
	return slices.Clone(outs), nil
}

// AfterReporting feeds the finalized conditions of the last before-demand
// timestep to every zone and returns the day summaries emitted at the end of a
// day. Repeating it returns the same summaries without stepping again.
func (b *Building) AfterReporting(ctx context.Context, f ports.ReportFrame) ([]radiant.DaySummary, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.last == nil || *b.last != f.Calendar {
		return nil, ErrStepOutOfOrder
	}
	if b.reported {
		b.log.Debug("replaying after-reporting frame", "day_of_week", f.Calendar.DayOfWeek, "hour", f.Calendar.Hour)
		return slices.Clone(b.lastDays), nil
	}
	readings := make([]radiant.Reading, len(b.zones))
	for i, z := range b.zones {
		r, ok := f.Readings[z.Name()]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingReading, z.Name())
		}
		r.OutdoorTemperature = f.OutdoorTemperature
		readings[i] = r
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.shared.ObserveOutdoor(f.OutdoorTemperature)

	summaries := make([]radiant.DaySummary, len(b.zones))
	emitted := make([]bool, len(b.zones))
	b.each(func(i int, z *radiant.ZoneController) {
		summaries[i], emitted[i] = z.AfterReporting(b.shared, readings[i])
	})
	var out []radiant.DaySummary
	for i, ok := range emitted {
		if ok {
			out = append(out, summaries[i])
		}
	}
	b.reported, b.lastDays = true, out
	return slices.Clone(out), nil
}

// each runs fn for every zone concurrently and always completes the whole
// step. Zones own disjoint state and only read the shared context, which is
// not mutated until all of them return.
func (b *Building) each(fn func(i int, z *radiant.ZoneController)) {
	var g errgroup.Group
	if b.opts.Parallelism > 0 {
		g.SetLimit(b.opts.Parallelism)
	}
	for i, z := range b.zones {
		g.Go(func() error {
			fn(i, z)
			return nil
		})
	}
	_ = g.Wait()
}
