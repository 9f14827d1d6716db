package ports

import (
	"context"

	"github.com/Agrid-Dev/radiantctl/internal/radiant"
)

// DemandFrame carries the inputs of the before-demand call point for every zone.
type DemandFrame struct {
	Calendar radiant.Calendar
	Slab     map[string]float64 // slab temperature per zone
}

// ReportFrame carries the finalized conditions of a timestep.
type ReportFrame struct {
	Calendar           radiant.Calendar
	OutdoorTemperature float64
	Readings           map[string]radiant.Reading
}

// BuildingSnapshot is a read-only view of the building and all its zones.
type BuildingSnapshot struct {
	ID          string
	Calendar    radiant.Calendar
	Flags       radiant.CalendarFlags
	DayIndex    int
	OutdoorMean float64
	Zones       []radiant.Snapshot
}

// ZoneService is the control-plane port used by controllers (HTTP/MQTT/Modbus) and the simulation runner.
type ZoneService interface {
	Snapshot() BuildingSnapshot
	Zone(name string) (radiant.Snapshot, error)
	BeforeDemand(ctx context.Context, f DemandFrame) ([]radiant.Output, error)
	AfterReporting(ctx context.Context, f ReportFrame) ([]radiant.DaySummary, error)
	Reset()
}

// DayRecorder persists or forwards daily zone summaries.
type DayRecorder interface {
	RecordDay(ctx context.Context, s radiant.DaySummary) error
}
