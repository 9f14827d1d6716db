package testutil

import (
	"context"
	"fmt"

	"github.com/Agrid-Dev/radiantctl/internal/ports"
	"github.com/Agrid-Dev/radiantctl/internal/radiant"
)

// FakeZoneService is a reusable fake implementing ports.ZoneService.
// Put ONLY what multiple test packages need here.
type FakeZoneService struct {
	S ports.BuildingSnapshot

	BeforeDemandCalled bool
	BeforeDemandArg    ports.DemandFrame
	BeforeDemandOut    []radiant.Output
	BeforeDemandErr    error

	AfterReportingCalled bool
	AfterReportingArg    ports.ReportFrame
	AfterReportingOut    []radiant.DaySummary
	AfterReportingErr    error

	ResetCalls int
}

func NewFakeZoneService() *FakeZoneService {
	return &FakeZoneService{
		S: ports.BuildingSnapshot{
			ID:          "hq",
			Calendar:    radiant.Calendar{DayOfWeek: radiant.Wednesday, Hour: 10.5},
			DayIndex:    3,
			OutdoorMean: 12.5,
			Zones: []radiant.Snapshot{
				{
					Zone:            "North",
					ControlSurface:  "North Slab",
					Mode:            radiant.ModeHeating,
					SlabSetpoint:    21.5,
					CoolingSetpoint: 21.5,
					ComfortLower:    20,
					ComfortUpper:    24,
					MaxCtrlTemp:     22.25,
					MinCtrlTemp:     20.5,
					CoolingError:    1.25,
					HeatingError:    -0.5,
					Command:         radiant.CommandHeating,
					Actuators:       radiant.CommandHeating.Actuators(),
					Reason:          "slab below setpoint",
				},
				{
					Zone:            "South",
					ControlSurface:  "South Slab",
					Mode:            radiant.ModeCooling,
					SlabSetpoint:    23,
					CoolingSetpoint: 23,
					ComfortLower:    20,
					ComfortUpper:    24,
					MaxCtrlTemp:     24.5,
					MinCtrlTemp:     22,
					CoolingError:    -1,
					HeatingError:    -1.5,
					Command:         radiant.CommandOff,
					Actuators:       radiant.CommandOff.Actuators(),
					Reason:          "idle",
				},
			},
		},
	}
}

func (f *FakeZoneService) Snapshot() ports.BuildingSnapshot { return f.S }

func (f *FakeZoneService) Zone(name string) (radiant.Snapshot, error) {
	for _, z := range f.S.Zones {
		if z.Zone == name {
			return z, nil
		}
	}
	return radiant.Snapshot{}, fmt.Errorf("unknown zone %q", name)
}

func (f *FakeZoneService) BeforeDemand(_ context.Context, fr ports.DemandFrame) ([]radiant.Output, error) {
	f.BeforeDemandCalled = true
	f.BeforeDemandArg = fr
	if f.BeforeDemandErr != nil {
		return nil, f.BeforeDemandErr
	}
	f.S.Calendar = fr.Calendar
	return f.BeforeDemandOut, nil
}

func (f *FakeZoneService) AfterReporting(_ context.Context, fr ports.ReportFrame) ([]radiant.DaySummary, error) {
	f.AfterReportingCalled = true
	f.AfterReportingArg = fr
	if f.AfterReportingErr != nil {
		return nil, f.AfterReportingErr
	}
	return f.AfterReportingOut, nil
}

func (f *FakeZoneService) Reset() {
	f.ResetCalls++
	f.S.DayIndex = 0
}
