// Package wire holds the JSON step frames shared by the HTTP and MQTT
// controllers, which let an external simulation engine drive both call points.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Agrid-Dev/radiantctl/internal/ports"
	"github.com/Agrid-Dev/radiantctl/internal/radiant"
)

var (
	ErrMissingCalendar = errors.New("frame needs day_of_week and hour")
	ErrInvalidCalendar = errors.New("day_of_week must be 1-7 and hour within [0, 24]")
	ErrMissingZones    = errors.New("frame has no zones")
)

type Calendar struct {
	DayOfWeek *int     `json:"day_of_week"`
	Hour      *float64 `json:"hour"`
	DesignDay bool     `json:"design_day"`
}

func (c Calendar) toDomain() (radiant.Calendar, error) {
	if c.DayOfWeek == nil || c.Hour == nil {
		return radiant.Calendar{}, ErrMissingCalendar
	}
	if *c.DayOfWeek < 1 || *c.DayOfWeek > 7 || *c.Hour < 0 || *c.Hour > 24 {
		return radiant.Calendar{}, ErrInvalidCalendar
	}
	return radiant.Calendar{DayOfWeek: *c.DayOfWeek, Hour: *c.Hour, DesignDay: c.DesignDay}, nil
}

// BeforeDemand: {"day_of_week":2,"hour":0.25,"slab":{"North":21.3}}
type BeforeDemand struct {
	Calendar
	Slab map[string]float64 `json:"slab"`
}

type ZoneReading struct {
	Control float64 `json:"control"`
	Slab    float64 `json:"slab"`
	Heating bool    `json:"heating"`
	Cooling bool    `json:"cooling"`
}

// AfterReporting: {"day_of_week":2,"hour":0.25,"outdoor":3.1,"zones":{"North":{"control":21,"slab":21.3}}}
type AfterReporting struct {
	Calendar
	Outdoor float64                `json:"outdoor"`
	Zones   map[string]ZoneReading `json:"zones"`
}

func decodeStrict(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func DecodeBeforeDemand(r io.Reader) (ports.DemandFrame, error) {
	var f BeforeDemand
	if err := decodeStrict(r, &f); err != nil {
		return ports.DemandFrame{}, err
	}
	cal, err := f.toDomain()
	if err != nil {
		return ports.DemandFrame{}, err
	}
	if len(f.Slab) == 0 {
		return ports.DemandFrame{}, ErrMissingZones
	}
	return ports.DemandFrame{Calendar: cal, Slab: f.Slab}, nil
}

func DecodeAfterReporting(r io.Reader) (ports.ReportFrame, error) {
	var f AfterReporting
	if err := decodeStrict(r, &f); err != nil {
		return ports.ReportFrame{}, err
	}
	cal, err := f.toDomain()
	if err != nil {
		return ports.ReportFrame{}, err
	}
	if len(f.Zones) == 0 {
		return ports.ReportFrame{}, ErrMissingZones
	}
	out := ports.ReportFrame{
		Calendar:           cal,
		OutdoorTemperature: f.Outdoor,
		Readings:           make(map[string]radiant.Reading, len(f.Zones)),
	}
	for name, z := range f.Zones {
		out.Readings[name] = radiant.Reading{
			ControlTemperature: z.Control,
			SlabTemperature:    z.Slab,
			HeatingActive:      z.Heating,
			CoolingActive:      z.Cooling,
		}
	}
	return out, nil
}

// Command is the per-zone answer to a before-demand frame.
type Command struct {
	Zone            string  `json:"zone"`
	Command         string  `json:"command"`
	ColdWater       float64 `json:"cold_water"`
	HotWater        float64 `json:"hot_water"`
	Mode            string  `json:"mode"`
	SlabSetpoint    float64 `json:"slab_setpoint"`
	CoolingSetpoint float64 `json:"cooling_setpoint"`
	SetbackBias     float64 `json:"setback_bias"`
	Reason          string  `json:"reason"`
}

func FromOutput(o radiant.Output) Command {
	return Command{
		Zone:            o.Zone,
		Command:         o.Command.String(),
		ColdWater:       o.Actuators.ColdWater,
		HotWater:        o.Actuators.HotWater,
		Mode:            o.Mode.String(),
		SlabSetpoint:    o.SlabSetpoint,
		CoolingSetpoint: o.CoolingSetpoint,
		SetbackBias:     o.SetbackBias,
		Reason:          o.Reason,
	}
}

type Zone struct {
	Zone                   string  `json:"zone"`
	ControlSurface         string  `json:"control_surface"`
	ControlType            string  `json:"control_type"`
	Strategy               string  `json:"strategy"`
	Mode                   string  `json:"mode"`
	SlabSetpoint           float64 `json:"slab_setpoint"`
	CoolingSetpoint        float64 `json:"cooling_setpoint"`
	ComfortLower           float64 `json:"comfort_lower"`
	ComfortUpper           float64 `json:"comfort_upper"`
	MaxCtrlTemp            float64 `json:"max_ctrl_temp"`
	MinCtrlTemp            float64 `json:"min_ctrl_temp"`
	CoolingError           float64 `json:"cooling_error"`
	HeatingError           float64 `json:"heating_error"`
	ContinuousNeutralHours float64 `json:"continuous_neutral_hours"`
	ContinuousActiveHours  float64 `json:"continuous_active_hours"`
	DailyCoolHours         float64 `json:"daily_cool_hours"`
	DailyHeatHours         float64 `json:"daily_heat_hours"`
	PriorDayCoolHours      float64 `json:"prior_day_cool_hours"`
	PriorDayHeatHours      float64 `json:"prior_day_heat_hours"`
	SetbackActive          bool    `json:"setback_active"`
	SetbackBias            float64 `json:"setback_bias"`
	OutdoorMean            float64 `json:"outdoor_mean"`
	SlabMean               float64 `json:"slab_mean"`
	Command                string  `json:"command"`
	ColdWater              float64 `json:"cold_water"`
	HotWater               float64 `json:"hot_water"`
	Reason                 string  `json:"reason"`
}

func FromSnapshot(s radiant.Snapshot) Zone {
	return Zone{
		Zone:                   s.Zone,
		ControlSurface:         s.ControlSurface,
		ControlType:            s.ControlType.String(),
		Strategy:               s.Strategy.String(),
		Mode:                   s.Mode.String(),
		SlabSetpoint:           s.SlabSetpoint,
		CoolingSetpoint:        s.CoolingSetpoint,
		ComfortLower:           s.ComfortLower,
		ComfortUpper:           s.ComfortUpper,
		MaxCtrlTemp:            s.MaxCtrlTemp,
		MinCtrlTemp:            s.MinCtrlTemp,
		CoolingError:           s.CoolingError,
		HeatingError:           s.HeatingError,
		ContinuousNeutralHours: s.ContinuousNeutralHours,
		ContinuousActiveHours:  s.ContinuousActiveHours,
		DailyCoolHours:         s.DailyCoolHours,
		DailyHeatHours:         s.DailyHeatHours,
		PriorDayCoolHours:      s.PriorDayCoolHours,
		PriorDayHeatHours:      s.PriorDayHeatHours,
		SetbackActive:          s.SetbackActive,
		SetbackBias:            s.SetbackBias,
		OutdoorMean:            s.OutdoorMean,
		SlabMean:               s.SlabMean,
		Command:                s.Command.String(),
		ColdWater:              s.Actuators.ColdWater,
		HotWater:               s.Actuators.HotWater,
		Reason:                 s.Reason,
	}
}

type Building struct {
	ID          string  `json:"id"`
	DayOfWeek   int     `json:"day_of_week"`
	Hour        float64 `json:"hour"`
	DesignDay   bool    `json:"design_day"`
	Weekend     bool    `json:"weekend"`
	Unoccupied  bool    `json:"unoccupied"`
	DayIndex    int     `json:"day_index"`
	OutdoorMean float64 `json:"outdoor_mean"`
	Zones       []Zone  `json:"zones"`
}

func FromBuilding(b ports.BuildingSnapshot) Building {
	out := Building{
		ID:          b.ID,
		DayOfWeek:   b.Calendar.DayOfWeek,
		Hour:        b.Calendar.Hour,
		DesignDay:   b.Calendar.DesignDay,
		Weekend:     b.Flags.Weekend,
		Unoccupied:  b.Flags.Unoccupied,
		DayIndex:    b.DayIndex,
		OutdoorMean: b.OutdoorMean,
		Zones:       make([]Zone, len(b.Zones)),
	}
	for i, z := range b.Zones {
		out.Zones[i] = FromSnapshot(z)
	}
	return out
}
