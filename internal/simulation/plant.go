package simulation

import (
	"time"

	"github.com/Agrid-Dev/radiantctl/internal/radiant"
)

// PlantParams describes a two-node lumped zone: room air and slab. Coefficients
// are inverse time constants in 1/h.
type PlantParams struct {
	EnvelopeCoefficient  float64 // air to outdoor
	AirSlabCoefficient   float64 // slab to air, seen from the air node
	SlabAirCoefficient   float64 // air to slab, seen from the slab node
	WaterCoefficient     float64 // water to slab while a loop circulates
	HotWaterTemperature  float64
	ColdWaterTemperature float64
	OccupiedGain         float64 // K/h added to the air node while occupied
	InitialAir           float64
	InitialSlab          float64
}

func DefaultPlantParams() PlantParams {
	return PlantParams{
		EnvelopeCoefficient:  0.05,
		AirSlabCoefficient:   0.4,
		SlabAirCoefficient:   0.08,
		WaterCoefficient:     0.25,
		HotWaterTemperature:  35,
		ColdWaterTemperature: 16,
		OccupiedGain:         0.6,
		InitialAir:           21,
		InitialSlab:          21,
	}
}

func (p *PlantParams) Validate() error {
	for _, c := range []float64{p.EnvelopeCoefficient, p.AirSlabCoefficient, p.SlabAirCoefficient, p.WaterCoefficient, p.OccupiedGain} {
		if c < 0 {
			return ErrNegativeCoefficient
		}
	}
	if p.ColdWaterTemperature >= p.HotWaterTemperature {
		return ErrInvalidWaterTemperatures
	}
	return nil
}

type PlantState struct {
	Air  float64
	Slab float64
}

// Plant integrates one zone with explicit Euler steps.
type Plant struct {
	params PlantParams
	s      PlantState
}

func NewPlant(params PlantParams) (*Plant, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	p := &Plant{params: params}
	p.Reset()
	return p, nil
}

func (p *Plant) Reset() {
	p.s = PlantState{Air: p.params.InitialAir, Slab: p.params.InitialSlab}
}

func (p *Plant) State() PlantState { return p.s }

// Step advances the plant by dt with the given loop command.
func (p *Plant) Step(cmd radiant.Command, outdoor float64, occupied bool, dt time.Duration) PlantState {
	h := dt.Hours()
	air, slab := p.s.Air, p.s.Slab

	dAir := p.params.EnvelopeCoefficient*(outdoor-air) + p.params.AirSlabCoefficient*(slab-air)
	if occupied {
		dAir += p.params.OccupiedGain
	}
	dSlab := p.params.SlabAirCoefficient * (air - slab)
	switch cmd {
	case radiant.CommandHeating:
		dSlab += p.params.WaterCoefficient * (p.params.HotWaterTemperature - slab)
	case radiant.CommandCooling:
		dSlab += p.params.WaterCoefficient * (p.params.ColdWaterTemperature - slab)
	}

	p.s.Air = air + dAir*h
	p.s.Slab = slab + dSlab*h
	return p.s
}
