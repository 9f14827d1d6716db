package simulation

import (
	"math"
	"testing"
	"time"

	"github.com/Agrid-Dev/radiantctl/internal/radiant"
)

func TestValidatePlantParams(t *testing.T) {
	negative := DefaultPlantParams()
	negative.EnvelopeCoefficient = -0.1
	inverted := DefaultPlantParams()
	inverted.ColdWaterTemperature = 40

	tests := []struct {
		name   string
		params PlantParams
		want   error
	}{
		{"Valid params", DefaultPlantParams(), nil},
		{"Negative coefficient", negative, ErrNegativeCoefficient},
		{"Cold water warmer than hot water", inverted, ErrInvalidWaterTemperatures},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.params.Validate(); got != tt.want {
				t.Errorf("Got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlantStep(t *testing.T) {
	tests := []struct {
		name     string
		cmd      radiant.Command
		outdoor  float64
		occupied bool
		want     func(before, after PlantState) bool
	}{
		{
			name:    "Hot water warms the slab",
			cmd:     radiant.CommandHeating,
			outdoor: 21,
			want:    func(b, a PlantState) bool { return a.Slab > b.Slab },
		},
		{
			name:    "Cold water cools the slab",
			cmd:     radiant.CommandCooling,
			outdoor: 21,
			want:    func(b, a PlantState) bool { return a.Slab < b.Slab },
		},
		{
			name:    "Cold outdoor air cools the room",
			cmd:     radiant.CommandOff,
			outdoor: -5,
			want:    func(b, a PlantState) bool { return a.Air < b.Air },
		},
		{
			name:     "Occupancy warms the room",
			cmd:      radiant.CommandOff,
			outdoor:  21,
			occupied: true,
			want:     func(b, a PlantState) bool { return a.Air > b.Air },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPlant(DefaultPlantParams())
			if err != nil {
				t.Fatalf("NewPlant err=%v", err)
			}
			before := p.State()
			after := p.Step(tt.cmd, tt.outdoor, tt.occupied, 15*time.Minute)
			if !tt.want(before, after) {
				t.Errorf("unexpected transition %+v -> %+v", before, after)
			}
		})
	}
}

func TestPlantEquilibrium(t *testing.T) {
	params := DefaultPlantParams()
	params.InitialAir, params.InitialSlab = 18, 18
	p, _ := NewPlant(params)
	for i := 0; i < 10; i++ {
		p.Step(radiant.CommandOff, 18, false, time.Hour)
	}
	if s := p.State(); s.Air != 18 || s.Slab != 18 {
		t.Errorf("state drifted at equilibrium: %+v", s)
	}
	p.Step(radiant.CommandHeating, 18, false, time.Hour)
	p.Reset()
	if s := p.State(); s.Air != 18 || s.Slab != 18 {
		t.Errorf("Reset did not restore the initial state: %+v", s)
	}
}

func TestWeatherShape(t *testing.T) {
	w := DefaultWeather()
	if winter, summer := w.Temperature(15, 15), w.Temperature(197, 15); winter >= summer {
		t.Errorf("winter %v not colder than summer %v", winter, summer)
	}
	if night, afternoon := w.Temperature(100, 3), w.Temperature(100, 15); night >= afternoon {
		t.Errorf("night %v not colder than afternoon %v", night, afternoon)
	}
	if got := w.Temperature(15, 3); math.Abs(got-(w.Mean-w.AnnualAmplitude-w.DiurnalAmplitude)) > 1e-9 {
		t.Errorf("coldest point=%v", got)
	}
}
