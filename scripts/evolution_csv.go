package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Agrid-Dev/radiantctl/internal/building"
	"github.com/Agrid-Dev/radiantctl/internal/radiant"
	"github.com/Agrid-Dev/radiantctl/internal/simulation"
)

// SimulateZone traces one zone over a run period into a CSV file, one row per timestep.
func SimulateZone(days int, startDayOfYear int, filename string) error {
	params := radiant.DefaultParams()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	b, err := building.New(building.Options{ID: "trace", Params: params}, []radiant.ZoneSetup{{
		Name:           "Zone 1",
		ControlSurface: "Zone 1 Slab",
		Thermostat:     &radiant.DualSetpoint{Heating: 20, Cooling: 24},
		Params:         params,
	}}, log)
	if err != nil {
		return fmt.Errorf("failed to create building: %v", err)
	}
	plant, err := simulation.NewPlant(simulation.DefaultPlantParams())
	if err != nil {
		return fmt.Errorf("failed to create plant: %v", err)
	}
	runner, err := simulation.NewRunner(b, params, map[string]*simulation.Plant{"Zone 1": plant}, simulation.DefaultWeather(), log)
	if err != nil {
		return fmt.Errorf("failed to create runner: %v", err)
	}

	// Create CSV file
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"DayOfWeek", "Hour", "Outdoor", "Air", "Slab", "SlabSetpoint", "Mode", "Command", "SetbackBias"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	var writeErr error
	runner.Observer = func(s simulation.Step) {
		if writeErr != nil || len(s.Outputs) == 0 {
			return
		}
		o := s.Outputs[0]
		st := s.Plants[o.Zone]
		writeErr = writer.Write([]string{
			fmt.Sprintf("%d", s.Calendar.DayOfWeek),
			fmt.Sprintf("%.2f", s.Calendar.Hour),
			fmt.Sprintf("%.2f", s.Outdoor),
			fmt.Sprintf("%.2f", st.Air),
			fmt.Sprintf("%.2f", st.Slab),
			fmt.Sprintf("%.2f", o.SlabSetpoint),
			o.Mode.String(),
			o.Command.String(),
			fmt.Sprintf("%.1f", o.SetbackBias),
		})
	}

	if _, err := runner.Run(context.Background(), []simulation.Environment{{
		Name:           "trace",
		Days:           days,
		StartDayOfWeek: radiant.Monday,
		StartDayOfYear: startDayOfYear,
	}}); err != nil {
		return err
	}
	if writeErr != nil {
		return fmt.Errorf("failed to write CSV record: %v", writeErr)
	}
	return nil
}

func main() {
	if err := SimulateZone(28, 90, "radiantctl.csv"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
