package wire

import (
	"errors"
	"strings"
	"testing"

	"github.com/Agrid-Dev/radiantctl/internal/radiant"
	"github.com/Agrid-Dev/radiantctl/internal/testutil"
)

func TestDecodeBeforeDemand(t *testing.T) {
	f, err := DecodeBeforeDemand(strings.NewReader(`{"day_of_week":1,"hour":24,"design_day":true,"slab":{"North":21.3}}`))
	if err != nil {
		t.Fatal(err)
	}
	want := radiant.Calendar{DayOfWeek: radiant.Sunday, Hour: 24, DesignDay: true}
	if f.Calendar != want {
		t.Fatalf("calendar: got %+v want %+v", f.Calendar, want)
	}
	if f.Slab["North"] != 21.3 {
		t.Fatalf("slab: got %v", f.Slab)
	}
}

func TestDecodeBeforeDemandErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want error
	}{
		{"missing hour", `{"day_of_week":1,"slab":{"North":1}}`, ErrMissingCalendar},
		{"missing day", `{"hour":1,"slab":{"North":1}}`, ErrMissingCalendar},
		{"day zero", `{"day_of_week":0,"hour":1,"slab":{"North":1}}`, ErrInvalidCalendar},
		{"hour past midnight", `{"day_of_week":3,"hour":24.5,"slab":{"North":1}}`, ErrInvalidCalendar},
		{"negative hour", `{"day_of_week":3,"hour":-1,"slab":{"North":1}}`, ErrInvalidCalendar},
		{"no zones", `{"day_of_week":3,"hour":1,"slab":{}}`, ErrMissingZones},
		{"unknown field", `{"day_of_week":3,"hour":1,"slab":{"North":1},"x":1}`, nil},
		{"truncated", `{"day_of_week":3`, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeBeforeDemand(strings.NewReader(tc.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDecodeAfterReporting(t *testing.T) {
	f, err := DecodeAfterReporting(strings.NewReader(`{
		"day_of_week": 6, "hour": 17.25, "outdoor": 31.5,
		"zones": {
			"North": {"control": 24.5, "slab": 22, "cooling": true},
			"South": {"control": 20.5, "slab": 21, "heating": true}
		}
	}`))
	if err != nil {
		t.Fatal(err)
	}
	if f.Calendar.DayOfWeek != radiant.Friday || f.Calendar.Hour != 17.25 || f.OutdoorTemperature != 31.5 {
		t.Fatalf("unexpected frame %+v", f)
	}
	north := radiant.Reading{ControlTemperature: 24.5, SlabTemperature: 22, CoolingActive: true}
	if f.Readings["North"] != north {
		t.Fatalf("north: got %+v want %+v", f.Readings["North"], north)
	}
	if !f.Readings["South"].HeatingActive || f.Readings["South"].CoolingActive {
		t.Fatalf("south flags: %+v", f.Readings["South"])
	}

	if _, err := DecodeAfterReporting(strings.NewReader(`{"day_of_week":6,"hour":1,"zones":{}}`)); !errors.Is(err, ErrMissingZones) {
		t.Fatalf("expected ErrMissingZones, got %v", err)
	}
}

func TestFromBuilding(t *testing.T) {
	s := testutil.NewFakeZoneService().Snapshot()
	s.Flags = radiant.CalendarFlags{Weekend: true}

	b := FromBuilding(s)
	if b.ID != "hq" || b.DayOfWeek != radiant.Wednesday || b.Hour != 10.5 || !b.Weekend {
		t.Fatalf("unexpected building %+v", b)
	}
	if len(b.Zones) != 2 {
		t.Fatalf("expected 2 zones, got %d", len(b.Zones))
	}
	n := b.Zones[0]
	if n.Mode != "heating" || n.Command != "heating" || n.HotWater != 60 || n.ColdWater != 100 {
		t.Fatalf("unexpected north zone %+v", n)
	}
}

func TestFromOutput(t *testing.T) {
	c := FromOutput(radiant.Output{
		Zone:         "South",
		Command:      radiant.CommandCooling,
		Actuators:    radiant.CommandCooling.Actuators(),
		Mode:         radiant.ModeCooling,
		SlabSetpoint: 22.5,
		SetbackBias:  -1,
		Reason:       "slab above setpoint",
	})
	if c.Command != "cooling" || c.ColdWater != 0 || c.HotWater != -60 || c.SetbackBias != -1 {
		t.Fatalf("unexpected command %+v", c)
	}
}
