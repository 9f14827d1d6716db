package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Agrid-Dev/radiantctl/internal/radiant"
)

func TestEnvKeyTransform_TopLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"BUILDING_ID", "building_id"},
		{"CONTROLLER", "controller"},
		{"ADDR", "addr"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		got := envKeyTransform(tt.in)
		if got != tt.want {
			t.Fatalf("envKeyTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEnvKeyTransform_Controllers(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"CONTROLLERS_HTTP_ADDR", "controllers.http.addr"},
		{"CONTROLLERS_MQTT_PUBLISH_INTERVAL", "controllers.mqtt.publish_interval"},
		{"CONTROLLERS_MODBUS_UNIT_ID", "controllers.modbus.unit_id"},
		{"CONTROLLERS_HTTP", "controllers_http"},   // not enough parts -> fallback
		{"CONTROLLERS__ADDR", "controllers..addr"}, // edge case
		{"controllers_HTTP_addr", "controllers.http.addr"},
	}

	for _, tt := range tests {
		got := envKeyTransform(tt.in)
		if got != tt.want {
			t.Fatalf("envKeyTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEnvKeyTransform_Sections(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"CONTROLLER_PROPORTIONAL_GAIN", "controller.proportional_gain"},
		{"CONTROLLER_OUTDOOR_RESET_ENABLED", "controller.outdoor_reset.enabled"},
		{"SIMULATION_TIMESTEPS_PER_HOUR", "simulation.timesteps_per_hour"},
		{"SIMULATION_PLANT_HOT_WATER_TEMPERATURE", "simulation.plant.hot_water_temperature"},
		{"SIMULATION_WEATHER_MEAN", "simulation.weather.mean"},
		{"KAFKA_BROKERS", "kafka.brokers"},
		{"LOG_LEVEL", "log.level"},
		{"STORE_DSN", "store.dsn"},
		{"SIMULATION", "simulation"}, // not enough parts -> passthrough
	}

	for _, tt := range tests {
		got := envKeyTransform(tt.in)
		if got != tt.want {
			t.Fatalf("envKeyTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BuildingID != "default" || len(cfg.Zones) != 1 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if !cfg.Controllers.HTTP.Enabled || cfg.Controllers.HTTP.Addr != ":8080" {
		t.Fatalf("expected http enabled on :8080, got %+v", cfg.Controllers.HTTP)
	}
	if cfg.Controller.TimestepsPerHour != 4 || cfg.Controller.ProportionalGain != 0.3 {
		t.Fatalf("unexpected controller defaults %+v", cfg.Controller)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "radiantctl.yaml")
	yml := `
building_id: hq
controller:
  proportional_gain: 0.2
  control_type: SurfaceInteriorTemperature
zones:
  - name: North
    control_surface: North Slab
    heating_setpoint: 20
    cooling_setpoint: 24
  - name: South
    control_surface: South Slab
    heating_setpoint: 21
    cooling_setpoint: 25
    initial_setpoint: 23
    proportional_gain: 0.1
controllers:
  mqtt:
    enabled: true
    publish_interval: 5s
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RADIANTCTL_CONTROLLER_OCCUPIED_END", "17")
	t.Setenv("RADIANTCTL_SIMULATION_DAYS", "14")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BuildingID != "hq" || cfg.Controller.OccupiedEnd != 17 || cfg.Simulation.Days != 14 {
		t.Fatalf("layering failed: %+v", cfg)
	}
	if cfg.Controllers.MQTT.PublishInterval != 5*time.Second {
		t.Fatalf("expected 5s publish interval, got %v", cfg.Controllers.MQTT.PublishInterval)
	}
	if cfg.Controllers.HTTP.Enabled {
		t.Fatal("http should stay disabled when mqtt is enabled")
	}

	setups, err := cfg.ZoneSetups(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(setups) != 2 {
		t.Fatalf("expected 2 zones, got %d", len(setups))
	}
	n, s := setups[0], setups[1]
	if n.Thermostat == nil || *n.Thermostat != (radiant.DualSetpoint{Heating: 20, Cooling: 24}) {
		t.Fatalf("north thermostat %+v", n.Thermostat)
	}
	if n.Params.ProportionalGain != 0.2 || s.Params.ProportionalGain != 0.1 {
		t.Fatalf("gains %v/%v", n.Params.ProportionalGain, s.Params.ProportionalGain)
	}
	if s.InitialSetpoint == nil || *s.InitialSetpoint != 23 {
		t.Fatalf("south initial setpoint %v", s.InitialSetpoint)
	}
	if n.Params.ControlType != radiant.ControlSurfaceInterior || n.Params.OccupiedEnd != 17 {
		t.Fatalf("north params %+v", n.Params)
	}
}

func TestLoadConfig_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "radiantctl.toml")
	if err := os.WriteFile(path, []byte("x = 1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestZoneSetups_MissingThermostat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Zones = []ZoneConfig{{Name: "Attic", ControlSurface: "Attic Slab"}}
	setups, err := cfg.ZoneSetups(nil)
	if err != nil {
		t.Fatal(err)
	}
	if setups[0].Thermostat != nil {
		t.Fatal("zone without setpoints should have no thermostat")
	}
}

func TestParams_UnknownControlTypeFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Controller.ControlType = "SurfaceBackTemperature"
	p, err := cfg.Params(nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.ControlType != radiant.ControlSurfaceFace {
		t.Fatalf("expected face fallback, got %v", p.ControlType)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BuildingID = ""
	cfg.Controller.Strategy = "fuzzy"
	cfg.Kafka.Enabled = true
	cfg.Zones = []ZoneConfig{{}}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []error{ErrNoBuildingID, ErrUnnamedZone, ErrNoBrokers} {
		if !errors.Is(err, want) {
			t.Fatalf("expected %v in %v", want, err)
		}
	}
}

func TestEnvironments(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Simulation.DesignPeriods = 2
	envs := cfg.Environments()
	if len(envs) != 3 {
		t.Fatalf("expected 3 environments, got %d", len(envs))
	}
	if !envs[0].DesignDay || !envs[1].DesignDay || envs[2].DesignDay || envs[2].Days != 365 {
		t.Fatalf("unexpected environments %+v", envs)
	}
}

func TestNewLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "radiantctl.log")
	l, closeLog, err := NewLogger(LogConfig{Level: "debug", Format: "json", Path: path})
	if err != nil {
		t.Fatal(err)
	}
	l.Debug("hello", "zone", "North")
	if err := closeLog(); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) == 0 {
		t.Fatal("expected log file to receive records")
	}

	if _, _, err := NewLogger(LogConfig{Level: "loud"}); err == nil {
		t.Fatal("expected invalid level error")
	}
}
