package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/Agrid-Dev/radiantctl/internal/building"
	"github.com/Agrid-Dev/radiantctl/internal/radiant"
	"github.com/Agrid-Dev/radiantctl/internal/simulation"
)

// EnvPrefix is stripped from environment variables before envKeyTransform.
const EnvPrefix = "RADIANTCTL_"

type Config struct {
	BuildingID  string            `koanf:"building_id" yaml:"building_id"`
	Controller  ControllerConfig  `koanf:"controller" yaml:"controller"`
	Zones       []ZoneConfig      `koanf:"zones" yaml:"zones"`
	Simulation  SimulationConfig  `koanf:"simulation" yaml:"simulation"`
	Controllers ControllersConfig `koanf:"controllers" yaml:"controllers"`
	Store       StoreConfig       `koanf:"store" yaml:"store"`
	Kafka       KafkaConfig       `koanf:"kafka" yaml:"kafka"`
	Log         LogConfig         `koanf:"log" yaml:"log"`
}

// ControllerConfig holds the building-wide controller parameters.
type ControllerConfig struct {
	OccupiedStart         float64 `koanf:"occupied_start" yaml:"occupied_start"`
	OccupiedEnd           float64 `koanf:"occupied_end" yaml:"occupied_end"`
	ProportionalGain      float64 `koanf:"proportional_gain" yaml:"proportional_gain"`
	MinimumOperationHours float64 `koanf:"minimum_operation_hours" yaml:"minimum_operation_hours"`
	WeekendReset          float64 `koanf:"weekend_reset" yaml:"weekend_reset"`
	EarlyResetLead        float64 `koanf:"early_reset_lead" yaml:"early_reset_lead"`
	SwitchOverHours       float64 `koanf:"switch_over_hours" yaml:"switch_over_hours"`
	SlabLowerLimit        float64 `koanf:"slab_lower_limit" yaml:"slab_lower_limit"`
	SlabUpperLimit        float64 `koanf:"slab_upper_limit" yaml:"slab_upper_limit"`
	ComfortOffset         float64 `koanf:"comfort_offset" yaml:"comfort_offset"`
	TimestepsPerHour      int     `koanf:"timesteps_per_hour" yaml:"timesteps_per_hour"`
	TemperatureSeed       float64 `koanf:"temperature_seed" yaml:"temperature_seed"`

	Strategy           string             `koanf:"strategy" yaml:"strategy"`         // "proportional" | "basic"
	ControlType        string             `koanf:"control_type" yaml:"control_type"` // "SurfaceFaceTemperature" | "SurfaceInteriorTemperature"
	BasicSetpoint      float64            `koanf:"basic_setpoint" yaml:"basic_setpoint"`
	BasicCoolingOffset float64            `koanf:"basic_cooling_offset" yaml:"basic_cooling_offset"`
	OutdoorReset       OutdoorResetConfig `koanf:"outdoor_reset" yaml:"outdoor_reset"`

	// Parallelism caps concurrent zone updates. 0 means no limit.
	Parallelism int `koanf:"parallelism" yaml:"parallelism"`
}

type OutdoorResetConfig struct {
	Enabled        bool    `koanf:"enabled" yaml:"enabled"`
	OutdoorLow     float64 `koanf:"outdoor_low" yaml:"outdoor_low"`
	OutdoorHigh    float64 `koanf:"outdoor_high" yaml:"outdoor_high"`
	SetpointAtLow  float64 `koanf:"setpoint_at_low" yaml:"setpoint_at_low"`
	SetpointAtHigh float64 `koanf:"setpoint_at_high" yaml:"setpoint_at_high"`
}

// ZoneConfig describes one radiant zone. A zone without both setpoints has no
// dual-setpoint thermostat and is rejected when the building is built.
type ZoneConfig struct {
	Name            string   `koanf:"name" yaml:"name"`
	ControlSurface  string   `koanf:"control_surface" yaml:"control_surface"`
	HeatingSetpoint *float64 `koanf:"heating_setpoint" yaml:"heating_setpoint,omitempty"`
	CoolingSetpoint *float64 `koanf:"cooling_setpoint" yaml:"cooling_setpoint,omitempty"`
	InitialSetpoint *float64 `koanf:"initial_setpoint" yaml:"initial_setpoint,omitempty"`

	// ProportionalGain overrides the building gain for this zone.
	ProportionalGain *float64 `koanf:"proportional_gain" yaml:"proportional_gain,omitempty"`
}

type SimulationConfig struct {
	DesignPeriods  int           `koanf:"design_periods" yaml:"design_periods"`
	Days           int           `koanf:"days" yaml:"days"`
	StartDayOfWeek int           `koanf:"start_day_of_week" yaml:"start_day_of_week"` // 1 = Sunday
	StartDayOfYear int           `koanf:"start_day_of_year" yaml:"start_day_of_year"`
	Pace           time.Duration `koanf:"pace" yaml:"pace"` // serve only: wall time per timestep, 0 disables
	Plant          PlantConfig   `koanf:"plant" yaml:"plant"`
	Weather        WeatherConfig `koanf:"weather" yaml:"weather"`
}

type PlantConfig struct {
	EnvelopeCoefficient  float64 `koanf:"envelope_coefficient" yaml:"envelope_coefficient"`
	AirSlabCoefficient   float64 `koanf:"air_slab_coefficient" yaml:"air_slab_coefficient"`
	SlabAirCoefficient   float64 `koanf:"slab_air_coefficient" yaml:"slab_air_coefficient"`
	WaterCoefficient     float64 `koanf:"water_coefficient" yaml:"water_coefficient"`
	HotWaterTemperature  float64 `koanf:"hot_water_temperature" yaml:"hot_water_temperature"`
	ColdWaterTemperature float64 `koanf:"cold_water_temperature" yaml:"cold_water_temperature"`
	OccupiedGain         float64 `koanf:"occupied_gain" yaml:"occupied_gain"`
	InitialAir           float64 `koanf:"initial_air" yaml:"initial_air"`
	InitialSlab          float64 `koanf:"initial_slab" yaml:"initial_slab"`
}

type WeatherConfig struct {
	Mean             float64 `koanf:"mean" yaml:"mean"`
	AnnualAmplitude  float64 `koanf:"annual_amplitude" yaml:"annual_amplitude"`
	DiurnalAmplitude float64 `koanf:"diurnal_amplitude" yaml:"diurnal_amplitude"`
}

type ControllersConfig struct {
	HTTP   HTTPConfig   `koanf:"http" yaml:"http"`
	MQTT   MQTTConfig   `koanf:"mqtt" yaml:"mqtt"`
	MODBUS ModbusConfig `koanf:"modbus" yaml:"modbus"`
}

type HTTPConfig struct {
	Enabled bool   `koanf:"enabled" yaml:"enabled"`
	Addr    string `koanf:"addr" yaml:"addr"`
}

type MQTTConfig struct {
	Enabled         bool          `koanf:"enabled" yaml:"enabled"`
	BrokerURL       string        `koanf:"broker_url" yaml:"broker_url"`
	ClientID        string        `koanf:"client_id" yaml:"client_id"`
	BaseTopic       string        `koanf:"base_topic" yaml:"base_topic"`
	QoS             byte          `koanf:"qos" yaml:"qos"`
	RetainSnapshot  bool          `koanf:"retain_snapshot" yaml:"retain_snapshot"`
	PublishInterval time.Duration `koanf:"publish_interval" yaml:"publish_interval"`
	Username        string        `koanf:"username" yaml:"username"`
	Password        string        `koanf:"password" yaml:"password"`
}

type ModbusConfig struct {
	Enabled bool   `koanf:"enabled" yaml:"enabled"`
	Addr    string `koanf:"addr" yaml:"addr"`
	UnitID  byte   `koanf:"unit_id" yaml:"unit_id"`
}

type StoreConfig struct {
	Enabled bool   `koanf:"enabled" yaml:"enabled"`
	DSN     string `koanf:"dsn" yaml:"dsn"`
}

type KafkaConfig struct {
	Enabled bool     `koanf:"enabled" yaml:"enabled"`
	Brokers []string `koanf:"brokers" yaml:"brokers"`
	Topic   string   `koanf:"topic" yaml:"topic"`
}

type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`   // debug | info | warn | error
	Format string `koanf:"format" yaml:"format"` // text | json
	Path   string `koanf:"path" yaml:"path"`     // optional file, written alongside stdout
}

func DefaultConfig() Config {
	p := radiant.DefaultParams()
	plant := simulation.DefaultPlantParams()
	w := simulation.DefaultWeather()
	return Config{
		BuildingID: "default",
		Controller: ControllerConfig{
			OccupiedStart:         p.OccupiedStart,
			OccupiedEnd:           p.OccupiedEnd,
			ProportionalGain:      p.ProportionalGain,
			MinimumOperationHours: p.MinimumOperationHours,
			WeekendReset:          p.WeekendReset,
			EarlyResetLead:        p.EarlyResetLead,
			SwitchOverHours:       p.SwitchOverHours,
			SlabLowerLimit:        p.SlabLowerLimit,
			SlabUpperLimit:        p.SlabUpperLimit,
			ComfortOffset:         p.ComfortOffset,
			TimestepsPerHour:      p.TimestepsPerHour,
			TemperatureSeed:       p.TemperatureSeed,
			Strategy:              p.Strategy.String(),
			ControlType:           p.ControlType.String(),
			BasicSetpoint:         p.BasicSetpoint,
			BasicCoolingOffset:    p.BasicCoolingOffset,
			OutdoorReset: OutdoorResetConfig{
				Enabled:        p.OutdoorReset.Enabled,
				OutdoorLow:     p.OutdoorReset.OutdoorLow,
				OutdoorHigh:    p.OutdoorReset.OutdoorHigh,
				SetpointAtLow:  p.OutdoorReset.SetpointAtLow,
				SetpointAtHigh: p.OutdoorReset.SetpointAtHigh,
			},
		},
		Simulation: SimulationConfig{
			DesignPeriods:  1,
			Days:           365,
			StartDayOfWeek: radiant.Sunday,
			StartDayOfYear: 1,
			Plant: PlantConfig{
				EnvelopeCoefficient:  plant.EnvelopeCoefficient,
				AirSlabCoefficient:   plant.AirSlabCoefficient,
				SlabAirCoefficient:   plant.SlabAirCoefficient,
				WaterCoefficient:     plant.WaterCoefficient,
				HotWaterTemperature:  plant.HotWaterTemperature,
				ColdWaterTemperature: plant.ColdWaterTemperature,
				OccupiedGain:         plant.OccupiedGain,
				InitialAir:           plant.InitialAir,
				InitialSlab:          plant.InitialSlab,
			},
			Weather: WeatherConfig{
				Mean:             w.Mean,
				AnnualAmplitude:  w.AnnualAmplitude,
				DiurnalAmplitude: w.DiurnalAmplitude,
			},
		},
		Controllers: ControllersConfig{
			HTTP:   HTTPConfig{Addr: ":8080"},
			MQTT:   MQTTConfig{PublishInterval: 1 * time.Second},
			MODBUS: ModbusConfig{Addr: "127.0.0.1:1502", UnitID: 1},
		},
		Store: StoreConfig{DSN: "radiantctl.db"},
		Kafka: KafkaConfig{Topic: "radiant.daily"},
		Log:   LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig layers defaults, the optional file at path and RADIANTCTL_*
// environment variables, in that order. A missing file means defaults.
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			parser, err := parserFor(path)
			if err != nil {
				return Config{}, err
			}
			if err := k.Load(file.Provider(path), parser); err != nil {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return envKeyTransform(strings.TrimPrefix(key, EnvPrefix)), value
		},
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config extension %q", ext)
	}
}

// envKeySections maps env key prefixes to koanf paths, longest first.
var envKeySections = []struct{ prefix, path string }{
	{"controller_outdoor_reset_", "controller.outdoor_reset."},
	{"simulation_plant_", "simulation.plant."},
	{"simulation_weather_", "simulation.weather."},
	{"controller_", "controller."},
	{"simulation_", "simulation."},
	{"store_", "store."},
	{"kafka_", "kafka."},
	{"log_", "log."},
}

// envKeyTransform turns an unprefixed env key into a koanf path:
// CONTROLLERS_HTTP_ADDR -> controllers.http.addr,
// CONTROLLER_PROPORTIONAL_GAIN -> controller.proportional_gain.
// Keys outside a known section pass through lowercased (BUILDING_ID -> building_id).
func envKeyTransform(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	if k == "" {
		return ""
	}

	if strings.HasPrefix(k, "controllers_") {
		parts := strings.SplitN(k, "_", 3)
		if len(parts) < 3 {
			return k
		}
		return "controllers." + parts[1] + "." + parts[2]
	}

	for _, s := range envKeySections {
		if strings.HasPrefix(k, s.prefix) && len(k) > len(s.prefix) {
			return s.path + strings.TrimPrefix(k, s.prefix)
		}
	}
	return k
}

func applyDefaults(cfg *Config) {
	if cfg.BuildingID == "" {
		cfg.BuildingID = "default"
	}
	if len(cfg.Zones) == 0 {
		heating, cooling := 20.0, 24.0
		cfg.Zones = []ZoneConfig{{
			Name:            "Zone 1",
			ControlSurface:  "Zone 1 Slab",
			HeatingSetpoint: &heating,
			CoolingSetpoint: &cooling,
		}}
	}
	c := &cfg.Controllers
	if !c.HTTP.Enabled && !c.MQTT.Enabled && !c.MODBUS.Enabled {
		c.HTTP.Enabled = true
	}
	if c.MODBUS.UnitID == 0 {
		c.MODBUS.UnitID = 1
	}
}

// Params converts the controller section. An unknown control type is logged
// and replaced by the surface face temperature.
func (c Config) Params(logger *slog.Logger) (radiant.Params, error) {
	cc := c.Controller
	strategy, err := radiant.ParseStrategy(cc.Strategy)
	if err != nil {
		return radiant.Params{}, err
	}
	ct, err := radiant.ParseControlType(cc.ControlType)
	if err != nil && logger != nil {
		logger.Error("unknown control type, using surface face temperature", "control_type", cc.ControlType)
	}

	p := radiant.Params{
		OccupiedStart:         cc.OccupiedStart,
		OccupiedEnd:           cc.OccupiedEnd,
		ProportionalGain:      cc.ProportionalGain,
		MinimumOperationHours: cc.MinimumOperationHours,
		WeekendReset:          cc.WeekendReset,
		EarlyResetLead:        cc.EarlyResetLead,
		SwitchOverHours:       cc.SwitchOverHours,
		SlabLowerLimit:        cc.SlabLowerLimit,
		SlabUpperLimit:        cc.SlabUpperLimit,
		ComfortOffset:         cc.ComfortOffset,
		TimestepsPerHour:      cc.TimestepsPerHour,
		TemperatureSeed:       cc.TemperatureSeed,
		Strategy:              strategy,
		ControlType:           ct,
		BasicSetpoint:         cc.BasicSetpoint,
		BasicCoolingOffset:    cc.BasicCoolingOffset,
		OutdoorReset: radiant.OutdoorReset{
			Enabled:        cc.OutdoorReset.Enabled,
			OutdoorLow:     cc.OutdoorReset.OutdoorLow,
			OutdoorHigh:    cc.OutdoorReset.OutdoorHigh,
			SetpointAtLow:  cc.OutdoorReset.SetpointAtLow,
			SetpointAtHigh: cc.OutdoorReset.SetpointAtHigh,
		},
	}
	if err := p.Validate(); err != nil {
		return radiant.Params{}, fmt.Errorf("controller: %w", err)
	}
	return p, nil
}

// ZoneSetups converts the zones section, applying per-zone overrides.
func (c Config) ZoneSetups(logger *slog.Logger) ([]radiant.ZoneSetup, error) {
	p, err := c.Params(logger)
	if err != nil {
		return nil, err
	}
	setups := make([]radiant.ZoneSetup, 0, len(c.Zones))
	for _, z := range c.Zones {
		s := radiant.ZoneSetup{
			Name:            z.Name,
			ControlSurface:  z.ControlSurface,
			InitialSetpoint: z.InitialSetpoint,
			Params:          p,
		}
		if z.HeatingSetpoint != nil && z.CoolingSetpoint != nil {
			s.Thermostat = &radiant.DualSetpoint{Heating: *z.HeatingSetpoint, Cooling: *z.CoolingSetpoint}
		}
		if z.ProportionalGain != nil {
			s.Params.ProportionalGain = *z.ProportionalGain
		}
		setups = append(setups, s)
	}
	return setups, nil
}

func (c Config) BuildingOptions(logger *slog.Logger) (building.Options, error) {
	p, err := c.Params(logger)
	if err != nil {
		return building.Options{}, err
	}
	return building.Options{
		ID:            c.BuildingID,
		Params:        p,
		DesignPeriods: c.Simulation.DesignPeriods,
		Parallelism:   c.Controller.Parallelism,
	}, nil
}

func (c Config) PlantParams() simulation.PlantParams {
	pc := c.Simulation.Plant
	return simulation.PlantParams{
		EnvelopeCoefficient:  pc.EnvelopeCoefficient,
		AirSlabCoefficient:   pc.AirSlabCoefficient,
		SlabAirCoefficient:   pc.SlabAirCoefficient,
		WaterCoefficient:     pc.WaterCoefficient,
		HotWaterTemperature:  pc.HotWaterTemperature,
		ColdWaterTemperature: pc.ColdWaterTemperature,
		OccupiedGain:         pc.OccupiedGain,
		InitialAir:           pc.InitialAir,
		InitialSlab:          pc.InitialSlab,
	}
}

func (c Config) Weather() simulation.Weather {
	return simulation.Weather{
		Mean:             c.Simulation.Weather.Mean,
		AnnualAmplitude:  c.Simulation.Weather.AnnualAmplitude,
		DiurnalAmplitude: c.Simulation.Weather.DiurnalAmplitude,
	}
}

// Environments lists one single-day environment per design period, then the
// weather-file run period.
func (c Config) Environments() []simulation.Environment {
	s := c.Simulation
	envs := make([]simulation.Environment, 0, s.DesignPeriods+1)
	for i := range s.DesignPeriods {
		envs = append(envs, simulation.Environment{
			Name:           fmt.Sprintf("design day %d", i+1),
			Days:           1,
			StartDayOfWeek: s.StartDayOfWeek,
			StartDayOfYear: s.StartDayOfYear,
			DesignDay:      true,
		})
	}
	return append(envs, simulation.Environment{
		Name:           "run period",
		Days:           s.Days,
		StartDayOfWeek: s.StartDayOfWeek,
		StartDayOfYear: s.StartDayOfYear,
	})
}

var (
	ErrNoBuildingID = errors.New("building_id is required")
	ErrUnnamedZone  = errors.New("every zone needs a name")
	ErrNoBrokers    = errors.New("kafka is enabled but has no brokers")
)

// Validate reports configuration errors that would otherwise surface late.
func (c Config) Validate() error {
	var errs []error
	if c.BuildingID == "" {
		errs = append(errs, ErrNoBuildingID)
	}
	if _, err := c.Params(nil); err != nil {
		errs = append(errs, err)
	}
	for i, z := range c.Zones {
		if z.Name == "" {
			errs = append(errs, fmt.Errorf("zones[%d]: %w", i, ErrUnnamedZone))
		}
	}
	if c.Simulation.Days < 1 || c.Simulation.StartDayOfWeek < 1 || c.Simulation.StartDayOfWeek > 7 ||
		c.Simulation.StartDayOfYear < 1 || c.Simulation.StartDayOfYear > 365 || c.Simulation.DesignPeriods < 0 {
		errs = append(errs, fmt.Errorf("simulation: %w", simulation.ErrInvalidEnvironment))
	}
	p := c.PlantParams()
	if err := p.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("simulation.plant: %w", err))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, ErrNoBrokers)
	}
	return errors.Join(errs...)
}
