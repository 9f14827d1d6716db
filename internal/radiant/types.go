package radiant

import (
	"fmt"
	"strings"
)

// Mode is the radiant loop operating mode. The integer values are part of the
// contract: comparisons such as mode >= ModeNeutral mean "cooling or neutral".
type Mode int

const (
	ModeHeating Mode = -1
	ModeNeutral Mode = 0
	ModeCooling Mode = 1
)

func (m Mode) Valid() bool {
	return m == ModeHeating || m == ModeNeutral || m == ModeCooling
}

func (m Mode) String() string {
	switch m {
	case ModeHeating:
		return "heating"
	case ModeNeutral:
		return "neutral"
	case ModeCooling:
		return "cooling"
	default:
		return "unknown"
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "heating":
		return ModeHeating, nil
	case "neutral":
		return ModeNeutral, nil
	case "cooling":
		return ModeCooling, nil
	default:
		return ModeNeutral, fmt.Errorf("invalid mode: %q", s)
	}
}

// Command is the per-timestep actuation decision.
type Command int

const (
	CommandOff Command = iota
	CommandHeating
	CommandCooling
)

func (c Command) String() string {
	switch c {
	case CommandOff:
		return "off"
	case CommandHeating:
		return "heating"
	case CommandCooling:
		return "cooling"
	default:
		return "unknown"
	}
}

// Legacy actuator values. The downstream coils compare against these
// thresholds instead of reading a boolean.
const (
	ColdWaterEnabled  = 0.0
	ColdWaterDisabled = 100.0
	HotWaterEnabled   = 60.0
	HotWaterDisabled  = -60.0
)

// ActuatorValues is the legacy two-schedule encoding of a Command.
type ActuatorValues struct {
	ColdWater float64
	HotWater  float64
}

func (c Command) Actuators() ActuatorValues {
	switch c {
	case CommandHeating:
		return ActuatorValues{ColdWater: ColdWaterDisabled, HotWater: HotWaterEnabled}
	case CommandCooling:
		return ActuatorValues{ColdWater: ColdWaterEnabled, HotWater: HotWaterDisabled}
	default:
		return ActuatorValues{ColdWater: ColdWaterDisabled, HotWater: HotWaterDisabled}
	}
}

// ControlType selects which slab temperature the caller feeds as SlabTemperature.
type ControlType int

const (
	ControlSurfaceFace ControlType = iota
	ControlSurfaceInterior
)

func (t ControlType) String() string {
	switch t {
	case ControlSurfaceInterior:
		return "SurfaceInteriorTemperature"
	default:
		return "SurfaceFaceTemperature"
	}
}

func ParseControlType(s string) (ControlType, error) {
	switch strings.ToLower(s) {
	case "surfacefacetemperature", "":
		return ControlSurfaceFace, nil
	case "surfaceinteriortemperature":
		return ControlSurfaceInterior, nil
	default:
		return ControlSurfaceFace, fmt.Errorf("invalid control type: %q", s)
	}
}

// Strategy selects how the slab setpoint is produced.
type Strategy int

const (
	StrategyProportional Strategy = iota
	StrategyBasic
)

func (s Strategy) Valid() bool {
	return s == StrategyProportional || s == StrategyBasic
}

func (s Strategy) String() string {
	switch s {
	case StrategyProportional:
		return "proportional"
	case StrategyBasic:
		return "basic"
	default:
		return "unknown"
	}
}

func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(s) {
	case "proportional", "":
		return StrategyProportional, nil
	case "basic":
		return StrategyBasic, nil
	default:
		return StrategyProportional, fmt.Errorf("invalid strategy: %q", s)
	}
}
