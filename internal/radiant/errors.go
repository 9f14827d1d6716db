package radiant

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidOccupiedWindow = errors.New("occupied window must satisfy 0 <= start < end <= 24")
	ErrInvalidGain           = errors.New("proportional gain must be in (0, 1]")
	ErrInvalidSlabLimits     = errors.New("slab setpoint limits must satisfy lower < upper")
	ErrInvalidTimestep       = errors.New("timesteps per hour must divide 60")
	ErrInvalidDuration       = errors.New("durations and magnitudes must be non-negative")
	ErrInvalidLeadTime       = errors.New("early reset lead time must be in [0, 24)")
	ErrInvalidStrategy       = errors.New("invalid control strategy")
	ErrInvalidOutdoorReset   = errors.New("outdoor reset requires outdoor low < outdoor high")

	ErrNoControlSurface    = errors.New("no usable control surface")
	ErrMissingDualSetpoint = errors.New("zone has no dual heating/cooling setpoint thermostat")
	ErrInvalidComfortBand  = errors.New("comfort band must satisfy heating setpoint < cooling setpoint")
	ErrSetpointOutOfRange  = errors.New("initial slab setpoint outside slab limits")

	ErrUnexpectedDesignDay = errors.New("design day requested but no design periods are configured")
)

// ZoneError names the zone whose controller could not be built.
type ZoneError struct {
	Zone string
	Err  error
}

func (e *ZoneError) Error() string {
	return fmt.Sprintf("radiant zone %q: %v", e.Zone, e.Err)
}

func (e *ZoneError) Unwrap() error { return e.Err }
