package building

import "errors"

var (
	ErrNoZones         = errors.New("building has no radiant zones")
	ErrDuplicateZone   = errors.New("duplicate zone name")
	ErrUnknownZone     = errors.New("unknown zone")
	ErrMissingReading  = errors.New("missing zone reading")
	ErrStepOutOfOrder  = errors.New("after-reporting frame does not match the last before-demand frame")
	ErrInvalidParallel = errors.New("parallelism must be >= 0")
)
