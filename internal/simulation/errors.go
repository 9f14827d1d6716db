package simulation

import "errors"

var (
	ErrNegativeCoefficient      = errors.New("plant coefficients must be >= 0")
	ErrInvalidWaterTemperatures = errors.New("cold water temperature must be below hot water temperature")
	ErrInvalidEnvironment       = errors.New("environment needs days >= 1, a start day of week in 1-7 and a start day of year >= 1")
	ErrMissingPlant             = errors.New("zone has no plant model")
)
