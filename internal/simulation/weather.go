package simulation

import "math"

// Weather is a synthetic outdoor temperature: an annual sinusoid coldest in
// mid-January plus a diurnal one warmest at 15:00.
type Weather struct {
	Mean             float64
	AnnualAmplitude  float64
	DiurnalAmplitude float64
}

func DefaultWeather() Weather {
	return Weather{Mean: 10, AnnualAmplitude: 12, DiurnalAmplitude: 4}
}

// Temperature at the given day of year (1-365) and decimal hour.
func (w Weather) Temperature(dayOfYear int, hour float64) float64 {
	annual := math.Cos(2 * math.Pi * float64(dayOfYear-15) / 365)
	diurnal := math.Cos(2 * math.Pi * (hour - 3) / 24)
	return w.Mean - w.AnnualAmplitude*annual - w.DiurnalAmplitude*diurnal
}
