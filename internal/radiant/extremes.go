package radiant

import "math"

// ExtremeTracker keeps the running max/min of the zone control temperature over
// the current occupied window.
type ExtremeTracker struct {
	lower, upper float64 // comfort band
	Max, Min     float64
}

func NewExtremeTracker(lowerComfort, upperComfort float64) *ExtremeTracker {
	et := &ExtremeTracker{lower: lowerComfort, upper: upperComfort}
	et.Reset()
	return et
}

// Reset sets the extremes to the opposite comfort limits so the first occupied
// sample always replaces them.
func (et *ExtremeTracker) Reset() {
	et.Max = et.lower
	et.Min = et.upper
}

func (et *ExtremeTracker) Observe(sample float64, occupied bool) {
	if !occupied {
		et.Reset()
		return
	}
	et.Max = math.Max(et.Max, sample)
	et.Min = math.Min(et.Min, sample)
}
