package radiant

// SharedContext is the building-wide state passed by reference into every zone
// update: calendar, derived flags and the outdoor air trend. It is advanced
// serially by the stepper and only read while zones run.
type SharedContext struct {
	params        Params
	designPeriods int

	Calendar Calendar
	Flags    CalendarFlags
	// DayIndex counts simulated days since the last Reset, starting at 0.
	DayIndex int

	outdoor *TrendBuffer[float64]
	started bool
}

func NewSharedContext(p Params, designPeriods int) (*SharedContext, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if designPeriods < 0 {
		designPeriods = 0
	}
	s := &SharedContext{
		params:        p,
		designPeriods: designPeriods,
		outdoor:       NewTrendBuffer(p.TrendCapacity(), p.TemperatureSeed),
	}
	s.Reset()
	return s, nil
}

// Reset is the environment initialization call point.
func (s *SharedContext) Reset() {
	s.Calendar = Calendar{}
	s.Flags = CalendarFlags{}
	s.DayIndex = 0
	s.outdoor.Reset()
	s.started = false
}

// Advance moves the clock to the timestep ending at c.Hour. A new day starts
// when the day of week changes or the hour goes backwards; repeating the
// current timestep does not.
func (s *SharedContext) Advance(c Calendar) error {
	if c.DesignDay && s.designPeriods == 0 {
		return ErrUnexpectedDesignDay
	}
	c = c.Normalize()
	if s.started && (c.DayOfWeek != s.Calendar.DayOfWeek || c.Hour < s.Calendar.Hour) {
		s.DayIndex++
	}
	s.started = true
	s.Calendar = c
	s.Flags = s.params.Flags(c)
	return nil
}

func (s *SharedContext) ObserveOutdoor(t float64) {
	s.outdoor.Push(t)
}

// OutdoorMean is the 24h running mean of the outdoor air temperature.
func (s *SharedContext) OutdoorMean() float64 {
	return s.outdoor.Mean()
}

// Timestep is the timestep length in hours.
func (s *SharedContext) Timestep() float64 {
	return s.params.Timestep()
}

func (s *SharedContext) TimestepsPerHour() int {
	return s.params.TimestepsPerHour
}

func (s *SharedContext) DesignPeriods() int {
	return s.designPeriods
}
