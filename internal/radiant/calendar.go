package radiant

// Days of week, numbered the way the simulation engine reports them.
const (
	Sunday    = 1
	Monday    = 2
	Tuesday   = 3
	Wednesday = 4
	Thursday  = 5
	Friday    = 6
	Saturday  = 7
)

// Calendar is the simulation clock for one timestep. Hour is the decimal time
// at the end of the timestep, in [0, 24].
type Calendar struct {
	DayOfWeek int
	Hour      float64
	DesignDay bool
}

// Normalize reports midnight as the end of the previous day, so that every
// timestep of a day ends in (0, 24] whether the engine counts hours in [0, 24)
// or (0, 24].
func (c Calendar) Normalize() Calendar {
	c.DayOfWeek = normalizeDay(c.DayOfWeek)
	if c.Hour <= 0 {
		c.DayOfWeek = normalizeDay(c.DayOfWeek - 1)
		c.Hour = 24
	}
	return c
}

type CalendarFlags struct {
	Weekend    bool
	Unoccupied bool
}

func normalizeDay(d int) int {
	return ((d-1)%7+7)%7 + 1
}

// Occupied reports whether hour lies in the closed window [OccupiedStart, OccupiedEnd].
func (p *Params) Occupied(hour float64) bool {
	return hour >= p.OccupiedStart && hour <= p.OccupiedEnd
}

// Flags derives the weekend and unoccupied flags. Monday before the window opens
// and Friday after it closes belong to the weekend.
func (p *Params) Flags(c Calendar) CalendarFlags {
	c = c.Normalize()
	day := c.DayOfWeek
	var weekend bool
	switch day {
	case Saturday, Sunday:
		weekend = true
	case Monday:
		weekend = c.Hour < p.OccupiedStart
	case Friday:
		weekend = c.Hour > p.OccupiedEnd
	}
	return CalendarFlags{
		Weekend:    weekend,
		Unoccupied: weekend || !p.Occupied(c.Hour),
	}
}

// RestorationTime returns when the weekend setback ends: EarlyResetLead hours
// before Monday's occupied start, which may fall on Sunday.
func (p *Params) RestorationTime() (day int, hour float64) {
	if p.EarlyResetLead > p.OccupiedStart {
		return Sunday, 24 - (p.EarlyResetLead - p.OccupiedStart)
	}
	hour = p.OccupiedStart - p.EarlyResetLead
	if hour == 0 {
		// Monday 00:00 is reported as the last timestep of Sunday.
		return Sunday, 24
	}
	return Monday, hour
}
