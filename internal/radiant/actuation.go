package radiant

type DecisionInput struct {
	Mode            Mode
	SlabTemperature float64
	Setpoint        float64
	// CoolingSetpoint is compared instead of Setpoint for the cooling rows when non-nil.
	CoolingSetpoint *float64
	Holding         bool
	DesignDay       bool
}

type Decision struct {
	Command Command
	Reason  string
}

type decisionRule struct {
	command Command
	reason  string
	match   func(in DecisionInput, coolSP float64) bool
}

// decisionTable is evaluated top to bottom; the first matching row wins and the
// fall-through row is off.
var decisionTable = []decisionRule{
	{CommandOff, "design day bypass", func(in DecisionInput, _ float64) bool {
		return in.DesignDay
	}},
	{CommandCooling, "slab above setpoint", func(in DecisionInput, sp float64) bool {
		return in.Mode >= ModeNeutral && in.SlabTemperature > sp
	}},
	{CommandCooling, "minimum run time", func(in DecisionInput, sp float64) bool {
		return in.Mode >= ModeNeutral && in.SlabTemperature < sp && in.Holding
	}},
	{CommandHeating, "slab below setpoint", func(in DecisionInput, _ float64) bool {
		return in.Mode <= ModeNeutral && in.SlabTemperature < in.Setpoint
	}},
	{CommandHeating, "minimum run time", func(in DecisionInput, _ float64) bool {
		return in.Mode <= ModeNeutral && in.SlabTemperature > in.Setpoint && in.Holding
	}},
}

// Decide maps the zone state to a single actuation command.
func Decide(in DecisionInput) Decision {
	coolSP := in.Setpoint
	if in.CoolingSetpoint != nil {
		coolSP = *in.CoolingSetpoint
	}
	for _, r := range decisionTable {
		if r.match(in, coolSP) {
			return Decision{Command: r.command, Reason: r.reason}
		}
	}
	return Decision{Command: CommandOff, Reason: "idle"}
}
