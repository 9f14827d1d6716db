package radiant

// ModeStateMachine is the hysteretic heating/neutral/cooling mode of one zone.
// The loop must sit in neutral for longer than the switch-over time before it
// may leave heating or cooling.
type ModeStateMachine struct {
	Mode         Mode
	NeutralHours float64

	switchOver float64
}

func NewModeStateMachine(switchOverHours float64) *ModeStateMachine {
	return &ModeStateMachine{Mode: ModeNeutral, switchOver: switchOverHours}
}

func (m *ModeStateMachine) Reset() {
	m.Mode = ModeNeutral
	m.NeutralHours = 0
}

// ObserveFlow accumulates the continuous time without any water flow.
func (m *ModeStateMachine) ObserveFlow(heating, cooling bool, dt float64) {
	if heating || cooling {
		m.NeutralHours = 0
		return
	}
	m.NeutralHours += dt
}

// Next evaluates one transition from the 24h sums of cooling and heating activity.
func (m *ModeStateMachine) Next(coolSum, heatSum float64) Mode {
	switch m.Mode {
	case ModeHeating, ModeCooling:
		if m.NeutralHours > m.switchOver {
			m.Mode = ModeNeutral
		}
	case ModeNeutral:
		switch {
		case coolSum > 0:
			m.Mode = ModeCooling
		case heatSum > 0:
			m.Mode = ModeHeating
		}
	}
	return m.Mode
}
