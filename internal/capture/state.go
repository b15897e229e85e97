package capture

import "fmt"

// State is the capture controller state.
type State int

const (
	Idle State = iota
	Listening
	Interim
	Finalized
	Restarting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Listening:
		return "listening"
	case Interim:
		return "interim"
	case Finalized:
		return "finalized"
	case Restarting:
		return "restarting"
	default:
		return "unknown"
	}
}

// MarshalText lets State serialize as its name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name written by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	for st := Idle; st <= Restarting; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("capture: unknown state %q", text)
}
