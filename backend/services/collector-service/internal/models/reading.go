package models

import "time"

// Phase identifies one of the three metered phase groups.
type Phase int

const (
	L1 Phase = iota
	L2
	L3
)

// PhaseCount is the number of phase groups carried by a reading.
const PhaseCount = 3

// Name returns the payload key of the phase group.
func (p Phase) Name() string {
	switch p {
	case L1:
		return "L1"
	case L2:
		return "L2"
	case L3:
		return "L3"
	default:
		return "unknown"
	}
}

// Value is an optional scalar taken from a meter payload.
// Text holds the original textual form (empty when the field was absent) and
// Num is set only when that text is numeric.
type Value struct {
	Text string
	Num  *float64
}

// IsZero reports whether the field was absent.
func (v Value) IsZero() bool {
	return v.Text == "" && v.Num == nil
}

// PhaseValues holds the quantities reported for a single phase.
type PhaseValues struct {
	Current       Value
	Voltage       Value
	Power         Value
	ReactivePower Value
	CosPhi        Value
}

// Reading is one inbound measurement event.
type Reading struct {
	DeviceID   string
	Topic      string
	ReceivedAt time.Time
	Time       Value
	Frequency  Value
	Phases     [PhaseCount]PhaseValues
}
