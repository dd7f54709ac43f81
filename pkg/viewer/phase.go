package viewer

// Phase is where the viewer is in its lifecycle.
type Phase int32

const (
	PhaseStarting Phase = iota
	PhaseListening
	PhaseReceiving
	PhaseReconnecting
	PhaseStopping
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseStarting:
		return "starting"
	case PhaseListening:
		return "listening"
	case PhaseReceiving:
		return "receiving"
	case PhaseReconnecting:
		return "reconnecting"
	case PhaseStopping:
		return "stopping"
	case PhaseStopped:
		return "stopped"
	}
	return "unknown"
}
