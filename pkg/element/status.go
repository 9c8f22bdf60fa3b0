package element

// Phase is the lifecycle phase of a widget controller.
type Phase int

const (
	// PhaseUninitialized means no widget exists yet, usually because the
	// elements group is not available.
	PhaseUninitialized Phase = iota

	// PhaseCreating means the widget is being created, mounted and wired.
	PhaseCreating

	// PhaseReady means the widget emitted its ready event.
	PhaseReady

	// PhaseFailed means creation or mount failed.
	PhaseFailed
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseCreating:
		return "creating"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status is the observable state of a controller.
type Status struct {
	Phase Phase

	// Loading is true until the widget is ready, has failed, or its elements
	// scope has failed.
	Loading bool

	// LastError is the message to show in the widget's error region: the
	// elements failure, the creation or mount failure, or the validation
	// message of the latest change event. Empty when there is nothing to
	// show.
	LastError string

	// Err is the structured error behind LastError.
	Err error
}

func statusEqual(a, b Status) bool {
	return a.Phase == b.Phase && a.Loading == b.Loading && a.LastError == b.LastError && a.Err == b.Err
}
