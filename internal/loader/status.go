package loader

// Loading status of an octant
type Status uint8

const (
	Unloaded Status = iota
	Loading
	Loaded
	Visible
	Invisible
)

func (s Status) String() string {
	switch s {
	case Unloaded:
		return "Unloaded"
	case Loading:
		return "Loading"
	case Loaded:
		return "Loaded"
	case Visible:
		return "Visible"
	case Invisible:
		return "Invisible"
	}
	return "Unknown"
}

// Returns true for the statuses that own a GPU buffer
func (s Status) Resident() bool {
	return s == Loaded || s == Visible || s == Invisible
}

// Snapshot of the loader counters
type Stats struct {
	Frames          uint64
	VisibleOctants  int
	ResidentOctants int
	ResidentPoints  int
	InFlightPoints  int
	PendingRequests int
	Merged          int
	Evicted         int
	Cancelled       int
	Failed          int
}
