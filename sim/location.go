package sim

import "fmt"

// Location is a named node of the world graph. Immutable after creation.
type Location struct {
	name          string
	minDwellTicks int64
	transit       bool
}

// NewLocation creates a location. minDwellTicks is validated on registration.
// Transit locations are pure path nodes and never offered as destinations.
func NewLocation(name string, minDwellTicks int64, transit bool) *Location {
	return &Location{name: name, minDwellTicks: minDwellTicks, transit: transit}
}

// Name returns the unique location name.
func (l *Location) Name() string { return l.name }

// MinDwellTicks is the number of ticks an entity must spend here before moving on.
func (l *Location) MinDwellTicks() int64 { return l.minDwellTicks }

// IsTransit reports whether the location is a pure path node.
func (l *Location) IsTransit() bool { return l.transit }

func (l *Location) String() string { return l.name }

// GoString keeps %#v readable in test failures.
func (l *Location) GoString() string {
	return fmt.Sprintf("Location(%s, dwell=%d, transit=%v)", l.name, l.minDwellTicks, l.transit)
}
