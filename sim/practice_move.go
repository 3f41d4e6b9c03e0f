package sim

// MoveToLocation walks the owner along a shortest path to a destination,
// waiting out each location's dwell time before stepping.
type MoveToLocation struct {
	practiceBase
	destination *Location
	path        []*Location
}

// NewMoveToLocation creates a move practice for owner.
func NewMoveToLocation(owner *Agent, destination *Location) *MoveToLocation {
	return &MoveToLocation{
		practiceBase: practiceBase{owner: owner, world: owner.world, label: LabelMoveToLocation},
		destination:  destination,
	}
}

// Kind implements Practice.
func (m *MoveToLocation) Kind() PracticeKind { return PracticeMove }

// TargetLocation implements Practice.
func (m *MoveToLocation) TargetLocation() *Location { return m.destination }

// Properties implements Practice.
func (m *MoveToLocation) Properties() map[string]any {
	return map[string]any{"destination": m.destination.Name()}
}

// Path returns the route computed on Enter.
func (m *MoveToLocation) Path() []*Location { return m.path }

// Enter computes a fresh path from the owner's current location.
func (m *MoveToLocation) Enter() error {
	if err := m.route(); err != nil {
		return err
	}
	return m.started(m.Properties())
}

func (m *MoveToLocation) route() error {
	cur, err := m.world.LocationOf(m.owner)
	if err != nil {
		return err
	}
	if cur == nil {
		return invariantErr("move to location", ErrNotPlaced, "%q", m.owner.Name())
	}
	path, err := m.world.ShortestPath(cur, m.destination)
	if err != nil {
		return err
	}
	m.path = path
	return nil
}

// Tick steps to the next node once the owner has stayed longer than the
// current location's minimum dwell time.
func (m *MoveToLocation) Tick() error {
	cur, err := m.world.LocationOf(m.owner)
	if err != nil {
		return err
	}
	if cur == nil {
		return invariantErr("move to location", ErrNotPlaced, "%q", m.owner.Name())
	}
	waited, err := m.world.TicksSinceLastMove(m.owner)
	if err != nil {
		return err
	}
	if waited <= cur.MinDwellTicks() {
		return nil
	}
	pos := indexOf(m.path, cur)
	if pos < 0 {
		// Off the planned route; plan again from here.
		if err := m.route(); err != nil {
			return err
		}
		pos = 0
	}
	if pos < len(m.path)-1 {
		return m.world.MoveEntity(m.owner, m.path[pos+1])
	}
	return nil
}

// HasEnded reports whether the owner stands at the destination.
func (m *MoveToLocation) HasEnded() bool {
	cur, err := m.world.LocationOf(m.owner)
	return err == nil && cur == m.destination
}

// Exit records the end event.
func (m *MoveToLocation) Exit() error {
	m.path = nil
	return m.ended()
}

func indexOf(path []*Location, loc *Location) int {
	for i, l := range path {
		if l == loc {
			return i
		}
	}
	return -1
}
