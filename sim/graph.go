package sim

import "github.com/sirupsen/logrus"

// The location graph is stored as index-based adjacency lists kept sorted by
// registration order. BFS expands neighbours in that order, which makes
// shortest-path tie-breaking stable across runs.

// RegisterLocation adds loc as an isolated node.
func (w *World) RegisterLocation(loc *Location) error {
	const op = "register location"
	if loc == nil || loc.name == "" {
		return configErr(op, ErrInvalidConfig, "location must have a name")
	}
	if loc.minDwellTicks < 0 {
		return configErr(op, ErrInvalidConfig, "location %q has negative min dwell ticks %d", loc.name, loc.minDwellTicks)
	}
	if _, ok := w.locIndex[loc.name]; ok {
		return configErr(op, ErrDuplicate, "location %q", loc.name)
	}
	w.locIndex[loc.name] = len(w.locations)
	w.locations = append(w.locations, loc)
	w.adj = append(w.adj, nil)
	return nil
}

// Connect adds an undirected edge between a and b.
// Connecting an already connected pair is a no-op.
func (w *World) Connect(a, b *Location) error {
	const op = "connect"
	ia, ib, err := w.endpoints(op, a, b)
	if err != nil {
		return err
	}
	if ia == ib {
		return configErr(op, ErrInvalidConfig, "location %q cannot connect to itself", a.name)
	}
	if w.adjacentIdx(ia, ib) {
		logrus.Debugf("connect: %s-%s already connected", a.name, b.name)
		return nil
	}
	w.adj[ia] = insertSorted(w.adj[ia], ib)
	w.adj[ib] = insertSorted(w.adj[ib], ia)
	return nil
}

// Disconnect removes the edge between a and b.
func (w *World) Disconnect(a, b *Location) error {
	const op = "disconnect"
	ia, ib, err := w.endpoints(op, a, b)
	if err != nil {
		return err
	}
	if !w.adjacentIdx(ia, ib) {
		return configErr(op, ErrNotAdjacent, "%s and %s", a.name, b.name)
	}
	w.adj[ia] = removeValue(w.adj[ia], ib)
	w.adj[ib] = removeValue(w.adj[ib], ia)
	return nil
}

// Location looks a registered location up by name.
func (w *World) Location(name string) (*Location, bool) {
	i, ok := w.locIndex[name]
	if !ok {
		return nil, false
	}
	return w.locations[i], true
}

// Locations returns every registered location in registration order.
func (w *World) Locations() []*Location {
	out := make([]*Location, len(w.locations))
	copy(out, w.locations)
	return out
}

// Neighbors returns the locations adjacent to loc in registration order.
func (w *World) Neighbors(loc *Location) ([]*Location, error) {
	i, err := w.locIdx("neighbors", loc)
	if err != nil {
		return nil, err
	}
	out := make([]*Location, 0, len(w.adj[i]))
	for _, j := range w.adj[i] {
		out = append(out, w.locations[j])
	}
	return out, nil
}

// IsAdjacent reports whether a and b share an edge. Unknown locations are never adjacent.
func (w *World) IsAdjacent(a, b *Location) bool {
	if a == nil || b == nil {
		return false
	}
	ia, okA := w.locIndex[a.name]
	ib, okB := w.locIndex[b.name]
	return okA && okB && w.adjacentIdx(ia, ib)
}

// ShortestPath returns the hop-minimal route from origin to destination, both
// inclusive. Among equal-length routes the one expanding earlier-registered
// locations first wins.
func (w *World) ShortestPath(origin, destination *Location) ([]*Location, error) {
	const op = "shortest path"
	from, to, err := w.endpoints(op, origin, destination)
	if err != nil {
		return nil, err
	}
	if from == to {
		return []*Location{origin}, nil
	}

	prev := make([]int, len(w.locations))
	for i := range prev {
		prev[i] = -1
	}
	prev[from] = from
	queue := []int{from}
	for len(queue) > 0 && prev[to] == -1 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range w.adj[cur] {
			if prev[next] != -1 {
				continue
			}
			prev[next] = cur
			queue = append(queue, next)
		}
	}
	if prev[to] == -1 {
		return nil, unreachableErr(op, "%s to %s", origin.name, destination.name)
	}

	hops := make([]int, 0)
	for at := to; at != from; at = prev[at] {
		hops = append(hops, at)
	}
	path := make([]*Location, 0, len(hops)+1)
	path = append(path, origin)
	for i := len(hops) - 1; i >= 0; i-- {
		path = append(path, w.locations[hops[i]])
	}
	return path, nil
}

func (w *World) locIdx(op string, loc *Location) (int, error) {
	if loc == nil {
		return 0, configErr(op, ErrUnknownLocation, "nil location")
	}
	i, ok := w.locIndex[loc.name]
	if !ok || w.locations[i] != loc {
		return 0, configErr(op, ErrUnknownLocation, "%q", loc.name)
	}
	return i, nil
}

func (w *World) endpoints(op string, a, b *Location) (int, int, error) {
	ia, err := w.locIdx(op, a)
	if err != nil {
		return 0, 0, err
	}
	ib, err := w.locIdx(op, b)
	if err != nil {
		return 0, 0, err
	}
	return ia, ib, nil
}

func (w *World) adjacentIdx(a, b int) bool {
	for _, n := range w.adj[a] {
		if n == b {
			return true
		}
	}
	return false
}

func insertSorted(s []int, v int) []int {
	i := 0
	for i < len(s) && s[i] < v {
		i++
	}
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func removeValue(s []int, v int) []int {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
