package trace

import (
	"math"
	"sort"
)

// sleepLabel is the practice whose start/end pairs count as time asleep.
const sleepLabel = "Sleep"

// AgentStats aggregates one agent's behaviour over a run.
type AgentStats struct {
	Trips            int                // EntityEnteredLocation count
	LocationsVisited int                // distinct locations entered
	BedsUsed         int                // distinct beds slept in
	SleepTicks       int64              // ticks between each Sleep start and its end
	PracticeStarts   map[string]int     // practice label → starts
	DestinationRatio map[string]float64 // MoveToLocation destination → starts / trips
}

// RunSummary aggregates statistics from a run's event log.
type RunSummary struct {
	TotalEvents          int
	EventsByKind         map[EventKind]int
	Agents               map[string]*AgentStats
	TripsMean            float64
	TripsSD              float64
	LocationsVisitedMean float64
	LocationsVisitedSD   float64
	BedsUsedMean         float64
	BedsUsedSD           float64
	SleepTicksMean       float64
	SleepTicksSD         float64
}

// AgentNames returns the summarised agents in sorted order.
func (s *RunSummary) AgentNames() []string {
	names := make([]string, 0, len(s.Agents))
	for n := range s.Agents {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Summarize computes per-agent and population statistics from events.
// Only subjects listed in agents are summarised; events of other entities
// count towards the totals only.
// A Sleep still running at the end of the log adds no sleep ticks.
// Safe for nil or empty inputs (returns zero-value fields).
func Summarize(events []Event, agents []string) *RunSummary {
	summary := &RunSummary{
		EventsByKind: make(map[EventKind]int),
		Agents:       make(map[string]*AgentStats, len(agents)),
	}
	visited := make(map[string]map[string]bool, len(agents))
	beds := make(map[string]map[string]bool, len(agents))
	destinations := make(map[string]map[string]int, len(agents))
	sleepingSince := make(map[string]int64, len(agents))
	for _, a := range agents {
		summary.Agents[a] = &AgentStats{
			PracticeStarts:   make(map[string]int),
			DestinationRatio: make(map[string]float64),
		}
		visited[a] = make(map[string]bool)
		beds[a] = make(map[string]bool)
		destinations[a] = make(map[string]int)
	}

	for _, e := range events {
		summary.TotalEvents++
		summary.EventsByKind[e.Kind]++
		stats, ok := summary.Agents[e.Subject]
		if !ok {
			continue
		}
		switch e.Kind {
		case KindEntityEnteredLocation:
			stats.Trips++
			visited[e.Subject][e.Location] = true
		case KindPracticeStarted:
			stats.PracticeStarts[e.Label]++
			if bed, ok := e.Properties["bed"].(string); ok {
				beds[e.Subject][bed] = true
			}
			if dest, ok := e.Properties["destination"].(string); ok {
				destinations[e.Subject][dest]++
			}
			if e.Label == sleepLabel {
				sleepingSince[e.Subject] = e.Tick
			}
		case KindPracticeEnded:
			if start, ok := sleepingSince[e.Subject]; ok && e.Label == sleepLabel {
				stats.SleepTicks += e.Tick - start
				delete(sleepingSince, e.Subject)
			}
		}
	}

	trips := make([]float64, 0, len(agents))
	places := make([]float64, 0, len(agents))
	bedsUsed := make([]float64, 0, len(agents))
	sleeping := make([]float64, 0, len(agents))
	for _, a := range agents {
		stats := summary.Agents[a]
		stats.LocationsVisited = len(visited[a])
		stats.BedsUsed = len(beds[a])
		if stats.Trips > 0 {
			for dest, n := range destinations[a] {
				stats.DestinationRatio[dest] = float64(n) / float64(stats.Trips)
			}
		}
		trips = append(trips, float64(stats.Trips))
		places = append(places, float64(stats.LocationsVisited))
		bedsUsed = append(bedsUsed, float64(stats.BedsUsed))
		sleeping = append(sleeping, float64(stats.SleepTicks))
	}

	summary.TripsMean, summary.TripsSD = meanSD(trips)
	summary.LocationsVisitedMean, summary.LocationsVisitedSD = meanSD(places)
	summary.BedsUsedMean, summary.BedsUsedSD = meanSD(bedsUsed)
	summary.SleepTicksMean, summary.SleepTicksSD = meanSD(sleeping)
	return summary
}

// meanSD returns the mean and sample standard deviation; SD is 0 below two values.
func meanSD(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if len(values) < 2 {
		return mean, 0
	}
	sq := 0.0
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(values)-1))
}
