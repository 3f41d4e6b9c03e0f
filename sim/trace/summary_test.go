package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_Empty_ZeroValues(t *testing.T) {
	// GIVEN no events and no agents
	summary := Summarize(nil, nil)

	// THEN all counts are zero
	assert.Equal(t, 0, summary.TotalEvents)
	assert.Empty(t, summary.Agents)
	assert.Zero(t, summary.TripsMean)
	assert.Zero(t, summary.TripsSD)
}

func TestSummarize_PerAgentCounts(t *testing.T) {
	// GIVEN a log with two agents and a bed
	events := []Event{
		EnteredLocation(0, "bed", "House"),
		EnteredLocation(0, "a1", "House"),
		EnteredLocation(0, "a2", "Square"),
		PracticeStarted(1, "a1", "MoveToLocation", map[string]any{"destination": "Square"}),
		EnteredLocation(2, "a1", "Path"),
		EnteredLocation(3, "a1", "Square"),
		PracticeEnded(4, "a1", "MoveToLocation"),
		PracticeStarted(1, "a2", "Sleep", map[string]any{"bed": "bed"}),
		PracticeEnded(7, "a2", "Sleep"),
		SalienceVectorRegistered(0, "a1", "Sleep", map[string]FeatureWeight{"Time": {Weight: 1}}),
	}

	// WHEN summarized for the two agents
	summary := Summarize(events, []string{"a1", "a2"})

	// THEN per-agent stats are computed and the bed is excluded
	assert.Equal(t, len(events), summary.TotalEvents)
	assert.Equal(t, 4, summary.EventsByKind[KindEntityEnteredLocation])
	require.Contains(t, summary.Agents, "a1")
	a1 := summary.Agents["a1"]
	assert.Equal(t, 3, a1.Trips)
	assert.Equal(t, 3, a1.LocationsVisited)
	assert.Equal(t, 1, a1.PracticeStarts["MoveToLocation"])
	assert.InDelta(t, 1.0/3.0, a1.DestinationRatio["Square"], 1e-9)

	a2 := summary.Agents["a2"]
	assert.Equal(t, 1, a2.Trips)
	assert.Equal(t, 1, a2.BedsUsed)
	assert.Equal(t, int64(6), a2.SleepTicks)
	assert.Zero(t, a1.SleepTicks)
	assert.NotContains(t, summary.Agents, "bed")
	assert.Equal(t, []string{"a1", "a2"}, summary.AgentNames())
}

func TestSummarize_MeanAndSampleSD(t *testing.T) {
	// GIVEN agents with 1 and 3 trips
	events := []Event{
		EnteredLocation(0, "a1", "L1"),
		EnteredLocation(0, "a2", "L1"),
		EnteredLocation(1, "a2", "L2"),
		EnteredLocation(2, "a2", "L3"),
	}

	summary := Summarize(events, []string{"a1", "a2"})

	// THEN mean is 2 and sample SD is sqrt(2)
	assert.InDelta(t, 2.0, summary.TripsMean, 1e-9)
	assert.InDelta(t, 1.41421356, summary.TripsSD, 1e-6)
	assert.InDelta(t, 2.0, summary.LocationsVisitedMean, 1e-9)
}

func TestSummarize_AgentWithoutTrips_NoDestinationRatio(t *testing.T) {
	events := []Event{
		PracticeStarted(1, "a1", "MoveToLocation", map[string]any{"destination": "L2"}),
	}
	summary := Summarize(events, []string{"a1"})
	assert.Empty(t, summary.Agents["a1"].DestinationRatio)
	assert.Zero(t, summary.TripsSD)
}

func TestSummarize_SleepTicks(t *testing.T) {
	// GIVEN a1 sleeping twice and a2 still asleep when the log ends
	events := []Event{
		PracticeStarted(1, "a1", "Sleep", map[string]any{"bed": "b1"}),
		PracticeEnded(4, "a1", "Sleep"),
		PracticeStarted(5, "a1", "Idle", nil),
		PracticeEnded(9, "a1", "Idle"),
		PracticeStarted(10, "a1", "Sleep", map[string]any{"bed": "b1"}),
		PracticeEnded(15, "a1", "Sleep"),
		PracticeStarted(2, "a2", "Sleep", map[string]any{"bed": "b2"}),
	}

	summary := Summarize(events, []string{"a1", "a2"})

	// THEN only completed sleeps count
	assert.Equal(t, int64(8), summary.Agents["a1"].SleepTicks)
	assert.Zero(t, summary.Agents["a2"].SleepTicks)
	assert.InDelta(t, 4.0, summary.SleepTicksMean, 1e-9)
	assert.InDelta(t, 5.65685425, summary.SleepTicksSD, 1e-6)
}
