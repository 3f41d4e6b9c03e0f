package sim

import "github.com/ojrac/opensimplex-go"

// weatherPeriod is how many days one weather front takes to pass.
const weatherPeriod = 3

// Weather returns a smooth ambient value in [0,1) for loc at the current tick.
// The field is seeded from the world's ambient subsystem, so it is identical
// across runs with the same seed and independent of agent choices.
func (w *World) Weather(loc *Location) float64 {
	if w.weather == nil {
		w.weather = opensimplex.NewNormalized(w.rng.SeedFor(SubsystemAmbient))
	}
	x := float64(w.clock) / float64(w.dayLength*weatherPeriod)
	y := 0.0
	if i, ok := w.locIndex[loc.Name()]; ok {
		y = float64(i) * 0.25
	}
	return w.weather.Eval2(x, y)
}
