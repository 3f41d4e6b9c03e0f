// Package sim provides the discrete-time kernel of the practice simulator.
//
// # Reading Guide
//
// Start with these files to understand the kernel:
//   - world.go: the World, its clock, entity registry, placement and perception rules
//   - agent.go: the Idle/Executing decision loop (candidates, scoring, selection)
//   - practice.go: the Practice lifecycle (Enter, Tick, HasEnded, Exit)
//
// # Architecture
//
// A World owns a location graph (graph.go), registered entities with their
// EntityDetails (entity.go) and a monotonically increasing clock. Each
// World.Tick increments the clock, ages every entity's dwell counter, then
// ticks the entities in registration order. Agents pick practices by scoring
// candidates with per-practice WeightVectors over a FeatureRegistry
// (feature.go, weights.go), evaluated through a ContextSpec (context.go), and
// sample one with a SelectionPolicy (selection.go).
//
// Events flow to a trace.EventSink passed in WorldConfig; the sim/store
// package persists them to SQLite.
//
// # Key Interfaces
//
//   - Entity: anything the world holds and ticks (Agent, Object)
//   - Practice: one unit of behaviour with its own state
//   - SelectionPolicy: softmax or greedy-with-tiebreak over salience scores
//   - trace.EventSink: destination for recorded events
//
// # Errors
//
// Every error wraps a sentinel (ErrDuplicate, ErrDwellTime, ...) in an *Error
// tagged with an ErrorKind. Use errors.Is for the cause and IsConfig,
// IsInvariant or IsUnreachable for the category.
package sim
