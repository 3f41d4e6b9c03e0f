package sim

// DefaultInteractTicks is how long a social interaction lasts unless configured.
const DefaultInteractTicks = 12

// InteractWithOther is a fixed-duration placeholder for social behaviour
// categories; its only effect is the start/end events under its label.
type InteractWithOther struct {
	practiceBase
	timer
}

// NewInteractWithOther creates a social practice with the given label.
func NewInteractWithOther(owner *Agent, label string, duration int64) *InteractWithOther {
	return &InteractWithOther{
		practiceBase: practiceBase{owner: owner, world: owner.world, label: label},
		timer:        timer{duration: duration},
	}
}

// Kind implements Practice.
func (p *InteractWithOther) Kind() PracticeKind { return PracticeInteract }

// Properties implements Practice.
func (p *InteractWithOther) Properties() map[string]any { return map[string]any{} }

// Enter records the start event.
func (p *InteractWithOther) Enter() error {
	p.reset()
	return p.started(p.Properties())
}

// Tick advances the timer.
func (p *InteractWithOther) Tick() error {
	p.tick()
	return nil
}

// HasEnded reports whether the fixed duration has passed.
func (p *InteractWithOther) HasEnded() bool { return p.done() }

// Exit records the end event.
func (p *InteractWithOther) Exit() error { return p.ended() }
