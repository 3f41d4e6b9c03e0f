package sim

// Sleep occupies a co-located bed for a minimum number of ticks.
type Sleep struct {
	practiceBase
	timer
	bed *Object
}

// NewSleep creates a sleep practice on bed lasting more than minTicks ticks.
func NewSleep(owner *Agent, bed *Object, minTicks int64) *Sleep {
	return &Sleep{
		practiceBase: practiceBase{owner: owner, world: owner.world, label: LabelSleep},
		timer:        timer{duration: minTicks},
		bed:          bed,
	}
}

// Kind implements Practice.
func (s *Sleep) Kind() PracticeKind { return PracticeSleep }

// TargetEntity implements Practice.
func (s *Sleep) TargetEntity() Entity { return s.bed }

// Properties implements Practice.
func (s *Sleep) Properties() map[string]any {
	return map[string]any{"bed": s.bed.Name()}
}

// Enter marks the bed occupied. Fails unless owner and bed are co-located.
func (s *Sleep) Enter() error {
	occupied, err := s.world.Attribute(s.owner, s.bed, AttrOccupied)
	if err != nil {
		return err
	}
	if occupied == true {
		return invariantErr("sleep", ErrEntityBusy, "bed %q is occupied", s.bed.Name())
	}
	if err := s.world.ChangeAttribute(s.owner, s.bed, AttrOccupied, true); err != nil {
		return err
	}
	s.reset()
	return s.started(s.Properties())
}

// Tick advances the sleep timer.
func (s *Sleep) Tick() error {
	s.tick()
	return nil
}

// HasEnded reports whether the timer has exceeded the minimum duration.
func (s *Sleep) HasEnded() bool { return s.done() }

// Exit frees the bed and records the end event.
func (s *Sleep) Exit() error {
	if err := s.world.ChangeAttribute(s.owner, s.bed, AttrOccupied, false); err != nil {
		return err
	}
	return s.ended()
}

// Idle does nothing for a minimum number of ticks. It is every agent's fallback.
type Idle struct {
	practiceBase
	timer
}

// NewIdle creates an idle practice lasting more than minTicks ticks.
func NewIdle(owner *Agent, minTicks int64) *Idle {
	return &Idle{
		practiceBase: practiceBase{owner: owner, world: owner.world, label: LabelIdle},
		timer:        timer{duration: minTicks},
	}
}

// Kind implements Practice.
func (i *Idle) Kind() PracticeKind { return PracticeIdle }

// Properties implements Practice.
func (i *Idle) Properties() map[string]any { return map[string]any{} }

// Enter records the start event.
func (i *Idle) Enter() error {
	i.reset()
	return i.started(i.Properties())
}

// Tick advances the timer.
func (i *Idle) Tick() error {
	i.tick()
	return nil
}

// HasEnded reports whether the timer has exceeded the minimum duration.
func (i *Idle) HasEnded() bool { return i.done() }

// Exit records the end event.
func (i *Idle) Exit() error { return i.ended() }
