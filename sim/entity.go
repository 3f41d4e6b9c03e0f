package sim

// Entity is anything the world can hold and tick.
//
// Implementations embed EntityBase, which carries the name and the attribute
// map. Attributes are only reachable through World.ChangeAttribute and
// World.Attribute so that co-location rules are enforced in one place.
type Entity interface {
	Name() string
	Tick() error
	base() *EntityBase
}

// EntityBase holds the identity and open-ended attribute map shared by all entities.
type EntityBase struct {
	name  string
	attrs map[string]any
}

// NewEntityBase creates a base with initial attributes, copied.
func NewEntityBase(name string, attrs map[string]any) EntityBase {
	m := make(map[string]any, len(attrs))
	for k, v := range attrs {
		m[k] = v
	}
	return EntityBase{name: name, attrs: m}
}

// Name returns the entity's unique name.
func (b *EntityBase) Name() string { return b.name }

func (b *EntityBase) base() *EntityBase { return b }

func (b *EntityBase) String() string { return b.name }

// Attribute keys with engine meaning.
const (
	AttrBed      = "bed"
	AttrOccupied = "occupied"
)

// Object is a passive entity such as a bed.
type Object struct {
	EntityBase
}

// NewObject creates a passive object with initial attributes.
func NewObject(name string, attrs map[string]any) *Object {
	return &Object{EntityBase: NewEntityBase(name, attrs)}
}

// NewBed creates an unoccupied bed object.
func NewBed(name string) *Object {
	return NewObject(name, map[string]any{AttrBed: true, AttrOccupied: false})
}

// Tick is a no-op; objects only change through other entities.
func (o *Object) Tick() error { return nil }

// EntityDetails is the world's per-entity bookkeeping.
type EntityDetails struct {
	Location           *Location // nil until placed
	TicksSinceLastMove int64
}
