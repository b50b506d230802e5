package resource

// Handle is an opaque, validated token naming an object in an arena.
// The low 24 bits hold the slot index plus one, the high 8 bits hold the
// slot generation. Handle 0 is reserved and always invalid.
type Handle uint32

const (
	indexBits = 24
	indexMask = 1<<indexBits - 1
	maxSlots  = indexMask
)

func makeHandle(slot uint32, gen uint8) Handle {
	return Handle(uint32(gen)<<indexBits | (slot + 1))
}

// slot returns the zero-based slot index, or false for handle 0.
func (h Handle) slot() (uint32, bool) {
	idx := uint32(h) & indexMask
	if idx == 0 {
		return 0, false
	}
	return idx - 1, true
}

func (h Handle) generation() uint8 {
	return uint8(uint32(h) >> indexBits)
}

// Class tags what kind of object a handle names. Lookups check the class so
// a scope handle can never be used where a type handle is expected.
type Class uint32

// EventType classifies arena lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
	EventBorrowed
	EventBorrowReturned
)

// Event represents an arena lifecycle event.
type Event struct {
	Value  any
	Handle Handle
	Class  Class
	Type   EventType
}

// Observer receives notifications about arena lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// Backend provides the underlying storage mechanism for an arena.
type Backend interface {
	// Create stores a value and returns a handle.
	Create(class Class, value any) (Handle, error)

	// Get retrieves a value by handle.
	Get(handle Handle) (any, bool)

	// Drop removes a value. It fails if the handle is stale or borrowed.
	Drop(handle Handle) (any, error)

	// Close releases all values held by the backend.
	Close() error
}
