package resource

import (
	"errors"
	"sync"
)

var (
	ErrClosed        = errors.New("resource arena closed")
	ErrInvalidHandle = errors.New("invalid or stale handle")
	ErrBorrowed      = errors.New("cannot drop handle with outstanding borrows")
	ErrFull          = errors.New("resource arena full")
)

// LocalBackend is an in-memory arena with generation-checked slots and
// borrow tracking.
type LocalBackend struct {
	entries  []entry
	freeList []uint32
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	value       any
	class       Class
	borrowCount uint32
	gen         uint8
	valid       bool
}

// NewLocalBackend creates a new in-memory backend.
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{
		entries:  make([]entry, 0, 64),
		freeList: make([]uint32, 0, 16),
	}
}

// Create stores a value and returns a handle. A reused slot gets the next
// generation, so handles to the previous occupant stay invalid.
func (b *LocalBackend) Create(class Class, value any) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}

	if n := len(b.freeList); n > 0 {
		slot := b.freeList[n-1]
		b.freeList = b.freeList[:n-1]
		e := &b.entries[slot]
		e.value = value
		e.class = class
		e.valid = true
		return makeHandle(slot, e.gen), nil
	}

	if len(b.entries) >= maxSlots {
		return 0, ErrFull
	}

	b.entries = append(b.entries, entry{class: class, value: value, valid: true})
	return makeHandle(uint32(len(b.entries)-1), 0), nil
}

// lookup returns the live entry for handle. Caller holds b.mu.
func (b *LocalBackend) lookup(handle Handle) *entry {
	slot, ok := handle.slot()
	if !ok || int(slot) >= len(b.entries) {
		return nil
	}
	e := &b.entries[slot]
	if !e.valid || e.gen != handle.generation() {
		return nil
	}
	return e
}

// Get retrieves a value by handle.
func (b *LocalBackend) Get(handle Handle) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e := b.lookup(handle)
	if e == nil {
		return nil, false
	}
	return e.value, true
}

// Class returns the class a handle was created with.
func (b *LocalBackend) Class(handle Handle) (Class, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e := b.lookup(handle)
	if e == nil {
		return 0, false
	}
	return e.class, true
}

// Drop removes a value and returns it so the caller can release it.
func (b *LocalBackend) Drop(handle Handle) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.lookup(handle)
	if e == nil {
		return nil, ErrInvalidHandle
	}
	if e.borrowCount > 0 {
		return nil, ErrBorrowed
	}

	slot, _ := handle.slot()
	value := e.value
	e.valid = false
	e.value = nil
	e.gen++
	b.freeList = append(b.freeList, slot)

	return value, nil
}

// Borrow increments the borrow count for a handle.
func (b *LocalBackend) Borrow(handle Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.lookup(handle)
	if e == nil {
		return false
	}
	e.borrowCount++
	return true
}

// ReturnBorrow decrements the borrow count for a handle.
func (b *LocalBackend) ReturnBorrow(handle Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.lookup(handle)
	if e == nil || e.borrowCount == 0 {
		return false
	}
	e.borrowCount--
	return true
}

// Close releases all values.
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for i := range b.entries {
		if b.entries[i].valid {
			b.entries[i].valid = false
			b.entries[i].value = nil
		}
	}

	b.entries = nil
	b.freeList = nil
	return nil
}

// Len returns the number of live values.
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, e := range b.entries {
		if e.valid {
			count++
		}
	}
	return count
}
