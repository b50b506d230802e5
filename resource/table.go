package resource

import (
	"sync"
)

// Table is a class-checked arena of borrowed host objects with observer
// support.
type Table struct {
	backend   *LocalBackend
	observers []Observer
	obsMu     sync.RWMutex
}

// NewTable creates a new table with a LocalBackend.
func NewTable() *Table {
	return &Table{
		backend: NewLocalBackend(),
	}
}

// Insert adds a value and returns its handle.
func (t *Table) Insert(class Class, value any) (Handle, error) {
	handle, err := t.backend.Create(class, value)
	if err != nil {
		return 0, err
	}

	t.notify(Event{
		Type:   EventCreated,
		Handle: handle,
		Class:  class,
		Value:  value,
	})

	return handle, nil
}

// Get retrieves a value by handle regardless of class.
func (t *Table) Get(handle Handle) (any, bool) {
	return t.backend.Get(handle)
}

// GetTyped retrieves a value only if it was inserted with the expected class.
func (t *Table) GetTyped(handle Handle, class Class) (any, bool) {
	actual, ok := t.backend.Class(handle)
	if !ok || actual != class {
		return nil, false
	}
	return t.backend.Get(handle)
}

// Remove drops a value and returns it.
func (t *Table) Remove(handle Handle) (any, error) {
	class, _ := t.backend.Class(handle)
	value, err := t.backend.Drop(handle)
	if err != nil {
		return nil, err
	}

	t.notify(Event{
		Type:   EventDropped,
		Handle: handle,
		Class:  class,
		Value:  value,
	})

	return value, nil
}

// Borrow pins a handle of the given class for the duration of a call. The
// handle cannot be removed until the returned release func runs.
func (t *Table) Borrow(handle Handle, class Class) (release func(), err error) {
	actual, ok := t.backend.Class(handle)
	if !ok || actual != class {
		return nil, ErrInvalidHandle
	}
	if !t.backend.Borrow(handle) {
		return nil, ErrInvalidHandle
	}
	t.notify(Event{Type: EventBorrowed, Handle: handle, Class: class})

	var once sync.Once
	return func() {
		once.Do(func() {
			if t.backend.ReturnBorrow(handle) {
				t.notify(Event{Type: EventBorrowReturned, Handle: handle, Class: class})
			}
		})
	}, nil
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Len returns the number of live values.
func (t *Table) Len() int {
	return t.backend.Len()
}

// Close releases all values and stops accepting inserts.
func (t *Table) Close() error {
	return t.backend.Close()
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}

// Typed is a class-bound view of a Table that stores values of type T.
type Typed[T any] struct {
	table *Table
	class Class
}

// NewTyped returns a view of t restricted to class.
func NewTyped[T any](t *Table, class Class) *Typed[T] {
	return &Typed[T]{table: t, class: class}
}

// Insert adds a value and returns its handle.
func (v *Typed[T]) Insert(value T) (Handle, error) {
	return v.table.Insert(v.class, value)
}

// Get retrieves a value by handle. It fails for handles of another class.
func (v *Typed[T]) Get(handle Handle) (T, bool) {
	var zero T
	raw, ok := v.table.GetTyped(handle, v.class)
	if !ok {
		return zero, false
	}
	val, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return val, true
}

// Remove drops a value of this class.
func (v *Typed[T]) Remove(handle Handle) (T, error) {
	var zero T
	if _, ok := v.table.GetTyped(handle, v.class); !ok {
		return zero, ErrInvalidHandle
	}
	raw, err := v.table.Remove(handle)
	if err != nil {
		return zero, err
	}
	val, _ := raw.(T)
	return val, nil
}

// Borrow pins a handle of this class.
func (v *Typed[T]) Borrow(handle Handle) (func(), error) {
	return v.table.Borrow(handle, v.class)
}
