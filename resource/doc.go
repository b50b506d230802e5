// Package resource provides the handle arena used at the host boundary.
//
// Objects that cross between the host engine and an embedded runtime
// (loader instances, contexts, scopes, types, functions, values) are never
// passed as raw pointers. They live in a Table and are referred to by
// Handle tokens that are validated on every access.
//
// # Handles
//
// A Handle packs a slot index and a generation counter:
//
//	table := resource.NewTable()
//
//	h, err := table.Insert(classType, myType)
//	value, ok := table.GetTyped(h, classType)  // ok
//	value, ok := table.GetTyped(h, classScope) // !ok, wrong class
//
//	table.Remove(h)
//	value, ok := table.Get(h) // !ok, even after the slot is reused
//
// # Borrowing
//
// Handles are borrowed for the duration of a call. A borrowed handle cannot
// be removed:
//
//	release, err := table.Borrow(loader, classLoader)
//	if err != nil {
//	    return err
//	}
//	defer release()
//
// # Typed views
//
// Typed[T] binds a class to a Go type so callers get T back without type
// assertions:
//
//	types := resource.NewTyped[*Type](table, classType)
//	h, _ := types.Insert(t)
//	t, ok := types.Get(h)
//
// # Observers
//
// Subscribe an Observer to receive EventCreated, EventDropped,
// EventBorrowed and EventBorrowReturned notifications.
package resource
