package resource

import (
	"errors"
	"testing"
)

const (
	classA Class = iota + 1
	classB
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnResourceEvent(e Event) {
	o.events = append(o.events, e)
}

func TestTable_Basic(t *testing.T) {
	table := NewTable()

	h, err := table.Insert(classA, "test")
	if err != nil || h == 0 {
		t.Fatalf("Insert = %v, %v; want non-zero handle", h, err)
	}

	val, ok := table.Get(h)
	if !ok {
		t.Fatal("Get failed")
	}
	if val != "test" {
		t.Fatalf("Expected 'test', got %v", val)
	}

	if _, ok = table.GetTyped(h, classA); !ok {
		t.Fatal("GetTyped with correct class failed")
	}

	if _, ok = table.GetTyped(h, classB); ok {
		t.Fatal("GetTyped with wrong class should fail")
	}

	val, err = table.Remove(h)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if val != "test" {
		t.Fatalf("Expected 'test', got %v", val)
	}

	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Remove")
	}
}

func TestTable_Observer(t *testing.T) {
	table := NewTable()
	obs := &testObserver{}
	table.Subscribe(obs)

	h, _ := table.Insert(classA, "test")
	if len(obs.events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(obs.events))
	}
	if obs.events[0].Type != EventCreated || obs.events[0].Class != classA {
		t.Fatalf("Expected EventCreated for classA, got %+v", obs.events[0])
	}
	if obs.events[0].Handle != h {
		t.Fatal("Wrong handle in event")
	}

	release, err := table.Borrow(h, classA)
	if err != nil {
		t.Fatalf("Borrow failed: %v", err)
	}
	release()
	release()
	if len(obs.events) != 3 {
		t.Fatalf("Expected 3 events after borrow round-trip, got %d", len(obs.events))
	}
	if obs.events[1].Type != EventBorrowed || obs.events[2].Type != EventBorrowReturned {
		t.Fatal("Expected EventBorrowed then EventBorrowReturned")
	}

	table.Remove(h)
	if len(obs.events) != 4 {
		t.Fatalf("Expected 4 events, got %d", len(obs.events))
	}
	if obs.events[3].Type != EventDropped {
		t.Fatal("Expected EventDropped")
	}
}

func TestTable_BorrowBlocksRemove(t *testing.T) {
	table := NewTable()
	h, _ := table.Insert(classA, "loader")

	if _, err := table.Borrow(h, classB); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("Borrow with wrong class = %v, want ErrInvalidHandle", err)
	}

	release, err := table.Borrow(h, classA)
	if err != nil {
		t.Fatalf("Borrow failed: %v", err)
	}

	if _, err := table.Remove(h); !errors.Is(err, ErrBorrowed) {
		t.Fatalf("Remove while borrowed = %v, want ErrBorrowed", err)
	}

	release()
	if _, err := table.Remove(h); err != nil {
		t.Fatalf("Remove after release failed: %v", err)
	}
}

func TestTable_Close(t *testing.T) {
	table := NewTable()

	table.Insert(classA, "a")
	table.Insert(classA, "b")

	if err := table.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := table.Insert(classA, "c"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Insert after Close = %v, want ErrClosed", err)
	}
}

func TestTyped(t *testing.T) {
	table := NewTable()
	strs := NewTyped[string](table, classA)
	ints := NewTyped[int](table, classB)

	hs, _ := strs.Insert("x")
	hi, _ := ints.Insert(7)

	if v, ok := strs.Get(hs); !ok || v != "x" {
		t.Fatalf("strs.Get = %q, %v", v, ok)
	}
	if _, ok := strs.Get(hi); ok {
		t.Fatal("typed view must reject handles of another class")
	}
	if _, err := strs.Remove(hi); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("strs.Remove(int handle) = %v, want ErrInvalidHandle", err)
	}

	if v, err := ints.Remove(hi); err != nil || v != 7 {
		t.Fatalf("ints.Remove = %d, %v", v, err)
	}
}
