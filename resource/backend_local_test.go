package resource

import (
	"errors"
	"sync"
	"testing"
)

func TestLocalBackend_Basic(t *testing.T) {
	b := NewLocalBackend()

	handle, err := b.Create(1, "test value")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if handle == 0 {
		t.Fatal("Expected non-zero handle")
	}

	val, ok := b.Get(handle)
	if !ok {
		t.Fatal("Get failed")
	}
	if val != "test value" {
		t.Fatalf("Expected 'test value', got %v", val)
	}

	class, ok := b.Class(handle)
	if !ok || class != 1 {
		t.Fatalf("Class = %d, %v; want 1, true", class, ok)
	}

	val, err = b.Drop(handle)
	if err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if val != "test value" {
		t.Fatalf("Expected 'test value', got %v", val)
	}

	if _, ok = b.Get(handle); ok {
		t.Fatal("Expected Get to fail after Drop")
	}
}

func TestLocalBackend_Borrow(t *testing.T) {
	b := NewLocalBackend()

	handle, _ := b.Create(1, 100)

	if !b.Borrow(handle) {
		t.Fatal("Borrow failed")
	}

	if _, err := b.Drop(handle); !errors.Is(err, ErrBorrowed) {
		t.Fatalf("Drop with outstanding borrow = %v, want ErrBorrowed", err)
	}

	if !b.ReturnBorrow(handle) {
		t.Fatal("ReturnBorrow failed")
	}
	if b.ReturnBorrow(handle) {
		t.Fatal("ReturnBorrow should fail with no outstanding borrows")
	}

	if _, err := b.Drop(handle); err != nil {
		t.Fatalf("Drop should succeed after returning borrow: %v", err)
	}
}

func TestLocalBackend_MultipleBorrows(t *testing.T) {
	b := NewLocalBackend()

	handle, _ := b.Create(1, 100)

	for i := 0; i < 5; i++ {
		if !b.Borrow(handle) {
			t.Fatalf("Borrow %d failed", i)
		}
	}

	if _, err := b.Drop(handle); err == nil {
		t.Fatal("Drop should fail with outstanding borrows")
	}

	for i := 0; i < 5; i++ {
		if !b.ReturnBorrow(handle) {
			t.Fatalf("ReturnBorrow %d failed", i)
		}
	}

	if _, err := b.Drop(handle); err != nil {
		t.Fatalf("Drop should succeed after returning all borrows: %v", err)
	}
}

func TestLocalBackend_StaleHandleAfterReuse(t *testing.T) {
	b := NewLocalBackend()

	h1, _ := b.Create(1, "first")
	if _, err := b.Drop(h1); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}

	h2, _ := b.Create(1, "second")
	s1, _ := h1.slot()
	s2, _ := h2.slot()
	if s1 != s2 {
		t.Fatalf("expected slot reuse, got %d and %d", s1, s2)
	}
	if h1 == h2 {
		t.Fatal("reused slot must carry a new generation")
	}

	if _, ok := b.Get(h1); ok {
		t.Fatal("stale handle must not resolve to the new occupant")
	}
	if v, ok := b.Get(h2); !ok || v != "second" {
		t.Fatalf("Get(h2) = %v, %v; want second, true", v, ok)
	}
	if _, err := b.Drop(h1); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("Drop(stale) = %v, want ErrInvalidHandle", err)
	}
}

func TestLocalBackend_Close(t *testing.T) {
	b := NewLocalBackend()

	b.Create(1, 1)
	b.Create(1, 2)

	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	_, err := b.Create(1, "test")
	if !errors.Is(err, ErrClosed) {
		t.Fatal("Expected ErrClosed after Close")
	}
}

func TestLocalBackend_Concurrent(t *testing.T) {
	b := NewLocalBackend()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			h, _ := b.Create(1, id)
			b.Borrow(h)
			b.ReturnBorrow(h)
			b.Drop(h)
		}(i)
	}

	wg.Wait()

	if b.Len() != 0 {
		t.Fatalf("Expected Len() == 0, got %d", b.Len())
	}
}

func TestLocalBackend_Len(t *testing.T) {
	b := NewLocalBackend()

	if b.Len() != 0 {
		t.Fatal("Expected Len() == 0 initially")
	}

	h1, _ := b.Create(1, "a")
	h2, _ := b.Create(1, "b")
	b.Create(1, "c")

	if b.Len() != 3 {
		t.Fatalf("Expected Len() == 3, got %d", b.Len())
	}

	b.Drop(h1)
	if b.Len() != 2 {
		t.Fatalf("Expected Len() == 2, got %d", b.Len())
	}

	b.Drop(h2)
	if b.Len() != 1 {
		t.Fatalf("Expected Len() == 1, got %d", b.Len())
	}
}

func TestLocalBackend_InvalidHandle(t *testing.T) {
	b := NewLocalBackend()

	if _, ok := b.Get(0); ok {
		t.Fatal("Handle 0 should be invalid")
	}
	if _, ok := b.Class(0); ok {
		t.Fatal("Handle 0 should have no class")
	}
	if b.Borrow(0) {
		t.Fatal("Handle 0 should fail Borrow")
	}
	if b.ReturnBorrow(0) {
		t.Fatal("Handle 0 should fail ReturnBorrow")
	}
	if _, err := b.Drop(0); !errors.Is(err, ErrInvalidHandle) {
		t.Fatal("Handle 0 should fail Drop")
	}

	if _, ok := b.Get(999); ok {
		t.Fatal("Non-existent handle should be invalid")
	}
}
