package cache

import "testing"

func TestRingBuffer_FIFO(t *testing.T) {
	r := NewRingBuffer[int](3)
	r.Push(1)
	r.Push(2)

	out := r.Flush()
	if len(out) != 2 || out[0] != 1 || out[1] != 2 {
		t.Fatalf("Should flush in insertion order, got %v", out)
	}
	if r.Len() != 0 {
		t.Fatal("Should be empty after flush")
	}
}

func TestRingBuffer_OverwritesOldest(t *testing.T) {
	r := NewRingBuffer[int](3)
	for i := 1; i <= 5; i++ {
		r.Push(i)
	}

	out := r.Flush()
	if len(out) != 3 || out[0] != 3 || out[1] != 4 || out[2] != 5 {
		t.Fatalf("Should keep only the newest elements, got %v", out)
	}
}

func TestRingBuffer_PushReportsDrop(t *testing.T) {
	r := NewRingBuffer[int](1)
	if !r.Push(1) {
		t.Fatal("Should report no drop while below capacity")
	}
	if r.Push(2) {
		t.Fatal("Should report the drop of the oldest element")
	}
}

func TestRingBuffer_ZeroCapacityPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Should panic on non-positive capacity")
		}
	}()
	NewRingBuffer[int](0)
}
