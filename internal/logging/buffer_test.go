package logging

import (
	"slices"
	"sync"
	"testing"
)

func TestRingBufferOrder(t *testing.T) {
	rb := NewRingBuffer[int](3)

	if got := rb.ReadAll(); got != nil {
		t.Fatalf("empty buffer ReadAll() = %v, want nil", got)
	}

	rb.Write(1)
	rb.Write(2)
	if got := rb.ReadAll(); !slices.Equal(got, []int{1, 2}) {
		t.Errorf("partial buffer = %v, want [1 2]", got)
	}

	rb.Write(3)
	rb.Write(4)
	rb.Write(5)
	if got := rb.ReadAll(); !slices.Equal(got, []int{3, 4, 5}) {
		t.Errorf("wrapped buffer = %v, want [3 4 5]", got)
	}
	if rb.Count() != 3 {
		t.Errorf("Count() = %d, want 3", rb.Count())
	}
}

func TestRingBufferMinimumCapacity(t *testing.T) {
	rb := NewRingBuffer[string](0)
	if rb.Capacity() != 1 {
		t.Fatalf("Capacity() = %d, want 1", rb.Capacity())
	}
	rb.Write("a")
	rb.Write("b")
	if got := rb.ReadAll(); !slices.Equal(got, []string{"b"}) {
		t.Errorf("ReadAll() = %v, want [b]", got)
	}
}

func TestRingBufferConcurrentWrites(t *testing.T) {
	rb := NewRingBuffer[int](100)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				rb.Write(i)
				_ = rb.ReadAll()
			}
		}()
	}
	wg.Wait()

	if rb.Count() != 100 {
		t.Errorf("Count() = %d, want 100", rb.Count())
	}
}
