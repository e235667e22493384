package buffer

import (
	"reflect"
	"sync"
	"testing"
)

func TestNewRingBuffer(t *testing.T) {
	// Test with valid capacity
	rb := NewRingBuffer[int](100)
	if rb.Cap() != 100 {
		t.Errorf("expected capacity 100, got %d", rb.Cap())
	}
	if rb.Len() != 0 {
		t.Errorf("expected length 0, got %d", rb.Len())
	}

	// Zero and negative capacity default to 1
	rb = NewRingBuffer[int](0)
	if rb.Cap() != 1 {
		t.Errorf("expected capacity 1 for zero input, got %d", rb.Cap())
	}
	rb = NewRingBuffer[int](-5)
	if rb.Cap() != 1 {
		t.Errorf("expected capacity 1 for negative input, got %d", rb.Cap())
	}
}

func TestRingBuffer_Push(t *testing.T) {
	rb := NewRingBuffer[string](3)

	rb.Push("a")
	rb.Push("b")
	if rb.Len() != 2 {
		t.Errorf("expected length 2, got %d", rb.Len())
	}

	got := rb.ReadAll()
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("expected [a b], got %v", got)
	}
}

func TestRingBuffer_PushOverflow(t *testing.T) {
	rb := NewRingBuffer[int](3)
	for i := 1; i <= 5; i++ {
		rb.Push(i)
	}

	// 1 and 2 were evicted
	got := rb.ReadAll()
	if !reflect.DeepEqual(got, []int{3, 4, 5}) {
		t.Errorf("expected [3 4 5], got %v", got)
	}
	if rb.Len() != 3 {
		t.Errorf("expected length 3, got %d", rb.Len())
	}
}

func TestRingBuffer_Last(t *testing.T) {
	rb := NewRingBuffer[int](4)

	if got := rb.Last(2); got != nil {
		t.Errorf("expected nil on empty buffer, got %v", got)
	}

	for i := 1; i <= 6; i++ {
		rb.Push(i)
	}

	if got := rb.Last(2); !reflect.DeepEqual(got, []int{6, 5}) {
		t.Errorf("expected [6 5], got %v", got)
	}
	if got := rb.Last(10); !reflect.DeepEqual(got, []int{6, 5, 4, 3}) {
		t.Errorf("expected [6 5 4 3], got %v", got)
	}
	if got := rb.Last(0); got != nil {
		t.Errorf("expected nil for n=0, got %v", got)
	}
}

func TestRingBuffer_ReadAllReturnsCopy(t *testing.T) {
	rb := NewRingBuffer[int](4)
	rb.Push(1)
	rb.Push(2)

	data := rb.ReadAll()
	data[0] = 42

	if got := rb.ReadAll(); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("ReadAll should return a copy, got %v", got)
	}
}

func TestRingBuffer_Clear(t *testing.T) {
	rb := NewRingBuffer[string](3)
	rb.Push("hello")

	rb.Clear()

	if rb.Len() != 0 {
		t.Errorf("expected length 0 after clear, got %d", rb.Len())
	}
	if data := rb.ReadAll(); data != nil {
		t.Errorf("expected nil after clear, got %v", data)
	}

	rb.Push("world")
	if got := rb.ReadAll(); !reflect.DeepEqual(got, []string{"world"}) {
		t.Errorf("expected [world], got %v", got)
	}
}

func TestRingBuffer_ConcurrentPush(t *testing.T) {
	rb := NewRingBuffer[int](50)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				rb.Push(base*100 + j)
				_ = rb.Last(5)
			}
		}(i)
	}
	wg.Wait()

	if rb.Len() != 50 {
		t.Errorf("expected length 50, got %d", rb.Len())
	}
}
