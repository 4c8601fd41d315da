package queue

import "testing"

func TestRingBufferWriteRead(t *testing.T) {
	rb := NewRingBuffer[int](8, DropOldest)

	if !rb.Write(1) {
		t.Error("Write should succeed on empty buffer")
	}

	v, ok := rb.Read()
	if !ok || v != 1 {
		t.Errorf("expected (1, true), got (%d, %v)", v, ok)
	}

	if _, ok := rb.Read(); ok {
		t.Error("Read on empty buffer should return false")
	}
}

func TestRingBufferDropOldest(t *testing.T) {
	rb := NewRingBuffer[int](4, DropOldest)

	for i := 0; i < 10; i++ {
		rb.Write(i)
	}

	if rb.Dropped() == 0 {
		t.Error("expected drops when writing past capacity")
	}

	v, ok := rb.Read()
	if !ok {
		t.Fatal("expected a value after overflow")
	}
	if v == 0 {
		t.Error("oldest value should have been dropped, not preserved")
	}
}

func TestRingBufferDropNewest(t *testing.T) {
	rb := NewRingBuffer[int](2, DropNewest)

	for i := 0; i < 10; i++ {
		rb.Write(i)
	}

	if rb.Dropped() == 0 {
		t.Error("expected drops when writing past capacity")
	}

	v, ok := rb.Read()
	if !ok || v != 0 {
		t.Errorf("DropNewest should preserve the earliest values, got (%d, %v)", v, ok)
	}
}

func TestRingBufferPowerOfTwoRounding(t *testing.T) {
	rb := NewRingBuffer[int](3, DropOldest)
	if rb.size != 4 {
		t.Errorf("expected capacity rounded to 4, got %d", rb.size)
	}
}
