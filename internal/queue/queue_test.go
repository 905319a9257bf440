package queue

import (
	"sync"
	"testing"
)

func TestDelayed_New(t *testing.T) {
	q := NewDelayed[string]()
	if q == nil {
		t.Fatal("expected non-nil queue")
	}
	if !q.Empty() {
		t.Error("expected empty queue")
	}
	if q.Len() != 0 {
		t.Errorf("expected length 0, got %d", q.Len())
	}
}

func TestDelayed_PopDueRespectsTime(t *testing.T) {
	q := NewDelayed[string]()
	q.Push(2.0, "later")
	q.Push(0.5, "soon")

	if _, ok := q.PopDue(0.1); ok {
		t.Fatal("nothing should be due at 0.1")
	}

	v, ok := q.PopDue(0.5)
	if !ok || v != "soon" {
		t.Fatalf("expected 'soon', got %q (ok=%v)", v, ok)
	}

	if _, ok := q.PopDue(1.0); ok {
		t.Fatal("'later' should not be due at 1.0")
	}
	if q.Len() != 1 {
		t.Errorf("expected length 1, got %d", q.Len())
	}

	v, ok = q.PopDue(5.0)
	if !ok || v != "later" {
		t.Fatalf("expected 'later', got %q (ok=%v)", v, ok)
	}
	if !q.Empty() {
		t.Error("expected empty queue")
	}
}

func TestDelayed_SameDueKeepsPushOrder(t *testing.T) {
	q := NewDelayed[int]()
	for i := 0; i < 50; i++ {
		q.Push(1.0, i)
	}

	for want := 0; want < 50; want++ {
		got, ok := q.PopDue(1.0)
		if !ok {
			t.Fatalf("expected item %d", want)
		}
		if got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}
}

func TestDelayed_Drain(t *testing.T) {
	q := NewDelayed[string]()
	q.Push(3, "c")
	q.Push(1, "a")
	q.Push(2, "b")

	got := q.Drain()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %q, got %q", i, want[i], got[i])
		}
	}
	if !q.Empty() {
		t.Error("expected empty queue after Drain")
	}
}

func TestDelayed_Clear(t *testing.T) {
	q := NewDelayed[int]()
	q.Push(0, 1)
	q.Push(0, 2)
	q.Clear()

	if !q.Empty() {
		t.Error("expected empty queue after Clear")
	}
	if _, ok := q.PopDue(10); ok {
		t.Error("expected nothing after Clear")
	}
}

func TestDelayed_ConcurrentPush(t *testing.T) {
	q := NewDelayed[int]()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Push(float64(j), base*100+j)
			}
		}(i)
	}
	wg.Wait()

	if q.Len() != 1000 {
		t.Errorf("expected length 1000, got %d", q.Len())
	}
}
