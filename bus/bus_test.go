package bus

import (
	"testing"
)

func TestGlobalAndKeyDelivery(t *testing.T) {
	b := New(nil)
	var global, onA, onB []Event
	b.Subscribe(func(ev Event) { global = append(global, ev) })
	b.SubscribeKey("a", func(ev Event) { onA = append(onA, ev) })
	b.SubscribeKey("b", func(ev Event) { onB = append(onB, ev) })

	b.Emit(Event{Type: Set, Key: "a", Value: 1})
	b.Emit(Event{Type: Remove, Key: "b"})
	b.Emit(Event{Type: Clear})

	if len(global) != 3 {
		t.Fatalf("global got %d events", len(global))
	}
	if len(onA) != 1 || onA[0].Value != 1 {
		t.Fatalf("key a got %+v", onA)
	}
	if len(onB) != 1 || onB[0].Type != Remove {
		t.Fatalf("key b got %+v", onB)
	}
}

func TestPanickingHandlerIsolated(t *testing.T) {
	var reported []any
	b := New(func(_ Event, r any) { reported = append(reported, r) })

	calls := 0
	b.Subscribe(func(Event) { calls++ })
	b.Subscribe(func(Event) { panic("boom") })
	b.Subscribe(func(Event) { calls++ })
	b.SubscribeKey("k", func(Event) { panic("key boom") })
	b.SubscribeKey("k", func(Event) { calls++ })

	b.Emit(Event{Type: Set, Key: "k"})

	if calls != 3 {
		t.Fatalf("handlers after a panic must still run, calls=%d", calls)
	}
	if len(reported) != 2 || reported[0] != "boom" || reported[1] != "key boom" {
		t.Fatalf("reported = %v", reported)
	}
}

func TestPanicWithoutReporter(t *testing.T) {
	b := New(nil)
	ran := false
	b.Subscribe(func(Event) { panic("x") })
	b.Subscribe(func(Event) { ran = true })
	b.Emit(Event{Type: Set, Key: "k"})
	if !ran {
		t.Fatalf("second handler did not run")
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New(nil)
	n := 0
	un := b.Subscribe(func(Event) { n++ })
	b.Emit(Event{Type: Set, Key: "x"})
	un()
	un() // idempotent
	b.Emit(Event{Type: Set, Key: "x"})
	if n != 1 {
		t.Fatalf("n = %d", n)
	}
	if b.Len() != 0 {
		t.Fatalf("Len = %d", b.Len())
	}
}

func TestUnsubscribeLastKeyHandlerDropsKey(t *testing.T) {
	b := New(nil)
	un1 := b.SubscribeKey("k", func(Event) {})
	un2 := b.SubscribeKey("k", func(Event) {})
	if b.KeyCount() != 1 {
		t.Fatalf("KeyCount = %d", b.KeyCount())
	}
	un1()
	if b.KeyCount() != 1 {
		t.Fatalf("key removed while a handler remains")
	}
	un2()
	if b.KeyCount() != 0 {
		t.Fatalf("empty key set not removed")
	}
	un2()
	if b.KeyCount() != 0 {
		t.Fatalf("double unsubscribe recreated key")
	}
}

func TestHandlerMayUnsubscribeDuringEmit(t *testing.T) {
	b := New(nil)
	var un func()
	n := 0
	un = b.Subscribe(func(Event) { n++; un() })
	b.Emit(Event{Type: Set, Key: "a"})
	b.Emit(Event{Type: Set, Key: "a"})
	if n != 1 {
		t.Fatalf("n = %d", n)
	}
}
