package sync

import (
	"testing"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("shipments")
	defer b.Unsubscribe("shipments", ch)

	b.Publish("shipments", Event{Type: "sync.started", Kind: "shipments"})
	select {
	case evt := <-ch:
		if evt.Type != "sync.started" {
			t.Fatalf("got %+v", evt)
		}
	default:
		t.Fatal("no event delivered")
	}
}

func TestBrokerKindIsolation(t *testing.T) {
	b := NewBroker()
	ship := b.Subscribe("shipments")
	inv := b.Subscribe("invoices")
	defer b.Unsubscribe("shipments", ship)
	defer b.Unsubscribe("invoices", inv)

	b.Publish("shipments", Event{Type: "sync.started"})
	select {
	case <-inv:
		t.Fatal("invoice subscriber got a shipment event")
	default:
	}
	select {
	case <-ship:
	default:
		t.Fatal("shipment subscriber missed the event")
	}
}

func TestBrokerDropsWhenFull(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("shipments")
	defer b.Unsubscribe("shipments", ch)

	// One more than the buffer; Publish must not block
	for i := 0; i < cap(ch)+1; i++ {
		b.Publish("shipments", Event{Type: "sync.record"})
	}
	if got := len(ch); got != cap(ch) {
		t.Fatalf("buffered %d events, want %d", got, cap(ch))
	}
}

func TestSyncerPublishesToKindAndAll(t *testing.T) {
	b := NewBroker()
	all := b.Subscribe("all")
	defer b.Unsubscribe("all", all)

	s := &Syncer{broker: b}
	s.publish("shipments", Event{Type: "sync.started"})

	select {
	case evt := <-all:
		if evt.Kind != "shipments" {
			t.Fatalf("kind = %q", evt.Kind)
		}
	default:
		t.Fatal("event not fanned out to all")
	}
}
