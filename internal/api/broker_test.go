package api

import (
    "testing"
    "time"
)

func TestBrokerPublishSubscribe(t *testing.T) {
    b := NewBroker()
    pid := "p1"
    ch := b.Subscribe(pid)

    evt := SSEEvent{Type: "day.scheduled", Data: map[string]any{"day": 1}}
    b.Publish(pid, evt)
    b.Publish("other-plan", SSEEvent{Type: "plan.completed"})

    select {
    case got := <-ch:
        if got.Type != evt.Type { t.Fatalf("got type %s, want %s", got.Type, evt.Type) }
        if got.Data["day"].(int) != 1 { t.Fatalf("bad payload: %+v", got.Data) }
    case <-time.After(200 * time.Millisecond):
        t.Fatal("timeout waiting for event")
    }

    // the other-plan event must not have crossed streams
    select {
    case got := <-ch:
        t.Fatalf("unexpected event: %+v", got)
    default:
    }

    b.Unsubscribe(pid, ch)
    if _, ok := <-ch; ok { t.Fatal("channel should be closed after unsubscribe") }
}

func TestBrokerDropsWhenSubscriberFull(t *testing.T) {
    b := NewBroker()
    ch := b.Subscribe("p2")
    for i := 0; i < 20; i++ {
        b.Publish("p2", SSEEvent{Type: "day.scheduled", Data: map[string]any{"i": i}})
    }
    // buffer is 8; the rest were dropped instead of blocking Publish
    n := 0
    for {
        select {
        case <-ch:
            n++
            continue
        default:
        }
        break
    }
    if n != 8 { t.Fatalf("buffered %d events, want 8", n) }
}
