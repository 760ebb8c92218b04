package agent

import (
    "sync"
    "testing"
    "time"
)

type captureEmitter struct {
    mu     sync.Mutex
    events []capturedEvent
    notify chan struct{}
}

type capturedEvent struct {
    event   string
    payload any
}

func newCaptureEmitter() *captureEmitter {
    return &captureEmitter{notify: make(chan struct{}, 256)}
}

func (c *captureEmitter) Emit(event string, payload any) {
    c.mu.Lock()
    c.events = append(c.events, capturedEvent{event: event, payload: payload})
    c.mu.Unlock()
    select {
    case c.notify <- struct{}{}:
    default:
    }
}

func (c *captureEmitter) snapshot() []capturedEvent {
    c.mu.Lock()
    defer c.mu.Unlock()
    out := make([]capturedEvent, len(c.events))
    copy(out, c.events)
    return out
}

// waitFor blocks until the predicate holds over the captured events.
func (c *captureEmitter) waitFor(t *testing.T, pred func([]capturedEvent) bool) []capturedEvent {
    t.Helper()
    deadline := time.After(3 * time.Second)
    for {
        if evs := c.snapshot(); pred(evs) {
            return evs
        }
        select {
        case <-c.notify:
        case <-deadline:
            t.Fatalf("timed out waiting for events; have %v", c.snapshot())
        }
    }
}

func TestSpeakerSequenceStartsAtZero(t *testing.T) {
    em := newCaptureEmitter()
    sp := NewSpeaker(em, 16000)
    sp.Start()

    sp.Play([]byte{1})
    sp.Play([]byte{2})
    sp.Play([]byte{3})

    evs := em.waitFor(t, func(evs []capturedEvent) bool { return len(evs) == 3 })
    sp.Stop()

    for i, ev := range evs {
        if ev.event != "audio_output" {
            t.Fatalf("expected audio_output, got %q", ev.event)
        }
        out := ev.payload.(AudioOut)
        if out.Seq != i {
            t.Fatalf("expected seq %d, got %d", i, out.Seq)
        }
        if out.SampleRate != 16000 {
            t.Fatalf("expected sample rate 16000, got %d", out.SampleRate)
        }
        if out.Audio[0] != byte(i+1) {
            t.Fatalf("frames reordered: expected %d at seq %d, got %d", i+1, i, out.Audio[0])
        }
    }
}

func TestSpeakerPlayNeverBlocksWhenFull(t *testing.T) {
    // Consumer never started, queue fills up; Play must still return.
    sp := NewSpeaker(newCaptureEmitter(), 16000)
    done := make(chan struct{})
    go func() {
        defer close(done)
        for i := 0; i < speakerQueueCap*3; i++ {
            sp.Play([]byte{byte(i)})
        }
    }()
    select {
    case <-done:
    case <-time.After(2 * time.Second):
        t.Fatal("Play blocked on a full queue")
    }
}

func TestSpeakerDropOldestKeepsNewest(t *testing.T) {
    em := newCaptureEmitter()
    sp := NewSpeaker(em, 16000)
    // Overfill before starting the consumer, then drain.
    total := speakerQueueCap + 10
    for i := 0; i < total; i++ {
        sp.Play([]byte{byte(i)})
    }
    sp.Start()
    evs := em.waitFor(t, func(evs []capturedEvent) bool { return len(evs) >= speakerQueueCap })
    sp.Stop()

    last := evs[len(evs)-1].payload.(AudioOut)
    if last.Audio[0] != byte(total-1) {
        t.Fatalf("expected newest frame %d retained, got %d", total-1, last.Audio[0])
    }
}

func TestSpeakerStopJoinsConsumer(t *testing.T) {
    sp := NewSpeaker(newCaptureEmitter(), 16000)
    sp.Start()
    done := make(chan struct{})
    go func() {
        sp.Stop()
        close(done)
    }()
    select {
    case <-done:
    case <-time.After(2 * time.Second):
        t.Fatal("Stop did not join the consumer")
    }
}
