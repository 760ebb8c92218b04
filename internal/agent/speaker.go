package agent

// Emitter is the client-facing channel events are published on.
type Emitter interface {
    Emit(event string, payload any)
}

// AudioOut is the payload of an audio_output event. Audio is base64-encoded
// by encoding/json on the wire.
type AudioOut struct {
    Audio      []byte `json:"audio"`
    SampleRate int    `json:"sampleRate"`
    Seq        int    `json:"seq"`
}

const speakerQueueCap = 64

// Speaker drains synthesized speech frames on its own goroutine and forwards
// them to the emitter with a per-session sequence counter, so a slow client
// channel never stalls the downlink. The hand-off queue is bounded with a
// drop-oldest policy: Play never blocks the caller.
type Speaker struct {
    emitter    Emitter
    sampleRate int

    q    chan []byte
    stop chan struct{}
    done chan struct{}
}

func NewSpeaker(emitter Emitter, sampleRate int) *Speaker {
    return &Speaker{
        emitter:    emitter,
        sampleRate: sampleRate,
        q:          make(chan []byte, speakerQueueCap),
        stop:       make(chan struct{}),
        done:       make(chan struct{}),
    }
}

func (s *Speaker) Start() {
    go s.run()
}

// Stop signals the consumer and waits for it to finish.
func (s *Speaker) Stop() {
    close(s.stop)
    <-s.done
}

// Play enqueues one frame. On a full queue the oldest frame is evicted;
// playback tolerates loss but not blocking here.
func (s *Speaker) Play(data []byte) {
    select {
    case s.q <- data:
        return
    default:
    }
    select {
    case <-s.q:
        metricSpeakerDrops.Inc()
    default:
    }
    select {
    case s.q <- data:
    default:
        metricSpeakerDrops.Inc()
    }
}

func (s *Speaker) run() {
    defer close(s.done)
    seq := 0
    for {
        select {
        case data := <-s.q:
            s.emitter.Emit("audio_output", AudioOut{Audio: data, SampleRate: s.sampleRate, Seq: seq})
            seq++
            metricSpeakerFrames.Inc()
        case <-s.stop:
            return
        }
    }
}
