package agent

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "sync"
    "sync/atomic"
    "time"

    "golang.org/x/sync/errgroup"

    "voicebridge/agent/internal/tools"
)

const (
    micQueueCap = 128
    // closeGrace lets the injected farewell start synthesizing before the
    // end_call path tears the connection down.
    closeGrace = 500 * time.Millisecond
)

// Session is one end-to-end spoken dialogue: a mic-audio uplink and a
// control+speech downlink over a single remote connection, joined so that
// either side failing ends both.
type Session struct {
    id       string
    tmpl     Templates
    url      string
    apiKey   string
    registry *tools.Registry
    emitter  Emitter

    live   atomic.Bool
    conn   *Conn
    micQ   chan []byte
    done   chan struct{}
    cancel context.CancelFunc

    stopOnce sync.Once
}

func newSession(id string, tmpl Templates, url, apiKey string, reg *tools.Registry, emitter Emitter) *Session {
    return &Session{
        id:       id,
        tmpl:     tmpl,
        url:      url,
        apiKey:   apiKey,
        registry: reg,
        emitter:  emitter,
        micQ:     make(chan []byte, micQueueCap),
        done:     make(chan struct{}),
    }
}

func (s *Session) ID() string { return s.id }

// Run connects, streams until either direction ends, and tears down. Setup
// failures are logged and terminal for the session, never for the process.
func (s *Session) Run(ctx context.Context) {
    defer s.Shutdown()

    conn, err := s.setup(ctx)
    if err != nil {
        metricSetupFailures.Inc()
        log.Printf("[agent] session %s setup failed: %v", s.id, err)
        return
    }
    s.conn = conn
    s.live.Store(true)
    // Shutdown may have run while setup was in flight; its stopOnce is
    // spent, so the liveness arm must be undone here.
    select {
    case <-s.done:
        s.live.Store(false)
        conn.Close()
        return
    default:
    }
    metricSessionsStarted.Inc()

    sp := NewSpeaker(s.emitter, s.tmpl.AgentSampleRate)
    sp.Start()
    defer sp.Stop()

    // Either task finishing, for any reason, ends the pair: Shutdown wakes
    // the peer's blocking point so it observes the dead session and exits.
    g, gctx := errgroup.WithContext(ctx)
    g.Go(func() error {
        defer s.Shutdown()
        return s.uplink(gctx)
    })
    g.Go(func() error {
        defer s.Shutdown()
        return s.downlink(gctx, sp)
    })
    if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
        log.Printf("[agent] session %s ended: %v", s.id, err)
    }
}

func (s *Session) setup(ctx context.Context) (*Conn, error) {
    conn, err := Dial(ctx, s.url, s.apiKey)
    if err != nil {
        return nil, err
    }
    if err := conn.SendJSON(ctx, s.tmpl.Settings(s.registry.Definitions())); err != nil {
        conn.Close()
        return nil, fmt.Errorf("send settings: %w", err)
    }
    return conn, nil
}

// Submit enqueues one mic chunk without ever blocking the caller. Audio for
// a dead or disconnected session is silently dropped.
func (s *Session) Submit(data []byte) {
    if !s.live.Load() {
        metricMicDrops.Inc()
        return
    }
    c := s.conn
    if c == nil || !c.Open() {
        metricMicDrops.Inc()
        return
    }
    select {
    case s.micQ <- data:
        metricMicFrames.Inc()
    default:
        metricMicDrops.Inc()
    }
}

// Shutdown clears liveness, wakes blocked tasks, and closes the connection.
// Idempotent; it does not wait for the session's goroutines.
func (s *Session) Shutdown() {
    s.stopOnce.Do(func() {
        s.live.Store(false)
        close(s.done)
        if s.cancel != nil {
            s.cancel()
        }
        if c := s.conn; c != nil {
            c.Close()
        }
    })
}

func (s *Session) uplink(ctx context.Context) error {
    for {
        var data []byte
        select {
        case data = <-s.micQ:
        case <-s.done:
            return nil
        case <-ctx.Done():
            return ctx.Err()
        }
        if !s.live.Load() {
            return nil
        }
        if len(data) == 0 {
            continue
        }
        if err := s.conn.SendBinary(ctx, data); err != nil {
            if !s.live.Load() {
                return nil
            }
            log.Printf("[agent] session %s uplink send: %v", s.id, err)
            return err
        }
        metricMicBytes.Add(float64(len(data)))
    }
}

type controlMessage struct {
    Type      string                `json:"type"`
    Functions []functionCallRequest `json:"functions"`
}

type functionCallRequest struct {
    ID        string `json:"id"`
    Name      string `json:"name"`
    Arguments string `json:"arguments"`
}

type functionCallResponse struct {
    Type    string `json:"type"`
    ID      string `json:"id"`
    Name    string `json:"name"`
    Content string `json:"content"`
}

type injectMessage struct {
    Type    string `json:"type"`
    Message string `json:"message"`
}

func (s *Session) downlink(ctx context.Context, sp *Speaker) error {
    for {
        isText, data, err := s.conn.Read(ctx)
        if err != nil {
            if !s.live.Load() || !s.conn.Open() {
                return nil
            }
            log.Printf("[agent] session %s downlink read: %v", s.id, err)
            return err
        }
        if !isText {
            sp.Play(data)
            continue
        }
        var msg controlMessage
        if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
            // unparseable text is ignored, not an error
            continue
        }
        metricControlMessages.WithLabelValues(msg.Type).Inc()
        switch msg.Type {
        case "ConversationText":
            s.emitter.Emit("conversation_update", json.RawMessage(data))
        case "UserStartedSpeaking", "AgentAudioDone":
            s.emitter.Emit("agent_event", json.RawMessage(data))
        case "FunctionCallRequest":
            closed, err := s.handleFunctionCall(ctx, msg)
            if err != nil {
                log.Printf("[agent] session %s function call: %v", s.id, err)
                return err
            }
            if closed {
                return nil
            }
        case "CloseConnection":
            s.conn.Close()
            return nil
        }
    }
}

// handleFunctionCall resolves one function-call request fully before the
// downlink proceeds: a correlated response is always sent, success or not.
func (s *Session) handleFunctionCall(ctx context.Context, msg controlMessage) (closed bool, err error) {
    if len(msg.Functions) == 0 {
        return false, nil
    }
    fn := msg.Functions[0]
    metricFunctionCalls.WithLabelValues(fn.Name).Inc()

    var res tools.Result
    raw := fn.Arguments
    if raw == "" {
        raw = "{}"
    }
    args := map[string]any{}
    if jerr := json.Unmarshal([]byte(raw), &args); jerr != nil {
        res = tools.ErrorResult(fmt.Sprintf("bad arguments: %v", jerr))
    } else {
        res = s.registry.Invoke(ctx, tools.Invocation{Name: fn.Name, Args: args, Conn: s.conn})
    }

    content, merr := json.Marshal(res.Content)
    if merr != nil {
        content, _ = json.Marshal(map[string]any{"error": merr.Error()})
    }
    resp := functionCallResponse{Type: "FunctionCallResponse", ID: fn.ID, Name: fn.Name, Content: string(content)}
    if err := s.conn.SendJSON(ctx, resp); err != nil {
        return false, fmt.Errorf("send function response: %w", err)
    }
    if res.Inject != "" {
        if err := s.conn.SendJSON(ctx, injectMessage{Type: "InjectAgentMessage", Message: res.Inject}); err != nil {
            return false, fmt.Errorf("send inject message: %w", err)
        }
    }
    if res.EndCall {
        time.Sleep(closeGrace)
        s.conn.Close()
        s.live.Store(false)
        return true, nil
    }
    return false, nil
}
