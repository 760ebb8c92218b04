package agent

import (
    "context"
    "log"
    "sync"

    "github.com/google/uuid"

    "voicebridge/agent/internal/tools"
)

// Manager owns the single active session. Start replaces any predecessor
// ("last start wins"); the old session is signalled and left to unwind on its
// own rather than awaited, so a new conversation never waits on teardown.
type Manager struct {
    url      string
    apiKey   string
    defaults Templates
    registry *tools.Registry
    emitter  Emitter

    mu      sync.Mutex
    current *Session
}

type StartOptions struct {
    VoiceModel string
    VoiceName  string
}

func NewManager(url, apiKey string, defaults Templates, reg *tools.Registry, emitter Emitter) *Manager {
    return &Manager{url: url, apiKey: apiKey, defaults: defaults, registry: reg, emitter: emitter}
}

// Start launches a new session and returns its reference for mic submission.
func (m *Manager) Start(opts StartOptions) *Session {
    tmpl := m.defaults
    if opts.VoiceModel != "" {
        tmpl.VoiceModel = opts.VoiceModel
    }
    tmpl.VoiceName = opts.VoiceName
    tmpl = tmpl.WithDefaults()

    s := newSession(uuid.NewString(), tmpl, m.url, m.apiKey, m.registry, m.emitter)
    ctx, cancel := context.WithCancel(context.Background())
    s.cancel = cancel

    m.mu.Lock()
    old := m.current
    m.current = s
    m.mu.Unlock()
    if old != nil {
        old.Shutdown()
    }

    log.Printf("[agent] starting session %s voice=%s name=%s", s.id, tmpl.VoiceModel, tmpl.VoiceName)
    go s.Run(ctx)
    return s
}

// Stop tears the active session down. Idempotent.
func (m *Manager) Stop() {
    m.mu.Lock()
    s := m.current
    m.current = nil
    m.mu.Unlock()
    if s != nil {
        log.Printf("[agent] stopping session %s", s.id)
        s.Shutdown()
    }
}

// OnDisconnect is the client transport's disconnect notification.
func (m *Manager) OnDisconnect() {
    m.Stop()
}

// Feed submits mic audio against a session reference. Audio for a reference
// that is no longer the active session is silently dropped.
func (m *Manager) Feed(s *Session, data []byte) {
    if s == nil || len(data) == 0 {
        return
    }
    m.mu.Lock()
    cur := m.current
    m.mu.Unlock()
    if cur != s {
        metricMicDrops.Inc()
        return
    }
    s.Submit(data)
}

// Active reports whether the given reference is still the live session.
func (m *Manager) Active(s *Session) bool {
    m.mu.Lock()
    defer m.mu.Unlock()
    return s != nil && m.current == s
}
