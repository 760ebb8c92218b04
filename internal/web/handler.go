// Package web is the client-facing transport: a websocket endpoint carrying
// browser control messages and mic audio in, session events and synthesized
// audio out, plus the voice catalog passthrough.
package web

import (
    "encoding/json"
    "log"
    "net/http"

    "nhooyr.io/websocket"

    "voicebridge/agent/internal/agent"
    "voicebridge/agent/internal/config"
)

// AgentControl is the slice of the session lifecycle manager the transport
// drives. Satisfied by *agent.Manager.
type AgentControl interface {
    Start(agent.StartOptions) *agent.Session
    Stop()
    OnDisconnect()
    Feed(*agent.Session, []byte)
}

type Server struct {
    cfg config.Config
    hub *Hub
    mgr AgentControl
}

func NewServer(cfg config.Config, hub *Hub, mgr AgentControl) *Server {
    return &Server{cfg: cfg, hub: hub, mgr: mgr}
}

// clientMessage is a browser-to-server control frame. Audio arrives either
// base64-encoded here or as a raw binary frame.
type clientMessage struct {
    Type       string `json:"type"`
    VoiceModel string `json:"voiceModel"`
    VoiceName  string `json:"voiceName"`
    Audio      []byte `json:"audio"`
}

func (s *Server) HandleClientWS(w http.ResponseWriter, r *http.Request) {
    c, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
    if err != nil {
        log.Printf("[web] ws accept: %v", err)
        return
    }
    s.hub.add(c)
    defer func() {
        s.hub.remove(c)
        _ = c.Close(websocket.StatusNormalClosure, "done")
        s.mgr.OnDisconnect()
    }()
    log.Printf("[web] client connected")

    // The session reference this client is feeding; audio against a stale
    // reference is dropped by the manager.
    var sess *agent.Session

    ctx := r.Context()
    for {
        typ, data, err := c.Read(ctx)
        if err != nil {
            log.Printf("[web] client disconnected: %v", err)
            return
        }
        if typ == websocket.MessageBinary {
            s.mgr.Feed(sess, data)
            continue
        }
        var msg clientMessage
        if err := json.Unmarshal(data, &msg); err != nil {
            continue
        }
        switch msg.Type {
        case "start_voice_agent":
            sess = s.mgr.Start(agent.StartOptions{VoiceModel: msg.VoiceModel, VoiceName: msg.VoiceName})
        case "stop_voice_agent":
            s.mgr.Stop()
            sess = nil
        case "audio_data":
            s.mgr.Feed(sess, msg.Audio)
        }
    }
}
