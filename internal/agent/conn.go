package agent

import (
    "context"
    "encoding/json"
    "fmt"
    "log"
    "net/http"
    "sync/atomic"
    "time"

    "nhooyr.io/websocket"
)

const dialTimeout = 10 * time.Second

// Conn is the live bidirectional transport to the remote voice agent
// endpoint. Text frames carry JSON control messages, binary frames carry
// linear PCM audio in both directions.
type Conn struct {
    ws   *websocket.Conn
    open atomic.Bool
}

// Dial opens the websocket with the credential as an authorization header.
func Dial(ctx context.Context, url, apiKey string) (*Conn, error) {
    if apiKey == "" {
        return nil, fmt.Errorf("missing api key")
    }
    hdr := make(http.Header)
    hdr.Set("Authorization", "Token "+apiKey)
    dctx, cancel := context.WithTimeout(ctx, dialTimeout)
    defer cancel()
    start := time.Now()
    ws, _, err := websocket.Dial(dctx, url, &websocket.DialOptions{HTTPHeader: hdr})
    if err != nil {
        return nil, fmt.Errorf("dial %s: %w", url, err)
    }
    log.Printf("[agent] connected to %s in %dms", url, time.Since(start).Milliseconds())
    c := &Conn{ws: ws}
    c.open.Store(true)
    return c, nil
}

func (c *Conn) Open() bool { return c.open.Load() }

func (c *Conn) SendJSON(ctx context.Context, v any) error {
    b, err := json.Marshal(v)
    if err != nil {
        return err
    }
    return c.ws.Write(ctx, websocket.MessageText, b)
}

func (c *Conn) SendBinary(ctx context.Context, data []byte) error {
    return c.ws.Write(ctx, websocket.MessageBinary, data)
}

// Read returns the next frame. isText distinguishes control JSON from audio.
func (c *Conn) Read(ctx context.Context) (isText bool, data []byte, err error) {
    typ, data, err := c.ws.Read(ctx)
    if err != nil {
        return false, nil, err
    }
    return typ == websocket.MessageText, data, nil
}

func (c *Conn) Close() {
    if c.open.CompareAndSwap(true, false) {
        _ = c.ws.Close(websocket.StatusNormalClosure, "bye")
    }
}
