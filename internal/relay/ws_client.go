package relay

// WebSocket client with:
// - TCP keepalive on the dialer
// - ping ticker
// - pong watchdog (read deadline)
// - background reader so control frames get processed

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex

	done      chan struct{}
	closeOnce sync.Once
	errC      chan error
}

func dialWS(ctx context.Context, wsURL string, pingEvery, pongWait time.Duration) (*wsConn, error) {
	d := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		NetDialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 15 * time.Second,
		}).DialContext,
	}
	conn, _, err := d.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, err
	}

	w := &wsConn{
		conn: conn,
		done: make(chan struct{}),
		errC: make(chan error, 1),
	}

	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go w.readLoop()
	go w.pingLoop(pingEvery)
	return w, nil
}

func (w *wsConn) Close() {
	w.closeOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		_ = w.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		w.mu.Unlock()
		_ = w.conn.Close()
	})
}

// Err reports the first failure seen by the reader or the pinger.
func (w *wsConn) Err() <-chan error { return w.errC }

func (w *wsConn) sendErr(err error) {
	select {
	case w.errC <- err:
	default:
	}
}

// The relay ignores server messages; reading keeps pong and close
// handling alive.
func (w *wsConn) readLoop() {
	for {
		if _, _, err := w.conn.ReadMessage(); err != nil {
			select {
			case <-w.done:
			default:
				w.sendErr(err)
			}
			return
		}
	}
}

func (w *wsConn) pingLoop(pingEvery time.Duration) {
	t := time.NewTicker(pingEvery)
	defer t.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-t.C:
			w.mu.Lock()
			err := w.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait))
			w.mu.Unlock()
			if err != nil {
				w.sendErr(err)
				return
			}
		}
	}
}

func (w *wsConn) WriteJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteMessage(websocket.TextMessage, b)
}
