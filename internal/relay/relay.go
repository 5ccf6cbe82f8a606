// Package relay is a client for the pedal stream. It reads 4-byte state
// records from the proxy and republishes each one as a JSON message on a
// WebSocket, reconnecting both legs whenever either fails.
package relay

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net"
	"time"

	"github.com/rs/zerolog"

	"pedalproxy/internal/pedal"
)

// Message is what the WebSocket peer receives per record.
type Message struct {
	T         string `json:"t"`
	Primary   uint16 `json:"primary"`
	Secondary uint16 `json:"secondary"`
	TS        int64  `json:"ts"`
}

const messageType = "pedals"

type Config struct {
	Server   string // pedal proxy host:port
	WSURL    string
	Ping     time.Duration
	PongWait time.Duration

	MinBackoff time.Duration
	MaxBackoff time.Duration

	Logger zerolog.Logger
}

type Relay struct {
	cfg Config
	log zerolog.Logger

	forwarded int64
}

func New(cfg Config) *Relay {
	if cfg.Ping <= 0 {
		cfg.Ping = 2 * time.Second
	}
	if cfg.PongWait <= cfg.Ping {
		cfg.PongWait = 4 * cfg.Ping
	}
	if cfg.MinBackoff <= 0 {
		cfg.MinBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff < cfg.MinBackoff {
		cfg.MaxBackoff = 5 * time.Second
	}
	return &Relay{cfg: cfg, log: cfg.Logger.With().Str("component", "relay").Logger()}
}

// Run reconnects forever until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	delay := r.cfg.MinBackoff
	for {
		err := r.runOnce(ctx, func() { delay = r.cfg.MinBackoff })
		if ctx.Err() != nil {
			return nil
		}

		j := time.Duration(rand.Int63n(int64(delay/2) + 1))
		r.log.Warn().Err(err).Int64("forwarded", r.forwarded).Dur("retry_in", delay+j).Msg("disconnected")
		t := time.NewTimer(delay + j)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
		delay = time.Duration(math.Min(float64(r.cfg.MaxBackoff), float64(delay)*1.7))
	}
}

// runOnce connects both legs and pumps records until one side fails.
// connected is called once both legs are up.
func (r *Relay) runOnce(ctx context.Context, connected func()) error {
	var d net.Dialer
	src, err := d.DialContext(ctx, "tcp", r.cfg.Server)
	if err != nil {
		return fmt.Errorf("dial pedal server: %w", err)
	}
	defer src.Close()

	ws, err := dialWS(ctx, r.cfg.WSURL, r.cfg.Ping, r.cfg.PongWait)
	if err != nil {
		return fmt.Errorf("dial websocket: %w", err)
	}
	defer ws.Close()

	connected()
	r.log.Info().Str("server", r.cfg.Server).Str("ws", r.cfg.WSURL).Msg("connected")

	done := make(chan struct{})
	defer close(done)
	records := make(chan pedal.State)
	readErr := make(chan error, 1)
	go func() {
		for {
			s, err := pedal.ReadState(src)
			if err != nil {
				readErr <- err
				return
			}
			select {
			case records <- s:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-ws.Err():
			return fmt.Errorf("websocket: %w", err)
		case err := <-readErr:
			return fmt.Errorf("pedal stream: %w", err)
		case s := <-records:
			msg := Message{T: messageType, Primary: s.Primary, Secondary: s.Secondary, TS: time.Now().UnixMilli()}
			if err := ws.WriteJSON(msg); err != nil {
				return fmt.Errorf("websocket write: %w", err)
			}
			r.forwarded++
			r.log.Debug().Stringer("state", s).Msg("forwarded")
		}
	}
}
