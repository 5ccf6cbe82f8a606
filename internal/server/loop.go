// Package server streams pedal state to a single TCP client.
//
// The Loop cycles Listening -> Accepted -> Streaming -> TornDown forever.
// Any failure in any step tears down both sockets, sleeps RetryDelay and
// starts over with a fresh listening socket. The device source and the
// pedal state survive across cycles.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pedalproxy/internal/joydev"
	"pedalproxy/internal/metrics"
	"pedalproxy/internal/pedal"
)

// Defaults matching the deployed pedal unit.
const (
	DefaultAddr        = "0.0.0.0:10987"
	DefaultRetryDelay  = 5 * time.Second
	DefaultWaitTimeout = time.Second
)

// EventSource is the device side of the loop. *joydev.Device implements it.
type EventSource interface {
	Wait(timeout time.Duration) (bool, error)
	ReadEvent() (joydev.Event, error)
}

// SendPolicy decides which events produce a wire record.
type SendPolicy int

const (
	// SendAny resends the current state after every event read.
	SendAny SendPolicy = iota
	// SendAxes only sends after events on index 0 or 1.
	SendAxes
)

func (p SendPolicy) String() string {
	if p == SendAxes {
		return "axes"
	}
	return "any"
}

func ParseSendPolicy(s string) (SendPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return SendAny, nil
	case "axes":
		return SendAxes, nil
	}
	return SendAny, fmt.Errorf("unknown send policy %q (want any|axes)", s)
}

type Options struct {
	Addr        string
	RetryDelay  time.Duration
	WaitTimeout time.Duration
	SendPolicy  SendPolicy
	Logger      zerolog.Logger
	Metrics     *metrics.Metrics

	// OnListen is called with the bound address each time a listening
	// socket comes up.
	OnListen func(net.Addr)
}

type Loop struct {
	src   EventSource
	opts  Options
	log   zerolog.Logger
	state pedal.State
}

func New(src EventSource, opts Options) *Loop {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = DefaultWaitTimeout
	}
	return &Loop{
		src:  src,
		opts: opts,
		log:  opts.Logger.With().Str("component", "server").Logger(),
	}
}

// teardown records which step ended a cycle.
type teardown struct {
	stage string
	err   error
}

func (t *teardown) Error() string { return t.stage + ": " + t.err.Error() }
func (t *teardown) Unwrap() error { return t.err }

func fail(stage string, err error) error { return &teardown{stage: stage, err: err} }

// Run loops until ctx is cancelled. It never returns an error of its own;
// every runtime failure is absorbed into a teardown and retry.
func (l *Loop) Run(ctx context.Context) error {
	for {
		err := l.cycle(ctx)
		if ctx.Err() != nil {
			l.log.Info().Msg("stopped")
			return nil
		}

		var td *teardown
		if errors.As(err, &td) {
			l.opts.Metrics.Teardown(td.stage)
		}
		l.log.Warn().Err(err).Dur("retry_in", l.opts.RetryDelay).Msg("torn down")

		t := time.NewTimer(l.opts.RetryDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			l.log.Info().Msg("stopped")
			return nil
		case <-t.C:
		}
	}
}

// cycle runs one Listening -> Streaming pass. Deferred closes release
// both sockets no matter which step failed. The listening socket stays
// open but is not accepted from while the session streams, so a second
// client waits in the backlog until this cycle tears down.
func (l *Loop) cycle(ctx context.Context) error {
	ln, err := listenTCP4(l.opts.Addr, 1)
	if err != nil {
		return fail(metrics.StageListen, err)
	}
	defer ln.Close()
	stopLn := context.AfterFunc(ctx, func() { ln.Close() })
	defer stopLn()

	if l.opts.OnListen != nil {
		l.opts.OnListen(ln.Addr())
	}
	l.log.Info().Str("addr", ln.Addr().String()).Msg("waiting for connection")

	conn, err := ln.Accept()
	if err != nil {
		return fail(metrics.StageAccept, err)
	}
	sess, err := newSession(conn)
	if err != nil {
		conn.Close()
		return fail(metrics.StageAccept, err)
	}
	defer sess.Close()
	stopSess := context.AfterFunc(ctx, func() { sess.Close() })
	defer stopSess()

	l.opts.Metrics.SessionStarted()
	defer l.opts.Metrics.SessionEnded()
	l.log.Info().Str("peer", sess.Peer().String()).Msg("client connected")

	err = l.stream(ctx, sess)
	l.log.Info().Str("peer", sess.Peer().String()).Int("records_sent", sess.Sent()).Msg("session ended")
	return err
}

func (l *Loop) stream(ctx context.Context, sess *Session) error {
	for ctx.Err() == nil {
		ready, err := l.src.Wait(l.opts.WaitTimeout)
		if err != nil {
			return fail(metrics.StageDevice, err)
		}
		if !ready {
			continue
		}
		ev, err := l.src.ReadEvent()
		if err != nil {
			return fail(metrics.StageDevice, err)
		}
		l.opts.Metrics.ObserveEvent(ev.Kind().String())

		matched := l.state.Apply(ev)
		l.log.Debug().Stringer("event", ev).Stringer("state", l.state).Msg("event")
		if matched {
			l.opts.Metrics.ObserveState(l.state)
		} else if l.opts.SendPolicy == SendAxes {
			continue
		}

		if err := sess.Send(l.state); err != nil {
			return fail(metrics.StageSend, err)
		}
		l.opts.Metrics.RecordSent()
	}
	return ctx.Err()
}
