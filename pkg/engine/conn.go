package engine

import (
	"context"
	"fmt"

	"github.com/vantran/ferry/pkg/remote"
)

// ConnState tracks the session's link to the remote endpoint
type ConnState int

const (
	// StateDisconnected means no usable session; a connect attempt is due
	StateDisconnected ConnState = iota
	// StateConnecting means an attempt is in flight on this tick
	StateConnecting
	// StateConnected means operations may run
	StateConnected
	// StateFatal means the session can never be established; only
	// termination remains
	StateFatal
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFatal:
		return "fatal"
	}
	return "disconnected"
}

// ConnManager owns the remote client and its connection state. While
// the state is not Connected every remote operation is refused and the
// tick loop retries the connection instead.
type ConnManager struct {
	client   remote.Client
	state    ConnState
	fatalErr error
}

// NewConnManager wraps a built client. A nil client with a build error
// puts the manager straight into the fatal state.
func NewConnManager(client remote.Client, buildErr error) *ConnManager {
	m := &ConnManager{client: client}
	if buildErr != nil || client == nil {
		m.state = StateFatal
		m.fatalErr = buildErr
		if m.fatalErr == nil {
			m.fatalErr = fmt.Errorf("no remote client configured")
		}
	}
	return m
}

// State reports the current connection state
func (m *ConnManager) State() ConnState { return m.state }

// FatalErr returns the error that made the session unrecoverable
func (m *ConnManager) FatalErr() error { return m.fatalErr }

// Client returns the remote client, or an error when no session exists
func (m *ConnManager) Client() (remote.Client, error) {
	if m.state != StateConnected {
		return nil, fmt.Errorf("remote session: %w", remote.ErrNotConnected)
	}
	return m.client, nil
}

// TickConnect runs one connection attempt. It is a no-op unless the
// state is Disconnected; retry pacing comes from the tick interval.
func (m *ConnManager) TickConnect(ctx context.Context) error {
	if m.state != StateDisconnected {
		return nil
	}
	m.state = StateConnecting
	if err := m.client.Connect(ctx); err != nil {
		m.state = StateDisconnected
		return fmt.Errorf("connect: %w", err)
	}
	m.state = StateConnected
	return nil
}

// MarkLost records that an operation observed a dead link. The next
// tick starts reconnecting.
func (m *ConnManager) MarkLost() {
	if m.state == StateConnected {
		m.state = StateDisconnected
	}
}

// CheckAlive demotes the state when the transport reports the session
// has silently gone away
func (m *ConnManager) CheckAlive() {
	if m.state == StateConnected && !m.client.IsConnected() {
		m.state = StateDisconnected
	}
}

// Disconnect tears the session down. Safe to call repeatedly and from
// any state.
func (m *ConnManager) Disconnect() error {
	if m.client == nil || m.state == StateFatal {
		return nil
	}
	prev := m.state
	m.state = StateDisconnected
	if prev != StateConnected {
		return nil
	}
	if err := m.client.Disconnect(); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}
