// Package connstate implements the connection lifecycle state machine
// (component F): a tagged variant with an explicit transition table.
// Illegal (source, event) pairs are no-ops that report "not taken" rather
// than raising, except that Closed rejects every event unconditionally.
package connstate

import "github.com/cpop/natscore/pkg/protocol"

// State identifies the current lifecycle phase.
type State int

const (
	Disconnected State = iota
	Connecting
	TLSHandshake
	Connected
	Reconnecting
	Draining
	Closed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case TLSHandshake:
		return "tls_handshake"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	case Draining:
		return "draining"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event tags a transition request.
type Event int

const (
	EvConnect Event = iota
	EvTLSRequired
	EvTLSComplete
	EvConnected
	EvDisconnected
	EvReconnecting
	EvDrain
	EvClose
)

// Machine holds the current state plus any state-carried payload
// (ServerInfo when Connected, attempt number when Reconnecting).
type Machine struct {
	state       State
	info        *protocol.Info
	attempt     int
}

// New returns a Machine starting in Disconnected.
func New() *Machine {
	return &Machine{state: Disconnected}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Info returns the ServerInfo attached to a Connected state, or nil.
func (m *Machine) Info() *protocol.Info { return m.info }

// Attempt returns the reconnect attempt number attached to a
// Reconnecting state, or 0.
func (m *Machine) Attempt() int { return m.attempt }

// IsActive reports whether new in-flight traffic may continue: true iff
// state is Connected or Draining.
func (m *Machine) IsActive() bool {
	return m.state == Connected || m.state == Draining
}

// CanAcceptOperations reports whether new client-initiated operations
// (publish, subscribe, request) are accepted: true iff state is
// Connected.
func (m *Machine) CanAcceptOperations() bool {
	return m.state == Connected
}

// Apply attempts the (current state, event) transition from the table in
// the design. taken reports whether the transition was legal; illegal
// transitions leave the machine's state unchanged.
func (m *Machine) Apply(ev Event, info *protocol.Info, attempt int) (taken bool) {
	if m.state == Closed {
		return false
	}

	next, ok := m.next(ev)
	if !ok {
		return false
	}

	m.state = next
	switch next {
	case Connected:
		m.info = info
		m.attempt = 0
	case Reconnecting:
		m.attempt = attempt
	case Disconnected:
		m.info = nil
	case Closed:
		m.info = nil
	}
	return true
}

func (m *Machine) next(ev Event) (State, bool) {
	switch m.state {
	case Disconnected:
		switch ev {
		case EvConnect:
			return Connecting, true
		case EvClose:
			return Closed, true
		}
	case Connecting:
		switch ev {
		case EvTLSRequired:
			return TLSHandshake, true
		case EvConnected:
			return Connected, true
		case EvDisconnected:
			return Disconnected, true
		case EvClose:
			return Closed, true
		}
	case TLSHandshake:
		switch ev {
		case EvTLSComplete:
			return Connecting, true
		case EvDisconnected:
			return Disconnected, true
		case EvClose:
			return Closed, true
		}
	case Connected:
		switch ev {
		case EvDisconnected:
			return Disconnected, true
		case EvReconnecting:
			return Reconnecting, true
		case EvDrain:
			return Draining, true
		case EvClose:
			return Closed, true
		}
	case Reconnecting:
		switch ev {
		case EvConnected:
			return Connected, true
		case EvReconnecting:
			return Reconnecting, true
		case EvDisconnected:
			return Disconnected, true
		case EvClose:
			return Closed, true
		}
	case Draining:
		switch ev {
		case EvDisconnected:
			return Disconnected, true
		case EvClose:
			return Closed, true
		}
	}
	return m.state, false
}

// ForceSet is an escape hatch for in-process error recovery. It must
// never be used to leave Closed during normal operation; callers outside
// this package should prefer Apply.
func (m *Machine) ForceSet(s State) {
	if m.state == Closed {
		return
	}
	m.state = s
}
