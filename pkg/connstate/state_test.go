package connstate_test

import (
	"testing"

	"github.com/cpop/natscore/pkg/connstate"
	"github.com/cpop/natscore/pkg/protocol"
	"github.com/cpop/natscore/pkg/test"
)

type StateSuite struct {
	*test.Suite
}

func TestStateSuite(t *testing.T) {
	test.Run(t, &StateSuite{Suite: test.NewSuite()})
}

func (s *StateSuite) TestInitialStateIsDisconnected() {
	m := connstate.New()
	s.Equal(connstate.Disconnected, m.State())
}

func (s *StateSuite) TestClosedRejectsEveryEvent() {
	m := connstate.New()
	s.True(m.Apply(connstate.EvClose, nil, 0))
	s.Equal(connstate.Closed, m.State())

	for _, ev := range []connstate.Event{
		connstate.EvConnect, connstate.EvTLSRequired, connstate.EvTLSComplete,
		connstate.EvConnected, connstate.EvDisconnected, connstate.EvReconnecting,
		connstate.EvDrain, connstate.EvClose,
	} {
		s.False(m.Apply(ev, nil, 0))
		s.Equal(connstate.Closed, m.State())
	}
}

func (s *StateSuite) TestFullTransitionTable() {
	info := &protocol.Info{ServerID: "x"}

	type step struct {
		ev   connstate.Event
		want connstate.State
		ok   bool
	}
	cases := []struct {
		name  string
		steps []step
	}{
		{"connect path", []step{
			{connstate.EvConnect, connstate.Connecting, true},
			{connstate.EvConnected, connstate.Connected, true},
		}},
		{"tls path", []step{
			{connstate.EvConnect, connstate.Connecting, true},
			{connstate.EvTLSRequired, connstate.TLSHandshake, true},
			{connstate.EvTLSComplete, connstate.Connecting, true},
			{connstate.EvConnected, connstate.Connected, true},
		}},
		{"connecting disconnects", []step{
			{connstate.EvConnect, connstate.Connecting, true},
			{connstate.EvDisconnected, connstate.Disconnected, true},
		}},
		{"tls handshake disconnects", []step{
			{connstate.EvConnect, connstate.Connecting, true},
			{connstate.EvTLSRequired, connstate.TLSHandshake, true},
			{connstate.EvDisconnected, connstate.Disconnected, true},
		}},
		{"connected to reconnecting to connected", []step{
			{connstate.EvConnect, connstate.Connecting, true},
			{connstate.EvConnected, connstate.Connected, true},
			{connstate.EvReconnecting, connstate.Reconnecting, true},
			{connstate.EvReconnecting, connstate.Reconnecting, true},
			{connstate.EvConnected, connstate.Connected, true},
		}},
		{"connected drains then disconnects", []step{
			{connstate.EvConnect, connstate.Connecting, true},
			{connstate.EvConnected, connstate.Connected, true},
			{connstate.EvDrain, connstate.Draining, true},
			{connstate.EvDisconnected, connstate.Disconnected, true},
		}},
		{"reconnecting exhausts to disconnected", []step{
			{connstate.EvConnect, connstate.Connecting, true},
			{connstate.EvConnected, connstate.Connected, true},
			{connstate.EvReconnecting, connstate.Reconnecting, true},
			{connstate.EvDisconnected, connstate.Disconnected, true},
		}},
	}

	for _, c := range cases {
		m := connstate.New()
		for i, st := range c.steps {
			ok := m.Apply(st.ev, info, 1)
			s.Equal(st.ok, ok, "%s step %d", c.name, i)
			s.Equal(st.want, m.State(), "%s step %d", c.name, i)
		}
	}
}

func (s *StateSuite) TestIllegalTransitionIsNoOp() {
	m := connstate.New()
	// Disconnected + Connected(info) is not in the table.
	ok := m.Apply(connstate.EvConnected, nil, 0)
	s.False(ok)
	s.Equal(connstate.Disconnected, m.State())
}

func (s *StateSuite) TestIsActiveAndCanAcceptOperations() {
	m := connstate.New()
	m.Apply(connstate.EvConnect, nil, 0)
	m.Apply(connstate.EvConnected, &protocol.Info{}, 0)
	s.True(m.IsActive())
	s.True(m.CanAcceptOperations())

	m.Apply(connstate.EvDrain, nil, 0)
	s.True(m.IsActive())
	s.False(m.CanAcceptOperations())

	m.Apply(connstate.EvDisconnected, nil, 0)
	s.False(m.IsActive())
	s.False(m.CanAcceptOperations())
}

func (s *StateSuite) TestForceSetNeverEscapesClosed() {
	m := connstate.New()
	m.Apply(connstate.EvClose, nil, 0)
	m.ForceSet(connstate.Connected)
	s.Equal(connstate.Closed, m.State())
}
