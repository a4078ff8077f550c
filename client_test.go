package natscore_test

import (
	"testing"

	natscore "github.com/cpop/natscore"
	nerrors "github.com/cpop/natscore/pkg/errors"
	"github.com/cpop/natscore/pkg/test"
)

type ClientSuite struct {
	*test.Suite
}

func TestClientSuite(t *testing.T) {
	test.Run(t, &ClientSuite{Suite: test.NewSuite()})
}

func (s *ClientSuite) TestConnectRejectsExplicitlyEmptyServerList() {
	_, err := natscore.Connect(s.Ctx, natscore.WithServers())
	s.Require().Error(err)
	s.Equal(nerrors.KindNoServersAvailable, nerrors.Of(err))
}

func (s *ClientSuite) TestConnectRejectsUnreachableServer() {
	_, err := natscore.Connect(s.Ctx, natscore.WithServers("nats://127.0.0.1:1"))
	s.Require().Error(err)
}

