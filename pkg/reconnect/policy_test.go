package reconnect_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/cpop/natscore/pkg/reconnect"
	"github.com/cpop/natscore/pkg/test"
)

type PolicySuite struct {
	*test.Suite
}

func TestPolicySuite(t *testing.T) {
	test.Run(t, &PolicySuite{Suite: test.NewSuite()})
}

func (s *PolicySuite) TestDefaultShape() {
	p := reconnect.Default()
	s.True(p.Enabled)
	s.Equal(60, p.MaxAttempts)
	s.Equal(100*time.Millisecond, p.Initial)
	s.Equal(5*time.Second, p.Max)
}

func (s *PolicySuite) TestDisabledNeverContinues() {
	p := reconnect.Disabled()
	s.False(p.ShouldContinue(1))
}

func (s *PolicySuite) TestUnlimitedAttemptsAlwaysContinues() {
	p := reconnect.Aggressive()
	s.Equal(-1, p.MaxAttempts)
	s.True(p.ShouldContinue(1_000_000))
}

func (s *PolicySuite) TestBoundedAttemptsStopAtLimit() {
	p := reconnect.Conservative()
	p.MaxAttempts = 3
	s.True(p.ShouldContinue(2))
	s.False(p.ShouldContinue(3))
}

func (s *PolicySuite) TestDelayGrowsAndClamps() {
	p := reconnect.Default()
	p.Jitter = 0 // isolate growth from jitter
	d1 := p.NextDelay(1)
	d2 := p.NextDelay(2)
	d3 := p.NextDelay(3)
	s.Equal(p.Initial, d1)
	s.True(d2 > d1)
	s.True(d3 >= d2)

	dHigh := p.NextDelay(100)
	s.Equal(p.Max, dHigh)
}

func (s *PolicySuite) TestJitterStaysWithinBounds() {
	p := reconnect.Default()
	p.Rand = rand.New(rand.NewSource(42))

	base := p.Initial
	spread := float64(base) * p.Jitter
	lo := time.Duration(float64(base) - spread)
	hi := time.Duration(float64(base) + spread)

	for i := 0; i < 50; i++ {
		d := p.NextDelay(1)
		s.True(d >= lo && d <= hi, "delay %v out of [%v,%v]", d, lo, hi)
	}
}

func (s *PolicySuite) TestDeterministicWithSeededRand() {
	p1 := reconnect.Default()
	p1.Rand = rand.New(rand.NewSource(7))
	p2 := reconnect.Default()
	p2.Rand = rand.New(rand.NewSource(7))

	for attempt := 1; attempt <= 5; attempt++ {
		s.Equal(p1.NextDelay(attempt), p2.NextDelay(attempt))
	}
}
