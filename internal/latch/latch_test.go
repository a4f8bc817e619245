package latch

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"
)

type LatchSuite struct {
	suite.Suite
}

func TestLatchSuite(t *testing.T) {
	suite.Run(t, new(LatchSuite))
}

func (s *LatchSuite) TestFiresOnceAfterFinalResolve() {
	l := New()
	fired := 0
	l.Then(func() { fired++ })

	for i := 0; i < 5; i++ {
		l.Add()
	}
	for i := 0; i < 4; i++ {
		l.Resolve()
		s.Equal(0, fired, "must not fire before the final resolve")
	}
	l.Resolve()
	s.Equal(1, fired)
}

func (s *LatchSuite) TestThenAfterSatisfiedFiresImmediately() {
	l := New()
	l.Add()
	l.Resolve()

	fired := 0
	l.Then(func() { fired++ })
	s.Equal(1, fired)
}

func (s *LatchSuite) TestEmptyLatchNeverFires() {
	l := New()
	fired := 0
	l.Then(func() { fired++ })
	s.Equal(0, fired)
}

func (s *LatchSuite) TestSingleUnit() {
	l := New()
	fired := 0
	l.Add()
	l.Then(func() { fired++ })
	s.Equal(0, fired)
	l.Resolve()
	s.Equal(1, fired)
}

func (s *LatchSuite) TestConcurrentResolvesFireOnce() {
	const n = 64
	l := New()
	var fired atomic.Int32
	l.Then(func() { fired.Add(1) })

	for i := 0; i < n; i++ {
		l.Add()
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Resolve()
		}()
	}
	wg.Wait()

	s.Equal(int32(1), fired.Load())
}

func (s *LatchSuite) TestResetAllowsSecondStage() {
	l := New()
	var stages []int

	l.Add()
	l.Add()
	l.Then(func() { stages = append(stages, len(stages)+1) })
	l.Resolve()
	l.Resolve()
	s.Equal([]int{1}, stages)

	// Second join stage on the same latch object
	l.Reset()
	l.Add()
	l.Then(func() { stages = append(stages, len(stages)+1) })
	s.Equal([]int{1}, stages, "reset latch must not fire until its new units resolve")
	l.Resolve()
	s.Equal([]int{1, 2}, stages)
}

func (s *LatchSuite) TestResetRetainsContinuation() {
	l := New()
	fired := 0
	l.Add()
	l.Then(func() { fired++ })
	l.Resolve()
	s.Equal(1, fired)

	l.Reset()
	l.Add()
	l.Resolve()
	s.Equal(2, fired)
}

func (s *LatchSuite) TestStagedJoinFromContinuation() {
	// The continuation itself resets the latch and issues a second
	// parallel stage, as the registry's game-data assembly does.
	l := New()
	secondStage := make(chan struct{})
	done := make(chan struct{})

	l.Add()
	l.Add()
	l.Then(func() {
		l.Reset()
		l.Add()
		l.Then(func() { close(done) })
		go func() {
			<-secondStage
			l.Resolve()
		}()
	})
	l.Resolve()
	l.Resolve()

	select {
	case <-done:
		s.Fail("second stage fired before its unit resolved")
	default:
	}

	close(secondStage)
	<-done
}

func (s *LatchSuite) TestOverResolvePanics() {
	l := New()
	l.Add()
	l.Resolve()
	s.Panics(func() { l.Resolve() })
}

type OutcomeSuite struct {
	suite.Suite
}

func TestOutcomeSuite(t *testing.T) {
	suite.Run(t, new(OutcomeSuite))
}

func (s *OutcomeSuite) TestFirstFailureWins() {
	o := NewOutcome()
	errA := errors.New("branch a failed")
	errB := errors.New("branch b failed")

	s.True(o.Fail(errA))
	s.False(o.Fail(errB), "second failure must not settle")
	s.ErrorIs(o.Err(), errA)
	s.True(o.Failed())
}

func (s *OutcomeSuite) TestSucceedBlocksLaterFailure() {
	o := NewOutcome()
	s.True(o.Succeed())
	s.False(o.Fail(errors.New("late failure")))
	s.NoError(o.Err())
	s.False(o.Failed())
	s.True(o.Settled())
}

func (s *OutcomeSuite) TestConcurrentFailuresSettleOnce() {
	const n = 32
	o := NewOutcome()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if o.Fail(errors.New("lookup failed")) {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), winners.Load(), "exactly one branch may take the outward error action")
	s.True(o.Failed())
}

func (s *OutcomeSuite) TestUnsettledReadsAreZero() {
	o := NewOutcome()
	s.False(o.Settled())
	s.False(o.Failed())
	s.NoError(o.Err())
}
