// Package integration contains integration tests that verify cross-package
// functionality: producers feeding channels, supervisors recovering failures,
// and pipelines preserving order end to end.
package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vnykmshr/seqflow/internal/testutil"
	sferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
	"github.com/vnykmshr/seqflow/pkg/streaming/channel"
	"github.com/vnykmshr/seqflow/pkg/streaming/producer"
	"github.com/vnykmshr/seqflow/pkg/streaming/source"
	"github.com/vnykmshr/seqflow/pkg/streaming/supervisor"
)

// TestProducerFeedsChannel verifies the fetch-write loop delivers every item
// in order through a bounded channel.
func TestProducerFeedsChannel(t *testing.T) {
	items := []int{10, 20, 30, 40, 50}
	out := channel.New[int](2) // smaller than the item count, to force blocking

	p, err := producer.New(producer.Config[int]{
		Source: source.Slice(items),
		Output: out,
	})
	testutil.AssertNoError(t, err)

	outcomeCh := make(chan producer.Outcome, 1)
	go func() {
		outcome := p.Run(context.Background())
		if !outcome.Failed() {
			_ = out.Close()
		}
		outcomeCh <- outcome
	}()

	var got []int
	for {
		v, err := out.Receive(context.Background())
		if err != nil {
			break
		}
		got = append(got, v)
	}

	outcome := <-outcomeCh
	testutil.AssertNoError(t, outcome.Err)
	testutil.AssertEqual(t, outcome.Cursor, uint64(5))
	testutil.AssertDeepEqual(t, got, items)
}

// TestSupervisorRecoversTransientFailure verifies that a producer failing at
// cursor k is restarted at k on the same channel and item k is never skipped.
func TestSupervisorRecoversTransientFailure(t *testing.T) {
	src := testutil.NewFlakySource(6)
	src.FailOnce(3, sferrors.Transient(errors.New("connection reset")))

	out := channel.New[int](4)

	sup, err := supervisor.New(supervisor.Config[int]{
		Source:      src,
		Output:      out,
		Policy:      supervisor.Immediate(),
		CloseOnDone: true,
	})
	testutil.AssertNoError(t, err)

	done := make(chan error, 1)
	go func() { done <- sup.Run(context.Background()) }()

	var got []int
	for {
		v, err := out.Receive(context.Background())
		if err != nil {
			break
		}
		got = append(got, v)
	}

	testutil.AssertNoError(t, <-done)
	testutil.AssertDeepEqual(t, got, []int{0, 1, 2, 3, 4, 5})
	testutil.AssertEqual(t, sup.Restarts(), 1)

	// Cursor 3 was fetched twice: once failing, once after restart.
	testutil.AssertEqual(t, src.Fetches(3), 2)
}

// TestSupervisorStopWakesBlockedReader verifies the stop signal is observable
// by a reader parked on the shared channel.
func TestSupervisorStopWakesBlockedReader(t *testing.T) {
	// A source that never ends: it blocks until its context is canceled.
	blocking := producer.SourceFunc[int](func(ctx context.Context, cursor uint64) (int, error) {
		if cursor < 2 {
			return int(cursor), nil
		}
		<-ctx.Done()
		return 0, ctx.Err()
	})

	out := channel.New[int](4)

	sup, err := supervisor.New(supervisor.Config[int]{
		Source: blocking,
		Output: out,
	})
	testutil.AssertNoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	readerDone := make(chan []int, 1)
	go func() {
		var got []int
		for {
			v, err := out.Receive(context.Background())
			if err != nil {
				readerDone <- got
				return
			}
			got = append(got, v)
		}
	}()

	// Let the two available items flow, then stop.
	testutil.Eventually(t, time.Second, func() bool {
		return out.Stats().SendCount == 2
	})
	cancel()

	testutil.AssertNoError(t, <-done)

	select {
	case got := <-readerDone:
		testutil.AssertDeepEqual(t, got, []int{0, 1})
	case <-time.After(time.Second):
		t.Fatal("reader still blocked after stop")
	}
}

// TestSupervisorStopsOnFatalError verifies fatal classification ends
// supervision instead of restarting.
func TestSupervisorStopsOnFatalError(t *testing.T) {
	src := testutil.NewFlakySource(6)
	src.FailForever = true
	src.FailAt[2] = sferrors.Fatal(errors.New("source corrupted"))

	out := channel.New[int](4)

	sup, err := supervisor.New(supervisor.Config[int]{
		Source:      src,
		Output:      out,
		StopOnFatal: true,
		CloseOnDone: true,
	})
	testutil.AssertNoError(t, err)

	done := make(chan error, 1)
	go func() { done <- sup.Run(context.Background()) }()

	var got []int
	for {
		v, err := out.Receive(context.Background())
		if err != nil {
			break
		}
		got = append(got, v)
	}

	err = <-done
	testutil.AssertError(t, err)
	testutil.AssertEqual(t, sferrors.IsFatal(err), true)
	testutil.AssertDeepEqual(t, got, []int{0, 1})
	testutil.AssertEqual(t, sup.Restarts(), 0)
}
