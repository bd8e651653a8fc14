package integration

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/vnykmshr/seqflow/internal/testutil"
	sferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
	"github.com/vnykmshr/seqflow/pkg/scheduling/pipeline"
	"github.com/vnykmshr/seqflow/pkg/streaming/channel"
	"github.com/vnykmshr/seqflow/pkg/streaming/producer"
	"github.com/vnykmshr/seqflow/pkg/streaming/source"
	"github.com/vnykmshr/seqflow/pkg/streaming/supervisor"
	"github.com/vnykmshr/seqflow/pkg/streaming/transform"
)

// TestProducerPipelineEndToEnd runs source → producer → channel → pipeline →
// output and verifies content and order.
func TestProducerPipelineEndToEnd(t *testing.T) {
	const n = 50

	items := make([]int, n)
	for i := range items {
		items[i] = i
	}

	feed := channel.New[int](8)
	out := channel.New[string](8)

	// The chain operates on one element type, so a bridge converts the
	// produced ints to strings before the pipeline.
	convert := channel.New[string](8)

	p, err := producer.New(producer.Config[int]{
		Source: source.Slice(items),
		Output: feed,
	})
	testutil.AssertNoError(t, err)

	go func() {
		outcome := p.Run(context.Background())
		if !outcome.Failed() {
			_ = feed.Close()
		}
	}()

	// Bridge ints to strings for the main pipeline.
	go func() {
		for {
			v, err := feed.Receive(context.Background())
			if err != nil {
				_ = convert.Close()
				return
			}
			_ = convert.Send(context.Background(), strconv.Itoa(v))
		}
	}()

	chain := transform.NewChain(
		transform.Map("tag", func(s string) (string, error) {
			return "item-" + s, nil
		}),
	)

	pl, err := pipeline.New(pipeline.Config[string]{
		Workers:        4,
		Input:          convert,
		Output:         out,
		Chain:          chain,
		PropagateClose: true,
	})
	testutil.AssertNoError(t, err)

	done := pl.Start(context.Background())

	var got []string
	for {
		v, err := out.Receive(context.Background())
		if err != nil {
			break
		}
		got = append(got, v)
	}
	testutil.AssertNoError(t, <-done)

	testutil.AssertEqual(t, len(got), n)
	for i, v := range got {
		testutil.AssertEqual(t, v, fmt.Sprintf("item-%d", i))
	}
}

// TestSupervisedPipelinePreservesOrderAcrossRestart verifies that a restart
// mid-stream never reorders or loses items downstream, even with parallel
// workers.
func TestSupervisedPipelinePreservesOrderAcrossRestart(t *testing.T) {
	const n = 30

	src := testutil.NewFlakySource(n)
	src.FailOnce(11, sferrors.Transient(errors.New("read timeout")))
	src.FailOnce(23, sferrors.Transient(errors.New("read timeout")))

	feed := channel.New[int](4)
	out := channel.New[int](4)

	sup, err := supervisor.New(supervisor.Config[int]{
		Source:      src,
		Output:      feed,
		Policy:      supervisor.Immediate(),
		CloseOnDone: true,
	})
	testutil.AssertNoError(t, err)

	chain := transform.NewChain(
		transform.NewStepFunc("jitter", func(_ context.Context, v int) (int, error) {
			if v%7 == 0 {
				time.Sleep(2 * time.Millisecond)
			}
			return v * 10, nil
		}),
	)

	pl, err := pipeline.New(pipeline.Config[int]{
		Workers:        4,
		Input:          feed,
		Output:         out,
		Chain:          chain,
		PropagateClose: true,
	})
	testutil.AssertNoError(t, err)

	supDone := make(chan error, 1)
	go func() { supDone <- sup.Run(context.Background()) }()
	plDone := pl.Start(context.Background())

	var got []int
	for {
		v, err := out.Receive(context.Background())
		if err != nil {
			break
		}
		got = append(got, v)
	}

	testutil.AssertNoError(t, <-supDone)
	testutil.AssertNoError(t, <-plDone)

	testutil.AssertEqual(t, len(got), n)
	for i, v := range got {
		testutil.AssertEqual(t, v, i*10)
	}
	testutil.AssertEqual(t, sup.Restarts(), 2)
}

// TestPipelineErrorHandlerKeepsStreamAlive verifies that element failures are
// absorbed by the handler while the rest of the stream flows through.
func TestPipelineErrorHandlerKeepsStreamAlive(t *testing.T) {
	feed := channel.New[int](8)
	out := channel.New[int](8)

	chain := transform.NewChain(
		transform.Map("validate", func(v int) (int, error) {
			if v == 4 {
				return 0, errors.New("rejected")
			}
			return v, nil
		}),
	)

	rec := &testutil.ErrorRecorder{}

	pl, err := pipeline.New(pipeline.Config[int]{
		Workers: 3,
		Input:   feed,
		Output:  out,
		Chain:   chain,
		OnError: func(elem int, err error) (int, bool) {
			rec.Record(elem, err)
			return 0, false
		},
		PropagateClose: true,
	})
	testutil.AssertNoError(t, err)

	go func() {
		for i := 0; i < 8; i++ {
			_ = feed.Send(context.Background(), i)
		}
		_ = feed.Close()
	}()

	done := pl.Start(context.Background())

	var got []int
	for {
		v, err := out.Receive(context.Background())
		if err != nil {
			break
		}
		got = append(got, v)
	}
	testutil.AssertNoError(t, <-done)

	testutil.AssertDeepEqual(t, got, []int{0, 1, 2, 3, 5, 6, 7})
	testutil.AssertEqual(t, rec.Count(), 1)
	testutil.AssertDeepEqual(t, rec.Elems(), []int{4})
}
