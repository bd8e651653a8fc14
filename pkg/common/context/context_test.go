package context

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/vnykmshr/seqflow/internal/testutil"
)

func TestIsCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	testutil.AssertEqual(t, IsCanceled(ctx), false)

	cancel()
	testutil.AssertEqual(t, IsCanceled(ctx), true)
}

func TestIsTimedOut(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()

	<-ctx.Done()
	testutil.AssertEqual(t, IsTimedOut(ctx), true)

	canceled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	testutil.AssertEqual(t, IsTimedOut(canceled), false)
}

func TestIsStop(t *testing.T) {
	testutil.AssertEqual(t, IsStop(nil), false)
	testutil.AssertEqual(t, IsStop(context.Canceled), true)
	testutil.AssertEqual(t, IsStop(context.DeadlineExceeded), true)
	testutil.AssertEqual(t, IsStop(fmt.Errorf("run interrupted: %w", context.Canceled)), true)
	testutil.AssertEqual(t, IsStop(fmt.Errorf("plain failure")), false)
}
