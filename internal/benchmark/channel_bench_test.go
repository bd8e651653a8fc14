package benchmark

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/vnykmshr/seqflow/pkg/streaming/channel"
)

func sizeLabel(n int) string {
	return "size-" + strconv.Itoa(n)
}

// BenchmarkChannelSend measures blocking send performance across capacities.
func BenchmarkChannelSend(b *testing.B) {
	capacities := []int{10, 100, 1000}

	for _, capacity := range capacities {
		b.Run(sizeLabel(capacity), func(b *testing.B) {
			ch, err := channel.NewWithConfig[int](channel.Config{
				Capacity: capacity,
				Policy:   channel.Block,
			})
			if err != nil {
				b.Fatal(err)
			}

			done := make(chan struct{})
			go func() {
				defer close(done)
				ctx := context.Background()
				for {
					if _, err := ch.Receive(ctx); err != nil {
						return
					}
				}
			}()

			b.ReportAllocs()
			b.ResetTimer()
			ctx := context.Background()
			for i := 0; i < b.N; i++ {
				_ = ch.Send(ctx, i)
			}
			b.StopTimer()

			_ = ch.Close()
			<-done
		})
	}
}

// BenchmarkChannelReceive measures receive performance from a pre-filled
// channel with a concurrent refiller.
func BenchmarkChannelReceive(b *testing.B) {
	ch, err := channel.NewWithConfig[int](channel.Config{
		Capacity: 1000,
		Policy:   channel.Block,
	})
	if err != nil {
		b.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		ctx := context.Background()
		for i := 0; ; i++ {
			if err := ch.Send(ctx, i); err != nil {
				return
			}
		}
	}()

	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ch.Receive(ctx); err != nil {
			b.Fatal(err)
		}
	}
	b.StopTimer()

	_ = ch.Close()
	<-done
}

// BenchmarkChannelSendAsync measures the non-blocking write fast path.
func BenchmarkChannelSendAsync(b *testing.B) {
	ch, err := channel.NewWithConfig[int](channel.Config{
		Capacity:          1024,
		Policy:            channel.Block,
		PendingWriteLimit: 1 << 20,
	})
	if err != nil {
		b.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		ctx := context.Background()
		for {
			if _, err := ch.Receive(ctx); err != nil {
				return
			}
		}
	}()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ch.SendAsync(i)
	}
	b.StopTimer()

	_ = ch.Close()
	<-done
}

// BenchmarkChannelContended measures throughput with several senders and
// receivers on one channel.
func BenchmarkChannelContended(b *testing.B) {
	const senders = 4

	ch, err := channel.NewWithConfig[int](channel.Config{
		Capacity: 256,
		Policy:   channel.Block,
	})
	if err != nil {
		b.Fatal(err)
	}

	ctx := context.Background()
	var wg sync.WaitGroup

	b.ReportAllocs()
	b.ResetTimer()

	wg.Add(senders)
	per := b.N / senders
	for s := 0; s < senders; s++ {
		go func() {
			defer wg.Done()
			for i := 0; i < per; i++ {
				_ = ch.Send(ctx, i)
			}
		}()
	}

	for i := 0; i < per*senders; i++ {
		if _, err := ch.Receive(ctx); err != nil {
			b.Fatal(err)
		}
	}
	wg.Wait()
	b.StopTimer()

	_ = ch.Close()
}

// BenchmarkRendezvous measures the zero-capacity synchronous hand-off.
func BenchmarkRendezvous(b *testing.B) {
	ch, err := channel.NewWithConfig[int](channel.Config{Capacity: 0})
	if err != nil {
		b.Fatal(err)
	}

	ctx := context.Background()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, err := ch.Receive(ctx); err != nil {
				return
			}
		}
	}()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ch.Send(ctx, i)
	}
	b.StopTimer()

	_ = ch.Close()
	<-done
}
