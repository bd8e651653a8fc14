/*
Package producer provides a cursor-driven task that pulls items from an
external source and writes them to a bounded channel.

A Producer depends only on the Source capability: fetch the item at a
monotonic cursor position. Concrete transports (log readers, sockets, Redis
lists) live behind that interface; see pkg/streaming/source for adapters.

The cursor advances only after an item has been both fetched and written, so
a failed run's Outcome always reports the first unconsumed position. A
supervisor restarting a producer at that position never skips an item, at the
cost of possible re-delivery.

	p, err := producer.New(producer.Config[string]{
		Source: src,
		Output: out,
	})
	outcome := p.Run(ctx)
	if outcome.Failed() {
		// restart at outcome.Cursor, or escalate
	}

Producers are single-use. Restarting means creating a new Producer at the
last known-good cursor, normally the job of pkg/streaming/supervisor.
*/
package producer
