// Package source provides concrete producer.Source implementations.
//
// The core runtime depends only on the Source contract (fetch the item at a
// cursor); this package supplies the common adapters: an in-memory slice, a
// plain function, an endless generator, and a Redis list. Anything with a
// stable, index-addressable read can back a producer the same way.
package source
