package source

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	sferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
	"github.com/vnykmshr/seqflow/pkg/common/validation"
)

// RedisList is a Source[string] over a Redis list, addressed by index. The
// cursor maps directly to a list index, so a producer restarted at its failed
// cursor re-reads exactly the element it did not deliver.
type RedisList struct {
	client redis.UniversalClient
	key    string
}

// NewRedisList creates a Source over the Redis list stored at key.
func NewRedisList(client redis.UniversalClient, key string) (*RedisList, error) {
	if client == nil {
		return nil, validation.ValidateNotNil("source", "client", nil)
	}
	if err := validation.ValidateNotEmpty("source", "key", key); err != nil {
		return nil, err
	}
	return &RedisList{client: client, key: key}, nil
}

// Fetch returns the list element at the cursor index. A missing index means
// the list is exhausted; network failures are classified transient so a
// supervisor will retry them.
func (s *RedisList) Fetch(ctx context.Context, cursor uint64) (string, error) {
	val, err := s.client.LIndex(ctx, s.key, int64(cursor)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", sferrors.ErrEndOfSource
		}
		return "", sferrors.Transient(err)
	}
	return val, nil
}
