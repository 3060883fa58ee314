package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/blogdex/internal/db"
)

// Get returns the raw value at key or db.ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Do(ctx, s.client.B().Get().Key(key).Build()).AsBytes()
	switch {
	case err == nil:
		return data, nil
	case rueidis.IsRedisNil(err):
		return nil, db.ErrKeyNotFound
	default:
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
}

// SetWithTTL writes value with an expiry. A non-positive ttl is rounded up to
// one second so nothing is stored forever by accident.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	cmd := s.client.B().Set().Key(key).Value(rueidis.BinaryString(value)).ExSeconds(seconds(ttl)).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// IncrWithTTL sends INCRBY and EXPIRE NX in one round trip.
func (s *Store) IncrWithTTL(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	b := s.client.B()
	res := s.client.DoMulti(ctx,
		b.Incrby().Key(key).Increment(delta).Build(),
		b.Expire().Key(key).Seconds(seconds(ttl)).Nx().Build(),
	)
	total, err := res[0].AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpIncrBy, Err: err}
	}
	if err := res[1].Error(); err != nil {
		return total, &db.Error{Op: db.OpExpire, Err: err}
	}
	return total, nil
}

func seconds(ttl time.Duration) int64 {
	if s := int64(ttl / time.Second); s > 0 {
		return s
	}
	return 1
}
