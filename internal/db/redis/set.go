package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/taginput/internal/db"
)

// SAdd adds members to a set.
func (s *Store) SAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	cmd := s.b().Sadd().Key(key).Member(members...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSAdd, Err: err}
	}
	return nil
}

// SMembers returns all members of a set. A missing key is an empty set.
func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	cmd := s.b().Smembers().Key(key).Build()
	members, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, &db.Error{Op: db.OpSMembers, Err: err}
	}
	return members, nil
}

// SReplace deletes the set and re-adds members in a single DoMulti round-trip.
// The pipeline is not a transaction: a concurrent writer can interleave.
func (s *Store) SReplace(ctx context.Context, key string, members []string) error {
	cmds := make([]rueidis.Completed, 0, 2)
	cmds = append(cmds, s.b().Del().Key(key).Build())
	if len(members) > 0 {
		cmds = append(cmds, s.b().Sadd().Key(key).Member(members...).Build())
	}

	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpReplace, Err: fmt.Errorf("step %d on %s: %w", i, key, err)}
		}
	}
	return nil
}
