package redis

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/taginput/internal/db"
)

var errNoFields = errors.New("no fields to write")

// HSet writes the attributes of one record hash. Fields go out in key order so
// the same record always produces the same command.
func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return &db.Error{Op: db.OpHSet, Err: fmt.Errorf("%s: %w", key, errNoFields)}
	}
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	slices.Sort(names)

	cmd := s.b().Hset().Key(key).FieldValue()
	for _, k := range names {
		cmd = cmd.FieldValue(k, fields[k])
	}
	if err := s.do(ctx, cmd.Build()).Error(); err != nil {
		return &db.Error{Op: db.OpHSet, Err: fmt.Errorf("%s: %w", key, err)}
	}
	return nil
}

// HGetAll reads one record hash. A missing record is an empty map.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m, err := s.do(ctx, s.b().Hgetall().Key(key).Build()).AsStrMap()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return map[string]string{}, nil
		}
		return nil, &db.Error{Op: db.OpHGetAll, Err: fmt.Errorf("%s: %w", key, err)}
	}
	return m, nil
}

// HGetAllMulti reads the hashes of a whole record type in one pipelined
// round-trip. Results line up with keys; a record deleted in the meantime
// comes back as an empty map.
func (s *Store) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, len(keys))
	for i, key := range keys {
		cmds[i] = s.b().Hgetall().Key(key).Build()
	}

	out := make([]map[string]string, len(keys))
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		m, err := res.AsStrMap()
		switch {
		case rueidis.IsRedisNil(err):
			m = map[string]string{}
		case err != nil:
			return nil, &db.Error{Op: db.OpHGetAll, Err: fmt.Errorf("%s: %w", keys[i], err)}
		}
		out[i] = m
	}
	return out, nil
}
