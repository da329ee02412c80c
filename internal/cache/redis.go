// Package cache keeps executed report tables in Redis so repeated report
// views do not re-run the same aggregate. Entries expire after a TTL and are
// dropped wholesale whenever the record set changes.
//
// Keys under the prefix:
//
//	<prefix>generation   counter bumped by every Invalidate
//	<prefix>table:<id>   one encoded table per report id
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pkordes/securecheck/internal/domain"
)

// DefaultPrefix namespaces every key this package writes.
const DefaultPrefix = "securecheck:report:"

// ReportCache stores domain.ResultTable values keyed by report id.
type ReportCache struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewReportCache connects to the Redis server at addr and verifies it with a
// PING. A non-positive ttl means entries never expire.
func NewReportCache(ctx context.Context, addr string, ttl time.Duration) (*ReportCache, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache.NewReportCache: redis ping: %w", err)
	}
	return &ReportCache{rdb: rdb, prefix: DefaultPrefix, ttl: ttl}, nil
}

// withPrefix returns a copy of c writing under prefix, keeping test keys
// apart from a running service.
func (c *ReportCache) withPrefix(prefix string) *ReportCache {
	cp := *c
	cp.prefix = prefix
	return &cp
}

// entry is the stored form of a table. JSON does not distinguish 50 from
// 50.0, so Floats marks the columns whose numbers must decode as float64.
type entry struct {
	Columns []string `json:"columns"`
	Floats  []bool   `json:"floats"`
	Rows    [][]any  `json:"rows"`
}

func encodeTable(table domain.ResultTable) ([]byte, error) {
	floats := make([]bool, len(table.Columns))
	for _, row := range table.Rows {
		for j, v := range row {
			if _, ok := v.(float64); ok && j < len(floats) {
				floats[j] = true
			}
		}
	}
	return json.Marshal(entry{Columns: table.Columns, Floats: floats, Rows: table.Rows})
}

func (c *ReportCache) tableKey(id string) string { return c.prefix + "table:" + id }
func (c *ReportCache) generationKey() string     { return c.prefix + "generation" }

// Get returns the cached table for id. A miss is ok=false with a nil error.
func (c *ReportCache) Get(ctx context.Context, id string) (domain.ResultTable, bool, error) {
	raw, err := c.rdb.Get(ctx, c.tableKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.ResultTable{}, false, nil
	}
	if err != nil {
		return domain.ResultTable{}, false, fmt.Errorf("cache.ReportCache.Get: %w", err)
	}
	table, err := decodeTable(raw)
	if err != nil {
		return domain.ResultTable{}, false, fmt.Errorf("cache.ReportCache.Get: %w", err)
	}
	return table, true, nil
}

// Generation returns the current invalidation counter; 0 before the first
// invalidation.
func (c *ReportCache) Generation(ctx context.Context) (int64, error) {
	gen, err := getGeneration(ctx, c.rdb, c.generationKey())
	if err != nil {
		return 0, fmt.Errorf("cache.ReportCache.Generation: %w", err)
	}
	return gen, nil
}

// getter is satisfied by both *goredis.Client and *goredis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
}

func getGeneration(ctx context.Context, cmd getter, key string) (int64, error) {
	gen, err := cmd.Get(ctx, key).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Set stores table under id for the cache TTL, provided the generation is
// still gen. The check and the write run in one WATCH transaction, so an
// Invalidate that lands in between makes Set report false instead of storing.
func (c *ReportCache) Set(ctx context.Context, id string, gen int64, table domain.ResultTable) (bool, error) {
	raw, err := encodeTable(table)
	if err != nil {
		return false, fmt.Errorf("cache.ReportCache.Set: %w", err)
	}

	genKey := c.generationKey()
	stored := false
	err = c.rdb.Watch(ctx, func(tx *goredis.Tx) error {
		cur, err := getGeneration(ctx, tx, genKey)
		if err != nil {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, c.tableKey(id), raw, max(c.ttl, 0))
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, genKey)
	if errors.Is(err, goredis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache.ReportCache.Set: %w", err)
	}
	return stored, nil
}

// Invalidate removes every cached report. The generation is bumped first so
// a Set racing with the deletes is refused.
func (c *ReportCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, c.generationKey()).Err(); err != nil {
		return fmt.Errorf("cache.ReportCache.Invalidate: %w", err)
	}

	var keys []string
	iter := c.rdb.Scan(ctx, 0, c.tableKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache.ReportCache.Invalidate: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache.ReportCache.Invalidate: %w", err)
	}
	return nil
}

// Close releases the Redis client.
func (c *ReportCache) Close() error {
	return c.rdb.Close()
}

// decodeTable reverses encodeTable. Numbers in float columns come back as
// float64 and all others as int64, matching what the store produces.
func decodeTable(raw []byte) (domain.ResultTable, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var e entry
	if err := dec.Decode(&e); err != nil {
		return domain.ResultTable{}, err
	}

	rows := make([][]any, len(e.Rows))
	for i, row := range e.Rows {
		out := make([]any, len(row))
		for j, v := range row {
			out[j] = fromJSON(v, j < len(e.Floats) && e.Floats[j])
		}
		rows[i] = out
	}
	return domain.ResultTable{Columns: e.Columns, Rows: rows}, nil
}

func fromJSON(v any, float bool) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if !float {
		if i, err := n.Int64(); err == nil {
			return i
		}
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
