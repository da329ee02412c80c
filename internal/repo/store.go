// Package repo contains all database access logic for the SecureCheck API.
// store.go is the record store adapter: it acquires a connection for exactly
// one operation, runs the statement, and releases the connection on every
// exit path. stop.go and report.go hold the SQL.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pkordes/securecheck/internal/domain"
)

// Conn is the minimal interface satisfied by *pgx.Conn, *pgxpool.Conn, and pgx.Tx.
// Accepting this interface instead of a concrete type allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Connector hands out a connection for a single operation together with the
// function that releases it. release must be called exactly once.
type Connector interface {
	Acquire(ctx context.Context) (conn Conn, release func(), err error)
}

// perOperation opens a brand-new connection for every operation and closes it
// on release. There is no pooling.
type perOperation struct {
	dsn string
}

// NewConnector returns a Connector that dials dsn afresh for every operation.
func NewConnector(dsn string) Connector {
	return &perOperation{dsn: dsn}
}

func (c *perOperation) Acquire(ctx context.Context) (Conn, func(), error) {
	conn, err := pgx.Connect(ctx, c.dsn)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		// Close gets its own context: the request context may already be done.
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = conn.Close(closeCtx)
	}
	return conn, release, nil
}

// pooled borrows connections from a pgxpool.Pool.
type pooled struct {
	pool *pgxpool.Pool
}

// NewPoolConnector returns a Connector backed by pool. Connections are
// returned to the pool on release rather than closed.
func NewPoolConnector(pool *pgxpool.Pool) Connector {
	return &pooled{pool: pool}
}

func (c *pooled) Acquire(ctx context.Context) (Conn, func(), error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	return conn, conn.Release, nil
}

// Open returns the Connector selected by configuration. With pooled set it
// creates a pgxpool and checks it is reachable; otherwise every operation
// dials dsn on its own and nothing is opened up front. The returned close
// function releases the pool and is safe to call in either mode.
func Open(ctx context.Context, dsn string, pooled bool) (Connector, func(), error) {
	if !pooled {
		return NewConnector(dsn), func() {}, nil
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("repo.Open: %w: %w", domain.ErrConnectionFailed, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("repo.Open: %w: %w", domain.ErrConnectionFailed, err)
	}
	return NewPoolConnector(pool), pool.Close, nil
}

// single reuses one caller-owned connection or transaction; release is a no-op.
type single struct {
	conn Conn
}

// NewSingleConnector returns a Connector that always hands out conn.
// In tests pass a pgx.Tx so that every repo call shares one rolled-back transaction.
func NewSingleConnector(conn Conn) Connector {
	return &single{conn: conn}
}

func (c *single) Acquire(context.Context) (Conn, func(), error) {
	return c.conn, func() {}, nil
}

// Store runs statements against the record store, one connection per call.
type Store struct {
	connector Connector
}

// NewStore constructs a Store that acquires connections from connector.
func NewStore(connector Connector) *Store {
	return &Store{connector: connector}
}

// Do acquires a connection, runs fn with it and releases the connection.
// A failure to connect is reported as domain.ErrConnectionFailed; any error
// from fn other than an existing domain sentinel is reported as
// domain.ErrQueryFailed. op prefixes the error, e.g. "repo.StopRepo.Create".
func (s *Store) Do(ctx context.Context, op string, fn func(Conn) error) error {
	conn, release, err := s.connector.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrConnectionFailed, err)
	}
	defer release()

	if err := fn(conn); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		case isDomainError(err):
			return fmt.Errorf("%s: %w", op, err)
		default:
			return fmt.Errorf("%s: %w: %w", op, domain.ErrQueryFailed, err)
		}
	}
	return nil
}

// Exec runs a statement that returns no rows and reports the affected row count.
func (s *Store) Exec(ctx context.Context, op, sql string, args ...any) (int64, error) {
	var affected int64
	err := s.Do(ctx, op, func(c Conn) error {
		tag, err := c.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	return affected, err
}

// Query runs a statement and captures its column names alongside the row values.
// An empty result is a table with columns and no rows, not an error.
func (s *Store) Query(ctx context.Context, op, sql string, args ...any) (domain.ResultTable, error) {
	var table domain.ResultTable
	err := s.Do(ctx, op, func(c Conn) error {
		rows, err := c.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		fields := rows.FieldDescriptions()
		table.Columns = make([]string, len(fields))
		for i, f := range fields {
			table.Columns[i] = f.Name
		}
		table.Rows = [][]any{}

		for rows.Next() {
			values, err := rows.Values()
			if err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			row := make([]any, len(values))
			for i, v := range values {
				row[i] = normalize(v)
			}
			table.Rows = append(table.Rows, row)
		}
		return rows.Err()
	})
	if err != nil {
		return domain.ResultTable{}, err
	}
	return table, nil
}

func isDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrNotFound, domain.ErrValidation, domain.ErrConnectionFailed,
		domain.ErrQueryFailed, domain.ErrInsert, domain.ErrDelete,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// normalize converts the values pgx decodes for aggregate queries into plain
// Go types: NUMERIC becomes float64, small integers widen to int64, DATE and
// TIME become their string forms.
func normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case float32:
		return float64(x)
	case float64:
		return x
	case pgtype.Numeric:
		if !x.Valid || x.NaN {
			return nil
		}
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case pgtype.Time:
		if !x.Valid {
			return nil
		}
		return domain.TimeOfDayFromDuration(time.Duration(x.Microseconds) * time.Microsecond).String()
	case time.Time:
		return x.Format(domain.DateLayout)
	case string, bool:
		return x
	default:
		return fmt.Sprint(x)
	}
}
