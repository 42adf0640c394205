// Package repo contains all database access for the voter file export
// service. The compiler hands this package finished SQL text; no query
// assembly happens here — only execution, streaming, and connection
// lifecycle.
package repo

import (
	"context"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VoterRepo executes compiled voter file queries. The service layer depends
// on this interface, not the Postgres implementation, so the export pipeline
// can be unit-tested without a database.
type VoterRepo interface {
	// Count runs a compiled COUNT(*) statement and returns the single
	// integer result. The connection is held only for the duration of the
	// one query.
	Count(ctx context.Context, sql string) (int64, error)

	// Stream executes a compiled SELECT via the server-side bulk export
	// protocol (COPY ... TO STDOUT WITH CSV HEADER), writing CSV bytes to w
	// as they arrive. Nothing is materialized in memory: a slow w blocks the
	// database read. Returns the number of rows copied.
	//
	// One pool connection is acquired for the duration of the stream and
	// released exactly once, on success, error, and context cancellation
	// alike. Cancelling ctx (e.g. the caller disconnected) aborts the COPY
	// server-side.
	Stream(ctx context.Context, sql string, w io.Writer) (int64, error)
}

// copyFunc matches pgconn.PgConn.CopyTo: execute a COPY TO STDOUT statement,
// writing its output to w.
type copyFunc func(ctx context.Context, w io.Writer, sql string) (pgconn.CommandTag, error)

// pgVoterRepo is the Postgres implementation of VoterRepo.
type pgVoterRepo struct {
	pool *pgxpool.Pool

	// acquire checks out one connection and returns its COPY entry point
	// plus the release hook. A field rather than a direct pool call so
	// tests can verify the release-exactly-once contract without a
	// database.
	acquire func(ctx context.Context) (copyFunc, func(), error)
}

// NewVoterRepo constructs a VoterRepo backed by the provided connection pool.
// The pool is owned by the caller for the process lifetime; this repo only
// borrows connections from it.
func NewVoterRepo(pool *pgxpool.Pool) VoterRepo {
	r := &pgVoterRepo{pool: pool}
	r.acquire = r.acquirePoolConn
	return r
}

// acquirePoolConn borrows one pooled connection for a COPY stream.
func (r *pgVoterRepo) acquirePoolConn(ctx context.Context) (copyFunc, func(), error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	return conn.Conn().PgConn().CopyTo, conn.Release, nil
}

// Count runs a COUNT(*) statement.
func (r *pgVoterRepo) Count(ctx context.Context, sql string) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, sql).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.VoterRepo.Count: %w", err)
	}
	return n, nil
}

// Stream wraps the compiled SELECT in a COPY TO STDOUT and pipes the CSV
// output to w.
func (r *pgVoterRepo) Stream(ctx context.Context, sql string, w io.Writer) (int64, error) {
	copyTo, release, err := r.acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("repo.VoterRepo.Stream: acquire: %w", err)
	}
	// The single release point for every exit path below.
	defer release()

	copySQL := "COPY (" + sql + ") TO STDOUT WITH CSV HEADER"
	tag, err := copyTo(ctx, w, copySQL)
	if err != nil {
		return 0, fmt.Errorf("repo.VoterRepo.Stream: copy: %w", err)
	}
	return tag.RowsAffected(), nil
}
