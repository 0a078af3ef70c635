package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// OpenDB opens a pgx-backed database/sql pool. The pool is small: the board
// issues one query per refresh.
func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// PingDB checks connectivity with a short timeout.
func PingDB(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

// Querier is the part of *sql.DB the Postgres source uses.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Postgres reads stop_times from a GTFS database, as loaded by the usual
// GTFS importers. Rows are kept when their trip_id starts with one of
// Prefixes and, if StopIDs is not empty, their stop_id is listed.
type Postgres struct {
	DB       Querier
	Prefixes []string
	StopIDs  []string
}

const stopTimesQuery = `
SELECT trip_id, arrival_time::text
FROM stop_times
WHERE (cardinality($1::text[]) = 0 OR stop_id = ANY($1::text[]))
  AND trip_id LIKE ANY($2::text[])
  AND arrival_time IS NOT NULL
ORDER BY trip_id, arrival_time
`

func (p Postgres) Fetch(ctx context.Context) (Batch, error) {
	if len(p.Prefixes) == 0 {
		return nil, fmt.Errorf("postgres source: %w", ErrNoData)
	}

	patterns := make([]string, len(p.Prefixes))
	for i, prefix := range p.Prefixes {
		patterns[i] = likePrefix(prefix)
	}
	stops := p.StopIDs
	if stops == nil {
		stops = []string{}
	}

	rows, err := p.DB.QueryContext(ctx, stopTimesQuery, stops, patterns)
	if err != nil {
		return nil, fmt.Errorf("query stop_times: %w", err)
	}
	defer rows.Close()

	b := make(Batch)
	for rows.Next() {
		var tripID, arrival string
		if err := rows.Scan(&tripID, &arrival); err != nil {
			return nil, fmt.Errorf("scan stop_times: %w", err)
		}
		b.Add(tripID, arrival)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read stop_times: %w", err)
	}
	return b, nil
}

// likePrefix escapes LIKE wildcards in a trip id prefix. GTFS trip ids
// routinely contain underscores.
func likePrefix(prefix string) string {
	out := make([]rune, 0, len(prefix)+2)
	for _, r := range prefix {
		if r == '\\' || r == '%' || r == '_' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(append(out, '%'))
}
