// The Postgres mirror (C12): a secondary, queryable sink for touched fragments and hot entries,
// upserted in one transaction per aggregation. Grounded on users/users.go's pgx.Connect/Exec/
// QueryRow usage; the file-backed index store remains authoritative, this is a convenience for
// operators who want to query coverage with SQL. Failure to mirror is a soft error.

package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"framecache/store"
)

const schema = `
create table if not exists frame_fragments (
	dir text not null,
	site text not null,
	frametype text not null,
	duration bigint not null,
	extension text not null,
	intervals bigint[] not null,
	primary key (dir, site, frametype, duration, extension)
);
create table if not exists frame_hot (
	dir text primary key,
	mtime bigint not null
);
`

// Mirror is an open connection to the mirror database.
type Mirror struct {
	conn *pgx.Conn
}

// Open connects to dsn and ensures the mirror tables exist.
func Open(ctx context.Context, dsn string) (*Mirror, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to mirror database: %w", err)
	}
	if _, err := conn.Exec(ctx, schema); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("creating mirror schema: %w", err)
	}
	return &Mirror{conn: conn}, nil
}

// Close releases the underlying connection.
func (m *Mirror) Close(ctx context.Context) {
	if m != nil && m.conn != nil {
		m.conn.Close(ctx)
	}
}

// UpsertChanges mirrors every touched (dir, fragment) pair and hot entry in one transaction.
func (m *Mirror) UpsertChanges(ctx context.Context, changed map[string]store.Fragment, hot map[string]int64) error {
	tx, err := m.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning mirror transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for dir, frag := range changed {
		for sfde, list := range frag {
			if _, err := tx.Exec(ctx, `
				insert into frame_fragments (dir, site, frametype, duration, extension, intervals)
				values ($1, $2, $3, $4, $5, $6)
				on conflict (dir, site, frametype, duration, extension)
				do update set intervals = excluded.intervals
			`, dir, sfde.Site, sfde.FrameType, sfde.Duration, sfde.Extension, list.Flatten()); err != nil {
				return fmt.Errorf("upserting fragment for %s: %w", dir, err)
			}
		}
		if mtime, ok := hot[dir]; ok {
			if _, err := tx.Exec(ctx, `
				insert into frame_hot (dir, mtime) values ($1, $2)
				on conflict (dir) do update set mtime = excluded.mtime
			`, dir, mtime); err != nil {
				return fmt.Errorf("upserting hot entry for %s: %w", dir, err)
			}
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing mirror transaction: %w", err)
	}
	return nil
}

// LookupFragmentCount returns the number of fragment rows mirrored for dir, for operator
// diagnostics; nothing else in this module calls it.
func (m *Mirror) LookupFragmentCount(ctx context.Context, dir string) (int, error) {
	var count int
	err := m.conn.QueryRow(ctx, "select count(*) from frame_fragments where dir=$1", dir).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting fragments for %s: %w", dir, err)
	}
	return count, nil
}
