package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/zhinjs/segment-matcher-sub000/pkg/routes"
)

const schema = `CREATE TABLE IF NOT EXISTS routes (
    name        TEXT PRIMARY KEY,
    pattern     TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    source      TEXT NOT NULL DEFAULT '',
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Store persists route definitions in Postgres.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

func New(db *sql.DB, logger zerolog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Open connects with the "postgres" driver, which callers register by
// importing github.com/lib/pq.
func Open(ctx context.Context, dsn string, logger zerolog.Logger) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return New(db, logger), nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// SaveRoutes upserts every command of set in one transaction.
func (s *Store) SaveRoutes(ctx context.Context, set routes.RouteSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, r := range set.Commands {
		source := r.Source
		if source == "" {
			source = set.Source
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO routes(name, pattern, description, source)
            VALUES ($1,$2,$3,$4)
            ON CONFLICT (name) DO UPDATE SET pattern=EXCLUDED.pattern, description=EXCLUDED.description, source=EXCLUDED.source, updated_at=now()`,
			r.Name, r.Pattern, r.Description, source,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert route %q: %w", r.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Info().Int("routes", len(set.Commands)).Str("source", set.Source).Msg("routes saved")
	return nil
}

// DeleteRoute reports whether a row was removed.
func (s *Store) DeleteRoute(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM routes WHERE name = $1`, name)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListRoutes returns stored routes ordered by name.
func (s *Store) ListRoutes(ctx context.Context) ([]routes.Route, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, pattern, description, source FROM routes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []routes.Route{}
	for rows.Next() {
		var r routes.Route
		if err := rows.Scan(&r.Name, &r.Pattern, &r.Description, &r.Source); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadRouteSet reads all stored routes as a single set.
func (s *Store) LoadRouteSet(ctx context.Context) (routes.RouteSet, error) {
	rs, err := s.ListRoutes(ctx)
	if err != nil {
		return routes.RouteSet{}, err
	}
	return routes.RouteSet{Source: "postgres", Commands: rs}, nil
}
