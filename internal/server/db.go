package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"spacenav/internal/model"

	_ "modernc.org/sqlite"
)

var (
	ErrSiteNotFound    = errors.New("site not found")
	ErrSiteUnavailable = errors.New("site unavailable")
	ErrSpaceNotFound   = errors.New("space not found")
	ErrStreamNotFound  = errors.New("stream not found")
)

// DuplicateNameError: a space already has a stream with this name
// (case-insensitive).
type DuplicateNameError struct {
	Name string
}

func (e DuplicateNameError) Error() string {
	return fmt.Sprintf("Stream with name '%s' already exists in this space", e.Name)
}

// DB is the backend's SQLite store.
type DB struct {
	sql *sql.DB
}

// Open opens (creating if needed) the database at path. ":memory:" is
// accepted for tests.
func Open(ctx context.Context, path string) (*DB, error) {
	if strings.TrimSpace(path) == "" {
		path = ":memory:"
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sites (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			fail INTEGER NOT NULL DEFAULT 0,
			position INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS spaces (
			id INTEGER PRIMARY KEY,
			site_id TEXT NOT NULL REFERENCES sites(id) ON DELETE CASCADE,
			grp INTEGER NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			parent_id INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS spaces_by_site ON spaces(site_id, grp, position);`,
		`CREATE TABLE IF NOT EXISTS streams (
			id INTEGER PRIMARY KEY,
			space_id INTEGER NOT NULL REFERENCES spaces(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			position INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS streams_by_space ON streams(space_id, position);`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// Empty reports whether no site has been stored yet.
func (d *DB) Empty(ctx context.Context) (bool, error) {
	var n int
	if err := d.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM sites`).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}

// Load writes seed into the database in one transaction.
func (d *DB) Load(ctx context.Context, seed Seed) error {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for i, site := range seed.Sites {
		if _, err := tx.ExecContext(ctx, `INSERT INTO sites(id, name, fail, position) VALUES(?, ?, ?, ?)`,
			site.ID, site.Name, boolInt(site.Fail), i); err != nil {
			return fmt.Errorf("seed site %s: %w", site.ID, err)
		}
		for g, group := range site.Groups {
			for p, sp := range group.Spaces {
				var parent any
				if sp.Parent != nil {
					parent = *sp.Parent
				}
				if _, err := tx.ExecContext(ctx, `INSERT INTO spaces(id, site_id, grp, position, name, parent_id) VALUES(?, ?, ?, ?, ?, ?)`,
					sp.ID, site.ID, g, p, sp.Name, parent); err != nil {
					return fmt.Errorf("seed space %d: %w", sp.ID, err)
				}
				for k, st := range sp.Streams {
					if _, err := tx.ExecContext(ctx, `INSERT INTO streams(id, space_id, name, position) VALUES(?, ?, ?, ?)`,
						st.ID, sp.ID, st.Name, k); err != nil {
						return fmt.Errorf("seed stream %d: %w", st.ID, err)
					}
				}
			}
		}
	}
	return tx.Commit()
}

// SeedIfEmpty loads seed only into an empty database.
func (d *DB) SeedIfEmpty(ctx context.Context, seed Seed) (bool, error) {
	empty, err := d.Empty(ctx)
	if err != nil || !empty {
		return false, err
	}
	return true, d.Load(ctx, seed)
}

func (d *DB) Sites(ctx context.Context) ([]model.Site, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT id, name FROM sites ORDER BY position, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Site{}
	for rows.Next() {
		var s model.Site
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Spaces returns the grouped listing for siteID. A site flagged fail answers
// ErrSiteUnavailable.
func (d *DB) Spaces(ctx context.Context, siteID string) (model.SpacesResponse, error) {
	var fail int
	err := d.sql.QueryRowContext(ctx, `SELECT fail FROM sites WHERE id = ?`, siteID).Scan(&fail)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SpacesResponse{}, ErrSiteNotFound
	}
	if err != nil {
		return model.SpacesResponse{}, err
	}
	if fail != 0 {
		return model.SpacesResponse{}, ErrSiteUnavailable
	}

	streams, err := d.streamsForSite(ctx, siteID)
	if err != nil {
		return model.SpacesResponse{}, err
	}

	rows, err := d.sql.QueryContext(ctx, `SELECT id, grp, name, parent_id FROM spaces WHERE site_id = ? ORDER BY grp, position`, siteID)
	if err != nil {
		return model.SpacesResponse{}, err
	}
	defer rows.Close()

	resp := model.SpacesResponse{Spaces: []model.SpacesGroup{}}
	lastGroup := -1
	for rows.Next() {
		var (
			rec    model.SpaceRecord
			grp    int
			parent sql.NullInt64
		)
		if err := rows.Scan(&rec.ID, &grp, &rec.Name, &parent); err != nil {
			return model.SpacesResponse{}, err
		}
		if parent.Valid {
			rec.ParentID = model.IntPtr(int(parent.Int64))
		}
		rec.Streams = streams[rec.ID]
		if rec.Streams == nil {
			rec.Streams = []model.Stream{}
		}
		if grp != lastGroup {
			resp.Spaces = append(resp.Spaces, model.SpacesGroup{})
			lastGroup = grp
		}
		g := &resp.Spaces[len(resp.Spaces)-1]
		g.Spaces = append(g.Spaces, rec)
	}
	return resp, rows.Err()
}

func (d *DB) streamsForSite(ctx context.Context, siteID string) (map[int][]model.Stream, error) {
	rows, err := d.sql.QueryContext(ctx, `
		SELECT st.id, st.space_id, st.name
		FROM streams st JOIN spaces sp ON sp.id = st.space_id
		WHERE sp.site_id = ?
		ORDER BY st.space_id, st.position, st.id`, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[int][]model.Stream{}
	for rows.Next() {
		var (
			s       model.Stream
			spaceID int
		)
		if err := rows.Scan(&s.ID, &spaceID, &s.Name); err != nil {
			return nil, err
		}
		out[spaceID] = append(out[spaceID], s)
	}
	return out, rows.Err()
}

// AddStream appends a stream to spaceID. Ids are global: max(id)+1.
func (d *DB) AddStream(ctx context.Context, spaceID int, name string) (model.Stream, error) {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return model.Stream{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM spaces WHERE id = ?`, spaceID).Scan(&exists); err != nil {
		return model.Stream{}, err
	}
	if exists == 0 {
		return model.Stream{}, ErrSpaceNotFound
	}
	var dup int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM streams WHERE space_id = ? AND lower(name) = lower(?)`, spaceID, name).Scan(&dup); err != nil {
		return model.Stream{}, err
	}
	if dup > 0 {
		return model.Stream{}, DuplicateNameError{Name: name}
	}

	var id, pos int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM streams`).Scan(&id); err != nil {
		return model.Stream{}, err
	}
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), -1) + 1 FROM streams WHERE space_id = ?`, spaceID).Scan(&pos); err != nil {
		return model.Stream{}, err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO streams(id, space_id, name, position) VALUES(?, ?, ?, ?)`, id, spaceID, name, pos); err != nil {
		return model.Stream{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Stream{}, err
	}
	return model.Stream{ID: id, Name: name}, nil
}

func (d *DB) DeleteStream(ctx context.Context, streamID int) error {
	res, err := d.sql.ExecContext(ctx, `DELETE FROM streams WHERE id = ?`, streamID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStreamNotFound
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
