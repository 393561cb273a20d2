package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/FocuswithJustin/Bookbinder/core/content"
	"github.com/FocuswithJustin/Bookbinder/core/errors"
	"github.com/FocuswithJustin/Bookbinder/core/graph"
	"github.com/FocuswithJustin/Bookbinder/core/sqlite"
	"github.com/FocuswithJustin/Bookbinder/internal/logging"
)

// Older SQLite builds cap bound parameters at 999.
const (
	maxIDsPerQuery    = 500
	maxCoordsPerQuery = 300
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS nodes (
		id         TEXT PRIMARY KEY,
		kind       INTEGER NOT NULL,
		owner_key  TEXT NOT NULL,
		d_tag      TEXT NOT NULL DEFAULT '',
		content    TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS nodes_coordinate ON nodes (kind, owner_key, d_tag, created_at)`,
	`CREATE TABLE IF NOT EXISTS tags (
		node_id  TEXT NOT NULL,
		position INTEGER NOT NULL,
		key      TEXT NOT NULL,
		value    TEXT NOT NULL,
		PRIMARY KEY (node_id, position)
	)`,
}

// SQLiteStore keeps nodes and their ordered tags in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and migrates it.
// ":memory:" opens a private in-memory database.
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	var (
		db  *sql.DB
		err error
	)
	if path == ":memory:" {
		db, err = sqlite.OpenMemory()
	} else {
		db, err = sqlite.Open(path)
	}
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, path: path}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenReadOnly opens an existing database at path without migrating it.
// Writes through the returned store fail.
func OpenReadOnly(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.NewIO("open", path, err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if err := sqlite.Exec(ctx, s.db, schema...); err != nil {
		return errors.Wrapf(err, "failed to migrate %s", s.path)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Put inserts or replaces nodes and their tags in one transaction.
func (s *SQLiteStore) Put(ctx context.Context, nodes ...*content.Node) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewIO("begin", s.path, err)
	}
	defer tx.Rollback()

	for _, n := range nodes {
		if n == nil || n.ID == "" {
			return errors.NewValidation("id", "node without id")
		}
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO nodes (id, kind, owner_key, d_tag, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			n.ID, int(n.Kind), n.OwnerKey, n.DTag(), n.Body, n.CreatedAt,
		)
		if err != nil {
			return errors.Wrapf(err, "failed to store node %s", n.ID)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE node_id = ?`, n.ID); err != nil {
			return errors.Wrapf(err, "failed to clear tags of %s", n.ID)
		}
		for i, t := range n.Tags {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO tags (node_id, position, key, value) VALUES (?, ?, ?, ?)`,
				n.ID, i, t.Key, t.Value,
			)
			if err != nil {
				return errors.Wrapf(err, "failed to store tags of %s", n.ID)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewIO("commit", s.path, err)
	}
	return nil
}

// Query returns the nodes named by sel. Each coordinate resolves to its
// newest node. Unknown ids and coordinates are left out.
func (s *SQLiteStore) Query(ctx context.Context, sel graph.Selector) ([]*content.Node, error) {
	if sel.IsEmpty() {
		return nil, nil
	}

	var nodes []*content.Node

	for start := 0; start < len(sel.IDs); start += maxIDsPerQuery {
		ids := sel.IDs[start:min(start+maxIDsPerQuery, len(sel.IDs))]
		args := make([]any, len(ids))
		for i, id := range ids {
			args[i] = id
		}
		found, err := s.queryNodes(ctx, "id IN ("+sqlite.Placeholders(len(ids))+")", args)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, found...)
	}

	for start := 0; start < len(sel.Coordinates); start += maxCoordsPerQuery {
		coords := sel.Coordinates[start:min(start+maxCoordsPerQuery, len(sel.Coordinates))]
		clauses := make([]string, len(coords))
		args := make([]any, 0, 3*len(coords))
		for i, c := range coords {
			clauses[i] = "(kind = ? AND owner_key = ? AND d_tag = ?)"
			args = append(args, int(c.Kind), c.OwnerKey, c.DTag)
		}
		found, err := s.queryNodes(ctx, strings.Join(clauses, " OR "), args)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, found...)
	}

	nodes = newest(nodes, sel)
	if err := s.loadTags(ctx, nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (s *SQLiteStore) queryNodes(ctx context.Context, where string, args []any) ([]*content.Node, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, owner_key, d_tag, content, created_at FROM nodes WHERE `+where+` ORDER BY created_at DESC, id`,
		args...,
	)
	if err != nil {
		logging.StoreError(ctx, "query", err, "path", s.path)
		return nil, errors.Wrap(err, "failed to query nodes")
	}
	defer rows.Close()

	var out []*content.Node
	for rows.Next() {
		var (
			n    content.Node
			kind int
			d    string
		)
		if err := rows.Scan(&n.ID, &kind, &n.OwnerKey, &d, &n.Body, &n.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan node")
		}
		n.Kind = content.Kind(kind)
		if d != "" {
			// Provisional, so the node has a coordinate before loadTags runs.
			n.Tags = content.Tags{{Key: "d", Value: d}}
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

// loadTags replaces the provisional tags of nodes with their stored tag list.
func (s *SQLiteStore) loadTags(ctx context.Context, nodes []*content.Node) error {
	if len(nodes) == 0 {
		return nil
	}
	byID := make(map[string]*content.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
		n.Tags = nil
	}

	for start := 0; start < len(nodes); start += maxIDsPerQuery {
		chunk := nodes[start:min(start+maxIDsPerQuery, len(nodes))]
		args := make([]any, len(chunk))
		for i, n := range chunk {
			args[i] = n.ID
		}
		rows, err := s.db.QueryContext(ctx,
			`SELECT node_id, key, value FROM tags WHERE node_id IN (`+sqlite.Placeholders(len(chunk))+`) ORDER BY node_id, position`,
			args...,
		)
		if err != nil {
			logging.StoreError(ctx, "load_tags", err, "path", s.path)
			return errors.Wrap(err, "failed to query tags")
		}
		for rows.Next() {
			var id string
			var t content.Tag
			if err := rows.Scan(&id, &t.Key, &t.Value); err != nil {
				rows.Close()
				return errors.Wrap(err, "failed to scan tag")
			}
			if n := byID[id]; n != nil {
				n.Tags = append(n.Tags, t)
			}
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// Get returns one node by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*content.Node, error) {
	nodes, err := s.Query(ctx, graph.Selector{IDs: []string{id}})
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, errors.NewNotFound("node", id)
	}
	return nodes[0], nil
}

// Count returns the number of stored nodes.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "failed to count nodes")
	}
	return n, nil
}
