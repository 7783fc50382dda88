package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mattsolo1/grove-faulttree/pkg/tree"
)

// Bundle is a sqlite database holding every collection of a dataset, keyed by source id.
// It is produced by Pack and read as a Source.
type Bundle struct {
	db   *sql.DB
	path string
}

// OpenBundle opens (creating if needed) the bundle at dbPath.
func OpenBundle(dbPath string) (*Bundle, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create bundle dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}

	b := &Bundle{db: db, path: dbPath}
	if err := b.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize bundle: %w", err)
	}
	return b, nil
}

// init creates the database schema
func (b *Bundle) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS collections (
		source_id TEXT PRIMARY KEY,
		body TEXT NOT NULL,
		node_count INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := b.db.Exec(schema)
	return err
}

// Path returns the database file.
func (b *Bundle) Path() string {
	return b.path
}

// Put stores a validated collection under id, replacing any previous one. Ids are stored
// in their resolved form, so "main" and "main.json" name the same row.
func (b *Bundle) Put(ctx context.Context, id string, descs []*tree.Descriptor) error {
	if err := Validate(descs); err != nil {
		return &ParseError{SourceID: id, Err: err}
	}
	body, err := json.Marshal(descs)
	if err != nil {
		return fmt.Errorf("marshal collection %s: %w", id, err)
	}

	query := `
	INSERT OR REPLACE INTO collections (source_id, body, node_count, updated_at)
	VALUES (?, ?, ?, ?)
	`
	if _, err := b.db.ExecContext(ctx, query, ResolveName(id), string(body), countNodes(descs), time.Now()); err != nil {
		return fmt.Errorf("store collection %s: %w", id, err)
	}
	return nil
}

func (b *Bundle) Fetch(ctx context.Context, id string) ([]*tree.Descriptor, error) {
	var body string
	err := b.db.QueryRowContext(ctx, "SELECT body FROM collections WHERE source_id = ?", ResolveName(id)).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &FetchError{SourceID: id, Status: 404, Err: ErrNotFound}
	}
	if err != nil {
		return nil, &FetchError{SourceID: id, Err: err}
	}
	return Decode(id, []byte(body), FormatJSON)
}

// CollectionInfo summarizes one stored collection.
type CollectionInfo struct {
	SourceID  string
	NodeCount int
	UpdatedAt time.Time
}

// List returns the stored collections ordered by id.
func (b *Bundle) List(ctx context.Context) ([]CollectionInfo, error) {
	rows, err := b.db.QueryContext(ctx, "SELECT source_id, node_count, updated_at FROM collections ORDER BY source_id")
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var infos []CollectionInfo
	for rows.Next() {
		var info CollectionInfo
		if err := rows.Scan(&info.SourceID, &info.NodeCount, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Close closes the database.
func (b *Bundle) Close() error {
	return b.db.Close()
}

// PackResult reports what Pack stored and skipped.
type PackResult struct {
	Stored []CollectionInfo
	Failed map[string]error
}

// Pack copies every collection a FileSource can see into the bundle. Collections that fail
// to decode are reported and skipped.
func Pack(ctx context.Context, from *FileSource, to *Bundle) (*PackResult, error) {
	ids, err := from.Collections()
	if err != nil {
		return nil, err
	}

	result := &PackResult{Failed: make(map[string]error)}
	for _, id := range ids {
		descs, err := from.Fetch(ctx, id)
		if err != nil {
			result.Failed[id] = err
			continue
		}
		if err := to.Put(ctx, id, descs); err != nil {
			return result, err
		}
		result.Stored = append(result.Stored, CollectionInfo{SourceID: id, NodeCount: countNodes(descs)})
	}
	return result, nil
}

func countNodes(descs []*tree.Descriptor) int {
	n := 0
	for _, d := range descs {
		n += 1 + countNodes(d.Children)
	}
	return n
}
