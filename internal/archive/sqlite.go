package archive

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE images (
	position   INTEGER PRIMARY KEY,
	created_at TEXT    NOT NULL,
	created_ns INTEGER NOT NULL,
	digest     TEXT    NOT NULL,
	media_type TEXT    NOT NULL,
	size_bytes INTEGER NOT NULL,
	data       BLOB    NOT NULL
);
`

const insertImageQuery = `
	INSERT INTO images (position, created_at, created_ns, digest, media_type, size_bytes, data)
	VALUES (?, ?, ?, ?, ?, ?, ?)
`

const selectImagesQuery = `
	SELECT position, created_ns, digest, media_type, data
	FROM images
	ORDER BY position ASC
`

func sqliteDSN(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("sqlite path is required")
	}
	u := url.URL{Scheme: "file", Path: path}
	return u.String(), nil
}

func openSQLite(path string) (*sql.DB, error) {
	dsn, err := sqliteDSN(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// WriteSQLite writes entries to a new SQLite database at path. The database is
// built next to path and renamed into place once complete.
func WriteSQLite(path string, entries []Entry) (err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return err
	}

	tmpPath := abs + ".tmp"
	_ = os.Remove(tmpPath)
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	db, err := openSQLite(tmpPath)
	if err != nil {
		return fmt.Errorf("open sqlite export: %w", err)
	}
	if err := fillSQLite(db, entries); err != nil {
		_ = db.Close()
		return err
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("close sqlite export: %w", err)
	}

	if err := os.Rename(tmpPath, abs); err != nil {
		return fmt.Errorf("replace %s: %w", abs, err)
	}
	return nil
}

func fillSQLite(db *sql.DB, entries []Entry) error {
	if _, err := db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("create images table: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(insertImageQuery)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(
			e.Position,
			e.CreatedAt.UTC().Format(time.RFC3339Nano),
			e.CreatedAt.UnixNano(),
			e.Digest,
			e.MediaType,
			len(e.Data),
			e.Data,
		); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return fmt.Errorf("failed to rollback transaction after error %v: %w", err, rbErr)
			}
			return fmt.Errorf("insert image %d: %w", e.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ReadSQLite reads entries written by WriteSQLite, ordered by position.
func ReadSQLite(path string) ([]Entry, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("sqlite export %s does not exist", path)
		}
		return nil, err
	}
	db, err := openSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite export: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(selectImagesQuery)
	if err != nil {
		return nil, fmt.Errorf("query images: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			createdNS int64
		)
		if err := rows.Scan(&e.Position, &createdNS, &e.Digest, &e.MediaType, &e.Data); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		e.CreatedAt = time.Unix(0, createdNS).UTC()
		if err := verifyEntry(len(entries), e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
