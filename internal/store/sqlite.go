package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"text2sql-context/internal/graph"
)

// SQLiteStore 把文档写进 SQLite 快照表，读取时取最新一条。
// 历史快照保留，便于排查图状态回退问题。
type SQLiteStore struct{}

// NewSQLiteStore 创建 SQLite 存储
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS graph_snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	version INTEGER NOT NULL,
	schema_checksum TEXT NOT NULL,
	saved_at TEXT NOT NULL,
	payload TEXT NOT NULL
)`

// Save 追加一条快照记录
func (s *SQLiteStore) Save(path string, doc *graph.Document) error {
	db, err := s.open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode graph document: %w", err)
	}

	_, err = db.Exec(
		"INSERT INTO graph_snapshots(version, schema_checksum, saved_at, payload) VALUES (?, ?, ?, ?)",
		doc.Version, doc.SchemaChecksum, doc.SavedAt.UTC().Format(time.RFC3339Nano), string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Load 读取最新快照
func (s *SQLiteStore) Load(path string) (*graph.Document, error) {
	db, err := s.open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var payload string
	err = db.QueryRow("SELECT payload FROM graph_snapshots ORDER BY id DESC LIMIT 1").Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no snapshot in %s: %w", path, os.ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var doc graph.Document
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &doc, nil
}

func (s *SQLiteStore) open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}
	if _, err := db.Exec(snapshotSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare snapshot table: %w", err)
	}
	return db, nil
}
