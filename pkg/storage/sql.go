package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type snapshotRecord struct {
	bun.BaseModel `bun:"table:lightstate_snapshots,alias:lss"`

	Key       string    `bun:"snapshot_key,pk"`
	Payload   string    `bun:"payload,notnull"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// SQLStorage persists snapshots as JSON payloads in the lightstate_snapshots
// table. Numbers round-trip as float64, as with any JSON decoding into
// map[string]any.
type SQLStorage struct {
	db    *bun.DB
	owned bool
	now   func() time.Time
}

// NewSQLStorage wraps an existing bun database. The caller keeps ownership of
// db; Close is a no-op.
func NewSQLStorage(db *bun.DB) (*SQLStorage, error) {
	if db == nil {
		return nil, fmt.Errorf("storage: bun db is required")
	}
	return &SQLStorage{db: db, now: time.Now}, nil
}

// OpenSQLite opens a sqlite database at dsn, wraps it with bun and ensures the
// snapshot table exists. The returned storage owns the connection.
func OpenSQLite(ctx context.Context, dsn string) (*SQLStorage, error) {
	if dsn == "" {
		return nil, fmt.Errorf("storage: sqlite dsn is required")
	}
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	s := &SQLStorage{db: db, owned: true, now: time.Now}
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the snapshot table when missing.
func (s *SQLStorage) EnsureSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*snapshotRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("storage: create snapshot table: %w", err)
	}
	return nil
}

func (s *SQLStorage) Load(ctx context.Context, key string) (map[string]any, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	record := &snapshotRecord{Key: key}
	err := s.db.NewSelect().
		Model(record).
		WherePK().
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("storage: load %q: %w", key, err)
	}

	var snapshot map[string]any
	if err := json.Unmarshal([]byte(record.Payload), &snapshot); err != nil {
		return nil, false, fmt.Errorf("storage: decode %q: %w", key, err)
	}
	return snapshot, true, nil
}

func (s *SQLStorage) Save(ctx context.Context, key string, snapshot map[string]any) error {
	if err := validateKey(key); err != nil {
		return err
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("storage: encode %q: %w", key, err)
	}
	record := &snapshotRecord{
		Key:       key,
		Payload:   string(payload),
		UpdatedAt: s.now().UTC(),
	}
	_, err = s.db.NewInsert().
		Model(record).
		On("CONFLICT (snapshot_key) DO UPDATE").
		Set("payload = EXCLUDED.payload").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("storage: save %q: %w", key, err)
	}
	return nil
}

// DB exposes the underlying bun database.
func (s *SQLStorage) DB() *bun.DB {
	return s.db
}

func (s *SQLStorage) Close() error {
	if s == nil || s.db == nil || !s.owned {
		return nil
	}
	return s.db.Close()
}
