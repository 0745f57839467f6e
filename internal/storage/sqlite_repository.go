package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteTimeLayout = time.RFC3339Nano

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// OpenSQLite opens the database file and applies pending migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps the foreign_keys pragma in effect for every tx.
	db.SetMaxOpenConns(1)
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	store, err := NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context, defaults map[string]float64) (State, error) {
	if err := s.seed(ctx, defaults); err != nil {
		return State{}, err
	}

	out := State{Trackers: map[int64]Tracker{}, Settings: map[string]float64{}}
	settings, err := s.loadSettings(ctx)
	if err != nil {
		return State{}, err
	}
	out.Settings = settings

	trackers, err := s.loadTrackers(ctx)
	if err != nil {
		return State{}, err
	}
	out.Trackers = trackers

	next, err := s.loadNextID(ctx)
	if err != nil {
		return State{}, err
	}
	out.NextID = next
	out.reconcile()
	return out, nil
}

// seed writes defaults for missing settings and next_id in one transaction.
func (s *SQLiteStore) seed(ctx context.Context, defaults map[string]float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM settings`).Scan(&count); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("count settings: %w", err)
	}
	if count == 0 {
		for k, v := range defaults {
			if _, err := tx.ExecContext(ctx, `INSERT INTO settings (name, value) VALUES (?, ?)`, k, v); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("seed setting %s: %w", k, err)
			}
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO meta (name, value) VALUES (?, 1)`, KeyNextID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("seed next_id: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) loadSettings(ctx context.Context) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]float64{}
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, rows.Err()
}

func (s *SQLiteStore) loadTrackers(ctx context.Context) (map[int64]Tracker, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at, modified_at FROM trackers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	out := map[int64]Tracker{}
	for rows.Next() {
		item, scanErr := scanTracker(rows)
		if scanErr != nil {
			rows.Close()
			return nil, scanErr
		}
		out[item.ID] = item
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	crows, err := s.db.QueryContext(ctx, `
		SELECT tracker_id, completed_at, adjustment_ns
		FROM completions ORDER BY tracker_id, position`)
	if err != nil {
		return nil, err
	}
	defer crows.Close()
	for crows.Next() {
		var id int64
		var at string
		var adj int64
		if err := crows.Scan(&id, &at, &adj); err != nil {
			return nil, err
		}
		completedAt, err := parseRequiredTime(at)
		if err != nil {
			return nil, err
		}
		item, ok := out[id]
		if !ok {
			continue
		}
		item.History = append(item.History, Completion{At: completedAt, Adjustment: time.Duration(adj)})
		out[id] = item
	}
	return out, crows.Err()
}

func (s *SQLiteStore) loadNextID(ctx context.Context) (int64, error) {
	var next int64
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE name = ?`, KeyNextID).Scan(&next)
	if errors.Is(err, sql.ErrNoRows) {
		return 1, nil
	}
	return next, err
}

func (s *SQLiteStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &sqliteTx{ctx: ctx, tx: tx}, nil
}

type sqliteTx struct {
	ctx  context.Context
	tx   *sql.Tx
	done bool
}

func (t *sqliteTx) PutTracker(in Tracker) error {
	if t.done {
		return ErrTxDone
	}
	if _, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO trackers (id, name, created_at, modified_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, modified_at = excluded.modified_at`,
		in.ID, in.Name, mustTime(in.CreatedAt), mustTime(in.ModifiedAt),
	); err != nil {
		return fmt.Errorf("put tracker %d: %w", in.ID, err)
	}
	if _, err := t.tx.ExecContext(t.ctx, `DELETE FROM completions WHERE tracker_id = ?`, in.ID); err != nil {
		return fmt.Errorf("clear completions %d: %w", in.ID, err)
	}
	for i, c := range in.History {
		if _, err := t.tx.ExecContext(t.ctx, `
			INSERT INTO completions (tracker_id, position, completed_at, adjustment_ns)
			VALUES (?, ?, ?, ?)`,
			in.ID, i, mustTime(c.At), int64(c.Adjustment),
		); err != nil {
			return fmt.Errorf("put completion %d/%d: %w", in.ID, i, err)
		}
	}
	return nil
}

func (t *sqliteTx) DeleteTracker(id int64) error {
	if t.done {
		return ErrTxDone
	}
	if _, err := t.tx.ExecContext(t.ctx, `DELETE FROM completions WHERE tracker_id = ?`, id); err != nil {
		return err
	}
	res, err := t.tx.ExecContext(t.ctx, `DELETE FROM trackers WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (t *sqliteTx) PutSettings(settings map[string]float64) error {
	if t.done {
		return ErrTxDone
	}
	if _, err := t.tx.ExecContext(t.ctx, `DELETE FROM settings`); err != nil {
		return err
	}
	for k, v := range settings {
		if _, err := t.tx.ExecContext(t.ctx, `INSERT INTO settings (name, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("put setting %s: %w", k, err)
		}
	}
	return nil
}

func (t *sqliteTx) PutNextID(next int64) error {
	if t.done {
		return ErrTxDone
	}
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO meta (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value`, KeyNextID, next)
	return err
}

func (t *sqliteTx) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	return t.tx.Commit()
}

func (t *sqliteTx) Abort() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Rollback()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTracker(s scanner) (Tracker, error) {
	var out Tracker
	var created, modified string
	if err := s.Scan(&out.ID, &out.Name, &created, &modified); err != nil {
		return Tracker{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return Tracker{}, err
	}
	modifiedAt, err := parseRequiredTime(modified)
	if err != nil {
		return Tracker{}, err
	}
	out.CreatedAt = createdAt
	out.ModifiedAt = modifiedAt
	out.History = []Completion{}
	return out, nil
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
