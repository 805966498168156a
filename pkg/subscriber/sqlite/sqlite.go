package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/igolaizola/emacross/pkg/subscriber"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `CREATE TABLE IF NOT EXISTS subscribers (
	id    INTEGER PRIMARY KEY,
	name  TEXT NOT NULL,
	since TEXT NOT NULL
)`

type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite: couldn't open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: couldn't create table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Add(ctx context.Context, sub subscriber.Subscriber) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO subscribers (id, name, since) VALUES (?, ?, ?)`,
		sub.ID, sub.Name, sub.Since.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("sqlite: couldn't insert %d: %w", sub.ID, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM subscribers WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: couldn't delete %d: %w", id, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]subscriber.Subscriber, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, since FROM subscribers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: couldn't query: %w", err)
	}
	defer rows.Close()
	var subs []subscriber.Subscriber
	for rows.Next() {
		var sub subscriber.Subscriber
		var since string
		if err := rows.Scan(&sub.ID, &sub.Name, &since); err != nil {
			return nil, fmt.Errorf("sqlite: couldn't scan: %w", err)
		}
		sub.Since, err = time.Parse(time.RFC3339Nano, since)
		if err != nil {
			return nil, fmt.Errorf("sqlite: couldn't parse since %q: %w", since, err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: couldn't iterate: %w", err)
	}
	return subs, nil
}
