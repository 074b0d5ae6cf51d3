package db

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	*sql.DB
}

// Execer is satisfied by both *sql.DB and *sql.Tx so store functions
// can run standalone or inside a transaction.
type Execer interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func Setup(dbPath string) (*DB, error) {
	// https://github.com/mattn/go-sqlite3#connection-string
	opts := []string{
		"_foreign_keys=1",
		"_journal_mode=WAL",
		"_synchronous=NORMAL",
		"_busy_timeout=5000",
	}

	db, err := sql.Open("sqlite3", dbPath+"?"+strings.Join(opts, "&"))
	if err != nil {
		return nil, err
	}

	// the year and label columns duplicate fields inside the punches
	// blob; the blob is authoritative on read, the columns only serve
	// year filtering and label ordering without decoding every row
	_, err = db.Exec(`
		create table if not exists punchcards (
			id text primary key,
			year integer not null,
			label text,
			punches text
		);

		create index if not exists punchcards_year on punchcards(year);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}
