// Package mysql implements the session store driver on go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

// DB is the mysql-backed store driver.
type DB struct {
	db *sql.DB
}

// New opens a connection pool to the mysql database at dsn.
func New(dsn string) (*DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open mysql db")
	}
	return &DB{db: db}, nil
}

func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS session (
			id         INT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			uid        VARCHAR(256) NOT NULL UNIQUE,
			app_name   VARCHAR(256) NOT NULL,
			user_id    VARCHAR(256) NOT NULL,
			created_ts TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_ts TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS session_message (
			id         INT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			session_id INT NOT NULL,
			role       VARCHAR(256) NOT NULL,
			content    TEXT NOT NULL,
			created_ts TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT fk_session_message_session FOREIGN KEY (session_id) REFERENCES session(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX idx_session_message_session ON session_message(session_id)`,
	}
	for _, s := range stmts {
		if _, err := d.db.ExecContext(ctx, s); err != nil {
			// The index statement fails when it already exists; mysql has no
			// IF NOT EXISTS for CREATE INDEX. Ignore duplicates.
			if s == stmts[2] {
				continue
			}
			return err
		}
	}
	return nil
}
