package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/agentroom-server/internal/core"
)

// Schema creates the transcript table. Entries are ordered per room by seq.
const Schema = `
CREATE TABLE IF NOT EXISTS transcript (
	room       TEXT     NOT NULL,
	seq        INTEGER  NOT NULL,
	kind       TEXT     NOT NULL,
	text       TEXT     NOT NULL,
	author     TEXT     NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (room, seq)
);
`

// SQLiteStore keeps room transcripts in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// New opens the database at dbPath and makes sure the schema exists.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, ensureSchema)
}

// NewWithSetup opens the database and runs setup before first use.
// Useful for tests to apply a custom schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load returns every transcript entry of room in append order.
func (s *SQLiteStore) Load(ctx context.Context, room string) ([]core.Message, error) {
	query := `
		SELECT kind, text, author
		FROM transcript
		WHERE room = ?
		ORDER BY seq ASC
	`
	rows, err := s.db.QueryContext(ctx, query, room)
	if err != nil {
		return nil, fmt.Errorf("query transcript: %w", err)
	}
	defer rows.Close()

	var messages []core.Message
	for rows.Next() {
		var (
			kind string
			msg  core.Message
		)
		if err := rows.Scan(&kind, &msg.Text, &msg.Author); err != nil {
			return nil, fmt.Errorf("scan transcript entry: %w", err)
		}
		msg.Kind = core.MessageKind(kind)
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transcript: %w", err)
	}
	return messages, nil
}

// Append adds msg after the last entry of room inside one transaction.
func (s *SQLiteStore) Append(ctx context.Context, room string, msg core.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var next int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM transcript WHERE room = ?`,
		room,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO transcript (room, seq, kind, text, author) VALUES (?, ?, ?, ?, ?)`,
		room, next, string(msg.Kind), msg.Text, msg.Author,
	)
	if err != nil {
		return fmt.Errorf("insert transcript entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
