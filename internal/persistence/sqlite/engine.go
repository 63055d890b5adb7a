package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goevery/chatrelay/internal/messagelog"
	"github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS connections (
	connection_id TEXT PRIMARY KEY,
	connected_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
	room      TEXT    NOT NULL,
	idx       INTEGER NOT NULL,
	timestamp INTEGER NOT NULL,
	username  TEXT    NOT NULL,
	content   TEXT    NOT NULL,
	PRIMARY KEY (room, idx)
);
`

// PersistenceEngine stores connections and messages in a SQLite database.
type PersistenceEngine struct {
	db          *sql.DB
	maxAttempts int
}

// New opens the database at dbPath. Setup must run before first use.
func New(dbPath string, maxAttempts int) (*PersistenceEngine, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// A single connection keeps :memory: databases shared across queries
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &PersistenceEngine{db: db, maxAttempts: maxAttempts}, nil
}

func (e *PersistenceEngine) Setup(ctx context.Context) error {
	if _, err := e.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	return nil
}

func (e *PersistenceEngine) Close(ctx context.Context) error {
	return e.db.Close()
}

// ==== Registry implementation ====

func (e *PersistenceEngine) Add(ctx context.Context, connectionId string) error {
	query := `INSERT OR IGNORE INTO connections (connection_id) VALUES (?)`

	if _, err := e.db.ExecContext(ctx, query, connectionId); err != nil {
		return fmt.Errorf("insert connection: %w", err)
	}

	return nil
}

func (e *PersistenceEngine) Remove(ctx context.Context, connectionId string) error {
	query := `DELETE FROM connections WHERE connection_id = ?`

	if _, err := e.db.ExecContext(ctx, query, connectionId); err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}

	return nil
}

func (e *PersistenceEngine) ListAll(ctx context.Context) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, `SELECT connection_id FROM connections`)
	if err != nil {
		return nil, fmt.Errorf("query connections: %w", err)
	}
	defer rows.Close()

	connectionIds := []string{}
	for rows.Next() {
		var connectionId string
		if err := rows.Scan(&connectionId); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		connectionIds = append(connectionIds, connectionId)
	}

	return connectionIds, rows.Err()
}

// ==== Log implementation ====

func (e *PersistenceEngine) NextIndex(ctx context.Context, room string) (uint64, error) {
	query := `
		SELECT idx
		FROM messages
		WHERE room = ?
		ORDER BY idx DESC
		LIMIT 1
	`

	var latest int64
	err := e.db.QueryRowContext(ctx, query, room).Scan(&latest)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query latest message: %w", err)
	}

	return uint64(latest) + 1, nil
}

func (e *PersistenceEngine) Append(ctx context.Context, message messagelog.Message) error {
	query := `
		INSERT INTO messages (room, idx, timestamp, username, content)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := e.db.ExecContext(ctx, query,
		message.Room,
		int64(message.Index),
		message.Timestamp,
		message.Username,
		message.Content,
	)
	if isConstraintViolation(err) {
		return messagelog.ErrIndexConflict
	}
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	return nil
}

func (e *PersistenceEngine) AppendWithSequence(
	ctx context.Context,
	room string,
	timestamp int64,
	username string,
	content string,
) (messagelog.Message, error) {
	return messagelog.AppendWithRetry(ctx, e, e.maxAttempts, room, timestamp, username, content)
}

func (e *PersistenceEngine) RecentN(ctx context.Context, room string, n int) ([]messagelog.Message, error) {
	// A negative LIMIT means no limit to SQLite
	if n <= 0 {
		return []messagelog.Message{}, nil
	}

	query := `
		SELECT room, idx, timestamp, username, content
		FROM messages
		WHERE room = ?
		ORDER BY idx DESC
		LIMIT ?
	`

	rows, err := e.db.QueryContext(ctx, query, room, n)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := []messagelog.Message{}
	for rows.Next() {
		var message messagelog.Message
		var index int64
		if err := rows.Scan(&message.Room, &index, &message.Timestamp, &message.Username, &message.Content); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		message.Index = uint64(index)
		messages = append(messages, message)
	}

	return messages, rows.Err()
}

func isConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}

	return false
}
