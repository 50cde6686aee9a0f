// Package archive persists the last merged chat snapshot of each group in
// SQLite so the feed has content before the first refresh lands.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/CrestNiraj12/groupchat/domain"
)

// DefaultLimit is how many messages per group are kept.
const DefaultLimit = 200

// Archive implements app.MessageArchive.
// All methods are safe for concurrent use.
type Archive struct {
	db    *sql.DB
	mu    sync.Mutex // Serializes snapshot replacement
	limit int
}

// Open creates or opens the archive at path. ":memory:" is accepted for tests.
func Open(path string) (*Archive, error) {
	connStr := path
	if path == ":memory:" {
		connStr = "file::memory:?cache=shared"
	} else if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	a := &Archive{db: db, limit: DefaultLimit}
	if err := a.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return a, nil
}

func (a *Archive) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		group_id TEXT NOT NULL,
		id TEXT NOT NULL,
		author_id TEXT,
		author_name TEXT,
		author_username TEXT,
		text TEXT NOT NULL,
		ts_ms INTEGER NOT NULL,
		likes INTEGER DEFAULT 0,
		liked_by_me INTEGER DEFAULT 0,
		author_moderator INTEGER DEFAULT 0,
		flag_count INTEGER DEFAULT 0,
		system INTEGER DEFAULT 0,
		PRIMARY KEY (group_id, id)
	);

	CREATE INDEX IF NOT EXISTS idx_messages_group_ts ON messages(group_id, ts_ms DESC, id ASC);
	`
	if _, err := a.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.db.Close()
}

// Load returns the archived messages of groupID in feed order.
func (a *Archive) Load(ctx context.Context, groupID string) ([]domain.Message, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, author_id, author_name, author_username, text, ts_ms,
		       likes, liked_by_me, author_moderator, flag_count, system
		FROM messages
		WHERE group_id = ?
		ORDER BY ts_ms DESC, id ASC
		LIMIT ?`, groupID, a.limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var (
			m                                  domain.Message
			authorID, authorName, authorHandle sql.NullString
			tsMS                               int64
		)
		if err := rows.Scan(&m.ID, &authorID, &authorName, &authorHandle, &m.Text, &tsMS,
			&m.Likes, &m.LikedByMe, &m.AuthorModerator, &m.FlagCount, &m.System); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.GroupID = groupID
		m.AuthorID = authorID.String
		m.AuthorName = authorName.String
		m.AuthorUsername = authorHandle.String
		m.Timestamp = time.UnixMilli(tsMS)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return out, nil
}

// Save replaces the archived snapshot of groupID with msgs, keeping at most
// the newest limit messages.
func (a *Archive) Save(ctx context.Context, groupID string, msgs []domain.Message) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE group_id = ?`, groupID); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO messages (
			group_id, id, author_id, author_name, author_username, text, ts_ms,
			likes, liked_by_me, author_moderator, flag_count, system
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	kept := msgs
	if len(kept) > a.limit {
		kept = domain.Newest(kept, a.limit)
	}
	for _, m := range kept {
		if m.ID == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, groupID, m.ID, m.AuthorID, m.AuthorName, m.AuthorUsername,
			m.Text, m.Timestamp.UnixMilli(), m.Likes, m.LikedByMe, m.AuthorModerator, m.FlagCount, m.System); err != nil {
			return fmt.Errorf("insert message %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}
