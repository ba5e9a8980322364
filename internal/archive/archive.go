// Package archive keeps a local, searchable record of completed
// question/answer exchanges. It is a research trail only: the thread
// state shown in the UI always comes from the server, never from here.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type Exchange struct {
	ID             int64
	ConversationID string
	InteractionID  int64
	Question       string
	Answer         string
	Sources        []string
	CreatedAt      time.Time
}

type Archive struct {
	db         *sql.DB
	ftsEnabled bool
	mu         sync.Mutex
}

func Open(dbPath string) (*Archive, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open archive db: %w", err)
	}

	a := &Archive{db: db}
	if err := a.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}

func (a *Archive) initSchema() error {
	stmts := []string{
		`PRAGMA journal_mode = WAL;`,
		`CREATE TABLE IF NOT EXISTS exchanges (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id TEXT,
			interaction_id INTEGER,
			question TEXT,
			answer TEXT,
			sources TEXT,
			created_ts INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS idx_exchanges_conversation ON exchanges(conversation_id, created_ts);`,
	}
	for _, stmt := range stmts {
		if _, err := a.db.Exec(stmt); err != nil {
			return fmt.Errorf("init archive schema: %w", err)
		}
	}
	return a.ensureFTSTable()
}

func (a *Archive) ensureFTSTable() error {
	var sqlDef string
	err := a.db.QueryRow(`SELECT sql FROM sqlite_master WHERE name = 'exchanges_fts'`).Scan(&sqlDef)
	if err == nil {
		lower := strings.ToLower(sqlDef)
		a.ftsEnabled = strings.Contains(lower, "virtual table") && strings.Contains(lower, "fts5")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("inspect exchanges_fts table: %w", err)
	}

	_, err = a.db.Exec(`CREATE VIRTUAL TABLE exchanges_fts USING fts5(
		exchange_id UNINDEXED,
		question,
		answer
	);`)
	if err == nil {
		a.ftsEnabled = true
		return nil
	}
	if !strings.Contains(strings.ToLower(err.Error()), "no such module: fts5") {
		return fmt.Errorf("create exchanges_fts: %w", err)
	}

	// Fallback for sqlite builds without FTS5 support; Search degrades
	// to LIKE over the base table.
	a.ftsEnabled = false
	return nil
}

// Record stores one completed exchange.
func (a *Archive) Record(ctx context.Context, e Exchange) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	res, err := a.db.ExecContext(ctx,
		`INSERT INTO exchanges (conversation_id, interaction_id, question, answer, sources, created_ts)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ConversationID, e.InteractionID, e.Question, e.Answer,
		strings.Join(e.Sources, "\n"), e.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("record exchange: %w", err)
	}
	if !a.ftsEnabled {
		return nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("exchange rowid: %w", err)
	}
	if _, err := a.db.ExecContext(ctx,
		`INSERT INTO exchanges_fts (exchange_id, question, answer) VALUES (?, ?, ?)`,
		id, e.Question, e.Answer,
	); err != nil {
		return fmt.Errorf("index exchange: %w", err)
	}
	return nil
}

// Search returns the most recent exchanges matching the query, or the
// most recent overall when the query is empty.
func (a *Archive) Search(ctx context.Context, query string, limit int) ([]Exchange, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}
	query = strings.TrimSpace(query)

	var (
		rows *sql.Rows
		err  error
	)
	switch {
	case query == "":
		rows, err = a.db.QueryContext(ctx,
			`SELECT id, conversation_id, interaction_id, question, answer, sources, created_ts
			 FROM exchanges ORDER BY created_ts DESC, id DESC LIMIT ?`, limit)
	case a.ftsEnabled:
		rows, err = a.searchFTS(ctx, query, limit)
	default:
		rows, err = a.searchLike(ctx, query, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("search archive: %w", err)
	}
	defer rows.Close()

	var out []Exchange
	for rows.Next() {
		var e Exchange
		var sources string
		var ts int64
		if err := rows.Scan(&e.ID, &e.ConversationID, &e.InteractionID, &e.Question, &e.Answer, &sources, &ts); err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		if sources != "" {
			e.Sources = strings.Split(sources, "\n")
		}
		e.CreatedAt = time.Unix(ts, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (a *Archive) searchFTS(ctx context.Context, query string, limit int) (*sql.Rows, error) {
	return a.db.QueryContext(ctx,
		`SELECT e.id, e.conversation_id, e.interaction_id, e.question, e.answer, e.sources, e.created_ts
		 FROM exchanges_fts f
		 JOIN exchanges e ON e.id = f.exchange_id
		 WHERE exchanges_fts MATCH ?
		 ORDER BY e.created_ts DESC, e.id DESC LIMIT ?`,
		buildFTSQuery(query), limit)
}

func (a *Archive) searchLike(ctx context.Context, query string, limit int) (*sql.Rows, error) {
	terms := tokenizeSearchTerms(query)
	where := make([]string, 0, len(terms))
	args := make([]any, 0, len(terms)*2+1)
	for _, t := range terms {
		where = append(where, `(question LIKE ? OR answer LIKE ?)`)
		pattern := "%" + t + "%"
		args = append(args, pattern, pattern)
	}
	args = append(args, limit)
	return a.db.QueryContext(ctx,
		`SELECT id, conversation_id, interaction_id, question, answer, sources, created_ts
		 FROM exchanges WHERE `+strings.Join(where, " AND ")+`
		 ORDER BY created_ts DESC, id DESC LIMIT ?`, args...)
}

// buildFTSQuery quotes each term so user input cannot inject FTS
// syntax, and requires all terms.
func buildFTSQuery(raw string) string {
	terms := tokenizeSearchTerms(raw)
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		quoted = append(quoted, `"`+strings.ReplaceAll(t, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " AND ")
}

func tokenizeSearchTerms(raw string) []string {
	fields := strings.Fields(raw)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, `"'`)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
