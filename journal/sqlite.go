package journal

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/factmesh/core"
	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteJournalOptions configures a SQLiteJournal instance.
type SQLiteJournalOptions struct {
	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds.
	BusyTimeout time.Duration
}

// SQLiteJournal is a core.Recorder backed by a SQLite database. It keeps two
// tables: runs (one row per run, updated on halt) and facts (append-only,
// one row per commit in global sequence order). WAL mode keeps concurrent
// readers cheap while the engine writes.
//
// The engine records synchronously from the merge phase, so writes stay
// small: prepared single-row inserts, no transactions spanning cycles.
type SQLiteJournal struct {
	db *sql.DB
	mu sync.Mutex

	openStmt *sql.Stmt
	factStmt *sql.Stmt
	haltStmt *sql.Stmt
}

// NewSQLiteJournal opens (or creates) the database at dbPath and initializes
// the schema. The caller owns the journal and must Close it when done.
func NewSQLiteJournal(dbPath string, optFns ...func(o *SQLiteJournalOptions)) (*SQLiteJournal, error) {
	opts := SQLiteJournalOptions{
		BusyTimeout: 5 * time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if dbPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}

	// WAL mode allows readers to follow along while the engine writes.
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		dbPath, int(opts.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	j := &SQLiteJournal{db: db}

	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	if err := j.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare statements: %w", err)
	}
	return j, nil
}

// Close releases the prepared statements and the database connection.
func (j *SQLiteJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, stmt := range []*sql.Stmt{j.openStmt, j.factStmt, j.haltStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return j.db.Close()
}

func (j *SQLiteJournal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id          TEXT PRIMARY KEY,
		budget          TEXT NOT NULL,
		opened_at       INTEGER NOT NULL,
		halt            TEXT,
		cycles_executed INTEGER NOT NULL DEFAULT 0,
		halted_at       INTEGER
	);

	CREATE TABLE IF NOT EXISTS facts (
		seq         INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id      TEXT NOT NULL,
		cycle       INTEGER NOT NULL,
		key         TEXT NOT NULL,
		fact_id     TEXT NOT NULL,
		content     TEXT NOT NULL,
		agent       TEXT NOT NULL,
		agent_id    INTEGER NOT NULL,
		recorded_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_facts_run ON facts(run_id, seq);
	CREATE INDEX IF NOT EXISTS idx_facts_key ON facts(run_id, key);
	`

	_, err := j.db.Exec(schema)
	return err
}

func (j *SQLiteJournal) prepareStatements() error {
	var err error

	j.openStmt, err = j.db.Prepare(`
		INSERT INTO runs (run_id, budget, opened_at)
		VALUES (?, ?, ?)
		ON CONFLICT (run_id) DO UPDATE SET
			budget = excluded.budget,
			opened_at = excluded.opened_at,
			halt = NULL,
			cycles_executed = 0,
			halted_at = NULL
	`)
	if err != nil {
		return fmt.Errorf("prepare open statement: %w", err)
	}

	j.factStmt, err = j.db.Prepare(`
		INSERT INTO facts (run_id, cycle, key, fact_id, content, agent, agent_id, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare fact statement: %w", err)
	}

	j.haltStmt, err = j.db.Prepare(`
		UPDATE runs SET halt = ?, cycles_executed = ?, halted_at = ?
		WHERE run_id = ?
	`)
	if err != nil {
		return fmt.Errorf("prepare halt statement: %w", err)
	}

	return nil
}

// OpenRun implements core.Recorder. Reopening a run id resets its record,
// which matches the engine handing out fresh ids per run: a collision means
// a deliberate replay.
func (j *SQLiteJournal) OpenRun(runID string, budget core.Budget) error {
	if runID == "" {
		return fmt.Errorf("run id cannot be empty")
	}

	budgetJSON, err := json.Marshal(budget)
	if err != nil {
		return fmt.Errorf("marshal budget: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.openStmt.Exec(runID, string(budgetJSON), time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("record run open: %w", err)
	}
	return nil
}

// RecordFact implements core.Recorder.
func (j *SQLiteJournal) RecordFact(runID string, cycle int, fact core.Fact) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.factStmt.Exec(
		runID,
		cycle,
		string(fact.Key),
		fact.ID,
		fact.Content,
		fact.Provenance.Agent,
		int(fact.Provenance.AgentID),
		time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record fact (%s, %s): %w", fact.Key, fact.ID, err)
	}
	return nil
}

// RecordHalt implements core.Recorder.
func (j *SQLiteJournal) RecordHalt(runID string, halt core.HaltReason, cyclesExecuted int) error {
	haltJSON, err := json.Marshal(halt)
	if err != nil {
		return fmt.Errorf("marshal halt: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	res, err := j.haltStmt.Exec(string(haltJSON), cyclesExecuted, time.Now().UnixMilli(), runID)
	if err != nil {
		return fmt.Errorf("record halt: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("record halt: %w", ErrNotFound)
	}
	return nil
}

// Run returns the journaled record for one run or ErrNotFound.
func (j *SQLiteJournal) Run(runID string) (*RunRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	row := j.db.QueryRow(`
		SELECT run_id, budget, opened_at, halt, cycles_executed
		FROM runs
		WHERE run_id = ?
	`, runID)

	rec, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query run %s: %w", runID, err)
	}
	return rec, nil
}

// Runs returns all journaled runs in the order they were opened.
func (j *SQLiteJournal) Runs() ([]RunRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query(`
		SELECT run_id, budget, opened_at, halt, cycles_executed
		FROM runs
		ORDER BY opened_at, run_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// Facts returns the committed facts of a run in commit order. This is the
// sequence a determinism audit compares across replays.
func (j *SQLiteJournal) Facts(runID string) ([]FactRecord, error) {
	return j.queryFacts(`
		SELECT seq, run_id, cycle, key, fact_id, content, agent, agent_id, recorded_at
		FROM facts
		WHERE run_id = ?
		ORDER BY seq
	`, runID)
}

// FactsByKey returns the committed facts of a run under one context key, in
// commit order.
func (j *SQLiteJournal) FactsByKey(runID string, key core.ContextKey) ([]FactRecord, error) {
	return j.queryFacts(`
		SELECT seq, run_id, cycle, key, fact_id, content, agent, agent_id, recorded_at
		FROM facts
		WHERE run_id = ? AND key = ?
		ORDER BY seq
	`, runID, string(key))
}

func (j *SQLiteJournal) queryFacts(query string, args ...any) ([]FactRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query facts: %w", err)
	}
	defer rows.Close()

	var records []FactRecord
	for rows.Next() {
		var (
			rec        FactRecord
			key        string
			agentID    int
			recordedAt int64
		)
		if err := rows.Scan(
			&rec.Seq, &rec.RunID, &rec.Cycle,
			&key, &rec.Fact.ID, &rec.Fact.Content,
			&rec.Fact.Provenance.Agent, &agentID, &recordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		rec.Fact.Key = core.ContextKey(key)
		rec.Fact.Provenance.AgentID = core.AgentID(agentID)
		rec.Fact.Provenance.Cycle = rec.Cycle
		rec.RecordedAt = time.UnixMilli(recordedAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var (
		rec        RunRecord
		budgetJSON string
		openedAt   int64
		haltJSON   sql.NullString
	)
	if err := row.Scan(&rec.RunID, &budgetJSON, &openedAt, &haltJSON, &rec.CyclesExecuted); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(budgetJSON), &rec.Budget); err != nil {
		return nil, fmt.Errorf("unmarshal budget: %w", err)
	}
	rec.OpenedAt = time.UnixMilli(openedAt)

	if haltJSON.Valid {
		var halt core.HaltReason
		if err := json.Unmarshal([]byte(haltJSON.String), &halt); err != nil {
			return nil, fmt.Errorf("unmarshal halt: %w", err)
		}
		rec.Halt = &halt
	}
	return &rec, nil
}
