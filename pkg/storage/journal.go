package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lintang-b-s/navguide/pkg/concurrent"
	da "github.com/lintang-b-s/navguide/pkg/datastructure"
	"go.uber.org/zap"
)

// queryTimeout is applied to every database statement.
const queryTimeout = 5 * time.Second

const createSessionsTable = `
CREATE TABLE IF NOT EXISTS navigation_sessions (
	run_id        TEXT        NOT NULL,
	session_id    BIGINT      NOT NULL,
	submission_id BIGINT      NOT NULL,
	kind          TEXT        NOT NULL,
	waypoints     TEXT[]      NOT NULL,
	status        TEXT        NOT NULL DEFAULT '',
	diagnostic    TEXT        NOT NULL DEFAULT '',
	submitted_at  TIMESTAMPTZ NOT NULL,
	resolved_at   TIMESTAMPTZ,
	PRIMARY KEY (run_id, session_id, submission_id)
)`

const upsertSession = `
INSERT INTO navigation_sessions
	(run_id, session_id, submission_id, kind, waypoints, status, diagnostic, submitted_at, resolved_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (run_id, session_id, submission_id) DO UPDATE SET
	status = EXCLUDED.status,
	diagnostic = EXCLUDED.diagnostic,
	resolved_at = EXCLUDED.resolved_at`

// DB is the subset of *pgxpool.Pool the journal uses.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Connect opens a connection pool and checks it is reachable.
func Connect(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	return pool, nil
}

// Migrate creates the journal table. It is idempotent.
func Migrate(ctx context.Context, db DB) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	if _, err := db.Exec(ctx, createSessionsTable); err != nil {
		return fmt.Errorf("storage: Migrate: %w", err)
	}
	return nil
}

// Journal persists submission records. Writes happen on the journal's own loop so the
// orchestrator never waits for the database.
type Journal struct {
	db    DB
	runID string
	loop  *concurrent.Looper
	log   *zap.Logger
}

// NewJournal starts a journal. runID tells apart processes and the record's session id tells
// apart orchestrators of one process; submission ids restart at 1 in both.
func NewJournal(db DB, runID string, log *zap.Logger) *Journal {
	j := &Journal{
		db:    db,
		runID: runID,
		loop:  concurrent.NewLooper("session-journal", log),
		log:   log,
	}
	j.loop.Start()
	return j
}

func (j *Journal) Record(record da.SessionRecord) {
	if !j.loop.Post(func() { j.write(record) }) {
		j.log.Debug("journal closed, dropping record", zap.Uint64("submission", record.SubmissionID))
	}
}

func (j *Journal) write(record da.SessionRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var resolvedAt *time.Time
	if record.IsResolved() {
		resolvedAt = &record.ResolvedAt
	}
	waypoints := record.Waypoints
	if waypoints == nil {
		waypoints = []string{}
	}

	_, err := j.db.Exec(ctx, upsertSession, j.runID, int64(record.SessionID), int64(record.SubmissionID),
		record.Kind, waypoints, record.Status, record.Diagnostic, record.SubmittedAt, resolvedAt)
	if err != nil {
		j.log.Warn("storage: record session", zap.Uint64("session", record.SessionID),
			zap.Uint64("submission", record.SubmissionID), zap.Error(err))
	}
}

// Close waits for queued records to be written.
func (j *Journal) Close() {
	j.loop.Close()
}
