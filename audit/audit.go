// Package audit persists a tamper-evident log of data-modifying
// operations to SQLite.
//
// Every mutating operation (rule edits, category corrections, applied
// rebalancing moves) records an Entry. Writes can be synchronous or
// buffered; the async path batches inserts and drops entries rather
// than backpressuring the caller when the buffer is full.
package audit

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/grcdesk/idgen"
)

// Schema for the audit_log table.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	entry_id TEXT NOT NULL UNIQUE,
	timestamp INTEGER NOT NULL,
	action TEXT NOT NULL,
	actor TEXT NOT NULL DEFAULT '',
	subject TEXT NOT NULL DEFAULT '',
	parameters TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_audit_log_ts ON audit_log(timestamp);
CREATE INDEX IF NOT EXISTS idx_audit_log_action ON audit_log(action);
`

// Entry is one audited operation. Zero fields are filled on write:
// EntryID, Timestamp, and Status (success, or error when Error is set).
type Entry struct {
	EntryID    string
	Timestamp  int64 // unix milliseconds
	Action     string
	Actor      string
	Subject    string // e.g. ticket or rule id
	Parameters string // JSON-encoded operation arguments
	Status     string
	Error      string
}

// Logger records audit entries.
type Logger struct {
	db     *sql.DB
	newID  func() string
	logger *slog.Logger

	ch   chan *Entry
	done chan struct{}
	once sync.Once
}

// Option configures a Logger.
type Option func(*Logger)

// WithIDGenerator overrides entry id generation.
func WithIDGenerator(gen func() string) Option {
	return func(l *Logger) { l.newID = gen }
}

// WithLogger sets the slog logger for flush failures.
func WithLogger(sl *slog.Logger) Option {
	return func(l *Logger) { l.logger = sl }
}

// NewLogger creates a Logger writing to the given database.
func NewLogger(db *sql.DB, opts ...Option) *Logger {
	l := &Logger{
		db:     db,
		newID:  idgen.Prefixed("aud_", idgen.NanoID(12)),
		logger: slog.Default(),
		ch:     make(chan *Entry, 1024),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	go l.flushLoop()
	return l
}

// Init creates the audit_log table if it doesn't exist.
func (l *Logger) Init() error {
	_, err := l.db.Exec(Schema)
	return err
}

// Log writes one entry synchronously, filling defaults in place.
func (l *Logger) Log(ctx context.Context, e *Entry) error {
	l.fillDefaults(e)
	_, err := l.db.ExecContext(ctx, insertSQL,
		e.EntryID, e.Timestamp, e.Action, e.Actor, e.Subject,
		e.Parameters, e.Status, e.Error)
	return err
}

// LogAsync queues an entry for batched persistence. Non-blocking; drops
// the entry if the buffer is full.
func (l *Logger) LogAsync(e *Entry) {
	l.fillDefaults(e)
	select {
	case l.ch <- e:
	default:
	}
}

// Close drains the buffer and stops the flush goroutine.
func (l *Logger) Close() error {
	l.once.Do(func() {
		close(l.ch)
		<-l.done
	})
	return nil
}

func (l *Logger) fillDefaults(e *Entry) {
	if e.EntryID == "" {
		e.EntryID = l.newID()
	}
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().UnixMilli()
	}
	if e.Status == "" {
		if e.Error != "" {
			e.Status = "error"
		} else {
			e.Status = "success"
		}
	}
}

const insertSQL = `
INSERT INTO audit_log (entry_id, timestamp, action, actor, subject, parameters, status, error_message)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

const flushBatchSize = 32

func (l *Logger) flushLoop() {
	defer close(l.done)

	batch := make([]*Entry, 0, flushBatchSize)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-l.ch:
			if !ok {
				l.flush(batch)
				return
			}
			batch = append(batch, e)
			if len(batch) >= flushBatchSize {
				l.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				l.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func (l *Logger) flush(batch []*Entry) {
	if len(batch) == 0 {
		return
	}
	tx, err := l.db.Begin()
	if err != nil {
		l.logger.Error("audit flush begin failed", "error", err)
		return
	}
	for _, e := range batch {
		if _, err := tx.Exec(insertSQL,
			e.EntryID, e.Timestamp, e.Action, e.Actor, e.Subject,
			e.Parameters, e.Status, e.Error); err != nil {
			l.logger.Error("audit flush insert failed", "error", err, "action", e.Action)
		}
	}
	if err := tx.Commit(); err != nil {
		l.logger.Error("audit flush commit failed", "error", err)
	}
}
