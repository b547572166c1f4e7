// Package store persists tickets to SQLite and serves filtered queries.
//
// One row per ticket, nested analytical structures stored as JSON.
// Batches are written transactionally so a reprocessing pass is either
// fully visible or not at all.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hazyhaar/grcdesk/dbopen"
	"github.com/hazyhaar/grcdesk/ticket"
)

// ErrNotFound is returned when a ticket id does not exist.
var ErrNotFound = errors.New("store: ticket not found")

// Schema for the tickets table.
const Schema = `
CREATE TABLE IF NOT EXISTS tickets (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	assigned_to TEXT NOT NULL,
	assigned_to_name TEXT NOT NULL,
	priority TEXT NOT NULL,
	state TEXT NOT NULL,
	created_date INTEGER NOT NULL,
	closed_date INTEGER,
	duration_hours REAL NOT NULL DEFAULT 0,
	category TEXT NOT NULL DEFAULT '',
	original_category TEXT NOT NULL DEFAULT '',
	sub_category TEXT NOT NULL DEFAULT '',
	risk_score REAL NOT NULL DEFAULT 0,
	compliance_status TEXT NOT NULL DEFAULT '',
	compliance_reason TEXT NOT NULL DEFAULT '',
	sentiment_score REAL NOT NULL DEFAULT 0,
	sentiment_eval TEXT NOT NULL DEFAULT '{}',
	entities TEXT NOT NULL DEFAULT '{}',
	is_anomaly INTEGER NOT NULL DEFAULT 0,
	risk_velocity REAL NOT NULL DEFAULT 0,
	predicted_breach INTEGER NOT NULL DEFAULT 0,
	hours_to_breach REAL NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_tickets_state ON tickets(state);
CREATE INDEX IF NOT EXISTS idx_tickets_risk ON tickets(risk_score);
CREATE INDEX IF NOT EXISTS idx_tickets_agent ON tickets(assigned_to_name);
`

// Store is the SQLite-backed ticket repository.
type Store struct {
	db *sql.DB
}

// New creates a Store and ensures the schema exists.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveBatch upserts all tickets in one transaction.
func (s *Store) SaveBatch(ctx context.Context, tickets []*ticket.Ticket) error {
	return dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, t := range tickets {
			if err := upsert(ctx, tx, t); err != nil {
				return fmt.Errorf("store: save %s: %w", t.ID, err)
			}
		}
		return nil
	})
}

const upsertSQL = `
INSERT INTO tickets (
	id, title, description, assigned_to, assigned_to_name, priority, state,
	created_date, closed_date, duration_hours, category, original_category,
	sub_category, risk_score, compliance_status, compliance_reason,
	sentiment_score, sentiment_eval, entities, is_anomaly, risk_velocity,
	predicted_breach, hours_to_breach
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	title = excluded.title,
	description = excluded.description,
	assigned_to = excluded.assigned_to,
	assigned_to_name = excluded.assigned_to_name,
	priority = excluded.priority,
	state = excluded.state,
	created_date = excluded.created_date,
	closed_date = excluded.closed_date,
	duration_hours = excluded.duration_hours,
	category = excluded.category,
	original_category = excluded.original_category,
	sub_category = excluded.sub_category,
	risk_score = excluded.risk_score,
	compliance_status = excluded.compliance_status,
	compliance_reason = excluded.compliance_reason,
	sentiment_score = excluded.sentiment_score,
	sentiment_eval = excluded.sentiment_eval,
	entities = excluded.entities,
	is_anomaly = excluded.is_anomaly,
	risk_velocity = excluded.risk_velocity,
	predicted_breach = excluded.predicted_breach,
	hours_to_breach = excluded.hours_to_breach`

func upsert(ctx context.Context, tx *sql.Tx, t *ticket.Ticket) error {
	evalJSON, err := json.Marshal(t.SentimentEvaluation)
	if err != nil {
		return err
	}
	entitiesJSON, err := json.Marshal(t.ExtractedEntities)
	if err != nil {
		return err
	}

	var closed any
	if t.ClosedDate != nil {
		closed = t.ClosedDate.Unix()
	}

	_, err = tx.ExecContext(ctx, upsertSQL,
		t.ID, t.Title, t.Description, t.AssignedTo, t.AssignedToName,
		string(t.Priority), string(t.State), t.CreatedDate.Unix(), closed,
		t.DurationHours, t.Category, t.OriginalCategory, t.SubCategory,
		t.RiskScore, string(t.ComplianceStatus), t.ComplianceReason,
		t.SentimentScore, string(evalJSON), string(entitiesJSON),
		boolInt(t.IsAnomaly), t.RiskVelocity, boolInt(t.PredictedBreach),
		t.HoursToBreach)
	return err
}

// Get returns one ticket by id.
func (s *Store) Get(ctx context.Context, id string) (*ticket.Ticket, error) {
	rows, err := s.db.QueryContext(ctx, selectSQL+" WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("store: get %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return scan(rows)
}

// List returns tickets matching the criteria, newest first. A nil
// criteria returns everything.
func (s *Store) List(ctx context.Context, f *ticket.FilterCriteria) ([]*ticket.Ticket, error) {
	query, args := buildQuery(f)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var out []*ticket.Ticket
	for rows.Next() {
		t, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SetAssignee updates a ticket's assignment (rebalancing apply step).
func (s *Store) SetAssignee(ctx context.Context, id, agent string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tickets SET assigned_to_name = ? WHERE id = ?`, agent, id)
	if err != nil {
		return fmt.Errorf("store: set assignee: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetCategory updates a ticket's category (operator correction).
func (s *Store) SetCategory(ctx context.Context, id, category string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tickets SET category = ? WHERE id = ?`, category, id)
	if err != nil {
		return fmt.Errorf("store: set category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the total number of stored tickets.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets`).Scan(&n)
	return n, err
}

const selectSQL = `
SELECT id, title, description, assigned_to, assigned_to_name, priority, state,
	created_date, closed_date, duration_hours, category, original_category,
	sub_category, risk_score, compliance_status, compliance_reason,
	sentiment_score, sentiment_eval, entities, is_anomaly, risk_velocity,
	predicted_breach, hours_to_breach
FROM tickets`

// buildQuery pushes the cheap criteria into SQL. Search terms match
// title or description case-insensitively.
func buildQuery(f *ticket.FilterCriteria) (string, []any) {
	var where []string
	var args []any

	if f != nil {
		if f.MinRisk > 0 {
			where = append(where, "risk_score >= ?")
			args = append(args, f.MinRisk)
		}
		if len(f.Priority) > 0 {
			ph := make([]string, len(f.Priority))
			for i, p := range f.Priority {
				ph[i] = "?"
				args = append(args, string(p))
			}
			where = append(where, "priority IN ("+strings.Join(ph, ", ")+")")
		}
		if len(f.State) > 0 {
			ph := make([]string, len(f.State))
			for i, st := range f.State {
				ph[i] = "?"
				args = append(args, string(st))
			}
			where = append(where, "state IN ("+strings.Join(ph, ", ")+")")
		}
		if f.Compliance != "" {
			where = append(where, "compliance_status = ?")
			args = append(args, string(f.Compliance))
		}
		if f.Category != "" {
			where = append(where, "category = ? COLLATE NOCASE")
			args = append(args, f.Category)
		}
		if f.OriginalCategory != "" {
			where = append(where, "original_category = ? COLLATE NOCASE")
			args = append(args, f.OriginalCategory)
		}
		if f.SearchQuery != "" {
			where = append(where, "(title LIKE ? COLLATE NOCASE OR description LIKE ? COLLATE NOCASE)")
			like := "%" + f.SearchQuery + "%"
			args = append(args, like, like)
		}
	}

	query := selectSQL
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_date DESC, id"
	return query, args
}

func scan(rows *sql.Rows) (*ticket.Ticket, error) {
	var (
		t               ticket.Ticket
		priority, state string
		compliance      string
		created         int64
		closed          sql.NullInt64
		evalJSON        string
		entitiesJSON    string
		anomaly, breach int
	)
	err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.AssignedTo,
		&t.AssignedToName, &priority, &state, &created, &closed,
		&t.DurationHours, &t.Category, &t.OriginalCategory, &t.SubCategory,
		&t.RiskScore, &compliance, &t.ComplianceReason, &t.SentimentScore,
		&evalJSON, &entitiesJSON, &anomaly, &t.RiskVelocity, &breach,
		&t.HoursToBreach)
	if err != nil {
		return nil, fmt.Errorf("store: scan: %w", err)
	}

	t.Priority = ticket.Priority(priority)
	t.State = ticket.State(state)
	t.ComplianceStatus = ticket.ComplianceStatus(compliance)
	t.CreatedDate = time.Unix(created, 0).UTC()
	if closed.Valid {
		c := time.Unix(closed.Int64, 0).UTC()
		t.ClosedDate = &c
	}
	if err := json.Unmarshal([]byte(evalJSON), &t.SentimentEvaluation); err != nil {
		return nil, fmt.Errorf("store: decode sentiment: %w", err)
	}
	if err := json.Unmarshal([]byte(entitiesJSON), &t.ExtractedEntities); err != nil {
		return nil, fmt.Errorf("store: decode entities: %w", err)
	}
	t.IsAnomaly = anomaly != 0
	t.PredictedBreach = breach != 0
	return &t, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
