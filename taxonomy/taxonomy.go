// Package taxonomy manages the mutable set of classification rules and their
// derived embedding vectors.
//
// Rules are seeded from the official SOX taxonomy, edited through the CRUD
// surface, and reinforced by the correction learning loop. The vector cache
// is rebuilt wholesale whenever the rule set changes; readers always see
// either the fully-old or fully-new vector set.
package taxonomy

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ErrInvalidRule is returned when a rule fails validation at the edit boundary.
var ErrInvalidRule = errors.New("taxonomy: invalid rule")

// ErrRuleNotFound is returned when the referenced rule id does not exist.
var ErrRuleNotFound = errors.New("taxonomy: rule not found")

// ErrDuplicateRule is returned when adding a rule whose id already exists.
var ErrDuplicateRule = errors.New("taxonomy: rule already exists")

// Rule is one classification category: literal keywords score 1.0 per
// occurrence, boost terms 0.5, the sum multiplied by Weight.
type Rule struct {
	ID         string   `json:"id"`
	Keywords   []string `json:"keywords"`
	BoostTerms []string `json:"boost_terms"`
	Weight     float64  `json:"weight"`
}

func (r *Rule) validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidRule)
	}
	if len(r.Keywords) == 0 {
		return fmt.Errorf("%w: rule %q has no keywords", ErrInvalidRule, r.ID)
	}
	if r.Weight < 0 {
		return fmt.Errorf("%w: rule %q has negative weight", ErrInvalidRule, r.ID)
	}
	return nil
}

func (r Rule) clone() Rule {
	r.Keywords = append([]string(nil), r.Keywords...)
	r.BoostTerms = append([]string(nil), r.BoostTerms...)
	return r
}

// EmbeddingText is the string embedded to represent the rule in vector space.
func (r *Rule) EmbeddingText() string {
	return fmt.Sprintf("%s. %s. %s",
		r.ID, strings.Join(r.Keywords, " "), strings.Join(r.BoostTerms, " "))
}

const schema = `
CREATE TABLE IF NOT EXISTS category_rules (
    id          TEXT PRIMARY KEY,
    keywords    TEXT NOT NULL,
    boost_terms TEXT NOT NULL,
    weight      REAL NOT NULL,
    updated_at  INTEGER NOT NULL
);
`

// Store holds the rule set in memory with optional SQLite persistence.
// All methods are safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	mu    sync.RWMutex
	rules []Rule
}

// NewStore creates a Store. If db is non-nil the rule table is created and
// existing rules are loaded; an empty table is seeded with the official
// taxonomy. A nil db yields a purely in-memory store seeded with defaults.
func NewStore(ctx context.Context, db *sql.DB, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{db: db, logger: logger}

	if db == nil {
		s.rules = Official()
		return s, nil
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("taxonomy: init schema: %w", err)
	}
	rules, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		rules = Official()
		if err := s.persistAll(ctx, rules); err != nil {
			return nil, err
		}
		logger.Info("taxonomy seeded from official rules", "rules", len(rules))
	}
	s.rules = rules
	return s, nil
}

// Rules returns a snapshot copy of the current rule set.
func (s *Store) Rules() []Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Rule, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.clone()
	}
	return out
}

// Get returns the rule with the given id.
func (s *Store) Get(id string) (Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rules {
		if r.ID == id {
			return r.clone(), nil
		}
	}
	return Rule{}, fmt.Errorf("%w: %q", ErrRuleNotFound, id)
}

// Add inserts a new rule after validation.
func (s *Store) Add(ctx context.Context, r Rule) error {
	if err := r.validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rules {
		if existing.ID == r.ID {
			return fmt.Errorf("%w: %q", ErrDuplicateRule, r.ID)
		}
	}
	s.rules = append(s.rules, r.clone())
	return s.persistOne(ctx, r)
}

// Update replaces the rule with matching id.
func (s *Store) Update(ctx context.Context, r Rule) error {
	if err := r.validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.rules {
		if existing.ID == r.ID {
			s.rules[i] = r.clone()
			return s.persistOne(ctx, r)
		}
	}
	return fmt.Errorf("%w: %q", ErrRuleNotFound, r.ID)
}

// Delete removes the rule with the given id. Rules are never deleted by the
// pipeline itself; this backs the manual editing surface only.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.rules {
		if existing.ID == id {
			s.rules = append(s.rules[:i], s.rules[i+1:]...)
			if s.db == nil {
				return nil
			}
			_, err := s.db.ExecContext(ctx, `DELETE FROM category_rules WHERE id = ?`, id)
			if err != nil {
				return fmt.Errorf("taxonomy: delete rule: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrRuleNotFound, id)
}

// Reset discards all edits and restores the official taxonomy.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = Official()
	if s.db == nil {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM category_rules`); err != nil {
		return fmt.Errorf("taxonomy: reset: %w", err)
	}
	return s.persistAll(ctx, s.rules)
}

func (s *Store) loadAll(ctx context.Context) ([]Rule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, keywords, boost_terms, weight FROM category_rules ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("taxonomy: load rules: %w", err)
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		var r Rule
		var kw, bt string
		if err := rows.Scan(&r.ID, &kw, &bt, &r.Weight); err != nil {
			return nil, fmt.Errorf("taxonomy: scan rule: %w", err)
		}
		if err := json.Unmarshal([]byte(kw), &r.Keywords); err != nil {
			return nil, fmt.Errorf("taxonomy: rule %q keywords: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(bt), &r.BoostTerms); err != nil {
			return nil, fmt.Errorf("taxonomy: rule %q boost terms: %w", r.ID, err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func (s *Store) persistOne(ctx context.Context, r Rule) error {
	if s.db == nil {
		return nil
	}
	kw, _ := json.Marshal(r.Keywords)
	bt, _ := json.Marshal(r.BoostTerms)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO category_rules (id, keywords, boost_terms, weight, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		    keywords = excluded.keywords,
		    boost_terms = excluded.boost_terms,
		    weight = excluded.weight,
		    updated_at = excluded.updated_at`,
		r.ID, string(kw), string(bt), r.Weight, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("taxonomy: persist rule %q: %w", r.ID, err)
	}
	return nil
}

func (s *Store) persistAll(ctx context.Context, rules []Rule) error {
	for _, r := range rules {
		if err := s.persistOne(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
