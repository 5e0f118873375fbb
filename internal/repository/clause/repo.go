// Package clause stores curated code clauses in SQLite.
package clause

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kailas-cloud/mechmind/internal/db"
	"github.com/kailas-cloud/mechmind/internal/db/sqlite"
	"github.com/kailas-cloud/mechmind/internal/domain"
)

// Repo implements the clause store on the clauses table.
type Repo struct {
	db *sql.DB
}

// New creates a clause repository.
func New(conn *sql.DB) *Repo {
	return &Repo{db: conn}
}

// List returns all clauses in insertion order.
func (r *Repo) List(ctx context.Context) ([]domain.Clause, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, heading, summary, edition_year FROM clauses ORDER BY seq`)
	if err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	defer rows.Close()

	clauses := make([]domain.Clause, 0)
	for rows.Next() {
		var c domain.Clause
		if err := rows.Scan(&c.ID, &c.Heading, &c.Summary, &c.EditionYear); err != nil {
			return nil, &db.Error{Op: db.OpSelect, Err: err}
		}
		clauses = append(clauses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	return clauses, nil
}

// Get returns a clause by identifier.
func (r *Repo) Get(ctx context.Context, id string) (domain.Clause, error) {
	var c domain.Clause
	err := r.db.QueryRowContext(ctx,
		`SELECT id, heading, summary, edition_year FROM clauses WHERE id = ?`, id,
	).Scan(&c.ID, &c.Heading, &c.Summary, &c.EditionYear)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Clause{}, domain.ErrClauseNotFound
		}
		return domain.Clause{}, &db.Error{Op: db.OpSelect, Err: err}
	}
	return c, nil
}

// Create inserts a clause. A duplicate identifier yields domain.ErrClauseExists.
func (r *Repo) Create(ctx context.Context, c domain.Clause) error {
	if err := c.Validate(); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO clauses (id, heading, summary, edition_year) VALUES (?, ?, ?, ?)`,
		c.ID, c.Heading, c.Summary, c.EditionYear)
	if err != nil {
		if sqlite.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrClauseExists, c.ID)
		}
		return &db.Error{Op: db.OpInsert, Err: err}
	}
	return nil
}

// MatchID returns the clause whose identifier occurs in the question.
func (r *Repo) MatchID(ctx context.Context, question string) (domain.Clause, bool, error) {
	clauses, err := r.List(ctx)
	if err != nil {
		return domain.Clause{}, false, err
	}
	c, ok := domain.MatchClauseID(clauses, question)
	return c, ok, nil
}

// BestKeywordMatch returns the clause with the highest non-zero keyword score.
func (r *Repo) BestKeywordMatch(ctx context.Context, question string) (domain.Clause, bool, error) {
	clauses, err := r.List(ctx)
	if err != nil {
		return domain.Clause{}, false, err
	}
	c, _, ok := domain.BestKeywordMatch(clauses, question)
	return c, ok, nil
}
