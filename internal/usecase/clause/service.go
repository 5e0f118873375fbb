package clause

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/mechmind/internal/domain"
	"github.com/kailas-cloud/mechmind/internal/logger"
)

// Samples are the clauses inserted by Seed.
var Samples = []domain.Clause{
	{
		ID:          "300.2",
		Heading:     "Definitions",
		Summary:     "Contains key definitions for terms used in the Code.",
		EditionYear: "2024",
	},
	{
		ID:          "302.2.4",
		Heading:     "Allowable Stress",
		Summary:     "Specifies allowable stress values for materials.",
		EditionYear: "2024",
	},
}

// Service handles clause reads, creation and seeding.
type Service struct {
	repo Repository
}

// New creates a clause service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and stores a new clause.
func (s *Service) Create(ctx context.Context, c domain.Clause) (domain.Clause, error) {
	c.ID = strings.TrimSpace(c.ID)
	c.Heading = strings.TrimSpace(c.Heading)
	if err := c.Validate(); err != nil {
		return domain.Clause{}, err
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return domain.Clause{}, fmt.Errorf("create clause: %w", err)
	}
	return c, nil
}

// Get retrieves a clause by identifier.
func (s *Service) Get(ctx context.Context, id string) (domain.Clause, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Clause{}, fmt.Errorf("get clause: %w", err)
	}
	return c, nil
}

// List returns all clauses in insertion order.
func (s *Service) List(ctx context.Context) ([]domain.Clause, error) {
	clauses, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clauses: %w", err)
	}
	return clauses, nil
}

// Seed inserts the given clauses, or Samples when none are given.
// Clauses that already exist are skipped. Returns the number inserted.
func (s *Service) Seed(ctx context.Context, clauses ...domain.Clause) (int, error) {
	if len(clauses) == 0 {
		clauses = Samples
	}

	log := logger.FromContext(ctx)
	inserted := 0
	for _, c := range clauses {
		err := s.repo.Create(ctx, c)
		switch {
		case err == nil:
			inserted++
		case errors.Is(err, domain.ErrClauseExists):
			log.Debug("Clause already seeded", zap.String("clause_id", c.ID))
		default:
			return inserted, fmt.Errorf("seed clause %s: %w", c.ID, err)
		}
	}

	log.Info("Clauses seeded", zap.Int("inserted", inserted), zap.Int("total", len(clauses)))
	return inserted, nil
}
