package clause

import (
	"context"

	"github.com/kailas-cloud/mechmind/internal/domain"
)

// Repository defines the storage contract for clauses.
type Repository interface {
	Create(ctx context.Context, c domain.Clause) error
	Get(ctx context.Context, id string) (domain.Clause, error)
	List(ctx context.Context) ([]domain.Clause, error)
}
