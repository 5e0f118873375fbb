package clause

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/mechmind/internal/domain"
)

// --- Mocks ---

type memRepo struct {
	clauses   []domain.Clause
	createErr error
}

func (m *memRepo) Create(_ context.Context, c domain.Clause) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.clauses {
		if existing.ID == c.ID {
			return domain.ErrClauseExists
		}
	}
	m.clauses = append(m.clauses, c)
	return nil
}

func (m *memRepo) Get(_ context.Context, id string) (domain.Clause, error) {
	for _, c := range m.clauses {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Clause{}, domain.ErrClauseNotFound
}

func (m *memRepo) List(_ context.Context) ([]domain.Clause, error) {
	return m.clauses, nil
}

// --- Tests ---

func TestSeed_InsertsSamples(t *testing.T) {
	repo := &memRepo{}
	svc := New(repo)

	n, err := svc.Seed(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 || len(repo.clauses) != 2 {
		t.Fatalf("expected 2 inserted, got %d (repo has %d)", n, len(repo.clauses))
	}
	if repo.clauses[0].ID != "300.2" || repo.clauses[1].ID != "302.2.4" {
		t.Errorf("unexpected order: %+v", repo.clauses)
	}
}

func TestSeed_SkipsExisting(t *testing.T) {
	repo := &memRepo{clauses: []domain.Clause{Samples[0]}}
	svc := New(repo)

	n, err := svc.Seed(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 inserted, got %d", n)
	}

	n, err = svc.Seed(context.Background())
	if err != nil || n != 0 {
		t.Errorf("second seed: n=%d err=%v", n, err)
	}
}

func TestSeed_StoreError(t *testing.T) {
	svc := New(&memRepo{createErr: errors.New("disk full")})

	if _, err := svc.Seed(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := New(&memRepo{})

	_, err := svc.Create(context.Background(), domain.Clause{ID: "  ", Heading: "x"})
	if !errors.Is(err, domain.ErrInvalidClause) {
		t.Fatalf("expected ErrInvalidClause, got %v", err)
	}
}

func TestCreate_TrimsAndStores(t *testing.T) {
	repo := &memRepo{}
	svc := New(repo)

	c, err := svc.Create(context.Background(), domain.Clause{ID: " 301.1 ", Heading: " Scope ", EditionYear: "2024"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID != "301.1" || c.Heading != "Scope" {
		t.Errorf("expected trimmed fields, got %+v", c)
	}
	if len(repo.clauses) != 1 {
		t.Errorf("expected clause stored")
	}
}

func TestCreate_Duplicate(t *testing.T) {
	svc := New(&memRepo{clauses: []domain.Clause{Samples[0]}})

	_, err := svc.Create(context.Background(), Samples[0])
	if !errors.Is(err, domain.ErrClauseExists) {
		t.Fatalf("expected ErrClauseExists, got %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := New(&memRepo{})

	_, err := svc.Get(context.Background(), "999")
	if !errors.Is(err, domain.ErrClauseNotFound) {
		t.Fatalf("expected ErrClauseNotFound, got %v", err)
	}
}

func TestList(t *testing.T) {
	svc := New(&memRepo{clauses: Samples})

	clauses, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clauses) != 2 {
		t.Errorf("expected 2 clauses, got %d", len(clauses))
	}
}
