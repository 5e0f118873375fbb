package domain

import (
	"fmt"
	"strings"
)

// Clause is a curated code clause, e.g. ASME B31.3 "300.2 Definitions".
type Clause struct {
	ID          string
	Heading     string
	Summary     string
	EditionYear string
}

// Validate checks the required clause fields.
func (c Clause) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidClause)
	}
	if strings.TrimSpace(c.Heading) == "" {
		return fmt.Errorf("%w: heading is required", ErrInvalidClause)
	}
	return nil
}

// Answer renders the clause as the user-facing answer text.
func (c Clause) Answer() string {
	return fmt.Sprintf("Clause %s — '%s' (%s Edition): %s", c.ID, c.Heading, c.EditionYear, c.Summary)
}
