package repositories

import (
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/coursecake/internal/app/filters"
)

// SearchParams scopes and pages a course or class query
type SearchParams struct {
	// University is matched ignoring case
	University string
	// TermID is matched exactly; empty means all terms
	TermID  string
	Filters filters.Set
	// Limit of 0 means no cap
	Limit  uint64
	Offset uint64
	// WithClasses loads the classes of every returned course. Course searches only.
	WithClasses bool
}

func (p SearchParams) check(schema *filters.Schema) error {
	if p.Filters.Len() > 0 && p.Filters.Entity() != schema.Entity() {
		return fmt.Errorf("filters compiled for %q cannot be used in a %s search", p.Filters.Entity(), schema.Entity())
	}
	return nil
}

func (p SearchParams) scope(q squirrel.SelectBuilder, termColumn string) squirrel.SelectBuilder {
	q = q.Where("lower(u.name) = lower(?)", strings.TrimSpace(p.University))
	if p.TermID != "" {
		q = q.Where(squirrel.Eq{termColumn: p.TermID})
	}
	if pred := p.Filters.Sqlizer(); pred != nil {
		q = q.Where(pred)
	}
	return q
}

// page orders by row id, which follows insertion order
func (p SearchParams) page(q squirrel.SelectBuilder, idColumn string) squirrel.SelectBuilder {
	q = q.OrderBy(idColumn)
	if p.Limit > 0 {
		q = q.Limit(p.Limit)
	}
	if p.Offset > 0 {
		q = q.Offset(p.Offset)
	}
	return q
}
