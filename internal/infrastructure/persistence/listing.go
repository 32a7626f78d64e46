package persistence

import (
	"strings"

	"github.com/chronoshop/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sortColumns is the set of columns a listing may be ordered by. Requested
// sort names are matched exactly against it, so user input never reaches
// the ORDER BY clause verbatim.
type sortColumns struct {
	allowed  map[string]struct{}
	fallback string
}

func columns(fallback string, names ...string) sortColumns {
	c := sortColumns{allowed: make(map[string]struct{}, len(names)+1), fallback: fallback}
	c.allowed[fallback] = struct{}{}
	for _, n := range names {
		c.allowed[n] = struct{}{}
	}
	return c
}

var (
	customerColumns = columns("created_at",
		"id", "updated_at", "name", "email", "net_value", "purchase_count", "service_count")
	expenseColumns = columns("paid_at",
		"id", "created_at", "category", "amount")
)

func (c sortColumns) resolve(name string) string {
	name = strings.TrimSpace(name)
	if _, ok := c.allowed[name]; ok {
		return name
	}
	return c.fallback
}

// page orders query by the resolved column, breaks ties by id so paging is
// stable, and limits it to the requested window.
func (c sortColumns) page(query *gorm.DB, q shared.ListQuery) *gorm.DB {
	col := c.resolve(q.Sort)
	query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: !q.Ascending})
	if col != "id" {
		query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
	}
	if q.Size > 0 {
		query = query.Offset(q.Offset()).Limit(q.Size)
	}
	return query
}
