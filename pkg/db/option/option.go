package option

import (
	"fmt"
	"strings"

	"github.com/smallbiznis/agrimarket/pkg/db/pagination"
	"gorm.io/gorm"
)

// QueryOption mutates a gorm statement.
type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type QueryOptionFunc func(*gorm.DB) *gorm.DB

func (f QueryOptionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

type Operator string

const (
	EQ   Operator = "="
	NEQ  Operator = "<>"
	GT   Operator = ">"
	GTE  Operator = ">="
	LT   Operator = "<"
	LTE  Operator = "<="
	IN   Operator = "IN"
	LIKE Operator = "LIKE"
)

// Condition is a single column predicate. Field must be a trusted column name.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// ApplyOperator adds the condition to the WHERE clause.
func ApplyOperator(c Condition) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		switch c.Operator {
		case IN:
			return db.Where(fmt.Sprintf("%s IN ?", c.Field), c.Value)
		case LIKE:
			return db.Where(fmt.Sprintf("LOWER(%s) LIKE ?", c.Field), "%"+strings.ToLower(fmt.Sprint(c.Value))+"%")
		default:
			return db.Where(fmt.Sprintf("%s %s ?", c.Field, c.Operator), c.Value)
		}
	})
}

// QuerySortBy orders by Field when it is allowed, falling back to Default.
type QuerySortBy struct {
	Field   string
	Desc    bool
	Default string
	Allow   map[string]bool
}

func WithSortBy(s QuerySortBy) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		field := s.Default
		if s.Allow[s.Field] {
			field = s.Field
		}
		if field == "" {
			field = "id"
		}
		if s.Desc {
			return db.Order(field + " desc, id desc")
		}
		return db.Order(field + " asc, id asc")
	})
}

// ApplyPagination keeps rows after the page token and fetches one extra row to detect more pages.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if after, err := page.AfterID(); err == nil && after > 0 {
			db = db.Where("id > ?", after)
		}
		return db.Order("id asc").Limit(page.Limit() + 1)
	})
}
