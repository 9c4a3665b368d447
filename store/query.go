package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound         = errors.New("item not found")
	ErrAlreadyExists    = errors.New("item already exists")
	ErrUnknownAttribute = errors.New("unknown attribute")
)

// Op is a comparison operator usable in a scan filter.
type Op string

const (
	Eq  Op = "="
	Gt  Op = ">"
	Gte Op = ">="
	Lt  Op = "<"
	Lte Op = "<="
)

// Schema maps the attribute names exposed to callers onto table columns.
// Only attributes listed here can be filtered on.
type Schema map[string]string

// Query starts an empty AND-combined filter over the schema.
func (s Schema) Query() *Query {
	return &Query{schema: s}
}

// Has reports whether attr is a known attribute.
func (s Schema) Has(attr string) bool {
	_, ok := s[attr]
	return ok
}

// Predicate is a single "column op value" condition.
type Predicate struct {
	Column string
	Op     Op
	Value  interface{}
}

// Query is an AND-combined list of predicates. The first invalid predicate
// poisons the query; Err reports it and Scan/DeleteWhere refuse to run.
type Query struct {
	schema Schema
	preds  []Predicate
	err    error
}

func (q *Query) Where(attr string, op Op, value interface{}) *Query {
	if q.err != nil {
		return q
	}
	col, ok := q.schema[attr]
	if !ok {
		q.err = fmt.Errorf("%w: %s", ErrUnknownAttribute, attr)
		return q
	}
	switch op {
	case Eq, Gt, Gte, Lt, Lte:
	default:
		q.err = fmt.Errorf("unsupported operator %q", op)
		return q
	}
	q.preds = append(q.preds, Predicate{Column: col, Op: op, Value: value})
	return q
}

func (q *Query) Eq(attr string, value interface{}) *Query {
	return q.Where(attr, Eq, value)
}

func (q *Query) Err() error {
	if q == nil {
		return nil
	}
	return q.err
}

func (q *Query) Predicates() []Predicate {
	if q == nil {
		return nil
	}
	return q.preds
}

func (q *Query) Empty() bool {
	return q == nil || len(q.preds) == 0
}

func (q *Query) apply(db *gorm.DB) *gorm.DB {
	if q == nil {
		return db
	}
	for _, p := range q.preds {
		db = db.Where(p.expression())
	}
	return db
}

func (p Predicate) expression() clause.Expression {
	col := clause.Column{Name: p.Column}
	switch p.Op {
	case Gt:
		return clause.Gt{Column: col, Value: p.Value}
	case Gte:
		return clause.Gte{Column: col, Value: p.Value}
	case Lt:
		return clause.Lt{Column: col, Value: p.Value}
	case Lte:
		return clause.Lte{Column: col, Value: p.Value}
	default:
		return clause.Eq{Column: col, Value: p.Value}
	}
}
