// Package store is the document-store client shared by the handlers. Each
// Table is keyed by a single string attribute and supports point lookups,
// filtered scans, inserts, upserts, field updates and deletes.
package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Table[T any] struct {
	db     *gorm.DB
	key    string
	schema Schema
}

// NewTable binds a gorm model to its key column and filterable schema.
func NewTable[T any](db *gorm.DB, key string, schema Schema) *Table[T] {
	return &Table[T]{db: db, key: key, schema: schema}
}

func (t *Table[T]) Schema() Schema { return t.schema }

func (t *Table[T]) Query() *Query { return t.schema.Query() }

// WithTx returns a copy of the table that runs its statements inside tx.
func (t *Table[T]) WithTx(tx *gorm.DB) *Table[T] {
	return &Table[T]{db: tx, key: t.key, schema: t.schema}
}

func (t *Table[T]) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}

func (t *Table[T]) byKey(key string) clause.Expression {
	return clause.Eq{Column: clause.Column{Name: t.key}, Value: key}
}

func (t *Table[T]) Get(ctx context.Context, key string) (*T, error) {
	var item T
	err := t.db.WithContext(ctx).Where(t.byKey(key)).Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (t *Table[T]) Exists(ctx context.Context, key string) (bool, error) {
	var count int64
	if err := t.db.WithContext(ctx).Model(new(T)).Where(t.byKey(key)).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Scan reads every item matching q, ordered by key. A nil query scans the
// whole table.
func (t *Table[T]) Scan(ctx context.Context, q *Query) ([]T, error) {
	if err := q.Err(); err != nil {
		return nil, err
	}
	items := make([]T, 0)
	db := q.apply(t.db.WithContext(ctx)).Order(clause.OrderByColumn{Column: clause.Column{Name: t.key}})
	if err := db.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (t *Table[T]) Count(ctx context.Context, q *Query) (int64, error) {
	if err := q.Err(); err != nil {
		return 0, err
	}
	var count int64
	err := q.apply(t.db.WithContext(ctx).Model(new(T))).Count(&count).Error
	return count, err
}

// Insert creates item and fails with ErrAlreadyExists if the key is taken.
func (t *Table[T]) Insert(ctx context.Context, item *T) error {
	res := t.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(item)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// Put creates item or overwrites every column of the existing one.
func (t *Table[T]) Put(ctx context.Context, item *T) error {
	return t.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(item).Error
}

// Update sets the given columns on the item stored under key.
func (t *Table[T]) Update(ctx context.Context, key string, fields map[string]interface{}) error {
	res := t.db.WithContext(ctx).Model(new(T)).Where(t.byKey(key)).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	// MySQL reports zero affected rows when the values did not change.
	ok, err := t.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (t *Table[T]) Delete(ctx context.Context, key string) error {
	res := t.db.WithContext(ctx).Where(t.byKey(key)).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteWhere removes every item matching q and returns how many went.
// An empty query clears the table.
func (t *Table[T]) DeleteWhere(ctx context.Context, q *Query) (int64, error) {
	if err := q.Err(); err != nil {
		return 0, err
	}
	db := t.db.WithContext(ctx)
	if q.Empty() {
		db = db.Session(&gorm.Session{AllowGlobalUpdate: true})
	}
	res := q.apply(db).Delete(new(T))
	return res.RowsAffected, res.Error
}
