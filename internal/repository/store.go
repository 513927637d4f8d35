// Package repository provides the data access layer: a generic Store over GORM
// plus the joined and grouped queries the services need.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"xchangez/internal/models"
	"xchangez/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// Predicate narrows a query. A nil Predicate matches every row.
type Predicate func(*gorm.DB) *gorm.DB

// Where builds a Predicate from a GORM condition.
func Where(query interface{}, args ...interface{}) Predicate {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	}
}

// And combines predicates; nil entries are ignored.
func And(preds ...Predicate) Predicate {
	return func(db *gorm.DB) *gorm.DB {
		for _, p := range preds {
			if p != nil {
				db = p(db)
			}
		}
		return db
	}
}

// Filter describes a read.
type Filter struct {
	Where   Predicate
	OrderBy string
	// Include lists relation paths to eager-load. An element may hold several
	// comma-separated paths ("Comments,Media").
	Include []string
	// Join loads belongs-to relations in the same statement through a LEFT JOIN.
	// Columns in Where and OrderBy must then be table-qualified.
	Join   []string
	Limit  int
	Offset int
}

func (f Filter) apply(db *gorm.DB) *gorm.DB {
	if f.Where != nil {
		db = f.Where(db)
	}
	for _, path := range includePaths(f.Include) {
		db = db.Preload(path)
	}
	for _, rel := range f.Join {
		db = db.Joins(rel)
	}
	if f.OrderBy != "" {
		db = db.Order(f.OrderBy)
	}
	if f.Limit > 0 {
		db = db.Limit(f.Limit)
	}
	if f.Offset > 0 {
		db = db.Offset(f.Offset)
	}
	return db
}

func includePaths(include []string) []string {
	var out []string
	for _, entry := range include {
		for _, p := range strings.Split(entry, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// Store is a typed view over one table. E is the GORM entity, V its view shape.
type Store[E any, V any] struct {
	db       *gorm.DB
	resource string
	toView   func(E) V
}

// NewStore returns a Store for E. resource names the entity in not-found errors.
func NewStore[E any, V any](db *gorm.DB, resource string, toView func(E) V) *Store[E, V] {
	return &Store[E, V]{db: db, resource: resource, toView: toView}
}

// DB exposes the underlying handle for specialised queries.
func (s *Store[E, V]) DB() *gorm.DB { return s.db }

// Begin starts a new unit of work on the store's connection.
func (s *Store[E, V]) Begin() *UnitOfWork { return NewUnitOfWork(s.db) }

// Entities runs f and returns the raw entities.
func (s *Store[E, V]) Entities(ctx context.Context, f Filter) ([]E, error) {
	ctx, span := observability.StartSpan(ctx, "repository", "Query",
		attribute.String("db.resource", s.resource))
	var out []E
	err := f.apply(s.db.WithContext(ctx).Model(new(E))).Find(&out).Error
	observability.EndSpan(span, err)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("query %s: %w", s.resource, err))
	}
	return out, nil
}

// Query runs f and maps every row to its view.
func (s *Store[E, V]) Query(ctx context.Context, f Filter) ([]V, error) {
	rows, err := s.Entities(ctx, f)
	if err != nil {
		return nil, err
	}
	views := make([]V, 0, len(rows))
	for _, row := range rows {
		views = append(views, s.toView(row))
	}
	return views, nil
}

// Get loads one entity by primary key.
func (s *Store[E, V]) Get(ctx context.Context, id uint, include ...string) (*E, error) {
	var out E
	db := s.db.WithContext(ctx)
	for _, path := range includePaths(include) {
		db = db.Preload(path)
	}
	if err := db.First(&out, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError(s.resource, id)
		}
		return nil, models.NewInternalError(fmt.Errorf("get %s %d: %w", s.resource, id, err))
	}
	return &out, nil
}

// View loads one entity by primary key and maps it.
func (s *Store[E, V]) View(ctx context.Context, id uint, include ...string) (V, error) {
	e, err := s.Get(ctx, id, include...)
	if err != nil {
		var zero V
		return zero, err
	}
	return s.toView(*e), nil
}

// First returns the first entity matching f, or a not-found error.
func (s *Store[E, V]) First(ctx context.Context, f Filter) (*E, error) {
	var out E
	err := f.apply(s.db.WithContext(ctx).Model(new(E))).First(&out).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError(s.resource, "matching filter")
		}
		return nil, models.NewInternalError(fmt.Errorf("first %s: %w", s.resource, err))
	}
	return &out, nil
}

// Count returns the number of rows matching where.
func (s *Store[E, V]) Count(ctx context.Context, where Predicate) (int64, error) {
	var n int64
	db := s.db.WithContext(ctx).Model(new(E))
	if where != nil {
		db = where(db)
	}
	if err := db.Count(&n).Error; err != nil {
		return 0, models.NewInternalError(fmt.Errorf("count %s: %w", s.resource, err))
	}
	return n, nil
}

// Exists reports whether any row matches where.
func (s *Store[E, V]) Exists(ctx context.Context, where Predicate) (bool, error) {
	n, err := s.Count(ctx, where)
	return n > 0, err
}
