package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PersistenceError is returned when a commit fails. The transaction has been rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

type stagedOp struct {
	name string
	run  func(tx *gorm.DB) *gorm.DB
}

// UnitOfWork stages writes and applies them in one transaction on Commit.
// It is meant for a single operation and must not be shared between requests.
type UnitOfWork struct {
	db  *gorm.DB
	mu  sync.Mutex
	ops []stagedOp
}

// NewUnitOfWork returns an empty unit of work bound to db.
func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

func (u *UnitOfWork) stage(name string, run func(tx *gorm.DB) *gorm.DB) *UnitOfWork {
	u.mu.Lock()
	u.ops = append(u.ops, stagedOp{name: name, run: run})
	u.mu.Unlock()
	return u
}

// Create stages an insert of entity, which must be a pointer.
func (u *UnitOfWork) Create(entity any) *UnitOfWork {
	return u.stage(opName("create", entity), func(tx *gorm.DB) *gorm.DB {
		return tx.Omit(clause.Associations).Create(entity)
	})
}

// Update stages a full-row update keyed by primary key. Associations are left alone.
func (u *UnitOfWork) Update(entity any) *UnitOfWork {
	return u.stage(opName("update", entity), func(tx *gorm.DB) *gorm.DB {
		return tx.Omit(clause.Associations).Save(entity)
	})
}

// UpdateColumns stages an update of only the named columns, keyed by primary key.
// Columns not listed keep whatever value the row holds at commit time.
func (u *UnitOfWork) UpdateColumns(entity any, columns ...string) *UnitOfWork {
	return u.stage(opName("update", entity), func(tx *gorm.DB) *gorm.DB {
		return tx.Model(entity).Select(columns).Updates(entity)
	})
}

// Delete stages a delete keyed by entity's primary key.
func (u *UnitOfWork) Delete(entity any) *UnitOfWork {
	return u.stage(opName("delete", entity), func(tx *gorm.DB) *gorm.DB {
		return tx.Delete(entity)
	})
}

// DeleteWhere stages a bulk delete of model rows matching where. A nil where is refused at commit.
func (u *UnitOfWork) DeleteWhere(model any, where Predicate) *UnitOfWork {
	return u.stage(opName("delete_where", model), func(tx *gorm.DB) *gorm.DB {
		if where == nil {
			_ = tx.AddError(gorm.ErrMissingWhereClause)
			return tx
		}
		return where(tx).Delete(model)
	})
}

// Exec stages a custom statement, e.g. an atomic counter update.
func (u *UnitOfWork) Exec(name string, run func(tx *gorm.DB) *gorm.DB) *UnitOfWork {
	return u.stage(name, run)
}

// Pending returns the number of staged operations.
func (u *UnitOfWork) Pending() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.ops)
}

// Commit applies every staged operation in one transaction and returns the
// total rows affected. Staged operations are consumed either way.
func (u *UnitOfWork) Commit(ctx context.Context) (int64, error) {
	u.mu.Lock()
	ops := u.ops
	u.ops = nil
	u.mu.Unlock()

	if len(ops) == 0 {
		return 0, nil
	}

	var affected int64
	failed := "commit"
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, op := range ops {
			res := op.run(tx)
			if res.Error != nil {
				failed = op.name
				return res.Error
			}
			affected += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, &PersistenceError{Op: failed, Err: err}
	}
	return affected, nil
}

func opName(verb string, entity any) string {
	name := fmt.Sprintf("%T", entity)
	name = strings.TrimLeft(name, "*[]")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return verb + " " + strings.ToLower(name)
}

// IsUniqueViolation reports whether err comes from a unique index.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key")
}
