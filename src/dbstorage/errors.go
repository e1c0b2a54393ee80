package dbstorage

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/andrewyi/wikiimporter/src/entity"
)

var (
	ErrStorageUnavailable  = errors.New("storage unavailable")
	ErrSchema              = errors.New("schema error")
	ErrMalformedRecord     = entity.ErrMalformedRecord
	ErrConstraintViolation = errors.New("constraint violation")
	ErrHandleClosed        = errors.New("handle closed")
	ErrWriteFailed         = errors.New("write failed")
)

// WriteError 写入失败时携带实体类型与标识，便于定位出错的记录
type WriteError struct {
	Entity   string
	Identity string
	Kind     error
	Err      error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("fail to write %s %s: %v: %v", e.Entity, e.Identity, e.Kind, e.Err)
}

func (e *WriteError) Is(target error) bool {
	return target == e.Kind
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func newWriteError(entityName, identity string, err error) error {
	kind := ErrWriteFailed
	switch {
	case errors.Is(err, ErrMalformedRecord):
		kind = ErrMalformedRecord
	case errors.Is(err, ErrHandleClosed):
		kind = ErrHandleClosed
	case isConstraintViolation(err):
		kind = ErrConstraintViolation
	}
	return &WriteError{
		Entity:   entityName,
		Identity: identity,
		Kind:     kind,
		Err:      err,
	}
}

// 外键、唯一性、非空约束均视为ConstraintViolation
func isConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "23" // integrity_constraint_violation
	}
	return false
}
