package db

import (
	"github.com/go-faster/errors"
	"github.com/lib/pq"
)

const PgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == PgUniqueViolation
	}
	return false
}

const PgForeignKeyViolation = "23503"

// IsForeignKeyViolation reports whether err is a Postgres foreign key
// violation, typically a reference to a parent row that does not exist.
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == PgForeignKeyViolation
	}
	return false
}
