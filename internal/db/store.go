package db

import (
	"database/sql"
	"strings"

	"github.com/hpungsan/trail/internal/errors"
)

// Store wraps a *sql.DB with typed queries for the trail schema.
// It is shared by the mapper engine, the operation layer, and the
// capture/OCR collaborators; all access goes through the same pool.
type Store struct {
	conn *sql.DB
}

// NewStore creates a Store over an initialized database.
func NewStore(conn *sql.DB) *Store {
	return &Store{conn: conn}
}

// DB exposes the underlying connection for callers that manage lifecycle.
func (s *Store) DB() *sql.DB {
	return s.conn
}

// isConstraintError checks if the error is a SQLite constraint violation.
func isConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "constraint failed")
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// toNullInt64 converts a *int64 to sql.NullInt64.
func toNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// fromNullInt64 converts a sql.NullInt64 to *int64.
func fromNullInt64(nv sql.NullInt64) *int64 {
	if !nv.Valid {
		return nil
	}
	return &nv.Int64
}

// toNullFloat64 converts a *float64 to sql.NullFloat64.
func toNullFloat64(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// fromNullFloat64 converts a sql.NullFloat64 to *float64.
func fromNullFloat64(nv sql.NullFloat64) *float64 {
	if !nv.Valid {
		return nil
	}
	return &nv.Float64
}

// wrapConstraint maps constraint violations to a conflict error and
// everything else to internal.
func wrapConstraint(err error, msg string) error {
	if isConstraintError(err) {
		return errors.NewConflict(msg)
	}
	return errors.NewInternal(err)
}
