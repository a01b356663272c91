package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Storage failure kinds reported in ErrorDump.Kind.
const (
	KindRecordNotFound  = "record_not_found"
	KindUniqueViolation = "unique_violation"
	KindForeignKey      = "foreign_key_violation"
	KindNotNull         = "not_null_violation"
	KindCheck           = "check_violation"
	KindSerialization   = "serialization_failure"
	KindDeadlock        = "deadlock_detected"
	KindOtherPostgres   = "postgres_error"
)

var pgKinds = map[string]string{
	"23505": KindUniqueViolation,
	"23503": KindForeignKey,
	"23502": KindNotNull,
	"23514": KindCheck,
	"40001": KindSerialization,
	"40P01": KindDeadlock,
}

// ErrorDump is the log-side view of an error: its chain plus any Postgres
// diagnostics found while unwrapping.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`
	Kind       string `json:"kind,omitempty"`

	Chain []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`
}

// Dump unwraps err and collects what is useful for a log line.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		d.PGCode = pgxErr.Code
		d.PGConstraint = pgxErr.ConstraintName
		d.PGTable = pgxErr.TableName
		d.PGColumn = pgxErr.ColumnName
		d.PGDetail = pgxErr.Detail
		d.PGMessage = pgxErr.Message
	case errors.As(err, &pqErr):
		d.PGCode = string(pqErr.Code)
		d.PGConstraint = pqErr.Constraint
		d.PGTable = pqErr.Table
		d.PGColumn = pqErr.Column
		d.PGDetail = pqErr.Detail
		d.PGMessage = pqErr.Message
	}

	switch {
	case d.PGCode != "":
		d.Kind = pgKinds[d.PGCode]
		if d.Kind == "" {
			d.Kind = KindOtherPostgres
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		d.Kind = KindRecordNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		d.Kind = KindUniqueViolation
	}
	return d
}

// Retryable reports whether the storage failure clears on a fresh transaction.
func (d ErrorDump) Retryable() bool {
	return d.Kind == KindSerialization || d.Kind == KindDeadlock
}

// Fields renders the dump as structured log fields. Postgres fields are only
// present when a driver error was found.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	if d.Kind != "" {
		fields["error_kind"] = d.Kind
	}
	if d.PGCode != "" {
		fields["pg_code"] = d.PGCode
		fields["pg_constraint"] = d.PGConstraint
		fields["pg_table"] = d.PGTable
		fields["pg_detail"] = d.PGDetail
	}
	return fields
}
