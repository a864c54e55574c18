package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrorDump is the log-side view of an error. Nothing in it is sent to clients.
type ErrorDump struct {
	Message   string `json:"message"`
	Code      Code   `json:"code,omitempty"`
	Status    int    `json:"status,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`

	Chain []string `json:"chain,omitempty"`

	Driver       string `json:"driver,omitempty"`
	SQLState     string `json:"sql_state,omitempty"`
	Constraint   string `json:"constraint,omitempty"`
	Table        string `json:"table,omitempty"`
	Column       string `json:"column,omitempty"`
	Detail       string `json:"detail,omitempty"`
	DriverReason string `json:"driver_reason,omitempty"`
}

// Dump walks err and collects the outermost storefront code with its HTTP
// mapping, every message in the chain, and whatever the Postgres or SQLite
// driver reported about the failing statement.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{Message: err.Error()}
	if te := As(err); te != nil {
		meta := MetadataFor(te.Code())
		d.Code = te.Code()
		d.Status = meta.HTTPStatus
		d.Retryable = meta.Retryable
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	var liteErr sqlite3.Error
	switch {
	case errors.As(err, &pgxErr):
		d.Driver = DriverPostgres
		d.SQLState = pgxErr.Code
		d.Constraint = pgxErr.ConstraintName
		d.Table = pgxErr.TableName
		d.Column = pgxErr.ColumnName
		d.Detail = pgxErr.Detail
		d.DriverReason = pgxErr.Message
	case errors.As(err, &pqErr):
		d.Driver = DriverPostgres
		d.SQLState = string(pqErr.Code)
		d.Constraint = pqErr.Constraint
		d.Table = pqErr.Table
		d.Column = pqErr.Column
		d.Detail = pqErr.Detail
		d.DriverReason = pqErr.Message
	case errors.As(err, &liteErr):
		d.Driver = DriverSQLite
		d.SQLState = fmt.Sprintf("%d", int(liteErr.ExtendedCode))
		d.DriverReason = liteErr.Error()
	}
	return d
}

// Fields renders the dump as structured log fields, omitting empty driver data.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.Message,
		"error_code":  d.Code,
		"error_chain": d.Chain,
		"retryable":   d.Retryable,
	}
	if d.Driver == "" {
		return fields
	}
	fields["db_driver"] = d.Driver
	fields["db_state"] = d.SQLState
	if d.Constraint != "" {
		fields["db_constraint"] = d.Constraint
	}
	if d.Detail != "" {
		fields["db_detail"] = d.Detail
	}
	if d.DriverReason != "" {
		fields["db_reason"] = d.DriverReason
	}
	return fields
}
