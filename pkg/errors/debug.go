package errors

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// ErrorDump flattens an error chain for structured logs. Driver fields are
// filled from the first Postgres or SQLite error found in the chain.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	Driver     string `json:"driver,omitempty"`
	DBCode     string `json:"db_code,omitempty"`
	Constraint string `json:"db_constraint,omitempty"`
	Table      string `json:"db_table,omitempty"`
	Column     string `json:"db_column,omitempty"`
	Detail     string `json:"db_detail,omitempty"`
	DBMessage  string `json:"db_message,omitempty"`
}

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

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		d.Driver = "postgres"
		d.DBCode = pgErr.Code
		d.Constraint = pgErr.ConstraintName
		d.Table = pgErr.TableName
		d.Column = pgErr.ColumnName
		d.Detail = pgErr.Detail
		d.DBMessage = pgErr.Message
		return d
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		d.Driver = "sqlite"
		d.DBCode = strconv.Itoa(int(liteErr.ExtendedCode))
		d.DBMessage = liteErr.Error()
	}
	return d
}

// Fields renders the dump as logger fields, leaving out empty driver data.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	if d.Driver == "" {
		return fields
	}
	fields["db_driver"] = d.Driver
	fields["db_code"] = d.DBCode
	fields["db_message"] = d.DBMessage
	for key, value := range map[string]string{
		"db_constraint": d.Constraint,
		"db_table":      d.Table,
		"db_column":     d.Column,
		"db_detail":     d.Detail,
	} {
		if value != "" {
			fields[key] = value
		}
	}
	return fields
}
