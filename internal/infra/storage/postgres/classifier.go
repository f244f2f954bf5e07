package postgres

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/vietddude/dbguard/internal/core/dberr"
)

// Translator maps pgx and lib/pq failures onto the store-neutral variants.
type Translator struct{}

// NewClassifier returns the classifier for PostgreSQL-backed operations.
func NewClassifier() dberr.Classifier {
	return dberr.NewClassifier(Translator{})
}

// Translate implements dberr.Translator.
func (Translator) Translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fromSQLState(pgErr.Code, pgErr.Message, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fromSQLState(string(pqErr.Code), pqErr.Message, err)
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return &dberr.KnownRequestError{Code: dberr.CodeNotFound, Message: "record not found", Err: err}
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone):
		return &dberr.KnownRequestError{Code: dberr.CodeConnectionClosed, Message: err.Error(), Err: err}
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return &dberr.InitializationError{Message: connectErr.Error(), Err: err}
	}

	if pgconn.Timeout(err) {
		return &dberr.KnownRequestError{Code: dberr.CodeOperationTimedOut, Message: err.Error(), Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &dberr.KnownRequestError{Code: dberr.CodeServerTimeout, Message: err.Error(), Err: err}
		}
		var opErr *net.OpError
		if errors.As(err, &opErr) && opErr.Op == "dial" {
			return &dberr.KnownRequestError{Code: dberr.CodeConnectRefused, Message: err.Error(), Err: err}
		}
		return &dberr.KnownRequestError{Code: dberr.CodeConnectionClosed, Message: err.Error(), Err: err}
	}

	return nil
}

// fromSQLState translates a PostgreSQL error code.
// See https://www.postgresql.org/docs/current/errcodes-appendix.html
func fromSQLState(code, msg string, err error) error {
	switch code {
	case "23505": // unique_violation
		return &dberr.KnownRequestError{Code: dberr.CodeUniqueViolation, Message: msg, Err: err}
	case "23503": // foreign_key_violation, the referenced row does not exist
		return &dberr.KnownRequestError{Code: dberr.CodeNotFound, Message: msg, Err: err}
	case "57014": // query_canceled (statement_timeout)
		return &dberr.KnownRequestError{Code: dberr.CodeOperationTimedOut, Message: msg, Err: err}
	case "57P01", "57P02": // admin_shutdown, crash_shutdown
		return &dberr.KnownRequestError{Code: dberr.CodeConnectionClosed, Message: msg, Err: err}
	case "57P03", "08001", "08004": // cannot_connect_now, unable to establish, rejected
		return &dberr.KnownRequestError{Code: dberr.CodeConnectRefused, Message: msg, Err: err}
	case "53300": // too_many_connections
		return &dberr.KnownRequestError{Code: dberr.CodePoolTimeout, Message: msg, Err: err}
	case "40001", "40P01": // serialization_failure, deadlock_detected
		return &dberr.UnknownRequestError{Message: msg, Err: err}
	case "XX000", "XX001", "XX002": // internal_error, data_corrupted, index_corrupted
		return &dberr.EnginePanicError{Message: msg, Err: err}
	}

	switch {
	case strings.HasPrefix(code, "08"):
		return &dberr.KnownRequestError{Code: dberr.CodeConnectionClosed, Message: msg, Err: err}
	case strings.HasPrefix(code, "42"):
		return &dberr.QueryValidationError{Message: msg, Err: err}
	case strings.HasPrefix(code, "22"):
		return &dberr.KnownRequestError{Code: dberr.CodeQueryValidation, Message: msg, Err: err}
	}

	// Unlisted codes stay terminal but keep the SQLSTATE for diagnostics.
	return &dberr.KnownRequestError{Code: code, Message: msg, Err: err}
}
