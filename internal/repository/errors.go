package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// IsDuplicate - signals that the error is a duplicate key violation.
func IsDuplicate(err error) bool {
	var pgerr *pgconn.PgError
	return errors.As(err, &pgerr) && pgerr.Code == "23505"
}

// IsNotFound - signals that the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsTransient reports whether the error looks like a connectivity or
// timeout failure worth retrying at the infrastructure boundary.
func IsTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && len(pgerr.Code) >= 2 {
		// Class 08 - connection exceptions, 57P0x - shutdown/crash.
		return pgerr.Code[:2] == "08" || pgerr.Code == "57P01" || pgerr.Code == "57P02" || pgerr.Code == "57P03"
	}
	return false
}
