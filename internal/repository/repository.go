package repository

import (
	"database/sql"
	"errors"
)

// ErrNoRowsAffected signals a conditional write that matched nothing.
var ErrNoRowsAffected = errors.New("no rows affected")

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
