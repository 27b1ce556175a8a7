package repository

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// MySQL error numbers that mean "the transaction lost a lock race, try again".
const (
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
)

// WithTx runs fn inside a single transaction. The transaction is committed when
// fn returns nil and rolled back otherwise.
//
// When the database aborts the transaction because of a deadlock or a lock
// wait timeout, the whole unit is replayed, up to attempts times in total.
// Any other error is returned as-is after the first attempt.
func WithTx(ctx context.Context, database *gorm.DB, attempts int, fn func(tx *gorm.DB) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		err = database.WithContext(ctx).Transaction(fn)
		if err == nil || !IsRetryable(err) || ctx.Err() != nil {
			return err
		}
	}
	return err
}

// IsRetryable reports whether err is a transient lock conflict.
func IsRetryable(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlErrDeadlock || myErr.Number == mysqlErrLockWaitTimeout
	}
	return false
}
