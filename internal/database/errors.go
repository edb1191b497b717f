package database

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const mysqlDuplicateEntry = 1062

// IsUniqueViolation reports whether err is a duplicate-key error from either
// supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		// the primary code is checked as well in case extended codes are off
		if liteErr.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
			return false
		}
		return strings.Contains(liteErr.Error(), "UNIQUE")
	}
	return false
}
