package db

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

const errDupEntry = 1062

// IsDuplicateKey reports a MySQL unique-key violation.
func IsDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == errDupEntry
	}
	return false
}
