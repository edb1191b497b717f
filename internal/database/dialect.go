package database

// Dialect captures the handful of statements that differ between MySQL and
// SQLite.  Everything else in the repositories is portable SQL with "?"
// placeholders.
type Dialect struct {
	Name string

	// CartMerge inserts (user_id, product_id, quantity) or adds quantity to
	// the existing row for the same pair in one statement.
	CartMerge string

	// InsertIgnore prefixes an INSERT that silently skips duplicate keys.
	InsertIgnore string

	schema []string
}

var mysqlDialect = Dialect{
	Name: "mysql",
	CartMerge: `INSERT INTO cart_items (user_id, product_id, quantity) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity)`,
	InsertIgnore: "INSERT IGNORE INTO",
	schema:       mysqlSchema,
}

var sqliteDialect = Dialect{
	Name: "sqlite",
	CartMerge: `INSERT INTO cart_items (user_id, product_id, quantity) VALUES (?, ?, ?)
		ON CONFLICT(user_id, product_id) DO UPDATE SET quantity = cart_items.quantity + excluded.quantity`,
	InsertIgnore: "INSERT OR IGNORE INTO",
	schema:       sqliteSchema,
}

// DialectFor returns the dialect for a database/sql driver name.  Unknown
// drivers get the MySQL dialect, which is the production default.
func DialectFor(driverName string) Dialect {
	if driverName == "sqlite" {
		return sqliteDialect
	}
	return mysqlDialect
}
