package mariadb

// Result reports the outcome of a statement that returns no rows.
type Result struct {
	rowsAffected uint64
	lastInsertID uint64
}

// RowsAffected returns the number of rows changed, deleted or inserted.
// For a SELECT run through Exec it is the number of rows discarded.
func (r *Result) RowsAffected() uint64 {
	return r.rowsAffected
}

// LastInsertID returns the AUTO_INCREMENT value generated by the statement,
// or 0 when it generated none.
func (r *Result) LastInsertID() uint64 {
	return r.lastInsertID
}
