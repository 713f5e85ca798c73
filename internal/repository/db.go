package repository

// scanner is satisfied by both *sql.Row and *sql.Rows so the per-table scan
// helpers can serve single and multi row reads.
type scanner interface {
	Scan(dest ...any) error
}
