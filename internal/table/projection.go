package table

// Record is one canonical row held by a table controller. Key must be unique
// within a fetched page.
type Record interface {
	Key() string
}

// Projector flattens one canonical record into zero or more display rows.
// Implementations must be pure: no mutation of the input, same output for the
// same input. A record whose nested children are empty or absent projects to
// zero rows.
type Projector[R Record, Row any] func(R) []Row

// Project applies p depth-first over records, preserving input order.
// Display rows are always rebuilt from the canonical set, never patched in
// place, so the projection can't drift from the records it was derived from.
func Project[R Record, Row any](records []R, p Projector[R, Row]) []Row {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, p(r)...)
	}
	return rows
}
