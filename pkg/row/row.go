package row

// Row is a canonical record: canonical role name (or, for unclaimed
// source columns, the original header) mapped to its scalar Value.
type Row map[string]Value

// Clone returns a shallow copy of r; Values are themselves immutable
// scalars so a shallow copy is a safe independent copy.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Get returns the value at role, or Null if absent — this is the
// "missing -> null" rule used throughout the predicate language and
// validation evaluator.
func (r Row) Get(role string) Value {
	if v, ok := r[role]; ok {
		return v
	}
	return Null
}

// Rows is an ordered sequence of Row; order is preserved from file read
// order through cleaning and is part of several determinism guarantees
// (issue emission order is scan order over candidates).
type Rows []Row
