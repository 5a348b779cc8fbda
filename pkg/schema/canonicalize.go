package schema

import (
	"reconciled/pkg/parser"
	"reconciled/pkg/row"
)

// Canonicalize turns one side's RawTable into canonical Rows (C4): each
// record's columns are rewritten from source header to resolved role.
// Unclaimed columns are preserved under their original header so
// validation rules can still reference them via business["<header>"] /
// finance["<header>"]; they are never treated as canonical roles.
func Canonicalize(side *Side, table *parser.RawTable) row.Rows {
	columnRoles := ResolveColumnRoles(side, table.Headers)

	rows := make(row.Rows, 0, len(table.Records))
	for _, record := range table.Records {
		r := make(row.Row, len(record))
		for header, val := range record {
			key := header
			if role, ok := columnRoles[header]; ok {
				key = role
			}
			r[key] = row.String(val)
		}
		rows = append(rows, r)
	}
	return rows
}
