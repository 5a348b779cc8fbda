package parser

import (
	"os"
	"path/filepath"
	"strings"

	"reconciled/pkg/reconerr"
)

// Read dispatches on a file's extension to the delimited or spreadsheet
// reader (C3). sheet is only consulted for .xlsx/.xls inputs.
func Read(path, sheet string) (*RawTable, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xlsx", ".xls":
		return ParseSpreadsheet(path, sheet)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, reconerr.Wrap(reconerr.ReadFailed, path, err)
		}
		table, err := ParseDelimited(data)
		if err != nil {
			if re, ok := err.(*reconerr.Error); ok {
				return nil, &reconerr.Error{Kind: re.Kind, Context: path, Cause: re.Cause}
			}
			return nil, reconerr.Wrap(reconerr.ReadFailed, path, err)
		}
		return table, nil
	}
}
