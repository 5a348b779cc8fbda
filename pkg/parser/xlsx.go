package parser

import (
	"strings"

	"github.com/xuri/excelize/v2"

	"reconciled/pkg/reconerr"
)

// ParseSpreadsheet reads a .xlsx/.xls file into a RawTable. sheet selects a
// worksheet by name; an empty sheet reads the workbook's first
// worksheet, per §4.3's default.
func ParseSpreadsheet(path, sheet string) (*RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, reconerr.Wrap(reconerr.ReadFailed, path, err)
	}
	defer f.Close()

	sheetName := sheet
	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, reconerr.Wrap(reconerr.ReadFailed, path, err)
	}

	var headerIdx int
	var headers []string
	for i, r := range rows {
		if nonEmpty(r) {
			headers = trimAll(r)
			headerIdx = i
			break
		}
	}
	if headers == nil {
		return nil, reconerr.New(reconerr.EmptyFile, path)
	}
	headerCount := len(headers)

	table := &RawTable{Headers: headers, Encoding: "utf-8"}

	for _, r := range rows[headerIdx+1:] {
		if !nonEmpty(r) {
			continue
		}
		fields := make([]string, headerCount)
		for i := range fields {
			if i < len(r) {
				fields[i] = r[i]
			}
		}
		record := make(map[string]string, headerCount)
		for i, h := range headers {
			record[h] = fields[i]
		}
		table.Records = append(table.Records, record)
	}

	if len(table.Records) == 0 {
		return nil, reconerr.New(reconerr.EmptyFile, path)
	}

	return table, nil
}

func nonEmpty(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return true
		}
	}
	return false
}

func trimAll(r []string) []string {
	out := make([]string, len(r))
	for i, s := range r {
		out[i] = strings.TrimSpace(s)
	}
	return out
}
