package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"reconciled/pkg/reconerr"
)

// ParseWarning is a non-fatal issue encountered while reading one file.
type ParseWarning struct {
	Row     int
	Message string
}

// RawTable is the direct, un-role-resolved output of reading one file:
// headers in original column order plus one map per data row, keyed by
// trimmed header. Coercion to roles and scalar types happens downstream
// (C4, C5) — C3 only decodes and tabulates.
type RawTable struct {
	Headers []string
	Records []map[string]string
	Encoding string
	Delimiter rune
	Warnings []ParseWarning
}

// ParseDelimited parses CSV/TSV/TXT bytes into a RawTable. Encoding is
// detected via DetectAndDecode; the field delimiter is sniffed from the
// header line among comma, semicolon, and tab, defaulting to comma if none
// of the candidates appear.
func ParseDelimited(data []byte) (*RawTable, error) {
	decoded, encName, err := DetectAndDecode(data)
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(decoded)) == 0 {
		return nil, reconerr.New(reconerr.EmptyFile, "no data")
	}

	delim := sniffDelimiter(decoded)

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, reconerr.New(reconerr.EmptyFile, "no header row")
	}
	if err != nil {
		return nil, reconerr.Wrap(reconerr.ReadFailed, "header row", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}
	headerCount := len(headers)

	table := &RawTable{Headers: headers, Encoding: encName, Delimiter: delim}
	rowNum := 1

	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			table.Warnings = append(table.Warnings, ParseWarning{Row: rowNum, Message: fmt.Sprintf("parse error: %v", err)})
			continue
		}

		if len(fields) != headerCount {
			gotCount := len(fields)
			if gotCount < headerCount {
				padded := make([]string, headerCount)
				copy(padded, fields)
				fields = padded
				table.Warnings = append(table.Warnings, ParseWarning{Row: rowNum, Message: fmt.Sprintf("row has %d columns, expected %d; padded with empty values", gotCount, headerCount)})
			} else {
				fields = fields[:headerCount]
				table.Warnings = append(table.Warnings, ParseWarning{Row: rowNum, Message: fmt.Sprintf("row has %d columns, expected %d; truncated extra columns", gotCount, headerCount)})
			}
		}

		record := make(map[string]string, headerCount)
		for i, h := range headers {
			record[h] = fields[i]
		}
		table.Records = append(table.Records, record)
	}

	if len(table.Records) == 0 {
		return nil, reconerr.New(reconerr.EmptyFile, "no data rows")
	}

	return table, nil
}

// sniffDelimiter inspects the first line for the most plausible field
// delimiter among comma, semicolon, and tab — whichever appears most
// often, with comma as the tie-break default.
func sniffDelimiter(data []byte) rune {
	nl := bytes.IndexByte(data, '\n')
	line := data
	if nl >= 0 {
		line = data[:nl]
	}
	counts := map[rune]int{
		',':  bytes.Count(line, []byte{','}),
		';':  bytes.Count(line, []byte{';'}),
		'\t': bytes.Count(line, []byte{'\t'}),
	}
	best := ','
	bestCount := counts[',']
	for _, d := range []rune{';', '\t'} {
		if counts[d] > bestCount {
			best = d
			bestCount = counts[d]
		}
	}
	return best
}
