package parser

import (
	"errors"
	"strings"
)

// ErrTooFewRows is returned when the input holds no data row below the header.
var ErrTooFewRows = errors.New("csv must contain a header and at least one data row")

const bom = "\ufeff"

// Parse splits comma-separated text into rows of fields.
//
// Double quotes toggle quoting; a doubled quote inside a quoted field is a
// literal quote. Line breaks inside quotes are field content. CR, LF and
// CRLF all end a row outside quotes. Rows made only of blank fields are
// dropped.
func Parse(raw string) [][]string {
	raw = strings.TrimPrefix(raw, bom)

	var (
		rows     [][]string
		row      []string
		field    strings.Builder
		inQuotes bool
	)

	flushRow := func() {
		if field.Len() == 0 && len(row) == 0 {
			return
		}
		row = append(row, field.String())
		field.Reset()
		if !blankRow(row) {
			rows = append(rows, row)
		}
		row = nil
	}

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(raw) && raw[i+1] == '"' {
				field.WriteByte('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			row = append(row, field.String())
			field.Reset()
		case (c == '\n' || c == '\r') && !inQuotes:
			flushRow()
			if c == '\r' && i+1 < len(raw) && raw[i+1] == '\n' {
				i++
			}
		default:
			field.WriteByte(c)
		}
	}
	flushRow()

	return rows
}

// ParseTable parses raw and splits off the header row.
func ParseTable(raw string) (header []string, rows [][]string, err error) {
	all := Parse(raw)
	if len(all) < 2 {
		return nil, nil, ErrTooFewRows
	}
	return all[0], all[1:], nil
}

func blankRow(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
