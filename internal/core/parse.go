package core

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// ParseTable turns comma-separated text into a Table.
//
// The first record is the header; every following record must have the same
// number of fields. Quoted fields may contain commas and newlines. Cells keep
// their raw text, header names are trimmed.
func ParseTable(name string, r io.Reader) (*Table, error) {
	text, err := ReadBody(r)
	if err != nil {
		return nil, &ParseError{Dataset: name, Err: err}
	}
	return parseText(name, text)
}

func parseText(name, text string) (*Table, error) {
	reader := csv.NewReader(strings.NewReader(text))
	// 0 = the header fixes the field count for every later record
	reader.FieldsPerRecord = 0

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Dataset: name, Err: ErrEmptyBody}
		}
		return nil, wrapCSVError(name, err)
	}

	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, wrapCSVError(name, err)
		}

		row := make(Row, len(record))
		for i, v := range record {
			row[i] = Cell(v)
		}
		rows = append(rows, row)
	}

	t, err := NewTable(name, header, rows)
	if err != nil {
		return nil, &ParseError{Dataset: name, Err: err}
	}
	return t, nil
}

// wrapCSVError keeps the line number reported by encoding/csv.
func wrapCSVError(name string, err error) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &ParseError{Dataset: name, Line: csvErr.Line, Err: csvErr.Err}
	}
	return &ParseError{Dataset: name, Err: err}
}
