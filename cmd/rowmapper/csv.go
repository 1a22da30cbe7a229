package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"rowmapper/mapper"
)

// readCSV reads a CSV file whose first record is the header.
func readCSV(path string) ([]string, []mapper.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%s has no header", path)
	}

	header := records[0]
	rows := make([]mapper.Row, len(records)-1)

	for i, rec := range records[1:] {
		row := make(mapper.Row, len(header))
		for j, col := range header {
			row[col] = rec[j]
		}

		rows[i] = row
	}

	return header, rows, nil
}

// writeCSV writes the header and one record per row; missing cells are empty.
func writeCSV(w io.Writer, header []string, rows []mapper.Row) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return err
	}

	rec := make([]string, len(header))

	for _, row := range rows {
		for i, col := range header {
			rec[i] = row[col]
		}

		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}
