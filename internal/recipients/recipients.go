// Package recipients reads recipient rows from uploaded CSV or TXT files and
// from manual form entries.
package recipients

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"certgen/internal/models"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	ErrUnsupportedFile = errors.New("recipient file must be .csv or .txt")
	ErrNoRecipients    = errors.New("no recipients found")
)

const (
	colName = iota
	colAward
	colDate
	colIssuer
	numColumns
)

// header names, lower-cased, per column
var headerAliases = map[string]int{
	"name":         colName,
	"recipient":    colName,
	"full name":    colName,
	"fullname":     colName,
	"award":        colAward,
	"title":        colAward,
	"achievement":  colAward,
	"date":         colDate,
	"issued":       colDate,
	"issue date":   colDate,
	"issuer":       colIssuer,
	"issued by":    colIssuer,
	"organization": colIssuer,
	"organisation": colIssuer,
}

// Parse dispatches on the file extension.
func Parse(filename string, r io.Reader) ([]models.Recipient, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ParseCSV(r)
	case ".txt":
		return ParseTXT(r)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFile, filename)
}

// ParseCSV reads a comma or semicolon separated file. A first row made of
// known column names is treated as a header; otherwise columns are read as
// name, award, date, issuer. Rows without a name are skipped.
func ParseCSV(r io.Reader) ([]models.Recipient, error) {
	data, err := io.ReadAll(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoRecipients
	}

	columns, ok := headerColumns(records[0])
	if ok {
		records = records[1:]
	} else {
		columns = [numColumns]int{colName, colAward, colDate, colIssuer}
	}

	var rows []models.Recipient
	for _, record := range records {
		row := models.Recipient{
			Name:   getCell(record, columns[colName]),
			Award:  getCell(record, columns[colAward]),
			Date:   getCell(record, columns[colDate]),
			Issuer: getCell(record, columns[colIssuer]),
		}
		if row.Name == "" {
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrNoRecipients
	}
	return rows, nil
}

// sniffDelimiter picks ';' when the first line has more semicolons than
// commas, as spreadsheets in comma-decimal locales export.
func sniffDelimiter(data []byte) rune {
	line, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

// headerColumns maps each column to its index in the header, -1 if absent.
// ok is false when the row does not name the name column.
func headerColumns(header []string) (columns [numColumns]int, ok bool) {
	for i := range columns {
		columns[i] = -1
	}
	for i, h := range header {
		col, known := headerAliases[strings.ToLower(strings.TrimSpace(h))]
		if known && columns[col] < 0 {
			columns[col] = i
		}
	}
	return columns, columns[colName] >= 0
}

func getCell(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

// ParseTXT reads one name per line.
func ParseTXT(r io.Reader) ([]models.Recipient, error) {
	scanner := bufio.NewScanner(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	var rows []models.Recipient
	for scanner.Scan() {
		if name := strings.TrimSpace(scanner.Text()); name != "" {
			rows = append(rows, models.Recipient{Name: name})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read txt: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoRecipients
	}
	return rows, nil
}

// FromManual cleans rows typed into the form.
func FromManual(entries []models.Recipient) ([]models.Recipient, error) {
	rows := make([]models.Recipient, 0, len(entries))
	for _, e := range entries {
		row := models.Recipient{
			Name:   strings.TrimSpace(e.Name),
			Award:  strings.TrimSpace(e.Award),
			Date:   strings.TrimSpace(e.Date),
			Issuer: strings.TrimSpace(e.Issuer),
		}
		if row.Name != "" {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return nil, ErrNoRecipients
	}
	return rows, nil
}
