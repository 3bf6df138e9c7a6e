package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"storefront-checkout/internal/domain"
)

type FieldWriter interface {
	SetField(ctx context.Context, host, field string, enabled bool) error
}

var knownFields = map[string]bool{
	domain.FieldCountry:         true,
	domain.FieldCounty:          true,
	domain.FieldRegistryCode:    true,
	domain.FieldCNP:             true,
	domain.FieldPaymentCard:     true,
	domain.FieldPaymentTransfer: true,
}

// CSVImporter reads tenant field toggles (host,field,enabled) and applies
// them. A row with an empty host continues the previous host.
type CSVImporter struct {
	reader *csv.Reader
	fields FieldWriter
}

func NewCSVImporter(r io.Reader, fields FieldWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{reader: csvr, fields: fields}
}

type csvRow struct {
	Host    string
	Field   string
	Enabled bool
}

// Run applies every row and returns how many toggles were written.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, col := range []string{"host", "field", "enabled"} {
		if _, ok := index[col]; !ok {
			return 0, fmt.Errorf("missing column %q", col)
		}
	}

	var (
		host     string
		imported int
		line     = 1
	)
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}

		row, err := parseRow(record, index, host)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		if row == nil {
			continue
		}
		host = row.Host
		if err := i.fields.SetField(ctx, row.Host, row.Field, row.Enabled); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return imported, fmt.Errorf("line %d: unknown tenant %q", line, row.Host)
			}
			return imported, fmt.Errorf("line %d: set %s on %s: %w", line, row.Field, row.Host, err)
		}
		imported++
	}
	return imported, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int, prevHost string) (*csvRow, error) {
	host := strings.ToLower(pick(record, index, "host"))
	field := pick(record, index, "field")
	enabledStr := pick(record, index, "enabled")

	if host == "" && field == "" {
		return nil, nil
	}
	if host == "" {
		if prevHost == "" {
			return nil, errors.New("host is required on the first row")
		}
		host = prevHost
	}
	if !knownFields[field] {
		return nil, fmt.Errorf("unknown field %q", field)
	}
	enabled, err := strconv.ParseBool(enabledStr)
	if err != nil {
		return nil, fmt.Errorf("invalid enabled value %q", enabledStr)
	}
	return &csvRow{Host: host, Field: field, Enabled: enabled}, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
