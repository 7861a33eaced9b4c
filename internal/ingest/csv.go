// Package ingest reads raw financial records out of CSV exports. It handles
// the header variations real exports carry (column aliases, reordered
// columns) and accumulates per-row parse errors up to a limit instead of
// failing on the first bad row. Field-level validation of transaction
// records is deliberately left to the normalizer; this package only maps
// columns to raw fields.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang-finops-engine/internal/models"
	"golang-finops-engine/pkg/errors"
	"golang-finops-engine/pkg/logger"
)

// Stats summarizes one file read.
type Stats struct {
	RowsRead   int `json:"rows_read"`
	RowsParsed int `json:"rows_parsed"`
	RowsFailed int `json:"rows_failed"`
}

// Config controls CSV reading for raw transaction records.
type Config struct {
	// Delimiter is the CSV field separator.
	Delimiter rune `json:"delimiter"`

	// MaxErrors aborts the read when this many row errors accumulate.
	MaxErrors int `json:"max_errors"`

	// ColumnAliases maps alternative header names onto canonical ones.
	ColumnAliases map[string]string `json:"column_aliases"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Delimiter: ',',
		MaxErrors: 100,
		ColumnAliases: map[string]string{
			"txn_id":         "id",
			"transaction_id": "id",
			"trx_id":         "id",
			"account":        "account_id",
			"acct":           "account_id",
			"posting_date":   "date",
			"value_date":     "date",
			"transaction_date": "date",
			"amt":            "amount",
			"value":          "amount",
			"memo":           "description",
			"narration":      "description",
			"ref":            "reference_number",
			"reference":      "reference_number",
			"check_number":   "reference_number",
		},
	}
}

// canonical column names for raw transaction records.
var recordColumns = []string{"id", "account_id", "date", "amount", "description", "reference_number", "category"}

// requiredRecordColumns must be present in the header.
var requiredRecordColumns = []string{"id", "date", "amount"}

// ReadRecords reads raw transaction records from a CSV file. Rows that fail
// to read are collected into the returned error summary; the successfully
// parsed rows are still returned alongside it.
func ReadRecords(path string, config *Config) ([]models.RawRecord, *Stats, error) {
	if config == nil {
		config = DefaultConfig()
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, nil, errors.FileError(errors.CodeFileNotFound, path, err)
	}
	defer file.Close()

	return readRecords(file, path, config)
}

func readRecords(r io.Reader, path string, config *Config) ([]models.RawRecord, *Stats, error) {
	reader := csv.NewReader(r)
	reader.Comma = config.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, errors.ParseError(errors.CodeInvalidFormat, path, 1, "", "", err)
	}

	columns, err := mapColumns(header, config, path)
	if err != nil {
		return nil, nil, err
	}

	stats := &Stats{}
	records := make([]models.RawRecord, 0, 128)
	var rowErrors []*errors.EngineError

	tracker := logger.NewProgressTracker(nil, fmt.Sprintf("read %s", path), 0)
	defer tracker.Done()

	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++

		if err != nil {
			stats.RowsRead++
			stats.RowsFailed++
			rowErrors = append(rowErrors, errors.ParseError(errors.CodeInvalidFormat, path, line, "", "", err))
			if len(rowErrors) >= config.MaxErrors {
				return records, stats, errors.NewErrorSummary(rowErrors)
			}
			continue
		}

		stats.RowsRead++
		if isEmptyRow(row) {
			continue
		}

		record, rowErr := buildRecord(row, columns, path, line)
		if rowErr != nil {
			stats.RowsFailed++
			rowErrors = append(rowErrors, rowErr)
			if len(rowErrors) >= config.MaxErrors {
				return records, stats, errors.NewErrorSummary(rowErrors)
			}
			continue
		}

		records = append(records, record)
		stats.RowsParsed++
		tracker.Update(int64(stats.RowsParsed))
	}

	if len(rowErrors) > 0 {
		return records, stats, errors.NewErrorSummary(rowErrors)
	}
	return records, stats, nil
}

// mapColumns resolves the header into canonical column positions,
// applying aliases and rejecting files missing required columns.
func mapColumns(header []string, config *Config, path string) (map[string]int, error) {
	positions := make(map[string]int)

	for i, name := range header {
		canonical := strings.ToLower(strings.TrimSpace(name))
		if alias, ok := config.ColumnAliases[canonical]; ok {
			canonical = alias
		}
		for _, known := range recordColumns {
			if canonical == known {
				positions[known] = i
				break
			}
		}
	}

	for _, required := range requiredRecordColumns {
		if _, ok := positions[required]; !ok {
			return nil, errors.ParseError(errors.CodeMissingColumn, path, 1, required, "", nil)
		}
	}

	return positions, nil
}

func buildRecord(row []string, columns map[string]int, path string, line int) (models.RawRecord, *errors.EngineError) {
	field := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	record := models.RawRecord{
		ID:              field("id"),
		AccountID:       field("account_id"),
		Date:            field("date"),
		Amount:          field("amount"),
		Description:     field("description"),
		ReferenceNumber: field("reference_number"),
		Category:        field("category"),
	}

	if record.ID == "" {
		return models.RawRecord{}, errors.ParseError(errors.CodeInvalidData, path, line, "id", "", nil)
	}

	return record, nil
}

func isEmptyRow(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
