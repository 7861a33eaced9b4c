package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"golang-finops-engine/internal/models"
	"golang-finops-engine/pkg/errors"
)

// canonical column names for bill records.
var billColumns = []string{"id", "vendor_id", "due_date", "total_amount", "balance", "discount_percent", "discount_deadline"}

var requiredBillColumns = []string{"id", "due_date", "balance"}

// billAliases maps alternative bill header names onto canonical ones.
var billAliases = map[string]string{
	"bill_id":  "id",
	"vendor":   "vendor_id",
	"supplier": "vendor_id",
	"due":      "due_date",
	"total":    "total_amount",
	"amount":   "total_amount",
	"outstanding":       "balance",
	"discount":          "discount_percent",
	"discount_pct":      "discount_percent",
	"discount_due":      "discount_deadline",
	"discount_deadline_date": "discount_deadline",
}

// ReadBills reads fully-parsed bills from a CSV file. Unlike raw transaction
// records, bills are validated here because the optimizer consumes them
// directly.
func ReadBills(path string, config *Config) ([]*models.Bill, *Stats, error) {
	if config == nil {
		config = DefaultConfig()
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		return nil, nil, errors.FileError(errors.CodeFileNotFound, path, err)
	}
	defer file.Close()

	return readBills(file, path, config)
}

func readBills(r io.Reader, path string, config *Config) ([]*models.Bill, *Stats, error) {
	reader := csv.NewReader(r)
	reader.Comma = config.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, errors.ParseError(errors.CodeInvalidFormat, path, 1, "", "", err)
	}

	positions := make(map[string]int)
	for i, name := range header {
		canonical := strings.ToLower(strings.TrimSpace(name))
		if alias, ok := billAliases[canonical]; ok {
			canonical = alias
		}
		for _, known := range billColumns {
			if canonical == known {
				positions[known] = i
				break
			}
		}
	}
	for _, required := range requiredBillColumns {
		if _, ok := positions[required]; !ok {
			return nil, nil, errors.ParseError(errors.CodeMissingColumn, path, 1, required, "", nil)
		}
	}

	stats := &Stats{}
	var bills []*models.Bill
	var rowErrors []*errors.EngineError

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
				return bills, stats, errors.NewErrorSummary(rowErrors)
			}
			continue
		}

		stats.RowsRead++
		if isEmptyRow(row) {
			continue
		}

		bill, rowErr := buildBill(row, positions, path, line)
		if rowErr != nil {
			stats.RowsFailed++
			rowErrors = append(rowErrors, rowErr)
			if len(rowErrors) >= config.MaxErrors {
				return bills, stats, errors.NewErrorSummary(rowErrors)
			}
			continue
		}

		bills = append(bills, bill)
		stats.RowsParsed++
	}

	if len(rowErrors) > 0 {
		return bills, stats, errors.NewErrorSummary(rowErrors)
	}
	return bills, stats, nil
}

func buildBill(row []string, positions map[string]int, path string, line int) (*models.Bill, *errors.EngineError) {
	field := func(name string) string {
		i, ok := positions[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	dueDate, err := models.ParseDateOnly(field("due_date"))
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidData, path, line, "due_date", field("due_date"), err)
	}

	balance, err := models.ParseAmountToMinorUnits(field("balance"))
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidData, path, line, "balance", field("balance"), err)
	}

	totalAmount := balance
	if raw := field("total_amount"); raw != "" {
		totalAmount, err = models.ParseAmountToMinorUnits(raw)
		if err != nil {
			return nil, errors.ParseError(errors.CodeInvalidData, path, line, "total_amount", raw, err)
		}
	}

	bill := &models.Bill{
		ID:          field("id"),
		VendorID:    field("vendor_id"),
		DueDate:     dueDate,
		TotalAmount: totalAmount,
		Balance:     balance,
	}

	if rawPercent := field("discount_percent"); rawPercent != "" {
		percent, err := decimal.NewFromString(rawPercent)
		if err != nil {
			return nil, errors.ParseError(errors.CodeInvalidData, path, line, "discount_percent", rawPercent, err)
		}

		deadline, err := models.ParseDateOnly(field("discount_deadline"))
		if err != nil {
			return nil, errors.ParseError(errors.CodeInvalidData, path, line, "discount_deadline", field("discount_deadline"), err)
		}

		bill.EarlyPaymentDiscount = &models.EarlyPaymentDiscount{
			Percent:          percent,
			DiscountDeadline: deadline,
		}
	}

	if err := bill.Validate(); err != nil {
		return nil, errors.ParseError(errors.CodeInvalidData, path, line, "id", bill.ID, err)
	}

	return bill, nil
}
