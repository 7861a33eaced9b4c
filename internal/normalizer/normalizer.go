// Package normalizer canonicalizes raw bank and book records into comparable
// transactions: signed integer minor units, day-granular UTC dates, and
// tokenized descriptions. It is a pure transform; identical input always
// yields identical output, and malformed records fail validation instead of
// being coerced.
package normalizer

import (
	"strings"

	"golang-finops-engine/internal/models"
	"golang-finops-engine/pkg/errors"
)

// Normalizer converts raw records into canonical transactions.
type Normalizer struct{}

// New creates a Normalizer.
func New() *Normalizer {
	return &Normalizer{}
}

// Normalize canonicalizes both input sets. The first record that is missing
// an id, date, or amount, or whose date or amount cannot be parsed, aborts
// the run with a validation error.
func (n *Normalizer) Normalize(rawBank, rawBook []models.RawRecord) ([]*models.Transaction, []*models.Transaction, error) {
	bank, err := n.normalizeSide(rawBank, models.SideBank)
	if err != nil {
		return nil, nil, err
	}

	book, err := n.normalizeSide(rawBook, models.SideBook)
	if err != nil {
		return nil, nil, err
	}

	return bank, book, nil
}

func (n *Normalizer) normalizeSide(records []models.RawRecord, side models.Side) ([]*models.Transaction, error) {
	transactions := make([]*models.Transaction, 0, len(records))

	for _, record := range records {
		tx, err := n.normalizeRecord(record, side)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}

	return transactions, nil
}

func (n *Normalizer) normalizeRecord(record models.RawRecord, side models.Side) (*models.Transaction, error) {
	if strings.TrimSpace(record.ID) == "" {
		return nil, errors.ValidationError(errors.CodeMissingField, "id", record.ID, nil).
			WithContext("side", side.String())
	}
	if strings.TrimSpace(record.Date) == "" {
		return nil, errors.ValidationError(errors.CodeMissingField, "date", record.Date, nil).
			WithContext("side", side.String()).
			WithContext("record_id", record.ID)
	}
	if strings.TrimSpace(record.Amount) == "" {
		return nil, errors.ValidationError(errors.CodeMissingField, "amount", record.Amount, nil).
			WithContext("side", side.String()).
			WithContext("record_id", record.ID)
	}

	amount, err := models.ParseAmountToMinorUnits(record.Amount)
	if err != nil {
		return nil, errors.ValidationError(errors.CodeInvalidAmount, "amount", record.Amount, err).
			WithContext("side", side.String()).
			WithContext("record_id", record.ID)
	}

	date, err := models.ParseDateOnly(record.Date)
	if err != nil {
		return nil, errors.ValidationError(errors.CodeInvalidDate, "date", record.Date, err).
			WithContext("side", side.String()).
			WithContext("record_id", record.ID)
	}

	description := strings.TrimSpace(record.Description)

	return &models.Transaction{
		ID:              strings.TrimSpace(record.ID),
		AccountID:       strings.TrimSpace(record.AccountID),
		Date:            date,
		Amount:          amount,
		Description:     description,
		Tokens:          models.TokenizeDescription(description),
		ReferenceNumber: models.NormalizeReference(record.ReferenceNumber),
		Category:        strings.TrimSpace(record.Category),
		Side:            side,
	}, nil
}
