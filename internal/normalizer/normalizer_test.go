package normalizer

import (
	"testing"
	"time"

	"golang-finops-engine/internal/models"
	"golang-finops-engine/pkg/errors"
)

func TestNormalize_ValidRecords(t *testing.T) {
	rawBank := []models.RawRecord{
		{
			ID:              "b1",
			AccountID:       "acct-1",
			Date:            "2024-01-14",
			Amount:          "-2700.00",
			Description:     "Check #1001 - Office Supplies Co",
			ReferenceNumber: "chk1001",
			Category:        "supplies",
		},
	}
	rawBook := []models.RawRecord{
		{ID: "t2", AccountID: "acct-1", Date: "2024-01-14", Amount: "-2700.00", Description: "Office Supplies Co"},
	}

	bank, book, err := New().Normalize(rawBank, rawBook)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(bank) != 1 || len(book) != 1 {
		t.Fatalf("Expected 1 transaction per side, got %d/%d", len(bank), len(book))
	}

	tx := bank[0]
	if tx.Amount != -270000 {
		t.Errorf("Expected amount -270000 minor units, got %d", tx.Amount)
	}
	if !tx.Date.Equal(time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected midnight UTC date, got %v", tx.Date)
	}
	if tx.ReferenceNumber != "CHK1001" {
		t.Errorf("Expected normalized reference CHK1001, got %q", tx.ReferenceNumber)
	}
	if tx.Side != models.SideBank {
		t.Errorf("Expected bank side, got %s", tx.Side)
	}
	if len(tx.Tokens) == 0 {
		t.Error("Expected tokenized description")
	}
	if book[0].Side != models.SideBook {
		t.Errorf("Expected book side, got %s", book[0].Side)
	}
}

func TestNormalize_TimestampStripped(t *testing.T) {
	raw := []models.RawRecord{
		{ID: "b1", Date: "2024-01-14T16:45:00Z", Amount: "10.00"},
	}

	bank, _, err := New().Normalize(raw, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !bank[0].Date.Equal(time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Time-of-day must be stripped, got %v", bank[0].Date)
	}
}

func TestNormalize_RejectsMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		record models.RawRecord
	}{
		{"missing id", models.RawRecord{Date: "2024-01-14", Amount: "10.00"}},
		{"blank id", models.RawRecord{ID: "  ", Date: "2024-01-14", Amount: "10.00"}},
		{"missing date", models.RawRecord{ID: "b1", Amount: "10.00"}},
		{"missing amount", models.RawRecord{ID: "b1", Date: "2024-01-14"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := New().Normalize([]models.RawRecord{tt.record}, nil)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !errors.IsValidation(err) {
				t.Errorf("Expected validation category, got %v", err)
			}
		})
	}
}

func TestNormalize_RejectsMalformedValues(t *testing.T) {
	badAmount := []models.RawRecord{{ID: "b1", Date: "2024-01-14", Amount: "twelve"}}
	if _, _, err := New().Normalize(badAmount, nil); err == nil {
		t.Error("Expected error for malformed amount")
	}

	badDate := []models.RawRecord{{ID: "b1", Date: "14th of January", Amount: "10.00"}}
	if _, _, err := New().Normalize(badDate, nil); err == nil {
		t.Error("Expected error for malformed date")
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	raw := []models.RawRecord{
		{ID: "b1", Date: "2024-01-14", Amount: "-2700.00", Description: "Office Supplies"},
		{ID: "b2", Date: "2024-01-15", Amount: "125.50", Description: "Refund"},
	}

	first, _, err := New().Normalize(raw, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for i := 0; i < 5; i++ {
		again, _, err := New().Normalize(raw, nil)
		if err != nil {
			t.Fatalf("Unexpected error on run %d: %v", i, err)
		}
		for j := range first {
			if again[j].ID != first[j].ID || again[j].Amount != first[j].Amount || !again[j].Date.Equal(first[j].Date) {
				t.Fatalf("Run %d produced different output for record %d", i, j)
			}
		}
	}
}

func TestNormalize_EmptyInput(t *testing.T) {
	bank, book, err := New().Normalize(nil, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(bank) != 0 || len(book) != 0 {
		t.Error("Expected empty output for empty input")
	}
}
