package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseAmountToMinorUnits(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
		wantErr  bool
	}{
		{"27.00", 2700, false},
		{"-27.00", -2700, false},
		{"$1,234.50", 123450, false},
		{"0", 0, false},
		{"250", 25000, false},
		{"0.005", 1, false}, // rounds to nearest cent
		{"  19.99 ", 1999, false},
		{"", 0, true},
		{"abc", 0, true},
		{"12.3.4", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmountToMinorUnits(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error for %q: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ParseAmountToMinorUnits(%q) = %d, expected %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFormatMinorUnits(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{2700, "27.00"},
		{-2700, "-27.00"},
		{0, "0.00"},
		{5, "0.05"},
		{123450, "1234.50"},
	}

	for _, tt := range tests {
		if got := FormatMinorUnits(tt.input); got != tt.expected {
			t.Errorf("FormatMinorUnits(%d) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestParseDateOnly(t *testing.T) {
	expected := time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)

	formats := []string{
		"2024-01-14",
		"2024-01-14T09:30:00Z",
		"2024-01-14 09:30:00",
		"01/14/2024",
		"2024/01/14",
		"Jan 14, 2024",
	}

	for _, input := range formats {
		t.Run(input, func(t *testing.T) {
			got, err := ParseDateOnly(input)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !got.Equal(expected) {
				t.Errorf("ParseDateOnly(%q) = %v, expected %v", input, got, expected)
			}
		})
	}

	if _, err := ParseDateOnly(""); err == nil {
		t.Error("Expected error for empty date")
	}
	if _, err := ParseDateOnly("not a date"); err == nil {
		t.Error("Expected error for garbage date")
	}
}

func TestDay(t *testing.T) {
	stamped := time.Date(2024, 3, 5, 17, 45, 30, 999, time.UTC)
	day := Day(stamped)

	if day.Hour() != 0 || day.Minute() != 0 || day.Second() != 0 || day.Nanosecond() != 0 {
		t.Errorf("Day must strip time-of-day, got %v", day)
	}
	if day.Year() != 2024 || day.Month() != 3 || day.Day() != 5 {
		t.Errorf("Day changed the calendar date: %v", day)
	}
}

func TestTokenizeDescription(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"Check #1001 - Office Supplies Co", []string{"check", "1001", "office", "supplies", "co"}},
		{"WIRE/TRANSFER  ACME,CORP", []string{"wire", "transfer", "acme", "corp"}},
		{"", nil},
		{"---", nil},
	}

	for _, tt := range tests {
		got := TokenizeDescription(tt.input)
		if len(got) != len(tt.expected) {
			t.Errorf("TokenizeDescription(%q) = %v, expected %v", tt.input, got, tt.expected)
			continue
		}
		for i := range got {
			if got[i] != tt.expected[i] {
				t.Errorf("TokenizeDescription(%q)[%d] = %q, expected %q", tt.input, i, got[i], tt.expected[i])
			}
		}
	}
}

func TestNormalizeReference(t *testing.T) {
	if got := NormalizeReference("  chk1001 "); got != "CHK1001" {
		t.Errorf("NormalizeReference = %q, expected CHK1001", got)
	}
	if got := NormalizeReference(""); got != "" {
		t.Errorf("NormalizeReference(\"\") = %q, expected empty", got)
	}
}

func TestTransactionAbsAmount(t *testing.T) {
	tx := &Transaction{Amount: -2700}
	if tx.AbsAmount() != 2700 {
		t.Errorf("Expected 2700, got %d", tx.AbsAmount())
	}

	tx.Amount = 2700
	if tx.AbsAmount() != 2700 {
		t.Errorf("Expected 2700, got %d", tx.AbsAmount())
	}
}

func TestTransactionDecimalAmount(t *testing.T) {
	tx := &Transaction{Amount: -270050}
	if !tx.DecimalAmount().Equal(decimal.NewFromFloat(-2700.50)) {
		t.Errorf("Expected -2700.50, got %s", tx.DecimalAmount())
	}
}

func TestSideIsValid(t *testing.T) {
	if !SideBank.IsValid() || !SideBook.IsValid() {
		t.Error("Canonical sides must be valid")
	}
	if Side("ledger").IsValid() {
		t.Error("Unknown side must be invalid")
	}
}

func TestBillValidate(t *testing.T) {
	due := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	valid := &Bill{ID: "bill-1", VendorID: "v-1", DueDate: due, TotalAmount: 270000, Balance: 270000}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid bill, got %v", err)
	}

	noID := &Bill{DueDate: due}
	if err := noID.Validate(); err == nil {
		t.Error("Expected error for missing bill id")
	}

	noDue := &Bill{ID: "bill-2"}
	if err := noDue.Validate(); err == nil {
		t.Error("Expected error for zero due date")
	}

	badDiscount := &Bill{
		ID: "bill-3", DueDate: due,
		EarlyPaymentDiscount: &EarlyPaymentDiscount{Percent: decimal.NewFromFloat(-0.02), DiscountDeadline: due},
	}
	if err := badDiscount.Validate(); err == nil {
		t.Error("Expected error for negative discount percent")
	}
}

func TestBillIsOverdue(t *testing.T) {
	today := time.Date(2024, 2, 10, 14, 0, 0, 0, time.UTC)

	overdue := &Bill{DueDate: time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC)}
	if !overdue.IsOverdue(today) {
		t.Error("Bill due yesterday must be overdue")
	}

	dueToday := &Bill{DueDate: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)}
	if dueToday.IsOverdue(today) {
		t.Error("Bill due today must not be overdue")
	}

	future := &Bill{DueDate: time.Date(2024, 2, 11, 0, 0, 0, 0, time.UTC)}
	if future.IsOverdue(today) {
		t.Error("Bill due tomorrow must not be overdue")
	}
}
