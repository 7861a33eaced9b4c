package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Side identifies which ledger a transaction came from.
type Side string

const (
	// SideBank marks a transaction taken from a bank statement feed.
	SideBank Side = "bank"
	// SideBook marks a transaction taken from the internal book ledger.
	SideBook Side = "book"
)

// String returns the string representation of Side
func (s Side) String() string {
	return string(s)
}

// IsValid checks if the side is valid
func (s Side) IsValid() bool {
	return s == SideBank || s == SideBook
}

// RawRecord is an unvalidated transaction record as supplied by an upstream
// feed (CSV export, banking API dump). Amounts and dates are carried as
// strings; the normalizer owns conversion and rejection.
type RawRecord struct {
	ID              string `json:"id" csv:"id"`
	AccountID       string `json:"accountId" csv:"account_id"`
	Date            string `json:"date" csv:"date"`
	Amount          string `json:"amount" csv:"amount"`
	Description     string `json:"description" csv:"description"`
	ReferenceNumber string `json:"referenceNumber,omitempty" csv:"reference_number"`
	Category        string `json:"category,omitempty" csv:"category"`
}

// Transaction is a canonicalized bank or book transaction. Amounts are signed
// integer minor units (cents), dates are normalized to midnight UTC, and the
// description is tokenized for fuzzy comparison. Instances are immutable once
// produced by the normalizer; downstream components only reference them.
type Transaction struct {
	ID              string    `json:"id"`
	AccountID       string    `json:"accountId"`
	Date            time.Time `json:"date"`
	Amount          int64     `json:"amount"`
	Description     string    `json:"description"`
	Tokens          []string  `json:"-"`
	ReferenceNumber string    `json:"referenceNumber,omitempty"`
	Category        string    `json:"category,omitempty"`
	Side            Side      `json:"side"`
}

// String returns a string representation of the Transaction
func (t *Transaction) String() string {
	return fmt.Sprintf("Transaction{ID: %s, Side: %s, Amount: %d, Date: %s}",
		t.ID, t.Side, t.Amount, t.Date.Format("2006-01-02"))
}

// AbsAmount returns the absolute value of the transaction amount in minor units.
func (t *Transaction) AbsAmount() int64 {
	if t.Amount < 0 {
		return -t.Amount
	}
	return t.Amount
}

// SameDay reports whether two transactions fall on the same calendar day.
func (t *Transaction) SameDay(other *Transaction) bool {
	return t.Date.Equal(other.Date)
}

// DecimalAmount returns the transaction amount as a decimal in major units.
func (t *Transaction) DecimalAmount() decimal.Decimal {
	return decimal.New(t.Amount, -2)
}

// MatchType classifies how a bank/book pair was matched.
type MatchType string

const (
	// MatchExact is an exact signed-amount, same-day match with agreeing
	// reference numbers when both carry one.
	MatchExact MatchType = "exact"
	// MatchFuzzyAmount is a fuzzy match whose score was dominated by the
	// amount component.
	MatchFuzzyAmount MatchType = "fuzzy-amount"
	// MatchFuzzyDate is a fuzzy match whose score was dominated by the date
	// proximity component.
	MatchFuzzyDate MatchType = "fuzzy-date"
	// MatchReference is a fuzzy match where both records carried the same
	// reference number but dates differed.
	MatchReference MatchType = "reference"
)

// MatchCandidate pairs one bank transaction with one book transaction.
// Within a reconciliation run each transaction id appears in at most one
// accepted candidate.
type MatchCandidate struct {
	BankTransactionID string    `json:"bankTransactionId"`
	BookTransactionID string    `json:"bookTransactionId"`
	ConfidenceScore   float64   `json:"confidenceScore"`
	MatchType         MatchType `json:"matchType"`
	Explanation       string    `json:"explanation"`
}

// DisputeStatus tracks the externally-driven lifecycle of a dispute case.
type DisputeStatus string

const (
	DisputeOpen          DisputeStatus = "open"
	DisputeInvestigating DisputeStatus = "investigating"
	DisputeResolved      DisputeStatus = "resolved"
	DisputeClosed        DisputeStatus = "closed"
)

// DisputeType classifies why a transaction was flagged.
type DisputeType string

const (
	// DisputeUnusualAmount flags an unmatched bank transaction far larger
	// than the account's trailing median.
	DisputeUnusualAmount DisputeType = "unusual_amount"
	// DisputeMissingRecord flags an unmatched bank transaction with no
	// comparable book entry in the reconciliation window.
	DisputeMissingRecord DisputeType = "missing_record"
)

// DisputeCase is a flagged anomaly emitted by the dispute detector.
// Status transitions are driven by a human workflow, never by the engine.
type DisputeCase struct {
	ID                   string        `json:"id"`
	Type                 DisputeType   `json:"type"`
	TransactionID        string        `json:"transactionId"`
	Amount               int64         `json:"amount"`
	Status               DisputeStatus `json:"status"`
	Description          string        `json:"description"`
	AISuccessProbability float64       `json:"aiSuccessProbability"`
	ResolutionTimeline   string        `json:"resolutionTimeline"`
	RecommendedEvidence  []string      `json:"recommendedEvidence"`
}

// Suggestion is a heuristic follow-up for an unmatched item.
type Suggestion struct {
	TransactionID   string  `json:"transactionId"`
	Side            Side    `json:"side"`
	Message         string  `json:"message"`
	Confidence      float64 `json:"confidence"`
	PotentialImpact int64   `json:"potentialImpact"`
}

// RiskAssessment summarizes the risk posture of a reconciliation run.
type RiskAssessment struct {
	OverallRiskScore float64  `json:"overallRiskScore"`
	FraudIndicators  []string `json:"fraudIndicators"`
	UnusualPatterns  []string `json:"unusualPatterns"`
}

// ReconciliationReport is the immutable output of one reconciliation run
// over an (account, period) pair.
type ReconciliationReport struct {
	PeriodStart        time.Time        `json:"periodStart"`
	PeriodEnd          time.Time        `json:"periodEnd"`
	ReconciledItems    []MatchCandidate `json:"reconciledItems"`
	UnmatchedBankItems []*Transaction   `json:"unmatchedBankItems"`
	UnmatchedBookItems []*Transaction   `json:"unmatchedBookItems"`
	Variance           int64            `json:"variance"`
	RiskAssessment     RiskAssessment   `json:"riskAssessment"`
	Suggestions        []Suggestion     `json:"suggestions"`
}

// EarlyPaymentDiscount is a vendor-offered reduction for paying before a
// deadline earlier than the due date. Percent is a fraction (0.02 = 2%).
type EarlyPaymentDiscount struct {
	Percent          decimal.Decimal `json:"percent"`
	DiscountDeadline time.Time       `json:"discountDeadline"`
}

// Bill is an externally supplied payable, read-only to the optimizer.
// Monetary fields are in minor units.
type Bill struct {
	ID                   string                `json:"id"`
	VendorID             string                `json:"vendorId"`
	DueDate              time.Time             `json:"dueDate"`
	TotalAmount          int64                 `json:"totalAmount"`
	Balance              int64                 `json:"balance"`
	EarlyPaymentDiscount *EarlyPaymentDiscount `json:"earlyPaymentDiscount,omitempty"`
}

// Validate performs basic validation on the Bill.
func (b *Bill) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return fmt.Errorf("bill ID cannot be empty")
	}
	if b.DueDate.IsZero() {
		return fmt.Errorf("bill due date cannot be zero")
	}
	if b.EarlyPaymentDiscount != nil {
		if b.EarlyPaymentDiscount.Percent.IsNegative() {
			return fmt.Errorf("discount percent cannot be negative")
		}
		if b.EarlyPaymentDiscount.DiscountDeadline.IsZero() {
			return fmt.Errorf("discount deadline cannot be zero")
		}
	}
	return nil
}

// IsOverdue reports whether the bill is past due as of the given day.
func (b *Bill) IsOverdue(today time.Time) bool {
	return b.DueDate.Before(Day(today))
}

// Priority ranks how urgently a payment action should be taken.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// DiscountSavings carries the realized saving of taking an early payment
// discount, in minor units.
type DiscountSavings struct {
	SavingsAmount int64 `json:"savingsAmount"`
}

// PaymentOptimization is the per-bill recommendation produced by the
// optimizer. It is a stateless function of (bill, cash position, today).
type PaymentOptimization struct {
	BillID               string           `json:"billId"`
	RecommendedPayDate   time.Time        `json:"recommendedPayDate"`
	Urgency              Priority         `json:"urgency"`
	EarlyPaymentDiscount *DiscountSavings `json:"earlyPaymentDiscount,omitempty"`
	Rationale            string           `json:"rationale"`
}

// PaymentRecommendation batches optimizations that share an urgency tier.
type PaymentRecommendation struct {
	Priority         Priority `json:"priority"`
	Action           string   `json:"action"`
	Bills            []*Bill  `json:"bills"`
	PotentialSavings int64    `json:"potentialSavings"`
}

// Day strips the time-of-day component, returning midnight UTC of the same
// calendar day. All matching is day-granular.
func Day(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseAmountToMinorUnits parses a decimal amount string ("27.00", "$1,234.5")
// into signed integer minor units, rejecting malformed input.
func ParseAmountToMinorUnits(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("amount string cannot be empty")
	}

	// Strip common currency symbols and thousand separators.
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d.Shift(2).Round(0).IntPart(), nil
}

// FormatMinorUnits renders minor units as a major-unit decimal string.
func FormatMinorUnits(v int64) string {
	return decimal.New(v, -2).StringFixed(2)
}

// ParseDateOnly parses a date string using the formats commonly seen in
// exported financial data, returning midnight UTC of the parsed day.
func ParseDateOnly(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	formats := []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"01/02/2006",
		"2006/01/02",
		"Jan 2, 2006",
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return Day(t), nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}

// TokenizeDescription lowercases a free-text description and splits it into
// words with punctuation stripped, for token-overlap comparison.
func TokenizeDescription(s string) []string {
	lower := strings.ToLower(s)
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return ' '
		}
	}, lower)

	fields := strings.Fields(cleaned)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// NormalizeReference uppercases and trims a reference number so bank and
// book conventions ("chk1001", " CHK1001 ") compare equal.
func NormalizeReference(ref string) string {
	return strings.ToUpper(strings.TrimSpace(ref))
}
