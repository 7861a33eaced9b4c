// Package disputes scans unmatched bank transactions for anomalies worth
// escalating: amounts far outside the account's recent norm, and bank
// activity with no comparable book record at all. The success probability it
// attaches is a deterministic heuristic, not a model call.
package disputes

import (
	"fmt"
	"sort"
	"time"

	"golang-finops-engine/internal/models"

	"github.com/google/uuid"
)

// Config holds the tunable parameters of the dispute detector.
type Config struct {
	// LargeAmountMultiplier flags unmatched bank transactions whose
	// absolute amount exceeds this multiple of the account's trailing
	// median.
	LargeAmountMultiplier float64 `json:"large_amount_multiplier"`

	// TrailingWindowDays is how far back the median is computed from the
	// as-of date.
	TrailingWindowDays int `json:"trailing_window_days"`

	// NearMissFloor and NearMissCeiling bound the matcher score band that
	// counts as a near-match when estimating success probability. The
	// engine pipeline derives them from the matcher's near-miss and
	// acceptance thresholds.
	NearMissFloor   float64 `json:"near_miss_floor"`
	NearMissCeiling float64 `json:"near_miss_ceiling"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LargeAmountMultiplier: 3.0,
		TrailingWindowDays:    90,
		NearMissFloor:         0.4,
		NearMissCeiling:       0.6,
	}
}

// Validate checks if the detector configuration is valid
func (c *Config) Validate() error {
	if c.LargeAmountMultiplier <= 0 {
		return fmt.Errorf("large amount multiplier must be positive: %f", c.LargeAmountMultiplier)
	}
	if c.TrailingWindowDays <= 0 {
		return fmt.Errorf("trailing window days must be positive: %d", c.TrailingWindowDays)
	}
	if c.NearMissFloor < 0 || c.NearMissFloor >= c.NearMissCeiling {
		return fmt.Errorf("near-miss band [%f, %f) is invalid", c.NearMissFloor, c.NearMissCeiling)
	}
	return nil
}

// Input carries everything one detection run needs. PriorSuccesses maps
// vendor or category keys that have at least one previously successful
// dispute; BestScores is the matcher's best fuzzy score per unmatched bank
// transaction id.
type Input struct {
	UnmatchedBank  []*models.Transaction
	UnmatchedBook  []*models.Transaction
	History        []*models.Transaction
	BestScores     map[string]float64
	PriorSuccesses map[string]bool
	AsOf           time.Time
}

// Detector emits dispute cases from reconciliation residue.
type Detector struct {
	config *Config
}

// NewDetector creates a detector with the specified configuration.
func NewDetector(config *Config) *Detector {
	if config == nil {
		config = DefaultConfig()
	}
	return &Detector{config: config}
}

// Detect returns dispute cases for the unmatched bank transactions.
// An empty result is the normal "nothing found" outcome.
func (d *Detector) Detect(input Input) []models.DisputeCase {
	medians := d.trailingMedians(input.History, input.AsOf)

	var cases []models.DisputeCase
	for _, tx := range input.UnmatchedBank {
		dispute, ok := d.evaluate(tx, medians, input)
		if ok {
			cases = append(cases, dispute)
		}
	}

	return cases
}

// evaluate classifies a single unmatched bank transaction. An unusually
// large amount takes precedence over a missing book record so each
// transaction yields at most one case.
func (d *Detector) evaluate(
	tx *models.Transaction,
	medians map[string]int64,
	input Input,
) (models.DisputeCase, bool) {

	median, hasMedian := medians[tx.AccountID]
	threshold := int64(float64(median) * d.config.LargeAmountMultiplier)

	switch {
	case hasMedian && median > 0 && tx.AbsAmount() > threshold:
		return d.buildCase(tx, models.DisputeUnusualAmount, input,
			fmt.Sprintf("unmatched bank transaction of %s exceeds %.0fx the trailing median of %s",
				models.FormatMinorUnits(tx.AbsAmount()),
				d.config.LargeAmountMultiplier,
				models.FormatMinorUnits(median))), true

	case input.BestScores[tx.ID] == 0:
		return d.buildCase(tx, models.DisputeMissingRecord, input,
			fmt.Sprintf("no comparable book transaction found for bank transaction %s within the reconciliation window", tx.ID)), true
	}

	return models.DisputeCase{}, false
}

func (d *Detector) buildCase(
	tx *models.Transaction,
	disputeType models.DisputeType,
	input Input,
	description string,
) models.DisputeCase {

	return models.DisputeCase{
		ID:                   uuid.NewString(),
		Type:                 disputeType,
		TransactionID:        tx.ID,
		Amount:               tx.AbsAmount(),
		Status:               models.DisputeOpen,
		Description:          description,
		AISuccessProbability: d.successProbability(tx, input),
		ResolutionTimeline:   resolutionTimeline(disputeType),
		RecommendedEvidence:  recommendedEvidence(disputeType),
	}
}

// successProbability is a fixed heuristic: base 0.5, +0.2 when the matcher
// found a near-match for the transaction, +0.15 when the vendor or category
// has a prior successful dispute.
func (d *Detector) successProbability(tx *models.Transaction, input Input) float64 {
	probability := 0.5

	if score, ok := input.BestScores[tx.ID]; ok {
		if score >= d.config.NearMissFloor && score < d.config.NearMissCeiling {
			probability += 0.2
		}
	}

	if tx.Category != "" && input.PriorSuccesses[tx.Category] {
		probability += 0.15
	}

	if probability > 1.0 {
		probability = 1.0
	}
	return probability
}

// trailingMedians computes the per-account median absolute amount over the
// trailing window ending at the as-of date.
func (d *Detector) trailingMedians(history []*models.Transaction, asOf time.Time) map[string]int64 {
	cutoff := models.Day(asOf).AddDate(0, 0, -d.config.TrailingWindowDays)
	end := models.Day(asOf)

	amounts := make(map[string][]int64)
	for _, tx := range history {
		if tx.Date.Before(cutoff) || tx.Date.After(end) {
			continue
		}
		amounts[tx.AccountID] = append(amounts[tx.AccountID], tx.AbsAmount())
	}

	medians := make(map[string]int64, len(amounts))
	for account, values := range amounts {
		medians[account] = median(values)
	}
	return medians
}

func median(values []int64) int64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]int64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// Evidence checklists are fixed per dispute type.
func recommendedEvidence(disputeType models.DisputeType) []string {
	switch disputeType {
	case models.DisputeMissingRecord:
		return []string{"original invoice", "payment confirmation"}
	case models.DisputeUnusualAmount:
		return []string{"bank statement excerpt", "vendor correspondence", "authorization record"}
	default:
		return []string{"supporting documentation"}
	}
}

func resolutionTimeline(disputeType models.DisputeType) string {
	switch disputeType {
	case models.DisputeUnusualAmount:
		return "10-15 business days"
	default:
		return "5-10 business days"
	}
}
