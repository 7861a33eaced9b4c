// Package reporter aggregates matcher and dispute output into the final
// reconciliation report and renders reports in console, JSON, and CSV form.
//
// Variance is the canonical balance-reconciliation delta: the difference
// between total bank-side and book-side amounts over the full input set,
// not just the unmatched residue.
package reporter

import (
	"fmt"
	"time"

	"golang-finops-engine/internal/models"
)

// RiskWeights control how the overall risk score combines its inputs.
type RiskWeights struct {
	UnmatchedRatio float64 `json:"unmatched_ratio"`
	DisputeLoad    float64 `json:"dispute_load"`
	VarianceShare  float64 `json:"variance_share"`
}

// Config holds configuration for report building.
type Config struct {
	Weights RiskWeights `json:"weights"`

	// DisputeSaturation is the dispute count at which the dispute
	// component of the risk score saturates at 1.0.
	DisputeSaturation int `json:"dispute_saturation"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Weights: RiskWeights{
			UnmatchedRatio: 0.4,
			DisputeLoad:    0.3,
			VarianceShare:  0.3,
		},
		DisputeSaturation: 10,
	}
}

// Validate checks if the report configuration is valid
func (c *Config) Validate() error {
	total := c.Weights.UnmatchedRatio + c.Weights.DisputeLoad + c.Weights.VarianceShare
	if total < 0.9 || total > 1.1 {
		return fmt.Errorf("risk weights should sum to approximately 1.0, got %f", total)
	}
	if c.DisputeSaturation <= 0 {
		return fmt.Errorf("dispute saturation must be positive: %d", c.DisputeSaturation)
	}
	return nil
}

// Builder assembles reconciliation reports.
type Builder struct {
	config *Config
}

// NewBuilder creates a report builder with the specified configuration.
func NewBuilder(config *Config) *Builder {
	if config == nil {
		config = DefaultConfig()
	}
	return &Builder{config: config}
}

// BuildInput carries one run's outputs into report assembly. AllBank and
// AllBook are the full normalized input sets; variance is computed over
// them, not over the unmatched residue.
type BuildInput struct {
	PeriodStart time.Time
	PeriodEnd   time.Time

	Matches       []models.MatchCandidate
	UnmatchedBank []*models.Transaction
	UnmatchedBook []*models.Transaction
	Disputes      []models.DisputeCase

	AllBank []*models.Transaction
	AllBook []*models.Transaction
}

// Build assembles the immutable report for one (account, period) run.
func (b *Builder) Build(input BuildInput) *models.ReconciliationReport {
	variance := sumAmounts(input.AllBank) - sumAmounts(input.AllBook)

	report := &models.ReconciliationReport{
		PeriodStart:        input.PeriodStart,
		PeriodEnd:          input.PeriodEnd,
		ReconciledItems:    input.Matches,
		UnmatchedBankItems: input.UnmatchedBank,
		UnmatchedBookItems: input.UnmatchedBook,
		Variance:           variance,
		RiskAssessment:     b.assessRisk(input, variance),
		Suggestions:        buildSuggestions(input),
	}

	if report.ReconciledItems == nil {
		report.ReconciledItems = []models.MatchCandidate{}
	}
	if report.UnmatchedBankItems == nil {
		report.UnmatchedBankItems = []*models.Transaction{}
	}
	if report.UnmatchedBookItems == nil {
		report.UnmatchedBookItems = []*models.Transaction{}
	}

	return report
}

// assessRisk combines the unmatched ratio, dispute load, and variance
// magnitude relative to total volume, clipped to [0,1].
func (b *Builder) assessRisk(input BuildInput, variance int64) models.RiskAssessment {
	totalItems := len(input.Matches) + len(input.UnmatchedBank) + len(input.UnmatchedBook)

	unmatchedRatio := 0.0
	if totalItems > 0 {
		unmatchedRatio = float64(len(input.UnmatchedBank)+len(input.UnmatchedBook)) / float64(totalItems)
	}

	disputeLoad := float64(len(input.Disputes)) / float64(b.config.DisputeSaturation)
	if disputeLoad > 1.0 {
		disputeLoad = 1.0
	}

	varianceShare := 0.0
	totalVolume := sumAbsAmounts(input.AllBank) + sumAbsAmounts(input.AllBook)
	if totalVolume > 0 {
		varianceShare = float64(abs(variance)) / float64(totalVolume)
		if varianceShare > 1.0 {
			varianceShare = 1.0
		}
	}

	w := b.config.Weights
	score := unmatchedRatio*w.UnmatchedRatio + disputeLoad*w.DisputeLoad + varianceShare*w.VarianceShare
	if score > 1.0 {
		score = 1.0
	}
	if score < 0.0 {
		score = 0.0
	}

	return models.RiskAssessment{
		OverallRiskScore: score,
		FraudIndicators:  fraudIndicators(input.Disputes),
		UnusualPatterns:  unusualPatterns(input.UnmatchedBank),
	}
}

func fraudIndicators(disputes []models.DisputeCase) []string {
	indicators := []string{}
	for _, dispute := range disputes {
		if dispute.Type == models.DisputeUnusualAmount {
			indicators = append(indicators,
				fmt.Sprintf("unusually large unmatched withdrawal of %s (transaction %s)",
					models.FormatMinorUnits(dispute.Amount), dispute.TransactionID))
		}
	}
	return indicators
}

// unusualPatterns looks for repeated identical unmatched bank amounts on the
// same day, a common duplicate-posting signature.
func unusualPatterns(unmatchedBank []*models.Transaction) []string {
	type key struct {
		day    string
		amount int64
	}
	counts := make(map[key]int)
	for _, tx := range unmatchedBank {
		counts[key{tx.Date.Format("2006-01-02"), tx.Amount}]++
	}

	patterns := []string{}
	for k, count := range counts {
		if count > 1 {
			patterns = append(patterns,
				fmt.Sprintf("%d unmatched bank transactions of %s on %s",
					count, models.FormatMinorUnits(abs(k.amount)), k.day))
		}
	}
	return patterns
}

// buildSuggestions emits one heuristic follow-up per unmatched item, with
// potential impact equal to the item's absolute amount.
func buildSuggestions(input BuildInput) []models.Suggestion {
	suggestions := []models.Suggestion{}

	for _, tx := range input.UnmatchedBank {
		suggestions = append(suggestions, models.Suggestion{
			TransactionID:   tx.ID,
			Side:            models.SideBank,
			Message:         "possible timing difference - check next period's book entries",
			Confidence:      0.5,
			PotentialImpact: tx.AbsAmount(),
		})
	}
	for _, tx := range input.UnmatchedBook {
		suggestions = append(suggestions, models.Suggestion{
			TransactionID:   tx.ID,
			Side:            models.SideBook,
			Message:         "book entry not yet cleared by the bank - verify against the next statement",
			Confidence:      0.5,
			PotentialImpact: tx.AbsAmount(),
		})
	}

	return suggestions
}

func sumAmounts(txns []*models.Transaction) int64 {
	var total int64
	for _, tx := range txns {
		total += tx.Amount
	}
	return total
}

func sumAbsAmounts(txns []*models.Transaction) int64 {
	var total int64
	for _, tx := range txns {
		total += tx.AbsAmount()
	}
	return total
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
