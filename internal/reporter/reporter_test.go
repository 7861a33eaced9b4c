package reporter

import (
	"testing"
	"time"

	"golang-finops-engine/internal/models"
)

func tx(id string, amount int64, date string, side models.Side) *models.Transaction {
	day, err := models.ParseDateOnly(date)
	if err != nil {
		panic(err)
	}
	return &models.Transaction{ID: id, Amount: amount, Date: day, Side: side, Description: "test txn"}
}

func TestBuild_VarianceOverFullInputSet(t *testing.T) {
	builder := NewBuilder(nil)

	allBank := []*models.Transaction{
		tx("b1", -270000, "2024-01-14", models.SideBank),
		tx("b2", 100000, "2024-01-15", models.SideBank),
	}
	allBook := []*models.Transaction{
		tx("t1", -270000, "2024-01-14", models.SideBook),
		tx("t2", 50000, "2024-01-15", models.SideBook),
	}

	report := builder.Build(BuildInput{
		Matches: []models.MatchCandidate{
			{BankTransactionID: "b1", BookTransactionID: "t1", ConfidenceScore: 1.0, MatchType: models.MatchExact},
		},
		UnmatchedBank: allBank[1:],
		UnmatchedBook: allBook[1:],
		AllBank:       allBank,
		AllBook:       allBook,
	})

	// (-270000 + 100000) - (-270000 + 50000) = 50000
	if report.Variance != 50000 {
		t.Errorf("Expected variance 50000, got %d", report.Variance)
	}
}

func TestBuild_PerfectReconciliationZeroVariance(t *testing.T) {
	builder := NewBuilder(nil)

	allBank := []*models.Transaction{tx("b1", -270000, "2024-01-14", models.SideBank)}
	allBook := []*models.Transaction{tx("t2", -270000, "2024-01-14", models.SideBook)}

	report := builder.Build(BuildInput{
		Matches: []models.MatchCandidate{
			{BankTransactionID: "b1", BookTransactionID: "t2", ConfidenceScore: 1.0, MatchType: models.MatchExact},
		},
		AllBank: allBank,
		AllBook: allBook,
	})

	if report.Variance != 0 {
		t.Errorf("Expected zero variance, got %d", report.Variance)
	}
	if len(report.UnmatchedBankItems) != 0 || len(report.UnmatchedBookItems) != 0 {
		t.Error("Expected empty unmatched collections")
	}
	if report.RiskAssessment.OverallRiskScore != 0 {
		t.Errorf("Expected zero risk, got %f", report.RiskAssessment.OverallRiskScore)
	}
}

func TestBuild_EmptyInputs(t *testing.T) {
	report := NewBuilder(nil).Build(BuildInput{})

	if report.Variance != 0 {
		t.Errorf("Expected zero variance for empty run, got %d", report.Variance)
	}
	if report.ReconciledItems == nil || report.UnmatchedBankItems == nil || report.UnmatchedBookItems == nil {
		t.Error("Collections must be empty, not nil")
	}
	if report.RiskAssessment.OverallRiskScore != 0 {
		t.Errorf("Expected zero risk for empty run, got %f", report.RiskAssessment.OverallRiskScore)
	}
}

func TestBuild_RiskScoreBounds(t *testing.T) {
	builder := NewBuilder(nil)

	// Everything unmatched, saturated disputes, full variance.
	unmatched := []*models.Transaction{
		tx("b1", -100000, "2024-01-10", models.SideBank),
		tx("b2", -100000, "2024-01-10", models.SideBank),
	}
	var disputes []models.DisputeCase
	for i := 0; i < 25; i++ {
		disputes = append(disputes, models.DisputeCase{Type: models.DisputeMissingRecord})
	}

	report := builder.Build(BuildInput{
		UnmatchedBank: unmatched,
		Disputes:      disputes,
		AllBank:       unmatched,
	})

	score := report.RiskAssessment.OverallRiskScore
	if score < 0.0 || score > 1.0 {
		t.Errorf("Risk score must stay in [0,1], got %f", score)
	}
	if score == 0.0 {
		t.Error("Fully unreconciled run must carry non-zero risk")
	}
}

func TestBuild_FraudIndicators(t *testing.T) {
	builder := NewBuilder(nil)

	report := builder.Build(BuildInput{
		Disputes: []models.DisputeCase{
			{Type: models.DisputeUnusualAmount, TransactionID: "b9", Amount: 2500000},
			{Type: models.DisputeMissingRecord, TransactionID: "b5", Amount: 40000},
		},
	})

	if len(report.RiskAssessment.FraudIndicators) != 1 {
		t.Fatalf("Expected 1 fraud indicator, got %d", len(report.RiskAssessment.FraudIndicators))
	}
}

func TestBuild_DuplicatePattern(t *testing.T) {
	builder := NewBuilder(nil)

	unmatched := []*models.Transaction{
		tx("b1", -5000, "2024-01-10", models.SideBank),
		tx("b2", -5000, "2024-01-10", models.SideBank),
		tx("b3", -7000, "2024-01-10", models.SideBank),
	}

	report := builder.Build(BuildInput{UnmatchedBank: unmatched, AllBank: unmatched})

	if len(report.RiskAssessment.UnusualPatterns) != 1 {
		t.Fatalf("Expected 1 duplicate pattern, got %d", len(report.RiskAssessment.UnusualPatterns))
	}
}

func TestBuild_SuggestionsPerUnmatchedItem(t *testing.T) {
	builder := NewBuilder(nil)

	report := builder.Build(BuildInput{
		UnmatchedBank: []*models.Transaction{tx("b1", -5000, "2024-01-10", models.SideBank)},
		UnmatchedBook: []*models.Transaction{tx("t1", 7000, "2024-01-11", models.SideBook)},
	})

	if len(report.Suggestions) != 2 {
		t.Fatalf("Expected 2 suggestions, got %d", len(report.Suggestions))
	}

	for _, suggestion := range report.Suggestions {
		if suggestion.PotentialImpact <= 0 {
			t.Errorf("Potential impact must be the absolute amount, got %d", suggestion.PotentialImpact)
		}
		if suggestion.Confidence <= 0 || suggestion.Confidence > 1 {
			t.Errorf("Confidence out of range: %f", suggestion.Confidence)
		}
	}
}

func TestBuild_PeriodCarriedThrough(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	report := NewBuilder(nil).Build(BuildInput{PeriodStart: start, PeriodEnd: end})

	if !report.PeriodStart.Equal(start) || !report.PeriodEnd.Equal(end) {
		t.Error("Report must carry the requested period")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("Default config must validate: %v", err)
	}

	bad := DefaultConfig()
	bad.Weights.UnmatchedRatio = 0.0
	bad.Weights.DisputeLoad = 0.0
	bad.Weights.VarianceShare = 0.0
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for zero weights")
	}

	bad = DefaultConfig()
	bad.DisputeSaturation = 0
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for zero dispute saturation")
	}
}
