package engine

import (
	"context"
	"testing"
	"time"

	"golang-finops-engine/internal/models"
	"golang-finops-engine/pkg/errors"
)

var testAsOf = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

func newTestRequest() *Request {
	return &Request{
		RawBank: []models.RawRecord{
			{ID: "b1", AccountID: "acct-1", Date: "2024-01-14", Amount: "-2700.00", Description: "Check #1001 - Office Supplies Co", ReferenceNumber: "CHK1001"},
		},
		RawBook: []models.RawRecord{
			{ID: "t2", AccountID: "acct-1", Date: "2024-01-14", Amount: "-2700.00", Description: "Office Supplies Co", ReferenceNumber: "CHK1001"},
		},
		PeriodStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		AsOf:        testAsOf,
	}
}

func TestNewPipeline(t *testing.T) {
	pipeline, err := NewPipeline(nil, nil)
	if err != nil {
		t.Fatalf("Unexpected error with nil config: %v", err)
	}
	if pipeline == nil {
		t.Fatal("Expected pipeline to be created")
	}

	invalid := DefaultConfig()
	invalid.Matcher.AcceptThreshold = 5.0
	if _, err := NewPipeline(invalid, nil); err == nil {
		t.Error("Expected error for invalid configuration")
	}
}

func TestRun_ExactReconciliation(t *testing.T) {
	pipeline, err := NewPipeline(nil, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	result, err := pipeline.Run(context.Background(), newTestRequest())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(result.Report.ReconciledItems) != 1 {
		t.Fatalf("Expected 1 reconciled item, got %d", len(result.Report.ReconciledItems))
	}
	match := result.Report.ReconciledItems[0]
	if match.ConfidenceScore != 1.0 || match.MatchType != models.MatchExact {
		t.Errorf("Expected exact match with confidence 1.0, got %s/%f", match.MatchType, match.ConfidenceScore)
	}
	if result.Report.Variance != 0 {
		t.Errorf("Expected zero variance, got %d", result.Report.Variance)
	}
	if result.Metrics.ReconciliationRate != 1.0 {
		t.Errorf("Expected reconciliation rate 1.0, got %f", result.Metrics.ReconciliationRate)
	}
	if len(result.Disputes) != 0 {
		t.Errorf("Expected no disputes, got %d", len(result.Disputes))
	}
}

func TestRun_DisputeFlow(t *testing.T) {
	pipeline, err := NewPipeline(nil, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	request := newTestRequest()
	request.RawBank = append(request.RawBank, models.RawRecord{
		ID: "b9", AccountID: "acct-1", Date: "2024-01-10", Amount: "-25000.00", Description: "wire out", Category: "Unknown",
	})
	for i, day := range []string{"2024-01-05", "2024-01-12", "2024-01-19", "2024-01-26"} {
		request.RawHistory = append(request.RawHistory, models.RawRecord{
			ID: "h" + string(rune('1'+i)), AccountID: "acct-1", Date: day, Amount: "-3000.00",
		})
	}

	result, err := pipeline.Run(context.Background(), request)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(result.Disputes) != 1 {
		t.Fatalf("Expected 1 dispute, got %d", len(result.Disputes))
	}
	dispute := result.Disputes[0]
	if dispute.Type != models.DisputeUnusualAmount {
		t.Errorf("Expected unusual_amount dispute, got %s", dispute.Type)
	}
	if dispute.Amount != 2500000 {
		t.Errorf("Expected dispute amount 2500000 minor units, got %d", dispute.Amount)
	}
}

func TestRun_NearMissBandTracksMatcherThresholds(t *testing.T) {
	config := DefaultConfig()
	config.Matcher.AcceptThreshold = 0.9

	pipeline, err := NewPipeline(config, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// b9 pairs with t9 at score 0.7 (equal amount, one day apart, no
	// description): below the raised acceptance threshold but inside the
	// derived near-miss band [0.4, 0.9), so the dispute probability gets
	// the near-match bump.
	request := newTestRequest()
	request.RawBank = append(request.RawBank, models.RawRecord{
		ID: "b9", AccountID: "acct-1", Date: "2024-01-15", Amount: "-25000.00",
	})
	request.RawBook = append(request.RawBook, models.RawRecord{
		ID: "t9", AccountID: "acct-1", Date: "2024-01-16", Amount: "-25000.00",
	})
	for i, day := range []string{"2024-01-05", "2024-01-12", "2024-01-19", "2024-01-26"} {
		request.RawHistory = append(request.RawHistory, models.RawRecord{
			ID: "h" + string(rune('1'+i)), AccountID: "acct-1", Date: day, Amount: "-3000.00",
		})
	}

	result, err := pipeline.Run(context.Background(), request)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(result.Disputes) != 1 {
		t.Fatalf("Expected 1 dispute, got %d", len(result.Disputes))
	}
	dispute := result.Disputes[0]
	if dispute.Type != models.DisputeUnusualAmount {
		t.Errorf("Expected unusual_amount dispute, got %s", dispute.Type)
	}
	if dispute.AISuccessProbability != 0.7 {
		t.Errorf("Expected near-miss probability 0.7, got %f", dispute.AISuccessProbability)
	}
}

func TestRun_EmptyInputs(t *testing.T) {
	pipeline, _ := NewPipeline(nil, nil)

	request := &Request{AsOf: testAsOf}
	result, err := pipeline.Run(context.Background(), request)
	if err != nil {
		t.Fatalf("Empty inputs must not error: %v", err)
	}

	if result.Metrics.ReconciliationRate != 0 {
		t.Errorf("Expected rate 0 for empty run, got %f", result.Metrics.ReconciliationRate)
	}
	if result.Report.Variance != 0 {
		t.Errorf("Expected zero variance for empty run, got %d", result.Report.Variance)
	}
}

func TestRun_ValidationFailurePropagates(t *testing.T) {
	pipeline, _ := NewPipeline(nil, nil)

	request := newTestRequest()
	request.RawBank[0].Amount = "not-a-number"

	if _, err := pipeline.Run(context.Background(), request); err == nil {
		t.Error("Expected validation error to propagate")
	}
}

func TestRun_RequestValidation(t *testing.T) {
	pipeline, _ := NewPipeline(nil, nil)

	missing := &Request{}
	_, err := pipeline.Run(context.Background(), missing)
	if err == nil {
		t.Fatal("Expected error for missing as-of date")
	}
	if !errors.IsValidation(err) {
		t.Errorf("Expected validation category error, got %v", err)
	}
	if engineErr, ok := errors.AsEngineError(err); !ok || engineErr.GetExitCode() != 3 {
		t.Errorf("Expected exit code 3 for a request defect, got %v", err)
	}

	inverted := newTestRequest()
	inverted.PeriodStart = inverted.PeriodEnd.AddDate(0, 1, 0)
	_, err = pipeline.Run(context.Background(), inverted)
	if err == nil {
		t.Fatal("Expected error for inverted period")
	}
	if !errors.IsValidation(err) {
		t.Errorf("Expected validation category error, got %v", err)
	}
}

func TestRun_ContextCancellation(t *testing.T) {
	pipeline, _ := NewPipeline(nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := pipeline.Run(ctx, newTestRequest()); err == nil {
		t.Error("Expected error from cancelled context")
	}
}

func TestRun_Idempotent(t *testing.T) {
	pipeline, _ := NewPipeline(nil, nil)

	first, err := pipeline.Run(context.Background(), newTestRequest())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for i := 0; i < 5; i++ {
		again, err := pipeline.Run(context.Background(), newTestRequest())
		if err != nil {
			t.Fatalf("Unexpected error on run %d: %v", i, err)
		}
		if len(again.Report.ReconciledItems) != len(first.Report.ReconciledItems) {
			t.Fatalf("Run %d differs in reconciled count", i)
		}
		if again.Report.Variance != first.Report.Variance {
			t.Fatalf("Run %d differs in variance", i)
		}
		if again.Metrics != first.Metrics {
			t.Fatalf("Run %d differs in metrics", i)
		}
	}
}
