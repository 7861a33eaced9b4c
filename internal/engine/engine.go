// Package engine orchestrates the reconciliation pipeline:
// normalize -> match -> detect disputes -> build report -> derive metrics.
//
// The pipeline itself is a pure computation over its request; each run
// operates on its own inputs with no shared mutable state, so concurrent
// runs over different accounts need no locking. The current date is part of
// the request and is never read from the wall clock.
package engine

import (
	"context"
	"fmt"
	"time"

	"golang-finops-engine/internal/disputes"
	"golang-finops-engine/internal/matcher"
	"golang-finops-engine/internal/metrics"
	"golang-finops-engine/internal/models"
	"golang-finops-engine/internal/normalizer"
	"golang-finops-engine/internal/reporter"
	"golang-finops-engine/pkg/errors"
	"golang-finops-engine/pkg/logger"
)

// Config bundles component configurations for one pipeline instance.
type Config struct {
	Matcher  *matcher.Config
	Detector *disputes.Config
	Reporter *reporter.Config
}

// DefaultConfig returns a configuration with all component defaults.
func DefaultConfig() *Config {
	return &Config{
		Matcher:  matcher.DefaultConfig(),
		Detector: disputes.DefaultConfig(),
		Reporter: reporter.DefaultConfig(),
	}
}

// Validate checks all component configurations.
func (c *Config) Validate() error {
	if c.Matcher != nil {
		if err := c.Matcher.Validate(); err != nil {
			return fmt.Errorf("invalid matcher configuration: %w", err)
		}
	}
	if c.Detector != nil {
		if err := c.Detector.Validate(); err != nil {
			return fmt.Errorf("invalid detector configuration: %w", err)
		}
	}
	if c.Reporter != nil {
		if err := c.Reporter.Validate(); err != nil {
			return fmt.Errorf("invalid reporter configuration: %w", err)
		}
	}
	return nil
}

// Request carries the raw inputs for one reconciliation run.
type Request struct {
	RawBank []models.RawRecord
	RawBook []models.RawRecord

	// RawHistory is prior bank activity used for the trailing-median
	// dispute threshold; it is normalized but not matched.
	RawHistory []models.RawRecord

	// PriorSuccesses marks vendor/category keys with a previously
	// successful dispute.
	PriorSuccesses map[string]bool

	PeriodStart time.Time
	PeriodEnd   time.Time

	// AsOf is the explicit "current date" for the run.
	AsOf time.Time
}

// Validate validates the reconciliation request.
func (r *Request) Validate() error {
	if r.AsOf.IsZero() {
		return fmt.Errorf("as-of date is required")
	}
	if !r.PeriodStart.IsZero() && !r.PeriodEnd.IsZero() && r.PeriodStart.After(r.PeriodEnd) {
		return fmt.Errorf("period start must be before period end")
	}
	return nil
}

// Result is the complete output of one reconciliation run.
type Result struct {
	Report       *models.ReconciliationReport
	Disputes     []models.DisputeCase
	Metrics      metrics.Snapshot
	MatchSummary matcher.Summary
}

// Pipeline wires the reconciliation components together.
type Pipeline struct {
	normalizer *normalizer.Normalizer
	matcher    *matcher.Engine
	detector   *disputes.Detector
	builder    *reporter.Builder
	log        logger.Logger
}

// NewPipeline creates a pipeline from the given configuration.
func NewPipeline(config *Config, log logger.Logger) (*Pipeline, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "pipeline", config, err)
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	detectorConfig := config.Detector
	if detectorConfig == nil {
		detectorConfig = disputes.DefaultConfig()
	}
	if config.Matcher != nil {
		// The detector's near-miss band tracks the matcher's thresholds:
		// scores in [NearMissThreshold, AcceptThreshold) count as near
		// matches when estimating dispute success probability.
		derived := *detectorConfig
		derived.NearMissFloor = config.Matcher.NearMissThreshold
		derived.NearMissCeiling = config.Matcher.AcceptThreshold
		if err := derived.Validate(); err != nil {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "pipeline", config, err)
		}
		detectorConfig = &derived
	}

	return &Pipeline{
		normalizer: normalizer.New(),
		matcher:    matcher.NewEngine(config.Matcher),
		detector:   disputes.NewDetector(detectorConfig),
		builder:    reporter.NewBuilder(config.Reporter),
		log:        log.WithComponent("pipeline"),
	}, nil
}

// Run executes the full reconciliation pipeline. The computation is finite
// and non-blocking; the context is only consulted between stages so a host
// can abandon a run it no longer needs.
func (p *Pipeline) Run(ctx context.Context, request *Request) (*Result, error) {
	if err := request.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, errors.CodeInvalidRequest, "invalid reconciliation request").
			WithSuggestion("check the as-of date and period bounds")
	}

	startTime := time.Now()
	p.log.WithFields(logger.Fields{
		"bank_records": len(request.RawBank),
		"book_records": len(request.RawBook),
		"as_of":        request.AsOf.Format("2006-01-02"),
	}).Info("Starting reconciliation run")

	bank, book, err := p.normalizer.Normalize(request.RawBank, request.RawBook)
	if err != nil {
		return nil, err
	}

	history, _, err := p.normalizer.Normalize(request.RawHistory, nil)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matchResult := p.matcher.Match(bank, book)
	p.log.WithFields(logger.Fields{
		"matches":        matchResult.Summary.Matched,
		"unmatched_bank": matchResult.Summary.UnmatchedBank,
		"unmatched_book": matchResult.Summary.UnmatchedBook,
	}).Debug("Matching complete")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	disputeCases := p.detector.Detect(disputes.Input{
		UnmatchedBank:  matchResult.UnmatchedBank,
		UnmatchedBook:  matchResult.UnmatchedBook,
		History:        history,
		BestScores:     matchResult.BestScores,
		PriorSuccesses: request.PriorSuccesses,
		AsOf:           request.AsOf,
	})

	report := p.builder.Build(reporter.BuildInput{
		PeriodStart:   request.PeriodStart,
		PeriodEnd:     request.PeriodEnd,
		Matches:       matchResult.Matches,
		UnmatchedBank: matchResult.UnmatchedBank,
		UnmatchedBook: matchResult.UnmatchedBook,
		Disputes:      disputeCases,
		AllBank:       bank,
		AllBook:       book,
	})

	result := &Result{
		Report:       report,
		Disputes:     disputeCases,
		Metrics:      metrics.FromReport(report),
		MatchSummary: matchResult.Summary,
	}

	p.log.WithFields(logger.Fields{
		"reconciliation_rate": result.Metrics.ReconciliationRate,
		"disputes":            len(disputeCases),
		"risk_score":          report.RiskAssessment.OverallRiskScore,
		"duration":            time.Since(startTime).Round(time.Millisecond).String(),
	}).Info("Reconciliation run complete")

	return result, nil
}
