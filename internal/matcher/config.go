// Package matcher pairs normalized bank transactions against book
// transactions using amount, date, and description heuristics.
//
// The engine runs two passes:
//  1. Exact pass: identical signed amount, same calendar day, and agreeing
//     reference numbers when both records carry one. Confidence 1.0.
//  2. Fuzzy pass: remaining pairs are scored as a weighted combination of
//     amount equality, date proximity within a configurable window, and
//     description token overlap. Pairs at or above the acceptance threshold
//     are assigned greedily in descending score order.
//
// Assignment is strictly at-most-one-match per transaction id and fully
// deterministic: ties break by earliest bank date, then lowest bank id, then
// lowest book id.
//
// Example usage:
//
//	engine := matcher.NewEngine(matcher.DefaultConfig())
//	result := engine.Match(bankTxns, bookTxns)
package matcher

import "fmt"

// Weights defines the relative importance of the fuzzy scoring components.
type Weights struct {
	Amount      float64 `json:"amount"`
	Date        float64 `json:"date"`
	Description float64 `json:"description"`
}

// Validate checks if the weights are valid
func (w *Weights) Validate() error {
	for name, v := range map[string]float64{
		"amount":      w.Amount,
		"date":        w.Date,
		"description": w.Description,
	} {
		if v < 0.0 || v > 1.0 {
			return fmt.Errorf("%s weight must be between 0.0 and 1.0: %f", name, v)
		}
	}

	// Weights should sum to approximately 1.0 (allow some tolerance)
	total := w.Amount + w.Date + w.Description
	if total < 0.9 || total > 1.1 {
		return fmt.Errorf("weights should sum to approximately 1.0, got %f", total)
	}

	return nil
}

// Config holds the tunable parameters of the matching engine. The defaults
// are tunable heuristics, not reverse-engineered constants.
type Config struct {
	// DateWindowDays is the window over which date proximity decays
	// linearly to zero.
	DateWindowDays int `json:"date_window_days"`

	// AcceptThreshold is the minimum fuzzy score accepted as a match.
	AcceptThreshold float64 `json:"accept_threshold"`

	// NearMissThreshold is the lower bound of the near-miss band reported
	// for unmatched bank transactions; scores in
	// [NearMissThreshold, AcceptThreshold) feed the dispute detector.
	NearMissThreshold float64 `json:"near_miss_threshold"`

	// Weights are the fuzzy scoring component weights.
	Weights Weights `json:"weights"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		DateWindowDays:    3,
		AcceptThreshold:   0.6,
		NearMissThreshold: 0.4,
		Weights: Weights{
			Amount:      0.5,
			Date:        0.3,
			Description: 0.2,
		},
	}
}

// StrictConfig returns a configuration that only accepts near-certain matches.
func StrictConfig() *Config {
	return &Config{
		DateWindowDays:    1,
		AcceptThreshold:   0.8,
		NearMissThreshold: 0.6,
		Weights: Weights{
			Amount:      0.6,
			Date:        0.3,
			Description: 0.1,
		},
	}
}

// RelaxedConfig returns a configuration for exploratory matching.
func RelaxedConfig() *Config {
	return &Config{
		DateWindowDays:    7,
		AcceptThreshold:   0.5,
		NearMissThreshold: 0.3,
		Weights: Weights{
			Amount:      0.4,
			Date:        0.3,
			Description: 0.3,
		},
	}
}

// Validate checks if the matching configuration is valid
func (c *Config) Validate() error {
	if c.DateWindowDays < 0 {
		return fmt.Errorf("date window days cannot be negative: %d", c.DateWindowDays)
	}

	if c.AcceptThreshold < 0.0 || c.AcceptThreshold > 1.0 {
		return fmt.Errorf("accept threshold must be between 0.0 and 1.0: %f", c.AcceptThreshold)
	}

	if c.NearMissThreshold < 0.0 || c.NearMissThreshold > c.AcceptThreshold {
		return fmt.Errorf("near-miss threshold must be between 0.0 and the accept threshold: %f", c.NearMissThreshold)
	}

	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("invalid weights: %w", err)
	}

	return nil
}

// Clone creates a copy of the matching configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	clone := *c
	return &clone
}

// String returns a human-readable description of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{DateWindow: %d days, AcceptThreshold: %.2f, Weights: %.2f/%.2f/%.2f}",
		c.DateWindowDays, c.AcceptThreshold, c.Weights.Amount, c.Weights.Date, c.Weights.Description)
}
