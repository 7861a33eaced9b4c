// Package payments scores payables for early-payment discounts and urgency
// under a cash-flow constraint. Every function is a stateless computation
// over (bills, cash position, today); the current date is always passed in,
// never read from the clock.
package payments

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"golang-finops-engine/internal/models"
	"golang-finops-engine/pkg/errors"
)

// Config holds the tunable parameters of the payment optimizer.
type Config struct {
	// DiscountUrgencyDays treats a discount deadline within this many days
	// as urgent.
	DiscountUrgencyDays int `json:"discount_urgency_days"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		DiscountUrgencyDays: 3,
	}
}

// Validate checks if the optimizer configuration is valid
func (c *Config) Validate() error {
	if c.DiscountUrgencyDays < 0 {
		return fmt.Errorf("discount urgency days cannot be negative: %d", c.DiscountUrgencyDays)
	}
	return nil
}

// Optimizer produces payment recommendations for payables.
type Optimizer struct {
	config *Config
}

// NewOptimizer creates an optimizer with the specified configuration.
func NewOptimizer(config *Config) *Optimizer {
	if config == nil {
		config = DefaultConfig()
	}
	return &Optimizer{config: config}
}

// Optimize recommends a pay date for a single bill given the available cash
// position, in minor units, and today's date. Semantically invalid input
// (negative cash, negative balance) fails before any recommendation is
// produced.
func (o *Optimizer) Optimize(bill *models.Bill, availableCash int64, today time.Time) (*models.PaymentOptimization, error) {
	if availableCash < 0 {
		return nil, errors.InvalidInputError(errors.CodeNegativeCash, "availableCash", availableCash)
	}
	if bill.Balance < 0 {
		return nil, errors.InvalidInputError(errors.CodeNegativeBalance, bill.ID, bill.Balance)
	}

	day := models.Day(today)

	// Overdue bills always come first, discount or not.
	if bill.IsOverdue(today) {
		return &models.PaymentOptimization{
			BillID:             bill.ID,
			RecommendedPayDate: day,
			Urgency:            models.PriorityHigh,
			Rationale:          fmt.Sprintf("bill is overdue since %s; pay immediately", bill.DueDate.Format("2006-01-02")),
		}, nil
	}

	if discount := bill.EarlyPaymentDiscount; discount != nil &&
		!day.After(models.Day(discount.DiscountDeadline)) &&
		availableCash >= bill.Balance {

		savings := discountSavings(bill.Balance, discount.Percent)
		urgency := models.PriorityMedium
		if daysUntil(day, discount.DiscountDeadline) <= o.config.DiscountUrgencyDays {
			urgency = models.PriorityHigh
		}

		return &models.PaymentOptimization{
			BillID:               bill.ID,
			RecommendedPayDate:   day,
			Urgency:              urgency,
			EarlyPaymentDiscount: &models.DiscountSavings{SavingsAmount: savings},
			Rationale: fmt.Sprintf("paying now captures a %s discount of %s before %s",
				discount.Percent.Mul(decimal.NewFromInt(100)).String()+"%",
				models.FormatMinorUnits(savings),
				discount.DiscountDeadline.Format("2006-01-02")),
		}, nil
	}

	// Cash-flow-neutral default: hold until the due date.
	return &models.PaymentOptimization{
		BillID:             bill.ID,
		RecommendedPayDate: models.Day(bill.DueDate),
		Urgency:            models.PriorityLow,
		Rationale:          fmt.Sprintf("no actionable discount; pay on due date %s", bill.DueDate.Format("2006-01-02")),
	}, nil
}

// Recommendations collects bills due within daysAhead, optimizes each, and
// groups the results by urgency, sorted inside each group by potential
// savings descending. Overdue bills are always included.
func (o *Optimizer) Recommendations(
	bills []*models.Bill,
	availableCash int64,
	today time.Time,
	daysAhead int,
) ([]*models.PaymentRecommendation, error) {

	if availableCash < 0 {
		return nil, errors.InvalidInputError(errors.CodeNegativeCash, "availableCash", availableCash)
	}

	day := models.Day(today)
	horizon := day.AddDate(0, 0, daysAhead)

	type entry struct {
		bill         *models.Bill
		optimization *models.PaymentOptimization
	}
	groups := map[models.Priority][]entry{}

	for _, bill := range bills {
		if models.Day(bill.DueDate).After(horizon) && !bill.IsOverdue(today) {
			continue
		}

		optimization, err := o.Optimize(bill, availableCash, today)
		if err != nil {
			return nil, err
		}
		groups[optimization.Urgency] = append(groups[optimization.Urgency], entry{bill, optimization})
	}

	var recommendations []*models.PaymentRecommendation
	for _, priority := range []models.Priority{models.PriorityHigh, models.PriorityMedium, models.PriorityLow} {
		entries := groups[priority]
		if len(entries) == 0 {
			continue
		}

		sort.SliceStable(entries, func(i, j int) bool {
			return savingsOf(entries[i].optimization) > savingsOf(entries[j].optimization)
		})

		recommendation := &models.PaymentRecommendation{
			Priority: priority,
			Action:   actionFor(priority),
		}
		for _, e := range entries {
			recommendation.Bills = append(recommendation.Bills, e.bill)
			recommendation.PotentialSavings += savingsOf(e.optimization)
		}
		recommendations = append(recommendations, recommendation)
	}

	return recommendations, nil
}

func savingsOf(optimization *models.PaymentOptimization) int64 {
	if optimization.EarlyPaymentDiscount == nil {
		return 0
	}
	return optimization.EarlyPaymentDiscount.SavingsAmount
}

// discountSavings computes balance * percent in minor units, rounded to the
// nearest cent.
func discountSavings(balance int64, percent decimal.Decimal) int64 {
	return decimal.NewFromInt(balance).Mul(percent).Round(0).IntPart()
}

func daysUntil(today, deadline time.Time) int {
	return int(models.Day(deadline).Sub(models.Day(today)) / (24 * time.Hour))
}

func actionFor(priority models.Priority) string {
	switch priority {
	case models.PriorityHigh:
		return "pay immediately"
	case models.PriorityMedium:
		return "schedule early payment to capture discount"
	default:
		return "pay on due date"
	}
}
