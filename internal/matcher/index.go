package matcher

import (
	"sort"
	"time"

	"golang-finops-engine/internal/models"
)

// bookIndex provides amount and date lookups over book transactions so the
// fuzzy pass only scores plausible candidates instead of the full cross
// product.
type bookIndex struct {
	// byAmount maps signed minor-unit amounts to book transactions.
	byAmount map[int64][]*models.Transaction

	// byDay maps day keys (YYYY-MM-DD) to book transactions.
	byDay map[string][]*models.Transaction

	all []*models.Transaction
}

func newBookIndex(bookTxns []*models.Transaction) *bookIndex {
	idx := &bookIndex{
		byAmount: make(map[int64][]*models.Transaction),
		byDay:    make(map[string][]*models.Transaction),
		all:      bookTxns,
	}

	for _, tx := range bookTxns {
		idx.byAmount[tx.Amount] = append(idx.byAmount[tx.Amount], tx)
		dayKey := tx.Date.Format("2006-01-02")
		idx.byDay[dayKey] = append(idx.byDay[dayKey], tx)
	}

	return idx
}

// exactCandidates returns book transactions with the identical signed amount
// on the same calendar day, sorted by id for deterministic selection.
func (idx *bookIndex) exactCandidates(bank *models.Transaction) []*models.Transaction {
	var out []*models.Transaction
	for _, tx := range idx.byAmount[bank.Amount] {
		if tx.Date.Equal(bank.Date) {
			out = append(out, tx)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// windowCandidates returns the union of book transactions within the date
// window and those sharing the exact amount, deduplicated and sorted by id.
// Same-amount candidates outside the window are included because the amount
// component alone can carry a pair over the acceptance threshold.
func (idx *bookIndex) windowCandidates(bank *models.Transaction, windowDays int) []*models.Transaction {
	seen := make(map[string]bool)
	var out []*models.Transaction

	for offset := -windowDays; offset <= windowDays; offset++ {
		dayKey := bank.Date.AddDate(0, 0, offset).Format("2006-01-02")
		for _, tx := range idx.byDay[dayKey] {
			if !seen[tx.ID] {
				seen[tx.ID] = true
				out = append(out, tx)
			}
		}
	}

	for _, tx := range idx.byAmount[bank.Amount] {
		if !seen[tx.ID] {
			seen[tx.ID] = true
			out = append(out, tx)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// daysBetween returns the absolute whole-day distance between two
// day-granular dates.
func daysBetween(a, b time.Time) int {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return int(diff / (24 * time.Hour))
}
