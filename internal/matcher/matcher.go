package matcher

import (
	"fmt"
	"sort"
	"strings"

	"golang-finops-engine/internal/models"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Engine is the core transaction matching engine.
type Engine struct {
	config *Config
}

// Result is the complete outcome of one matching run. Absence of matches is
// a normal outcome, never an error.
type Result struct {
	Matches       []models.MatchCandidate
	UnmatchedBank []*models.Transaction
	UnmatchedBook []*models.Transaction

	// BestScores records, for every unmatched bank transaction, the best
	// fuzzy score any book candidate reached. A zero entry means no
	// comparable book transaction existed at all; scores inside the
	// near-miss band feed the dispute detector.
	BestScores map[string]float64

	Summary Summary
}

// Summary provides aggregate statistics about a matching run.
type Summary struct {
	TotalBank       int
	TotalBook       int
	Matched         int
	UnmatchedBank   int
	UnmatchedBook   int
	ExactMatches    int
	FuzzyMatches    int
	MatchedAmount   int64
	UnmatchedAmount int64
}

// scoredPair is an internal fuzzy-pass candidate before greedy assignment.
type scoredPair struct {
	bank      *models.Transaction
	book      *models.Transaction
	score     float64
	amountSim float64
	dateProx  float64
	descSim   float64
}

// NewEngine creates a matching engine with the specified configuration.
func NewEngine(config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}

	return &Engine{config: config}
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// Match reconciles bank transactions against book transactions. Each
// transaction is consumed by at most one match; the greedy assignment runs
// as a single sequential pass to preserve that invariant.
func (e *Engine) Match(bankTxns, bookTxns []*models.Transaction) *Result {
	idx := newBookIndex(bookTxns)
	consumedBank := make(map[string]bool)
	consumedBook := make(map[string]bool)

	var matches []models.MatchCandidate

	// Exact pass, in deterministic bank order.
	for _, bank := range sortedByDateThenID(bankTxns) {
		for _, book := range idx.exactCandidates(bank) {
			if consumedBook[book.ID] {
				continue
			}
			if !referencesAgree(bank, book) {
				continue
			}

			matches = append(matches, models.MatchCandidate{
				BankTransactionID: bank.ID,
				BookTransactionID: book.ID,
				ConfidenceScore:   1.0,
				MatchType:         models.MatchExact,
				Explanation:       exactExplanation(bank, book),
			})
			consumedBank[bank.ID] = true
			consumedBook[book.ID] = true
			break
		}
	}

	// Fuzzy pass: score every remaining plausible pair, then assign
	// greedily in descending score order.
	pairs, bestScores := e.scoreRemainingPairs(bankTxns, idx, consumedBank, consumedBook)

	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].score != pairs[j].score {
			return pairs[i].score > pairs[j].score
		}
		if !pairs[i].bank.Date.Equal(pairs[j].bank.Date) {
			return pairs[i].bank.Date.Before(pairs[j].bank.Date)
		}
		if pairs[i].bank.ID != pairs[j].bank.ID {
			return pairs[i].bank.ID < pairs[j].bank.ID
		}
		return pairs[i].book.ID < pairs[j].book.ID
	})

	for _, pair := range pairs {
		if consumedBank[pair.bank.ID] || consumedBook[pair.book.ID] {
			continue
		}

		matches = append(matches, models.MatchCandidate{
			BankTransactionID: pair.bank.ID,
			BookTransactionID: pair.book.ID,
			ConfidenceScore:   pair.score,
			MatchType:         e.classifyFuzzy(pair),
			Explanation:       fuzzyExplanation(pair),
		})
		consumedBank[pair.bank.ID] = true
		consumedBook[pair.book.ID] = true
	}

	// Collect residual unmatched sets in input order.
	var unmatchedBank, unmatchedBook []*models.Transaction
	residualBest := make(map[string]float64)

	for _, tx := range bankTxns {
		if !consumedBank[tx.ID] {
			unmatchedBank = append(unmatchedBank, tx)
			residualBest[tx.ID] = bestScores[tx.ID]
		}
	}
	for _, tx := range bookTxns {
		if !consumedBook[tx.ID] {
			unmatchedBook = append(unmatchedBook, tx)
		}
	}

	return &Result{
		Matches:       matches,
		UnmatchedBank: unmatchedBank,
		UnmatchedBook: unmatchedBook,
		BestScores:    residualBest,
		Summary:       e.summarize(matches, bankTxns, bookTxns, unmatchedBank, unmatchedBook),
	}
}

// scoreRemainingPairs scores all unconsumed (bank, book) pairs that share a
// candidate window, returning accepted pairs and the best score seen per
// bank transaction regardless of acceptance.
func (e *Engine) scoreRemainingPairs(
	bankTxns []*models.Transaction,
	idx *bookIndex,
	consumedBank, consumedBook map[string]bool,
) ([]scoredPair, map[string]float64) {

	var pairs []scoredPair
	bestScores := make(map[string]float64)

	for _, bank := range sortedByDateThenID(bankTxns) {
		if consumedBank[bank.ID] {
			continue
		}
		bestScores[bank.ID] = 0

		for _, book := range idx.windowCandidates(bank, e.config.DateWindowDays) {
			if consumedBook[book.ID] {
				continue
			}

			pair := e.scorePair(bank, book)
			if pair.score > bestScores[bank.ID] {
				bestScores[bank.ID] = pair.score
			}
			if pair.score >= e.config.AcceptThreshold {
				pairs = append(pairs, pair)
			}
		}
	}

	return pairs, bestScores
}

// scorePair computes the weighted fuzzy score for one candidate pair.
func (e *Engine) scorePair(bank, book *models.Transaction) scoredPair {
	amountSim := 0.0
	if bank.Amount == book.Amount {
		amountSim = 1.0
	}

	dateProx := e.dateProximity(bank, book)
	descSim := descriptionOverlap(bank, book)

	w := e.config.Weights
	score := amountSim*w.Amount + dateProx*w.Date + descSim*w.Description

	return scoredPair{
		bank:      bank,
		book:      book,
		score:     score,
		amountSim: amountSim,
		dateProx:  dateProx,
		descSim:   descSim,
	}
}

// dateProximity decays linearly from 1.0 on the same day to 0 at the edge of
// the configured window.
func (e *Engine) dateProximity(bank, book *models.Transaction) float64 {
	days := daysBetween(bank.Date, book.Date)
	if e.config.DateWindowDays == 0 {
		if days == 0 {
			return 1.0
		}
		return 0.0
	}

	if days > e.config.DateWindowDays {
		return 0.0
	}
	return 1.0 - float64(days)/float64(e.config.DateWindowDays)
}

// descriptionOverlap is the token Jaccard similarity of the two
// descriptions. When the token sets share nothing but both descriptions are
// non-empty, a normalized Levenshtein ratio over the raw descriptions serves
// as a fallback so reworded narrations still contribute.
func descriptionOverlap(bank, book *models.Transaction) float64 {
	if len(bank.Tokens) == 0 || len(book.Tokens) == 0 {
		return 0.0
	}

	set := make(map[string]bool, len(bank.Tokens))
	for _, tok := range bank.Tokens {
		set[tok] = true
	}

	intersection := 0
	bookSet := make(map[string]bool, len(book.Tokens))
	for _, tok := range book.Tokens {
		if bookSet[tok] {
			continue
		}
		bookSet[tok] = true
		if set[tok] {
			intersection++
		}
	}

	union := len(set) + len(bookSet) - intersection
	if union == 0 {
		return 0.0
	}

	jaccard := float64(intersection) / float64(union)
	if jaccard > 0 {
		return jaccard
	}

	return levenshteinRatio(strings.ToLower(bank.Description), strings.ToLower(book.Description))
}

// levenshteinRatio maps edit distance into [0,1], 1.0 meaning identical.
// RatioForStrings normalizes by the combined length, so the default
// substitution cost of 2 cannot push the result below zero.
func levenshteinRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}

	return levenshtein.RatioForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
}

// classifyFuzzy labels an accepted fuzzy pair. Agreeing reference numbers
// take precedence; otherwise the label follows whichever weighted component
// contributed more, amount winning ties.
func (e *Engine) classifyFuzzy(pair scoredPair) models.MatchType {
	bankRef := pair.bank.ReferenceNumber
	bookRef := pair.book.ReferenceNumber
	if bankRef != "" && bankRef == bookRef {
		return models.MatchReference
	}

	w := e.config.Weights
	if pair.amountSim*w.Amount >= pair.dateProx*w.Date {
		return models.MatchFuzzyAmount
	}
	return models.MatchFuzzyDate
}

// referencesAgree reports whether two records' reference numbers are
// compatible: vacuously true unless both carry one.
func referencesAgree(bank, book *models.Transaction) bool {
	if bank.ReferenceNumber == "" || book.ReferenceNumber == "" {
		return true
	}
	return bank.ReferenceNumber == book.ReferenceNumber
}

func exactExplanation(bank, book *models.Transaction) string {
	if bank.ReferenceNumber != "" && bank.ReferenceNumber == book.ReferenceNumber {
		return fmt.Sprintf("exact amount and date, reference %s agrees", bank.ReferenceNumber)
	}
	return "exact amount and date"
}

func fuzzyExplanation(pair scoredPair) string {
	var parts []string

	if pair.amountSim == 1.0 {
		parts = append(parts, "amounts equal")
	} else {
		parts = append(parts, "amounts differ")
	}

	days := daysBetween(pair.bank.Date, pair.book.Date)
	if days == 0 {
		parts = append(parts, "same day")
	} else {
		parts = append(parts, fmt.Sprintf("%d day(s) apart", days))
	}

	if pair.descSim > 0 {
		parts = append(parts, fmt.Sprintf("description similarity %.2f", pair.descSim))
	}

	return strings.Join(parts, ", ")
}

func (e *Engine) summarize(
	matches []models.MatchCandidate,
	bankTxns, bookTxns, unmatchedBank, unmatchedBook []*models.Transaction,
) Summary {

	summary := Summary{
		TotalBank:     len(bankTxns),
		TotalBook:     len(bookTxns),
		Matched:       len(matches),
		UnmatchedBank: len(unmatchedBank),
		UnmatchedBook: len(unmatchedBook),
	}

	bankByID := make(map[string]*models.Transaction, len(bankTxns))
	for _, tx := range bankTxns {
		bankByID[tx.ID] = tx
	}

	for _, match := range matches {
		if match.MatchType == models.MatchExact {
			summary.ExactMatches++
		} else {
			summary.FuzzyMatches++
		}
		if tx, ok := bankByID[match.BankTransactionID]; ok {
			summary.MatchedAmount += tx.AbsAmount()
		}
	}

	for _, tx := range unmatchedBank {
		summary.UnmatchedAmount += tx.AbsAmount()
	}

	return summary
}

func sortedByDateThenID(txns []*models.Transaction) []*models.Transaction {
	out := make([]*models.Transaction, len(txns))
	copy(out, txns)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
