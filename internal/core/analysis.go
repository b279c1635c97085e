package core

import (
	"errors"
	"slices"

	"github.com/shopspring/decimal"
)

type (
	AllocationRule struct {
		Name       string          `json:"name"`
		Percentage decimal.Decimal `json:"percentage"`
	}

	RecommendedAction struct {
		Title string `json:"title"`
		Why   string `json:"why"`
		How   string `json:"how"`
	}

	// Analysis is the structured advice returned by the advisor.
	Analysis struct {
		Baseline           decimal.Decimal     `json:"baseline"`
		Buffer             decimal.Decimal     `json:"buffer"`
		AllocationRules    []AllocationRule    `json:"allocation_rules"`
		PredictedDeficit   bool                `json:"predicted_deficit"`
		RecommendedActions []RecommendedAction `json:"recommended_actions"`
	}

	// AnalysisInput is what gets sent to the advisor.
	AnalysisInput struct {
		Balance      decimal.Decimal `json:"balance"`
		Transactions []Transaction   `json:"transactions"`
		Pots         []Pot           `json:"pots"`
	}
)

// AnalysisTransactionLimit caps how many transactions are sent for analysis.
const AnalysisTransactionLimit = 15

var ErrIncompleteAnalysis = errors.New("incomplete analysis")

func (a Analysis) Validate() error {
	if a.AllocationRules == nil || a.RecommendedActions == nil {
		return ErrIncompleteAnalysis
	}
	for _, r := range a.AllocationRules {
		if r.Name == "" {
			return ErrIncompleteAnalysis
		}
	}
	for _, act := range a.RecommendedActions {
		if act.Title == "" {
			return ErrIncompleteAnalysis
		}
	}
	return nil
}

// NewAnalysisInput selects the most recent transactions of d and pairs them
// with its pots and balance.
func NewAnalysisInput(d UserData) AnalysisInput {
	txs := RecentTransactions(d.Transactions)
	if len(txs) > AnalysisTransactionLimit {
		txs = txs[:AnalysisTransactionLimit]
	}
	return AnalysisInput{
		Balance:      Balance(d),
		Transactions: txs,
		Pots:         slices.Clone(d.Pots),
	}
}

// RecentTransactions returns a copy of txs, newest first.
func RecentTransactions(txs []Transaction) []Transaction {
	out := slices.Clone(txs)
	slices.SortStableFunc(out, func(a, b Transaction) int {
		return b.Date.Compare(a.Date)
	})
	return out
}
