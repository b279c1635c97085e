package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"freelanceflow/internal/core"
)

// ChatInstruction frames the chat advisor.
const ChatInstruction = `You are a professional financial advisor for freelancers with irregular income.
Your job is to analyse the user's month, smooth their income, optimise spending and build a detailed,
immediately actionable financial plan.

Before analysing, always ask for: target monthly income, estimated income this month, fixed costs,
variable costs, the amount they want to save, the amount they want to invest (and in what), travel or
project budgets, debts, and secondary income.

Then produce, in order:
A. A financial diagnosis table: total income, total spending, potential savings, safety margin,
   savings rate, burn rate, run rate, and how many days savings would cover.
B. Imbalances: spending versus income, volatility, dependence on too few clients, hidden risks.
C. Professional recommendations: cost cuts, income smoothing, pricing, an income floor, retainers,
   emergency strategies for low months.
D. A 30-day action plan table with action, deadline, impact, difficulty and how to do it.
E. An improved cash-flow plan: stable, target and ideal income, an envelope system, and a path to
   three months of runway.
F. Advanced strategies: recurring revenue, upsells, diversification, client segmentation, pricing
   adjustments, tax optimisation where useful, suitable investments.
G. Charts worth drawing: income versus spending, 3 and 12 month projections, budget split.
H. Alerts: financial risks, exceeded budgets, income below goals, low savings, wasteful spending.

Answer with clear sections, tables, prioritised recommendations, short and long term strategies,
automation ideas, and a summary with next steps. Be structured, clear, direct and business minded.

For your very first reply only, answer exactly:
"Thanks. Now send me the data listed above so I can start the analysis."`

const analysisTemplate = `Analyse the following financial data for a freelancer and advise how to smooth their income.
- Current balance: %s EUR
- Recent transactions: %s
- Current savings pots: %s

Goals:
1. Determine a monthly baseline income to aim for ("baseline", number).
2. Suggest a working buffer to keep on the main account ("buffer", number).
3. Propose pot allocation rules ("allocation_rules"): a list of {"name", "percentage"} objects. Existing pots
   may be kept with adjusted percentages and new pots may be suggested.
4. Say whether a deficit is likely ("predicted_deficit", boolean).
5. Give exactly 3 concrete actions ("recommended_actions"), each an object with a short "title", "why" it
   matters and "how" to do it.

Reply with the JSON object only, without markdown.`

// AnalysisPrompt renders the analysis request for in.
func AnalysisPrompt(in core.AnalysisInput) (string, error) {
	txs, err := json.Marshal(in.Transactions)
	if err != nil {
		return "", fmt.Errorf("encode transactions: %w", err)
	}
	pots, err := json.Marshal(in.Pots)
	if err != nil {
		return "", fmt.Errorf("encode pots: %w", err)
	}
	return strings.TrimSpace(fmt.Sprintf(analysisTemplate, in.Balance.StringFixed(2), txs, pots)), nil
}
