// Package reports aggregates workspace entries into summaries and CSV exports.
package reports

import (
	"github.com/google/uuid"

	"github.com/fundflow/fundflow/internal/entries"
)

// Line is one aggregate bucket of entries sharing type, status and currency.
type Line struct {
	Type     entries.Type   `json:"type"`
	Status   entries.Status `json:"status"`
	Currency string         `json:"currency"`
	Count    int64          `json:"count"`
	Amount   int64          `json:"amount"`
}

// CurrencyTotals nets entry types for a single currency. Only approved entries count.
type CurrencyTotals struct {
	Currency     string `json:"currency"`
	Income       int64  `json:"income"`
	Disbursement int64  `json:"disbursement"`
	Remittance   int64  `json:"remittance"`
	Balance      int64  `json:"balance"`
}

// Summary is the workspace report.
type Summary struct {
	WorkspaceID uuid.UUID        `json:"workspace_id"`
	Lines       []Line           `json:"lines"`
	Totals      []CurrencyTotals `json:"totals"`
	Pending     int64            `json:"pending"`
	Flagged     int64            `json:"flagged"`
}

func summarize(workspaceID uuid.UUID, lines []Line) Summary {
	summary := Summary{WorkspaceID: workspaceID, Lines: lines, Totals: make([]CurrencyTotals, 0)}
	index := make(map[string]int)
	for _, line := range lines {
		switch line.Status {
		case entries.StatusPendingReview:
			summary.Pending += line.Count
		case entries.StatusFlagged:
			summary.Flagged += line.Count
		}
		if line.Status != entries.StatusApproved {
			continue
		}
		i, ok := index[line.Currency]
		if !ok {
			i = len(summary.Totals)
			index[line.Currency] = i
			summary.Totals = append(summary.Totals, CurrencyTotals{Currency: line.Currency})
		}
		totals := &summary.Totals[i]
		switch line.Type {
		case entries.TypeIncome:
			totals.Income += line.Amount
		case entries.TypeDisbursement:
			totals.Disbursement += line.Amount
		case entries.TypeRemittance:
			totals.Remittance += line.Amount
		}
		totals.Balance = totals.Income - totals.Disbursement - totals.Remittance
	}
	return summary
}
