package processor

import (
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/wonny/soywatch/backend/internal/contracts"
)

// Statistics summarizes the close prices of a row set
type Statistics struct {
	Count     int
	MeanClose decimal.Decimal
	MaxClose  decimal.Decimal
	MinClose  decimal.Decimal
}

// Merge flattens per-contract row sets, keeping their order
func Merge(sets [][]contracts.ContractRow) []contracts.ContractRow {
	total := 0
	for _, rows := range sets {
		total += len(rows)
	}
	if total == 0 {
		return nil
	}

	merged := make([]contracts.ContractRow, 0, total)
	for _, rows := range sets {
		merged = append(merged, rows...)
	}
	return merged
}

// Clean drops rows without a close price and exact duplicate rows
func Clean(rows []contracts.ContractRow) []contracts.ContractRow {
	if len(rows) == 0 {
		return rows
	}

	seen := make(map[string]struct{}, len(rows))
	cleaned := make([]contracts.ContractRow, 0, len(rows))
	for _, r := range rows {
		if !r.Date.IsValid() || r.Close.IsZero() {
			continue
		}
		key := fmt.Sprint(r.Values()...)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, r)
	}
	return cleaned
}

// FilterByDate keeps rows with from <= date <= to
func FilterByDate(rows []contracts.ContractRow, from, to civil.Date) []contracts.ContractRow {
	filtered := make([]contracts.ContractRow, 0, len(rows))
	for _, r := range rows {
		if r.Date.Before(from) || r.Date.After(to) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

// Calculate returns close-price statistics; ok is false for an empty set
func Calculate(rows []contracts.ContractRow) (stats Statistics, ok bool) {
	if len(rows) == 0 {
		return Statistics{}, false
	}

	sum := decimal.Zero
	stats.MaxClose = rows[0].Close
	stats.MinClose = rows[0].Close
	for _, r := range rows {
		sum = sum.Add(r.Close)
		if r.Close.GreaterThan(stats.MaxClose) {
			stats.MaxClose = r.Close
		}
		if r.Close.LessThan(stats.MinClose) {
			stats.MinClose = r.Close
		}
	}

	stats.Count = len(rows)
	stats.MeanClose = sum.Div(decimal.NewFromInt(int64(len(rows)))).Round(2)
	return stats, true
}
