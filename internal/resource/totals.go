// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package resource

import (
	"math"
	"strconv"
	"strings"
)

// ParseFiniteNumber parses a trimmed decimal. Empty, malformed and infinite
// values are rejected.
func ParseFiniteNumber(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

func numberOrZero(text string) float64 {
	n, _ := ParseFiniteNumber(text)
	return n
}

// RoundMoney rounds to two decimals.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

func unitAmount(row EditorRow) (float64, bool) {
	for _, key := range []string{"unit_price", "unit_cost", "estimated_unit_cost"} {
		if n, ok := ParseFiniteNumber(row[key]); ok {
			return n, true
		}
	}
	return 0, false
}

// LineAmounts are the computed money figures of one line.
type LineAmounts struct {
	Subtotal float64
	Tax      float64
	Total    float64
}

// RowAmounts computes quantity × unit amount plus tax for one line. The bool
// is false when the row has no quantity or unit amount.
func RowAmounts(row EditorRow) (LineAmounts, bool) {
	qty, ok := ParseFiniteNumber(row["quantity"])
	if !ok {
		return LineAmounts{}, false
	}
	unit, ok := unitAmount(row)
	if !ok {
		return LineAmounts{}, false
	}
	rate := numberOrZero(row["tax_rate"])
	subtotal := RoundMoney(qty * unit)
	tax := RoundMoney(subtotal * rate / 100)
	return LineAmounts{Subtotal: subtotal, Tax: tax, Total: RoundMoney(subtotal + tax)}, true
}

// Summary holds the line-editor footer totals.
type Summary struct {
	Subtotal      float64
	Tax           float64
	Total         float64
	Debit         float64
	Credit        float64
	ContractDelta float64
	BudgetDelta   float64

	HasLineTotals        bool
	HasJournalTotals     bool
	HasChangeOrderTotals bool
}

// Summarize computes editor totals. It returns nil when the editor has no
// rows, hides totals, or has no column that totals apply to.
func Summarize(rows []EditorRow, e *JSONEditor) *Summary {
	if e.HideTotals || len(rows) == 0 {
		return nil
	}
	s := &Summary{
		HasLineTotals: e.HasColumn("quantity") &&
			(e.HasColumn("unit_price") || e.HasColumn("unit_cost") || e.HasColumn("estimated_unit_cost")),
		HasJournalTotals:     e.HasColumn("debit") || e.HasColumn("credit"),
		HasChangeOrderTotals: e.HasColumn("contract_value_delta") || e.HasColumn("budget_delta"),
	}
	if !s.HasLineTotals && !s.HasJournalTotals && !s.HasChangeOrderTotals {
		return nil
	}

	var subtotal, tax float64
	for _, row := range rows {
		qty, okQty := ParseFiniteNumber(row["quantity"])
		unit, okUnit := unitAmount(row)
		if okQty && okUnit {
			line := qty * unit
			subtotal += line
			tax += line * numberOrZero(row["tax_rate"]) / 100
		}
		s.Debit += numberOrZero(row["debit"])
		s.Credit += numberOrZero(row["credit"])
		s.ContractDelta += numberOrZero(row["contract_value_delta"])
		s.BudgetDelta += numberOrZero(row["budget_delta"])
	}

	s.Subtotal = RoundMoney(subtotal)
	s.Tax = RoundMoney(tax)
	s.Total = RoundMoney(s.Subtotal + s.Tax)
	s.Debit = RoundMoney(s.Debit)
	s.Credit = RoundMoney(s.Credit)
	s.ContractDelta = RoundMoney(s.ContractDelta)
	s.BudgetDelta = RoundMoney(s.BudgetDelta)
	return s
}
