// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package resource

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Display defaults.
const (
	DefaultCurrency = "KWD"
	DefaultLocale   = "ar-KW"
)

// Formatter renders numbers, money and dates for one locale.
type Formatter struct {
	Currency string
	printer  *message.Printer
}

// NewFormatter returns a formatter for locale and the default currency.
// Unknown locales fall back to English.
func NewFormatter(locale, cur string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	if cur == "" {
		cur = DefaultCurrency
	}
	return &Formatter{Currency: cur, printer: message.NewPrinter(tag)}
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return ParseFiniteNumber(stringify(value))
}

// Money formats value with two decimals and the currency code. Values that
// are not numbers are returned as text; an unknown currency code falls back
// to "%.2f CODE".
func (f *Formatter) Money(value any, cur string) string {
	amount, ok := toNumber(value)
	if !ok {
		return stringify(value)
	}
	if cur == "" {
		cur = f.Currency
	}
	unit, err := currency.ParseISO(cur)
	if err != nil {
		return fmt.Sprintf("%.2f %s", amount, cur)
	}
	return f.printer.Sprintf("%v %s", number.Decimal(amount,
		number.MinFractionDigits(2), number.MaxFractionDigits(2)), unit.String())
}

// Number formats value with at most maxFraction decimals.
func (f *Formatter) Number(value any, maxFraction int) string {
	n, ok := toNumber(value)
	if !ok {
		return stringify(value)
	}
	return f.printer.Sprint(number.Decimal(n, number.MaxFractionDigits(maxFraction)))
}

// Amount formats a computed editor total with exactly two decimals.
func (f *Formatter) Amount(v float64) string {
	return f.printer.Sprint(number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// Date renders an ISO date or timestamp as day/month/year. Unparsable input
// is returned unchanged.
func (f *Formatter) Date(value any) string {
	text := strings.TrimSpace(stringify(value))
	if text == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, text)
		if err != nil {
			continue
		}
		return f.printer.Sprintf("%v/%v/%v",
			number.Decimal(t.Day()),
			number.Decimal(int(t.Month())),
			number.Decimal(t.Year(), number.NoSeparator()))
	}
	return text
}

// Cell renders a table cell value according to format. Missing values are
// shown as "-".
func (f *Formatter) Cell(format Format, value any) string {
	if value == nil {
		if format == FormatBool {
			return "لا"
		}
		return "-"
	}
	switch format {
	case FormatMoney:
		return f.Money(value, "")
	case FormatNumber:
		return f.Number(value, 2)
	case FormatPercent:
		return f.Number(value, 2) + "%"
	case FormatDate:
		return f.Date(value)
	case FormatBool:
		if b, ok := value.(bool); ok && b {
			return "نعم"
		}
		return "لا"
	case FormatStatus:
		return StatusLabel(stringify(value))
	case FormatRef:
		if s := stringify(value); s != "" {
			return "#" + s
		}
		return "-"
	}
	if s := stringify(value); s != "" {
		return s
	}
	return "-"
}
