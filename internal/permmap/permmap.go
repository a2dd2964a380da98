// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

// Package permmap maps backend resource paths to the area, model and
// permission codenames that gate them.
package permmap

import (
	"strings"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/access"
)

// Definition describes the permissions guarding one backend collection.
type Definition struct {
	ResourcePath string
	Area         access.Area
	Model        string
	// ActionCodenames overrides the default codenames for named workflow
	// actions.
	ActionCodenames map[string][]string
}

// Operation is a CRUD verb as it appears in Django-style codenames.
type Operation string

const (
	OpView   Operation = "view"
	OpAdd    Operation = "add"
	OpChange Operation = "change"
	OpDelete Operation = "delete"
)

func def(path string, area access.Area, model string) Definition {
	return Definition{ResourcePath: path, Area: area, Model: model}
}

func defActions(path string, area access.Area, model string, actions map[string][]string) Definition {
	return Definition{ResourcePath: path, Area: area, Model: model, ActionCodenames: actions}
}

func submitApproveReject(area access.Area, model string) map[string][]string {
	a := string(area)
	return map[string][]string{
		"submit":  {a + ".submit_" + model},
		"approve": {a + ".approve_" + model},
		"reject":  {a + ".reject_" + model},
	}
}

var definitions = []Definition{
	def("/v1/core/roles/", access.AreaAdmin, "role"),
	def("/v1/core/users/", access.AreaAdmin, "user"),
	def("/v1/core/audit-logs/", access.AreaAdmin, "auditlog"),
	def("/v1/core/company-profile/", access.AreaFinance, "companyprofile"),
	def("/v1/core/customers/", access.AreaAdmin, "customer"),

	def("/v2/finance/accounts/", access.AreaFinance, "glaccount"),
	def("/v2/finance/cost-centers/", access.AreaFinance, "costcenter"),
	def("/v2/masters/customers/", access.AreaFinance, "customer"),
	def("/v2/masters/vendors/", access.AreaFinance, "vendor"),
	def("/v2/masters/items/", access.AreaFinance, "item"),
	def("/v2/inventory/locations/", access.AreaProcurement, "inventorylocation"),
	def("/v2/inventory/movements/", access.AreaProcurement, "inventorymovement"),
	def("/v2/inventory/adjustments/", access.AreaProcurement, "inventoryadjustment"),
	def("/v2/inventory/count-sessions/", access.AreaProcurement, "inventorycountsession"),
	def("/v2/sales/quotations/", access.AreaFinance, "salesquotation"),
	def("/v2/sales/orders/", access.AreaFinance, "salesorder"),
	def("/v2/sales/invoices/", access.AreaFinance, "salesinvoice"),
	def("/v2/purchase/orders/", access.AreaProcurement, "purchaseorder"),
	def("/v2/purchase/receipts/", access.AreaProcurement, "purchasereceipt"),
	def("/v2/purchase/invoices/", access.AreaProcurement, "purchaseinvoice"),
	def("/v2/treasury/receipts/", access.AreaFinance, "treasuryreceipt"),
	def("/v2/treasury/payments/", access.AreaFinance, "treasurypayment"),
	def("/v2/treasury/cheques/", access.AreaFinance, "treasurycheque"),
	def("/v2/banking/statements/", access.AreaFinance, "bankstatement"),
	def("/v2/banking/reconciliations/", access.AreaFinance, "bankreconciliation"),
	def("/v2/gl/journal-entries/", access.AreaFinance, "glentry"),
	def("/v2/finance/posting-rules/", access.AreaFinance, "postingrule"),

	defActions("/v1/projects/projects/", access.AreaProjects, "project", map[string][]string{
		"close": {"projects.close_project"},
	}),
	def("/v1/projects/phases/", access.AreaProjects, "phase"),
	def("/v1/projects/boq-items/", access.AreaProjects, "boqitem"),
	def("/v1/projects/cost-codes/", access.AreaProjects, "costcode"),
	def("/v1/projects/budget-lines/", access.AreaProjects, "budgetline"),
	def("/v1/projects/cost-records/", access.AreaProjects, "costrecord"),
	defActions("/v1/projects/change-orders/", access.AreaProjects, "changeorder",
		submitApproveReject(access.AreaProjects, "changeorder")),

	def("/v1/procurement/suppliers/", access.AreaProcurement, "supplier"),
	def("/v1/procurement/warehouses/", access.AreaProcurement, "warehouse"),
	def("/v1/procurement/materials/", access.AreaProcurement, "material"),
	defActions("/v1/procurement/purchase-requests/", access.AreaProcurement, "purchaserequest",
		submitApproveReject(access.AreaProcurement, "purchaserequest")),
	defActions("/v1/procurement/purchase-orders/", access.AreaProcurement, "purchaseorder", map[string][]string{
		"send":    {"procurement.send_purchaseorder"},
		"receive": {"procurement.receive_purchaseorder"},
		"cancel":  {"procurement.cancel_purchaseorder"},
	}),
	def("/v1/procurement/stock-transactions/", access.AreaProcurement, "stocktransaction"),

	def("/v1/finance/accounts/", access.AreaFinance, "account"),
	defActions("/v1/finance/journal-entries/", access.AreaFinance, "journalentry", map[string][]string{
		"post":    {"finance.post_journalentry"},
		"reverse": {"finance.reverse_journalentry"},
		"correct": {"finance.correct_journalentry"},
	}),
	def("/v1/finance/journal-entries/export/", access.AreaFinance, "journalentry"),
	def("/v1/finance/journal-entries/import/", access.AreaFinance, "journalentry"),
	def("/v1/finance/journal-entries/import-template/", access.AreaFinance, "journalentry"),
	defActions("/v1/finance/invoices/", access.AreaFinance, "invoice",
		submitApproveReject(access.AreaFinance, "invoice")),
	defActions("/v1/finance/payments/", access.AreaFinance, "payment",
		submitApproveReject(access.AreaFinance, "payment")),
	defActions("/v1/finance/progress-billings/", access.AreaFinance, "progressbilling", map[string][]string{
		"submit":           {"finance.submit_progressbilling"},
		"approve":          {"finance.approve_progressbilling"},
		"reject":           {"finance.reject_progressbilling"},
		"generate-invoice": {"finance.generate_invoice_progressbilling"},
	}),
	defActions("/v1/finance/revenue-recognition/", access.AreaFinance, "revenuerecognition",
		submitApproveReject(access.AreaFinance, "revenuerecognition")),
	defActions("/v1/finance/periods/", access.AreaFinance, "fiscalperiod", map[string][]string{
		"soft-close": {"finance.soft_close_fiscalperiod"},
		"hard-close": {"finance.hard_close_fiscalperiod"},
	}),
	def("/v1/finance/exchange-rates/", access.AreaFinance, "exchangerate"),
	def("/v1/finance/print-settings/", access.AreaFinance, "printsettings"),
	def("/v1/finance/posting-rules/", access.AreaFinance, "postingrule"),
	def("/v1/finance/recurring-templates/", access.AreaFinance, "recurringentrytemplate"),
	def("/v1/finance/bank-accounts/", access.AreaFinance, "bankaccount"),
	def("/v1/finance/bank-statements/", access.AreaFinance, "bankstatement"),
	def("/v1/finance/bank-reconciliation-sessions/", access.AreaFinance, "bankreconciliationsession"),
	def("/v1/finance/reports/trial-balance/", access.AreaFinance, "financialreport"),
	def("/v1/finance/reports/general-journal/", access.AreaFinance, "financialreport"),
	def("/v1/finance/reports/general-ledger/", access.AreaFinance, "financialreport"),
	def("/v1/finance/reports/balance-sheet/", access.AreaFinance, "financialreport"),
	def("/v1/finance/reports/income-statement/", access.AreaFinance, "financialreport"),
	defActions("/v1/finance/year-close/", access.AreaFinance, "yearclose", map[string][]string{
		"run": {"finance.run_yearclose"},
	}),

	def("/v1/real-estate/projects/", access.AreaRealEstate, "realestateproject"),
	def("/v1/real-estate/buildings/", access.AreaRealEstate, "building"),
	def("/v1/real-estate/unit-types/", access.AreaRealEstate, "unittype"),
	def("/v1/real-estate/units/", access.AreaRealEstate, "unit"),
	def("/v1/real-estate/unit-pricing/", access.AreaRealEstate, "unitpricing"),
	defActions("/v1/real-estate/reservations/", access.AreaRealEstate, "reservation", map[string][]string{
		"reserve": {"real_estate.reserve_reservation"},
		"cancel":  {"real_estate.cancel_reservation"},
	}),
	def("/v1/real-estate/sales-contracts/", access.AreaRealEstate, "salescontract"),
	def("/v1/real-estate/payment-schedules/", access.AreaRealEstate, "paymentschedule"),
	def("/v1/real-estate/installments/", access.AreaRealEstate, "installment"),
	defActions("/v1/real-estate/handovers/", access.AreaRealEstate, "handover", map[string][]string{
		"handover": {"real_estate.complete_handover"},
	}),
	def("/v1/real-estate/portal/contracts/", access.AreaRealEstate, "salescontract"),
	def("/v1/real-estate/portal/installments/", access.AreaRealEstate, "installment"),
	def("/v1/real-estate/portal/reservations/", access.AreaRealEstate, "reservation"),
	def("/v1/real-estate/portal/handovers/", access.AreaRealEstate, "handover"),
	def("/v1/finance/portal/payments/", access.AreaFinance, "payment"),
	def("/v1/payments/payment-intents/", access.AreaFinance, "paymentintent"),
}

// defaultActionVerbs maps workflow action names to codename verbs when a
// definition has no explicit override.
var defaultActionVerbs = map[string]string{
	"submit":           "submit",
	"approve":          "approve",
	"reject":           "reject",
	"close":            "close",
	"send":             "send",
	"receive":          "receive",
	"cancel":           "cancel",
	"generate-invoice": "generate_invoice",
}

var byPath = func() map[string]*Definition {
	m := make(map[string]*Definition, len(definitions))
	for i := range definitions {
		m[NormalizePath(definitions[i].ResourcePath)] = &definitions[i]
	}
	return m
}()

// NormalizePath adds the trailing slash backend collections are keyed by.
func NormalizePath(path string) string {
	if !strings.HasSuffix(path, "/") {
		return path + "/"
	}
	return path
}

// Lookup returns the definition for a resource path.
func Lookup(resourcePath string) (*Definition, bool) {
	d, ok := byPath[NormalizePath(resourcePath)]
	return d, ok
}

// Paths lists every mapped resource path.
func Paths() []string {
	out := make([]string, 0, len(definitions))
	for _, d := range definitions {
		out = append(out, NormalizePath(d.ResourcePath))
	}
	return out
}

// CrudCodenames returns every claim spelling that grants op on the
// definition's model, including the area wildcards.
func CrudCodenames(d *Definition, op Operation) []string {
	if d == nil {
		return nil
	}
	return codenames(string(d.Area), string(op), d.Model)
}

// ActionCodenames returns the claims that grant a workflow action. Explicit
// overrides win; unknown actions without an override yield nil.
func ActionCodenames(d *Definition, action string) []string {
	if d == nil {
		return nil
	}
	area := string(d.Area)
	if explicit := d.ActionCodenames[action]; len(explicit) > 0 {
		out := make([]string, 0, len(explicit)+2)
		seen := map[string]bool{}
		for _, c := range append(append([]string{}, explicit...), area+":*", area+".*") {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
		return out
	}
	verb, ok := defaultActionVerbs[strings.ToLower(strings.TrimSpace(action))]
	if !ok {
		return nil
	}
	return codenames(area, verb, d.Model)
}

func codenames(area, verb, model string) []string {
	codename := verb + "_" + model
	return []string{
		area + "." + codename,
		codename,
		area + ":" + codename,
		area + "." + verb + "." + model,
		area + ":" + verb + ":" + model,
		area + ":*",
		area + ".*",
	}
}
