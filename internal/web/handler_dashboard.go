// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package web

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/access"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/backend"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/resource"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/session"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/web/ui"
)

// ============================================================================
// Overview
// ============================================================================

// Collections read by the overview.
const (
	projectsPath         = "/v1/projects/projects/"
	purchaseOrdersPath   = "/v1/procurement/purchase-orders/"
	invoicesPath         = "/v1/finance/invoices/"
	progressBillingsPath = "/v1/finance/progress-billings/"
	paymentRecordsPath       = "/v1/finance/payments/"
)

const chartMonths = 6

type monthTotals struct {
	Key      string
	Label    string
	Invoices float64
	Payments float64
}

type dashboardStats struct {
	Projects         int
	PurchaseOrders   int
	Invoices         int
	ProgressBillings int

	ContractTotal     float64
	InvoiceTotal      float64
	ConfirmedPayments float64
	OpenBalance       float64

	Months []monthTotals
}

func lastMonths(now time.Time, n int) []monthTotals {
	out := make([]monthTotals, 0, n)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i := n - 1; i >= 0; i-- {
		m := first.AddDate(0, -i, 0)
		out = append(out, monthTotals{Key: m.Format("2006-01"), Label: m.Format("2006/01")})
	}
	return out
}

func amountOf(v any) float64 {
	if v == nil {
		return 0
	}
	n, _ := resource.ParseFiniteNumber(fmt.Sprint(v))
	return n
}

func sumField(rows []backend.Row, field string) float64 {
	var total float64
	for _, row := range rows {
		total += amountOf(row[field])
	}
	return total
}

// addByMonth adds each row's amount to the month its date falls in.
func addByMonth(months []monthTotals, rows []backend.Row, dateField, amountField string, into func(*monthTotals, float64)) {
	index := make(map[string]int, len(months))
	for i, m := range months {
		index[m.Key] = i
	}
	for _, row := range rows {
		date := fmt.Sprint(row[dateField])
		if len(date) < 7 {
			continue
		}
		if i, ok := index[date[:7]]; ok {
			into(&months[i], amountOf(row[amountField]))
		}
	}
}

// loadDashboard fetches the counts and totals the session may see. Areas
// the session cannot view stay at zero.
func (h *Handler) loadDashboard(ctx context.Context, token string, s session.Snapshot, now time.Time) (*dashboardStats, error) {
	stats := &dashboardStats{Months: lastMonths(now, chartMonths)}
	g, gctx := errgroup.WithContext(ctx)

	count := func(path string, into *int) {
		g.Go(func() error {
			page, err := h.backend.List(gctx, token, path, backend.ListParams{Page: 1})
			if err != nil {
				return err
			}
			*into = page.Count
			return nil
		})
	}

	var projects, invoices, payments []backend.Row
	all := func(path string, params backend.ListParams, into *[]backend.Row) {
		g.Go(func() error {
			rows, err := h.backend.ListAll(gctx, token, path, params)
			*into = rows
			return err
		})
	}

	if s.HasAreaAccess(access.AreaProjects) {
		count(projectsPath, &stats.Projects)
		all(projectsPath, backend.ListParams{Ordering: "code"}, &projects)
	}
	if s.HasAreaAccess(access.AreaProcurement) {
		count(purchaseOrdersPath, &stats.PurchaseOrders)
	}
	if s.HasAreaAccess(access.AreaFinance) {
		count(invoicesPath, &stats.Invoices)
		count(progressBillingsPath, &stats.ProgressBillings)
		all(invoicesPath, backend.ListParams{Ordering: "-issue_date"}, &invoices)
		all(paymentRecordsPath, backend.ListParams{Ordering: "-payment_date", Status: "confirmed"}, &payments)
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.ContractTotal = sumField(projects, "contract_value")
	stats.InvoiceTotal = sumField(invoices, "total_amount")
	stats.ConfirmedPayments = sumField(payments, "amount")
	stats.OpenBalance = max(stats.InvoiceTotal-stats.ConfirmedPayments, 0)
	addByMonth(stats.Months, invoices, "issue_date", "total_amount", func(m *monthTotals, v float64) { m.Invoices += v })
	addByMonth(stats.Months, payments, "payment_date", "amount", func(m *monthTotals, v float64) { m.Payments += v })
	return stats, nil
}

func (h *Handler) dashboardBody(stats *dashboardStats, errMsg string) func(w *ui.Writer) {
	f := h.format
	kpi := func(w *ui.Writer, label, value string) {
		w.Open("article", ui.Class("section-card"))
		w.Elem("p", label)
		w.Elem("strong", value)
		w.Close("article")
	}
	return func(w *ui.Writer) {
		if errMsg != "" {
			ui.Alert(w, "error", errMsg)
		}
		w.Open("div", ui.Class("section-grid"))
		kpi(w, "إجمالي المشاريع", strconv.Itoa(stats.Projects))
		kpi(w, "أوامر الشراء", strconv.Itoa(stats.PurchaseOrders))
		kpi(w, "فواتير النظام", strconv.Itoa(stats.Invoices))
		kpi(w, "مستخلصات التقدم", strconv.Itoa(stats.ProgressBillings))
		w.Close("div")

		w.Open("div", ui.Class("section-grid"), ui.A("style", "margin-top:.8rem"))
		kpi(w, "إجمالي قيمة العقود", f.Money(stats.ContractTotal, ""))
		kpi(w, "إجمالي الفواتير", f.Money(stats.InvoiceTotal, ""))
		kpi(w, "المدفوعات المؤكدة", f.Money(stats.ConfirmedPayments, ""))
		kpi(w, "الرصيد المفتوح", f.Money(stats.OpenBalance, ""))
		w.Close("div")

		w.Elem("h4", "الفواتير والمدفوعات (آخر 6 أشهر)")
		w.Open("table", ui.Class("resource-table"))
		w.Open("thead")
		w.Open("tr")
		w.Elem("th", "الشهر")
		w.Elem("th", "الفواتير")
		w.Elem("th", "المدفوعات")
		w.Close("tr")
		w.Close("thead")
		w.Open("tbody")
		for _, m := range stats.Months {
			w.Open("tr")
			w.Elem("td", m.Label)
			w.Elem("td", f.Money(m.Invoices, ""))
			w.Elem("td", f.Money(m.Payments, ""))
			w.Close("tr")
		}
		w.Close("tbody")
		w.Close("table")
	}
}

// Dashboard handles GET /dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	snap := SessionFromContext(r.Context())
	now := time.Now()

	var stats *dashboardStats
	err := h.call(w, r, func(ctx context.Context, token string) error {
		var err error
		stats, err = h.loadDashboard(ctx, token, snap, now)
		return err
	})
	errMsg := ""
	if err != nil {
		if sessionLost(w, r, err) {
			return
		}
		h.logger.Warn("dashboard load failed", "error", err)
		errMsg = errorMessage(err)
		stats = &dashboardStats{Months: lastMonths(now, chartMonths)}
	}
	body := ui.Page("لوحة التحكم", "ملخص المشاريع والمشتريات والمالية.", h.dashboardBody(stats, errMsg))
	h.render(w, r, http.StatusOK, h.pageData(r, "لوحة التحكم", DashboardPath), body)
}

// ============================================================================
// Access explanation
// ============================================================================

var areaLabels = map[access.Area]string{
	access.AreaProjects:    "Projects",
	access.AreaProcurement: "Procurement",
	access.AreaFinance:     "Finance",
	access.AreaRealEstate:  "Real Estate",
	access.AreaAdmin:       "Admin",
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Access handles GET /dashboard/access: the role, the claims and the
// computed matrix, with a banner when a guard redirected here.
func (h *Handler) Access(w http.ResponseWriter, r *http.Request) {
	snap := SessionFromContext(r.Context())
	denied := r.URL.Query().Get("denied")

	body := ui.Page("صلاحياتي", "عرض الدور الحالي والـpermission claims كما تم تفسيرها في الواجهة.", func(hw *ui.Writer) {
		if _, known := areaLabels[access.Area(denied)]; known {
			ui.Alert(hw, "error", fmt.Sprintf("Access to `%s` module is not allowed for your current permissions.", denied))
		}

		hw.Open("div", ui.Class("section-grid"))
		hw.Open("article", ui.Class("section-card"))
		hw.Elem("h4", "Session Role")
		hw.Elem("p", orDash(snap.RoleSlug))
		hw.Elem("p", orDash(snap.Username))
		hw.Close("article")

		hw.Open("article", ui.Class("section-card"))
		hw.Elem("h4", "Permission Claims")
		if len(snap.Permissions) == 0 {
			hw.Elem("p", "No explicit claims in token.")
		} else {
			hw.Open("ul")
			for _, p := range snap.Permissions {
				hw.Elem("li", p)
			}
			hw.Close("ul")
		}
		hw.Close("article")
		hw.Close("div")

		hw.Elem("h4", "Computed Access Matrix")
		hw.Open("table", ui.Class("resource-table"))
		hw.Open("thead")
		hw.Open("tr")
		for _, th := range []string{"Area", "View", "Manage", "Approve"} {
			hw.Elem("th", th)
		}
		hw.Close("tr")
		hw.Close("thead")
		hw.Open("tbody")
		for _, row := range access.Matrix(snap.RoleSlug, snap.Permissions) {
			hw.Open("tr")
			hw.Elem("td", areaLabels[row.Area])
			hw.Elem("td", yesNo(row.View), ui.A("data-cell", string(row.Area)+"-view"))
			hw.Elem("td", yesNo(row.Manage), ui.A("data-cell", string(row.Area)+"-manage"))
			hw.Elem("td", yesNo(row.Approve), ui.A("data-cell", string(row.Area)+"-approve"))
			hw.Close("tr")
		}
		hw.Close("tbody")
		hw.Close("table")
	})
	h.render(w, r, http.StatusOK, h.pageData(r, "صلاحياتي", AccessPath), body)
}

// ============================================================================
// Area index
// ============================================================================

// AreaIndex handles GET /dashboard/{area}.
func (h *Handler) AreaIndex(w http.ResponseWriter, r *http.Request) {
	area, ok := access.AreaFromSlug(chi.URLParam(r, "area"))
	if !ok {
		h.NotFound(w, r)
		return
	}
	section, ok := h.catalog.Section(area)
	if !ok {
		h.NotFound(w, r)
		return
	}
	href := "/dashboard/" + area.Slug()
	h.render(w, r, http.StatusOK, h.pageData(r, section.Title, href), resource.SectionIndex(section))
}
