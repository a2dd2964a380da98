// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package resource

import (
	"strings"
	"unicode"
)

var statusStyles = map[string]string{
	"draft":              "status-neutral",
	"pending_approval":   "status-warning",
	"approved":           "status-success",
	"rejected":           "status-danger",
	"cancelled":          "status-danger",
	"completed":          "status-success",
	"active":             "status-info",
	"sent":               "status-info",
	"received":           "status-success",
	"partially_received": "status-warning",
	"issued":             "status-info",
	"partially_paid":     "status-warning",
	"paid":               "status-success",
	"invoiced":           "status-info",
	"confirmed":          "status-success",
	"failed":             "status-danger",
	"posted":             "status-success",
	"reversed":           "status-warning",
	"planning":           "status-neutral",
	"on_hold":            "status-warning",
	"ordered":            "status-info",
	"pending":            "status-warning",
	"available":          "status-success",
	"reserved":           "status-info",
	"sold":               "status-neutral",
	"handed_over":        "status-success",
	"expired":            "status-danger",
	"converted":          "status-success",
	"overdue":            "status-danger",
}

var statusLabels = map[string]string{
	"draft":              "مسودة",
	"pending_approval":   "بانتظار الاعتماد",
	"approved":           "معتمد",
	"rejected":           "مرفوض",
	"cancelled":          "ملغي",
	"completed":          "مكتمل",
	"active":             "نشط",
	"sent":               "مرسل",
	"received":           "مستلم",
	"partially_received": "استلام جزئي",
	"issued":             "مُصدرة",
	"partially_paid":     "مدفوعة جزئياً",
	"paid":               "مدفوعة بالكامل",
	"invoiced":           "مفوتر",
	"confirmed":          "مؤكد",
	"failed":             "فشل",
	"posted":             "مرحل",
	"reversed":           "معكوس",
	"planning":           "تخطيط",
	"on_hold":            "متوقف مؤقتاً",
	"ordered":            "تم الطلب",
	"pending":            "قيد الانتظار",
	"available":          "متاحة",
	"reserved":           "محجوز",
	"sold":               "مباعة",
	"handed_over":        "مسلمة",
	"expired":            "منتهي",
	"converted":          "محول لعقد",
	"overdue":            "متأخر",
}

// StatusUnknown labels a row without a status.
const StatusUnknown = "غير محدد"

// StatusLabel returns the display label for a status value. Unknown values
// are title-cased with underscores replaced by spaces.
func StatusLabel(status string) string {
	if status == "" {
		return StatusUnknown
	}
	if label, ok := statusLabels[status]; ok {
		return label
	}
	words := strings.Fields(strings.ReplaceAll(status, "_", " "))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// StatusClass returns the badge CSS classes for a status value.
func StatusClass(status string) string {
	if style, ok := statusStyles[status]; ok {
		return "status-badge " + style
	}
	return "status-badge status-neutral"
}
