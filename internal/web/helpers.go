// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package web

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/backend"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/pkg/errors"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/session"
)

// User-facing messages.
const (
	unexpectedError    = "حدث خطأ غير متوقع. حاول مرة أخرى."
	unavailableMessage = "تعذر الاتصال بالخادم. حاول مرة أخرى لاحقًا."
	notFoundMessage    = "الصفحة المطلوبة غير موجودة."
	savedMessage       = "تم حفظ السجل بنجاح."
	deletedMessage     = "تم حذف السجل."
	actionDoneMessage  = "تم تنفيذ الإجراء بنجاح."
	actionSkipped      = "لم يتم إرسال الإجراء لعدم وجود بيانات."
)

// isSafeReturnURL accepts only same-origin relative paths.
func isSafeReturnURL(u string) bool {
	if !strings.HasPrefix(u, "/") || strings.HasPrefix(u, "//") || strings.HasPrefix(u, "/\\") {
		return false
	}
	return !strings.ContainsAny(u, "\r\n")
}

// safeNext returns next when it is a safe relative path, else the dashboard.
func safeNext(next string) string {
	if isSafeReturnURL(next) {
		return next
	}
	return DashboardPath
}

// errorMessage is the banner text for a failed backend call. Backend
// messages are shown verbatim.
func errorMessage(err error) string {
	if apiErr, ok := backend.AsAPIError(err); ok {
		return apiErr.Summary()
	}
	if ae, ok := errors.GetAppError(err); ok {
		if ae.Code == errors.CodeServiceUnavailable {
			return unavailableMessage
		}
		if ae.Message != "" {
			return ae.Message
		}
	}
	return unexpectedError
}

// statusFor is the status a page answers with after a failed call.
func statusFor(err error) int {
	if apiErr, ok := backend.AsAPIError(err); ok && apiErr.Status >= 400 && apiErr.Status < 500 {
		return apiErr.Status
	}
	if _, ok := backend.AsAPIError(err); ok {
		return http.StatusBadGateway
	}
	return errors.HTTPStatusCode(err)
}

// sessionLost redirects to the login page when err means the tokens are
// gone: no session at all, or a 401 that survived the refresh and cleared
// the cookies. It reports whether the response was written.
func sessionLost(w http.ResponseWriter, r *http.Request, err error) bool {
	gone := backend.IsUnauthorized(err) && TokensFromContext(r.Context()).Empty()
	if gone || stderrors.Is(err, session.ErrNoSession) {
		redirectToLogin(w, r)
		return true
	}
	return false
}
