// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	apierrors "github.com/Ahmad-Ali-mohammad/erp-sub001/internal/api/errors"
)

// RateLimitByIP limits requests per client IP and answers over-limit
// requests with a JSON detail and Retry-After.
func RateLimitByIP(requestLimit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(requestLimit, window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return "ip:" + getRealIP(r), nil
		}),
		httprate.WithLimitHandler(rateLimitHandler(window)),
	)
}

// rateLimitHandler returns the handler called when rate limit is exceeded.
func rateLimitHandler(window time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
		apierrors.WriteDetail(w, http.StatusTooManyRequests, "Too many requests. Try again later.")
	}
}

// AuthRateLimit returns a rate limiter for authentication endpoints.
func AuthRateLimit(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		perMinute = 5
	}
	return RateLimitByIP(perMinute, time.Minute)
}
