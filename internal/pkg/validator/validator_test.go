// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package validator

import (
	"errors"
	"testing"
)

// ============================================================================
// New
// ============================================================================

func TestNew_Singleton(t *testing.T) {
	v1, v2 := New(), New()
	if v1.v == nil || v1.v != v2.v {
		t.Error("New() should share one underlying validator")
	}
}

// ============================================================================
// Validate
// ============================================================================

type payment struct {
	Invoice     string `form:"invoice" validate:"required_without=Installment"`
	Installment string `form:"installment"`
	Amount      string `form:"amount" validate:"positive_number"`
}

func TestValidate_Payment(t *testing.T) {
	tests := []struct {
		name   string
		in     payment
		fields []string
	}{
		{"invoice", payment{Invoice: "INV-1", Amount: "10.5"}, nil},
		{"installment", payment{Installment: "3", Amount: "1"}, nil},
		{"no target", payment{Amount: "1"}, []string{"invoice"}},
		{"zero amount", payment{Invoice: "1", Amount: "0"}, []string{"amount"}},
		{"not a number", payment{Invoice: "1", Amount: "abc"}, []string{"amount"}},
		{"infinite", payment{Invoice: "1", Amount: "Inf"}, []string{"amount"}},
		{"both", payment{}, []string{"invoice", "amount"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := GetValidationErrors(Validate(tt.in))
			if len(errs) != len(tt.fields) {
				t.Fatalf("errors = %v, want fields %v", errs, tt.fields)
			}
			for _, f := range tt.fields {
				if _, ok := errs[f]; !ok {
					t.Errorf("missing error for %q in %v", f, errs)
				}
			}
		})
	}
}

func TestValidate_JSONNames(t *testing.T) {
	type login struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password,omitempty" validate:"required"`
	}
	errs := GetValidationErrors(Validate(login{}))
	if errs["username"] != "is required" || errs["password"] != "is required" {
		t.Errorf("errors = %v", errs)
	}
}

func TestValidateVar(t *testing.T) {
	if err := ValidateVar("12.5", "positive_number"); err != nil {
		t.Errorf("ValidateVar() = %v", err)
	}
	if err := ValidateVar("-2", "positive_number"); err == nil {
		t.Error("negative amount accepted")
	}
}

func TestValidationErrors_Other(t *testing.T) {
	if GetValidationErrors(nil) != nil {
		t.Error("nil error should map to nil")
	}
	errs := GetValidationErrors(errors.New("boom"))
	if errs["_error"] != "boom" {
		t.Errorf("errors = %v", errs)
	}
}
