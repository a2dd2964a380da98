// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

// Package validator wraps go-playground/validator with the custom tags used
// by request and form structs.
package validator

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	instance *validator.Validate
	once     sync.Once
)

// Validator validates struct tags and single values.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator backed by the shared instance.
func New() *Validator {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		instance.RegisterTagNameFunc(fieldName)
		_ = instance.RegisterValidation("positive_number", positiveNumber)
	})
	return &Validator{v: instance}
}

// fieldName reports fields by their json or form name.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// positiveNumber accepts a decimal string that parses to a finite value > 0.
func positiveNumber(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(fl.Field().String()), 64)
	return err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) && n > 0
}

// Validate checks the struct's validate tags.
func (v *Validator) Validate(s any) error {
	return v.v.Struct(s)
}

// ValidateVar checks a single value against a tag expression.
func (v *Validator) ValidateVar(field any, tag string) error {
	return v.v.Var(field, tag)
}

// ValidationErrors maps field names to messages. Errors that did not come
// from validation are reported under "_error".
func (v *Validator) ValidationErrors(err error) map[string]string {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_error": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_without":
		return fmt.Sprintf("is required when %s is empty", fe.Param())
	case "positive_number":
		return "must be a number greater than zero"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

// Validate checks s with the shared validator.
func Validate(s any) error {
	return New().Validate(s)
}

// ValidateVar checks a value with the shared validator.
func ValidateVar(field any, tag string) error {
	return New().ValidateVar(field, tag)
}

// GetValidationErrors maps err with the shared validator.
func GetValidationErrors(err error) map[string]string {
	return New().ValidationErrors(err)
}
