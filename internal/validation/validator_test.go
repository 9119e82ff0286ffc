// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

package validation

import (
	"strings"
	"testing"
)

type searchRequest struct {
	Page      int    `validate:"min=1"`
	Limit     int    `validate:"min=1,max=100"`
	SortOrder string `validate:"omitempty,oneof=asc desc"`
}

func TestValidateStructPasses(t *testing.T) {
	req := searchRequest{Page: 1, Limit: 20, SortOrder: "desc"}

	if err := ValidateStruct(&req); err != nil {
		t.Errorf("Expected valid struct, got: %v", err)
	}
}

func TestValidateStructSingleFailure(t *testing.T) {
	req := searchRequest{Page: 1, Limit: 500}

	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("Expected validation failure for limit 500")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Expected VALIDATION_ERROR code, got %s", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "Limit") {
		t.Errorf("Expected message to name the field, got: %s", apiErr.Message)
	}
	if apiErr.Details["field"] != "Limit" {
		t.Errorf("Expected field detail, got: %v", apiErr.Details)
	}
}

func TestValidateStructMultipleFailures(t *testing.T) {
	req := searchRequest{Page: 0, Limit: 0}

	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("Expected validation failure")
	}
	if len(err.Errors()) != 2 {
		t.Fatalf("Expected 2 field errors, got %d", len(err.Errors()))
	}

	apiErr := err.ToAPIError()
	if _, ok := apiErr.Details["fields"]; !ok {
		t.Error("Expected fields list in details for multiple errors")
	}
}

func TestTranslateOneof(t *testing.T) {
	req := searchRequest{Page: 1, Limit: 10, SortOrder: "sideways"}

	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("Expected validation failure for sort order")
	}
	if !strings.Contains(err.Error(), "must be one of") {
		t.Errorf("Expected oneof translation, got: %s", err.Error())
	}
}

func TestGetValidatorSingleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator should return the same instance")
	}
}
