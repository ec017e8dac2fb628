// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package validation

import (
	"strings"
	"sync"
	"testing"
)

type limitRequest struct {
	PostID int64  `path:"postID" validate:"min=1"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=50"`
	Mode   string `json:"mode,omitempty" validate:"omitempty,oneof=stale force"`
	Note   string `validate:"omitempty,max=5"`
}

func TestGetValidator_Singleton(t *testing.T) {
	var wg sync.WaitGroup
	got := make(chan interface{}, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got <- GetValidator()
		}()
	}
	wg.Wait()
	close(got)

	first := GetValidator()
	for v := range got {
		if v != first {
			t.Fatal("GetValidator() returned different instances")
		}
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name      string
		req       limitRequest
		wantField string
		wantTag   string
		wantMsg   string
	}{
		{name: "valid with limit", req: limitRequest{PostID: 1, Limit: 3}},
		{name: "valid without limit", req: limitRequest{PostID: 9}},
		{name: "limit at maximum", req: limitRequest{PostID: 1, Limit: 50}},
		{name: "post id zero", req: limitRequest{PostID: 0}, wantField: "postID", wantTag: "min", wantMsg: "postID must be at least 1"},
		{name: "negative limit", req: limitRequest{PostID: 1, Limit: -1}, wantField: "limit", wantTag: "min"},
		{name: "limit over maximum", req: limitRequest{PostID: 1, Limit: 51}, wantField: "limit", wantTag: "max", wantMsg: "limit must be at most 50"},
		{name: "bad mode", req: limitRequest{PostID: 1, Mode: "now"}, wantField: "mode", wantTag: "oneof", wantMsg: "mode must be one of: stale force"},
		{name: "long note", req: limitRequest{PostID: 1, Note: "toolong"}, wantField: "Note", wantTag: "max", wantMsg: "Note must be at most 5 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(&tt.req)
			if tt.wantField == "" {
				if verr != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			fe := verr.Errors()[0]
			if fe.Field() != tt.wantField {
				t.Errorf("Field() = %q, want %q", fe.Field(), tt.wantField)
			}
			if fe.Tag() != tt.wantTag {
				t.Errorf("Tag() = %q, want %q", fe.Tag(), tt.wantTag)
			}
			if tt.wantMsg != "" && fe.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", fe.Error(), tt.wantMsg)
			}
		})
	}
}

func TestToAPIError_SingleError(t *testing.T) {
	verr := ValidateStruct(&limitRequest{PostID: 1, Limit: 99})
	if verr == nil {
		t.Fatal("expected validation error")
	}

	apiErr := verr.ToAPIError()
	if apiErr.Code != ErrorCode {
		t.Errorf("Code = %q, want %q", apiErr.Code, ErrorCode)
	}
	if apiErr.Details["field"] != "limit" {
		t.Errorf("Details[field] = %v, want limit", apiErr.Details["field"])
	}
	if apiErr.Details["value"] != 99 {
		t.Errorf("Details[value] = %v, want 99", apiErr.Details["value"])
	}
}

func TestToAPIError_MultipleErrors(t *testing.T) {
	verr := ValidateStruct(&limitRequest{PostID: 0, Limit: 99})
	if verr == nil {
		t.Fatal("expected validation error")
	}
	if len(verr.Errors()) != 2 {
		t.Fatalf("len(Errors()) = %d, want 2", len(verr.Errors()))
	}

	apiErr := verr.ToAPIError()
	if !strings.Contains(apiErr.Message, "postID") || !strings.Contains(apiErr.Message, "limit") {
		t.Errorf("Message = %q, want both fields", apiErr.Message)
	}
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 2 {
		t.Errorf("Details[fields] = %v, want 2 entries", apiErr.Details["fields"])
	}
	if verr.Error() != apiErr.Message {
		t.Errorf("Error() = %q, want %q", verr.Error(), apiErr.Message)
	}
}

func TestToAPIError_Empty(t *testing.T) {
	verr := &RequestValidationError{}
	if verr.Error() != "validation failed" {
		t.Errorf("Error() = %q", verr.Error())
	}
	if verr.ToAPIError().Message != "Validation failed" {
		t.Errorf("ToAPIError().Message = %q", verr.ToAPIError().Message)
	}
}

func TestValidateStruct_NonStruct(t *testing.T) {
	verr := ValidateStruct(42)
	if verr == nil {
		t.Fatal("expected error for non-struct input")
	}
	if verr.Errors()[0].Field() != "unknown" {
		t.Errorf("Field() = %q, want unknown", verr.Errors()[0].Field())
	}
}
