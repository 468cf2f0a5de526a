// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"strings"
	"testing"
)

func TestValidateCreatePostRequest(t *testing.T) {
	valid := CreatePostRequest{
		CourseID: "course-1",
		Title:    "How does recursion unwind?",
		Body:     "I get the base case but not the stack part.",
	}
	if err := Validate(valid); err != nil {
		t.Fatalf("Expected valid request, got: %v", err)
	}

	testCases := []struct {
		name    string
		mutate  func(*CreatePostRequest)
		wantSub string
	}{
		{"missing course", func(r *CreatePostRequest) { r.CourseID = "" }, "course_id is required"},
		{"short title", func(r *CreatePostRequest) { r.Title = "Hey" }, "title must be at least 5 characters"},
		{"long title", func(r *CreatePostRequest) { r.Title = strings.Repeat("x", 201) }, "title must be at most 200 characters"},
		{"short body", func(r *CreatePostRequest) { r.Body = "nope" }, "body must be at least 10 characters"},
		{"too many tags", func(r *CreatePostRequest) { r.Tags = []string{"a", "b", "c", "d", "e", "f"} }, "tags must have at most 5 items"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)

			err := Validate(req)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("Expected message containing %q, got %q", tc.wantSub, err.Error())
			}
		})
	}
}

func TestValidateCreateListingRequest(t *testing.T) {
	valid := CreateListingRequest{
		Title:       "Desk lamp, warm white",
		Description: "Works fine, moving out sale.",
		Category:    "furniture",
		PriceCents:  500,
		Condition:   "good",
		PickupArea:  "dorms",
	}
	if err := Validate(valid); err != nil {
		t.Fatalf("Expected valid request, got: %v", err)
	}

	bad := valid
	bad.Category = "weapons"
	err := Validate(bad)
	if err == nil {
		t.Fatal("Expected validation error for category")
	}
	if !strings.Contains(err.Error(), "category must be one of") {
		t.Errorf("Unexpected message: %q", err.Error())
	}
}

func TestValidateReportTargetType(t *testing.T) {
	for _, target := range []string{"post", "answer", "listing", "user"} {
		req := CreateReportRequest{
			TargetType: target,
			TargetID:   "t-1",
			Reason:     "Spam reposted across several courses.",
		}
		if err := Validate(req); err != nil {
			t.Errorf("Expected %q to be a valid target type: %v", target, err)
		}
	}

	req := CreateReportRequest{TargetType: "course", TargetID: "t-1", Reason: "Long enough reason here."}
	if Validate(req) == nil {
		t.Error("Expected 'course' to be rejected as a target type")
	}
}

func TestFormatPriceCents(t *testing.T) {
	testCases := []struct {
		cents int64
		want  string
	}{
		{0, "Free"},
		{50, "$0.50"},
		{1250, "$12.50"},
		{123456, "$1,234.56"},
		{1000000, "$10,000"},
	}

	for _, tc := range testCases {
		if got := FormatPriceCents(tc.cents); got != tc.want {
			t.Errorf("FormatPriceCents(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}
