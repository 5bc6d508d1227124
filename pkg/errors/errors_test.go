package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			err:      Conflict("slot already booked"),
			expected: "CONFLICT: slot already booked",
		},
		{
			name:     "with wrapped error",
			err:      Internal("failed to load booking", fmt.Errorf("connection reset")),
			expected: "INTERNAL_ERROR: failed to load booking (caused by: connection reset)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("no reachable servers")
	appErr := Internal("database unavailable", cause)

	if !errors.Is(appErr, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestDomainConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"credit exhausted", CreditExhausted("pkg-1"), CodeCreditExhausted, http.StatusConflict},
		{"waiver required", WaiverRequired("client-1"), CodeWaiverRequired, http.StatusForbidden},
		{"policy violation", PolicyViolation("cancellation window passed"), CodePolicyViolation, http.StatusConflict},
		{"conflict", Conflict("overlap"), CodeConflict, http.StatusConflict},
		{"not found", NotFoundWithID("Booking", "abc"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad input", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad id"), CodeInvalidInput, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.StatusCode() != tt.httpStatus {
				t.Errorf("StatusCode() = %d, want %d", tt.err.StatusCode(), tt.httpStatus)
			}
		})
	}
}

func TestCreditExhausted_Details(t *testing.T) {
	err := CreditExhausted("purchase-42")
	if err.Details["session_purchase_id"] != "purchase-42" {
		t.Errorf("expected purchase id in details, got %v", err.Details)
	}
}

func TestIsCode(t *testing.T) {
	if !IsCode(Conflict("x"), CodeConflict) {
		t.Error("IsCode should match a conflict error")
	}
	if IsCode(fmt.Errorf("plain"), CodeConflict) {
		t.Error("IsCode should reject non-AppError")
	}
	if IsCode(nil, CodeConflict) {
		t.Error("IsCode should reject nil")
	}
}

func TestAsAppError(t *testing.T) {
	plain := fmt.Errorf("boom")
	appErr := AsAppError(plain)
	if appErr.Code != CodeInternal {
		t.Errorf("expected wrapped plain error to be internal, got %s", appErr.Code)
	}

	original := WaiverRequired("c1")
	if AsAppError(original) != original {
		t.Error("expected AsAppError to pass through an existing AppError")
	}
}
