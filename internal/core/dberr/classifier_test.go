package dberr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/vietddude/dbguard/internal/core/domain"
)

var testCtx = domain.OperationContext{Operation: "getPlayerById", RequestID: "req-1"}

func TestBase_KnownCodes(t *testing.T) {
	tests := []struct {
		code      string
		retryable bool
		temporary bool
	}{
		{CodeConnectRefused, true, true},
		{CodeServerTimeout, true, true},
		{CodeOperationTimedOut, true, true},
		{CodeConnectionClosed, true, true},
		{CodePoolTimeout, true, true},
		{CodeUniqueViolation, false, false},
		{CodeNotFound, false, false},
		{CodeQueryValidation, false, false},
	}

	for _, tt := range tests {
		got := Base.Classify(&KnownRequestError{Code: tt.code}, testCtx)
		if got.Code != tt.code || got.IsRetryable != tt.retryable || got.IsTemporary != tt.temporary {
			t.Errorf("Classify(%s) = (%s, %v, %v), want (%s, %v, %v)",
				tt.code, got.Code, got.IsRetryable, got.IsTemporary,
				tt.code, tt.retryable, tt.temporary)
		}
		if got.ProviderCode != tt.code {
			t.Errorf("ProviderCode = %q, want %q", got.ProviderCode, tt.code)
		}
	}
}

func TestBase_UnknownKnownRequestCode(t *testing.T) {
	got := Base.Classify(&KnownRequestError{Code: "P3000", Message: "migration failed"}, testCtx)
	if got.Code != CodeUnknown || got.IsRetryable || got.IsTemporary {
		t.Errorf("got (%s, %v, %v), want (UNKNOWN_ERROR, false, false)",
			got.Code, got.IsRetryable, got.IsTemporary)
	}
	if got.ProviderCode != "P3000" {
		t.Errorf("ProviderCode = %q, want P3000", got.ProviderCode)
	}
	if got.Message != "migration failed" {
		t.Errorf("Message = %q", got.Message)
	}
}

func TestBase_Variants(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      string
		retryable bool
		temporary bool
	}{
		{"unknown request", &UnknownRequestError{Message: "??"}, CodeUnknownRequest, true, true},
		{"engine panic", &EnginePanicError{Message: "boom"}, CodeEnginePanic, false, false},
		{"initialization", &InitializationError{Message: "no route"}, CodeInitialization, true, true},
		{"validation", &QueryValidationError{Message: "bad arg"}, CodeValidation, false, false},
		{"guard timeout", fmt.Errorf("%w after 30ms", ErrTimeout), CodeTimeout, true, true},
		{"deadline", context.DeadlineExceeded, CodeTimeout, true, true},
		{"cancelled", context.Canceled, CodeCancelled, false, false},
		{"timeout text", errors.New("read tcp: i/o timeout"), CodeTimeout, true, true},
		{"connection text", errors.New("connection reset by peer"), CodeConnection, true, true},
		{"plain", errors.New("something odd"), CodeUnknown, false, false},
		{"nil", nil, CodeUnknown, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Base.Classify(tt.err, testCtx)
			if got.Code != tt.code || got.IsRetryable != tt.retryable || got.IsTemporary != tt.temporary {
				t.Errorf("got (%s, %v, %v), want (%s, %v, %v)",
					got.Code, got.IsRetryable, got.IsTemporary,
					tt.code, tt.retryable, tt.temporary)
			}
		})
	}
}

func TestBase_PlainErrorKeepsMessage(t *testing.T) {
	raw := errors.New("relation does not exist")
	got := Base.Classify(raw, testCtx)
	if got.Message != raw.Error() {
		t.Errorf("Message = %q, want %q", got.Message, raw.Error())
	}
	if !errors.Is(got, raw) {
		t.Error("expected classified error to unwrap to the original")
	}
}

func TestBase_RebindsClassifiedError(t *testing.T) {
	inner := New("record not found", CodeNotFound, false, false, testCtx, nil)
	next := testCtx.WithAttempt(2)

	got := Base.Classify(fmt.Errorf("wrapped: %w", inner), next)
	if got.Code != CodeNotFound {
		t.Errorf("Code = %s, want %s", got.Code, CodeNotFound)
	}
	if got.Context.RetryAttempt != 2 {
		t.Errorf("RetryAttempt = %d, want 2", got.Context.RetryAttempt)
	}
	if inner.Context.RetryAttempt != 0 {
		t.Error("original classified error was mutated")
	}
}

func TestNewClassifier_TranslatorOrder(t *testing.T) {
	sentinel := errors.New("driver: duplicate key")
	first := TranslatorFunc(func(err error) error {
		if errors.Is(err, sentinel) {
			return &KnownRequestError{Code: CodeUniqueViolation, Err: err}
		}
		return nil
	})
	second := TranslatorFunc(func(err error) error {
		return &KnownRequestError{Code: CodeConnectRefused, Err: err}
	})

	c := NewClassifier(first, second)

	got := c.Classify(sentinel, testCtx)
	if got.Code != CodeUniqueViolation {
		t.Errorf("Code = %s, want %s", got.Code, CodeUniqueViolation)
	}
	if got.Original != sentinel {
		t.Error("expected raw driver error to be kept as original")
	}

	got = c.Classify(errors.New("other"), testCtx)
	if got.Code != CodeConnectRefused {
		t.Errorf("Code = %s, want %s", got.Code, CodeConnectRefused)
	}
}

func TestErrorName(t *testing.T) {
	if got := ErrorName(errors.New("plain")); got != "" {
		t.Errorf("ErrorName(plain) = %q, want empty", got)
	}
	if got := ErrorName(fmt.Errorf("read: %w", syscall.ECONNRESET)); got != "ECONNRESET" {
		t.Errorf("ErrorName(ECONNRESET) = %q", got)
	}
	dns := &net.DNSError{Err: "no such host", Name: "db.local", IsNotFound: true}
	if got := ErrorName(dns); got != "ENOTFOUND" {
		t.Errorf("ErrorName(dns) = %q, want ENOTFOUND", got)
	}
}
