package resilience

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/vietddude/dbguard/internal/core/dberr"
)

// Policy defines retry behavior. It is replaced wholesale, never edited in place.
type Policy struct {
	MaxRetries        int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	// RetryableCodes lists taxonomy codes, store codes and error names that
	// are retried whatever the classifier decided.
	RetryableCodes []string
}

// DefaultPolicy returns the stock retry policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:        3,
		BaseDelay:         1 * time.Second,
		MaxDelay:          10 * time.Second,
		BackoffMultiplier: 2.0,
		RetryableCodes:    dberr.DefaultRetryableCodes(),
	}
}

// Validate rejects policies the executor cannot run.
func (p Policy) Validate() error {
	switch {
	case p.MaxRetries < 0:
		return errors.New("max retries must not be negative")
	case p.BaseDelay < 0:
		return errors.New("base delay must not be negative")
	case p.MaxDelay < p.BaseDelay:
		return errors.New("max delay must be at least the base delay")
	case p.BackoffMultiplier < 1:
		return errors.New("backoff multiplier must be at least 1")
	}
	return nil
}

// Delay returns the backoff before the attempt following attempt (0-based):
// min(BaseDelay * BackoffMultiplier^attempt, MaxDelay).
func (p Policy) Delay(attempt int) time.Duration {
	delay := float64(p.BaseDelay) * math.Pow(p.BackoffMultiplier, float64(attempt))
	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	return time.Duration(delay)
}

// IsRetryableCode reports whether code is listed in RetryableCodes.
func (p Policy) IsRetryableCode(code string) bool {
	if code == "" {
		return false
	}
	for _, c := range p.RetryableCodes {
		if c == code {
			return true
		}
	}
	return false
}

// promote applies RetryableCodes on top of a classification. Unknown errors
// whose message or name carries a listed marker become network errors.
func (p Policy) promote(d *dberr.DatabaseError) *dberr.DatabaseError {
	if d.IsRetryable || d.Code == dberr.CodeCancelled {
		return d
	}
	if p.IsRetryableCode(d.Code) || p.IsRetryableCode(d.ProviderCode) {
		return d.AsRetryable()
	}
	if d.Code != dberr.CodeUnknown || d.Original == nil {
		return d
	}

	msg := d.Original.Error()
	name := dberr.ErrorName(d.Original)
	for _, marker := range p.RetryableCodes {
		if marker == "" {
			continue
		}
		if strings.Contains(msg, marker) || name == marker {
			return d.AsNetwork()
		}
	}
	return d
}
