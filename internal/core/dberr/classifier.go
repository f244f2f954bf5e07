package dberr

import (
	"context"
	"errors"
	"strings"

	"github.com/vietddude/dbguard/internal/core/domain"
)

// Classifier turns a raw failure into a DatabaseError. Implementations never
// return nil.
type Classifier interface {
	Classify(err error, ctx domain.OperationContext) *DatabaseError
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(err error, ctx domain.OperationContext) *DatabaseError

func (f ClassifierFunc) Classify(err error, ctx domain.OperationContext) *DatabaseError {
	return f(err, ctx)
}

// Translator maps a store-specific driver error onto one of the store-neutral
// variants (KnownRequestError, InitializationError, ...). It returns nil for
// errors it does not recognise.
type Translator interface {
	Translate(err error) error
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(err error) error

func (f TranslatorFunc) Translate(err error) error { return f(err) }

// NewClassifier returns a classifier that asks each translator in order and
// classifies the first translation with the base rules. The raw error is kept
// as the DatabaseError's original.
func NewClassifier(translators ...Translator) Classifier {
	return ClassifierFunc(func(err error, ctx domain.OperationContext) *DatabaseError {
		for _, t := range translators {
			if v := t.Translate(err); v != nil {
				return classify(err, v, ctx)
			}
		}
		return classify(err, err, ctx)
	})
}

// Base classifies store-neutral errors only.
var Base Classifier = NewClassifier()

// Cancelled builds the classification used when the caller's context ends.
func Cancelled(cause error, ctx domain.OperationContext) *DatabaseError {
	return New("database operation cancelled", CodeCancelled, false, false, ctx, cause)
}

func classify(raw, err error, ctx domain.OperationContext) *DatabaseError {
	if err == nil {
		return New("unknown database error", CodeUnknown, false, false, ctx, nil)
	}

	var classified *DatabaseError
	if errors.As(err, &classified) {
		return classified.WithContext(ctx)
	}

	var known *KnownRequestError
	if errors.As(err, &known) {
		msg, retryable, temporary, ok := LookupCode(known.Code)
		code := known.Code
		if !ok {
			msg, code = known.Error(), CodeUnknown
		}
		d := New(msg, code, retryable, temporary, ctx, raw)
		d.ProviderCode = known.Code
		return d
	}

	var unknownReq *UnknownRequestError
	if errors.As(err, &unknownReq) {
		return New("unknown database request error", CodeUnknownRequest, true, true, ctx, raw)
	}

	var panicErr *EnginePanicError
	if errors.As(err, &panicErr) {
		return New("database engine panic", CodeEnginePanic, false, false, ctx, raw)
	}

	var initErr *InitializationError
	if errors.As(err, &initErr) {
		return New("database initialization error", CodeInitialization, true, true, ctx, raw)
	}

	var validationErr *QueryValidationError
	if errors.As(err, &validationErr) {
		return New("database query validation error", CodeValidation, false, false, ctx, raw)
	}

	if errors.Is(err, context.Canceled) {
		return Cancelled(raw, ctx)
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return New("database operation timeout", CodeTimeout, true, true, ctx, raw)
	}

	// Best effort: message heuristics for errors no translator understood.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return New("database operation timeout", CodeTimeout, true, true, ctx, raw)
	case strings.Contains(msg, "connection"):
		return New("database connection error", CodeConnection, true, true, ctx, raw)
	}

	return New(err.Error(), CodeUnknown, false, false, ctx, raw)
}
