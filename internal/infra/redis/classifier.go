package redis

import (
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/dbguard/internal/core/dberr"
)

// Translator maps go-redis failures onto the store-neutral variants.
type Translator struct{}

// NewClassifier returns the classifier for Redis-backed operations.
func NewClassifier() dberr.Classifier {
	return dberr.NewClassifier(Translator{})
}

// Reply prefixes the server uses for conditions that clear on their own.
var transientReplies = []string{"LOADING", "BUSY", "TRYAGAIN", "CLUSTERDOWN", "MASTERDOWN", "READONLY"}

// Translate implements dberr.Translator.
func (Translator) Translate(err error) error {
	if errors.Is(err, redis.Nil) {
		return &dberr.KnownRequestError{Code: dberr.CodeNotFound, Message: "key not found", Err: err}
	}
	if errors.Is(err, redis.ErrClosed) {
		return &dberr.KnownRequestError{Code: dberr.CodeConnectionClosed, Message: err.Error(), Err: err}
	}
	if strings.Contains(err.Error(), "connection pool timeout") {
		return &dberr.KnownRequestError{Code: dberr.CodePoolTimeout, Message: err.Error(), Err: err}
	}

	var reply redis.Error
	if !errors.As(err, &reply) {
		return nil
	}

	msg := reply.Error()
	for _, prefix := range transientReplies {
		if strings.HasPrefix(msg, prefix) {
			return &dberr.UnknownRequestError{Message: msg, Err: err}
		}
	}
	switch {
	case strings.HasPrefix(msg, "WRONGTYPE"), strings.HasPrefix(msg, "NOSCRIPT"),
		strings.HasPrefix(msg, "ERR syntax"), strings.HasPrefix(msg, "ERR wrong number"):
		return &dberr.QueryValidationError{Message: msg, Err: err}
	}
	return nil
}
