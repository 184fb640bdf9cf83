package provider

import (
	"net/http"

	goopenai "github.com/openai/openai-go"

	"github.com/prodpulse/knowledgesync/errors"
)

type ErrorKind string

const (
	ErrorKindAuth      ErrorKind = "auth"
	ErrorKindRateLimit ErrorKind = "rate_limit"
	ErrorKindNotFound  ErrorKind = "not_found"
	ErrorKindOther     ErrorKind = "other"
)

// KindOf classifies a provider error so callers can pick a retry policy. The
// classification rides in error messages rather than dedicated types; see
// the error handling notes in the package docs.
func KindOf(err error) ErrorKind {
	var apierr *goopenai.Error
	if !errors.As(err, &apierr) {
		return ErrorKindOther
	}

	switch apierr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrorKindAuth
	case http.StatusTooManyRequests:
		return ErrorKindRateLimit
	case http.StatusNotFound:
		return ErrorKindNotFound
	default:
		return ErrorKindOther
	}
}

// IsNotFound reports whether the provider no longer knows the resource. A
// persisted handle hitting this triggers reconciliation, not propagation.
func IsNotFound(err error) bool {
	if errors.Is(err, errors.ErrNotFound) {
		return true
	}
	return KindOf(err) == ErrorKindNotFound
}

func wrapCall(err error, op string) error {
	if err == nil {
		return nil
	}

	switch KindOf(err) {
	case ErrorKindNotFound:
		return errors.Wrapf(errors.ErrNotFound, "%s: %v", op, err)
	case ErrorKindAuth:
		return errors.Wrapf(errors.ErrProviderTransient, "%s (cause: auth): %v", op, err)
	case ErrorKindRateLimit:
		return errors.Wrapf(errors.ErrProviderTransient, "%s (cause: rate limit): %v", op, err)
	default:
		return errors.Wrapf(err, "%s", op)
	}
}
