package verify

import (
	"errors"
	"fmt"
	"strings"
)

// Failure taxonomy for verification. The first three are permanent: the job
// fails after a single attempt. ProviderUnavailable is transient and
// retry-eligible.
var (
	ErrNotFound            = errors.New("no matching record")
	ErrAmbiguousMatch      = errors.New("ambiguous match")
	ErrMalformedCandidate  = errors.New("malformed candidate")
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// Wrap builds an error message that includes operation context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if marker == nil {
		marker = ErrProviderUnavailable
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsPermanent reports whether the failure should never be retried.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAmbiguousMatch) ||
		errors.Is(err, ErrMalformedCandidate)
}

// IsTransient reports whether the failure is retry-eligible.
func IsTransient(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "verification failure"
	}
	return strings.Join(parts, ": ")
}
