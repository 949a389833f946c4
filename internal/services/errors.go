package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

var (
	ErrTransient     = errors.New("transient failure")
	ErrTimeout       = errors.New("timeout")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classification buckets an error for retry policy.
type Classification int

const (
	// ClassRetryable marks transport-level failures and timeouts worth
	// re-attempting under the configured budget.
	ClassRetryable Classification = iota
	// ClassFatal marks everything outside the retryable taxonomy. Fatal
	// errors terminate the run, not just the item.
	ClassFatal
)

// Classify maps an error to the retry policy bucket it belongs to. Anything
// not recognized as transport-related is fatal.
func Classify(err error) Classification {
	if err == nil {
		return ClassFatal
	}
	switch {
	case errors.Is(err, ErrTransient), errors.Is(err, ErrTimeout):
		return ClassRetryable
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration):
		return ClassFatal
	case errors.Is(err, context.DeadlineExceeded):
		return ClassRetryable
	case errors.Is(err, context.Canceled):
		return ClassFatal
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ClassRetryable
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ClassRetryable
	}
	return ClassFatal
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "stage failure"
	}
	return strings.Join(parts, ": ")
}
