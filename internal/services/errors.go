package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrValidation       = errors.New("validation error")
	ErrConfiguration    = errors.New("configuration error")
	ErrVendor           = errors.New("vendor error")
	ErrSecurity         = errors.New("security error")
	ErrTransient        = errors.New("transient failure")
)

// Wrap builds an error message that includes agent context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, agent, operation, message string, err error) error {
	detail := buildDetail(agent, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Category maps an error to the taxonomy label recorded in job packets and
// progress metadata. Unclassified errors report as transient.
func Category(err error) string {
	switch {
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrVendor):
		return "vendor"
	case errors.Is(err, ErrSecurity):
		return "security"
	default:
		return "transient"
	}
}

func buildDetail(agent, operation, message string) string {
	parts := make([]string, 0, 3)
	if agent = strings.TrimSpace(agent); agent != "" {
		parts = append(parts, agent)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "agent failure"
	}
	return strings.Join(parts, ": ")
}
