package registry

import (
	"fmt"
	"strings"
)

// UnknownProviderError is returned for a provider id or alias that is not in the catalog.
type UnknownProviderError struct {
	Name  string
	Valid []string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider %q (valid: %s)", e.Name, strings.Join(e.Valid, ", "))
}

// UnknownLevelError is returned for an unrecognised overlay level.
type UnknownLevelError struct {
	Name  string
	Valid []string
}

func (e *UnknownLevelError) Error() string {
	return fmt.Sprintf("unknown level %q (valid: %s)", e.Name, strings.Join(e.Valid, ", "))
}

// UnknownPersonaError is returned when a Guardian name does not resolve.
type UnknownPersonaError struct {
	Name  string
	Valid []string
}

func (e *UnknownPersonaError) Error() string {
	return fmt.Sprintf("unknown guardian %q (valid: %s)", e.Name, strings.Join(e.Valid, ", "))
}
