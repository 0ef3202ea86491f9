package data

import (
	"fmt"
	"strings"
	"unicode"
)

// ValidateNamespace checks that a provider namespace prefix can be used as a
// key segment by every mapping store.
func ValidateNamespace(namespace string) error {
	if namespace == "" {
		return fmt.Errorf("%w: namespace must not be empty", ErrInvalidNamespace)
	}
	if strings.ContainsAny(namespace, ":/") || strings.IndexFunc(namespace, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: '%s' must not contain ':', '/' or whitespace", ErrInvalidNamespace, namespace)
	}

	return nil
}
