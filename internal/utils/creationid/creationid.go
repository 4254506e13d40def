package creationid

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// New returns a cre_* ULID string. ulid.Make draws from the package's
// locked monotonic crypto/rand source, so New is safe for concurrent
// use.
func New() string {
	return "cre_" + strings.ToLower(ulid.Make().String())
}

// IsValid reports whether the string is a cre_* ULID.
func IsValid(value string) bool {
	if !strings.HasPrefix(value, "cre_") {
		return false
	}
	_, err := Parse(value)
	return err == nil
}

// Parse strips the cre_ prefix and returns the ULID.
func Parse(value string) (ulid.ULID, error) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "cre_")
	return ulid.Parse(value)
}
