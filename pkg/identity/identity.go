// Package identity derives stable entry identifiers from normalized strings.
package identity

import (
	"encoding/base64"
	"strings"
)

// Encode returns the identifier for value: the standard base64 encoding of
// its UTF-8 bytes. The same input always yields the same identifier.
func Encode(value string) string {
	return base64.StdEncoding.EncodeToString([]byte(value))
}

// Strip removes every occurrence of the given markers from value.
func Strip(value string, markers ...string) string {
	for _, m := range markers {
		if m == "" {
			continue
		}
		value = strings.ReplaceAll(value, m, "")
	}
	return value
}

// Decode reverses Encode. It is only used for diagnostics.
func Decode(id string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(id)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
