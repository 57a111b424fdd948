package utils

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// StableID derives a short, filesystem safe identifier from arbitrary parts.
// Install requests are keyed by source URLs, which cannot be used as file or
// folder names directly.
func StableID(parts ...string) string {
	d := xxhash.New()
	for i, p := range parts {
		if i > 0 {
			_, _ = d.WriteString("\x00")
		}
		_, _ = d.WriteString(p)
	}
	return strconv.FormatUint(d.Sum64(), 36)
}

// NormalizeName lowercases and trims a folder or title for comparisons.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
