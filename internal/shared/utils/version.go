package utils

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// StripNonDigits removes every character that is not a decimal digit.
// Addon authors format versions inconsistently ("Rematch_4_10_15.zip" and
// "4.10.15"), so versions are compared on their digit sequence only.
//
//	StripNonDigits("213r323")             // "213323"
//	StripNonDigits("Rematch_4_10_15.zip") // "41015"
func StripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatInterfaceIntoGameVersion turns a five digit interface number from a
// TOC file into a game version: "90001" -> "9.0.1", "11305" -> "1.13.5".
// Anything that is not exactly five digits is returned unchanged.
func FormatInterfaceIntoGameVersion(iface string) string {
	if len(iface) != 5 {
		return iface
	}
	for _, r := range iface {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return iface
		}
	}

	major, err1 := strconv.ParseUint(iface[:1], 10, 8)
	minor, err2 := strconv.ParseUint(iface[1:3], 10, 8)
	patch, err3 := strconv.ParseUint(iface[3:5], 10, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return iface
	}
	return fmt.Sprintf("%d.%d.%d", major, minor, patch)
}

// Truncate shortens s to at most maxChars runes.
func Truncate(s string, maxChars int) string {
	if maxChars < 0 {
		return ""
	}
	i := 0
	for idx := range s {
		if i == maxChars {
			return s[:idx]
		}
		i++
	}
	return s
}
