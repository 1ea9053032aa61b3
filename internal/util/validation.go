package util

import (
	"regexp"
	"strings"
	"unicode"
)

const DNILength = 8

var dniRegex = regexp.MustCompile(`^[0-9]{8}$`)

func IsValidDNI(s string) bool {
	return dniRegex.MatchString(s)
}

// ExtractDNI keeps only the digits of a free-form line and returns them when
// exactly eight remain.
func ExtractDNI(line string) (string, bool) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, line)
	if len(digits) != DNILength {
		return "", false
	}
	return digits, true
}

// MaskDNI hides the middle digits for logs that leave the host.
func MaskDNI(dni string) string {
	if len(dni) != DNILength {
		return strings.Repeat("*", len(dni))
	}
	return dni[:2] + "****" + dni[6:]
}

func IsBlank(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) }) < 0
}
