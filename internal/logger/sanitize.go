package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Length caps applied before values reach a log line.
const (
	MaxPathLength          = 500
	MaxUserIDLength        = 128
	MaxErrorMessageLength  = 1000
	MaxGeneralStringLength = 2000
)

// SanitizeString drops non-printable runes, repairs UTF-8 and truncates to
// maxLength bytes with a trailing "...". maxLength <= 0 means MaxGeneralStringLength.
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || strings.ContainsRune(" \t\n\r", r) {
			return r
		}
		return -1
	}, s)
	if len(s) > maxLength {
		s = s[:maxLength] + "..."
	}
	return s
}

// SanitizeError is SanitizeString over err's message; nil yields "".
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}

func SanitizeUserID(userID string) string {
	return SanitizeString(userID, MaxUserIDLength)
}
