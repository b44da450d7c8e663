package utils

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
)

// Alphabet for the random session-code suffix. Confusable letters kept out so
// gate staff can read codes back over the radio.
const CodeLetters = "ABCDEFGHJKLMNPQRSTUVWXYZ"

// CodePrefix brands every session code.
const CodePrefix = "UMX"

// Well-known tag suffixes.
const (
	SuffixConductor = "CND" // driver leg
	SuffixProveedor = "PRV" // supplier without appointment
	SuffixPeatonal  = "PTN" // pedestrian entry
)

// ==========================================
// 1. SESSION CODE
// Format: UMX <numeric session id> <3 random letters>
// The letters are cosmetic disambiguation for humans; uniqueness comes from
// the embedded id.
// ==========================================

// SessionCode derives the human-readable code for a session id.
func SessionCode(sessionID uint) string {
	b := make([]byte, 3)
	for i := range b {
		b[i] = CodeLetters[rand.Intn(len(CodeLetters))]
	}
	return fmt.Sprintf("%s%d%s", CodePrefix, sessionID, string(b))
}

// ==========================================
// 2. LEG TAGS
// Format: <sessionCode>-CND | <sessionCode>-V07 | <sessionCode>-<suffix>
// ==========================================

// DriverTag returns the tag for the driver leg of a session.
func DriverTag(sessionCode string) string {
	return sessionCode + "-" + SuffixConductor
}

// VisitorTag returns the tag for the n-th accompanying visitor (1-based).
func VisitorTag(sessionCode string, n int) string {
	return fmt.Sprintf("%s-V%02d", sessionCode, n)
}

// SpecialTag returns a tag with a caller-chosen suffix (suppliers,
// pedestrians).
func SpecialTag(sessionCode, suffix string) string {
	return sessionCode + "-" + strings.ToUpper(suffix)
}

// ==========================================
// HELPERS
// ==========================================

// ParseTag splits a leg tag back into its session code and suffix.
func ParseTag(tag string) (sessionCode, suffix string, err error) {
	idx := strings.LastIndex(tag, "-")
	if idx <= 0 || idx == len(tag)-1 {
		return "", "", errors.New("invalid tag")
	}
	code := tag[:idx]
	if !strings.HasPrefix(code, CodePrefix) {
		return "", "", errors.New("invalid tag prefix")
	}
	return code, tag[idx+1:], nil
}

// ValidCardNumber reports whether a card number is acceptable: non-empty,
// digits only, at most 6 characters (the physical cards are stamped 0001..).
func ValidCardNumber(card string) bool {
	if len(card) == 0 || len(card) > 6 {
		return false
	}
	for _, c := range card {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
