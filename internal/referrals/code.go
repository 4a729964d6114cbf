package referrals

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"unicode"
)

const codePrefixFallback = "USER"

// NewCode builds a referral code from the first three characters of name
// (or USER) and a four digit suffix from digits, uppercased with whitespace
// removed.
func NewCode(name string, digits func() int) string {
	prefix := []rune(name)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	p := string(prefix)
	if p == "" {
		p = codePrefixFallback
	}
	raw := p + strconv.Itoa(digits())
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, strings.ToUpper(raw))
}

// randomDigits returns a number in [1000, 9999].
func randomDigits() int {
	return 1000 + rand.IntN(9000)
}

// NormalizeCode trims and uppercases user input before lookup.
func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
