package accounts

import (
	"regexp"
	"unicode/utf8"

	"github.com/virtuline/accounthub/internal/domain/account"
)

// Complexity rules: minimum length plus one of each character class.
// [\W_] means anything outside [A-Za-z0-9] counts as a symbol.
var (
	passwordUppercaseRe = regexp.MustCompile(`[A-Z]`)
	passwordLowercaseRe = regexp.MustCompile(`[a-z]`)
	passwordDigitRe     = regexp.MustCompile(`[0-9]`)
	passwordSymbolRe    = regexp.MustCompile(`[\W_]`)
)

// PasswordIsComplex reports whether a password satisfies all five rules.
// Callers only ever see the single generic complexity error; which rule
// failed is not surfaced.
func PasswordIsComplex(password string) bool {
	if utf8.RuneCountInString(password) < account.MinPasswordLength {
		return false
	}

	if !passwordUppercaseRe.MatchString(password) {
		return false
	}

	if !passwordLowercaseRe.MatchString(password) {
		return false
	}

	if !passwordDigitRe.MatchString(password) {
		return false
	}

	return passwordSymbolRe.MatchString(password)
}
