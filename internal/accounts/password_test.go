package accounts_test

import (
	"testing"

	"github.com/virtuline/accounthub/internal/accounts"
)

func TestPasswordIsComplex(t *testing.T) {
	cases := []struct {
		name     string
		password string
		want     bool
	}{
		{"all classes present", "Str0ng!Pass", true},
		{"exactly eight chars", "Aa1!aaaa", true},
		{"underscore counts as a symbol", "Aa1_aaaa", true},
		{"seven chars", "Aa1!aaa", false},
		{"no uppercase", "str0ng!pass", false},
		{"no lowercase", "STR0NG!PASS", false},
		{"no digit", "Strong!Pass", false},
		{"no symbol", "Str0ngPass1", false},
		{"empty", "", false},
		{"unicode letters count toward length", "Aa1!aaaé", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := accounts.PasswordIsComplex(tc.password)

			if got != tc.want {
				t.Fatalf("PasswordIsComplex(%q) = %v, want %v", tc.password, got, tc.want)
			}
		})
	}
}
