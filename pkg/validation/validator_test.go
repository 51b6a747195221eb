package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPasswordOK(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		pwd  string
		want bool
	}{
		{"valid", "Sunshine1", true},
		{"valid long", "A1bcdefghijklmnop", true},
		{"too short", "Short1A", false},
		{"no uppercase", "alllowercase1", false},
		{"no digit", "NoDigitsHere", false},
		{"contains password", "Password123", false},
		{"contains password mixed case", "myPaSsWoRd7", false},
		{"empty", "", false},
		{"exactly eight", "Abcdefg1", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PasswordOK(tc.pwd))
		})
	}
}
