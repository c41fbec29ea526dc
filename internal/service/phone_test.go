package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"0712345678", "254712345678", true},
		{"0112345678", "254112345678", true},
		{"+254712345678", "254712345678", true},
		{"254712345678", "254712345678", true},
		{"712345678", "254712345678", true},
		{"0712 345 678", "254712345678", true},
		{"0712-345-678", "254712345678", true},
		{"", "", false},
		{"12345", "", false},
		{"0812345678", "", false},
		{"07123456789", "", false},
		{"071234567", "", false},
		{"+1 555 123 4567", "", false},
		{"not-a-number", "", false},
	}

	for _, tc := range cases {
		got, ok := NormalizePhone(tc.in)
		require.Equal(t, tc.ok, ok, "input %q", tc.in)
		require.Equal(t, tc.want, got, "input %q", tc.in)
	}
}
