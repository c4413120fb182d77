package validate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizePhoneIndia(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{name: "bare ten digits", input: "9876543210", want: "+919876543210", ok: true},
		{name: "spaces and dashes", input: "98765-432 10", want: "+919876543210", ok: true},
		{name: "country code without plus", input: "919876543210", want: "+919876543210", ok: true},
		{name: "canonical form", input: "+91 9876543210", want: "+919876543210", ok: true},
		{name: "starts below six", input: "5876543210", ok: false},
		{name: "too short", input: "987654321", ok: false},
		{name: "too long", input: "98765432101", ok: false},
		{name: "wrong country code", input: "449876543210", ok: false},
		{name: "empty", input: "", ok: false},
		{name: "letters only", input: "not a phone", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizePhoneIndia(tc.input)
			if !tc.ok {
				require.ErrorIs(t, err, ErrInvalidPhone)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}
