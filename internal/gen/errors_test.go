package gen_test

import (
	"fmt"
	"testing"

	"github.com/JaimeStill/inkwell/internal/gen"
)

func TestFatal(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"authentication", gen.ErrAuthentication, true},
		{"quota", gen.ErrQuotaExceeded, true},
		{"wrapped quota", fmt.Errorf("baseline reference: %w", gen.ErrQuotaExceeded), true},
		{"no image", gen.ErrNoImage, false},
		{"missing key", gen.ErrMissingAPIKey, false},
		{"nil", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := gen.Fatal(tc.err); got != tc.want {
				t.Errorf("Fatal(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
