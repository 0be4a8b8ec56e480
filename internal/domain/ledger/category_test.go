package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCategory(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "Office", "office"},
		{"trims surrounding space", "  Travel  ", "travel"},
		{"collapses inner whitespace", "office   supplies", "office supplies"},
		{"mixed case and tabs", "\tOffice\tSupplies ", "office supplies"},
		{"already normalized", "software", "software"},
		{"unicode folding", "BÜRO", "büro"},
		{"blank stays empty", "   ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeCategory(tc.input))
		})
	}
}
