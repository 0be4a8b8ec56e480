package ledger

import (
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeCategory canonicalizes a free-form category label so that
// "Office", " office " and "OFFICE" all aggregate under one key.
// The rule is Unicode case folding plus trimming and collapsing of
// internal whitespace. The normalized form is what the ledger stores
// and what aggregation groups by.
func NormalizeCategory(label string) string {
	folded := cases.Fold().String(label)
	return strings.Join(strings.Fields(folded), " ")
}
