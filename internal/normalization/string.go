package normalization

import (
	"strings"
)

func ParseInputString(input string) string {
	normalized := strings.ToLower(strings.TrimSpace(input))
	return normalized
}

// TrimName normalizes a user- or AI-supplied display name without folding
// case: names are shown verbatim.
func TrimName(input string) string {
	return strings.Join(strings.Fields(input), " ")
}
