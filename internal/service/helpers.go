package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

func clampPageSize(size int) int {
	if size <= 0 {
		return 20
	}
	if size > 100 {
		return 100
	}
	return size
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// plainText strips markup and decodes the entities the policy escapes,
// leaving the text a learner actually typed.
func plainText(policy *bluemonday.Policy, input string) string {
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(input)))
}
