package sanitizer

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// bluemonday escapes quotes in text as well; stored text only escapes &, < and >.
var unescapeQuotes = strings.NewReplacer("&#39;", "'", "&#34;", `"`)

// StrictSanitizer removes every element and attribute, keeping text content.
type StrictSanitizer struct {
	policy *bluemonday.Policy
}

func NewStrictSanitizer() *StrictSanitizer {
	return &StrictSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize is safe for concurrent use; bluemonday policies are read-only once built.
func (s *StrictSanitizer) Sanitize(in string) string {
	return unescapeQuotes.Replace(s.policy.Sanitize(in))
}
