package tagweaver

import (
	"strings"
	"unicode"
)

// DefaultComboName names a combination with no non-empty value.
const DefaultComboName = "default"

// CleanName keeps letters, digits, spaces, '_' and '-' and trims the result.
func CleanName(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' || r == '-' {
			sb.WriteRune(r)
		}
	}
	return strings.TrimSpace(sb.String())
}

// ComboName builds a file-name suffix for one combination: the non-empty
// values of the template's tags, in the order the tags first appear, cleaned
// and joined with '_'.
func ComboName(template string, a Assignment) string {
	var parts []string
	for _, name := range Scan(template).Tags() {
		if v := CleanName(a[name]); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return DefaultComboName
	}
	return strings.Join(parts, "_")
}
