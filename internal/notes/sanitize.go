package notes

import (
	"regexp"
	"strings"
)

var scriptTagRegexp = regexp.MustCompile(`(?is)<script\b.*?</script\s*>`)

// Sanitize trims s and strips <script> elements. It is a defanging pass for
// stored text, not an HTML sanitizer; rendering escapes separately.
func Sanitize(s string) string {
	return scriptTagRegexp.ReplaceAllString(strings.TrimSpace(s), "")
}
