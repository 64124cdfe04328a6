package textutil

import (
	"strings"
	"unicode"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName makes name safe to create inside a delivery directory.
// Path separators, colons and asterisks become dashes, other unsafe
// characters and control characters are removed, and leading dots are
// stripped so a name can never be hidden or climb out of the directory.
func SanitizeFileName(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(fileNameReplacer.Replace(strings.TrimSpace(name)))
	return strings.TrimSpace(strings.TrimLeft(name, "."))
}
