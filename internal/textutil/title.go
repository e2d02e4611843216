package textutil

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultTitle is used when nothing usable can be derived from the file name.
const DefaultTitle = "Lecture"

// DeriveTitle builds a title from the base name of sourcePath. Separators
// (space, dash, underscore, dot) collapse to single spaces, other punctuation
// is dropped and the result is title-cased.
func DeriveTitle(sourcePath string) string {
	if strings.TrimSpace(sourcePath) == "" {
		return DefaultTitle
	}
	base := filepath.Base(sourcePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return DefaultTitle
	}
	return cases.Title(language.Und).String(title)
}
