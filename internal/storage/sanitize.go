package storage

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SanitizeFileName turns a user supplied file name into a safe object
// identifier: accents are folded (NFKD, combining marks removed),
// whitespace runs become "_" and anything outside [A-Za-z0-9._-] is dropped.
// Leading dots are trimmed so the result is never hidden or relative.
func SanitizeFileName(name string) string {
	// Keep only the base name; clients may send full paths
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	inSpace := false
	for _, r := range folded {
		switch {
		case unicode.IsSpace(r):
			if !inSpace {
				b.WriteByte('_')
			}
			inSpace = true
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_' || r == '-'):
			b.WriteRune(r)
		}
		inSpace = false
	}

	out := strings.TrimLeft(b.String(), ".")
	if out == "" || strings.Trim(out, "_-") == "" {
		return "file"
	}
	if len(out) > 200 {
		out = out[len(out)-200:]
	}
	return out
}
