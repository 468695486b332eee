package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "notes.pdf", want: "notes.pdf"},
		{name: "spaces and punctuation", in: "Calculus Notes (final).pdf", want: "Calculus_Notes_final.pdf"},
		{name: "whitespace run", in: "a   b\tc.pdf", want: "a_b_c.pdf"},
		{name: "accents folded", in: "Résumé été.pdf", want: "Resume_ete.pdf"},
		{name: "unix path", in: "../../etc/passwd", want: "passwd"},
		{name: "windows path", in: `C:\Users\me\thesis.pdf`, want: "thesis.pdf"},
		{name: "leading dots", in: "..hidden.pdf", want: "hidden.pdf"},
		{name: "only dots", in: "...", want: "file"},
		{name: "only symbols", in: "!!! ???", want: "file"},
		{name: "empty", in: "", want: "file"},
		{name: "non latin", in: "конспект.pdf", want: "pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFileName(tt.in))
		})
	}
}

func TestSanitizeFileName_TruncatesKeepingExtension(t *testing.T) {
	got := SanitizeFileName(strings.Repeat("a", 300) + ".pdf")

	assert.Len(t, got, 200)
	assert.True(t, strings.HasSuffix(got, ".pdf"))
}
