package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple name", "John Doe", "john-doe"},
		{"already a slug", "john-doe", "john-doe"},
		{"uppercase folded", "ALLCAPS", "allcaps"},
		{"accents transliterated", "Máté König", "mate-konig"},
		{"diacritic soup", "Ünïcôdé", "unicode"},
		{"whitespace runs collapse", "  spaced   out  ", "spaced-out"},
		{"dots and underscores kept", "user_name.42", "user_name.42"},
		{"punctuation dropped", "what?! a name...", "what-a-name"},
		{"repeated hyphens collapse", "a--b---c", "a-b-c"},
		{"leading separators trimmed", "--_hello_--", "hello"},
		{"only symbols yields empty", "🔥🔥🔥", ""},
		{"empty input", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Make(tt.in))
		})
	}
}
