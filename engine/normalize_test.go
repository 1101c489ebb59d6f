package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "Qual Sua Linguagem", "qual sua linguagem"},
		{"trims whitespace", "  oi tudo bem  ", "oi tudo bem"},
		{"strips diacritics", "Coração é emoção", "coracao e emocao"},
		{"cedilla folds to c", "AÇÃO", "acao"},
		{"plain ascii unchanged", "hello world", "hello world"},
		{"empty input", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestTokenize(t *testing.T) {
	tokens := Tokenize("qual e a sua linguagem favorita?")

	assert.Len(t, tokens, 6)
	assert.Contains(t, tokens, "linguagem")
	assert.Contains(t, tokens, "favorita")
	assert.NotContains(t, tokens, "?")
}

func TestTokenizeDeduplicates(t *testing.T) {
	tokens := Tokenize("bom bom bom dia")

	assert.Len(t, tokens, 2)
}

func TestOverlap(t *testing.T) {
	a := Tokenize("qual sua linguagem")
	b := Tokenize("qual e a sua linguagem favorita")

	assert.Equal(t, 3, overlap(a, b))
	assert.Equal(t, 3, overlap(b, a))
	assert.Equal(t, 0, overlap(a, Tokenize("bom dia")))
	assert.Equal(t, 0, overlap(a, Tokenize("")))
}
