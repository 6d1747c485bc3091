package local

import (
	"strings"
	"unicode"
)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "or": true, "i": true, "my": true, "me": true,
	"some": true, "something": true, "want": true, "like": true, "make": true,
	"then": true, "until": true, "into": true, "all": true, "over": true,
	"up": true, "each": true, "your": true, "can": true, "will": true, "if": true,
}

// irregularPlurals are plurals the suffix rules in singular get wrong.
var irregularPlurals = map[string]string{
	"cookies":   "cookie",
	"brownies":  "brownie",
	"smoothies": "smoothie",
	"veggies":   "veggie",
	"quiches":   "quiche",
	"leaves":    "leaf",
	"loaves":    "loaf",
	"halves":    "half",
}

// tokenize lowercases text, splits it on anything that is not a letter or
// digit, drops stop words and quantities like "2" or "180c", and folds
// simple plurals.
func tokenize(text string, vocab *Vocabulary) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, word := range fields {
		if stopWords[word] || vocab.isStopWord(word) || hasDigit(word) {
			continue
		}
		if canon, ok := vocab.synonym(word); ok {
			tokens = append(tokens, canon)
			continue
		}
		tokens = append(tokens, vocab.canonical(singular(word)))
	}
	return tokens
}

func hasDigit(word string) bool {
	return strings.IndexFunc(word, unicode.IsDigit) >= 0
}

// singular strips common English plural endings.
func singular(word string) string {
	if s, ok := irregularPlurals[word]; ok {
		return s
	}
	n := len(word)
	switch {
	case n > 4 && strings.HasSuffix(word, "ies"):
		return word[:n-3] + "y"
	case n > 4 && (strings.HasSuffix(word, "oes") || strings.HasSuffix(word, "ches") ||
		strings.HasSuffix(word, "shes") || strings.HasSuffix(word, "xes")):
		return word[:n-2]
	case n > 3 && strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss") &&
		!strings.HasSuffix(word, "us") && !strings.HasSuffix(word, "is"):
		return word[:n-1]
	}
	return word
}

// trigrams returns the character trigrams of a token padded with boundary markers.
func trigrams(token string) []string {
	runes := []rune("<" + token + ">")
	if len(runes) < 3 {
		return nil
	}
	out := make([]string, 0, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		out = append(out, string(runes[i:i+3]))
	}
	return out
}
