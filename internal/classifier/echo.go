package classifier

import (
	"strings"
	"unicode"

	"github.com/orsinium-labs/stopwords"
)

var english = stopwords.MustGet("en")

// EchoWords returns the distinct content words of text in first-seen order,
// skipping stopwords and words shorter than three letters. A limit <= 0
// means no limit.
func EchoWords(text string, limit int) []string {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})

	seen := make(map[string]bool)
	var words []string
	for _, tok := range tokens {
		tok = strings.Trim(tok, "'")
		if len([]rune(tok)) < 3 || seen[tok] || english.Contains(tok) {
			continue
		}
		seen[tok] = true
		words = append(words, tok)
		if limit > 0 && len(words) == limit {
			break
		}
	}
	return words
}
