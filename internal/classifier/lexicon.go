package classifier

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pbaille/echorealms/internal/domain"
	"gopkg.in/yaml.v3"
)

// Entry binds an emotion to the keywords that signal it
type Entry struct {
	Emotion  domain.Emotion `yaml:"label"`
	Keywords []string       `yaml:"keywords"`
}

// Lexicon is an ordered keyword table. Order decides ties.
type Lexicon []Entry

// DefaultLexicon is the built-in keyword table
var DefaultLexicon = Lexicon{
	{domain.Joy, []string{"happy", "excited", "wonderful", "amazing", "great", "fantastic", "love", "perfect", "brilliant"}},
	{domain.Sadness, []string{"sad", "depressed", "lonely", "hurt", "cry", "tears", "lost", "empty", "down"}},
	{domain.Anger, []string{"angry", "furious", "hate", "mad", "frustrated", "annoyed", "rage", "upset"}},
	{domain.Fear, []string{"scared", "afraid", "worried", "anxious", "nervous", "panic", "terrified"}},
	{domain.Surprise, []string{"surprised", "shocked", "amazed", "unexpected", "wow", "incredible"}},
	{domain.Neutral, []string{"okay", "fine", "normal", "usual", "regular"}},
}

type lexiconFile struct {
	Emotions []Entry `yaml:"emotions"`
}

// LoadLexicon parses a YAML keyword table:
//
//	emotions:
//	  - label: joy
//	    keywords: [happy, glad]
func LoadLexicon(r io.Reader) (Lexicon, error) {
	var f lexiconFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode lexicon: %w", err)
	}
	if len(f.Emotions) == 0 {
		return nil, fmt.Errorf("lexicon has no emotions")
	}

	seen := make(map[domain.Emotion]bool)
	lex := make(Lexicon, 0, len(f.Emotions))
	for _, e := range f.Emotions {
		if !e.Emotion.Valid() {
			return nil, fmt.Errorf("unknown emotion %q", e.Emotion)
		}
		if seen[e.Emotion] {
			return nil, fmt.Errorf("duplicate emotion %q", e.Emotion)
		}
		seen[e.Emotion] = true

		var keywords []string
		for _, k := range e.Keywords {
			k = strings.ToLower(strings.TrimSpace(k))
			if k != "" {
				keywords = append(keywords, k)
			}
		}
		if len(keywords) == 0 {
			return nil, fmt.Errorf("emotion %q has no keywords", e.Emotion)
		}
		lex = append(lex, Entry{Emotion: e.Emotion, Keywords: keywords})
	}
	return lex, nil
}

// LoadLexiconFile reads a YAML keyword table from disk
func LoadLexiconFile(path string) (Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lexicon: %w", err)
	}
	defer f.Close()
	return LoadLexicon(f)
}
