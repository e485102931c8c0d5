package classifier

import (
	"strings"

	"github.com/coregx/ahocorasick"
	"github.com/pbaille/echorealms/internal/domain"
)

const (
	baseIntensity = 0.4
	hitIntensity  = 0.3
	maxIntensity  = 1.0
)

// Hit is one keyword occurrence. Offsets are bytes into the lower-cased text.
type Hit struct {
	Keyword string         `json:"keyword"`
	Emotion domain.Emotion `json:"emotion"`
	Start   int            `json:"start"`
	End     int            `json:"end"`
}

// Classifier labels text by counting keywords per emotion
type Classifier struct {
	lexicon Lexicon

	ac       *ahocorasick.Automaton
	patterns []Hit // pattern id -> keyword and emotion
}

var defaultClassifier = mustNew(DefaultLexicon)

// New builds a Classifier over the given lexicon
func New(lex Lexicon) (*Classifier, error) {
	c := &Classifier{lexicon: lex}

	var words []string
	for _, e := range lex {
		for _, k := range e.Keywords {
			words = append(words, k)
			c.patterns = append(c.patterns, Hit{Keyword: k, Emotion: e.Emotion})
		}
	}
	if len(words) == 0 {
		return c, nil
	}

	ac, err := ahocorasick.NewBuilder().
		AddStrings(words).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, err
	}
	c.ac = ac
	return c, nil
}

func mustNew(lex Lexicon) *Classifier {
	c, err := New(lex)
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns the classifier over DefaultLexicon
func Default() *Classifier {
	return defaultClassifier
}

// Classify labels text with the default lexicon
func Classify(text string) domain.Classification {
	return defaultClassifier.Classify(text)
}

// Classify returns the emotion whose keywords appear most often in text.
// Each keyword counts once however often it repeats. Equal counts go to the
// emotion listed first in the lexicon; no hits at all yields neutral.
func (c *Classifier) Classify(text string) domain.Classification {
	lower := strings.ToLower(text)

	best := domain.Neutral
	bestCount := 0
	for _, e := range c.lexicon {
		count := 0
		for _, k := range e.Keywords {
			if strings.Contains(lower, k) {
				count++
			}
		}
		if count > bestCount {
			best = e.Emotion
			bestCount = count
		}
	}

	return domain.Classification{
		Emotion:   best,
		Intensity: Intensity(bestCount),
	}
}

// Intensity maps a winning keyword count onto [0.4, 1.0]
func Intensity(count int) float64 {
	return min(float64(count)*hitIntensity+baseIntensity, maxIntensity)
}

// Matches reports every keyword occurrence in text, in order of appearance
func (c *Classifier) Matches(text string) []Hit {
	if c.ac == nil {
		return nil
	}

	matches := c.ac.FindAllOverlapping([]byte(strings.ToLower(text)))
	hits := make([]Hit, 0, len(matches))
	for _, m := range matches {
		if m.PatternID < 0 || m.PatternID >= len(c.patterns) {
			continue
		}
		h := c.patterns[m.PatternID]
		h.Start = m.Start
		h.End = m.End
		hits = append(hits, h)
	}
	return hits
}

// Lexicon returns the table the classifier was built with
func (c *Classifier) Lexicon() Lexicon {
	return c.lexicon
}
